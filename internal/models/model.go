package models

import "mime/multipart"

// ModelAssets are the embedded assets produced for a piece of concept art.
type ModelAssets struct {
	ModelDataURI   string `json:"modelDataUri" example:"data:model/gltf-binary;base64,ZHVtbXlfbW9kZWxfZGF0YQ==" doc:"The generated 3D model as a data URI ('data:<mimetype>;base64,<encoded_data>')."`
	TextureDataURI string `json:"textureDataUri" doc:"The generated texture as a data URI ('data:<mimetype>;base64,<encoded_data>')."`
}

// Generate model assets from an embedded image
// POST Path: "/v1/models"

type ModelBody struct {
	ConceptArtDataURI string `json:"conceptArtDataUri" doc:"A 2D concept art image (JPEG, PNG or WEBP, at most 5MB) as a data URI ('data:<mimetype>;base64,<encoded_data>')."`
	ModelDescription  string `json:"modelDescription" maxLength:"5000" example:"A futuristic helmet with glowing blue accents" doc:"Detailed description of the 3D model to generate (at least 10 characters)."`
}

type PostModelRequest struct {
	Body ModelBody
}

// Generate model assets from an uploaded file
// POST Path: "/v1/models/upload"
// The form carries the file as "conceptArt" and the text as "modelDescription".

type UploadModelRequest struct {
	RawBody multipart.Form
}

type ModelResponse struct {
	Body ModelAssets
}
