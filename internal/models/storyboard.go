package models

// SceneCard is one unit of a generated storyboard.
type SceneCard struct {
	SceneDescription string `json:"sceneDescription" doc:"Description of the scene."`
	CameraAngle      string `json:"cameraAngle" doc:"Suggested camera angle for the scene."`
	SceneLayout      string `json:"sceneLayout" doc:"Suggested scene layout."`
}

// Storyboard is the structured result of a storyboard generation.
type Storyboard struct {
	Storyboard []SceneCard `json:"storyboard" doc:"The generated storyboard, in scene order."`
}

// Generate a storyboard
// POST Path: "/v1/storyboards"

type StoryboardBody struct {
	ScriptOutline string `json:"scriptOutline" maxLength:"20000" example:"A detective enters a dark warehouse." doc:"The script outline to generate the storyboard from (at least 10 characters)."`
}

type PostStoryboardRequest struct {
	Body StoryboardBody
}

type StoryboardResponse struct {
	Body Storyboard
}
