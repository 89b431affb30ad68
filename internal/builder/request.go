package builder

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"
)

// MinTextLength is the minimum number of characters (after trimming) for
// free-text fields.
const MinTextLength = 10

// Messages reported for invalid fields.
const (
	MsgOutlineTooShort     = "Script outline must be at least 10 characters."
	MsgDescriptionTooShort = "Model description must be at least 10 characters."
	MsgConceptArtRequired  = "Concept art image is required."
	MsgSingleConceptArt    = "Please select exactly one concept art image."
	MsgFileTooLarge        = "Max file size is 5MB."
	MsgUnsupportedType     = "Only .jpg, .jpeg, .png and .webp formats are supported."
	MsgNotDataURI          = "Concept art must be a base64 data URI."
)

// StoryboardInput is the raw form state of the storyboard form.
type StoryboardInput struct {
	ScriptOutline string
}

// StoryboardRequest is a validated storyboard request. The zero value is not
// valid; use NewStoryboardRequest.
type StoryboardRequest struct {
	scriptOutline string
}

// ScriptOutline returns the trimmed outline.
func (r StoryboardRequest) ScriptOutline() string { return r.scriptOutline }

// NewStoryboardRequest validates the raw input.
func NewStoryboardRequest(in StoryboardInput) (StoryboardRequest, error) {
	var c collector
	outline := strings.TrimSpace(in.ScriptOutline)
	if utf8.RuneCountInString(outline) < MinTextLength {
		c.add(FieldScriptOutline, MsgOutlineTooShort)
	}
	if err := c.err(); err != nil {
		return StoryboardRequest{}, err
	}
	return StoryboardRequest{scriptOutline: outline}, nil
}

// ModelInput is the raw form state of the concept art form.
type ModelInput struct {
	Files            []File
	ModelDescription string
}

// ModelRequest is a validated model request carrying the concept art as an
// embedded data reference.
type ModelRequest struct {
	conceptArt       DataURI
	modelDescription string
}

// ConceptArt returns a copy of the decoded concept art.
func (r ModelRequest) ConceptArt() DataURI {
	return DataURI{MIMEType: r.conceptArt.MIMEType, Data: bytes.Clone(r.conceptArt.Data)}
}

// ConceptArtDataURI returns the concept art as data:<mime>;base64,<payload>.
func (r ModelRequest) ConceptArtDataURI() string { return r.conceptArt.String() }

// ModelDescription returns the trimmed description.
func (r ModelRequest) ModelDescription() string { return r.modelDescription }

// NewModelRequest validates the raw input, reads the selected file and encodes
// it as a data URI. All fields are validated before the file is read.
func NewModelRequest(ctx context.Context, in ModelInput) (ModelRequest, error) {
	var c collector
	switch len(in.Files) {
	case 0:
		c.add(FieldConceptArt, MsgConceptArtRequired)
	case 1:
		checkConceptArt(&c, in.Files[0].Size, in.Files[0].MediaType())
	default:
		c.add(FieldConceptArt, MsgSingleConceptArt)
	}
	description := checkDescription(&c, in.ModelDescription)
	if err := c.err(); err != nil {
		return ModelRequest{}, err
	}

	f := in.Files[0]
	if f.Open == nil {
		return ModelRequest{}, &ReadError{Name: f.Name, Err: errNoContent}
	}
	rc, err := f.Open()
	if err != nil {
		return ModelRequest{}, &ReadError{Name: f.Name, Err: err}
	}
	defer rc.Close()

	art, err := ReadDataURI(ctx, f.Name, f.MediaType(), rc, MaxConceptArtBytes)
	if err != nil {
		return ModelRequest{}, err
	}
	// the declared size may understate the content
	if int64(len(art.Data)) > MaxConceptArtBytes {
		c.add(FieldConceptArt, MsgFileTooLarge)
		return ModelRequest{}, c.err()
	}
	return ModelRequest{conceptArt: art, modelDescription: description}, nil
}

// NewModelRequestFromDataURI validates a request whose concept art is already
// an embedded data reference.
func NewModelRequestFromDataURI(dataURI, modelDescription string) (ModelRequest, error) {
	var c collector
	art, err := DecodeDataURI(strings.TrimSpace(dataURI))
	if err != nil {
		c.add(FieldConceptArtDataURI, MsgNotDataURI)
	} else if int64(len(art.Data)) > MaxConceptArtBytes {
		c.add(FieldConceptArtDataURI, MsgFileTooLarge)
	} else if !IsAcceptedImageType(art.MIMEType) {
		c.add(FieldConceptArtDataURI, MsgUnsupportedType)
	}
	description := checkDescription(&c, modelDescription)
	if err := c.err(); err != nil {
		return ModelRequest{}, err
	}
	return ModelRequest{conceptArt: art, modelDescription: description}, nil
}

func checkDescription(c *collector, raw string) string {
	description := strings.TrimSpace(raw)
	if utf8.RuneCountInString(description) < MinTextLength {
		c.add(FieldModelDescription, MsgDescriptionTooShort)
	}
	return description
}
