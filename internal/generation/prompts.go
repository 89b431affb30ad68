package generation

import (
	"strings"
	"text/template"

	"github.com/mpilhlt/filmstudio/internal/builder"
)

// Flow names
const (
	StoryboardFlow = "generateStoryboardFlow"
	ModelFlow      = "generate3DModelFlow"
)

var storyboardPrompt = template.Must(template.New("generateStoryboardPrompt").Parse(
	"You are a professional storyboard artist. Based on the provided script outline, " +
		"generate a storyboard with suggested camera angles and scene layouts for each scene.\n\n" +
		"Script Outline:\n{{.scriptOutline}}\n\nStoryboard:"))

// The concept art is inserted as a media part between the two halves.
var (
	modelPromptHead = template.Must(template.New("generate3DModelPrompt").Parse(
		"You are an expert 3D modeler. Generate a 3D model and texture based on the provided " +
			"concept art and description. Return the 3D model and the texture as data URIs.\n\n" +
			"Concept Art: "))
	modelPromptTail = template.Must(template.New("generate3DModelPromptTail").Parse(
		"\nDescription: {{.modelDescription}}"))
)

func render(t *template.Template, vars map[string]string) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, vars); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func storyboardCall(req builder.StoryboardRequest) (Call, error) {
	vars := map[string]string{"scriptOutline": req.ScriptOutline()}
	text, err := render(storyboardPrompt, vars)
	if err != nil {
		return Call{}, err
	}
	return Call{
		Name:   StoryboardFlow,
		Parts:  []Part{{Text: text}},
		Vars:   vars,
		Schema: StoryboardSchema,
	}, nil
}

func modelCall(req builder.ModelRequest) (Call, error) {
	vars := map[string]string{
		"conceptArtDataUri": req.ConceptArtDataURI(),
		"modelDescription":  req.ModelDescription(),
	}
	head, err := render(modelPromptHead, vars)
	if err != nil {
		return Call{}, err
	}
	tail, err := render(modelPromptTail, vars)
	if err != nil {
		return Call{}, err
	}
	art := req.ConceptArt()
	return Call{
		Name:   ModelFlow,
		Parts:  []Part{{Text: head}, {Media: &art}, {Text: tail}},
		Vars:   vars,
		Schema: ModelSchema,
	}, nil
}
