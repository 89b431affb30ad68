package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"
)

// OutputSchema is the contract a backend answer is checked against.
// JSON is the JSON Schema document; Gemini is the same contract in the
// form the Gemini API accepts as a response schema.
type OutputSchema struct {
	Name   string
	JSON   string
	Gemini *genai.Schema

	compiled *gojsonschema.Schema
}

func newOutputSchema(name, doc string, gemini *genai.Schema) *OutputSchema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("schema %s: %v", name, err))
	}
	return &OutputSchema{
		Name:     name,
		JSON:     doc,
		Gemini:   gemini,
		compiled: compiled,
	}
}

// Decode validates raw against the schema and unmarshals it into v.
func (s *OutputSchema) Decode(raw string, v any) error {
	raw = trimFence(raw)
	result, err := s.compiled.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return &SchemaValidationError{Schema: s.Name, Problems: []string{fmt.Sprintf("invalid JSON: %v", err)}}
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return &SchemaValidationError{Schema: s.Name, Problems: problems}
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return &SchemaValidationError{Schema: s.Name, Problems: []string{err.Error()}}
	}
	return nil
}

// trimFence strips a markdown code fence some models wrap JSON answers in.
func trimFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}

// StoryboardSchema describes the output of the storyboard flow.
var StoryboardSchema = newOutputSchema("storyboard", `{
  "type": "object",
  "properties": {
    "storyboard": {
      "type": "array",
      "description": "The generated storyboard, including camera angles and scene layouts.",
      "items": {
        "type": "object",
        "properties": {
          "sceneDescription": {"type": "string", "description": "Description of the scene."},
          "cameraAngle": {"type": "string", "description": "Suggested camera angle for the scene."},
          "sceneLayout": {"type": "string", "description": "Suggested scene layout."}
        },
        "required": ["sceneDescription", "cameraAngle", "sceneLayout"],
        "additionalProperties": false
      }
    }
  },
  "required": ["storyboard"],
  "additionalProperties": false
}`, &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"storyboard": {
			Type:        genai.TypeArray,
			Description: "The generated storyboard, including camera angles and scene layouts.",
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"sceneDescription": {Type: genai.TypeString, Description: "Description of the scene."},
					"cameraAngle":      {Type: genai.TypeString, Description: "Suggested camera angle for the scene."},
					"sceneLayout":      {Type: genai.TypeString, Description: "Suggested scene layout."},
				},
				Required:         []string{"sceneDescription", "cameraAngle", "sceneLayout"},
				PropertyOrdering: []string{"sceneDescription", "cameraAngle", "sceneLayout"},
			},
		},
	},
	Required: []string{"storyboard"},
})

// ModelSchema describes the output of the 3D model flow.
var ModelSchema = newOutputSchema("model_assets", `{
  "type": "object",
  "properties": {
    "modelDataUri": {
      "type": "string",
      "pattern": "^data:[^;,]+;base64,",
      "description": "The generated 3D model as a data URI. Expected format: 'data:<mimetype>;base64,<encoded_data>'."
    },
    "textureDataUri": {
      "type": "string",
      "pattern": "^data:[^;,]+;base64,",
      "description": "The generated texture as a data URI. Expected format: 'data:<mimetype>;base64,<encoded_data>'."
    }
  },
  "required": ["modelDataUri", "textureDataUri"],
  "additionalProperties": false
}`, &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"modelDataUri": {
			Type:        genai.TypeString,
			Description: "The generated 3D model as a data URI. Expected format: 'data:<mimetype>;base64,<encoded_data>'.",
		},
		"textureDataUri": {
			Type:        genai.TypeString,
			Description: "The generated texture as a data URI. Expected format: 'data:<mimetype>;base64,<encoded_data>'.",
		},
	},
	Required:         []string{"modelDataUri", "textureDataUri"},
	PropertyOrdering: []string{"modelDataUri", "textureDataUri"},
})
