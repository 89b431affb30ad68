package generation

import (
	"context"
	"strings"

	"github.com/mpilhlt/filmstudio/internal/builder"
)

// Part is one element of a prompt. Exactly one of Text and Media is set.
type Part struct {
	Text  string
	Media *builder.DataURI
}

// Call is a single structured generation request handed to a Backend.
type Call struct {
	// Name identifies the flow, e.g. "generateStoryboardFlow".
	Name string
	// Parts is the rendered prompt in order.
	Parts []Part
	// Vars holds the template variables the prompt was rendered from.
	Vars map[string]string
	// Schema describes the JSON the backend has to return.
	Schema *OutputSchema
}

// Text concatenates the text parts of the call.
func (c Call) Text() string {
	var sb strings.Builder
	for _, p := range c.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// Backend turns a call into raw JSON text.
type Backend interface {
	Generate(ctx context.Context, call Call) (string, error)
	Name() string
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, call Call) (string, error)

func (f BackendFunc) Generate(ctx context.Context, call Call) (string, error) {
	return f(ctx, call)
}

func (f BackendFunc) Name() string { return "func" }
