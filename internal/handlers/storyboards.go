package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mpilhlt/filmstudio/internal/auth"
	"github.com/mpilhlt/filmstudio/internal/builder"
	"github.com/mpilhlt/filmstudio/internal/models"
)

func postStoryboardFunc(ctx context.Context, input *models.PostStoryboardRequest) (*models.StoryboardResponse, error) {
	env, err := GetEnv(ctx)
	if err != nil {
		return nil, err
	}

	req, err := builder.NewStoryboardRequest(builder.StoryboardInput{ScriptOutline: input.Body.ScriptOutline})
	if err != nil {
		return nil, validationProblem(err, "body")
	}

	out, err := env.Generator.GenerateStoryboard(ctx, req)
	if err != nil {
		return nil, generationProblem(env.Logger, models.KindStoryboard, err)
	}
	return &models.StoryboardResponse{Body: out}, nil
}

// RegisterStoryboardRoutes registers the routes for storyboard generation
func RegisterStoryboardRoutes(env *Env, api huma.API) error {
	postStoryboardOp := huma.Operation{
		OperationID: "postStoryboard",
		Method:      http.MethodPost,
		Path:        "/v1/storyboards",
		Summary:     "Generate a storyboard from a script outline",
		Tags:        []string{"storyboards"},
		Security:    auth.Security,
	}

	huma.Register(api, postStoryboardOp, addEnvToContext(env, postStoryboardFunc))
	return nil
}
