package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mpilhlt/filmstudio/internal/models"
)

func getPreviewFunc(ctx context.Context, input *models.GetPreviewRequest) (*models.GetPreviewResponse, error) {
	env, err := GetEnv(ctx)
	if err != nil {
		return nil, err
	}
	img, ok := env.Forms.Previews().Get(input.PreviewID)
	if !ok {
		return nil, huma.Error404NotFound("preview not found")
	}
	return &models.GetPreviewResponse{
		ContentType:  img.ContentType,
		CacheControl: "private, max-age=300",
		Body:         img.Data,
	}, nil
}

// RegisterPreviewRoutes registers the route serving concept art previews
func RegisterPreviewRoutes(env *Env, api huma.API) error {
	getPreviewOp := huma.Operation{
		OperationID: "getPreview",
		Method:      http.MethodGet,
		Path:        "/v1/previews/{preview_id}",
		Summary:     "Serve a selected concept art image",
		Tags:        []string{"previews"},
	}

	huma.Register(api, getPreviewOp, addEnvToContext(env, getPreviewFunc))
	return nil
}
