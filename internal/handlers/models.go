package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mpilhlt/filmstudio/internal/auth"
	"github.com/mpilhlt/filmstudio/internal/builder"
	"github.com/mpilhlt/filmstudio/internal/models"
)

func postModelFunc(ctx context.Context, input *models.PostModelRequest) (*models.ModelResponse, error) {
	env, err := GetEnv(ctx)
	if err != nil {
		return nil, err
	}

	req, err := builder.NewModelRequestFromDataURI(input.Body.ConceptArtDataURI, input.Body.ModelDescription)
	if err != nil {
		return nil, validationProblem(err, "body")
	}
	return generateModel(ctx, env, req)
}

func uploadModelFunc(ctx context.Context, input *models.UploadModelRequest) (*models.ModelResponse, error) {
	env, err := GetEnv(ctx)
	if err != nil {
		return nil, err
	}

	in := builder.ModelInput{ModelDescription: formValue(&input.RawBody, builder.FieldModelDescription)}
	for _, fh := range input.RawBody.File[builder.FieldConceptArt] {
		in.Files = append(in.Files, builder.FileFromHeader(fh))
	}

	req, err := builder.NewModelRequest(ctx, in)
	if err != nil {
		if _, ok := builder.AsValidationError(err); ok {
			return nil, validationProblem(err, "body")
		}
		return nil, generationProblem(env.Logger, models.KindModel, err)
	}
	return generateModel(ctx, env, req)
}

func generateModel(ctx context.Context, env *Env, req builder.ModelRequest) (*models.ModelResponse, error) {
	out, err := env.Generator.GenerateModel(ctx, req)
	if err != nil {
		return nil, generationProblem(env.Logger, models.KindModel, err)
	}
	return &models.ModelResponse{Body: out}, nil
}

// RegisterModelRoutes registers the routes for 3D model generation
func RegisterModelRoutes(env *Env, api huma.API) error {
	postModelOp := huma.Operation{
		OperationID:  "postModel",
		Method:       http.MethodPost,
		Path:         "/v1/models",
		Summary:      "Generate 3D model assets from concept art given as a data URI",
		Tags:         []string{"models"},
		MaxBodyBytes: maxDataURIBodyBytes,
		Security:     auth.Security,
	}
	uploadModelOp := huma.Operation{
		OperationID:  "uploadModel",
		Method:       http.MethodPost,
		Path:         "/v1/models/upload",
		Summary:      "Generate 3D model assets from uploaded concept art",
		Description:  "Multipart form with the fields 'conceptArt' (a single JPEG, PNG or WEBP image of at most 5MB) and 'modelDescription'.",
		Tags:         []string{"models"},
		MaxBodyBytes: maxUploadBytes,
		Security:     auth.Security,
	}

	huma.Register(api, postModelOp, addEnvToContext(env, postModelFunc))
	huma.Register(api, uploadModelOp, addEnvToContext(env, uploadModelFunc))
	return nil
}
