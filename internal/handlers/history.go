package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/mpilhlt/filmstudio/internal/auth"
	"github.com/mpilhlt/filmstudio/internal/builder"
	"github.com/mpilhlt/filmstudio/internal/history"
	"github.com/mpilhlt/filmstudio/internal/models"
)

func historyService(ctx context.Context) (*Env, error) {
	env, err := GetEnv(ctx)
	if err != nil {
		return nil, err
	}
	if env.History == nil {
		return nil, huma.Error503ServiceUnavailable("generation history is disabled")
	}
	return env, nil
}

func getHistoryFunc(ctx context.Context, input *models.GetHistoryRequest) (*models.GetHistoryResponse, error) {
	env, err := historyService(ctx)
	if err != nil {
		return nil, err
	}
	switch input.Kind {
	case "", models.KindStoryboard, models.KindModel:
	default:
		return nil, huma.Error422UnprocessableEntity("invalid kind", &huma.ErrorDetail{
			Message:  "kind must be storyboard or model",
			Location: "query.kind",
			Value:    input.Kind,
		})
	}

	records, err := env.History.List(ctx, history.Query{Kind: input.Kind, Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		env.Logger.Error("unable to list generations", zap.Error(err))
		return nil, huma.Error500InternalServerError("unable to list generations")
	}
	resp := &models.GetHistoryResponse{}
	resp.Body.Records = records
	return resp, nil
}

func getHistoryRecordFunc(ctx context.Context, input *models.GetHistoryRecordRequest) (*models.GetHistoryRecordResponse, error) {
	env, err := historyService(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := env.History.Get(ctx, input.ID)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return nil, huma.Error404NotFound("generation not found")
		}
		env.Logger.Error("unable to read generation", zap.String("id", input.ID), zap.Error(err))
		return nil, huma.Error500InternalServerError("unable to read generation")
	}
	return &models.GetHistoryRecordResponse{Body: rec}, nil
}

func postSimilarFunc(ctx context.Context, input *models.PostSimilarRequest) (*models.SimilarResponse, error) {
	env, err := historyService(ctx)
	if err != nil {
		return nil, err
	}
	req, err := builder.NewStoryboardRequest(builder.StoryboardInput{ScriptOutline: input.Body.ScriptOutline})
	if err != nil {
		return nil, validationProblem(err, "body")
	}

	matches, err := env.History.Similar(ctx, req.ScriptOutline(), input.Body.Count)
	if err != nil {
		if errors.Is(err, history.ErrSimilarityUnavailable) {
			return nil, huma.Error501NotImplemented("similarity search is not available with the configured backend")
		}
		env.Logger.Error("unable to find similar storyboards", zap.Error(err))
		return nil, huma.Error500InternalServerError("unable to find similar storyboards")
	}
	resp := &models.SimilarResponse{}
	resp.Body.Matches = matches
	return resp, nil
}

// RegisterHistoryRoutes registers the routes for stored generations
func RegisterHistoryRoutes(env *Env, api huma.API) error {
	getHistoryOp := huma.Operation{
		OperationID: "getHistory",
		Method:      http.MethodGet,
		Path:        "/v1/history",
		Summary:     "List stored generations",
		Tags:        []string{"history"},
		Security:    auth.Security,
	}
	getHistoryRecordOp := huma.Operation{
		OperationID: "getHistoryRecord",
		Method:      http.MethodGet,
		Path:        "/v1/history/{id}",
		Summary:     "Get a stored generation",
		Tags:        []string{"history"},
		Security:    auth.Security,
	}
	postSimilarOp := huma.Operation{
		OperationID: "postSimilar",
		Method:      http.MethodPost,
		Path:        "/v1/history/similars",
		Summary:     "Find stored storyboards with similar script outlines",
		Tags:        []string{"history"},
		Security:    auth.Security,
	}

	huma.Register(api, getHistoryOp, addEnvToContext(env, getHistoryFunc))
	huma.Register(api, getHistoryRecordOp, addEnvToContext(env, getHistoryRecordFunc))
	huma.Register(api, postSimilarOp, addEnvToContext(env, postSimilarFunc))
	return nil
}
