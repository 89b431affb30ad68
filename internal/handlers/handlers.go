package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	huma "github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/mpilhlt/filmstudio/internal/builder"
	"github.com/mpilhlt/filmstudio/internal/generation"
	"github.com/mpilhlt/filmstudio/internal/history"
	"github.com/mpilhlt/filmstudio/internal/session"
)

type contextKey string

// Context keys
const (
	EnvKey = contextKey("env")
)

// Error responses
var (
	ErrEnvNotFound = errors.New("handler environment not found in context")
)

// Request body limits for routes that carry concept art. Multipart uploads
// send the raw image. JSON bodies carry it base64 encoded, so an image above
// 5MB still reaches the size check instead of failing the body read.
const (
	maxUploadBytes      = 8 << 20
	maxDataURIBodyBytes = 16 << 20
)

// Env bundles the services the handlers use.
type Env struct {
	Generator generation.Generator
	Forms     *session.Manager
	// History is nil when generations are not stored.
	History *history.Service
	Logger  *zap.Logger
}

// AddRoutes adds all the routes to the API
func AddRoutes(env *Env, api huma.API) error {
	if env == nil || env.Generator == nil || env.Forms == nil {
		return errors.New("handler environment is incomplete")
	}
	if env.Logger == nil {
		env.Logger = zap.NewNop()
	}
	if err := RegisterStoryboardRoutes(env, api); err != nil {
		env.Logger.Error("Unable to register storyboard routes", zap.Error(err))
		return err
	}
	if err := RegisterModelRoutes(env, api); err != nil {
		env.Logger.Error("Unable to register model routes", zap.Error(err))
		return err
	}
	if err := RegisterFormRoutes(env, api); err != nil {
		env.Logger.Error("Unable to register form routes", zap.Error(err))
		return err
	}
	if err := RegisterPreviewRoutes(env, api); err != nil {
		env.Logger.Error("Unable to register preview routes", zap.Error(err))
		return err
	}
	if err := RegisterHistoryRoutes(env, api); err != nil {
		env.Logger.Error("Unable to register history routes", zap.Error(err))
		return err
	}
	return nil
}

// Middleware to add the handler environment to the context
func addEnvToContext[I any, O any](env *Env, next func(context.Context, *I) (*O, error)) func(context.Context, *I) (*O, error) {
	return func(ctx context.Context, input *I) (*O, error) {
		if env == nil {
			return nil, fmt.Errorf("provided env is nil")
		}
		ctx = context.WithValue(ctx, EnvKey, env)
		return next(ctx, input)
	}
}

// Get the handler environment from the context
// (exported helper function so that blackbox testing can access it)
func GetEnv(ctx context.Context) (*Env, error) {
	env, ok := ctx.Value(EnvKey).(*Env)
	if !ok {
		return nil, huma.NewError(http.StatusInternalServerError, ErrEnvNotFound.Error())
	}
	return env, nil
}

// validationProblem turns a field error map into a 422 response with one
// detail per field.
func validationProblem(err error, location string) error {
	verr, ok := builder.AsValidationError(err)
	if !ok {
		return huma.Error422UnprocessableEntity(err.Error())
	}
	fields := make([]string, 0, len(verr.Fields))
	for field := range verr.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	details := make([]error, 0, len(fields))
	for _, field := range fields {
		details = append(details, &huma.ErrorDetail{
			Message:  verr.Fields[field],
			Location: location + "." + field,
		})
	}
	return huma.Error422UnprocessableEntity("validation failed", details...)
}

// generationProblem maps a failed round trip to the generic message of its kind.
func generationProblem(logger *zap.Logger, kind string, err error) error {
	var readErr *builder.ReadError
	switch {
	case errors.As(err, &readErr):
		logger.Warn("unable to read concept art", zap.Error(err))
		return huma.Error500InternalServerError(session.FailureMessage(kind))
	case errors.Is(err, generation.ErrGenerationFailed):
		return huma.Error502BadGateway(session.FailureMessage(kind))
	}
	logger.Error("unexpected generation error", zap.String("kind", kind), zap.Error(err))
	return huma.Error500InternalServerError(session.FailureMessage(kind))
}

// sessionProblem maps form errors to responses.
func sessionProblem(err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return huma.Error404NotFound("form not found")
	case errors.Is(err, session.ErrFormClosed):
		return huma.NewError(http.StatusGone, "form is closed")
	case errors.Is(err, session.ErrSubmissionInProgress):
		return huma.Error409Conflict("a submission is already in progress")
	case errors.Is(err, session.ErrWrongKind):
		return huma.Error400BadRequest(err.Error())
	}
	return huma.Error500InternalServerError(err.Error())
}
