package generation

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mpilhlt/filmstudio/internal/builder"
	"github.com/mpilhlt/filmstudio/internal/models"
)

// Generator runs the two generation flows on validated requests.
type Generator interface {
	GenerateStoryboard(ctx context.Context, req builder.StoryboardRequest) (models.Storyboard, error)
	GenerateModel(ctx context.Context, req builder.ModelRequest) (models.ModelAssets, error)
}

// Service implements Generator on top of one backend per flow.
type Service struct {
	storyboards Backend
	assets      Backend
	limiter     *rate.Limiter
	timeout     time.Duration
	logger      *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLimiter makes every call wait for a token of l before reaching a backend.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithTimeout bounds each call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLogger sets the logger for round trip events.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService returns a Service using storyboards for the storyboard flow
// and assets for the 3D model flow.
func NewService(storyboards, assets Backend, opts ...Option) *Service {
	s := &Service{
		storyboards: storyboards,
		assets:      assets,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateStoryboard produces a storyboard for an outline.
func (s *Service) GenerateStoryboard(ctx context.Context, req builder.StoryboardRequest) (models.Storyboard, error) {
	call, err := storyboardCall(req)
	if err != nil {
		return models.Storyboard{}, &GenerationFailure{Kind: models.KindStoryboard, Err: err}
	}
	var out models.Storyboard
	if err := s.run(ctx, models.KindStoryboard, s.storyboards, call, &out); err != nil {
		return models.Storyboard{}, err
	}
	if out.Storyboard == nil {
		out.Storyboard = []models.SceneCard{}
	}
	return out, nil
}

// GenerateModel produces model and texture assets for a piece of concept art.
func (s *Service) GenerateModel(ctx context.Context, req builder.ModelRequest) (models.ModelAssets, error) {
	call, err := modelCall(req)
	if err != nil {
		return models.ModelAssets{}, &GenerationFailure{Kind: models.KindModel, Err: err}
	}
	var out models.ModelAssets
	if err := s.run(ctx, models.KindModel, s.assets, call, &out); err != nil {
		return models.ModelAssets{}, err
	}
	return out, nil
}

func (s *Service) run(ctx context.Context, kind string, backend Backend, call Call, out any) (err error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		observe(kind, err, elapsed)
		if err != nil {
			s.logger.Warn("generation failed",
				zap.String("flow", call.Name),
				zap.String("backend", backend.Name()),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
			return
		}
		s.logger.Info("generation succeeded",
			zap.String("flow", call.Name),
			zap.String("backend", backend.Name()),
			zap.Duration("elapsed", elapsed))
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return &GenerationFailure{Kind: kind, Err: err}
		}
	}

	raw, err := backend.Generate(ctx, call)
	if err != nil {
		return &GenerationFailure{Kind: kind, Err: err}
	}
	if err := call.Schema.Decode(raw, out); err != nil {
		return &GenerationFailure{Kind: kind, Err: err}
	}
	return nil
}
