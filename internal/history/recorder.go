package history

import (
	"context"

	"go.uber.org/zap"

	"github.com/mpilhlt/filmstudio/internal/builder"
	"github.com/mpilhlt/filmstudio/internal/generation"
	"github.com/mpilhlt/filmstudio/internal/models"
)

// RecordingGenerator stores every successful generation of the wrapped
// Generator. Recording failures are logged and never change the result.
type RecordingGenerator struct {
	next    generation.Generator
	history *Service
	logger  *zap.Logger
}

func NewRecordingGenerator(next generation.Generator, history *Service, logger *zap.Logger) *RecordingGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingGenerator{next: next, history: history, logger: logger}
}

func (g *RecordingGenerator) GenerateStoryboard(ctx context.Context, req builder.StoryboardRequest) (models.Storyboard, error) {
	out, err := g.next.GenerateStoryboard(ctx, req)
	if err != nil {
		return out, err
	}
	id, rerr := g.history.RecordStoryboard(context.WithoutCancel(ctx), req.ScriptOutline(), out)
	g.logResult(models.KindStoryboard, id, rerr)
	return out, nil
}

func (g *RecordingGenerator) GenerateModel(ctx context.Context, req builder.ModelRequest) (models.ModelAssets, error) {
	out, err := g.next.GenerateModel(ctx, req)
	if err != nil {
		return out, err
	}
	id, rerr := g.history.RecordModel(context.WithoutCancel(ctx), req.ModelDescription(), out)
	g.logResult(models.KindModel, id, rerr)
	return out, nil
}

func (g *RecordingGenerator) logResult(kind, id string, err error) {
	if err != nil {
		g.logger.Error("unable to record generation", zap.String("kind", kind), zap.Error(err))
		return
	}
	g.logger.Debug("generation recorded", zap.String("kind", kind), zap.String("record_id", id))
}
