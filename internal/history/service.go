package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mpilhlt/filmstudio/internal/crypto"
	"github.com/mpilhlt/filmstudio/internal/models"
)

// ErrSimilarityUnavailable is returned by Similar without an embedder.
var ErrSimilarityUnavailable = errors.New("similarity search needs an embedding engine")

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Service records successful generations and reads them back.
type Service struct {
	store    Store
	embedder Embedder
	sealer   *crypto.Sealer
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithEmbedder enables outline embeddings and similarity search.
func WithEmbedder(e Embedder) Option {
	return func(s *Service) { s.embedder = e }
}

// WithSealer encrypts stored inputs.
func WithSealer(sealer *crypto.Sealer) Option {
	return func(s *Service) { s.sealer = sealer }
}

// WithLogger sets the logger of the service.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService returns a Service persisting records in store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordStoryboard stores a storyboard. The outline is embedded when an
// embedder is configured; a failing embedder only drops the embedding.
func (s *Service) RecordStoryboard(ctx context.Context, outline string, out models.Storyboard) (string, error) {
	var embedding []float32
	if s.embedder != nil {
		v, err := s.embed(ctx, outline)
		if err != nil {
			s.logger.Warn("unable to embed outline", zap.Error(err))
		} else {
			embedding = v
		}
	}
	return s.record(ctx, models.KindStoryboard, outline, out, embedding)
}

// RecordModel stores generated model assets.
func (s *Service) RecordModel(ctx context.Context, description string, out models.ModelAssets) (string, error) {
	return s.record(ctx, models.KindModel, description, out, nil)
}

func (s *Service) record(ctx context.Context, kind, input string, out any, embedding []float32) (string, error) {
	output, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encoding %s output: %w", kind, err)
	}
	row := Row{
		ID:        uuid.NewString(),
		Kind:      kind,
		Input:     []byte(input),
		Output:    output,
		Embedding: embedding,
		CreatedAt: s.now().UTC(),
	}
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(row.Input, []byte(row.ID))
		if err != nil {
			return "", fmt.Errorf("sealing %s input: %w", kind, err)
		}
		row.Input = sealed
		row.InputSealed = true
	}
	if err := s.store.Insert(ctx, row); err != nil {
		return "", fmt.Errorf("storing %s generation: %w", kind, err)
	}
	return row.ID, nil
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	v, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(v) != EmbeddingDimensions {
		return nil, fmt.Errorf("embedding has %d dimensions, want %d", len(v), EmbeddingDimensions)
	}
	return v, nil
}

// List returns stored generations, newest first.
func (s *Service) List(ctx context.Context, q Query) ([]models.GenerationRecord, error) {
	rows, err := s.store.List(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]models.GenerationRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := s.toRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (models.GenerationRecord, error) {
	row, err := s.store.Get(ctx, id)
	if err != nil {
		return models.GenerationRecord{}, err
	}
	return s.toRecord(row)
}

// Similar returns up to n stored storyboards whose outlines are closest to outline.
func (s *Service) Similar(ctx context.Context, outline string, n int) ([]models.SimilarStoryboard, error) {
	if s.embedder == nil {
		return nil, ErrSimilarityUnavailable
	}
	v, err := s.embed(ctx, outline)
	if err != nil {
		return nil, fmt.Errorf("embedding query outline: %w", err)
	}
	matches, err := s.store.Nearest(ctx, v, n)
	if err != nil {
		return nil, err
	}
	out := make([]models.SimilarStoryboard, 0, len(matches))
	for _, m := range matches {
		input, err := s.input(m.Row)
		if err != nil {
			return nil, err
		}
		out = append(out, models.SimilarStoryboard{
			ID:            m.ID,
			ScriptOutline: input,
			Similarity:    m.Similarity,
			CreatedAt:     m.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) input(row Row) (string, error) {
	if !row.InputSealed {
		return string(row.Input), nil
	}
	if s.sealer == nil {
		return "", fmt.Errorf("record %s is encrypted and no encryption key is configured", row.ID)
	}
	plain, err := s.sealer.Open(row.Input, []byte(row.ID))
	if err != nil {
		return "", fmt.Errorf("record %s: %w", row.ID, err)
	}
	return string(plain), nil
}

func (s *Service) toRecord(row Row) (models.GenerationRecord, error) {
	input, err := s.input(row)
	if err != nil {
		return models.GenerationRecord{}, err
	}
	var output map[string]any
	if err := json.Unmarshal(row.Output, &output); err != nil {
		return models.GenerationRecord{}, fmt.Errorf("record %s has invalid output: %w", row.ID, err)
	}
	return models.GenerationRecord{
		ID:        row.ID,
		Kind:      row.Kind,
		Input:     input,
		Output:    output,
		CreatedAt: row.CreatedAt,
	}, nil
}
