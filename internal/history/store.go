package history

import (
	"context"
	"errors"
	"time"
)

// EmbeddingDimensions is the size of stored outline embeddings.
const EmbeddingDimensions = 768

var ErrNotFound = errors.New("generation record not found")

// Row is a generation as it is stored. Input is sealed when InputSealed is set.
type Row struct {
	ID          string
	Kind        string
	Input       []byte
	InputSealed bool
	Output      []byte
	Embedding   []float32
	CreatedAt   time.Time
}

// RowMatch is a stored storyboard with its similarity to a query.
type RowMatch struct {
	Row
	Similarity float64
}

// Query selects stored generations. An empty Kind matches every kind.
type Query struct {
	Kind   string
	Limit  int
	Offset int
}

// Store persists generation rows.
type Store interface {
	Insert(ctx context.Context, row Row) error
	List(ctx context.Context, q Query) ([]Row, error)
	Get(ctx context.Context, id string) (Row, error)
	// Nearest returns the storyboards whose outline embeddings are closest
	// to embedding by cosine similarity, most similar first.
	Nearest(ctx context.Context, embedding []float32, n int) ([]RowMatch, error)
}
