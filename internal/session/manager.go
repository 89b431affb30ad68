package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/mpilhlt/filmstudio/internal/generation"
	"github.com/mpilhlt/filmstudio/internal/models"
)

// ErrNotFound is returned for unknown or expired form ids.
var ErrNotFound = errors.New("not found")

// Config configures a Manager.
type Config struct {
	Generator generation.Generator
	Previews  *Previews
	Logger    *zap.Logger
	// FormTTL expires forms that were not used for that long. Zero keeps
	// forms until they are closed.
	FormTTL time.Duration
	// Timeout bounds each round trip. Zero disables the bound.
	Timeout time.Duration
}

// Manager creates and tracks form instances. Expired forms are torn down.
type Manager struct {
	base     context.Context
	forms    *cache.Cache
	gen      generation.Generator
	previews *Previews
	logger   *zap.Logger
	timeout  time.Duration
}

// NewManager returns a Manager whose forms derive their contexts from ctx.
func NewManager(ctx context.Context, cfg Config) *Manager {
	m := &Manager{
		base:     ctx,
		gen:      cfg.Generator,
		previews: cfg.Previews,
		logger:   cfg.Logger,
		timeout:  cfg.Timeout,
	}
	if m.previews == nil {
		m.previews = NewPreviews(0)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if cfg.FormTTL > 0 {
		m.forms = cache.New(cfg.FormTTL, cfg.FormTTL/2)
	} else {
		m.forms = cache.New(cache.NoExpiration, 0)
	}
	m.forms.OnEvicted(func(id string, v interface{}) {
		v.(*Form).Close()
	})
	return m
}

// Previews returns the preview store shared by the forms of m.
func (m *Manager) Previews() *Previews { return m.previews }

// Create returns a new form of the given kind.
func (m *Manager) Create(kind string) (*Form, error) {
	if kind != models.KindStoryboard && kind != models.KindModel {
		return nil, fmt.Errorf("unknown form kind %q", kind)
	}
	f := newForm(m.base, uuid.NewString(), kind, m)
	m.forms.SetDefault(f.id, f)
	f.logger.Info("form created")
	return f, nil
}

// Get looks up a form and extends its lifetime.
func (m *Manager) Get(id string) (*Form, error) {
	v, ok := m.forms.Get(id)
	if !ok {
		return nil, fmt.Errorf("form %s: %w", id, ErrNotFound)
	}
	f := v.(*Form)
	m.forms.SetDefault(id, f)
	return f, nil
}

// Close tears a form down and forgets it.
func (m *Manager) Close(id string) error {
	if _, ok := m.forms.Get(id); !ok {
		return fmt.Errorf("form %s: %w", id, ErrNotFound)
	}
	m.forms.Delete(id)
	return nil
}

// Len returns the number of tracked forms.
func (m *Manager) Len() int { return m.forms.ItemCount() }

// Shutdown tears down every form.
func (m *Manager) Shutdown() {
	for id := range m.forms.Items() {
		m.forms.Delete(id)
	}
}
