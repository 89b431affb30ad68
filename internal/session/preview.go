package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// PreviewImage is a selected concept art image held for display.
type PreviewImage struct {
	ID          string
	FileName    string
	ContentType string
	Data        []byte
}

// Previews holds preview images until they are released or expire.
type Previews struct {
	cache *cache.Cache
}

// NewPreviews returns a store whose entries expire after ttl. A ttl of
// zero keeps entries until they are released.
func NewPreviews(ttl time.Duration) *Previews {
	if ttl <= 0 {
		return &Previews{cache: cache.New(cache.NoExpiration, 0)}
	}
	return &Previews{cache: cache.New(ttl, ttl/2)}
}

// Acquire stores an image and returns its handle.
func (p *Previews) Acquire(fileName, contentType string, data []byte) PreviewImage {
	img := PreviewImage{
		ID:          uuid.NewString(),
		FileName:    fileName,
		ContentType: contentType,
		Data:        data,
	}
	p.cache.SetDefault(img.ID, img)
	return img
}

// Release drops an image. Releasing an unknown id is a no-op.
func (p *Previews) Release(id string) {
	if id == "" {
		return
	}
	p.cache.Delete(id)
}

// Get returns the preview stored under id, if it has not expired.
func (p *Previews) Get(id string) (PreviewImage, bool) {
	v, ok := p.cache.Get(id)
	if !ok {
		return PreviewImage{}, false
	}
	return v.(PreviewImage), true
}

// Len returns the number of held images, including expired ones not yet
// cleaned up.
func (p *Previews) Len() int {
	return p.cache.ItemCount()
}
