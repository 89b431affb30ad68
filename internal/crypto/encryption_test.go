package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen(t *testing.T) {
	tests := []struct {
		name      string
		plaintext string
	}{
		{"outline", "A detective enters a dark warehouse."},
		{"unicode", "Ein Detektiv betritt ein dunkles Lagerhaus. 侦探走进仓库。"},
		{"empty", ""},
	}

	s, err := NewSealer("my-secret-key")
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := s.Seal([]byte(tt.plaintext), []byte("storyboard"))
			require.NoError(t, err)
			if tt.plaintext != "" {
				assert.NotContains(t, string(sealed), tt.plaintext)
			}

			opened, err := s.Open(sealed, []byte("storyboard"))
			require.NoError(t, err)
			assert.Equal(t, tt.plaintext, string(opened))
		})
	}
}

func TestOpenRejects(t *testing.T) {
	s, err := NewSealer("my-secret-key")
	require.NoError(t, err)
	other, err := NewSealer("another-key")
	require.NoError(t, err)

	sealed, err := s.Seal([]byte("A detective enters a dark warehouse."), []byte("storyboard"))
	require.NoError(t, err)

	_, err = other.Open(sealed, []byte("storyboard"))
	assert.Error(t, err, "wrong key")
	_, err = s.Open(sealed, []byte("model"))
	assert.Error(t, err, "wrong associated data")
	_, err = s.Open(sealed[:5], nil)
	assert.ErrorIs(t, err, ErrInvalidCiphertext)
}

func TestSealIsRandomized(t *testing.T) {
	s, err := NewSealer("my-secret-key")
	require.NoError(t, err)

	a, err := s.Seal([]byte("same text"), nil)
	require.NoError(t, err)
	b, err := s.Seal([]byte("same text"), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewSealerRequiresSecret(t *testing.T) {
	_, err := NewSealer("")
	assert.Error(t, err)
}
