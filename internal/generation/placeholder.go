package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"strings"
	"time"
	"unicode"

	"github.com/mpilhlt/filmstudio/internal/builder"
	"github.com/mpilhlt/filmstudio/internal/models"
)

// PlaceholderModelMIMEType is the MIME type of the placeholder model asset.
const PlaceholderModelMIMEType = "model/gltf-binary"

var (
	placeholderAngles  = []string{"Wide shot", "Medium shot", "Close-up", "Over-the-shoulder", "Low angle", "High angle"}
	placeholderLayouts = []string{
		"Subject centered, background in soft focus",
		"Rule of thirds, subject on the left",
		"Rule of thirds, subject on the right",
		"Foreground framing with depth",
	}
)

// PlaceholderBackend answers every call locally without contacting a model.
// It waits Delay before answering to behave like a remote call.
type PlaceholderBackend struct {
	Delay time.Duration
}

func (b *PlaceholderBackend) Name() string { return "placeholder" }

func (b *PlaceholderBackend) Generate(ctx context.Context, call Call) (string, error) {
	if b.Delay > 0 {
		t := time.NewTimer(b.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}

	var out any
	switch call.Name {
	case StoryboardFlow:
		out = placeholderStoryboard(call.Vars["scriptOutline"])
	case ModelFlow:
		assets, err := placeholderAssets(call.Vars["modelDescription"])
		if err != nil {
			return "", err
		}
		out = assets
	default:
		return "", fmt.Errorf("placeholder backend cannot answer flow %q", call.Name)
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// placeholderStoryboard makes one scene per sentence of the outline.
func placeholderStoryboard(outline string) models.Storyboard {
	sentences := splitSentences(outline)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(outline)}
	}
	scenes := make([]models.SceneCard, 0, len(sentences))
	for i, s := range sentences {
		scenes = append(scenes, models.SceneCard{
			SceneDescription: s,
			CameraAngle:      placeholderAngles[i%len(placeholderAngles)],
			SceneLayout:      placeholderLayouts[i%len(placeholderLayouts)],
		})
	}
	return models.Storyboard{Storyboard: scenes}
}

func splitSentences(text string) []string {
	var out []string
	var current strings.Builder
	flush := func() {
		s := strings.TrimSpace(current.String())
		if strings.IndexFunc(s, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0 {
			out = append(out, s)
		}
		current.Reset()
	}
	for _, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			flush()
		}
	}
	flush()
	return out
}

// placeholderAssets returns a fixed model and a texture tinted by the description.
func placeholderAssets(description string) (models.ModelAssets, error) {
	texture, err := placeholderTexture(description)
	if err != nil {
		return models.ModelAssets{}, err
	}
	return models.ModelAssets{
		ModelDataURI:   builder.EncodeDataURI(PlaceholderModelMIMEType, []byte("dummy_model_data")),
		TextureDataURI: builder.EncodeDataURI("image/png", texture),
	}, nil
}

func placeholderTexture(seed string) ([]byte, error) {
	if r := []rune(seed); len(r) > 5 {
		seed = string(r[:5])
	}
	h := fnv.New32a()
	h.Write([]byte(seed))
	sum := h.Sum32()
	base := color.RGBA{R: uint8(sum >> 16), G: uint8(sum >> 8), B: uint8(sum), A: 0xff}

	const size = 64
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			shade := uint8((x + y) * 2)
			img.SetRGBA(x, y, color.RGBA{R: base.R ^ shade, G: base.G, B: base.B ^ shade, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
