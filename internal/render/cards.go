// Package render turns generation results into numbered preview cards.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/mpilhlt/filmstudio/internal/builder"
	"github.com/mpilhlt/filmstudio/internal/models"
)

// StoryboardCards returns one card per scene, numbered from 1.
func StoryboardCards(sb models.Storyboard) []models.Card {
	cards := make([]models.Card, 0, len(sb.Storyboard))
	for i, scene := range sb.Storyboard {
		cards = append(cards, models.Card{
			Number:      i + 1,
			Title:       fmt.Sprintf("Scene %d", i+1),
			Description: scene.SceneDescription,
			CameraAngle: scene.CameraAngle,
			SceneLayout: scene.SceneLayout,
		})
	}
	return cards
}

// ModelCards returns the model preview card and the texture preview card.
func ModelCards(assets models.ModelAssets) []models.Card {
	return []models.Card{
		{
			Number:      1,
			Title:       "3D Model Preview",
			Description: "Generated 3D model asset.",
			Link:        &models.CardLink{Label: "Download model", Href: assets.ModelDataURI},
		},
		{
			Number:      2,
			Title:       "Texture Preview",
			Description: "Generated texture for the model.",
			ImageURL:    assets.TextureDataURI,
			Link:        &models.CardLink{Label: "Download texture", Href: assets.TextureDataURI},
		},
	}
}

// FormCards returns the cards for the result held by a form snapshot.
func FormCards(f models.Form) []models.Card {
	switch {
	case f.Storyboard != nil:
		return StoryboardCards(*f.Storyboard)
	case f.Model != nil:
		return ModelCards(*f.Model)
	}
	return nil
}

// dataURL marks well formed base64 image and model data URIs as safe.
// Anything else is left to the template's URL filtering.
func dataURL(s string) any {
	uri, err := builder.DecodeDataURI(s)
	if err != nil {
		return s
	}
	if strings.HasPrefix(uri.MIMEType, "image/") || strings.HasPrefix(uri.MIMEType, "model/") {
		return template.URL(s)
	}
	return s
}

var cardsTemplate = template.Must(template.New("cards").Funcs(template.FuncMap{"dataURL": dataURL}).Parse(`<section class="cards">
{{- range . }}
  <article class="card" id="card-{{ .Number }}">
    <h3>{{ .Title }}</h3>
    {{- with .ImageURL }}
    <img src="{{ dataURL . }}" alt="">
    {{- end }}
    {{- with .Description }}
    <p>{{ . }}</p>
    {{- end }}
    {{- with .CameraAngle }}
    <p><strong>Camera Angle:</strong> {{ . }}</p>
    {{- end }}
    {{- with .SceneLayout }}
    <p><strong>Scene Layout:</strong> {{ . }}</p>
    {{- end }}
    {{- with .Link }}
    <a href="{{ dataURL .Href }}" download>{{ .Label }}</a>
    {{- end }}
  </article>
{{- else }}
  <p class="empty">Nothing generated yet.</p>
{{- end }}
</section>
`))

// HTML renders cards as an HTML fragment. All card text is escaped.
func HTML(cards []models.Card) ([]byte, error) {
	var buf bytes.Buffer
	if err := cardsTemplate.Execute(&buf, cards); err != nil {
		return nil, fmt.Errorf("rendering cards: %w", err)
	}
	return buf.Bytes(), nil
}
