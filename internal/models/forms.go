package models

import (
	"mime/multipart"
	"time"
)

// Form kinds
const (
	KindStoryboard = "storyboard"
	KindModel      = "model"
)

// Notification variants
const (
	VariantDefault     = "default"
	VariantDestructive = "destructive"
)

// Notification is a user-visible message emitted when a submission completes.
type Notification struct {
	Variant     string    `json:"variant" enum:"default,destructive" doc:"Display variant"`
	Title       string    `json:"title" doc:"Short title"`
	Description string    `json:"description" doc:"Message body"`
	CreatedAt   time.Time `json:"createdAt" doc:"Time the notification was emitted"`
}

// CardLink is a download link shown on a card.
type CardLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Card is one preview card of a result.
type Card struct {
	Number      int       `json:"number" doc:"Position of the card, starting at 1"`
	Title       string    `json:"title" doc:"Card title"`
	Description string    `json:"description,omitempty" doc:"Main text of the card"`
	CameraAngle string    `json:"cameraAngle,omitempty" doc:"Suggested camera angle (storyboard cards)"`
	SceneLayout string    `json:"sceneLayout,omitempty" doc:"Suggested layout (storyboard cards)"`
	ImageURL    string    `json:"imageUrl,omitempty" doc:"Image shown on the card"`
	Link        *CardLink `json:"link,omitempty" doc:"Download link"`
}

// Preview is a concept art image selected on a form.
type Preview struct {
	PreviewID   string `json:"previewId" doc:"Identifier of the preview"`
	URL         string `json:"url" doc:"URL serving the preview image"`
	FileName    string `json:"fileName" doc:"Name of the selected file"`
	ContentType string `json:"contentType" doc:"Declared MIME type"`
	Size        int64  `json:"size" doc:"Size in bytes"`
}

// Form is the observable state of a form session.
type Form struct {
	FormID        string            `json:"formId" doc:"Form identifier"`
	Kind          string            `json:"kind" enum:"storyboard,model" doc:"Kind of the form"`
	State         string            `json:"state" enum:"idle,submitting,success,failed" doc:"State of the current submission"`
	Submissions   int               `json:"submissions" doc:"Number of accepted submissions"`
	FieldErrors   map[string]string `json:"fieldErrors,omitempty" doc:"Validation messages of the last submission, per field"`
	Storyboard    *Storyboard       `json:"storyboard,omitempty" doc:"Result of a successful storyboard submission"`
	Model         *ModelAssets      `json:"model,omitempty" doc:"Result of a successful model submission"`
	Cards         []Card            `json:"cards,omitempty" doc:"Preview cards of the result"`
	Preview       *Preview          `json:"preview,omitempty" doc:"Selected concept art"`
	Notifications []Notification    `json:"notifications,omitempty" doc:"Notifications, oldest first"`
}

// Create a form session
// POST Path: "/v1/forms"

type PostFormRequest struct {
	Body struct {
		Kind string `json:"kind" enum:"storyboard,model" example:"storyboard" doc:"Kind of the form"`
	}
}

type FormResponse struct {
	Body Form
}

// Get, view or close a form session
// Path: "/v1/forms/{form_id}"

type FormPathRequest struct {
	FormID string `path:"form_id" format:"uuid" doc:"Form identifier"`
}

type ViewFormResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// Submit a form
// POST Path: "/v1/forms/{form_id}/submit"

type SubmitFormRequest struct {
	FormID string `path:"form_id" format:"uuid" doc:"Form identifier"`
	Wait   bool   `query:"wait" doc:"Respond only after the submission has completed"`
	Body   struct {
		ScriptOutline    string `json:"scriptOutline,omitempty" maxLength:"20000" doc:"Script outline (storyboard forms)"`
		ModelDescription string `json:"modelDescription,omitempty" maxLength:"5000" doc:"Model description (model forms)"`
	}
}

type SubmitFormResponse struct {
	Status int
	Body   Form
}

// Select concept art on a model form
// PUT Path: "/v1/forms/{form_id}/concept-art"

type SelectConceptArtRequest struct {
	FormID  string         `path:"form_id" format:"uuid" doc:"Form identifier"`
	RawBody multipart.Form
}

type PreviewResponse struct {
	Body Preview
}

// Serve a preview image
// GET Path: "/v1/previews/{preview_id}"

type GetPreviewRequest struct {
	PreviewID string `path:"preview_id" format:"uuid" doc:"Preview identifier"`
}

type GetPreviewResponse struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}
