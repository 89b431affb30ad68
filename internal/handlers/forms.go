package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/mpilhlt/filmstudio/internal/auth"
	"github.com/mpilhlt/filmstudio/internal/builder"
	"github.com/mpilhlt/filmstudio/internal/models"
	"github.com/mpilhlt/filmstudio/internal/render"
	"github.com/mpilhlt/filmstudio/internal/session"
)

func formValue(form *multipart.Form, name string) string {
	if form == nil || len(form.Value[name]) == 0 {
		return ""
	}
	return form.Value[name][0]
}

func previewURL(id string) string {
	return "/v1/previews/" + id
}

// formView is the snapshot of f with its cards and preview URL filled in.
func formView(f *session.Form) models.Form {
	snap := f.Snapshot()
	snap.Cards = render.FormCards(snap)
	if snap.Preview != nil {
		snap.Preview.URL = previewURL(snap.Preview.PreviewID)
	}
	return snap
}

// logNotifier writes every notification of a form to the log.
func logNotifier(logger *zap.Logger, f *session.Form) session.Notifier {
	return session.NotifierFunc(func(n models.Notification) {
		logger.Info("notification",
			zap.String("form_id", f.ID()),
			zap.String("variant", n.Variant),
			zap.String("title", n.Title))
	})
}

// formProblem maps the errors of a form operation to responses.
func formProblem(env *Env, kind string, err error) error {
	var readErr *builder.ReadError
	if errors.As(err, &readErr) {
		return generationProblem(env.Logger, kind, err)
	}
	if _, ok := builder.AsValidationError(err); ok {
		return validationProblem(err, "body")
	}
	return sessionProblem(err)
}

func postFormFunc(ctx context.Context, input *models.PostFormRequest) (*models.FormResponse, error) {
	env, err := GetEnv(ctx)
	if err != nil {
		return nil, err
	}
	f, err := env.Forms.Create(input.Body.Kind)
	if err != nil {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	return &models.FormResponse{Body: formView(f)}, nil
}

func getFormFunc(ctx context.Context, input *models.FormPathRequest) (*models.FormResponse, error) {
	env, err := GetEnv(ctx)
	if err != nil {
		return nil, err
	}
	f, err := env.Forms.Get(input.FormID)
	if err != nil {
		return nil, sessionProblem(err)
	}
	return &models.FormResponse{Body: formView(f)}, nil
}

func deleteFormFunc(ctx context.Context, input *models.FormPathRequest) (*struct{}, error) {
	env, err := GetEnv(ctx)
	if err != nil {
		return nil, err
	}
	if err := env.Forms.Close(input.FormID); err != nil {
		return nil, sessionProblem(err)
	}
	return nil, nil
}

func submitFormFunc(ctx context.Context, input *models.SubmitFormRequest) (*models.SubmitFormResponse, error) {
	env, err := GetEnv(ctx)
	if err != nil {
		return nil, err
	}
	f, err := env.Forms.Get(input.FormID)
	if err != nil {
		return nil, sessionProblem(err)
	}

	notifier := session.Notifiers(f.Inbox(), logNotifier(env.Logger, f))
	switch f.Kind() {
	case models.KindStoryboard:
		err = f.SubmitStoryboard(builder.StoryboardInput{ScriptOutline: input.Body.ScriptOutline}, notifier)
	default:
		err = f.SubmitModel(ctx, input.Body.ModelDescription, notifier)
	}
	if err != nil {
		return nil, formProblem(env, f.Kind(), err)
	}

	status := http.StatusAccepted
	if input.Wait {
		if err := f.Wait(ctx); err != nil {
			return nil, huma.NewError(http.StatusGatewayTimeout, "submission did not complete in time")
		}
		status = http.StatusOK
	}
	return &models.SubmitFormResponse{Status: status, Body: formView(f)}, nil
}

func putConceptArtFunc(ctx context.Context, input *models.SelectConceptArtRequest) (*models.PreviewResponse, error) {
	env, err := GetEnv(ctx)
	if err != nil {
		return nil, err
	}
	f, err := env.Forms.Get(input.FormID)
	if err != nil {
		return nil, sessionProblem(err)
	}

	if f.Kind() != models.KindModel {
		return nil, sessionProblem(session.ErrWrongKind)
	}
	files := input.RawBody.File[builder.FieldConceptArt]
	if len(files) != 1 {
		if err := f.ClearConceptArt(); err != nil {
			return nil, sessionProblem(err)
		}
		msg := builder.MsgConceptArtRequired
		if len(files) > 1 {
			msg = builder.MsgSingleConceptArt
		}
		return nil, validationProblem(&builder.ValidationError{Fields: builder.FieldErrors{builder.FieldConceptArt: msg}}, "body")
	}

	img, err := f.SelectConceptArt(builder.FileFromHeader(files[0]))
	if err != nil {
		return nil, formProblem(env, models.KindModel, err)
	}
	return &models.PreviewResponse{Body: models.Preview{
		PreviewID:   img.ID,
		URL:         previewURL(img.ID),
		FileName:    img.FileName,
		ContentType: img.ContentType,
		Size:        int64(len(img.Data)),
	}}, nil
}

func deleteConceptArtFunc(ctx context.Context, input *models.FormPathRequest) (*struct{}, error) {
	env, err := GetEnv(ctx)
	if err != nil {
		return nil, err
	}
	f, err := env.Forms.Get(input.FormID)
	if err != nil {
		return nil, sessionProblem(err)
	}
	if err := f.ClearConceptArt(); err != nil {
		return nil, sessionProblem(err)
	}
	return nil, nil
}

func viewFormFunc(ctx context.Context, input *models.FormPathRequest) (*models.ViewFormResponse, error) {
	env, err := GetEnv(ctx)
	if err != nil {
		return nil, err
	}
	f, err := env.Forms.Get(input.FormID)
	if err != nil {
		return nil, sessionProblem(err)
	}
	html, err := render.HTML(formView(f).Cards)
	if err != nil {
		env.Logger.Error("unable to render cards", zap.String("form_id", f.ID()), zap.Error(err))
		return nil, huma.Error500InternalServerError("unable to render cards")
	}
	return &models.ViewFormResponse{ContentType: "text/html; charset=utf-8", Body: html}, nil
}

// RegisterFormRoutes registers the routes for form sessions
func RegisterFormRoutes(env *Env, api huma.API) error {
	postFormOp := huma.Operation{
		OperationID:   "postForm",
		Method:        http.MethodPost,
		Path:          "/v1/forms",
		DefaultStatus: http.StatusCreated,
		Summary:       "Open a storyboard or 3D model form",
		Tags:          []string{"forms"},
		Security:      auth.Security,
	}
	getFormOp := huma.Operation{
		OperationID: "getForm",
		Method:      http.MethodGet,
		Path:        "/v1/forms/{form_id}",
		Summary:     "Get the state, result and notifications of a form",
		Tags:        []string{"forms"},
		Security:    auth.Security,
	}
	deleteFormOp := huma.Operation{
		OperationID:   "deleteForm",
		Method:        http.MethodDelete,
		Path:          "/v1/forms/{form_id}",
		DefaultStatus: http.StatusNoContent,
		Summary:       "Close a form and discard its pending submission",
		Tags:          []string{"forms"},
		Security:      auth.Security,
	}
	submitFormOp := huma.Operation{
		OperationID:   "submitForm",
		Method:        http.MethodPost,
		Path:          "/v1/forms/{form_id}/submit",
		DefaultStatus: http.StatusAccepted,
		Summary:       "Submit a form",
		Description:   "Starts a generation round trip. Only one submission per form may be in flight.",
		Tags:          []string{"forms"},
		Security:      auth.Security,
	}
	putConceptArtOp := huma.Operation{
		OperationID:  "putConceptArt",
		Method:       http.MethodPut,
		Path:         "/v1/forms/{form_id}/concept-art",
		Summary:      "Select the concept art of a 3D model form",
		Description:  "Multipart form with a single 'conceptArt' file. Replaces and releases the previous selection.",
		Tags:         []string{"forms"},
		MaxBodyBytes: maxUploadBytes,
		Security:     auth.Security,
	}
	deleteConceptArtOp := huma.Operation{
		OperationID:   "deleteConceptArt",
		Method:        http.MethodDelete,
		Path:          "/v1/forms/{form_id}/concept-art",
		DefaultStatus: http.StatusNoContent,
		Summary:       "Clear the concept art of a 3D model form",
		Tags:          []string{"forms"},
		Security:      auth.Security,
	}
	viewFormOp := huma.Operation{
		OperationID: "viewForm",
		Method:      http.MethodGet,
		Path:        "/v1/forms/{form_id}/view",
		Summary:     "Render the result cards of a form as HTML",
		Tags:        []string{"forms"},
	}

	huma.Register(api, postFormOp, addEnvToContext(env, postFormFunc))
	huma.Register(api, getFormOp, addEnvToContext(env, getFormFunc))
	huma.Register(api, deleteFormOp, addEnvToContext(env, deleteFormFunc))
	huma.Register(api, submitFormOp, addEnvToContext(env, submitFormFunc))
	huma.Register(api, putConceptArtOp, addEnvToContext(env, putConceptArtFunc))
	huma.Register(api, deleteConceptArtOp, addEnvToContext(env, deleteConceptArtFunc))
	huma.Register(api, viewFormOp, addEnvToContext(env, viewFormFunc))
	return nil
}
