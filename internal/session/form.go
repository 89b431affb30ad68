package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mpilhlt/filmstudio/internal/builder"
	"github.com/mpilhlt/filmstudio/internal/generation"
	"github.com/mpilhlt/filmstudio/internal/models"
)

// State is the submission state of a form.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateSuccess    State = "success"
	StateFailed     State = "failed"
)

// Errors returned by forms
var (
	ErrSubmissionInProgress = errors.New("a submission is already in progress")
	ErrFormClosed           = errors.New("form is closed")
	ErrWrongKind            = errors.New("operation does not apply to this kind of form")
)

// Form is one form instance. It allows a single submission in flight and
// owns the preview of its selected concept art.
type Form struct {
	id       string
	kind     string
	gen      generation.Generator
	previews *Previews
	inbox    *Inbox
	timeout  time.Duration
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	state       State
	closed      bool
	submissions int
	fieldErrors builder.FieldErrors
	storyboard  *models.Storyboard
	assets      *models.ModelAssets
	selection   *builder.File
	preview     *PreviewImage
	done        chan struct{}
}

func newForm(ctx context.Context, id, kind string, m *Manager) *Form {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	close(done)
	return &Form{
		id:       id,
		kind:     kind,
		gen:      m.gen,
		previews: m.previews,
		inbox:    NewInbox(0),
		timeout:  m.timeout,
		logger:   m.logger.With(zap.String("form_id", id), zap.String("kind", kind)),
		ctx:      ctx,
		cancel:   cancel,
		state:    StateIdle,
		done:     done,
	}
}

func (f *Form) ID() string { return f.id }

func (f *Form) Kind() string { return f.kind }

// Inbox collects the notifications of the form.
func (f *Form) Inbox() *Inbox { return f.inbox }

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// submittable reports why a submission cannot start. Callers hold f.mu.
func (f *Form) submittable(kind string) error {
	switch {
	case f.closed:
		return ErrFormClosed
	case f.kind != kind:
		return ErrWrongKind
	case f.state == StateSubmitting:
		return ErrSubmissionInProgress
	}
	return nil
}

// SubmitStoryboard validates the outline and starts a storyboard round trip.
// Validation errors are returned and recorded without contacting the
// generation service. n receives exactly one notification when the round
// trip completes.
func (f *Form) SubmitStoryboard(in builder.StoryboardInput, n Notifier) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.submittable(models.KindStoryboard); err != nil {
		return err
	}
	req, err := builder.NewStoryboardRequest(in)
	if err != nil {
		f.recordValidation(err)
		return err
	}
	ctx, cancel, done := f.begin()
	go func() {
		defer close(done)
		defer cancel()
		out, err := f.gen.GenerateStoryboard(ctx, req)
		f.notify(n, f.finish(func() { f.storyboard = &out }, err, storyboardSucceeded, storyboardFailed))
	}()
	return nil
}

// SubmitModel validates the selected concept art and the description, reads
// the image and starts a model round trip. A failing read ends the
// submission as failed and is returned as a *builder.ReadError.
func (f *Form) SubmitModel(ctx context.Context, description string, n Notifier) error {
	var failed *models.Notification
	defer func() { f.notify(n, failed) }()

	f.mu.Lock()
	if err := f.submittable(models.KindModel); err != nil {
		f.mu.Unlock()
		return err
	}
	in := builder.ModelInput{ModelDescription: description}
	if f.selection != nil {
		in.Files = []builder.File{*f.selection}
	}
	f.mu.Unlock()

	req, err := builder.NewModelRequest(ctx, in)

	f.mu.Lock()
	defer f.mu.Unlock()
	if serr := f.submittable(models.KindModel); serr != nil {
		return serr
	}
	if _, ok := builder.AsValidationError(err); ok {
		f.recordValidation(err)
		return err
	}
	ctx, cancel, done := f.begin()
	if err != nil {
		cancel()
		close(done)
		f.logger.Warn("failed to read concept art", zap.Error(err))
		f.state = StateFailed
		note := modelFailed
		failed = &note
		return err
	}
	go func() {
		defer close(done)
		defer cancel()
		out, err := f.gen.GenerateModel(ctx, req)
		f.notify(n, f.finish(func() { f.assets = &out }, err, modelSucceeded, modelFailed))
	}()
	return nil
}

// begin moves the form to Submitting and clears the previous result.
// Callers hold f.mu.
func (f *Form) begin() (context.Context, context.CancelFunc, chan struct{}) {
	f.fieldErrors = nil
	f.storyboard = nil
	f.assets = nil
	f.submissions++
	f.done = make(chan struct{})

	ctx, cancel := f.ctx, context.CancelFunc(func() {})
	if f.timeout > 0 {
		ctx, cancel = context.WithTimeout(f.ctx, f.timeout)
	}
	f.logger.Info("submission started",
		zap.String("from", string(f.state)),
		zap.Int("submission", f.submissions))
	f.state = StateSubmitting
	return ctx, cancel, f.done
}

// finish applies the outcome of a round trip unless the form was torn down.
// It returns the notification to emit, or nil for a discarded result.
func (f *Form) finish(apply func(), err error, success, failure models.Notification) *models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		f.logger.Debug("discarding result of closed form", zap.Error(err))
		return nil
	}
	if err != nil {
		f.logger.Warn("submission failed", zap.Error(err))
		f.state = StateFailed
		return &failure
	}
	apply()
	f.state = StateSuccess
	f.logger.Info("submission succeeded")
	return &success
}

// notify delivers note to n. Callers must not hold f.mu.
func (f *Form) notify(n Notifier, note *models.Notification) {
	if n == nil || note == nil {
		return
	}
	note.CreatedAt = time.Now().UTC()
	n.Notify(*note)
}

func (f *Form) recordValidation(err error) {
	if verr, ok := builder.AsValidationError(err); ok {
		f.fieldErrors = make(builder.FieldErrors, len(verr.Fields))
		for k, v := range verr.Fields {
			f.fieldErrors[k] = v
		}
	}
}

// SelectConceptArt replaces the selected concept art. The previous preview
// is released whether or not the new file is accepted; an invalid file
// leaves the form without a selection.
func (f *Form) SelectConceptArt(file builder.File) (PreviewImage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return PreviewImage{}, ErrFormClosed
	}
	if f.kind != models.KindModel {
		return PreviewImage{}, ErrWrongKind
	}
	f.releasePreview()

	if err := builder.ValidateConceptArt(file); err != nil {
		f.recordValidation(err)
		return PreviewImage{}, err
	}
	data, err := readAll(file)
	if err != nil {
		return PreviewImage{}, err
	}
	if int64(len(data)) > builder.MaxConceptArtBytes {
		f.fieldErrors = builder.FieldErrors{builder.FieldConceptArt: builder.MsgFileTooLarge}
		return PreviewImage{}, &builder.ValidationError{Fields: f.fieldErrors}
	}

	img := f.previews.Acquire(file.Name, file.ContentType, data)
	sel := builder.FileFromBytes(file.Name, file.ContentType, data)
	f.selection = &sel
	f.preview = &img
	delete(f.fieldErrors, builder.FieldConceptArt)
	return img, nil
}

func readAll(file builder.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, &builder.ReadError{Name: file.Name, Err: err}
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, builder.MaxConceptArtBytes+1))
	if err != nil {
		return nil, &builder.ReadError{Name: file.Name, Err: err}
	}
	return data, nil
}

// ClearConceptArt drops the selection and releases its preview.
func (f *Form) ClearConceptArt() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFormClosed
	}
	f.releasePreview()
	return nil
}

// releasePreview drops the selection. Callers hold f.mu.
func (f *Form) releasePreview() {
	if f.preview != nil {
		f.previews.Release(f.preview.ID)
	}
	f.preview = nil
	f.selection = nil
}

// Close tears the form down: the in-flight round trip is cancelled, its
// result discarded and the preview released. Close is idempotent.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.cancel()
	f.releasePreview()
	f.logger.Info("form closed")
}

// Wait blocks until the current round trip has ended or ctx is done.
func (f *Form) Wait(ctx context.Context) error {
	f.mu.Lock()
	done := f.done
	f.mu.Unlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the observable state of the form. Preview URLs are left
// empty for the caller to fill in.
func (f *Form) Snapshot() models.Form {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := models.Form{
		FormID:        f.id,
		Kind:          f.kind,
		State:         string(f.state),
		Submissions:   f.submissions,
		Storyboard:    f.storyboard,
		Model:         f.assets,
		Notifications: f.inbox.Items(),
	}
	if len(f.fieldErrors) > 0 {
		s.FieldErrors = make(map[string]string, len(f.fieldErrors))
		for k, v := range f.fieldErrors {
			s.FieldErrors[k] = v
		}
	}
	if f.preview != nil {
		s.Preview = &models.Preview{
			PreviewID:   f.preview.ID,
			FileName:    f.preview.FileName,
			ContentType: f.preview.ContentType,
			Size:        int64(len(f.preview.Data)),
		}
	}
	return s
}
