package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpilhlt/filmstudio/internal/builder"
	"github.com/mpilhlt/filmstudio/internal/generation"
	"github.com/mpilhlt/filmstudio/internal/models"
)

const outline = "A detective enters a dark warehouse."

// gatedGenerator blocks every call until release is closed and counts calls.
type gatedGenerator struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
	err     error
	started chan struct{}
}

func newGatedGenerator() *gatedGenerator {
	return &gatedGenerator{release: make(chan struct{}), started: make(chan struct{}, 10)}
}

func (g *gatedGenerator) wait(ctx context.Context) error {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	g.started <- struct{}{}
	select {
	case <-g.release:
		return g.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gatedGenerator) GenerateStoryboard(ctx context.Context, req builder.StoryboardRequest) (models.Storyboard, error) {
	if err := g.wait(ctx); err != nil {
		return models.Storyboard{}, &generation.GenerationFailure{Kind: models.KindStoryboard, Err: err}
	}
	return models.Storyboard{Storyboard: []models.SceneCard{{SceneDescription: req.ScriptOutline(), CameraAngle: "Wide shot", SceneLayout: "Centered"}}}, nil
}

func (g *gatedGenerator) GenerateModel(ctx context.Context, req builder.ModelRequest) (models.ModelAssets, error) {
	if err := g.wait(ctx); err != nil {
		return models.ModelAssets{}, &generation.GenerationFailure{Kind: models.KindModel, Err: err}
	}
	return models.ModelAssets{ModelDataURI: "data:model/gltf-binary;base64,AA==", TextureDataURI: "data:image/png;base64,AA=="}, nil
}

func (g *gatedGenerator) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func newManager(t *testing.T, gen generation.Generator) *Manager {
	t.Helper()
	m := NewManager(context.Background(), Config{Generator: gen})
	t.Cleanup(m.Shutdown)
	return m
}

func waitDone(t *testing.T, f *Form) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.Wait(ctx))
}

func TestStoryboardSubmission(t *testing.T) {
	gen := newGatedGenerator()
	f, err := newManager(t, gen).Create(models.KindStoryboard)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, f.State())

	require.NoError(t, f.SubmitStoryboard(builder.StoryboardInput{ScriptOutline: outline}, f.Inbox()))
	assert.Equal(t, StateSubmitting, f.State())

	err = f.SubmitStoryboard(builder.StoryboardInput{ScriptOutline: outline}, f.Inbox())
	assert.ErrorIs(t, err, ErrSubmissionInProgress)

	<-gen.started
	close(gen.release)
	waitDone(t, f)

	snap := f.Snapshot()
	assert.Equal(t, string(StateSuccess), snap.State)
	require.NotNil(t, snap.Storyboard)
	assert.Len(t, snap.Storyboard.Storyboard, 1)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "Storyboard Generated", snap.Notifications[0].Title)
	assert.Equal(t, 1, gen.count())
}

func TestStoryboardValidationSkipsGeneration(t *testing.T) {
	gen := newGatedGenerator()
	f, err := newManager(t, gen).Create(models.KindStoryboard)
	require.NoError(t, err)

	err = f.SubmitStoryboard(builder.StoryboardInput{ScriptOutline: "short"}, f.Inbox())
	verr, ok := builder.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, builder.FieldScriptOutline)

	snap := f.Snapshot()
	assert.Equal(t, string(StateIdle), snap.State)
	assert.Equal(t, builder.MsgOutlineTooShort, snap.FieldErrors[builder.FieldScriptOutline])
	assert.Empty(t, snap.Notifications)
	assert.Equal(t, 0, gen.count())
}

func TestFailureThenResubmit(t *testing.T) {
	gen := newGatedGenerator()
	gen.err = errors.New("schema mismatch")
	close(gen.release)
	f, err := newManager(t, gen).Create(models.KindStoryboard)
	require.NoError(t, err)

	var mu sync.Mutex
	var received []models.Notification
	notifier := NotifierFunc(func(n models.Notification) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, n)
	})

	require.NoError(t, f.SubmitStoryboard(builder.StoryboardInput{ScriptOutline: outline}, notifier))
	waitDone(t, f)
	assert.Equal(t, StateFailed, f.State())

	require.NoError(t, f.SubmitStoryboard(builder.StoryboardInput{ScriptOutline: outline}, notifier))
	waitDone(t, f)
	assert.Equal(t, StateFailed, f.State())
	assert.Equal(t, 2, gen.count())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	for _, n := range received {
		assert.Equal(t, models.VariantDestructive, n.Variant)
		assert.Equal(t, "Failed to generate storyboard. Please try again.", n.Description)
	}
}

func TestCloseDiscardsLateResult(t *testing.T) {
	gen := newGatedGenerator()
	m := newManager(t, gen)
	f, err := m.Create(models.KindStoryboard)
	require.NoError(t, err)

	require.NoError(t, f.SubmitStoryboard(builder.StoryboardInput{ScriptOutline: outline}, f.Inbox()))
	<-gen.started
	require.NoError(t, m.Close(f.ID()))
	waitDone(t, f)

	snap := f.Snapshot()
	assert.Equal(t, string(StateSubmitting), snap.State)
	assert.Nil(t, snap.Storyboard)
	assert.Empty(t, snap.Notifications)

	_, err = m.Get(f.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.SubmitStoryboard(builder.StoryboardInput{ScriptOutline: outline}, nil), ErrFormClosed)
}

func TestFormsAreIndependent(t *testing.T) {
	gen := newGatedGenerator()
	m := newManager(t, gen)
	a, err := m.Create(models.KindStoryboard)
	require.NoError(t, err)
	b, err := m.Create(models.KindStoryboard)
	require.NoError(t, err)

	require.NoError(t, a.SubmitStoryboard(builder.StoryboardInput{ScriptOutline: outline}, a.Inbox()))
	require.NoError(t, b.SubmitStoryboard(builder.StoryboardInput{ScriptOutline: outline}, b.Inbox()))
	<-gen.started
	<-gen.started
	close(gen.release)
	waitDone(t, a)
	waitDone(t, b)

	assert.Equal(t, StateSuccess, a.State())
	assert.Equal(t, StateSuccess, b.State())
	assert.Len(t, a.Inbox().Items(), 1)
	assert.Len(t, b.Inbox().Items(), 1)
}

func TestWrongKind(t *testing.T) {
	m := newManager(t, newGatedGenerator())
	f, err := m.Create(models.KindStoryboard)
	require.NoError(t, err)

	assert.ErrorIs(t, f.SubmitModel(context.Background(), "A futuristic helmet", nil), ErrWrongKind)
	_, err = f.SelectConceptArt(builder.FileFromBytes("a.png", "image/png", []byte{1}))
	assert.ErrorIs(t, err, ErrWrongKind)

	_, err = m.Create("opera")
	assert.Error(t, err)
}

func TestModelSubmission(t *testing.T) {
	gen := newGatedGenerator()
	close(gen.release)
	m := newManager(t, gen)
	f, err := m.Create(models.KindModel)
	require.NoError(t, err)

	err = f.SubmitModel(context.Background(), "A futuristic helmet with glowing blue accents", f.Inbox())
	verr, ok := builder.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, builder.MsgConceptArtRequired, verr.Fields[builder.FieldConceptArt])
	assert.Equal(t, 0, gen.count())

	_, err = f.SelectConceptArt(builder.FileFromBytes("helmet.jpg", "image/jpeg", make([]byte, 2*1024*1024)))
	require.NoError(t, err)

	require.NoError(t, f.SubmitModel(context.Background(), "A futuristic helmet with glowing blue accents", f.Inbox()))
	waitDone(t, f)

	snap := f.Snapshot()
	assert.Equal(t, string(StateSuccess), snap.State)
	require.NotNil(t, snap.Model)
	assert.NotEmpty(t, snap.Model.ModelDataURI)
	assert.NotEmpty(t, snap.Model.TextureDataURI)
	assert.Empty(t, snap.FieldErrors)
	require.Len(t, snap.Notifications, 1)
	assert.Equal(t, "3D Model Generated", snap.Notifications[0].Title)
	assert.Equal(t, 1, gen.count())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }

func TestSelectConceptArtReadFailure(t *testing.T) {
	m := newManager(t, newGatedGenerator())
	f, err := m.Create(models.KindModel)
	require.NoError(t, err)

	file := builder.File{
		Name:        "broken.png",
		ContentType: "image/png",
		Size:        16,
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(failingReader{}), nil },
	}
	_, err = f.SelectConceptArt(file)
	var rerr *builder.ReadError
	assert.ErrorAs(t, err, &rerr)
	assert.Nil(t, f.Snapshot().Preview)
}

func TestPreviewLifecycle(t *testing.T) {
	m := newManager(t, newGatedGenerator())
	previews := m.Previews()
	f, err := m.Create(models.KindModel)
	require.NoError(t, err)

	first, err := f.SelectConceptArt(builder.FileFromBytes("a.png", "image/png", []byte("first")))
	require.NoError(t, err)
	_, ok := previews.Get(first.ID)
	require.True(t, ok)

	second, err := f.SelectConceptArt(builder.FileFromBytes("b.webp", "image/webp", []byte("second")))
	require.NoError(t, err)
	_, ok = previews.Get(first.ID)
	assert.False(t, ok, "replaced preview is released")
	got, ok := previews.Get(second.ID)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got.Data)
	assert.Equal(t, 1, previews.Len())

	_, err = f.SelectConceptArt(builder.FileFromBytes("c.gif", "image/gif", []byte("gif")))
	require.Error(t, err)
	_, ok = previews.Get(second.ID)
	assert.False(t, ok, "invalid selection releases the previous preview")
	assert.Nil(t, f.Snapshot().Preview)
	assert.Equal(t, builder.MsgUnsupportedType, f.Snapshot().FieldErrors[builder.FieldConceptArt])

	third, err := f.SelectConceptArt(builder.FileFromBytes("d.jpg", "image/jpeg", []byte("third")))
	require.NoError(t, err)
	require.NoError(t, m.Close(f.ID()))
	_, ok = previews.Get(third.ID)
	assert.False(t, ok, "teardown releases the preview")
	assert.Equal(t, 0, previews.Len())
}

func TestClearConceptArt(t *testing.T) {
	m := newManager(t, newGatedGenerator())
	f, err := m.Create(models.KindModel)
	require.NoError(t, err)

	img, err := f.SelectConceptArt(builder.FileFromBytes("a.png", "image/png", []byte("x")))
	require.NoError(t, err)
	require.NoError(t, f.ClearConceptArt())
	_, ok := m.Previews().Get(img.ID)
	assert.False(t, ok)
	assert.Nil(t, f.Snapshot().Preview)
}

func TestExpiredFormsAreTornDown(t *testing.T) {
	m := NewManager(context.Background(), Config{Generator: newGatedGenerator(), FormTTL: 50 * time.Millisecond})
	defer m.Shutdown()
	f, err := m.Create(models.KindModel)
	require.NoError(t, err)
	img, err := f.SelectConceptArt(builder.FileFromBytes("a.png", "image/png", []byte("x")))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, ok := m.Previews().Get(img.ID)
		return !ok && m.Len() == 0
	}, 2*time.Second, 20*time.Millisecond)
	assert.ErrorIs(t, f.ClearConceptArt(), ErrFormClosed)
}

func TestInboxKeepsMostRecent(t *testing.T) {
	in := NewInbox(2)
	for _, title := range []string{"one", "two", "three"} {
		in.Notify(models.Notification{Title: title})
	}
	items := in.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "two", items[0].Title)
	assert.False(t, items[1].CreatedAt.IsZero())
}

func TestFailureMessage(t *testing.T) {
	assert.True(t, strings.HasPrefix(FailureMessage(models.KindModel), "Failed to generate 3D model"))
	assert.True(t, strings.HasPrefix(FailureMessage(models.KindStoryboard), "Failed to generate storyboard"))
}

// snapshotNotifier reads the form back from inside Notify.
func snapshotNotifier(f *Form, states chan<- string) Notifier {
	return NotifierFunc(func(n models.Notification) {
		states <- f.Snapshot().State
	})
}

func TestNotifierMayReadForm(t *testing.T) {
	broken := builder.File{
		Name:        "broken.png",
		ContentType: "image/png",
		Size:        16,
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(failingReader{}), nil },
	}

	tt := []struct {
		name        string
		kind        string
		genErr      error
		submit      func(f *Form, n Notifier) error
		expectState State
	}{
		{
			name: "Storyboard success",
			kind: models.KindStoryboard,
			submit: func(f *Form, n Notifier) error {
				return f.SubmitStoryboard(builder.StoryboardInput{ScriptOutline: outline}, n)
			},
			expectState: StateSuccess,
		},
		{
			name:   "Storyboard failure",
			kind:   models.KindStoryboard,
			genErr: errors.New("schema mismatch"),
			submit: func(f *Form, n Notifier) error {
				return f.SubmitStoryboard(builder.StoryboardInput{ScriptOutline: outline}, n)
			},
			expectState: StateFailed,
		},
		{
			name: "Concept art read failure",
			kind: models.KindModel,
			submit: func(f *Form, n Notifier) error {
				f.mu.Lock()
				f.selection = &broken
				f.mu.Unlock()
				err := f.SubmitModel(context.Background(), "A futuristic helmet with glowing blue accents", n)
				var rerr *builder.ReadError
				if errors.As(err, &rerr) {
					return nil
				}
				return err
			},
			expectState: StateFailed,
		},
	}

	for _, v := range tt {
		t.Run(v.name, func(t *testing.T) {
			gen := newGatedGenerator()
			gen.err = v.genErr
			close(gen.release)
			f, err := newManager(t, gen).Create(v.kind)
			require.NoError(t, err)

			states := make(chan string, 1)
			submitted := make(chan error, 1)
			go func() { submitted <- v.submit(f, snapshotNotifier(f, states)) }()

			select {
			case state := <-states:
				assert.Equal(t, string(v.expectState), state)
			case <-time.After(5 * time.Second):
				t.Fatal("notification was not delivered")
			}
			select {
			case err := <-submitted:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("submission did not return")
			}
			waitDone(t, f)
			assert.Equal(t, v.expectState, f.State())
		})
	}
}
