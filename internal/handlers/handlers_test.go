package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	huma "github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mpilhlt/filmstudio/internal/auth"
	"github.com/mpilhlt/filmstudio/internal/generation"
	"github.com/mpilhlt/filmstudio/internal/handlers"
	"github.com/mpilhlt/filmstudio/internal/history"
	"github.com/mpilhlt/filmstudio/internal/models"
	"github.com/mpilhlt/filmstudio/internal/session"
)

var options = models.Options{
	Host:   "localhost",
	APIKey: "Password123",
}

const storyboardJSON = `{
  "storyboard": [
    {"sceneDescription": "A detective enters a dark warehouse.", "cameraAngle": "Wide shot", "sceneLayout": "Detective small in the doorway"},
    {"sceneDescription": "A flashlight reveals a clue on the floor.", "cameraAngle": "Close-up", "sceneLayout": "Clue centered in the beam"}
  ]
}`

var placeholder = generation.PlaceholderBackend{}

// --- Helper functions and types ---

// testServer bundles a running server with the form manager behind it.
type testServer struct {
	*httptest.Server
	forms *session.Manager
}

// fixedStoryboards answers every storyboard call with raw.
func fixedStoryboards(raw string) generation.Backend {
	return generation.BackendFunc(func(ctx context.Context, call generation.Call) (string, error) {
		return raw, nil
	})
}

// gatedStoryboards answers with storyboardJSON once release is closed.
func gatedStoryboards(release <-chan struct{}) generation.Backend {
	return generation.BackendFunc(func(ctx context.Context, call generation.Call) (string, error) {
		select {
		case <-release:
			return storyboardJSON, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

func newGenerator(storyboards generation.Backend) generation.Generator {
	return generation.NewService(storyboards, &generation.PlaceholderBackend{})
}

// startTestServer sets up router, API and server for testing.
// The server is closed when the test ends.
// hist may be nil to run without generation history.
func startTestServer(t *testing.T, gen generation.Generator, hist *history.Service) *testServer {
	t.Helper()
	logger := zap.NewNop()
	forms := session.NewManager(context.Background(), session.Config{
		Generator: gen,
		Logger:    logger,
		Timeout:   5 * time.Second,
	})

	config := huma.DefaultConfig("Filmstudio API", "0.0.1")
	config.Components.SecuritySchemes = auth.Config
	router := http.NewServeMux()
	api := humago.New(router, config)
	api.UseMiddleware(auth.APIKeyAuth(api, &options))
	api.UseMiddleware(auth.AuthTermination(api, logger))

	env := &handlers.Env{
		Generator: gen,
		Forms:     forms,
		History:   hist,
		Logger:    logger,
	}
	err := handlers.AddRoutes(env, api)
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(func() {
		server.Close()
		forms.Shutdown()
	})
	return &testServer{Server: server, forms: forms}
}

// do sends a request with the configured API key and returns the response
// and its body.
func (s *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) (*http.Response, []byte) {
	t.Helper()
	return s.doWithKey(t, method, path, body, contentType, options.APIKey)
}

func (s *testServer) doWithKey(t *testing.T, method, path string, body io.Reader, contentType, apiKey string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

func (s *testServer) doJSON(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	if body == "" {
		return s.do(t, method, path, nil, "")
	}
	return s.do(t, method, path, strings.NewReader(body), "application/json")
}

// formFile is a file part of a multipart request.
type formFile struct {
	field       string
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, values map[string]string, files ...formFile) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range values {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// image returns size bytes starting with the signature of contentType.
func image(contentType string, size int) []byte {
	data := make([]byte, size)
	switch contentType {
	case "image/png":
		copy(data, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	case "image/jpeg":
		copy(data, []byte{0xff, 0xd8, 0xff, 0xe0})
	}
	return data
}

// problem is the error body written by huma.
type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
	Errors []struct {
		Message  string `json:"message"`
		Location string `json:"location"`
	} `json:"errors"`
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body: %s", body)
	return v
}

func TestAddRoutesIncompleteEnv(t *testing.T) {
	_, api := newTestAPI()
	assert.Error(t, handlers.AddRoutes(nil, api))
	assert.Error(t, handlers.AddRoutes(&handlers.Env{}, api))
}

func newTestAPI() (*http.ServeMux, huma.API) {
	router := http.NewServeMux()
	return router, humago.New(router, huma.DefaultConfig("Filmstudio API", "0.0.1"))
}

func TestGetEnvMissing(t *testing.T) {
	_, err := handlers.GetEnv(context.Background())
	assert.Error(t, err)
}

func TestAuthentication(t *testing.T) {
	s := startTestServer(t, newGenerator(fixedStoryboards(storyboardJSON)), nil)
	body := `{"scriptOutline": "A detective enters a dark warehouse."}`

	tt := []struct {
		name         string
		apiKey       string
		expectStatus int
	}{
		{name: "Valid API key", apiKey: options.APIKey, expectStatus: http.StatusOK},
		{name: "Invalid API key", apiKey: "not-the-key", expectStatus: http.StatusUnauthorized},
		{name: "No API key", apiKey: "", expectStatus: http.StatusUnauthorized},
	}

	for _, v := range tt {
		t.Run(v.name, func(t *testing.T) {
			resp, respBody := s.doWithKey(t, http.MethodPost, "/v1/storyboards", strings.NewReader(body), "application/json", v.apiKey)
			assert.Equal(t, v.expectStatus, resp.StatusCode, "body: %s", respBody)
			if v.expectStatus == http.StatusUnauthorized {
				p := decode[problem](t, respBody)
				assert.Equal(t, "Authentication failed. Perhaps a missing or incorrect API key?", p.Detail)
			}
		})
	}
}
