package logging

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	huma "github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Config{Level: "debug", Encoding: "json", OutputPath: path})
	require.NoError(t, err)

	logger.Debug("hello", zap.String("form_id", "abc"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(data)
	assert.Contains(t, line, `"level":"DEBUG"`)
	assert.Contains(t, line, `"form_id":"abc"`)
	assert.Contains(t, line, `"timestamp"`)
}

func TestNewFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := New(Config{Level: "loud", Encoding: "xml", OutputPath: path})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "hidden"))
	assert.Contains(t, string(data), `"msg":"shown"`)
}

func TestMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	_, api := humatest.New(t)
	api.UseMiddleware(Middleware(zap.New(core)))

	huma.Register(api, huma.Operation{
		OperationID: "teapot",
		Method:      http.MethodGet,
		Path:        "/teapot",
	}, func(ctx context.Context, _ *struct{}) (*struct{}, error) {
		return nil, huma.NewError(http.StatusTeapot, "short and stout")
	})

	resp := api.Get("/teapot")
	assert.Equal(t, http.StatusTeapot, resp.Code)

	entries := logs.FilterMessage("Request handled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "teapot", entries[0].ContextMap()["operation"])
	assert.EqualValues(t, http.StatusTeapot, entries[0].ContextMap()["status"])
}
