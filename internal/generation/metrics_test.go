package generation

import (
	"context"
	"errors"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpilhlt/filmstudio/internal/models"
)

func requestCount(t *testing.T, kind, status string) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, generationRequestsTotal.WithLabelValues(kind, status).Write(m))
	return m.GetCounter().GetValue()
}

func TestMetricsByOutcome(t *testing.T) {
	ctx := context.Background()
	req := storyboardRequest(t, "A detective enters a dark warehouse.")

	tt := []struct {
		name    string
		backend *recordingBackend
		status  string
	}{
		{name: "Success", backend: &recordingBackend{reply: `{"storyboard":[]}`}, status: "success"},
		{name: "Schema mismatch", backend: &recordingBackend{reply: `{"scenes":[]}`}, status: "invalid_output"},
		{name: "Backend error", backend: &recordingBackend{err: errors.New("unavailable")}, status: "error"},
	}

	for _, v := range tt {
		t.Run(v.name, func(t *testing.T) {
			before := requestCount(t, models.KindStoryboard, v.status)
			_, _ = NewService(v.backend, nil).GenerateStoryboard(ctx, req)
			assert.Equal(t, before+1, requestCount(t, models.KindStoryboard, v.status))
		})
	}
}
