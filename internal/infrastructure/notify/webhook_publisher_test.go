package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/card-draft/internal/domain/draft"
	"github.com/riskibarqy/card-draft/internal/platform/logging"
	"github.com/riskibarqy/card-draft/internal/platform/resilience"
	"github.com/riskibarqy/card-draft/internal/usecase"
	"github.com/stretchr/testify/require"
)

func sampleEvent() usecase.DraftChangedEvent {
	return usecase.DraftChangedEvent{
		DraftID:    "d1",
		Version:    4,
		Operation:  "pick",
		Status:     draft.StatusActive,
		Round:      2,
		OccurredAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestWebhookPublisher_PostsEvent(t *testing.T) {
	t.Parallel()

	type captured struct {
		headers http.Header
		event   usecase.DraftChangedEvent
	}
	requests := make(chan captured, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var c captured
		c.headers = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		_ = sonic.Unmarshal(raw, &c.event)
		requests <- c
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	p, err := NewWebhookPublisher(WebhookConfig{URL: server.URL, Token: "secret"}, logging.NewNop())
	require.NoError(t, err)

	require.NoError(t, p.NotifyDraftChanged(context.Background(), sampleEvent()))
	req := <-requests
	require.Equal(t, "Bearer secret", req.headers.Get("Authorization"))
	require.Equal(t, "d1:4", req.headers.Get("Idempotency-Key"))
	require.Equal(t, "application/json", req.headers.Get("Content-Type"))

	want := sampleEvent()
	require.Equal(t, want.DraftID, req.event.DraftID)
	require.Equal(t, want.Version, req.event.Version)
	require.Equal(t, want.Status, req.event.Status)
	require.Equal(t, want.Round, req.event.Round)
	require.True(t, want.OccurredAt.Equal(req.event.OccurredAt))
}

func TestWebhookPublisher_OpensCircuitOnServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p, err := NewWebhookPublisher(WebhookConfig{
		URL: server.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
		},
	}, logging.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		err := p.NotifyDraftChanged(ctx, sampleEvent())
		require.Error(t, err)
		require.True(t, resilience.IsTransient(err), "5xx should be transient: %v", err)
	}

	err = p.NotifyDraftChanged(ctx, sampleEvent())
	require.True(t, errors.Is(err, usecase.ErrDependencyUnavailable), "got %v", err)
	require.EqualValues(t, 2, hits.Load(), "open circuit must not reach the server")
}

func TestWebhookPublisher_ClientErrorIsPermanent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer server.Close()

	p, err := NewWebhookPublisher(WebhookConfig{
		URL:            server.URL,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1},
	}, logging.NewNop())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		err := p.NotifyDraftChanged(context.Background(), sampleEvent())
		require.Error(t, err)
		require.False(t, resilience.IsTransient(err))
		require.Contains(t, err.Error(), "status=400")
	}
}

func TestNewWebhookPublisher_ValidatesURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "ftp://hooks.example.com", "https://"} {
		_, err := NewWebhookPublisher(WebhookConfig{URL: raw}, nil)
		require.Error(t, err, raw)
	}
}

func TestBuildCurlPreviewMasksToken(t *testing.T) {
	t.Parallel()

	preview := buildCurlPreview("https://hooks.example.com/draft", "d1:4", `{"note":"it's"}`, true)
	require.True(t, strings.HasPrefix(preview, "curl -X POST 'https://hooks.example.com/draft'"))
	require.Contains(t, preview, "'Authorization: Bearer ***'")
	require.Contains(t, preview, "'Idempotency-Key: d1:4'")
	require.Contains(t, preview, `'{"note":"it'"'"'s"}'`)
}
