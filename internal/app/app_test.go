package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/card-draft/internal/config"
	"github.com/riskibarqy/card-draft/internal/infrastructure/notify"
	"github.com/riskibarqy/card-draft/internal/platform/logging"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:                   config.EnvDev,
		HTTPAddr:                 ":0",
		ReadTimeout:              5 * time.Second,
		WriteTimeout:             5 * time.Second,
		StorageDriver:            config.StorageMemory,
		CacheEnabled:             true,
		CacheTTL:                 time.Minute,
		CacheMaxEntries:          16,
		NotifyLogEnabled:         true,
		DraftMutationMaxAttempts: 3,
		AutoPickSweepWorkers:     2,
		AutoPickSweepBatch:       10,
	}
}

func TestNew_MemoryStorage(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("build app: %v", err)
	}
	defer func() { _ = a.Close(context.Background()) }()

	if a.Server == nil || a.Drafts == nil || a.Sweeper == nil {
		t.Fatalf("expected server and services to be built")
	}

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected healthz status: %d", rec.Code)
	}

	result, err := a.Sweeper.Sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep empty store: %v", err)
	}
	if result.DraftCount != 0 {
		t.Fatalf("expected no active drafts, got %d", result.DraftCount)
	}
}

func TestNew_RejectsEmptyAddr(t *testing.T) {
	cfg := memoryConfig()
	cfg.HTTPAddr = ""
	if _, err := New(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty http addr")
	}
}

func TestBuildNotifier(t *testing.T) {
	t.Run("fanout when both sinks enabled", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.NotifyWebhookEnabled = true
		cfg.NotifyWebhookURL = "https://hooks.example.com/drafts"

		n, err := buildNotifier(cfg, logging.NewNop())
		if err != nil {
			t.Fatalf("build notifier: %v", err)
		}
		if _, ok := n.(*notify.Fanout); !ok {
			t.Fatalf("expected fanout notifier, got %T", n)
		}
	})

	t.Run("invalid webhook url", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.NotifyWebhookEnabled = true
		cfg.NotifyWebhookURL = "ftp://hooks.example.com"

		if _, err := buildNotifier(cfg, logging.NewNop()); err == nil {
			t.Fatalf("expected error for non-http webhook url")
		}
	})

	t.Run("noop when nothing enabled", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.NotifyLogEnabled = false

		n, err := buildNotifier(cfg, logging.NewNop())
		if err != nil {
			t.Fatalf("build notifier: %v", err)
		}
		if n == nil {
			t.Fatalf("expected a notifier")
		}
	})
}

func TestRunAutoPickSweeps_DisabledReturnsImmediately(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), logging.NewNop())
	if err != nil {
		t.Fatalf("build app: %v", err)
	}

	done := make(chan struct{})
	go func() {
		a.RunAutoPickSweeps(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected sweep loop to return when interval is zero")
	}
}

func TestRunAutoPickSweeps_StopsOnCancel(t *testing.T) {
	cfg := memoryConfig()
	cfg.AutoPickSweepInterval = 10 * time.Millisecond
	a, err := New(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("build app: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.RunAutoPickSweeps(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected sweep loop to stop after cancel")
	}
}
