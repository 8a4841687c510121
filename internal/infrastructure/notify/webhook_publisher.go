package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/card-draft/internal/platform/logging"
	"github.com/riskibarqy/card-draft/internal/platform/resilience"
	"github.com/riskibarqy/card-draft/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxLoggedBody = 4096

type WebhookConfig struct {
	URL            string
	Token          string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// WebhookPublisher POSTs each draft change as JSON to one endpoint. The
// receiver can dedupe on the Idempotency-Key header, which is draft id and
// version.
type WebhookPublisher struct {
	client  *http.Client
	url     string
	token   string
	logger  *logging.Logger
	breaker *resilience.CircuitBreaker
}

func NewWebhookPublisher(cfg WebhookConfig, logger *logging.Logger) (*WebhookPublisher, error) {
	target, err := validateHTTPURL(cfg.URL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid NOTIFY_WEBHOOK_URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	p := &WebhookPublisher{
		client: &http.Client{Timeout: timeout},
		url:    target,
		token:  strings.TrimSpace(cfg.Token),
		logger: logger,
	}
	if cfg.CircuitBreaker.Enabled {
		p.breaker = resilience.NewCircuitBreaker(cfg.CircuitBreaker, func(from, to resilience.CircuitState) {
			logger.Warn("draft webhook circuit changed", "from", from, "to", to, "url", target)
		})
	}

	return p, nil
}

func (p *WebhookPublisher) NotifyDraftChanged(ctx context.Context, event usecase.DraftChangedEvent) error {
	body, err := sonic.Marshal(event)
	if err != nil {
		return crerr.Wrap(err, "marshal draft changed event")
	}
	idempotencyKey := event.DraftID + ":" + strconv.FormatInt(event.Version, 10)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("notify.url", p.url),
			attribute.String("notify.idempotency_key", idempotencyKey),
		)
	}
	p.logger.DebugContext(ctx, "draft webhook request",
		"draft_id", event.DraftID,
		"curl_preview", buildCurlPreview(p.url, idempotencyKey, truncateForLog(string(body), maxLoggedBody), p.token != ""),
	)

	err = p.breaker.Execute(func() error {
		return p.post(ctx, body, idempotencyKey)
	})
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("%w: draft webhook circuit is open", usecase.ErrDependencyUnavailable)
	}
	return err
}

func (p *WebhookPublisher) post(ctx context.Context, body []byte, idempotencyKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, strings.NewReader(string(body)))
	if err != nil {
		return crerr.Wrap(err, "create draft webhook request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return resilience.Transient(crerr.Wrapf(err, "post draft webhook url=%s", p.url))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxLoggedBody))
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	callErr := crerr.Newf("draft webhook status=%d url=%s body=%s", resp.StatusCode, p.url, strings.TrimSpace(string(raw)))
	if isRetryableStatus(resp.StatusCode) {
		return resilience.Transient(callErr)
	}
	return callErr
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func validateHTTPURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return candidate, nil
}

// buildCurlPreview renders the request as a shell command with the bearer
// token masked.
func buildCurlPreview(target, idempotencyKey, body string, withToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl -X POST")
	appendPart(shellQuote(target))
	if withToken {
		appendHeader("Authorization: Bearer ***")
	}
	appendHeader("Content-Type: application/json")
	appendHeader("Idempotency-Key: " + idempotencyKey)
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
