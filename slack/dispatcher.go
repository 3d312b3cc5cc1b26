package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-feed-relay/core"
)

const (
	defaultDispatchTimeout   = 15 * time.Second
	maxResponseSnippetBytes  = 512
	maxDispatchResponseBytes = 1 << 20
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type DispatcherConfig struct {
	WebhookURL string
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

// Dispatcher posts one payload per call to the configured webhook URL. It
// applies no retry policy; a failed delivery ends the caller's run and the
// next scheduled run resumes from the last confirmed watermark.
type Dispatcher struct {
	config     DispatcherConfig
	httpClient HTTPDoer
}

func NewDispatcher(cfg DispatcherConfig) (*Dispatcher, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, fmt.Errorf("slack: webhook url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Dispatcher{
		config: DispatcherConfig{
			WebhookURL: webhookURL,
			Timeout:    timeout,
		},
		httpClient: httpClient,
	}, nil
}

// Deliver sends the message as a JSON POST. Any non-2xx status is a
// failure carrying the status code and a bounded response-body snippet.
func (d *Dispatcher) Deliver(ctx context.Context, msg core.Message) error {
	if d == nil || d.httpClient == nil {
		return fmt.Errorf("slack: dispatcher is not configured")
	}
	if len(msg.Blocks) == 0 {
		return core.NewDispatchError("slack: message requires at least one block", nil)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return core.NewDispatchError("slack: encode webhook payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return core.NewDispatchError("slack: build webhook request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.httpClient.Do(req)
	if err != nil {
		return core.NewDispatchError("slack: webhook dispatch transport failure", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		snippet := readSnippet(res.Body)
		return core.NewDispatchError(
			fmt.Sprintf("slack: webhook returned status %d: %s", res.StatusCode, snippet),
			nil,
		)
	}

	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxDispatchResponseBytes))
	return nil
}

func readSnippet(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxResponseSnippetBytes))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

var _ core.Dispatcher = (*Dispatcher)(nil)
