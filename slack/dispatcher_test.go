package slack

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-feed-relay/core"
)

func testMessage() core.Message {
	return core.Message{Blocks: []core.Block{
		{Type: core.BlockTypeSection, Text: core.PlainText("hi")},
	}}
}

func TestDispatcher_DeliverPostsJSON(t *testing.T) {
	var gotContentType string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dispatcher, err := NewDispatcher(DispatcherConfig{WebhookURL: server.URL})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	if err := dispatcher.Deliver(context.Background(), testMessage()); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if gotContentType != "application/json" {
		t.Fatalf("expected json content type, got %q", gotContentType)
	}
	if _, ok := gotBody["blocks"]; !ok {
		t.Fatalf("expected blocks envelope, got %v", gotBody)
	}
}

func TestDispatcher_NonSuccessStatusIsFailureWithSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no_service"))
	}))
	defer server.Close()

	dispatcher, err := NewDispatcher(DispatcherConfig{WebhookURL: server.URL})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	err = dispatcher.Deliver(context.Background(), testMessage())
	if err == nil {
		t.Fatalf("expected failure for 404")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "no_service") {
		t.Fatalf("expected status and body snippet in error, got %v", err)
	}
}

type failingDoer struct{ err error }

func (d failingDoer) Do(*http.Request) (*http.Response, error) { return nil, d.err }

func TestDispatcher_TransportErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	dispatcher, err := NewDispatcher(DispatcherConfig{
		WebhookURL: "https://hooks.slack.com/services/T0/B0/x",
		HTTPClient: failingDoer{err: cause},
	})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	err = dispatcher.Deliver(context.Background(), testMessage())
	if !errors.Is(err, cause) {
		t.Fatalf("expected transport cause to be wrapped, got %v", err)
	}
}

func TestDispatcher_RejectsEmptyMessage(t *testing.T) {
	dispatcher, err := NewDispatcher(DispatcherConfig{WebhookURL: "https://hooks.slack.com/services/T0/B0/x"})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	err = dispatcher.Deliver(context.Background(), core.Message{})
	if err == nil {
		t.Fatalf("expected error for empty message")
	}
	var relayErr *goerrors.Error
	if !goerrors.As(err, &relayErr) || relayErr.TextCode != core.RelayErrorDispatchFailed {
		t.Fatalf("expected %s envelope, got %v", core.RelayErrorDispatchFailed, err)
	}
}

func TestNewDispatcher_RequiresWebhookURL(t *testing.T) {
	if _, err := NewDispatcher(DispatcherConfig{WebhookURL: "   "}); err == nil {
		t.Fatalf("expected error for blank webhook url")
	}
}
