package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestRelayErrorMapper_PassesThroughRichErrors(t *testing.T) {
	rich := NewDispatchError("webhook rejected payload", errors.New("status 500"))
	mapped := relayErrorMapper(rich)
	if mapped.TextCode != RelayErrorDispatchFailed {
		t.Fatalf("expected dispatch text code, got %q", mapped.TextCode)
	}
	if mapped.Code == 0 {
		t.Fatalf("expected http status to be filled in")
	}
}

func TestRelayErrorMapper_LeaseSentinel(t *testing.T) {
	err := fmt.Errorf("%w: account %q", ErrRunLeaseHeld, "alice")
	mapped := relayErrorMapper(err)
	if mapped.TextCode != RelayErrorRunLocked {
		t.Fatalf("expected run-locked text code, got %q", mapped.TextCode)
	}
	if mapped.Category != goerrors.CategoryConflict {
		t.Fatalf("expected conflict category, got %v", mapped.Category)
	}
	if mapped.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", mapped.Code)
	}
}

func TestRelayErrorMapper_ClassifiesPlainErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code string
	}{
		{"auth", errors.New("bluesky: login failed for account"), RelayErrorAuthFailed},
		{"fetch", errors.New("bluesky: fetch author feed: connection reset"), RelayErrorFetchFailed},
		{"dispatch", errors.New("slack: webhook returned status 502"), RelayErrorDispatchFailed},
		{"input", errors.New("sync: account id is required"), RelayErrorBadInput},
	}
	for _, tc := range cases {
		mapped := relayErrorMapper(tc.err)
		if mapped.TextCode != tc.code {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.code, mapped.TextCode)
		}
	}
}

func TestNormalizeError_NilPassesThrough(t *testing.T) {
	if err := NormalizeError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestNormalizeError_KeepsSentinelReachable(t *testing.T) {
	source := fmt.Errorf("%w: account %q", ErrRunLeaseHeld, "alice")
	err := NormalizeError(source)

	var relayErr *goerrors.Error
	if !goerrors.As(err, &relayErr) {
		t.Fatalf("expected enveloped error, got %v", err)
	}
	if relayErr.TextCode != RelayErrorRunLocked {
		t.Fatalf("expected run-locked text code, got %q", relayErr.TextCode)
	}
	if !errors.Is(err, ErrRunLeaseHeld) {
		t.Fatalf("expected lease sentinel to survive normalization")
	}
}

func TestNormalizeError_KeepsPlainErrorReachable(t *testing.T) {
	source := errors.New("slack: webhook returned status 502")
	err := NormalizeError(source)

	var relayErr *goerrors.Error
	if !goerrors.As(err, &relayErr) || relayErr.TextCode != RelayErrorDispatchFailed {
		t.Fatalf("expected dispatch envelope, got %v", err)
	}
	if !errors.Is(err, source) {
		t.Fatalf("expected source error to survive normalization")
	}
}

func TestNewAuthError_WrapsCause(t *testing.T) {
	cause := errors.New("refresh token expired")
	err := NewAuthError("session resume and login failed", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to survive errors.Is")
	}
	if err.Category != goerrors.CategoryAuth {
		t.Fatalf("expected auth category, got %v", err.Category)
	}
}
