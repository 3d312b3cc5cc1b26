package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-feed-relay/core"
)

type stubWatermarkReader struct {
	watermark core.Watermark
	found     bool
	err       error
}

func (s stubWatermarkReader) Get(context.Context, string) (core.Watermark, bool, error) {
	return s.watermark, s.found, s.err
}

type stubSessionReader struct {
	session core.Session
	found   bool
	err     error
}

func (s stubSessionReader) Get(context.Context, string) (core.Session, bool, error) {
	return s.session, s.found, s.err
}

func TestGetWatermarkQuery_ReturnsStatus(t *testing.T) {
	updated := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	q := NewGetWatermarkQuery(stubWatermarkReader{
		watermark: core.Watermark{AccountID: "tester.bsky.social", LastTimestamp: 1_717_243_200_000, UpdatedAt: updated},
		found:     true,
	})

	status, err := q.Query(context.Background(), GetWatermarkMessage{AccountID: "tester.bsky.social"})
	if err != nil {
		t.Fatalf("query watermark: %v", err)
	}
	if !status.Found || status.LastTimestamp != 1_717_243_200_000 {
		t.Fatalf("unexpected status: %#v", status)
	}
	if !status.UpdatedAt.Equal(updated) {
		t.Fatalf("expected updated-at passthrough, got %v", status.UpdatedAt)
	}
}

func TestGetWatermarkQuery_ReportsMissingCursor(t *testing.T) {
	q := NewGetWatermarkQuery(stubWatermarkReader{})

	status, err := q.Query(context.Background(), GetWatermarkMessage{AccountID: "fresh.bsky.social"})
	if err != nil {
		t.Fatalf("query watermark: %v", err)
	}
	if status.Found || status.LastTimestamp != 0 {
		t.Fatalf("expected empty status for fresh account, got %#v", status)
	}
}

func TestGetSessionQuery_RedactsTokens(t *testing.T) {
	q := NewGetSessionQuery(stubSessionReader{
		session: core.Session{
			AccountID:  "tester.bsky.social",
			DID:        "did:plc:tester",
			Handle:     "tester.bsky.social",
			AccessJWT:  "secret-access",
			RefreshJWT: "secret-refresh",
		},
		found: true,
	})

	info, err := q.Query(context.Background(), GetSessionMessage{AccountID: "tester.bsky.social"})
	if err != nil {
		t.Fatalf("query session: %v", err)
	}
	if !info.Found || !info.HasAccessToken || !info.HasRefreshToken {
		t.Fatalf("unexpected session info: %#v", info)
	}
	if info.DID != "did:plc:tester" {
		t.Fatalf("expected did passthrough, got %q", info.DID)
	}
}

func TestQueries_PropagateReaderErrors(t *testing.T) {
	readErr := errors.New("database unavailable")

	if _, err := NewGetWatermarkQuery(stubWatermarkReader{err: readErr}).
		Query(context.Background(), GetWatermarkMessage{AccountID: "a"}); !errors.Is(err, readErr) {
		t.Fatalf("expected watermark reader error, got %v", err)
	}
	if _, err := NewGetSessionQuery(stubSessionReader{err: readErr}).
		Query(context.Background(), GetSessionMessage{AccountID: "a"}); !errors.Is(err, readErr) {
		t.Fatalf("expected session reader error, got %v", err)
	}
}

func TestQueries_RequireDependencies(t *testing.T) {
	if _, err := (&GetWatermarkQuery{}).Query(context.Background(), GetWatermarkMessage{AccountID: "a"}); err == nil {
		t.Fatal("expected dependency error from watermark query")
	}
	if _, err := (&GetSessionQuery{}).Query(context.Background(), GetSessionMessage{AccountID: "a"}); err == nil {
		t.Fatal("expected dependency error from session query")
	}
}
