package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// WatermarkStore persists the per-account dedup cursor. Advance must be
// atomic and must reject regressions with ErrWatermarkRegression.
type WatermarkStore interface {
	Get(ctx context.Context, accountID string) (Watermark, bool, error)
	Advance(ctx context.Context, in AdvanceWatermarkInput) (Watermark, error)
}

// SessionStore persists cached authentication state, keyed per account and
// separately from the watermark.
type SessionStore interface {
	Get(ctx context.Context, accountID string) (Session, bool, error)
	Put(ctx context.Context, session Session) error
	Delete(ctx context.Context, accountID string) error
}

// FeedClient is an authenticated handle onto the feed service for one run.
// FetchRecent returns a single newest-first page; the engine never paginates.
type FeedClient interface {
	FetchRecent(ctx context.Context, accountID string) ([]Post, error)
}

// SessionGateway resolves an authenticated FeedClient, resuming a cached
// session when possible and falling back to credential login.
type SessionGateway interface {
	Establish(ctx context.Context, accountID string) (FeedClient, error)
}

// Formatter maps one post into a webhook payload. Implementations must be
// deterministic and side-effect free.
type Formatter interface {
	Format(post Post, accountID string) Message
}

// Dispatcher delivers one formatted payload to the webhook endpoint. No
// retries: recovery belongs to the next scheduled run.
type Dispatcher interface {
	Deliver(ctx context.Context, msg Message) error
}
