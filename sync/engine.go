// Package sync implements the incremental relay run: watermark-based
// deduplication, chronological dispatch, and partial-failure recovery.
package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-feed-relay/core"
)

const defaultLeaseTTL = 60 * time.Second

// Engine orchestrates one relay invocation: session establishment,
// watermark load, feed fetch, ordered dispatch, and watermark persistence.
// A run is a single sequential pass; posts are dispatched one at a time in
// chronological order and never in parallel.
type Engine struct {
	Gateway    core.SessionGateway
	Watermarks core.WatermarkStore
	Formatter  core.Formatter
	Dispatcher core.Dispatcher
	Locker     core.AccountLocker
	LeaseTTL   time.Duration
	Logger     core.Logger
	Now        func() time.Time
}

func NewEngine(
	gateway core.SessionGateway,
	watermarks core.WatermarkStore,
	formatter core.Formatter,
	dispatcher core.Dispatcher,
) *Engine {
	return &Engine{
		Gateway:    gateway,
		Watermarks: watermarks,
		Formatter:  formatter,
		Dispatcher: dispatcher,
		Locker:     core.NewMemoryAccountLocker(),
		LeaseTTL:   defaultLeaseTTL,
		Logger:     glog.Nop(),
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Run executes one relay pass for the account. Delivery is at-least-once:
// a post is never re-dispatched once a prior dispatch succeeded and the
// advanced watermark was persisted, but a dispatch whose outcome was
// ambiguous is retried by the next run. Whatever watermark progress was
// confirmed before a failure is persisted before the error is returned.
func (e *Engine) Run(ctx context.Context, accountID string) (core.RunReport, error) {
	if e == nil || e.Gateway == nil || e.Watermarks == nil || e.Formatter == nil || e.Dispatcher == nil {
		return core.RunReport{}, fmt.Errorf("sync: engine requires gateway, watermark store, formatter, and dispatcher")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return core.RunReport{}, fmt.Errorf("sync: account id is required")
	}

	startedAt := e.now()
	report := core.RunReport{
		RunID:     uuid.NewString(),
		AccountID: accountID,
		StartedAt: startedAt,
	}
	logger := e.logger()

	if e.Locker != nil {
		lease, err := e.Locker.Acquire(ctx, accountID, e.leaseTTL())
		if err != nil {
			logger.Warn("run rejected, lease held", "account_id", accountID, "run_id", report.RunID)
			return report, err
		}
		defer func() { _ = lease.Release(ctx) }()
	}

	client, err := e.Gateway.Establish(ctx, accountID)
	if err != nil {
		return report, err
	}

	watermark, found, err := e.Watermarks.Get(ctx, accountID)
	if err != nil {
		return report, core.NewLoadError("sync: load watermark", err)
	}
	loaded := int64(0)
	if found {
		loaded = watermark.LastTimestamp
	}
	report.WatermarkBefore = loaded
	report.WatermarkAfter = loaded

	posts, err := client.FetchRecent(ctx, accountID)
	if err != nil {
		return report, err
	}
	report.PostsSeen = len(posts)

	// The feed arrives newest-first; the dispatch loop needs oldest-first
	// so the watermark only ever moves forward and the webhook channel
	// sees posts in chronological order.
	working := loaded
	var runErr error
	for i := len(posts) - 1; i >= 0; i-- {
		post := posts[i]

		if ctxErr := ctx.Err(); ctxErr != nil {
			runErr = ctxErr
			break
		}

		timestamp, tsErr := core.EffectiveTimestamp(post)
		if tsErr != nil {
			runErr = core.NewFetchError("sync: post has no usable timestamp", tsErr)
			break
		}
		if timestamp <= working {
			continue
		}

		if dispatchErr := e.Dispatcher.Deliver(ctx, e.Formatter.Format(post, accountID)); dispatchErr != nil {
			logger.Error("dispatch failed, halting run",
				"account_id", accountID,
				"run_id", report.RunID,
				"post_uri", post.URI,
				"error", dispatchErr.Error(),
			)
			runErr = dispatchErr
			break
		}
		working = timestamp
		report.PostsDispatched++
	}

	// Persist whatever progress was confirmed, on every exit path. A
	// persist failure becomes the run's terminal error; the next run
	// recovers from the last durable watermark.
	if working > loaded {
		if _, persistErr := e.Watermarks.Advance(ctx, core.AdvanceWatermarkInput{
			AccountID:     accountID,
			LastTimestamp: working,
		}); persistErr != nil {
			if runErr != nil {
				logger.Error("run error preceding persist failure",
					"account_id", accountID,
					"run_id", report.RunID,
					"error", runErr.Error(),
				)
			}
			runErr = core.NewPersistError("sync: persist watermark", persistErr)
		} else {
			report.WatermarkAfter = working
		}
	}

	report.Duration = e.now().Sub(startedAt)
	if runErr != nil {
		logger.Error("run failed",
			"account_id", accountID,
			"run_id", report.RunID,
			"posts_seen", report.PostsSeen,
			"posts_dispatched", report.PostsDispatched,
			"watermark", report.WatermarkAfter,
			"error", runErr.Error(),
		)
		return report, runErr
	}

	logger.Info("run completed",
		"account_id", accountID,
		"run_id", report.RunID,
		"posts_seen", report.PostsSeen,
		"posts_dispatched", report.PostsDispatched,
		"watermark", report.WatermarkAfter,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

func (e *Engine) leaseTTL() time.Duration {
	if e != nil && e.LeaseTTL > 0 {
		return e.LeaseTTL
	}
	return defaultLeaseTTL
}

func (e *Engine) logger() core.Logger {
	if e != nil && e.Logger != nil {
		return e.Logger
	}
	return glog.Nop()
}

func (e *Engine) now() time.Time {
	if e != nil && e.Now != nil {
		return e.Now().UTC()
	}
	return time.Now().UTC()
}
