package query

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-feed-relay/core"
)

type WatermarkReader interface {
	Get(ctx context.Context, accountID string) (core.Watermark, bool, error)
}

type SessionReader interface {
	Get(ctx context.Context, accountID string) (core.Session, bool, error)
}

// WatermarkStatus is the read-side view of one account cursor.
type WatermarkStatus struct {
	AccountID     string
	LastTimestamp int64
	Found         bool
	UpdatedAt     time.Time
}

// SessionInfo describes cached session state with the token material
// redacted; diagnostics never need raw JWTs.
type SessionInfo struct {
	AccountID       string
	DID             string
	Handle          string
	Found           bool
	HasAccessToken  bool
	HasRefreshToken bool
	UpdatedAt       time.Time
}

type GetWatermarkQuery struct {
	reader WatermarkReader
}

func NewGetWatermarkQuery(reader WatermarkReader) *GetWatermarkQuery {
	return &GetWatermarkQuery{reader: reader}
}

func (q *GetWatermarkQuery) Query(ctx context.Context, msg GetWatermarkMessage) (WatermarkStatus, error) {
	if q == nil || q.reader == nil {
		return WatermarkStatus{}, queryDependencyError("query: watermark reader is required")
	}
	watermark, found, err := q.reader.Get(ctx, msg.AccountID)
	if err != nil {
		return WatermarkStatus{}, err
	}
	return WatermarkStatus{
		AccountID:     strings.TrimSpace(msg.AccountID),
		LastTimestamp: watermark.LastTimestamp,
		Found:         found,
		UpdatedAt:     watermark.UpdatedAt,
	}, nil
}

type GetSessionQuery struct {
	reader SessionReader
}

func NewGetSessionQuery(reader SessionReader) *GetSessionQuery {
	return &GetSessionQuery{reader: reader}
}

func (q *GetSessionQuery) Query(ctx context.Context, msg GetSessionMessage) (SessionInfo, error) {
	if q == nil || q.reader == nil {
		return SessionInfo{}, queryDependencyError("query: session reader is required")
	}
	session, found, err := q.reader.Get(ctx, msg.AccountID)
	if err != nil {
		return SessionInfo{}, err
	}
	return SessionInfo{
		AccountID:       strings.TrimSpace(msg.AccountID),
		DID:             session.DID,
		Handle:          session.Handle,
		Found:           found,
		HasAccessToken:  strings.TrimSpace(session.AccessJWT) != "",
		HasRefreshToken: strings.TrimSpace(session.RefreshJWT) != "",
		UpdatedAt:       session.UpdatedAt,
	}, nil
}
