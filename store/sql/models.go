package sqlstore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-feed-relay/core"
)

type watermarkRecord struct {
	bun.BaseModel `bun:"table:relay_watermarks,alias:rw"`

	ID            string    `bun:"id,pk"`
	AccountID     string    `bun:"account_id,notnull"`
	LastTimestamp int64     `bun:"last_timestamp,notnull"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *watermarkRecord) toDomain() core.Watermark {
	if r == nil {
		return core.Watermark{}
	}
	return core.Watermark{
		ID:            r.ID,
		AccountID:     r.AccountID,
		LastTimestamp: r.LastTimestamp,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type sessionRecord struct {
	bun.BaseModel `bun:"table:relay_sessions,alias:rs"`

	ID         string    `bun:"id,pk"`
	AccountID  string    `bun:"account_id,notnull"`
	DID        string    `bun:"did"`
	Handle     string    `bun:"handle"`
	AccessJWT  string    `bun:"access_jwt,notnull"`
	RefreshJWT string    `bun:"refresh_jwt"`
	Payload    []byte    `bun:"payload"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (r *sessionRecord) toDomain() core.Session {
	if r == nil {
		return core.Session{}
	}
	payload := make([]byte, len(r.Payload))
	copy(payload, r.Payload)
	return core.Session{
		AccountID:  r.AccountID,
		DID:        r.DID,
		Handle:     r.Handle,
		AccessJWT:  r.AccessJWT,
		RefreshJWT: r.RefreshJWT,
		Payload:    payload,
		UpdatedAt:  r.UpdatedAt,
	}
}
