package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-feed-relay/core"
)

// SessionStore keeps cached authentication state per account. Session rows
// are replaceable caches: losing one costs a re-login, never a replay.
type SessionStore struct {
	db   *bun.DB
	repo repository.Repository[*sessionRecord]
}

func NewSessionStore(db *bun.DB) (*SessionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*sessionRecord](db, sessionHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid session repository wiring: %w", err)
		}
	}
	return &SessionStore{
		db:   db,
		repo: repo,
	}, nil
}

func (s *SessionStore) Get(ctx context.Context, accountID string) (core.Session, bool, error) {
	if s == nil || s.db == nil {
		return core.Session{}, false, fmt.Errorf("sqlstore: session store is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return core.Session{}, false, fmt.Errorf("sqlstore: account id is required")
	}

	record := &sessionRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.account_id = ?", accountID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Session{}, false, nil
		}
		return core.Session{}, false, err
	}
	return record.toDomain(), true, nil
}

func (s *SessionStore) Put(ctx context.Context, session core.Session) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: session store is not configured")
	}
	session.AccountID = strings.TrimSpace(session.AccountID)
	if session.AccountID == "" {
		return fmt.Errorf("sqlstore: account id is required")
	}
	if strings.TrimSpace(session.AccessJWT) == "" {
		return fmt.Errorf("sqlstore: session access token is required")
	}
	now := time.Now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findSessionTx(ctx, tx, session.AccountID)
		if err != nil {
			return err
		}
		if record == nil {
			record = newSessionRecord(session, now)
			record.ID = uuid.NewString()
			if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
				if isUniqueViolation(insertErr) {
					record, err = findSessionTx(ctx, tx, session.AccountID)
					if err != nil {
						return err
					}
					if record == nil {
						return insertErr
					}
				} else {
					return insertErr
				}
			} else {
				return nil
			}
		}

		record.DID = session.DID
		record.Handle = session.Handle
		record.AccessJWT = session.AccessJWT
		record.RefreshJWT = session.RefreshJWT
		record.Payload = append([]byte(nil), session.Payload...)
		record.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); updateErr != nil {
			return updateErr
		}
		return nil
	})
}

func (s *SessionStore) Delete(ctx context.Context, accountID string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: session store is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return fmt.Errorf("sqlstore: account id is required")
	}
	_, err := s.db.NewDelete().
		Model((*sessionRecord)(nil)).
		Where("account_id = ?", accountID).
		Exec(ctx)
	return err
}

func newSessionRecord(session core.Session, now time.Time) *sessionRecord {
	return &sessionRecord{
		AccountID:  session.AccountID,
		DID:        session.DID,
		Handle:     session.Handle,
		AccessJWT:  session.AccessJWT,
		RefreshJWT: session.RefreshJWT,
		Payload:    append([]byte(nil), session.Payload...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func findSessionTx(ctx context.Context, tx bun.Tx, accountID string) (*sessionRecord, error) {
	record := &sessionRecord{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.account_id = ?", strings.TrimSpace(accountID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}
