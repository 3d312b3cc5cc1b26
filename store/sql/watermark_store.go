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

// WatermarkStore persists the per-account delivery cursor. Advance runs in a
// transaction and never lets the stored timestamp move backwards.
type WatermarkStore struct {
	db   *bun.DB
	repo repository.Repository[*watermarkRecord]
}

func NewWatermarkStore(db *bun.DB) (*WatermarkStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*watermarkRecord](db, watermarkHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid watermark repository wiring: %w", err)
		}
	}
	return &WatermarkStore{
		db:   db,
		repo: repo,
	}, nil
}

func (s *WatermarkStore) Get(ctx context.Context, accountID string) (core.Watermark, bool, error) {
	if s == nil || s.db == nil {
		return core.Watermark{}, false, fmt.Errorf("sqlstore: watermark store is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return core.Watermark{}, false, fmt.Errorf("sqlstore: account id is required")
	}

	record := &watermarkRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.account_id = ?", accountID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.Watermark{}, false, nil
		}
		return core.Watermark{}, false, err
	}
	return record.toDomain(), true, nil
}

func (s *WatermarkStore) Advance(ctx context.Context, in core.AdvanceWatermarkInput) (core.Watermark, error) {
	if s == nil || s.db == nil {
		return core.Watermark{}, fmt.Errorf("sqlstore: watermark store is not configured")
	}
	in.AccountID = strings.TrimSpace(in.AccountID)
	if in.AccountID == "" {
		return core.Watermark{}, fmt.Errorf("sqlstore: account id is required")
	}
	if in.LastTimestamp <= 0 {
		return core.Watermark{}, fmt.Errorf("sqlstore: watermark timestamp must be positive")
	}
	now := time.Now().UTC()

	var out core.Watermark
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record, err := findWatermarkTx(ctx, tx, in.AccountID)
		if err != nil {
			return err
		}
		if record == nil {
			record = &watermarkRecord{
				ID:            uuid.NewString(),
				AccountID:     in.AccountID,
				LastTimestamp: in.LastTimestamp,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
				if isUniqueViolation(insertErr) {
					record, err = findWatermarkTx(ctx, tx, in.AccountID)
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
				out = record.toDomain()
				return nil
			}
		}

		if in.LastTimestamp < record.LastTimestamp {
			return fmt.Errorf(
				"%w: account %q has %d, refusing %d",
				core.ErrWatermarkRegression,
				in.AccountID,
				record.LastTimestamp,
				in.LastTimestamp,
			)
		}
		if in.LastTimestamp == record.LastTimestamp {
			out = record.toDomain()
			return nil
		}

		record.LastTimestamp = in.LastTimestamp
		record.UpdatedAt = now
		if _, updateErr := tx.NewUpdate().Model(record).Where("id = ?", record.ID).Exec(ctx); updateErr != nil {
			return updateErr
		}
		out = record.toDomain()
		return nil
	})
	if err != nil {
		return core.Watermark{}, err
	}
	return out, nil
}

func findWatermarkTx(ctx context.Context, tx bun.Tx, accountID string) (*watermarkRecord, error) {
	record := &watermarkRecord{}
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

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
