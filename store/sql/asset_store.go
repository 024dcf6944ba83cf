package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-ownership/core"
)

// AssetStore persists ownership records in the ownership_assets table.
// Insert and SwapOwner are conditional writes, so concurrent registries
// sharing one database still see a single winner per id.
type AssetStore struct {
	db   *bun.DB
	repo repository.Repository[*assetRecord]
}

func NewAssetStore(db *bun.DB) (*AssetStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*assetRecord](db, assetHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid asset repository wiring: %w", err)
		}
	}
	return &AssetStore{db: db, repo: repo}, nil
}

func (s *AssetStore) Get(ctx context.Context, id core.AssetID) (core.Asset, error) {
	if s == nil || s.db == nil {
		return core.Asset{}, fmt.Errorf("sqlstore: asset store is not configured")
	}
	record, err := findAsset(ctx, s.db, id)
	if err != nil {
		return core.Asset{}, err
	}
	if record == nil {
		return core.Asset{}, core.ErrAssetNotFound
	}
	return record.toDomain(), nil
}

func (s *AssetStore) Has(ctx context.Context, id core.AssetID) (bool, error) {
	if s == nil || s.db == nil {
		return false, fmt.Errorf("sqlstore: asset store is not configured")
	}
	return s.db.NewSelect().
		Model((*assetRecord)(nil)).
		Where("?TableAlias.asset_id = ?", string(id)).
		Exists(ctx)
}

// Set writes asset unconditionally, creating the row when it is missing.
func (s *AssetStore) Set(ctx context.Context, asset core.Asset) error {
	if s == nil || s.db == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: asset store is not configured")
	}
	if err := asset.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model((*assetRecord)(nil)).
			Set("owner = ?", string(asset.Owner)).
			Set("updated_at = ?", now).
			Where("asset_id = ?", string(asset.ID)).
			Exec(ctx)
		if err != nil {
			return err
		}
		if affected(result) > 0 {
			return nil
		}
		record := newAssetRecord(asset, now)
		record.ID = uuid.NewString()
		_, err = s.repo.CreateTx(ctx, tx, record)
		return err
	})
}

func (s *AssetStore) Insert(ctx context.Context, asset core.Asset) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: asset store is not configured")
	}
	if err := asset.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := findAsset(ctx, tx, asset.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return core.ErrAssetExists
		}
		record := newAssetRecord(asset, now)
		record.ID = uuid.NewString()
		if _, insertErr := tx.NewInsert().Model(record).Exec(ctx); insertErr != nil {
			if isUniqueViolation(insertErr) {
				return core.ErrAssetExists
			}
			return insertErr
		}
		return nil
	})
}

func (s *AssetStore) SwapOwner(ctx context.Context, id core.AssetID, expected core.Principal, next core.Principal) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: asset store is not configured")
	}
	if next.IsZero() {
		return fmt.Errorf("%w: next owner is required", core.ErrInvalidInput)
	}
	now := time.Now().UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model((*assetRecord)(nil)).
			Set("owner = ?", string(next)).
			Set("updated_at = ?", now).
			Where("asset_id = ?", string(id)).
			Where("owner = ?", string(expected)).
			Exec(ctx)
		if err != nil {
			return err
		}
		if affected(result) > 0 {
			return nil
		}
		existing, err := findAsset(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return core.ErrAssetNotFound
		}
		return core.ErrOwnerMismatch
	})
}

// ListByOwner returns the assets currently held by owner, ordered by id.
func (s *AssetStore) ListByOwner(ctx context.Context, owner core.Principal) ([]core.Asset, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: asset store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("owner", "=", string(owner)),
		repository.OrderBy("asset_id ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Asset, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func findAsset(ctx context.Context, db bun.IDB, id core.AssetID) (*assetRecord, error) {
	record := &assetRecord{}
	err := db.NewSelect().
		Model(record).
		Where("?TableAlias.asset_id = ?", string(id)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func affected(result sql.Result) int64 {
	if result == nil {
		return 0
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0
	}
	return rows
}

func isUniqueViolation(err error) bool {
	message := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
