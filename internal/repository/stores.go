package repository

import (
	"context"
	"time"

	"lxsync/internal/model"

	"github.com/rs/zerolog"
)

var storeColumns = []string{
	"source_system", "platform", "sid", "mid", "name", "seller_id",
	"account_name", "seller_account_id", "region", "country",
	"has_ads_setting", "marketplace_id", "status", "updated_at",
}

var storeKeys = []string{"source_system", "sid", "platform", "seller_id", "marketplace_id"}

// SQLStoreRepository implements StoreRepository on database/sql.
type SQLStoreRepository struct {
	db     *DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewStoreRepository creates a store repository.
func NewStoreRepository(db *DB, logger zerolog.Logger) *SQLStoreRepository {
	return &SQLStoreRepository{
		db:     db,
		logger: logger.With().Str("component", "repository").Str("table", "stores").Logger(),
		now:    time.Now,
	}
}

// Upsert normalizes and merges shops. Rows missing sid, seller_id or
// marketplace_id are logged and skipped.
func (r *SQLStoreRepository) Upsert(ctx context.Context, raw []map[string]any, sourceSystem, platform string, chunkSize int) (UpsertResult, error) {
	var result UpsertResult
	now := r.now()

	rows := make([][]any, 0, len(raw))
	for i, item := range raw {
		rec, err := model.NormalizeStore(item, sourceSystem, platform)
		if err != nil {
			result.Skipped++
			r.logger.Warn().Int("index", i).Str("reason", err.Error()).Msg("skipping store record")
			continue
		}
		rows = append(rows, []any{
			rec.SourceSystem, rec.Platform, rec.SID, rec.MID, rec.Name, rec.SellerID,
			rec.AccountName, rec.SellerAccountID, rec.Region, rec.Country,
			rec.HasAdsSetting, rec.MarketplaceID, rec.Status, now,
		})
	}

	affected, err := r.db.upsertRows(ctx, "repository.upsert_stores", "stores", storeColumns, storeKeys, rows, chunkSize)
	if err != nil {
		return UpsertResult{Skipped: result.Skipped}, err
	}
	result.Affected = affected
	result.Written = int64(len(rows))
	return result, nil
}

// Ensure SQLStoreRepository implements StoreRepository
var _ StoreRepository = (*SQLStoreRepository)(nil)
