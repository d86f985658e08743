package repository

import (
	"context"
	"time"

	"lxsync/internal/model"

	"github.com/rs/zerolog"
)

var inventoryColumns = []string{
	"source_system", "platform", "sid", "warehouse_name", "seller_sku",
	"sku", "asin", "fnsku", "product_name", "fulfillment_channel", "share_type",
	"total", "available_total",
	"reserved_fc_transfers", "reserved_fc_processing", "reserved_customerorders", "reserved_total",
	"afn_unsellable_quantity",
	"afn_inbound_working_quantity", "afn_inbound_shipped_quantity", "afn_inbound_receiving_quantity",
	"stock_up_num", "inbound_total",
	"updated_at",
}

var inventoryKeys = []string{"source_system", "sid", "seller_sku", "fulfillment_channel"}

// SQLInventoryRepository implements InventoryRepository on database/sql.
type SQLInventoryRepository struct {
	db     *DB
	logger zerolog.Logger
	now    func() time.Time
}

// NewInventoryRepository creates an inventory repository.
func NewInventoryRepository(db *DB, logger zerolog.Logger) *SQLInventoryRepository {
	return &SQLInventoryRepository{
		db:     db,
		logger: logger.With().Str("component", "repository").Str("table", "inventory_fba_current").Logger(),
		now:    time.Now,
	}
}

// Upsert explodes raw rows into records (see model.ExplodeInventory) and
// merges them.
func (r *SQLInventoryRepository) Upsert(ctx context.Context, raw []map[string]any, sourceSystem, platform string, chunkSize int) (UpsertResult, error) {
	var result UpsertResult
	now := r.now()

	rows := make([][]any, 0, len(raw))
	for i, item := range raw {
		recs, skipped := model.ExplodeInventory(item, sourceSystem, platform)
		if skipped > 0 {
			result.Skipped += int64(skipped)
			r.logger.Warn().Int("index", i).Int("skipped", skipped).Str("seller_sku", model.Text(item["seller_sku"])).
				Msg("skipping inventory record without warehouse id")
		}
		for _, rec := range recs {
			rows = append(rows, []any{
				rec.SourceSystem, rec.Platform, rec.SID, rec.WarehouseName, rec.SellerSKU,
				rec.SKU, rec.ASIN, rec.FNSKU, rec.ProductName, rec.FulfillmentChannel, rec.ShareType,
				rec.Total, rec.AvailableTotal,
				rec.ReservedFCTransfers, rec.ReservedFCProcessing, rec.ReservedCustomerOrders, rec.ReservedTotal,
				rec.UnsellableQuantity,
				rec.InboundWorking, rec.InboundShipped, rec.InboundReceiving,
				rec.StockUpNum, rec.InboundTotal,
				now,
			})
		}
	}

	affected, err := r.db.upsertRows(ctx, "repository.upsert_inventory", "inventory_fba_current", inventoryColumns, inventoryKeys, rows, chunkSize)
	if err != nil {
		return UpsertResult{Skipped: result.Skipped}, err
	}
	result.Affected = affected
	result.Written = int64(len(rows))
	return result, nil
}

// Ensure SQLInventoryRepository implements InventoryRepository
var _ InventoryRepository = (*SQLInventoryRepository)(nil)
