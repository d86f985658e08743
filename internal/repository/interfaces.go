package repository

import (
	"context"

	"lxsync/internal/model"
)

// Audit kinds stored in original_data.kind.
const (
	KindStore     = "store"
	KindInventory = "inventory"
)

// AuditRepository writes the raw landing rows.
type AuditRepository interface {
	// InsertEnvelope writes one row per record of env, merging on
	// (source_system, kind, record_key).
	InsertEnvelope(ctx context.Context, sourceSystem, kind string, env *model.Envelope) (UpsertResult, error)
}

// StoreRepository defines store dimension access methods.
type StoreRepository interface {
	// Upsert normalizes raw shop rows and merges them on either natural key.
	Upsert(ctx context.Context, raw []map[string]any, sourceSystem, platform string, chunkSize int) (UpsertResult, error)
}

// InventoryRepository defines FBA inventory access methods.
type InventoryRepository interface {
	// Upsert transforms raw inventory rows and merges them on
	// (source_system, sid, seller_sku, fulfillment_channel).
	Upsert(ctx context.Context, raw []map[string]any, sourceSystem, platform string, chunkSize int) (UpsertResult, error)
}

// RunRepository defines run log access methods.
type RunRepository interface {
	// EnsureTable creates the run log if it is missing.
	EnsureTable(ctx context.Context) error

	// Insert appends a run and returns its id.
	Insert(ctx context.Context, run *model.IngestionRun) (int64, error)

	// Latest returns the most recent run of jobName, or nil.
	Latest(ctx context.Context, jobName string) (*model.IngestionRun, error)
}
