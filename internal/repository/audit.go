package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lxsync/internal/model"
)

var auditColumns = []string{
	"source_system", "kind", "record_key",
	"code", "message", "error_details", "request_id", "response_time",
	"sid", "name", "payload", "ingested_at",
}

var auditKeys = []string{"source_system", "kind", "record_key"}

// SQLAuditRepository implements AuditRepository on database/sql.
type SQLAuditRepository struct {
	db  *DB
	now func() time.Time
}

// NewAuditRepository creates an audit repository.
func NewAuditRepository(db *DB) *SQLAuditRepository {
	return &SQLAuditRepository{db: db, now: time.Now}
}

// InsertEnvelope writes each record with the envelope's metadata next to it.
// Only that record is stored as payload, not the whole data array.
func (r *SQLAuditRepository) InsertEnvelope(ctx context.Context, sourceSystem, kind string, env *model.Envelope) (UpsertResult, error) {
	const op = "repository.audit_insert"
	if env == nil || len(env.Data) == 0 {
		return UpsertResult{}, nil
	}

	keyOf := model.InventoryKey
	if kind == KindStore {
		keyOf = model.StoreKey
	}

	var respondedAt any
	if t, ok := env.RespondedAt(); ok {
		respondedAt = t
	}
	errorDetails := string(env.ErrorDetails)
	if errorDetails == "" {
		errorDetails = "[]"
	}
	now := r.now()
	source := model.Ident(sourceSystem)

	rows := make([][]any, 0, len(env.Data))
	for _, rec := range env.Data {
		payload, err := json.Marshal(rec)
		if err != nil {
			return UpsertResult{}, persistErr(op, fmt.Errorf("encode record: %w", err))
		}
		var sid any
		if n, ok := model.Int(rec["sid"]); ok {
			sid = n
		}
		rows = append(rows, []any{
			source, kind, keyOf(rec),
			string(env.Code), env.Message, errorDetails, env.RequestID, respondedAt,
			sid, model.Text(rec["name"]), string(payload), now,
		})
	}

	affected, err := r.db.upsertRows(ctx, op, "original_data", auditColumns, auditKeys, rows, DefaultChunkSize)
	if err != nil {
		return UpsertResult{}, err
	}
	return UpsertResult{Affected: affected, Written: int64(len(rows))}, nil
}

// Ensure SQLAuditRepository implements AuditRepository
var _ AuditRepository = (*SQLAuditRepository)(nil)
