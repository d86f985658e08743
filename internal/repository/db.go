package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"lxsync/pkg/syncerr"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// DefaultChunkSize is used when a caller passes a non-positive chunk size.
const DefaultChunkSize = 500

// maxPlaceholders is SQLite's bound-parameter limit, the lower of the two
// backends (MySQL allows 65535).
const maxPlaceholders = 32766

// DB is a connection plus the dialect its SQL is rendered in.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(ctx context.Context, dsn string) (*DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, persistErr("repository.open", err)
	}

	// One batch writer; a couple of connections is plenty.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, persistErr("repository.open", err)
	}

	return &DB{DB: db, Dialect: MySQL{}}, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, persistErr("repository.open", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, persistErr("repository.open", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Keep connection alive

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, persistErr("repository.open", err)
	}

	return &DB{DB: db, Dialect: SQLite{}}, nil
}

// EnsureSchema creates every table that does not exist yet.
func (d *DB) EnsureSchema(ctx context.Context) error {
	return d.exec(ctx, "repository.ensure_schema", d.Dialect.Schema())
}

func (d *DB) exec(ctx context.Context, op string, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return persistErr(op, err)
		}
	}
	return nil
}

// upsertRows writes rows in chunks inside one transaction: either every
// chunk lands or none does. It returns the summed affected-row count.
func (d *DB) upsertRows(ctx context.Context, op, table string, cols, keys []string, rows [][]any, chunkSize int) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	chunkSize = min(chunkSize, maxPlaceholders/len(cols))

	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return 0, persistErr(op, fmt.Errorf("begin: %w", err))
	}
	defer tx.Rollback()

	var affected int64
	for chunk := range slices.Chunk(rows, chunkSize) {
		args := make([]any, 0, len(chunk)*len(cols))
		for _, row := range chunk {
			args = append(args, row...)
		}
		res, err := tx.ExecContext(ctx, d.Dialect.Upsert(table, cols, keys, len(chunk)), args...)
		if err != nil {
			return 0, persistErr(op, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, persistErr(op, err)
		}
		affected += n
	}

	if err := tx.Commit(); err != nil {
		return 0, persistErr(op, fmt.Errorf("commit: %w", err))
	}
	return affected, nil
}

// persistErr classifies a database failure, carrying the MySQL error number
// when there is one.
func persistErr(op string, err error) error {
	e := syncerr.Persistence(op, err)
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		e.Code = strconv.Itoa(int(myErr.Number))
	}
	return e
}

// UpsertResult summarizes one upsert call.
type UpsertResult struct {
	// Affected is the driver's affected-row count summed over chunks.
	Affected int64
	// Written is the number of records sent to the database.
	Written int64
	// Skipped is the number of input records dropped for missing key fields.
	Skipped int64
}
