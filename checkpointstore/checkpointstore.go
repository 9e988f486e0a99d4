// Package checkpointstore persists and loads opaque checkpoint blobs
// keyed by (page_id, rev_id), the way the teacher's driver package
// abstracts over multiple SQL backends behind one Database type — here
// the payload is a checkpoint blob upsert instead of a DDL dump/apply.
package checkpointstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Config selects and parameterizes a backend, mirroring the shape of
// the teacher's driver.Config.
type Config struct {
	Driver string // "mysql", "postgres", "mssql", "sqlite"
	DSN    string
}

// Store persists checkpoint blobs. The core never performs I/O itself
// (spec §5): Store is owned and called by the surrounding pipeline.
type Store struct {
	driver string
	db     *sql.DB
}

// driverNames maps our configuration names to the registered
// database/sql driver name for each backend.
var driverNames = map[string]string{
	"mysql":    "mysql",
	"postgres": "postgres",
	"mssql":    "sqlserver",
	"sqlite":   "sqlite",
}

// Open opens a Store for cfg.Driver and ensures its checkpoints table
// exists.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	driverName, ok := driverNames[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("checkpointstore: unknown driver %q", cfg.Driver)
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("checkpointstore: open %s: %w", cfg.Driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("checkpointstore: ping %s: %w", cfg.Driver, err)
	}

	s := &Store{driver: cfg.Driver, db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	ddl := createTableDDL(s.driver)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		tx.Rollback()
		return fmt.Errorf("checkpointstore: create schema: %w", err)
	}
	return tx.Commit()
}

// Save atomically upserts the blob for (page_id, rev_id) (spec §5:
// "Checkpoints are written atomically per (page_id, rev_id)").
// lastContent is the joined text of the revision the blob was built
// from: spec §2 lists "latest content" as part of what the checkpoint
// codec persists, but §6's wire schema for the blob itself has no field
// for it, so it rides alongside the blob as its own column instead of
// being folded into the opaque blob bytes.
func (s *Store) Save(ctx context.Context, pageID string, revID int, blob []byte, lastContent string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, upsertDML(s.driver), pageID, revID, blob, lastContent); err != nil {
		tx.Rollback()
		return fmt.Errorf("checkpointstore: save %s rev %d: %w", pageID, revID, err)
	}
	return tx.Commit()
}

// Load returns the latest checkpoint blob and its accompanying last
// content for pageID, if any.
func (s *Store) Load(ctx context.Context, pageID string) ([]byte, string, int, bool, error) {
	row := s.db.QueryRowContext(ctx, selectLatestDML(s.driver), pageID)
	var revID int
	var blob []byte
	var lastContent string
	if err := row.Scan(&revID, &blob, &lastContent); err != nil {
		if err == sql.ErrNoRows {
			return nil, "", 0, false, nil
		}
		return nil, "", 0, false, fmt.Errorf("checkpointstore: load %s: %w", pageID, err)
	}
	return blob, lastContent, revID, true, nil
}
