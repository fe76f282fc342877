// Package save persists engine state snapshots through database/sql.
//
// Two dialects are supported: an embedded sqlite file for local play and
// postgres for hosted deployments. The dialect is picked from the DB_DIALECT
// environment variable, defaulting to sqlite.
package save

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"sidegig/internal/game"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ErrNoSave is returned by Load when a slot has never been written.
var ErrNoSave = errors.New("save slot is empty")

// Store reads and writes JSON snapshots of game state keyed by slot name.
type Store struct {
	dialect Dialect
	db      *sql.DB
	log     *slog.Logger
}

// Options control how Open picks its backing database.
type Options struct {
	// SQLitePath is the sqlite database file, created on demand.
	SQLitePath string
	// DatabaseURL is the postgres DSN. Only consulted for the postgres dialect.
	DatabaseURL string
	// Logger is optional; slog.Default() is used when nil.
	Logger *slog.Logger
}

// Open connects to the configured database and ensures the schema exists.
// The dialect comes from DB_DIALECT, defaulting to sqlite.
func Open(ctx context.Context, opts Options) (*Store, error) {
	dialectRaw := strings.TrimSpace(strings.ToLower(os.Getenv("DB_DIALECT")))
	if dialectRaw == "" {
		dialectRaw = string(DialectSQLite)
	}
	dialect := Dialect(dialectRaw)

	var driverName string
	var dsn string
	switch dialect {
	case DialectSQLite:
		driverName = "sqlite"
		path := strings.TrimSpace(opts.SQLitePath)
		if path == "" {
			path = "sidegig.db"
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite directory: %w", err)
			}
		}
		dsn = path
	case DialectPostgres:
		driverName = "pgx"
		dsn = strings.TrimSpace(opts.DatabaseURL)
		if dsn == "" {
			dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
		}
		if dsn == "" {
			return nil, errors.New("DB_DIALECT=postgres requires a DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DIALECT %q", dialectRaw)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := &Store{dialect: dialect, db: db, log: logger}
	if err := store.ensureSchema(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("save store ready", "dialect", dialect)
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) ensureSchema(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS saves (
			slot TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create saves table: %w", err)
	}
	return nil
}

func (s *Store) bind(pos int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

// Save writes the snapshot for slot, replacing any previous one.
func (s *Store) Save(ctx context.Context, slot string, state *game.State) error {
	if state == nil {
		return errors.New("nil state")
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	del := fmt.Sprintf("DELETE FROM saves WHERE slot = %s", s.bind(1))
	if _, err := tx.ExecContext(ctx, del, slot); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear slot %s: %w", slot, err)
	}
	ins := fmt.Sprintf(
		"INSERT INTO saves (slot, state, updated_at) VALUES (%s, %s, %s)",
		s.bind(1), s.bind(2), s.bind(3),
	)
	if _, err := tx.ExecContext(ctx, ins, slot, string(payload), time.Now().UTC()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("write slot %s: %w", slot, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

// Load reads the snapshot for slot. ErrNoSave means the slot was never written.
func (s *Store) Load(ctx context.Context, slot string) (*game.State, error) {
	query := fmt.Sprintf("SELECT state FROM saves WHERE slot = %s", s.bind(1))
	var payload string
	err := s.db.QueryRowContext(ctx, query, slot).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSave
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", slot, err)
	}
	state := game.NewState()
	if err := json.Unmarshal([]byte(payload), state); err != nil {
		return nil, fmt.Errorf("decode slot %s: %w", slot, err)
	}
	return state, nil
}

// Slots lists every saved slot name in alphabetical order.
func (s *Store) Slots(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT slot FROM saves ORDER BY slot")
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()
	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

// Delete removes a slot. Deleting a missing slot is not an error.
func (s *Store) Delete(ctx context.Context, slot string) error {
	query := fmt.Sprintf("DELETE FROM saves WHERE slot = %s", s.bind(1))
	if _, err := s.db.ExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("delete slot %s: %w", slot, err)
	}
	return nil
}
