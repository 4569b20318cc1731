// Package warehouse loads cleaned tables into PostgreSQL.
package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/JonMunkholm/cleanlytics/internal/core"
	"github.com/JonMunkholm/cleanlytics/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured is returned when no database URL was configured.
	ErrNotConfigured = errors.New("loader not configured")

	// ErrInvalidTable is returned for target names that are not plain
	// identifiers.
	ErrInvalidTable = errors.New("invalid table name")

	// ErrInvalidMode is returned for load modes other than append/replace.
	ErrInvalidMode = errors.New("invalid load mode")
)

// Mode decides what happens to rows already in the target table.
type Mode string

const (
	ModeAppend  Mode = "append"
	ModeReplace Mode = "replace"
)

// ParseMode validates a mode name; empty selects append.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case "", ModeAppend:
		return ModeAppend, nil
	case ModeReplace:
		return ModeReplace, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}(\.[A-Za-z_][A-Za-z0-9_]{0,62})?$`)

// ParseTable validates an optionally schema-qualified table name and returns
// it as an identifier.
func ParseTable(name string) (pgx.Identifier, error) {
	if !tableNameRegex.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTable, name)
	}
	return pgx.Identifier(strings.Split(name, ".")), nil
}

// Config configures the connection pool.
type Config struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Loader copies tables into PostgreSQL. A nil *Loader is valid and reports
// ErrNotConfigured.
type Loader struct {
	pool *pgxpool.Pool
}

// Open connects to the database and verifies the connection. An empty URL
// returns a nil loader and no error.
func Open(ctx context.Context, cfg Config) (*Loader, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: parse config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgxpool: ping: %w", err)
	}
	return &Loader{pool: pool}, nil
}

// Configured reports whether the loader has a database.
func (l *Loader) Configured() bool {
	return l != nil && l.pool != nil
}

// Close releases the pool.
func (l *Loader) Close() {
	if l.Configured() {
		l.pool.Close()
	}
}

// Ping checks the database connection.
func (l *Loader) Ping(ctx context.Context) error {
	if !l.Configured() {
		return ErrNotConfigured
	}
	return l.pool.Ping(ctx)
}

// Result summarises a load.
type Result struct {
	Table string `json:"table"`
	Mode  Mode   `json:"mode"`
	Rows  int64  `json:"rows"`
}

// Load creates the target table when it does not exist and copies every row
// of t into it inside one transaction. In replace mode the table is
// truncated first.
func (l *Loader) Load(ctx context.Context, t *core.Table, table string, mode Mode) (Result, error) {
	res := Result{Table: table, Mode: mode}
	if !l.Configured() {
		return res, ErrNotConfigured
	}
	ident, err := ParseTable(table)
	if err != nil {
		return res, err
	}
	if mode != ModeAppend && mode != ModeReplace {
		return res, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	start := time.Now()
	res.Rows, err = l.copyTable(ctx, t, ident, mode)
	metrics.RecordStep("load", err, time.Since(start))
	if err != nil {
		return res, err
	}

	slog.Info("table loaded",
		"table", table,
		"mode", mode,
		"rows", res.Rows,
		"duration", time.Since(start),
	)
	return res, nil
}

func (l *Loader) copyTable(ctx context.Context, t *core.Table, ident pgx.Identifier, mode Mode) (int64, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, CreateTableSQL(ident, t)); err != nil {
		return 0, fmt.Errorf("create table %s: %w", ident.Sanitize(), err)
	}
	if mode == ModeReplace {
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+ident.Sanitize()); err != nil {
			return 0, fmt.Errorf("truncate %s: %w", ident.Sanitize(), err)
		}
	}

	n, err := tx.CopyFrom(ctx, ident, t.Names(), pgx.CopyFromRows(Rows(t)))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", ident.Sanitize(), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// ColumnType returns the PostgreSQL type a column is stored as.
func ColumnType(k core.ColumnKind) string {
	if k == core.KindNumeric {
		return "double precision"
	}
	return "text"
}

// CreateTableSQL returns the DDL for a table holding t's columns.
func CreateTableSQL(ident pgx.Identifier, t *core.Table) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(ident.Sanitize())
	b.WriteString(" (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgx.Identifier{c.Name}.Sanitize())
		b.WriteByte(' ')
		b.WriteString(ColumnType(c.Kind))
	}
	b.WriteString(")")
	return b.String()
}

// Rows converts t to COPY rows; missing cells become NULL.
func Rows(t *core.Table) [][]any {
	rows := make([][]any, t.NumRows())
	for i := range rows {
		row := make([]any, t.NumCols())
		for j, c := range t.Columns {
			v := c.Values[i]
			switch {
			case !v.Valid:
				row[j] = nil
			case c.Kind == core.KindNumeric:
				row[j] = v.Num
			default:
				row[j] = v.Str
			}
		}
		rows[i] = row
	}
	return rows
}
