package sink

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/csvclean/internal/config"
	"github.com/JonMunkholm/csvclean/internal/core"
	"github.com/JonMunkholm/csvclean/internal/logging"
)

func init() {
	Register(Definition{
		Name:        "sql",
		Description: "insert rows into a postgres or sqlite table",
		Enabled:     func(cfg *config.Config) bool { return cfg.Database.Enabled },
		New: func(ctx context.Context, cfg *config.Config) (Sink, error) {
			return OpenSQL(ctx, cfg.Database)
		},
	})
}

// Dialect holds the per-database differences in generated SQL.
type Dialect struct {
	Name       string
	NumberType string
	TextType   string

	// Placeholder returns the bind marker for the n-th argument (1-indexed).
	Placeholder func(n int) string
}

var (
	Postgres = Dialect{
		Name:        "postgres",
		NumberType:  "DOUBLE PRECISION",
		TextType:    "VARCHAR(255)",
		Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
	}
	SQLite = Dialect{
		Name:        "sqlite",
		NumberType:  "REAL",
		TextType:    "VARCHAR(255)",
		Placeholder: func(int) string { return "?" },
	}
)

// DialectFor returns the dialect for a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

// SQLSink creates a table shaped like the cleaned data and inserts every
// row inside one transaction, isolating each insert with a savepoint.
type SQLSink struct {
	db      *sql.DB
	dialect Dialect
	table   string
	timeout time.Duration
}

// OpenSQL connects to the database described by cfg and verifies the
// connection.
func OpenSQL(ctx context.Context, cfg config.DatabaseConfig) (*SQLSink, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, &Error{Sink: "sql", Op: "connect", Err: err}
	}

	var db *sql.DB
	switch dialect.Name {
	case "postgres":
		connCfg, err := pgx.ParseConfig(postgresURL(cfg))
		if err != nil {
			return nil, &Error{Sink: "sql", Op: "connect", Err: err}
		}
		db = stdlib.OpenDB(*connCfg)
	case "sqlite":
		db, err = sql.Open("sqlite", cfg.Name)
		if err != nil {
			return nil, &Error{Sink: "sql", Op: "connect", Err: err}
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &Error{Sink: "sql", Op: "connect", Err: err}
	}

	s := NewSQL(db, dialect, cfg.Table)
	s.timeout = cfg.Timeout
	return s, nil
}

// postgresURL builds a connection URL; url.URL handles escaping of the
// password and database name.
func postgresURL(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Name,
	}
	if cfg.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(cfg.SSLMode)
	}
	return u.String()
}

// NewSQL wraps an open database. The sink takes ownership of db.
func NewSQL(db *sql.DB, dialect Dialect, table string) *SQLSink {
	return &SQLSink{db: db, dialect: dialect, table: table}
}

func (s *SQLSink) Name() string { return "sql" }

func (s *SQLSink) Close() error { return s.db.Close() }

// CreateTableSQL returns the CREATE TABLE IF NOT EXISTS statement for t.
// Number columns map to the dialect's floating-point type and everything
// else to a bounded text type.
func (s *SQLSink) CreateTableSQL(t *core.Table) string {
	defs := make([]string, 0, t.NumCols())
	for _, c := range t.Columns() {
		typ := s.dialect.TextType
		if c.Kind == core.KindNumber {
			typ = s.dialect.NumberType
		}
		defs = append(defs, quoteIdent(c.Name)+" "+typ)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(s.table), strings.Join(defs, ", "))
}

// InsertSQL returns the parameterized single-row INSERT for t.
func (s *SQLSink) InsertSQL(t *core.Table) string {
	cols := make([]string, t.NumCols())
	marks := make([]string, t.NumCols())
	for i, c := range t.Columns() {
		cols[i] = quoteIdent(c.Name)
		marks[i] = s.dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(s.table), strings.Join(cols, ", "), strings.Join(marks, ", "))
}

func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Write creates the destination table if needed and inserts every row.
// A failing row is rolled back to its savepoint and recorded; the rest
// continue. Connection, DDL and transaction errors abort the write.
func (s *SQLSink) Write(ctx context.Context, t *core.Table) (*Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	res := &Result{Sink: s.Name()}
	logger := logging.WithFields(ctx, "sink", s.Name(), "table", s.table, "dialect", s.dialect.Name)

	if t.NumCols() == 0 {
		logger.Warn("nothing to insert: table has no columns")
		return res, nil
	}

	if _, err := s.db.ExecContext(ctx, s.CreateTableSQL(t)); err != nil {
		return res, &Error{Sink: s.Name(), Op: "create table", Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, &Error{Sink: s.Name(), Op: "begin", Err: err}
	}
	defer tx.Rollback() // No-op if already committed

	insert := s.InsertSQL(t)
	for i := 0; i < t.NumRows(); i++ {
		if err := ctx.Err(); err != nil {
			return res, &Error{Sink: s.Name(), Op: "insert", Err: fmt.Errorf("cancelled at row %d: %w", i+1, err)}
		}
		res.Attempted++

		// Savepoints keep one failed insert from aborting the transaction.
		sp := fmt.Sprintf("sp_%d", i)
		if _, err := tx.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
			return res, &Error{Sink: s.Name(), Op: "savepoint", Err: fmt.Errorf("row %d: %w", i+1, err)}
		}

		if _, err := tx.ExecContext(ctx, insert, t.Row(i)...); err != nil {
			if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
				return res, &Error{Sink: s.Name(), Op: "savepoint", Err: fmt.Errorf("rollback row %d: %w", i+1, rbErr)}
			}
			res.Failures = append(res.Failures, RowFailure{Row: i + 1, Err: err})
			logger.Warn("row insert failed", "row", i+1, "error", err)
			continue
		}

		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
			return res, &Error{Sink: s.Name(), Op: "savepoint", Err: fmt.Errorf("release row %d: %w", i+1, err)}
		}
		res.Written++
	}

	if err := tx.Commit(); err != nil {
		res.Written = 0
		return res, &Error{Sink: s.Name(), Op: "commit", Err: err}
	}

	res.Duration = time.Since(start)
	logger.Info("sql sink completed",
		"attempted", res.Attempted,
		"written", res.Written,
		"failed", res.Failed(),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}
