// Package warehouse executes compiled detection queries against the
// telemetry database the DSL's identifiers are defined against. It
// never constructs or diffs DDL — only the compiled SELECT leaves this
// package's boundary.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/dnsdga/lindef/compiler"
)

// Config names the warehouse connection. DbType selects the driver and
// DSN-building strategy; the rest are only consulted for the types that
// need them.
type Config struct {
	DbType   string // "mysql", "postgres", "mssql", or "sqlite3"
	Host     string
	Port     int
	User     string
	Password string
	DbName   string
	Path     string // sqlite3 only: path to the database file
}

// Warehouse wraps a database/sql handle opened against one of the four
// supported warehouse backends.
type Warehouse struct {
	config Config
	db     *sql.DB
}

func Open(config Config) (*Warehouse, error) {
	driverName, dsn, err := dsnFor(config)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("warehouse: open %s: %w", config.DbType, err)
	}
	return &Warehouse{config: config, db: db}, nil
}

func dsnFor(config Config) (driverName, dsn string, err error) {
	switch config.DbType {
	case "mysql":
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s", config.User, config.Password, config.Host, config.Port, config.DbName), nil
	case "postgres":
		return "postgres", fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", config.User, config.Password, config.Host, config.Port, config.DbName), nil
	case "mssql":
		return "sqlserver", fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s", config.User, config.Password, config.Host, config.Port, config.DbName), nil
	case "sqlite3":
		return "sqlite", config.Path, nil
	default:
		return "", "", fmt.Errorf("warehouse: database type must be one of mysql, postgres, mssql, sqlite3, got %q", config.DbType)
	}
}

func (w *Warehouse) Close() error {
	return w.db.Close()
}

// Row is one result row from a detection query, columns keyed by name in
// the order the driver reported them.
type Row struct {
	Columns []string
	Values  []any
}

// Run executes a compiled detection query and collects every row. Batch
// runs over many (dga, hour) windows, so each call is given its own
// timeout rather than sharing one across a whole sweep.
func (w *Warehouse) Run(ctx context.Context, query string, timeout time.Duration) ([]Row, error) {
	if err := compiler.CheckPlaceholders(query); err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	rows, err := w.db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("warehouse: query failed: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		result = append(result, Row{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slog.Debug("warehouse query completed", "rows", len(result), "elapsed", time.Since(start))
	return result, nil
}
