package layerstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/specialistvlad/layergen/internal/ctxlog"
)

// DefaultTable is the table layer records are read from.
const DefaultTable = "computing_layer"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// MySQL implements Store on top of a MySQL database.
type MySQL struct {
	db         *sqlx.DB
	table      string
	retries    uint64
	newBackOff func() backoff.BackOff
}

// Option configures a MySQL store.
type Option func(*MySQL)

// WithRetries sets how many times a transient query failure is retried.
func WithRetries(n uint64) Option {
	return func(m *MySQL) { m.retries = n }
}

// WithBackOff replaces the exponential back-off between retries.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(m *MySQL) { m.newBackOff = fn }
}

// New wraps an existing connection pool.
func New(db *sqlx.DB, table string, opts ...Option) (*MySQL, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid layer table name %q", table)
	}
	m := &MySQL{
		db:      db,
		table:   table,
		retries: 3,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn, table string, opts ...Option) (*MySQL, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	db, err := sqlx.ConnectContext(ctx, "mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mysql at %s: %w", cfg.Addr, err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxIdleConns(4)

	m, err := New(db, table, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("Connected to layer store.", "addr", cfg.Addr, "database", cfg.DBName, "table", m.table)
	return m, nil
}

// Close closes the underlying connection pool.
func (m *MySQL) Close() error {
	return m.db.Close()
}

// LatestLayer implements Store. Records are ordered by id, the insertion
// order, because layer_version is a string column.
func (m *MySQL) LatestLayer(ctx context.Context, name string) (*Layer, error) {
	query := fmt.Sprintf(
		"SELECT id, layer_name, layer_version FROM `%s` WHERE layer_name = ? ORDER BY id DESC LIMIT 1",
		m.table)

	var layer Layer
	err := m.retry(ctx, "latest_layer", func() error {
		return m.db.GetContext(ctx, &layer, query, name)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up layer %s: %w", name, err)
	}
	return &layer, nil
}

// CountLayersContaining implements Store.
func (m *MySQL) CountLayersContaining(ctx context.Context, fragment string) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM `%s` WHERE LOWER(layer_name) LIKE ?", m.table)
	pattern := "%" + escapeLike(strings.ToLower(fragment)) + "%"

	var n int
	err := m.retry(ctx, "count_layers", func() error {
		return m.db.GetContext(ctx, &n, query, pattern)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count layers containing %q: %w", fragment, err)
	}
	return n, nil
}

func (m *MySQL) retry(ctx context.Context, op string, fn func() error) error {
	logger := ctxlog.FromContext(ctx)
	b := backoff.WithContext(backoff.WithMaxRetries(m.newBackOff(), m.retries), ctx)
	return backoff.RetryNotify(func() error {
		err := fn()
		if err != nil && !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		logger.Warn("Layer store query failed, retrying.", "op", op, "error", err, "wait", wait)
	})
}

// isTransient reports whether a query error is worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1040, // too many connections
			1205, // lock wait timeout
			1213: // deadlock
			return true
		}
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes every character of s match literally inside LIKE.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
