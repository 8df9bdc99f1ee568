package sqlcore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/honeynil/sqlcore/drivers/base"
)

// PoolOptions configures a Pool. It is immutable once a Pool has
// been constructed from it.
type PoolOptions struct {
	// MaxConnections is the maximum number of open connections the pool
	// maintains. Must be >= 1.
	MaxConnections uint32

	// MinConnections caps how many idle connections the pool retains
	// (database/sql's SetMaxIdleConns); connections are not opened ahead
	// of demand. Must be <= MaxConnections.
	MinConnections uint32

	// ConnectTimeout bounds how long Acquire waits for a free connection,
	// and how long the initial connect during NewPool may take. Must be > 0.
	ConnectTimeout time.Duration

	// MaxLifetime, if set, caps how long a single connection may live
	// before the pool recycles it.
	MaxLifetime *time.Duration

	// IdleTimeout, if set, caps how long a connection may sit idle before
	// the pool recycles it.
	IdleTimeout *time.Duration

	// TestBeforeAcquire, if true, pings a connection before handing it to
	// the caller from Acquire.
	TestBeforeAcquire bool
}

// DefaultPoolOptions returns the options new/NewPool uses when the caller
// supplies none.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxConnections: 10,
		MinConnections: 0,
		ConnectTimeout: 30 * time.Second,
	}
}

// Option customizes pool construction beyond PoolOptions — logging and
// backend feature-gating, both ambient concerns rather than pool tuning.
type Option func(*poolConfig)

type poolConfig struct {
	logger   Logger
	registry *base.Registry
}

// WithLogger attaches a Logger (slog-compatible) that reports a successful
// initial connect. Default is a no-op logger.
func WithLogger(l Logger) Option {
	return func(c *poolConfig) { c.logger = l }
}

// WithFeatureRegistry restricts which backends NewPool will construct. A
// pool whose backend has been disabled fails with ErrFeatureDisabled.
func WithFeatureRegistry(r *base.Registry) Option {
	return func(c *poolConfig) { c.registry = r }
}

// Pool owns one backend connection pool. It is safe for
// concurrent use by any number of callers.
type Pool struct {
	tag    DriverTag
	db     *sql.DB
	opts   PoolOptions
	logger Logger
	closed atomic.Bool
}

// NewPool constructs a Pool from a connection URL using DefaultPoolOptions.
// The URL's scheme prefix selects the backend: mysql, postgres /
// postgresql, sqlite, mssql / sqlserver.
func NewPool(ctx context.Context, rawURL string, opts ...Option) (*Pool, error) {
	return NewPoolWithOptions(ctx, rawURL, DefaultPoolOptions(), opts...)
}

// NewPoolWithOptions constructs a Pool with caller-supplied PoolOptions.
func NewPoolWithOptions(ctx context.Context, rawURL string, options PoolOptions, opts ...Option) (*Pool, error) {
	cfg := &poolConfig{logger: defaultLogger()}
	for _, o := range opts {
		o(cfg)
	}

	spec, err := resolveScheme(rawURL)
	if err != nil {
		return nil, err
	}
	if err := checkFeature(cfg.registry, spec); err != nil {
		return nil, err
	}

	dsn, err := spec.desc.ParseURL(rawURL)
	if err != nil {
		return nil, &ConfigError{Driver: spec.tag, Op: "parse", Cause: err}
	}

	// sql.Open never dials; the driver's own statement/slow-query logging
	// (where one exists, e.g. pgx's tracer) is left unconfigured here on
	// purpose — the surrounding system logs through the Logger above
	// instead of a second, driver-owned log stream.
	db, err := sql.Open(spec.desc.SQLDriverName, dsn)
	if err != nil {
		return nil, &ConfigError{Driver: spec.tag, Op: "parse", Cause: err}
	}

	db.SetMaxOpenConns(int(options.MaxConnections))
	db.SetMaxIdleConns(int(options.MinConnections))
	if options.MaxLifetime != nil {
		db.SetConnMaxLifetime(*options.MaxLifetime)
	}
	if options.IdleTimeout != nil {
		db.SetConnMaxIdleTime(*options.IdleTimeout)
	}

	connectCtx, cancel := context.WithTimeout(ctx, options.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(connectCtx); err != nil {
		_ = db.Close()
		return nil, &ConfigError{Driver: spec.tag, Op: "connect", Cause: err}
	}

	cfg.logger.InfoContext(ctx, "sqlcore: pool connected", "driver", spec.tag.String())

	return &Pool{tag: spec.tag, db: db, opts: options, logger: cfg.logger}, nil
}

// Tag returns the pool's driver tag.
func (p *Pool) Tag() DriverTag { return p.tag }

// Stats exposes database/sql's pool statistics, giving operators the
// introspection they need to size and monitor the pool.
func (p *Pool) Stats() sql.DBStats { return p.db.Stats() }

// MakeQuery returns a PreparedQuery of the pool's driver tag wrapping sql.
// No I/O is performed.
func (p *Pool) MakeQuery(sqlText string) (*PreparedQuery, error) {
	if p.tag == DriverNone {
		return nil, ErrNotInitialized
	}
	return &PreparedQuery{tag: p.tag, sqlText: sqlText}, nil
}

// Acquire blocks up to PoolOptions.ConnectTimeout awaiting a free
// connection.
func (p *Pool) Acquire(ctx context.Context) (*PooledConn, error) {
	if p.tag == DriverNone {
		return nil, ErrNotInitialized
	}

	acquireCtx, cancel := context.WithTimeout(ctx, p.opts.ConnectTimeout)
	defer cancel()

	conn, err := p.db.Conn(acquireCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrPoolTimeout
		}
		return nil, &ConfigError{Driver: p.tag, Op: "connect", Cause: err}
	}

	if p.opts.TestBeforeAcquire {
		if err := conn.PingContext(acquireCtx); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("%w: %v", ErrConnectionError, err)
		}
	}

	return &PooledConn{tag: p.tag, conn: conn, logger: p.logger}, nil
}

// TryAcquire is Acquire's non-blocking counterpart: it returns (nil, nil)
// immediately if no connection is available instead of waiting.
func (p *Pool) TryAcquire(ctx context.Context) (*PooledConn, error) {
	if p.tag == DriverNone {
		return nil, ErrNotInitialized
	}

	// A literal zero-duration deadline is canceled synchronously by
	// context.WithTimeout before Conn ever runs, which would make this
	// always fail. A minimal positive duration gets the same "don't make
	// the caller wait" behavior through a real (if tiny) timer instead.
	immediateCtx, cancel := context.WithTimeout(ctx, time.Microsecond)
	defer cancel()

	conn, err := p.db.Conn(immediateCtx)
	if err != nil {
		return nil, nil
	}

	if p.opts.TestBeforeAcquire {
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return nil, nil
		}
	}

	return &PooledConn{tag: p.tag, conn: conn, logger: p.logger}, nil
}

// Begin acquires a connection internally and begins a transaction on it.
// The returned Tx is self-contained: no separate PooledConn
// is returned, and the connection is released back to the pool when the
// Tx commits or rolls back.
func (p *Pool) Begin(ctx context.Context) (*Tx, error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := conn.beginWithOwnership(ctx, true)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return tx, nil
}

// Close drains the pool and closes all connections. Idempotent.
func (p *Pool) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.db.Close()
}
