package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"ontology-mapper/internal/config"
)

const (
	dialTimeout = 10 * time.Second
	pingTimeout = 5 * time.Second

	// Pooled connections are recycled after an hour so long-idle links do
	// not go stale between scheduled extraction runs.
	connMaxLifetime = time.Hour

	maxOpenConns = 10
	maxIdleConns = 5
)

// ConnectionError reports that a configured server could not be reached or
// refused the credentials. The server is skipped; the run continues.
type ConnectionError struct {
	Host     string
	Port     int
	Database string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to %s:%d/%s: %v", e.Host, e.Port, e.Database, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Conn is a pooled handle to one configured server schema. It is used by
// exactly one extraction and closed afterwards.
type Conn struct {
	db     *sqlx.DB
	cfg    config.ServerConfig
	logger *zap.Logger
	closed bool
}

// NewConn wraps an already-established pool in a handle. Connect is the
// normal entry point; this is for callers that own the pool themselves.
func NewConn(db *sqlx.DB, cfg config.ServerConfig, logger *zap.Logger) *Conn {
	return &Conn{db: db, cfg: cfg, logger: logger}
}

// Connect opens a connection pool for one configured server and verifies it
// with a ping before handing it out. The DSN is built through the driver's
// config type, so credentials may contain any reserved characters.
func Connect(ctx context.Context, cfg config.ServerConfig, logger *zap.Logger) (*Conn, error) {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Timeout = dialTimeout

	db, err := sqlx.Open("mysql", mc.FormatDSN())
	if err != nil {
		return nil, &ConnectionError{Host: cfg.Host, Port: cfg.Port, Database: cfg.Name, Err: err}
	}

	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &ConnectionError{Host: cfg.Host, Port: cfg.Port, Database: cfg.Name, Err: err}
	}

	logger.Info("database connection pool established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
		zap.String("user", cfg.User),
	)

	return NewConn(db, cfg, logger), nil
}

// DB exposes the underlying pool for catalog queries.
func (c *Conn) DB() *sqlx.DB {
	return c.db
}

// Config returns the server config this handle was opened for.
func (c *Conn) Config() config.ServerConfig {
	return c.cfg
}

// Close releases the pool. Closing an already-closed handle is a no-op.
func (c *Conn) Close() {
	if c == nil || c.closed {
		return
	}
	c.closed = true
	if err := c.db.Close(); err != nil {
		c.logger.Warn("failed to close connection pool",
			zap.String("host", c.cfg.Host),
			zap.String("database", c.cfg.Name),
			zap.Error(err),
		)
		return
	}
	c.logger.Debug("database connection pool closed",
		zap.String("host", c.cfg.Host),
		zap.String("database", c.cfg.Name),
	)
}
