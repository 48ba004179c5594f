package connection

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/doclite/doclite.go/pkg/logger"

	_ "modernc.org/sqlite"
)

// DirectConnection executes every statement synchronously on the
// calling goroutine against a single dedicated SQLite connection.
//
// The connection is opened lazily on first use and never pooled. A
// mutex serializes statements, so a DirectConnection is safe for
// concurrent use, with callers blocking until the engine finishes
// each statement.
type DirectConnection struct {
	dsn    string
	logger logger.Logger

	mu   sync.Mutex
	db   *sql.DB
	conn *sql.Conn
	inTx bool
}

// NewDirect builds a DirectConnection for the given SQLite database
// name. The name ":memory:" denotes a private in-memory database that
// lives and dies with this connection.
func NewDirect(dsn string, log logger.Logger) *DirectConnection {
	return &DirectConnection{dsn: dsn, logger: log}
}

func (c *DirectConnection) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *DirectConnection) connectLocked(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	db, err := sql.Open("sqlite", c.dsn)
	if err != nil {
		return fmt.Errorf("open database %q: %w", c.dsn, err)
	}
	// A single *sql.Conn pins one SQLite connection for the lifetime of
	// this handle; an in-memory database would otherwise vanish between
	// pooled connections.
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("connect to database %q: %w", c.dsn, err)
	}
	c.db = db
	c.conn = conn
	c.logger.Debug("connection opened", "database", c.dsn)
	return nil
}

func (c *DirectConnection) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.execLocked(ctx, query, args...)
}

func (c *DirectConnection) execLocked(ctx context.Context, query string, args ...any) (int64, error) {
	if err := c.connectLocked(ctx); err != nil {
		return 0, err
	}
	c.logger.Debug("exec", "query", query)
	res, err := c.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *DirectConnection) Query(ctx context.Context, query string, args ...any) ([][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}
	c.logger.Debug("query", "query", query)
	rows, err := c.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, rows.Err()
}

func (c *DirectConnection) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inTx {
		return nil
	}
	if _, err := c.execLocked(ctx, "BEGIN"); err != nil {
		return err
	}
	c.inTx = true
	return nil
}

func (c *DirectConnection) Commit(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.inTx {
		return nil
	}
	if _, err := c.execLocked(ctx, "COMMIT"); err != nil {
		return err
	}
	c.inTx = false
	return nil
}

func (c *DirectConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	if dbErr := c.db.Close(); err == nil {
		err = dbErr
	}
	c.conn = nil
	c.db = nil
	c.inTx = false
	c.logger.Debug("connection closed", "database", c.dsn)
	return err
}
