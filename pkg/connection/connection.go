// Package connection provides the statement-execution layer under a
// database handle. Every implementation drives exactly one underlying
// SQLite connection; callers sharing a handle serialize through it.
//
// Two implementations ship with the module. DirectConnection runs each
// statement on the calling goroutine. WorkerConnection funnels
// statements through a single worker goroutine so many callers can
// issue statements concurrently while the engine still sees them one
// at a time.
package connection

import "context"

// Connection executes statements against one database connection.
//
// Connect is idempotent: the first call opens the connection and later
// calls reuse it. Exec and Query open it implicitly when needed, so a
// closed connection transparently reopens on next use.
type Connection interface {
	Connect(ctx context.Context) error
	// Exec runs a statement and reports the number of affected rows.
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	// Query runs a statement and returns the data column of every
	// matched row, in engine order.
	Query(ctx context.Context, query string, args ...any) ([][]byte, error)
	// Begin opens a deferred transaction. No-op when one is already open.
	Begin(ctx context.Context) error
	// Commit makes pending writes durable. No-op when no transaction is
	// open or the connection was never opened.
	Commit(ctx context.Context) error
	// Close releases the connection. The handle may reopen it later via
	// Connect or any statement.
	Close() error
}
