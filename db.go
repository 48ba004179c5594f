package doclite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"

	"github.com/doclite/doclite.go/docjson"
	"github.com/doclite/doclite.go/internal/codec"
	"github.com/doclite/doclite.go/pkg/connection"
	"github.com/doclite/doclite.go/pkg/constants"
	"github.com/doclite/doclite.go/pkg/logger"
)

// Memory is the database name denoting a private, non-persistent
// in-memory database. Every handle built with it gets a fresh
// instance; two handles never share one.
const Memory = ":memory:"

// DB is a handle to one SQLite database. It owns at most one open
// connection, created lazily on first use and shared by every
// collection obtained from the handle.
//
// With auto-commit enabled (the default) every mutating call commits
// immediately after its own statement. With it disabled the caller
// batches writes and makes them durable with an explicit Commit.
type DB struct {
	name       string
	autoCommit bool

	conn        connection.Connection
	marshaler   codec.Marshaler
	unmarshaler codec.Unmarshaler
	logger      logger.Logger
}

// Option configures a DB handle.
type Option func(*DB)

// WithAutoCommit controls whether each mutating call commits on its
// own. Disable it to batch many writes into a single durability point
// via Commit.
func WithAutoCommit(autoCommit bool) Option {
	return func(db *DB) {
		db.autoCommit = autoCommit
	}
}

// WithLogger replaces the default text logger.
func WithLogger(l logger.Logger) Option {
	return func(db *DB) {
		db.logger = l
	}
}

// WithConnection replaces the default DirectConnection, for example
// with a WorkerConnection when many goroutines share the handle.
func WithConnection(conn connection.Connection) Option {
	return func(db *DB) {
		db.conn = conn
	}
}

// WithCodec replaces the document codec used for every collection of
// this handle. Both m and u must be set.
func WithCodec(m codec.Marshaler, u codec.Unmarshaler) Option {
	return func(db *DB) {
		db.marshaler = m
		db.unmarshaler = u
	}
}

// New builds a handle to the named database. The connection is not
// opened until the first statement runs.
func New(name string, opts ...Option) *DB {
	db := &DB{
		name:       name,
		autoCommit: true,
	}
	jsonCodec := docjson.New()
	db.marshaler = jsonCodec
	db.unmarshaler = jsonCodec
	for _, opt := range opts {
		opt(db)
	}
	if db.logger == nil {
		db.logger = logger.New(slog.NewTextHandler(os.Stdout, nil)).With("database", name)
	}
	if db.conn == nil {
		db.conn = connection.NewDirect(name, db.logger)
	}
	return db
}

func (db *DB) String() string {
	return fmt.Sprintf("DB(%q)", db.name)
}

// Name returns the database name the handle was built with.
func (db *DB) Name() string {
	return db.name
}

// Connect opens the underlying connection. Calling it is optional:
// every statement opens the connection on demand, and repeated calls
// reuse the one already open.
func (db *DB) Connect(ctx context.Context) error {
	return db.conn.Connect(ctx)
}

// Collection returns the named collection, creating its backing table
// if it does not exist yet. Repeated calls with the same name are
// idempotent. The name is interpolated into DDL and DML verbatim, so
// callers must restrict it to safe identifier characters.
func (db *DB) Collection(ctx context.Context, name string) (*Collection, error) {
	if db.marshaler == nil {
		return nil, constants.ErrNoMarshaler
	}
	if db.unmarshaler == nil {
		return nil, constants.ErrNoUnmarshaler
	}
	if _, err := db.conn.Exec(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (data TEXT)", name)); err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}
	if err := db.conn.Commit(ctx); err != nil {
		return nil, err
	}
	return &Collection{name: name, db: db}, nil
}

// Get is the shorthand lookup accepting either a collection name or a
// record type. A string routes to Collection; a reflect.Type routes to
// the collection named after the type. Anything else is an error.
func (db *DB) Get(ctx context.Context, key any) (*Collection, error) {
	switch k := key.(type) {
	case string:
		return db.Collection(ctx, k)
	case reflect.Type:
		return db.Collection(ctx, k.Name())
	default:
		return nil, fmt.Errorf("%w: got %T", constants.ErrInvalidCollectionKey, key)
	}
}

// Commit flushes pending writes. It is a no-op when auto-commit is
// enabled or no connection is open.
func (db *DB) Commit(ctx context.Context) error {
	return db.conn.Commit(ctx)
}

// Close releases the connection. The handle stays usable; the next
// statement reopens the database.
func (db *DB) Close() error {
	return db.conn.Close()
}

// beforeWrite opens the deferred batching transaction when auto-commit
// is disabled.
func (db *DB) beforeWrite(ctx context.Context) error {
	if db.autoCommit {
		return nil
	}
	return db.conn.Begin(ctx)
}

// maybeCommit applies the auto-commit policy after a mutating
// statement.
func (db *DB) maybeCommit(ctx context.Context) error {
	if !db.autoCommit {
		return nil
	}
	return db.conn.Commit(ctx)
}
