// The [doclite] package is a small document store on top of SQLite:
// collections of schemaless JSON documents with a map-shaped CRUD API,
// backed by one table per collection and queried through SQLite's JSON
// operators.
//
// # Databases and collections
//
// [New] builds a handle to a database file, or to a private in-memory
// database when given [Memory]. The handle opens its single connection
// lazily and shares it across every collection; see [DB] for the
// auto-commit policy that decides when writes become durable.
//
// [DB.Collection] returns the raw [Collection] for a name, creating
// the backing table on first use. Documents are plain
// map[string]any values; fields are matched with a [Filter], and
// nested fields are addressed with dotted paths:
//
//	coll.FindOne(ctx, doclite.Filter{"address.city": "Lisbon"})
//
// # Typed records
//
// [CollectionOf] binds a collection to a record type, so reads decode
// into your struct and writes accept it:
//
//	users, err := doclite.CollectionOf[User](ctx, db)
//
// A [Registry] goes one step further and remembers which database each
// record type persists through, giving save/find/delete operations
// keyed by type alone.
//
// # Execution engines
//
// Statements run through a [github.com/doclite/doclite.go/pkg/connection.Connection].
// The default executes on the calling goroutine; pass a
// WorkerConnection via [WithConnection] to funnel statements from many
// goroutines through one worker instead.
//
// # Contrib
//
// The [github.com/doclite/doclite.go/contrib] directory contains
// packages that are useful around the core, such as docdump for
// streaming dump and restore of a database.
package doclite
