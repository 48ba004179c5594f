package doclite

import (
	"context"
	"fmt"
	"iter"

	"github.com/doclite/doclite.go/pkg/constants"
)

// Collection is the CRUD surface over one backing table. Documents are
// stored as JSON text in the table's single data column and returned
// as raw Document maps; use Typed for decoding into a record type.
//
// Obtain collections from DB.Collection or DB.Get. The zero value is
// not usable.
type Collection struct {
	name string
	db   *DB
}

// Name returns the collection (and table) name.
func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) String() string {
	return fmt.Sprintf("Collection(%q/%q)", c.db.name, c.name)
}

// DB returns the handle the collection belongs to.
func (c *Collection) DB() *DB {
	return c.db
}

// Insert stores doc as a new row. doc is either a Document or a record
// value; both serialize through the handle's codec.
func (c *Collection) Insert(ctx context.Context, doc any) error {
	data, err := c.db.marshaler.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = c.mutate(ctx, fmt.Sprintf("INSERT INTO %s (data) VALUES (?)", c.name), string(data))
	return err
}

// FindMany returns every document matching f, at most limit of them
// when limit is greater than zero. A nil or empty filter matches the
// whole collection. No match yields an empty slice, not an error.
func (c *Collection) FindMany(ctx context.Context, limit int, f Filter) ([]Document, error) {
	rows, err := c.findRaw(ctx, limit, f)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		var d Document
		if err := c.db.unmarshaler.Unmarshal(row, &d); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// FindOne returns one document matching f, or nil when nothing does.
// When several rows match, which one comes back is up to the engine.
func (c *Collection) FindOne(ctx context.Context, f Filter) (Document, error) {
	docs, err := c.FindMany(ctx, 1, f)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// Update replaces the entire stored document of every row matching f
// with doc and reports how many rows changed. The filter must not be
// empty: replacing every document with one payload is almost always a
// mistake, and Clear plus Insert expresses it when it is not.
func (c *Collection) Update(ctx context.Context, doc any, f Filter) (int64, error) {
	if len(f) == 0 {
		return 0, constants.ErrEmptyFilter
	}
	data, err := c.db.marshaler.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode document: %w", err)
	}
	where, args := buildWhere(0, f)
	return c.mutate(ctx, fmt.Sprintf("UPDATE %s SET data = ?%s", c.name, where),
		append([]any{string(data)}, args...)...)
}

// Set patches only the addressed field paths of every row matching f,
// leaving the rest of each stored document untouched, and reports how
// many rows changed. Both fields and f must be non-empty. Each value
// goes through the handle's codec, so a patched field reads back
// exactly as it would after Insert.
func (c *Collection) Set(ctx context.Context, fields map[string]any, f Filter) (int64, error) {
	if len(fields) == 0 {
		return 0, constants.ErrEmptyFields
	}
	if len(f) == 0 {
		return 0, constants.ErrEmptyFilter
	}
	encoded := make(map[string]any, len(fields))
	for k, v := range fields {
		data, err := c.db.marshaler.Marshal(v)
		if err != nil {
			return 0, fmt.Errorf("encode field %q: %w", k, err)
		}
		encoded[k] = string(data)
	}
	set, setArgs := buildSet(encoded)
	where, whereArgs := buildWhere(0, f)
	return c.mutate(ctx, fmt.Sprintf("UPDATE %s %s%s", c.name, set, where),
		append(setArgs, whereArgs...)...)
}

// Delete removes every row matching f and reports how many went away.
// The filter must not be empty; Clear is the explicit way to drop
// everything.
func (c *Collection) Delete(ctx context.Context, f Filter) (int64, error) {
	if len(f) == 0 {
		return 0, constants.ErrEmptyFilter
	}
	where, args := buildWhere(0, f)
	return c.mutate(ctx, fmt.Sprintf("DELETE FROM %s%s", c.name, where), args...)
}

// Clear removes every row and reports the prior row count.
func (c *Collection) Clear(ctx context.Context) (int64, error) {
	return c.mutate(ctx, fmt.Sprintf("DELETE FROM %s", c.name))
}

// All returns a one-shot forward-only sequence over every document in
// the collection. The query runs when iteration starts; stopping early
// is safe. Decode failures surface as the error of the pair.
func (c *Collection) All(ctx context.Context) iter.Seq2[Document, error] {
	return func(yield func(Document, error) bool) {
		rows, err := c.findRaw(ctx, 0, nil)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, row := range rows {
			var d Document
			if err := c.db.unmarshaler.Unmarshal(row, &d); err != nil {
				yield(nil, fmt.Errorf("decode document: %w", err))
				return
			}
			if !yield(d, nil) {
				return
			}
		}
	}
}

// findRaw returns the undecoded data column of every matching row.
func (c *Collection) findRaw(ctx context.Context, limit int, f Filter) ([][]byte, error) {
	where, args := buildWhere(limit, f)
	return c.db.conn.Query(ctx, fmt.Sprintf("SELECT data FROM %s%s", c.name, where), args...)
}

// mutate runs one mutating statement and applies the handle's
// auto-commit policy after it.
func (c *Collection) mutate(ctx context.Context, query string, args ...any) (int64, error) {
	if err := c.db.beforeWrite(ctx); err != nil {
		return 0, err
	}
	n, err := c.db.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	if err := c.db.maybeCommit(ctx); err != nil {
		return n, err
	}
	return n, nil
}
