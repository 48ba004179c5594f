package doclite

import (
	"context"
	"fmt"
	"iter"
	"reflect"
)

// Typed is a collection bound to a record type T for its lifetime.
// Every read decodes the stored JSON into T, so decode and validation
// failures of the shape surface to the caller. Writes accept either a
// T value or a raw Document matching the shape.
type Typed[T any] struct {
	c *Collection
}

// CollectionOf returns the collection for record type T, creating the
// backing table if needed. With no explicit name the collection is
// named after the type, so CollectionOf[User](ctx, db) persists to a
// table called User.
func CollectionOf[T any](ctx context.Context, db *DB, name ...string) (*Typed[T], error) {
	n := reflect.TypeFor[T]().Name()
	if len(name) > 0 {
		n = name[0]
	}
	c, err := db.Collection(ctx, n)
	if err != nil {
		return nil, err
	}
	return &Typed[T]{c: c}, nil
}

// Untyped returns the raw Document view of the same collection.
func (t *Typed[T]) Untyped() *Collection {
	return t.c
}

// Name returns the collection (and table) name.
func (t *Typed[T]) Name() string {
	return t.c.name
}

func (t *Typed[T]) String() string {
	return t.c.String()
}

// Insert stores doc, either a T or a matching raw Document, as a new
// row.
func (t *Typed[T]) Insert(ctx context.Context, doc any) error {
	return t.c.Insert(ctx, doc)
}

// FindMany returns every record matching f decoded into T, at most
// limit of them when limit is greater than zero.
func (t *Typed[T]) FindMany(ctx context.Context, limit int, f Filter) ([]T, error) {
	rows, err := t.c.findRaw(ctx, limit, f)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var v T
		if err := t.c.db.unmarshaler.Unmarshal(row, &v); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}

// FindOne returns one record matching f, or nil when nothing does.
func (t *Typed[T]) FindOne(ctx context.Context, f Filter) (*T, error) {
	recs, err := t.FindMany(ctx, 1, f)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// Update replaces the whole stored document of every row matching f
// with doc. See Collection.Update for the non-empty filter rule.
func (t *Typed[T]) Update(ctx context.Context, doc any, f Filter) (int64, error) {
	return t.c.Update(ctx, doc, f)
}

// Set patches only the addressed field paths of every row matching f.
func (t *Typed[T]) Set(ctx context.Context, fields map[string]any, f Filter) (int64, error) {
	return t.c.Set(ctx, fields, f)
}

// Delete removes every row matching f.
func (t *Typed[T]) Delete(ctx context.Context, f Filter) (int64, error) {
	return t.c.Delete(ctx, f)
}

// Clear removes every row.
func (t *Typed[T]) Clear(ctx context.Context) (int64, error) {
	return t.c.Clear(ctx)
}

// All returns a one-shot forward-only sequence over every record.
func (t *Typed[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		rows, err := t.c.findRaw(ctx, 0, nil)
		if err != nil {
			yield(zero, err)
			return
		}
		for _, row := range rows {
			var v T
			if err := t.c.db.unmarshaler.Unmarshal(row, &v); err != nil {
				yield(zero, fmt.Errorf("decode record: %w", err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}
