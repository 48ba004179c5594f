package doclite

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/buger/jsonparser"

	"github.com/doclite/doclite.go/pkg/constants"
)

// Registry associates record types with the database handle and
// collection they persist through, so callers can save and load record
// values without carrying a collection around. It is an explicit
// keyed lifecycle store: type identity maps to exactly one handle and
// one memoized collection, binding is first-wins, and teardown is
// explicit via Unbind. Construct one per process, or one per test for
// isolation.
type Registry struct {
	mu       sync.Mutex
	bindings map[reflect.Type]*binding
}

type binding struct {
	db   *DB
	coll *Collection
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[reflect.Type]*binding)}
}

// Bind associates record type T with db. The first binding wins: a
// second call for the same type is a silent no-op, so the collection
// memoized by CollectionFor is always created against the handle bound
// first.
func Bind[T any](r *Registry, db *DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := reflect.TypeFor[T]()
	if _, ok := r.bindings[t]; ok {
		return
	}
	r.bindings[t] = &binding{db: db}
}

// Unbind releases the binding and memoized collection for T. A later
// Bind may associate the type with a different handle.
func Unbind[T any](r *Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, reflect.TypeFor[T]())
}

// CollectionFor returns the collection bound to T, named after the
// type. The first call creates the backing table and memoizes the
// collection; later calls return the cached instance.
func CollectionFor[T any](ctx context.Context, r *Registry) (*Typed[T], error) {
	t := reflect.TypeFor[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bindings[t]
	if !ok {
		return nil, fmt.Errorf("%w: %s", constants.ErrNotBound, t.Name())
	}
	if b.coll == nil {
		coll, err := b.db.Collection(ctx, t.Name())
		if err != nil {
			return nil, err
		}
		b.coll = coll
	}
	return &Typed[T]{c: b.coll}, nil
}

// Save persists v. With an empty filter it inserts a new row; with a
// filter it replaces the whole stored document of every matching row.
func Save[T any](ctx context.Context, r *Registry, v T, f Filter) error {
	coll, err := CollectionFor[T](ctx, r)
	if err != nil {
		return err
	}
	if len(f) == 0 {
		return coll.Insert(ctx, v)
	}
	_, err = coll.Update(ctx, v, f)
	return err
}

// DeleteSelf removes the rows whose stored fields equal every
// primitive field of v's current serialized state. The filter is the
// value itself: if v has drifted from what is stored, the delete may
// match nothing, or match another row holding the same field values.
// A field serializing to null makes the filter match no row at all,
// since NULL equality never holds. Callers needing precise deletion
// should keep a uniquely-identifying field on the record and use
// Delete with it.
func DeleteSelf[T any](ctx context.Context, r *Registry, v T) (int64, error) {
	coll, err := CollectionFor[T](ctx, r)
	if err != nil {
		return 0, err
	}
	data, err := coll.c.db.marshaler.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("encode record: %w", err)
	}
	f := Filter{}
	if err := flattenObject(data, "", f); err != nil {
		return 0, fmt.Errorf("flatten record: %w", err)
	}
	if len(f) == 0 {
		return 0, constants.ErrEmptyFilter
	}
	return coll.Delete(ctx, f)
}

// DeleteMany removes every row matching f from T's collection.
func DeleteMany[T any](ctx context.Context, r *Registry, f Filter) (int64, error) {
	coll, err := CollectionFor[T](ctx, r)
	if err != nil {
		return 0, err
	}
	return coll.Delete(ctx, f)
}

// FindMany returns every record of T matching f.
func FindMany[T any](ctx context.Context, r *Registry, limit int, f Filter) ([]T, error) {
	coll, err := CollectionFor[T](ctx, r)
	if err != nil {
		return nil, err
	}
	return coll.FindMany(ctx, limit, f)
}

// FindOne returns one record of T matching f, or nil when nothing
// does.
func FindOne[T any](ctx context.Context, r *Registry, f Filter) (*T, error) {
	coll, err := CollectionFor[T](ctx, r)
	if err != nil {
		return nil, err
	}
	return coll.FindOne(ctx, f)
}

// Clear removes every row from T's collection.
func Clear[T any](ctx context.Context, r *Registry) (int64, error) {
	coll, err := CollectionFor[T](ctx, r)
	if err != nil {
		return 0, err
	}
	return coll.Clear(ctx)
}

// flattenObject walks a serialized JSON object and records one
// dotted-path filter entry per primitive leaf. Arrays have no equality
// operator over the data column and are skipped. Null leaves bind SQL
// NULL, and NULL equality matches no row.
func flattenObject(data []byte, prefix string, into Filter) error {
	return jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		path := string(key)
		if prefix != "" {
			path = prefix + "." + path
		}
		switch dt {
		case jsonparser.Object:
			return flattenObject(value, path, into)
		case jsonparser.String:
			s, err := jsonparser.ParseString(value)
			if err != nil {
				return err
			}
			into[path] = s
		case jsonparser.Number:
			n, err := jsonparser.ParseFloat(value)
			if err != nil {
				return err
			}
			into[path] = n
		case jsonparser.Boolean:
			b, err := jsonparser.ParseBoolean(value)
			if err != nil {
				return err
			}
			into[path] = b
		case jsonparser.Null:
			into[path] = nil
		}
		return nil
	})
}
