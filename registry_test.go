package doclite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	doclite "github.com/doclite/doclite.go"
	"github.com/doclite/doclite.go/pkg/constants"
)

type person struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func newBoundRegistry(t *testing.T) (*doclite.Registry, *doclite.DB) {
	t.Helper()
	db := doclite.New(doclite.Memory)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})
	reg := doclite.NewRegistry()
	doclite.Bind[person](reg, db)
	return reg, db
}

func TestCollectionForUnboundType(t *testing.T) {
	reg := doclite.NewRegistry()
	_, err := doclite.CollectionFor[person](context.Background(), reg)
	assert.ErrorIs(t, err, constants.ErrNotBound)
}

func TestFirstBindingWins(t *testing.T) {
	ctx := context.Background()
	reg, db := newBoundRegistry(t)

	other := doclite.New(doclite.Memory)
	defer other.Close()
	doclite.Bind[person](reg, other)

	require.NoError(t, doclite.Save(ctx, reg, person{Name: "ana", Age: 30}, nil))

	// The record landed in the first-bound database, not the second.
	coll, err := db.Collection(ctx, "person")
	require.NoError(t, err)
	docs, err := coll.FindMany(ctx, 0, nil)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	otherColl, err := other.Collection(ctx, "person")
	require.NoError(t, err)
	otherDocs, err := otherColl.FindMany(ctx, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, otherDocs)
}

func TestCollectionForIsMemoized(t *testing.T) {
	ctx := context.Background()
	reg, _ := newBoundRegistry(t)

	first, err := doclite.CollectionFor[person](ctx, reg)
	require.NoError(t, err)
	second, err := doclite.CollectionFor[person](ctx, reg)
	require.NoError(t, err)
	assert.Same(t, first.Untyped(), second.Untyped())
}

func TestSaveInsertsThenUpdates(t *testing.T) {
	ctx := context.Background()
	reg, _ := newBoundRegistry(t)

	require.NoError(t, doclite.Save(ctx, reg, person{Name: "ana", Age: 30}, nil))
	require.NoError(t, doclite.Save(ctx, reg, person{Name: "ana", Age: 31}, doclite.Filter{"name": "ana"}))

	got, err := doclite.FindOne[person](ctx, reg, doclite.Filter{"name": "ana"})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 31, got.Age)

	all, err := doclite.FindMany[person](ctx, reg, 0, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteSelfMatchesCurrentState(t *testing.T) {
	ctx := context.Background()
	reg, _ := newBoundRegistry(t)

	p := person{Name: "bo", Age: 44}
	require.NoError(t, doclite.Save(ctx, reg, p, nil))

	n, err := doclite.DeleteSelf(ctx, reg, p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDeleteSelfMissesAfterDrift(t *testing.T) {
	ctx := context.Background()
	reg, _ := newBoundRegistry(t)

	p := person{Name: "bo", Age: 44}
	require.NoError(t, doclite.Save(ctx, reg, p, nil))

	// The value no longer matches what is stored, so nothing is deleted.
	p.Age = 45
	n, err := doclite.DeleteSelf(ctx, reg, p)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	remaining, err := doclite.FindMany[person](ctx, reg, 0, nil)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestDeleteSelfNullFieldMatchesNothing(t *testing.T) {
	type profile struct {
		Name string  `json:"name"`
		Bio  *string `json:"bio"`
	}

	ctx := context.Background()
	db := doclite.New(doclite.Memory)
	defer db.Close()
	reg := doclite.NewRegistry()
	doclite.Bind[profile](reg, db)

	p := profile{Name: "mo"}
	require.NoError(t, doclite.Save(ctx, reg, p, nil))

	// The nil Bio serializes to null and binds SQL NULL, and NULL
	// equality holds for no row, so the stored row survives.
	n, err := doclite.DeleteSelf(ctx, reg, p)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	remaining, err := doclite.FindMany[profile](ctx, reg, 0, nil)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestDeleteManyAndClear(t *testing.T) {
	ctx := context.Background()
	reg, _ := newBoundRegistry(t)

	require.NoError(t, doclite.Save(ctx, reg, person{Name: "a", Age: 1}, nil))
	require.NoError(t, doclite.Save(ctx, reg, person{Name: "b", Age: 2}, nil))
	require.NoError(t, doclite.Save(ctx, reg, person{Name: "c", Age: 2}, nil))

	n, err := doclite.DeleteMany[person](ctx, reg, doclite.Filter{"age": 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = doclite.Clear[person](ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUnbindAllowsRebinding(t *testing.T) {
	ctx := context.Background()
	reg, _ := newBoundRegistry(t)

	other := doclite.New(doclite.Memory)
	defer other.Close()

	doclite.Unbind[person](reg)
	doclite.Bind[person](reg, other)

	require.NoError(t, doclite.Save(ctx, reg, person{Name: "zoe", Age: 9}, nil))

	coll, err := other.Collection(ctx, "person")
	require.NoError(t, err)
	docs, err := coll.FindMany(ctx, 0, nil)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
