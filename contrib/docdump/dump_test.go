package docdump_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	doclite "github.com/doclite/doclite.go"
	"github.com/doclite/doclite.go/contrib/docdump"
)

func TestDumpAndRestore(t *testing.T) {
	ctx := context.Background()

	src := doclite.New(doclite.Memory)
	defer src.Close()
	people, err := src.Collection(ctx, "people")
	require.NoError(t, err)
	require.NoError(t, people.Insert(ctx, doclite.Document{"name": "ana", "age": 30}))
	require.NoError(t, people.Insert(ctx, doclite.Document{
		"name":    "bo",
		"address": doclite.Document{"city": "Lisbon"},
	}))
	notes, err := src.Collection(ctx, "notes")
	require.NoError(t, err)
	require.NoError(t, notes.Insert(ctx, doclite.Document{"title": "hello"}))

	var buf bytes.Buffer
	require.NoError(t, docdump.Dump(ctx, src, &buf, "people", "notes"))

	dst := doclite.New(doclite.Memory)
	defer dst.Close()
	restored, err := docdump.Restore(ctx, dst, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, restored)

	restoredPeople, err := dst.Collection(ctx, "people")
	require.NoError(t, err)
	doc, err := restoredPeople.FindOne(ctx, doclite.Filter{"address.city": "Lisbon"})
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "bo", doc["name"])

	restoredNotes, err := dst.Collection(ctx, "notes")
	require.NoError(t, err)
	docs, err := restoredNotes.FindMany(ctx, 0, nil)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDumpRequiresCollections(t *testing.T) {
	ctx := context.Background()
	db := doclite.New(doclite.Memory)
	defer db.Close()

	var buf bytes.Buffer
	require.Error(t, docdump.Dump(ctx, db, &buf))
}

func TestRestoreRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	db := doclite.New(doclite.Memory)
	defer db.Close()

	_, err := docdump.Restore(ctx, db, bytes.NewReader([]byte("not a dump")))
	require.Error(t, err)
}

func TestManifestValidate(t *testing.T) {
	m := docdump.Manifest{Format: "bogus", Collections: []string{"a"}}
	require.Error(t, m.Validate())

	m = docdump.Manifest{Format: docdump.Format}
	require.Error(t, m.Validate())

	m = docdump.Manifest{Format: docdump.Format, Collections: []string{"a"}}
	require.NoError(t, m.Validate())
}
