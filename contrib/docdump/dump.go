// Package docdump streams the contents of a database to an io.Writer
// and restores it into another handle. The stream is a CBOR sequence:
// a Manifest followed by one Record per document, in collection order.
package docdump

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"

	doclite "github.com/doclite/doclite.go"
)

// Format identifies the dump stream layout.
const Format = "DOCDUMP01"

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	// Nested documents must come back as map[string]any so they can be
	// re-encoded as JSON on insert.
	decMode, err = cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Manifest describes a dump stream. It is the first element of the
// stream and names every collection that follows.
type Manifest struct {
	Format      string    `cbor:"format"`
	Database    string    `cbor:"database"`
	CreatedAt   time.Time `cbor:"created_at"`
	Collections []string  `cbor:"collections"`
}

// Validate checks the manifest for a readable stream.
func (m *Manifest) Validate() error {
	if m.Format != Format {
		return fmt.Errorf("unsupported dump format: %q", m.Format)
	}
	if len(m.Collections) == 0 {
		return errors.New("manifest names no collections")
	}
	return nil
}

// Record carries one document of one collection.
type Record struct {
	Collection string           `cbor:"collection"`
	Data       doclite.Document `cbor:"data"`
}

// Dump writes the named collections of db to w. Collections are read
// through the handle's usual decode path, so a document that fails to
// decode aborts the dump.
func Dump(ctx context.Context, db *doclite.DB, w io.Writer, collections ...string) error {
	if len(collections) == 0 {
		return errors.New("no collections to dump")
	}

	enc := encMode.NewEncoder(w)
	manifest := Manifest{
		Format:      Format,
		Database:    db.Name(),
		CreatedAt:   time.Now().UTC(),
		Collections: collections,
	}
	if err := enc.Encode(&manifest); err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	for _, name := range collections {
		coll, err := db.Collection(ctx, name)
		if err != nil {
			return err
		}
		for doc, err := range coll.All(ctx) {
			if err != nil {
				return fmt.Errorf("dump %s: %w", name, err)
			}
			if err := enc.Encode(&Record{Collection: name, Data: doc}); err != nil {
				return fmt.Errorf("encode record: %w", err)
			}
		}
	}
	return nil
}

// Restore reads a dump stream from r and inserts every record into db,
// creating collections as needed. It returns the number of documents
// restored. Restoring into a non-empty database appends; it does not
// replace existing rows.
func Restore(ctx context.Context, db *doclite.DB, r io.Reader) (int, error) {
	dec := decMode.NewDecoder(r)

	var manifest Manifest
	if err := dec.Decode(&manifest); err != nil {
		return 0, fmt.Errorf("decode manifest: %w", err)
	}
	if err := manifest.Validate(); err != nil {
		return 0, err
	}

	colls := make(map[string]*doclite.Collection, len(manifest.Collections))
	for _, name := range manifest.Collections {
		coll, err := db.Collection(ctx, name)
		if err != nil {
			return 0, err
		}
		colls[name] = coll
	}

	restored := 0
	for {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return restored, fmt.Errorf("decode record: %w", err)
		}
		coll, ok := colls[rec.Collection]
		if !ok {
			return restored, fmt.Errorf("record for collection %q not named in manifest", rec.Collection)
		}
		if err := coll.Insert(ctx, rec.Data); err != nil {
			return restored, err
		}
		restored++
	}
	return restored, nil
}
