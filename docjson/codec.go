// Package docjson implements the document codec used for the JSON text
// stored in a collection's data column.
//
// Temporal values follow one canonical rule: a time.Time encodes to an
// RFC 3339 string. Decoding never turns such strings back into
// time.Time on its own; that only happens when the decode target is a
// typed record whose field is declared as time.Time, in which case the
// standard struct unmarshaling performs the coercion.
package docjson

import (
	"bytes"

	"github.com/goccy/go-json"
)

// Codec marshals documents to JSON text and back. The zero value is
// ready to use; Strict makes typed decoding reject fields the target
// record does not declare.
type Codec struct {
	Strict bool
}

// New returns a Codec with lenient decoding.
func New() *Codec {
	return &Codec{}
}

// NewStrict returns a Codec that rejects unknown fields when decoding
// into a typed record.
func NewStrict() *Codec {
	return &Codec{Strict: true}
}

func (c *Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (c *Codec) Unmarshal(data []byte, dst any) error {
	if c.Strict {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(dst)
	}
	return json.Unmarshal(data, dst)
}
