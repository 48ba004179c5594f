// Package codec defines the serialization boundary between documents
// and the text stored in a collection's data column.
package codec

// Marshaler turns a document, either a raw map or a typed record, into
// its stored representation.
type Marshaler interface {
	Marshal(v any) ([]byte, error)
}

// Unmarshaler parses a stored representation into dst, which is either
// a *map[string]any or a pointer to a typed record.
type Unmarshaler interface {
	Unmarshal(data []byte, dst any) error
}
