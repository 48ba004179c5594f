package constants

import "errors"

// Errors
var (
	ErrEmptyFilter          = errors.New("filter must not be empty")
	ErrEmptyFields          = errors.New("fields must not be empty")
	ErrInvalidCollectionKey = errors.New("collection key must be a name or a record type")
	ErrNotBound             = errors.New("record type is not bound to a database")
)
var (
	ErrNoMarshaler   = errors.New("marshaler is not set")
	ErrNoUnmarshaler = errors.New("unmarshaler is not set")
	ErrIDInUse       = errors.New("id already in use")
)
