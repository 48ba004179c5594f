// Package contrib provides additional functionality and utilities
// for the doclite document store.
//
// Everything in this package is intended to extend the core library
// with features that are not part of it, such as tooling and
// experimental contributions.
//
// Note that this package is outside of the backward compatibility
// guarantees provided by the core library. Changes to this package may
// introduce breaking changes without following semantic versioning.
//
// The contrib directory currently includes
// [github.com/doclite/doclite.go/contrib/docdump], a streaming backup
// and restore format for whole databases or selected collections.
package contrib
