// Package object defines the contract for storing résumé files.
package object

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a reference points at a missing object.
var ErrNotFound = errors.New("object not found")

// Object identifies a stored file. Ref is what the settings record keeps and
// Fetch accepts; ID is what Delete accepts.
type Object struct {
	Ref string
	ID  string
}

// Store saves, reads and removes binary objects.
type Store interface {
	Put(ctx context.Context, data []byte, folder, contentType string) (Object, error)
	Fetch(ctx context.Context, ref string) ([]byte, error)
	Delete(ctx context.Context, id string) error
}
