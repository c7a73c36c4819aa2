// Package storage defines the persistence interface and its implementations.
//
// The whole listing collection is persisted as one JSON document under a
// single fixed key. There is no partial update and no versioning: the
// last writer wins at the granularity of the entire collection.
package storage

import (
	"context"

	"renttrack/internal/model"
)

// Gateway is the interface for whole-document persistence.
type Gateway interface {
	// Load returns the stored document. A missing document is not an
	// error: an empty collection with a fresh timestamp is returned.
	Load(ctx context.Context) (*model.Document, error)

	// Save replaces the stored document with the given collection and
	// stamps its lastUpdated time.
	Save(ctx context.Context, properties []model.Property) (*model.Document, error)

	// Clear deletes the stored document.
	Clear(ctx context.Context) error

	Close() error
}
