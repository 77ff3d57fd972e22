// Package props provides the bounded key-value property store the jobs
// persist small durable state in (notification records, upload markers).
// The backing store has a hard slot quota shared by every use; writers must
// be prepared for ErrQuotaExceeded on any insert.
package props

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by Set when inserting a new key would exceed
// the store's slot quota. Overwriting an existing key never fails this way.
var ErrQuotaExceeded = errors.New("props: slot quota exceeded")

// Store is the property-store port. Implementations are not required to be
// safe for concurrent use; the jobs only touch the store from one serialized
// tick at a time.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set upserts key. Inserting a new key when the store is at quota
	// returns ErrQuotaExceeded.
	Set(ctx context.Context, key, value string) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all stored key/value pairs.
	List(ctx context.Context) (map[string]string, error)
	// Count returns the number of occupied slots.
	Count(ctx context.Context) (int, error)
}
