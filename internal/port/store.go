package port

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key has never been set or was removed.
var ErrNotFound = errors.New("record not found")

// ErrExpired is returned when a key existed but its lifetime lapsed.
// Callers that surface results outward collapse both into NotFound.
var ErrExpired = errors.New("record expired")

// Store is the tiered expiring key-value store. Every record carries a
// renewable lifetime; a record whose lifetime is never renewed silently
// lapses, which is the system's mechanism for death.
type Store interface {
	// Has reports whether the key holds a live record.
	Has(ctx context.Context, key string) (bool, error)

	// Get returns the record, or ErrNotFound / ErrExpired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes the record, preserving any lifetime already attached.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes the record.
	Remove(ctx context.Context, key string) error

	// RenewLifetime resets the record's remaining lifetime to the given
	// number of ticks. Renewing a missing key is a no-op.
	RenewLifetime(ctx context.Context, key string, ticks uint64) error
}
