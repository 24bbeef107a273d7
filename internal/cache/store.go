// Package cache stores idempotency records for bill submissions.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
)

// ErrMiss is returned by Get when no live entry exists for the key
var ErrMiss = errors.New("idempotency entry not found")

// Entry is what is remembered about one idempotency key.
type Entry struct {
	Status     string          `json:"status"`
	BodyHash   string          `json:"bodyHash,omitempty"`
	StatusCode int             `json:"statusCode,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type IdempotencyStore interface {
	// Reserve stores a processing entry unless the key already exists.
	// It reports whether this caller now owns the key.
	Reserve(ctx context.Context, key, bodyHash string, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (*Entry, error)
	Complete(ctx context.Context, key string, entry Entry, ttl time.Duration) error
	// Release drops the key so the request can be retried.
	Release(ctx context.Context, key string) error
	Close() error
}
