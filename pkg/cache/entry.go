package cache

import (
	"time"
)

// Entry represents a cached gateway response.
type Entry struct {
	// Data is the cached response body.
	Data []byte `json:"data"`

	// StoredAt is when the entry was written.
	StoredAt time.Time `json:"stored_at"`

	// TTL is the logical time-to-live. Past it the entry is stale but
	// remains retrievable through GetStale until swept.
	TTL time.Duration `json:"ttl"`
}

// Expired reports whether the entry is past its logical TTL at the given time.
func (e *Entry) Expired(now time.Time) bool {
	return now.Sub(e.StoredAt) >= e.TTL
}

// ExpiresAt returns the logical expiry time.
func (e *Entry) ExpiresAt() time.Time {
	return e.StoredAt.Add(e.TTL)
}
