// Package id generates identifiers: ULIDs for ledger artefacts (transfer ids,
// token jti) and UUIDv4 for user ids.
package id

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy = ulid.Monotonic(rand.Reader, 0)
)

// New returns a ULID string. IDs minted in the same millisecond by this
// process still sort in creation order.
func New() string {
	return NewAt(time.Now())
}

func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// UUID returns a random RFC 4122 version 4 identifier.
func UUID() string {
	return uuid.NewString()
}
