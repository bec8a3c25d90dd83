// Package rollout implements the gradual percentage-rollout filter
// applied by the manifest composer after find_servable_upload has
// already selected the unique released row. It never changes which
// row is "the" release — it only decides whether this particular
// device falls inside that release's rollout bucket.
package rollout

import (
	"math/rand"
	"sync"
	"time"
)

// Service decides whether a device should receive a release that has
// a rollout percentage below 100.
type Service struct {
	rng *rand.Rand
	mu  sync.Mutex
}

// New creates a rollout Service with a time-seeded RNG.
func New() *Service {
	return &Service{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// ShouldServe reports whether a device should receive an upload with
// the given rollout percentage (0-100). deviceID, when non-empty,
// makes the decision deterministic per device so repeated polls from
// the same device get a stable answer.
func (s *Service) ShouldServe(percentage int, deviceID string) bool {
	if percentage >= 100 {
		return true
	}
	if percentage <= 0 {
		return false
	}
	if deviceID != "" {
		return Bucket(deviceID) < percentage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(100) < percentage
}

// Bucket deterministically maps a device id to a 0-99 rollout
// bucket.
func Bucket(deviceID string) int {
	sum := 0
	for _, c := range deviceID {
		sum += int(c)
	}
	return sum % 100
}
