package tasks

import (
	"slices"
	"sync"
	"time"
)

// Coordinator tracks which artists are being checked and which download fingerprints are in flight.
//
// Both sets are process-local and guarded by one mutex. Every acquire is a check-and-insert, so two callers
// can never both succeed for the same key.
type Coordinator struct {
	mu           sync.Mutex
	artists      map[string]time.Time
	fingerprints map[Fingerprint]time.Time
}

// NewCoordinator creates an empty [Coordinator].
func NewCoordinator() *Coordinator {
	return &Coordinator{
		artists:      make(map[string]time.Time),
		fingerprints: make(map[Fingerprint]time.Time),
	}
}

// TryAcquireArtistLock marks artistID as CHECKING. It never blocks and returns false if a pass already holds it.
func (c *Coordinator) TryAcquireArtistLock(artistID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, held := c.artists[artistID]; held {
		return false
	}
	c.artists[artistID] = time.Now()
	return true
}

// ReleaseArtistLock returns artistID to IDLE.
func (c *Coordinator) ReleaseArtistLock(artistID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.artists, artistID)
}

// IsChecking reports whether a pass holds the lock for artistID.
func (c *Coordinator) IsChecking(artistID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, held := c.artists[artistID]
	return held
}

// TryReserveFingerprint records fp as in flight. Returns false if it already was.
func (c *Coordinator) TryReserveFingerprint(fp Fingerprint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, inFlight := c.fingerprints[fp]; inFlight {
		return false
	}
	c.fingerprints[fp] = time.Now()
	return true
}

// ReleaseFingerprint removes fp. Releasing an unknown fingerprint is a no-op.
func (c *Coordinator) ReleaseFingerprint(fp Fingerprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.fingerprints, fp)
}

// CoordinatorSnapshot is a point-in-time view for status reporting.
type CoordinatorSnapshot struct {
	Checking []string `json:"checking"`
	InFlight int      `json:"in_flight"`
}

// Snapshot returns the artists being checked (sorted) and the number of in-flight fingerprints.
func (c *Coordinator) Snapshot() CoordinatorSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	checking := make([]string, 0, len(c.artists))
	for id := range c.artists {
		checking = append(checking, id)
	}
	slices.Sort(checking)

	return CoordinatorSnapshot{Checking: checking, InFlight: len(c.fingerprints)}
}
