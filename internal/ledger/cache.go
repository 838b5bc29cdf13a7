// Package ledger holds the session's current view of the synchronized
// ledger: roster, debt matrix, and resolved identity.
package ledger

import (
	"sync/atomic"

	"mealledger/internal/models"
	"mealledger/internal/netting"
)

// Snapshot is one consistent view of the ledger, rebuilt in full on every
// refresh. Treat it as immutable once published.
type Snapshot struct {
	Roster   []models.User
	Matrix   netting.Matrix
	Identity models.User
}

// Cache publishes snapshots to readers. Replacement is a single pointer swap,
// so a reader either sees the previous snapshot or the new one, never a mix
// of the two.
type Cache struct {
	current atomic.Pointer[Snapshot]
}

// Load returns the last published snapshot, or nil before the first
// successful refresh.
func (c *Cache) Load() *Snapshot {
	return c.current.Load()
}

// Replace publishes a new snapshot.
func (c *Cache) Replace(s *Snapshot) {
	c.current.Store(s)
}
