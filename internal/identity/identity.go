// Package identity resolves and persists which roster user the session
// treats as "self".
package identity

import (
	"errors"

	"mealledger/internal/models"
)

// Unset is the sentinel returned by Resolve when no identity has been
// persisted yet.
const Unset int64 = -1

// ErrIdentityNotFound is returned when an explicitly chosen user id does not
// exist in the current roster. The prior identity is left unchanged.
var ErrIdentityNotFound = errors.New("identity: chosen user not in roster")

// ErrEmptyRoster is returned when no identity can be resolved because the
// roster has no users at all.
var ErrEmptyRoster = errors.New("identity: empty roster")

// Store is an opaque single-value persistence for the current user id,
// comparable to a cookie: durable per client, not shared across clients.
type Store interface {
	// Resolve returns the persisted user id, or Unset if nothing has been
	// persisted. It must not fail on empty or absent storage.
	Resolve() int64

	// Persist stores the id for future Resolve calls, overwriting any prior
	// value.
	Persist(id int64) error
}

// Resolve applies the identity resolution policy to a freshly fetched roster:
//
//  1. Nothing persisted: the identity defaults to the first roster entry, and
//     that id is re-persisted so subsequent refreshes are stable.
//  2. The persisted id is found in the roster: that user is the identity.
//  3. The persisted id is gone from the roster (the user was removed): fall
//     back to rule 1.
//
// Validation of explicit identity changes is the caller's job; see
// ErrIdentityNotFound.
func Resolve(store Store, roster []models.User) (models.User, error) {
	if len(roster) == 0 {
		return models.User{}, ErrEmptyRoster
	}

	if id := store.Resolve(); id != Unset {
		for _, u := range roster {
			if int64(u.ID) == id {
				return u, nil
			}
		}
	}

	me := roster[0]
	if err := store.Persist(int64(me.ID)); err != nil {
		return models.User{}, err
	}
	return me, nil
}

// MemStore is an in-memory Store for tests and ephemeral sessions.
type MemStore struct {
	id int64
	ok bool
}

func (s *MemStore) Resolve() int64 {
	if !s.ok {
		return Unset
	}
	return s.id
}

func (s *MemStore) Persist(id int64) error {
	s.id = id
	s.ok = true
	return nil
}
