// Package netting reduces the raw receipt log into a signed net balance
// between every pair of users.
package netting

import "mealledger/internal/models"

// Matrix is the pairwise debt table for one roster snapshot.
//
// Cells are indexed by roster position, not by raw user id (ids may be
// sparse). For any two positions i and j, At(i, j) == -At(j, i), and the
// diagonal is zero. A positive At(i, j) means the user at position i owes the
// user at position j.
type Matrix struct {
	pos   map[uint]int
	cells [][]int
}

// Compute builds the debt matrix for the given roster from the full receipt
// log. The reduction is commutative and associative, so the result does not
// depend on receipt order.
//
// Receipts whose payer or payee id is absent from the roster are skipped:
// the roster is the authoritative superset at refresh time, and the engine
// has no channel to surface a partial failure without aborting the whole
// refresh.
func Compute(users []models.User, receipts []models.Receipt) Matrix {
	m := Matrix{
		pos:   make(map[uint]int, len(users)),
		cells: make([][]int, len(users)),
	}
	for i, u := range users {
		m.pos[u.ID] = i
		m.cells[i] = make([]int, len(users))
	}

	for _, r := range receipts {
		payer, ok := m.pos[r.Payer]
		if !ok {
			continue
		}
		payee, ok := m.pos[r.Payee]
		if !ok {
			continue
		}
		m.cells[payer][payee] += r.NumMeals
		m.cells[payee][payer] -= r.NumMeals
	}

	return m
}

// Size returns the roster size N of the N×N matrix.
func (m Matrix) Size() int {
	return len(m.cells)
}

// At returns the net balance between the users at roster positions i and j.
func (m Matrix) At(i, j int) int {
	return m.cells[i][j]
}

// Position returns the roster position for a user id.
func (m Matrix) Position(id uint) (int, bool) {
	i, ok := m.pos[id]
	return i, ok
}

// Net returns the net balance between two users by id. Unknown ids net to
// zero, mirroring how unknown ids are skipped during Compute.
func (m Matrix) Net(a, b uint) int {
	i, ok := m.pos[a]
	if !ok {
		return 0
	}
	j, ok := m.pos[b]
	if !ok {
		return 0
	}
	return m.cells[i][j]
}
