// Package storage provides abstractions for the server-side ledger store.
package storage

import (
	"context"
	"errors"

	"mealledger/internal/models"
)

// ErrNoUser is returned when a referenced user does not exist.
var ErrNoUser = errors.New("no such user")

// ErrUserExists is returned when creating a user whose name is taken.
var ErrUserExists = errors.New("user already exists")

// ErrPayerNotFound and ErrPayeeNotFound narrow ErrNoUser to the offending
// side of a record.
var (
	ErrPayerNotFound = errors.Join(ErrNoUser, errors.New("payer"))
	ErrPayeeNotFound = errors.Join(ErrNoUser, errors.New("payee"))
)

// Store defines the ledger storage operations. The abstraction allows
// swapping backends without touching the HTTP layer.
type Store interface {
	// CreateUser registers a new user by display name.
	// Returns ErrUserExists if the name is taken.
	CreateUser(ctx context.Context, upn string) error

	// GetUser retrieves a user by display name. Returns ErrNoUser if absent.
	GetUser(ctx context.Context, upn string) (models.User, error)

	// GetUserByID retrieves a user by id. Returns ErrNoUser if absent.
	GetUserByID(ctx context.Context, id uint) (models.User, error)

	// GetUsers returns the full roster in stable id order.
	GetUsers(ctx context.Context) ([]models.User, error)

	// CreateRecord appends a receipt: payer advanced meals units to payee.
	// Both names must exist; see ErrPayerNotFound / ErrPayeeNotFound.
	CreateRecord(ctx context.Context, payer, payee string, meals uint) error

	// GetRecords returns the most recent limit receipts in chronological
	// order.
	GetRecords(ctx context.Context, limit uint) ([]models.Receipt, error)

	// Ledger returns the full synchronization payload: roster plus the raw
	// receipt log, in the wire shape clients consume.
	Ledger(ctx context.Context) (*models.Ledger, error)

	// Summary aggregates, for every user, the credits owed to and by each
	// counterparty.
	Summary(ctx context.Context) (map[string]map[string]models.SummaryRecord, error)

	// Close releases any resources held by the store.
	Close() error
}
