package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"mealledger/internal/models"
	"mealledger/internal/storage"
)

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, upn string) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO users (upn) VALUES (?)", upn)
	if err != nil {
		// modernc/sqlite reports constraint failures by message, not a typed error.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by their display name.
func (s *SQLiteStore) GetUser(ctx context.Context, upn string) (models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, upn FROM users WHERE upn = ?", upn,
	).Scan(&user.ID, &user.UPN)

	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, storage.ErrNoUser
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx,
		"SELECT id, upn FROM users WHERE id = ?", id,
	).Scan(&user.ID, &user.UPN)

	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, storage.ErrNoUser
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetUsers returns the full roster in id order. The order is what defines
// roster positions for clients, so it must be stable across calls.
func (s *SQLiteStore) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, upn FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.UPN); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// userID resolves a display name to its id within a transaction.
func userID(ctx context.Context, tx *sql.Tx, upn string) (uint, error) {
	var id uint
	err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE upn = ?", upn).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, storage.ErrNoUser
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up user %q: %w", upn, err)
	}
	return id, nil
}
