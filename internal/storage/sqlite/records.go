package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mealledger/internal/models"
	"mealledger/internal/storage"
)

// CreateRecord appends a receipt for payer advancing meals units to payee.
func (s *SQLiteStore) CreateRecord(ctx context.Context, payer, payee string, meals uint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	payerID, err := userID(ctx, tx, payer)
	if errors.Is(err, storage.ErrNoUser) {
		return storage.ErrPayerNotFound
	}
	if err != nil {
		return err
	}

	payeeID, err := userID(ctx, tx, payee)
	if errors.Is(err, storage.ErrNoUser) {
		return storage.ErrPayeeNotFound
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO receipts (payer, payee, num_meals, created_at) VALUES (?, ?, ?, ?)",
		payerID, payeeID, meals, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// queryReceipts runs a receipt query and scans the rows into wire receipts.
func (s *SQLiteStore) queryReceipts(ctx context.Context, query string, args ...any) ([]models.Receipt, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get receipts: %w", err)
	}
	defer rows.Close()

	receipts := make([]models.Receipt, 0)
	for rows.Next() {
		var r models.Receipt
		var createdAt int64
		if err := rows.Scan(&r.Payer, &r.Payee, &r.NumMeals, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		r.DateTime = time.Unix(createdAt, 0).UTC()
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}
	return receipts, nil
}

// GetRecords returns the most recent limit receipts, oldest first.
func (s *SQLiteStore) GetRecords(ctx context.Context, limit uint) ([]models.Receipt, error) {
	return s.queryReceipts(ctx, `
		SELECT payer, payee, num_meals, created_at FROM (
			SELECT id, payer, payee, num_meals, created_at
			FROM receipts ORDER BY id DESC LIMIT ?
		) ORDER BY id`, limit)
}

// Ledger returns the full synchronization payload.
func (s *SQLiteStore) Ledger(ctx context.Context) (*models.Ledger, error) {
	users, err := s.GetUsers(ctx)
	if err != nil {
		return nil, err
	}

	receipts, err := s.queryReceipts(ctx,
		"SELECT payer, payee, num_meals, created_at FROM receipts ORDER BY id")
	if err != nil {
		return nil, err
	}

	return &models.Ledger{Users: users, Receipts: receipts}, nil
}

// Summary aggregates credits owed to and by every user per counterparty.
func (s *SQLiteStore) Summary(ctx context.Context) (map[string]map[string]models.SummaryRecord, error) {
	led, err := s.Ledger(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[uint]string, len(led.Users))
	summary := make(map[string]map[string]models.SummaryRecord, len(led.Users))
	for _, u := range led.Users {
		names[u.ID] = u.UPN
		summary[u.UPN] = make(map[string]models.SummaryRecord)
	}

	// The payer is the debtor: each receipt adds to the payer's outgoing
	// credits and mirrors into the payee's incoming credits, matching the
	// sign convention the renderer uses (positive net = "You owe").
	for _, r := range led.Receipts {
		payer, payee := names[r.Payer], names[r.Payee]
		if payer == "" || payee == "" {
			continue
		}

		fromPayer := summary[payer][payee]
		fromPayer.OutgoingCredits += uint(r.NumMeals)
		summary[payer][payee] = fromPayer

		fromPayee := summary[payee][payer]
		fromPayee.IncomingCredits += uint(r.NumMeals)
		summary[payee][payer] = fromPayee
	}

	return summary, nil
}
