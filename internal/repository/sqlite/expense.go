package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/spendlog/spendlog/internal/model"
	"github.com/spendlog/spendlog/internal/repository"
)

const expenseColumns = `id, owner_id, title, amount_cents, category, created_at, updated_at`

// CreateExpense inserts a new expense.
func (s *Store) CreateExpense(ctx context.Context, e *model.Expense) error {
	query := `
		INSERT INTO expenses (id, owner_id, title, amount_cents, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.OwnerID,
		e.Title,
		e.Amount.Cents(),
		string(e.Category),
		toUnix(e.CreatedAt),
		toUnix(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// ListExpenses returns the owner's expenses, newest first.
func (s *Store) ListExpenses(ctx context.Context, ownerID string, filter repository.ExpenseFilter) ([]model.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE owner_id = ?`
	args := []any{ownerID}

	if n := len(filter.Categories); n > 0 {
		query += ` AND category IN (` + strings.TrimSuffix(strings.Repeat("?,", n), ",") + `)`
		for _, c := range filter.Categories {
			args = append(args, c)
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []model.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return expenses, nil
}

// UpdateExpense applies patch in a single statement filtered by id and owner.
func (s *Store) UpdateExpense(ctx context.Context, ownerID, id string, patch repository.ExpensePatch) (*model.Expense, error) {
	query := `
		UPDATE expenses SET
			title = COALESCE(?, title),
			amount_cents = COALESCE(?, amount_cents),
			category = COALESCE(?, category),
			updated_at = ?
		WHERE id = ? AND owner_id = ?
		RETURNING ` + expenseColumns

	var title, category sql.NullString
	var amount sql.NullInt64
	if patch.Title != nil {
		title = sql.NullString{String: *patch.Title, Valid: true}
	}
	if patch.Amount != nil {
		amount = sql.NullInt64{Int64: patch.Amount.Cents(), Valid: true}
	}
	if patch.Category != nil {
		category = sql.NullString{String: string(*patch.Category), Valid: true}
	}

	e, err := scanExpense(s.db.QueryRowContext(ctx, query,
		title,
		amount,
		category,
		toUnix(patch.UpdatedAt),
		id,
		ownerID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}
	return e, nil
}

// DeleteExpense removes the expense only if ownerID owns it.
func (s *Store) DeleteExpense(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n == 0 {
		return repository.ErrExpenseNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*model.Expense, error) {
	var (
		e                model.Expense
		cents            int64
		category         string
		created, updated int64
	)
	err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &cents, &category, &created, &updated)
	if err != nil {
		return nil, err
	}
	e.Amount = model.Amount(cents)
	e.Category = model.Category(category)
	e.CreatedAt = fromUnix(created)
	e.UpdatedAt = fromUnix(updated)
	return &e, nil
}
