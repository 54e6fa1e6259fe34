package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/spendlog/spendlog/internal/model"
)

// ErrExpenseNotFound is returned when no expense matches both id and owner.
var ErrExpenseNotFound = errors.New("expense not found")

const expenseColumns = `id, owner_id, title, amount_cents, category, created_at, updated_at`

// CreateExpense inserts a new expense.
func (r *Repository) CreateExpense(ctx context.Context, e *model.Expense) error {
	query := `
		INSERT INTO expenses (id, owner_id, title, amount_cents, category, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		e.ID,
		e.OwnerID,
		e.Title,
		e.Amount.Cents(),
		string(e.Category),
		e.CreatedAt,
		e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	return nil
}

// ListExpenses returns the owner's expenses, newest first.
func (r *Repository) ListExpenses(ctx context.Context, ownerID string, filter ExpenseFilter) ([]model.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE owner_id = $1`
	args := []any{ownerID}

	if len(filter.Categories) > 0 {
		query += ` AND category = ANY($2::text[])`
		args = append(args, pq.Array(filter.Categories))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
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

// UpdateExpense applies patch to the expense only if ownerID owns it.
// Lookup and mutation are one statement, so no other owner's row can be hit.
func (r *Repository) UpdateExpense(ctx context.Context, ownerID, id string, patch ExpensePatch) (*model.Expense, error) {
	query := `
		UPDATE expenses SET
			title = COALESCE($3, title),
			amount_cents = COALESCE($4, amount_cents),
			category = COALESCE($5, category),
			updated_at = $6
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + expenseColumns

	e, err := scanExpense(r.pool.QueryRow(ctx, query,
		id,
		ownerID,
		patch.Title,
		nullableCents(patch.Amount),
		nullableCategory(patch.Category),
		patch.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to update expense: %w", err)
	}

	return e, nil
}

// DeleteExpense removes the expense only if ownerID owns it.
func (r *Repository) DeleteExpense(ctx context.Context, ownerID, id string) error {
	query := `DELETE FROM expenses WHERE id = $1 AND owner_id = $2`

	result, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

func scanExpense(row pgx.Row) (*model.Expense, error) {
	var (
		e        model.Expense
		cents    int64
		category string
	)
	err := row.Scan(
		&e.ID,
		&e.OwnerID,
		&e.Title,
		&cents,
		&category,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Amount = model.Amount(cents)
	e.Category = model.Category(category)
	return &e, nil
}
