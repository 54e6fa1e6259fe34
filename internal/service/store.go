package service

import (
	"context"

	"github.com/spendlog/spendlog/internal/model"
	"github.com/spendlog/spendlog/internal/repository"
)

// UserStore persists user identities. Both the PostgreSQL repository and
// the SQLite store satisfy it.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// ExpenseStore persists expenses. Update and Delete must filter by id and
// owner in a single statement.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e *model.Expense) error
	ListExpenses(ctx context.Context, ownerID string, filter repository.ExpenseFilter) ([]model.Expense, error)
	UpdateExpense(ctx context.Context, ownerID, id string, patch repository.ExpensePatch) (*model.Expense, error)
	DeleteExpense(ctx context.Context, ownerID, id string) error
}

// ProfileCache is an optional read-through cache for user profiles.
// GetUser returns (nil, nil) on a miss.
type ProfileCache interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	SetUser(ctx context.Context, user *model.User) error
}
