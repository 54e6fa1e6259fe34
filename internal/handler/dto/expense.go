package dto

import (
	"time"

	"github.com/spendlog/spendlog/internal/aggregate"
	"github.com/spendlog/spendlog/internal/model"
)

// CreateExpenseRequest represents the request body for creating an expense.
// Amount accepts a JSON number or a numeric string.
type CreateExpenseRequest struct {
	Title    string        `json:"title"`
	Amount   *model.Amount `json:"amount"`
	Category string        `json:"category"`
}

// UpdateExpenseRequest represents a partial update. Absent fields are nil.
type UpdateExpenseRequest struct {
	Title    *string       `json:"title,omitempty"`
	Amount   *model.Amount `json:"amount,omitempty"`
	Category *string       `json:"category,omitempty"`
}

// ExpenseResponse represents an expense in API responses.
type ExpenseResponse struct {
	ID        string         `json:"_id"`
	User      string         `json:"user"`
	Title     string         `json:"title"`
	Amount    model.Amount   `json:"amount"`
	Category  model.Category `json:"category"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// ExpenseEnvelope wraps a single expense with a message.
type ExpenseEnvelope struct {
	Message string           `json:"message"`
	Expense *ExpenseResponse `json:"expense"`
}

// ExpenseListResponse is the body of GET /api/expenses.
type ExpenseListResponse struct {
	Message  string            `json:"message"`
	Count    int               `json:"count"`
	Expenses []ExpenseResponse `json:"expenses"`
}

// SummaryResponse is the body of GET /api/expenses/summary.
type SummaryResponse struct {
	Message string             `json:"message"`
	Summary *aggregate.Summary `json:"summary"`
}

// ToExpenseResponse converts an Expense model to its wire form.
func ToExpenseResponse(e *model.Expense) *ExpenseResponse {
	return &ExpenseResponse{
		ID:        e.ID,
		User:      e.OwnerID,
		Title:     e.Title,
		Amount:    e.Amount,
		Category:  e.Category,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// ToExpenseListResponse converts expenses to a list body. An empty list
// encodes as [] rather than null.
func ToExpenseListResponse(message string, expenses []model.Expense) *ExpenseListResponse {
	items := make([]ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		items = append(items, *ToExpenseResponse(&expenses[i]))
	}
	return &ExpenseListResponse{
		Message:  message,
		Count:    len(items),
		Expenses: items,
	}
}
