package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/spendlog/spendlog/internal/aggregate"
	"github.com/spendlog/spendlog/internal/metrics"
	"github.com/spendlog/spendlog/internal/model"
	"github.com/spendlog/spendlog/internal/repository"
)

// ExpenseService enforces ownership on every expense operation.
type ExpenseService struct {
	store   ExpenseStore
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
}

// NewExpenseService creates a new ExpenseService.
func NewExpenseService(store ExpenseStore, recorder metrics.Recorder, logger *slog.Logger) *ExpenseService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpenseService{
		store:   store,
		metrics: recorder,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the time source (tests).
func (s *ExpenseService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateExpenseInput defines input for creating an expense.
// A nil Amount means the field was not supplied.
type CreateExpenseInput struct {
	Title    string
	Amount   *model.Amount
	Category string
}

// Create persists a new expense owned by ownerID.
func (s *ExpenseService) Create(ctx context.Context, ownerID string, input CreateExpenseInput) (*model.Expense, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || input.Amount == nil || strings.TrimSpace(input.Category) == "" {
		return nil, ErrValidation
	}
	if *input.Amount <= 0 {
		return nil, invalid("amount", "amount must be greater than zero")
	}
	category, ok := model.ParseCategory(input.Category)
	if !ok {
		return nil, invalid("category", "unknown category")
	}

	now := s.now().UTC().Truncate(time.Microsecond)
	e := &model.Expense{
		ID:        ulid.Make().String(),
		OwnerID:   ownerID,
		Title:     title,
		Amount:    *input.Amount,
		Category:  category,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	s.metrics.IncExpenseCreated()
	return e, nil
}

// List returns the owner's expenses newest first. Categories, when given,
// are matched case-insensitively; "All" disables filtering.
func (s *ExpenseService) List(ctx context.Context, ownerID string, categories ...string) ([]model.Expense, error) {
	filter, err := buildFilter(categories)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpenses(ctx, ownerID, filter)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpenseInput is a partial update. Nil fields keep their value;
// supplied fields are validated, so an explicit zero amount is rejected
// rather than ignored.
type UpdateExpenseInput struct {
	Title    *string
	Amount   *model.Amount
	Category *string
}

// Update applies input to the expense if ownerID owns it.
func (s *ExpenseService) Update(ctx context.Context, ownerID, id string, input UpdateExpenseInput) (*model.Expense, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	patch := repository.ExpensePatch{
		UpdatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, invalid("title", "title must not be empty")
		}
		patch.Title = &title
	}
	if input.Amount != nil {
		if *input.Amount <= 0 {
			return nil, invalid("amount", "amount must be greater than zero")
		}
		amount := *input.Amount
		patch.Amount = &amount
	}
	if input.Category != nil {
		category, ok := model.ParseCategory(*input.Category)
		if !ok {
			return nil, invalid("category", "unknown category")
		}
		patch.Category = &category
	}

	e, err := s.store.UpdateExpense(ctx, ownerID, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update expense: %w", err)
	}

	s.metrics.IncExpenseUpdated()
	return e, nil
}

// Delete removes the expense if ownerID owns it.
func (s *ExpenseService) Delete(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return ErrNotFound
	}

	if err := s.store.DeleteExpense(ctx, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete expense: %w", err)
	}

	s.metrics.IncExpenseDeleted()
	return nil
}

// Summary lists the owner's expenses, applies the category filter and
// aggregates them with month boundaries evaluated in loc.
func (s *ExpenseService) Summary(ctx context.Context, ownerID, category string, loc *time.Location) (*aggregate.Summary, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveSummaryDuration(time.Since(start))
	}()

	if strings.TrimSpace(category) != "" && !isAll(category) {
		if _, ok := model.ParseCategory(category); !ok {
			return nil, invalid("category", "unknown category")
		}
	}

	expenses, err := s.store.ListExpenses(ctx, ownerID, repository.ExpenseFilter{})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	summary := aggregate.Summarize(aggregate.FilterByCategory(expenses, category), loc)
	return &summary, nil
}

func buildFilter(categories []string) (repository.ExpenseFilter, error) {
	var filter repository.ExpenseFilter
	for _, raw := range categories {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if isAll(part) {
				return repository.ExpenseFilter{}, nil
			}
			c, ok := model.ParseCategory(part)
			if !ok {
				return filter, invalid("category", "unknown category")
			}
			filter.Categories = append(filter.Categories, string(c))
		}
	}
	return filter, nil
}

func isAll(category string) bool {
	return strings.EqualFold(strings.TrimSpace(category), aggregate.AllCategories)
}

// validID reports whether id could name an expense. Anything else cannot
// match a row and is answered as not found without a store round-trip.
func validID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}
