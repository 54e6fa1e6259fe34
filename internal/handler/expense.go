package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/spendlog/spendlog/internal/auth"
	"github.com/spendlog/spendlog/internal/handler/dto"
	"github.com/spendlog/spendlog/internal/service"
)

// ExpenseHandler handles HTTP requests for expense operations.
// Every operation is scoped to the authenticated caller.
type ExpenseHandler struct {
	svc    *service.ExpenseService
	logger *slog.Logger
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(svc *service.ExpenseService, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/expenses.
func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	expense, err := h.svc.Create(r.Context(), userID, service.CreateExpenseInput{
		Title:    req.Title,
		Amount:   req.Amount,
		Category: req.Category,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("expense created",
		"expense_id", expense.ID,
		"user_id", userID,
		"category", expense.Category,
	)

	writeJSON(w, http.StatusCreated, dto.ExpenseEnvelope{
		Message: "Expense added successfully",
		Expense: dto.ToExpenseResponse(expense),
	})
}

// List handles GET /api/expenses. Repeated or comma-separated category
// parameters are accepted.
func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	expenses, err := h.svc.List(r.Context(), userID, r.URL.Query()["category"]...)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToExpenseListResponse("Expenses fetched successfully", expenses))
}

// Summary handles GET /api/expenses/summary.
func (h *ExpenseHandler) Summary(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	loc := time.UTC
	if tz := query.Get("tz"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_TIMEZONE", "Unknown time zone")
			return
		}
		loc = parsed
	}

	userID := auth.UserIDFromContext(r.Context())
	summary, err := h.svc.Summary(r.Context(), userID, query.Get("category"), loc)
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SummaryResponse{
		Message: "Summary fetched successfully",
		Summary: summary,
	})
}

// Update handles PUT /api/expenses/{id}.
func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateExpenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	expense, err := h.svc.Update(r.Context(), userID, id, service.UpdateExpenseInput{
		Title:    req.Title,
		Amount:   req.Amount,
		Category: req.Category,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("expense updated", "expense_id", expense.ID, "user_id", userID)

	writeJSON(w, http.StatusOK, dto.ExpenseEnvelope{
		Message: "Expense updated successfully",
		Expense: dto.ToExpenseResponse(expense),
	})
}

// Delete handles DELETE /api/expenses/{id}.
func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := auth.UserIDFromContext(r.Context())

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("expense deleted", "expense_id", id, "user_id", userID)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Expense deleted successfully"})
}
