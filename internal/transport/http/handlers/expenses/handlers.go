package expenseshandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"boutika/internal/domain/audit"
	"boutika/internal/domain/auth"
	"boutika/internal/domain/expenses"
	"boutika/internal/transport/http/api"
	"boutika/internal/transport/http/middleware"
	"boutika/internal/transport/http/shared"
)

type Handler struct {
	Service *expenses.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *expenses.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/expenses", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermExpensesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermExpensesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermExpensesRead, h.Perms)).Get("/{expenseID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermExpensesWrite, h.Perms)).Put("/{expenseID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermExpensesWrite, h.Perms)).Delete("/{expenseID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	p := shared.ParsePagination(r, 50, 200)
	result, err := h.Service.List(r.Context(), user.WorkspaceID,
		r.URL.Query().Get("from"), r.URL.Query().Get("to"), p.Limit, p.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "expenses_list_failed", "failed to list expenses", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload expenses.ExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	expense, err := h.Service.Create(r.Context(), user.WorkspaceID, user.UserID, payload)
	if isValidationErr(err) {
		api.Fail(w, http.StatusBadRequest, "invalid_expense", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "expense_create_failed", "failed to create expense", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "expenses.create", expense.ID, payload)
	api.Created(w, expense, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	expense, err := h.Service.Get(r.Context(), user.WorkspaceID, chi.URLParam(r, "expenseID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "expense not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "expense_get_failed", "failed to load expense", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, expense, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	expenseID := chi.URLParam(r, "expenseID")

	var payload expenses.ExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	expense, err := h.Service.Update(r.Context(), user.WorkspaceID, expenseID, payload)
	if isValidationErr(err) {
		api.Fail(w, http.StatusBadRequest, "invalid_expense", err.Error(), middleware.GetRequestID(r.Context()))
		return
	}
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "expense not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "expense_update_failed", "failed to update expense", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "expenses.update", expenseID, payload)
	api.Success(w, expense, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	expenseID := chi.URLParam(r, "expenseID")

	if err := h.Service.Delete(r.Context(), user.WorkspaceID, expenseID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "expense_delete_failed", "failed to delete expense", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "expenses.delete", expenseID, nil)
	api.Success(w, map[string]bool{"deleted": true}, middleware.GetRequestID(r.Context()))
}

func isValidationErr(err error) bool {
	return errors.Is(err, expenses.ErrLabelRequired) ||
		errors.Is(err, expenses.ErrInvalidCategory) ||
		errors.Is(err, expenses.ErrInvalidAmount) ||
		errors.Is(err, expenses.ErrInvalidDate)
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityID string, details any) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Record(r.Context(), user.WorkspaceID, user.UserID, action, "expense", entityID,
		middleware.GetRequestID(r.Context()), middleware.ClientIP(r), details)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
