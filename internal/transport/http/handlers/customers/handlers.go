package customershandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"boutika/internal/domain/approval"
	"boutika/internal/domain/audit"
	"boutika/internal/domain/auth"
	"boutika/internal/domain/customers"
	"boutika/internal/domain/messaging"
	"boutika/internal/transport/http/api"
	"boutika/internal/transport/http/middleware"
	"boutika/internal/transport/http/shared"
)

type Handler struct {
	Service   *customers.Service
	Approvals *approval.Service
	Users     *auth.Store
	Perms     middleware.PermissionStore
	Notify    *messaging.Service
	Audit     *audit.Service
}

func NewHandler(service *customers.Service, approvals *approval.Service, users *auth.Store, perms middleware.PermissionStore, notify *messaging.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Approvals: approvals, Users: users, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/customers", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCustomersRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermCustomersWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermCustomersRead, h.Perms)).Get("/{customerID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermCustomersWrite, h.Perms)).Put("/{customerID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermCustomersWrite, h.Perms)).Post("/{customerID}/payments", h.handleRecordPayment)
		r.With(middleware.RequirePermission(auth.PermCustomersRead, h.Perms)).Get("/{customerID}/payments", h.handleListPayments)
		r.With(middleware.RequirePermission(auth.PermCustomersWrite, h.Perms)).Delete("/{customerID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	p := shared.ParsePagination(r, 50, 200)
	result, err := h.Service.List(r.Context(), user.WorkspaceID, r.URL.Query().Get("search"), p.Limit, p.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "customers_list_failed", "failed to list customers", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload customers.Customer
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	id, err := h.Service.Create(r.Context(), user.WorkspaceID, user.UserID, payload)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "customer_create_failed", "failed to create customer", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "customers.create", id, payload)
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	customer, err := h.Service.Get(r.Context(), user.WorkspaceID, chi.URLParam(r, "customerID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "customer not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "customer_get_failed", "failed to load customer", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, customer, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	customerID := chi.URLParam(r, "customerID")

	var payload customers.Customer
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Required("name", payload.Name, "name is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Service.Update(r.Context(), user.WorkspaceID, customerID, payload); err != nil {
		api.Fail(w, http.StatusInternalServerError, "customer_update_failed", "failed to update customer", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "customers.update", customerID, payload)
	api.Success(w, map[string]string{"id": customerID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRecordPayment(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	customerID := chi.URLParam(r, "customerID")

	var payload struct {
		Amount int64  `json:"amount"`
		Note   string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	payment, err := h.Service.RecordPayment(r.Context(), user.WorkspaceID, customerID, user.UserID, payload.Amount, payload.Note)
	switch {
	case errors.Is(err, customers.ErrInvalidAmount):
		api.Fail(w, http.StatusBadRequest, "invalid_amount", "payment amount must be positive", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, customers.ErrExceedsBalance):
		api.Fail(w, http.StatusConflict, "exceeds_balance", "payment exceeds outstanding debt", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "payment_failed", "failed to record payment", middleware.GetRequestID(r.Context()))
		return
	}

	h.record(r, user, "customers.payment", customerID, payload)
	api.Created(w, payment, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListPayments(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	p := shared.ParsePagination(r, 50, 200)
	payments, err := h.Service.ListPayments(r.Context(), user.WorkspaceID, chi.URLParam(r, "customerID"), p.Limit, p.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payments_list_failed", "failed to list payments", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, payments, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	customerID := chi.URLParam(r, "customerID")

	customer, err := h.Service.Get(r.Context(), user.WorkspaceID, customerID)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "customer not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "customer_get_failed", "failed to load customer", middleware.GetRequestID(r.Context()))
		return
	}

	purchases, err := h.Service.PurchaseCount(r.Context(), user.WorkspaceID, customerID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "customer_get_failed", "failed to load purchase history", middleware.GetRequestID(r.Context()))
		return
	}

	actor := h.actor(r, user)
	item := approval.Item{
		ID:         customer.ID,
		CreatedBy:  customer.CreatedBy,
		CreatedAt:  customer.CreatedAt,
		UpdatedAt:  customer.UpdatedAt,
		Debt:       customer.Debt,
		TotalSpent: customer.TotalSpent,
	}
	decision := h.Approvals.RequiresApproval(item, actor, approval.TypeCustomer, approval.Aggregates{PurchaseCount: purchases})
	if decision.Required {
		requestID, err := h.Approvals.Create(r.Context(), user.WorkspaceID, approval.TypeCustomer, customerID, customer, actor, decision.Reasons)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "approval_queue_failed", "failed to queue deletion request", middleware.GetRequestID(r.Context()))
			return
		}
		title := "Demande de suppression: " + approval.TypeLabel(approval.TypeCustomer)
		if err := h.Notify.NotifyRoles(r.Context(), user.WorkspaceID, []string{auth.RoleAdmin, auth.RoleOwner}, messaging.TypeApprovalRequested, title, "Client: "+customer.Name); err != nil {
			slog.Warn("approval notification failed", "err", err)
		}
		h.record(r, user, "approval.request.create", customerID, map[string]any{"requestId": requestID, "reasons": decision.Reasons})
		api.Accepted(w, map[string]any{
			"approvalRequired": true,
			"requestId":        requestID,
			"reasons":          decision.Reasons,
			"reasonsText":      approval.TranslateReasons(decision.Reasons),
		}, middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.Delete(r.Context(), user.WorkspaceID, customerID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "customer_delete_failed", "failed to delete customer", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "customers.delete", customerID, nil)
	api.Success(w, map[string]bool{"deleted": true}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) actor(r *http.Request, user auth.UserContext) approval.Actor {
	name, err := h.Users.UserName(r.Context(), user.WorkspaceID, user.UserID)
	if err != nil {
		slog.Warn("actor name lookup failed", "err", err)
	}
	return approval.Actor{UserID: user.UserID, Name: name, Role: user.Role}
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityID string, details any) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Record(r.Context(), user.WorkspaceID, user.UserID, action, "customer", entityID,
		middleware.GetRequestID(r.Context()), middleware.ClientIP(r), details)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
