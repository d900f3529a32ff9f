package saleshandler

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
	"boutika/internal/domain/catalog"
	"boutika/internal/domain/messaging"
	"boutika/internal/domain/sales"
	"boutika/internal/transport/http/api"
	"boutika/internal/transport/http/middleware"
	"boutika/internal/transport/http/shared"
)

type Handler struct {
	Service    *sales.Service
	Approvals  *approval.Service
	Users      *auth.Store
	Perms      middleware.PermissionStore
	Notify     *messaging.Service
	Audit      *audit.Service
	ShopName   string
	ReceiptDir string
}

func NewHandler(service *sales.Service, approvals *approval.Service, users *auth.Store, perms middleware.PermissionStore, notify *messaging.Service, auditSvc *audit.Service, shopName, receiptDir string) *Handler {
	return &Handler{Service: service, Approvals: approvals, Users: users, Perms: perms, Notify: notify, Audit: auditSvc, ShopName: shopName, ReceiptDir: receiptDir}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sales", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermSalesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermSalesWrite, h.Perms)).Post("/", h.handleCheckout)
		r.With(middleware.RequirePermission(auth.PermSalesRead, h.Perms)).Get("/{saleID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermSalesRead, h.Perms)).Get("/{saleID}/receipt", h.handleReceipt)
		r.With(middleware.RequirePermission(auth.PermSalesWrite, h.Perms)).Delete("/{saleID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	p := shared.ParsePagination(r, 50, 200)
	result, err := h.Service.List(r.Context(), user.WorkspaceID, p.Limit, p.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "sales_list_failed", "failed to list sales", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload sales.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	sale, err := h.Service.Checkout(r.Context(), user.WorkspaceID, user.UserID, payload)
	switch {
	case errors.Is(err, sales.ErrEmptyCart),
		errors.Is(err, sales.ErrInvalidQuantity),
		errors.Is(err, sales.ErrInvalidPayment),
		errors.Is(err, sales.ErrUnknownPaymentMethod),
		errors.Is(err, sales.ErrCreditRequiresCustomer):
		api.Fail(w, http.StatusBadRequest, "invalid_checkout", err.Error(), middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, catalog.ErrInsufficientStock):
		api.Fail(w, http.StatusConflict, "insufficient_stock", err.Error(), middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "checkout_failed", "failed to record sale", middleware.GetRequestID(r.Context()))
		return
	}

	h.record(r, user, "sales.checkout", sale.ID, map[string]any{"total": sale.Total, "paymentMethod": sale.PaymentMethod})
	api.Created(w, sale, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	sale, err := h.Service.Get(r.Context(), user.WorkspaceID, chi.URLParam(r, "saleID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "sale not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "sale_get_failed", "failed to load sale", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, sale, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReceipt(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	sale, err := h.Service.Get(r.Context(), user.WorkspaceID, chi.URLParam(r, "saleID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "sale not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "sale_get_failed", "failed to load sale", middleware.GetRequestID(r.Context()))
		return
	}

	path, err := sales.ReceiptPDF(sale, h.ShopName, h.ReceiptDir)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "receipt_failed", "failed to render receipt", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=\"recu-"+sale.ID+".pdf\"")
	http.ServeFile(w, r, path)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	saleID := chi.URLParam(r, "saleID")

	sale, err := h.Service.Get(r.Context(), user.WorkspaceID, saleID)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "sale not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "sale_get_failed", "failed to load sale", middleware.GetRequestID(r.Context()))
		return
	}

	actor := h.actor(r, user)
	item := approval.Item{
		ID:         sale.ID,
		CreatedBy:  sale.CreatedBy,
		CreatedAt:  sale.CreatedAt,
		Total:      sale.Total,
		AmountPaid: sale.AmountPaid,
	}
	decision := h.Approvals.RequiresApproval(item, actor, approval.TypeSale, approval.Aggregates{})
	if decision.Required {
		requestID, err := h.Approvals.Create(r.Context(), user.WorkspaceID, approval.TypeSale, saleID, sale, actor, decision.Reasons)
		if err != nil {
			api.Fail(w, http.StatusInternalServerError, "approval_queue_failed", "failed to queue deletion request", middleware.GetRequestID(r.Context()))
			return
		}
		title := "Demande de suppression: " + approval.TypeLabel(approval.TypeSale)
		if err := h.Notify.NotifyRoles(r.Context(), user.WorkspaceID, []string{auth.RoleAdmin, auth.RoleOwner}, messaging.TypeApprovalRequested, title, "Demandée par "+actor.Name); err != nil {
			slog.Warn("approval notification failed", "err", err)
		}
		h.record(r, user, "approval.request.create", saleID, map[string]any{"requestId": requestID, "reasons": decision.Reasons})
		api.Accepted(w, map[string]any{
			"approvalRequired": true,
			"requestId":        requestID,
			"reasons":          decision.Reasons,
			"reasonsText":      approval.TranslateReasons(decision.Reasons),
		}, middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Service.Delete(r.Context(), user.WorkspaceID, saleID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "sale_delete_failed", "failed to delete sale", middleware.GetRequestID(r.Context()))
		return
	}
	h.record(r, user, "sales.delete", saleID, nil)
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
	err := h.Audit.Record(r.Context(), user.WorkspaceID, user.UserID, action, "sale", entityID,
		middleware.GetRequestID(r.Context()), middleware.ClientIP(r), details)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
