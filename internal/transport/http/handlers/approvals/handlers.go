package approvalshandler

import (
	"context"
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
	"boutika/internal/domain/customers"
	"boutika/internal/domain/messaging"
	"boutika/internal/domain/sales"
	"boutika/internal/transport/http/api"
	"boutika/internal/transport/http/middleware"
	"boutika/internal/transport/http/shared"
)

type Handler struct {
	Service   *approval.Service
	Catalog   *catalog.Service
	Customers *customers.Service
	Sales     *sales.Service
	Perms     middleware.PermissionStore
	Notify    *messaging.Service
	Audit     *audit.Service
}

func NewHandler(service *approval.Service, cat *catalog.Service, cust *customers.Service, sal *sales.Service, perms middleware.PermissionStore, notify *messaging.Service, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Catalog: cat, Customers: cust, Sales: sal, Perms: perms, Notify: notify, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/approvals", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermApprovalReview, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermApprovalReview, h.Perms)).Get("/{requestID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermApprovalReview, h.Perms)).Post("/{requestID}/approve", h.handleApprove)
		r.With(middleware.RequirePermission(auth.PermApprovalReview, h.Perms)).Post("/{requestID}/reject", h.handleReject)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	p := shared.ParsePagination(r, 50, 200)
	status := r.URL.Query().Get("status")
	if status != "" && status != approval.StatusPending && status != approval.StatusApproved && status != approval.StatusRejected {
		api.Fail(w, http.StatusBadRequest, "invalid_status", "unknown status filter", middleware.GetRequestID(r.Context()))
		return
	}

	requests, total, err := h.Service.List(r.Context(), user.WorkspaceID, status, p.Limit, p.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "approvals_list_failed", "failed to list deletion requests", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{"requests": requests, "total": total}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	request, err := h.Service.Get(r.Context(), user.WorkspaceID, chi.URLParam(r, "requestID"))
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "deletion request not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "approval_get_failed", "failed to load deletion request", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]any{
		"request":     request,
		"reasonsText": approval.TranslateReasons(request.Reasons),
		"typeLabel":   approval.TypeLabel(request.ItemType),
	}, middleware.GetRequestID(r.Context()))
}

// handleApprove flips the request to approved, then deletes the entity
// through the matching domain service. A callback failure leaves the
// request approved but unconfirmed and surfaces as deletion_failed.
func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	request, err := h.Service.Get(r.Context(), user.WorkspaceID, requestID)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "deletion request not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "approval_get_failed", "failed to load deletion request", middleware.GetRequestID(r.Context()))
		return
	}

	deleteFn, err := h.deleteFn(user.WorkspaceID, request)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "unknown_item_type", "no deletion handler for item type", middleware.GetRequestID(r.Context()))
		return
	}

	admin := approval.Actor{UserID: user.UserID, Role: user.Role}
	err = h.Service.Approve(r.Context(), user.WorkspaceID, requestID, admin, deleteFn)
	switch {
	case errors.Is(err, approval.ErrNotPending):
		api.Fail(w, http.StatusConflict, "not_pending", "deletion request is already processed", middleware.GetRequestID(r.Context()))
		return
	case errors.Is(err, approval.ErrDeletionFailed):
		h.record(r, user, "approval.request.approve_failed", requestID, map[string]string{"error": err.Error()})
		h.notifyAdmins(r.Context(), user.WorkspaceID,
			"Suppression approuvée non exécutée",
			"La demande "+requestID+" ("+approval.TypeLabel(request.ItemType)+") a été approuvée mais la suppression de l'élément a échoué. Une vérification manuelle est nécessaire.")
		api.Fail(w, http.StatusInternalServerError, "deletion_failed", "request approved but entity deletion failed", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "approve_failed", "failed to approve deletion request", middleware.GetRequestID(r.Context()))
		return
	}

	h.notifyRequester(r.Context(), user.WorkspaceID, request, messaging.TypeApprovalApproved,
		"Suppression approuvée",
		"Votre demande de suppression ("+approval.TypeLabel(request.ItemType)+") a été approuvée.")
	h.record(r, user, "approval.request.approve", requestID, map[string]any{"itemType": request.ItemType, "itemId": request.ItemID})
	api.Success(w, map[string]any{"id": requestID, "status": approval.StatusApproved}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	requestID := chi.URLParam(r, "requestID")

	var payload struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		// body optional; a missing reason falls back to the default note
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	request, err := h.Service.Get(r.Context(), user.WorkspaceID, requestID)
	if errors.Is(err, pgx.ErrNoRows) {
		api.Fail(w, http.StatusNotFound, "not_found", "deletion request not found", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "approval_get_failed", "failed to load deletion request", middleware.GetRequestID(r.Context()))
		return
	}

	admin := approval.Actor{UserID: user.UserID, Role: user.Role}
	err = h.Service.Reject(r.Context(), user.WorkspaceID, requestID, admin, payload.Reason)
	switch {
	case errors.Is(err, approval.ErrNotPending):
		api.Fail(w, http.StatusConflict, "not_pending", "deletion request is already processed", middleware.GetRequestID(r.Context()))
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "reject_failed", "failed to reject deletion request", middleware.GetRequestID(r.Context()))
		return
	}

	h.notifyRequester(r.Context(), user.WorkspaceID, request, messaging.TypeApprovalRejected,
		"Suppression rejetée",
		"Votre demande de suppression ("+approval.TypeLabel(request.ItemType)+") a été rejetée.")
	h.record(r, user, "approval.request.reject", requestID, map[string]any{"itemType": request.ItemType, "itemId": request.ItemID})
	api.Success(w, map[string]any{"id": requestID, "status": approval.StatusRejected}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) deleteFn(workspaceID string, request approval.DeletionRequest) (func(context.Context) error, error) {
	switch request.ItemType {
	case approval.TypeProduct:
		return func(ctx context.Context) error {
			return h.Catalog.DeleteProduct(ctx, workspaceID, request.ItemID)
		}, nil
	case approval.TypeIngredient:
		return func(ctx context.Context) error {
			return h.Catalog.DeleteIngredient(ctx, workspaceID, request.ItemID)
		}, nil
	case approval.TypeCustomer:
		return func(ctx context.Context) error {
			return h.Customers.Delete(ctx, workspaceID, request.ItemID)
		}, nil
	case approval.TypeSale:
		return func(ctx context.Context) error {
			return h.Sales.Delete(ctx, workspaceID, request.ItemID)
		}, nil
	}
	return nil, errors.New("unknown item type")
}

func (h *Handler) notifyRequester(ctx context.Context, workspaceID string, request approval.DeletionRequest, ntype, title, body string) {
	if h.Notify == nil || request.RequestedBy.UserID == "" {
		return
	}
	if err := h.Notify.Notify(ctx, workspaceID, request.RequestedBy.UserID, ntype, title, body); err != nil {
		slog.Warn("requester notification failed", "err", err)
	}
}

// notifyAdmins raises a reconciliation alert for every admin and owner
// in the workspace. Stale-pending scans never see these requests (they
// are no longer pending), so this alert is the only signal.
func (h *Handler) notifyAdmins(ctx context.Context, workspaceID, title, body string) {
	if h.Notify == nil {
		return
	}
	roles := []string{auth.RoleAdmin, auth.RoleOwner}
	if err := h.Notify.NotifyRoles(ctx, workspaceID, roles, messaging.TypeApprovalUnconfirmed, title, body); err != nil {
		slog.Warn("admin notification failed", "err", err)
	}
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityID string, details any) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Record(r.Context(), user.WorkspaceID, user.UserID, action, "deletion_request", entityID,
		middleware.GetRequestID(r.Context()), middleware.ClientIP(r), details)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
