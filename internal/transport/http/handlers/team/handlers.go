package teamhandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"boutika/internal/domain/audit"
	"boutika/internal/domain/auth"
	"boutika/internal/transport/http/api"
	"boutika/internal/transport/http/middleware"
	"boutika/internal/transport/http/shared"
)

type Handler struct {
	Store *auth.Store
	Perms middleware.PermissionStore
	Audit *audit.Service
}

func NewHandler(store *auth.Store, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/team", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTeamManage, h.Perms)).Get("/users", h.handleListUsers)
		r.With(middleware.RequirePermission(auth.PermTeamManage, h.Perms)).Post("/users", h.handleCreateUser)
		r.With(middleware.RequirePermission(auth.PermTeamManage, h.Perms)).Put("/users/{userID}/role", h.handleUpdateRole)
		r.With(middleware.RequirePermission(auth.PermTeamManage, h.Perms)).Put("/users/{userID}/status", h.handleSetStatus)
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	users, err := h.Store.ListUsers(r.Context(), user.WorkspaceID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "team_list_failed", "failed to list users", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, users, middleware.GetRequestID(r.Context()))
}

type createUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("fullName", payload.FullName, "full name is required")
	v.Enum("role", payload.Role, auth.Roles, "unknown role")
	if len(payload.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}

	id, err := h.Store.CreateUser(r.Context(), user.WorkspaceID,
		strings.ToLower(strings.TrimSpace(payload.Email)),
		strings.TrimSpace(payload.FullName),
		payload.Role, hash)
	if err != nil {
		api.Fail(w, http.StatusConflict, "user_create_failed", "failed to create user", middleware.GetRequestID(r.Context()))
		return
	}

	h.record(r, user, "team.user.create", id, map[string]string{"role": payload.Role})
	api.Created(w, map[string]string{"id": id}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	targetID := chi.URLParam(r, "userID")

	var payload struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	v := shared.NewValidator()
	v.Enum("role", payload.Role, auth.Roles, "unknown role")
	v.Required("role", payload.Role, "role is required")
	if v.Reject(w, middleware.GetRequestID(r.Context())) {
		return
	}

	if err := h.Store.UpdateUserRole(r.Context(), user.WorkspaceID, targetID, payload.Role); err != nil {
		api.Fail(w, http.StatusInternalServerError, "role_update_failed", "failed to update role", middleware.GetRequestID(r.Context()))
		return
	}

	h.record(r, user, "team.user.role", targetID, map[string]string{"role": payload.Role})
	api.Success(w, map[string]string{"id": targetID, "role": payload.Role}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	targetID := chi.URLParam(r, "userID")

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}
	if payload.Status != "active" && payload.Status != "disabled" {
		api.Fail(w, http.StatusBadRequest, "invalid_status", "status must be active or disabled", middleware.GetRequestID(r.Context()))
		return
	}
	if targetID == user.UserID && payload.Status == "disabled" {
		api.Fail(w, http.StatusBadRequest, "self_disable", "cannot disable your own account", middleware.GetRequestID(r.Context()))
		return
	}

	if err := h.Store.SetUserStatus(r.Context(), user.WorkspaceID, targetID, payload.Status); err != nil {
		api.Fail(w, http.StatusInternalServerError, "status_update_failed", "failed to update status", middleware.GetRequestID(r.Context()))
		return
	}

	h.record(r, user, "team.user.status", targetID, map[string]string{"status": payload.Status})
	api.Success(w, map[string]string{"id": targetID, "status": payload.Status}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityID string, details any) {
	if h.Audit == nil {
		return
	}
	err := h.Audit.Record(r.Context(), user.WorkspaceID, user.UserID, action, "user", entityID,
		middleware.GetRequestID(r.Context()), middleware.ClientIP(r), details)
	if err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
