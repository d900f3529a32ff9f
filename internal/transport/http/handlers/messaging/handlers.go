package messaginghandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"boutika/internal/domain/auth"
	"boutika/internal/domain/messaging"
	"boutika/internal/transport/http/api"
	"boutika/internal/transport/http/middleware"
	"boutika/internal/transport/http/shared"
)

type Handler struct {
	Service *messaging.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *messaging.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/messages", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermMessagesRead, h.Perms)).Get("/", h.handleListMessages)
		r.With(middleware.RequirePermission(auth.PermMessagesWrite, h.Perms)).Post("/", h.handleSendMessage)
		r.With(middleware.RequirePermission(auth.PermMessagesWrite, h.Perms)).Post("/{messageID}/read", h.handleMarkMessageRead)
	})
	r.Route("/notifications", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermMessagesRead, h.Perms)).Get("/", h.handleListNotifications)
		r.With(middleware.RequirePermission(auth.PermMessagesRead, h.Perms)).Get("/unread-count", h.handleUnreadCount)
		r.With(middleware.RequirePermission(auth.PermMessagesWrite, h.Perms)).Post("/{notificationID}/read", h.handleMarkNotificationRead)
	})
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	p := shared.ParsePagination(r, 50, 200)
	messages, err := h.Service.ListMessages(r.Context(), user.WorkspaceID, user.UserID, p.Limit, p.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "messages_list_failed", "failed to list messages", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, messages, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())

	var payload struct {
		RecipientID string `json:"recipientId"`
		Body        string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return
	}

	msg, err := h.Service.SendMessage(r.Context(), user.WorkspaceID, user.UserID, payload.RecipientID, payload.Body)
	if errors.Is(err, messaging.ErrEmptyBody) {
		api.Fail(w, http.StatusBadRequest, "empty_body", "message body is required", middleware.GetRequestID(r.Context()))
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "message_send_failed", "failed to send message", middleware.GetRequestID(r.Context()))
		return
	}
	api.Created(w, msg, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkMessageRead(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	messageID := chi.URLParam(r, "messageID")
	if err := h.Service.MarkMessageRead(r.Context(), user.WorkspaceID, user.UserID, messageID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mark_read_failed", "failed to mark message read", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"id": messageID}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	p := shared.ParsePagination(r, 50, 200)
	notifications, err := h.Service.ListNotifications(r.Context(), user.WorkspaceID, user.UserID, p.Limit, p.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "notifications_list_failed", "failed to list notifications", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, notifications, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	count, err := h.Service.CountUnread(r.Context(), user.WorkspaceID, user.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "unread_count_failed", "failed to count notifications", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]int{"unread": count}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	notificationID := chi.URLParam(r, "notificationID")
	if err := h.Service.MarkNotificationRead(r.Context(), user.WorkspaceID, user.UserID, notificationID); err != nil {
		api.Fail(w, http.StatusInternalServerError, "mark_read_failed", "failed to mark notification read", middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, map[string]string{"id": notificationID}, middleware.GetRequestID(r.Context()))
}
