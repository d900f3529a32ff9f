package messaging

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

var ErrEmptyBody = errors.New("message body is empty")

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store       StoreAPI
	Mailer      Mailer
	DefaultFrom string
}

func New(store StoreAPI, mailer Mailer) *Service {
	return &Service{store: store, Mailer: mailer, DefaultFrom: "no-reply@boutika.app"}
}

// Notify stores an in-app notification and best-effort emails the user.
// Email failures are logged, never returned; the notification row is
// the source of truth.
func (s *Service) Notify(ctx context.Context, workspaceID, userID, ntype, title, body string) error {
	if err := s.store.CreateNotification(ctx, workspaceID, userID, ntype, title, body); err != nil {
		return err
	}
	if s.Mailer == nil {
		return nil
	}
	email, err := s.store.UserEmail(ctx, workspaceID, userID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.DefaultFrom, email, title, body); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
	return nil
}

// NotifyRoles fans a notification out to every active user holding one
// of the given roles.
func (s *Service) NotifyRoles(ctx context.Context, workspaceID string, roles []string, ntype, title, body string) error {
	userIDs, err := s.store.UserIDsByRoles(ctx, workspaceID, roles)
	if err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := s.Notify(ctx, workspaceID, userID, ntype, title, body); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) ListNotifications(ctx context.Context, workspaceID, userID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, workspaceID, userID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, workspaceID, userID string) (int, error) {
	return s.store.CountUnread(ctx, workspaceID, userID)
}

func (s *Service) MarkNotificationRead(ctx context.Context, workspaceID, userID, notificationID string) error {
	return s.store.MarkNotificationRead(ctx, workspaceID, userID, notificationID)
}

// SendMessage stores a team message and notifies the recipient when it
// is direct rather than broadcast.
func (s *Service) SendMessage(ctx context.Context, workspaceID, senderID, recipientID, body string) (Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, ErrEmptyBody
	}
	msg, err := s.store.CreateMessage(ctx, workspaceID, Message{SenderID: senderID, RecipientID: recipientID, Body: body})
	if err != nil {
		return Message{}, err
	}
	if recipientID != "" {
		preview := body
		if len(preview) > 80 {
			preview = preview[:80]
		}
		if err := s.Notify(ctx, workspaceID, recipientID, TypeMessageReceived, "Nouveau message", preview); err != nil {
			slog.Warn("message notification failed", "err", err)
		}
	}
	return msg, nil
}

func (s *Service) ListMessages(ctx context.Context, workspaceID, userID string, limit, offset int) ([]Message, error) {
	return s.store.ListMessages(ctx, workspaceID, userID, limit, offset)
}

func (s *Service) MarkMessageRead(ctx context.Context, workspaceID, userID, messageID string) error {
	return s.store.MarkMessageRead(ctx, workspaceID, userID, messageID)
}
