package messaging

import (
	"context"
	"errors"
	"testing"
)

type fakeStore struct {
	notifications []Notification
	emails        map[string]string
	roleUsers     []string
	messages      []Message
}

func (f *fakeStore) CreateNotification(_ context.Context, _, userID, ntype, title, body string) error {
	f.notifications = append(f.notifications, Notification{ID: userID, Type: ntype, Title: title, Body: body})
	return nil
}

func (f *fakeStore) UserEmail(_ context.Context, _, userID string) (string, error) {
	return f.emails[userID], nil
}

func (f *fakeStore) UserIDsByRoles(_ context.Context, _ string, _ []string) ([]string, error) {
	return f.roleUsers, nil
}

func (f *fakeStore) ListNotifications(_ context.Context, _, _ string, _, _ int) ([]Notification, error) {
	return f.notifications, nil
}

func (f *fakeStore) CountUnread(_ context.Context, _, _ string) (int, error) {
	return len(f.notifications), nil
}

func (f *fakeStore) MarkNotificationRead(_ context.Context, _, _, _ string) error { return nil }

func (f *fakeStore) CreateMessage(_ context.Context, _ string, msg Message) (Message, error) {
	msg.ID = "m1"
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeStore) ListMessages(_ context.Context, _, _ string, _, _ int) ([]Message, error) {
	return f.messages, nil
}

func (f *fakeStore) MarkMessageRead(_ context.Context, _, _, _ string) error { return nil }

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) Send(_ context.Context, _, to, _, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

func TestNotifySendsEmailWhenKnown(t *testing.T) {
	store := &fakeStore{emails: map[string]string{"u1": "u1@example.com"}}
	mailer := &fakeMailer{}
	svc := New(store, mailer)

	if err := svc.Notify(context.Background(), "ws1", "u1", TypeLowStock, "Stock bas", "Riz: 2 restants"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(store.notifications))
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "u1@example.com" {
		t.Fatalf("expected email to u1@example.com, got %v", mailer.sent)
	}
}

func TestNotifySwallowsMailerError(t *testing.T) {
	store := &fakeStore{emails: map[string]string{"u1": "u1@example.com"}}
	mailer := &fakeMailer{err: errors.New("smtp down")}
	svc := New(store, mailer)

	if err := svc.Notify(context.Background(), "ws1", "u1", TypeLowStock, "Stock bas", "Riz"); err != nil {
		t.Fatalf("mailer failure must not surface: %v", err)
	}
	if len(store.notifications) != 1 {
		t.Fatal("notification row must still be written")
	}
}

func TestNotifyRolesFansOut(t *testing.T) {
	store := &fakeStore{roleUsers: []string{"a1", "a2"}, emails: map[string]string{}}
	svc := New(store, nil)

	if err := svc.NotifyRoles(context.Background(), "ws1", []string{"admin"}, TypeApprovalRequested, "Demande", "corps"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(store.notifications))
	}
}

func TestSendMessage(t *testing.T) {
	store := &fakeStore{emails: map[string]string{}}
	svc := New(store, nil)

	if _, err := svc.SendMessage(context.Background(), "ws1", "u1", "u2", "   "); !errors.Is(err, ErrEmptyBody) {
		t.Fatalf("expected ErrEmptyBody, got %v", err)
	}

	msg, err := svc.SendMessage(context.Background(), "ws1", "u1", "u2", "Bonjour")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ID == "" || msg.Body != "Bonjour" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if len(store.notifications) != 1 || store.notifications[0].Type != TypeMessageReceived {
		t.Fatalf("expected recipient notification, got %+v", store.notifications)
	}

	if _, err := svc.SendMessage(context.Background(), "ws1", "u1", "", "Annonce"); err != nil {
		t.Fatalf("broadcast should not error: %v", err)
	}
	if len(store.notifications) != 1 {
		t.Fatal("broadcast must not create a direct notification")
	}
}
