package messaging

import "context"

type StoreAPI interface {
	CreateNotification(ctx context.Context, workspaceID, userID, ntype, title, body string) error
	UserEmail(ctx context.Context, workspaceID, userID string) (string, error)
	UserIDsByRoles(ctx context.Context, workspaceID string, roles []string) ([]string, error)
	ListNotifications(ctx context.Context, workspaceID, userID string, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, workspaceID, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, workspaceID, userID, notificationID string) error

	CreateMessage(ctx context.Context, workspaceID string, msg Message) (Message, error)
	ListMessages(ctx context.Context, workspaceID, userID string, limit, offset int) ([]Message, error)
	MarkMessageRead(ctx context.Context, workspaceID, userID, messageID string) error
}
