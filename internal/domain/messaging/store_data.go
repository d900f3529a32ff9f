package messaging

import "context"

func (s *Store) CreateNotification(ctx context.Context, workspaceID, userID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (workspace_id, user_id, type, title, body)
    VALUES ($1,$2,$3,$4,$5)
  `, workspaceID, userID, ntype, title, body)
	return err
}

func (s *Store) UserEmail(ctx context.Context, workspaceID, userID string) (string, error) {
	var email string
	if err := s.DB.QueryRow(ctx, "SELECT email FROM users WHERE workspace_id = $1 AND id = $2", workspaceID, userID).Scan(&email); err != nil {
		return "", err
	}
	return email, nil
}

func (s *Store) UserIDsByRoles(ctx context.Context, workspaceID string, roles []string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id FROM users
    WHERE workspace_id = $1 AND role = ANY($2) AND status = 'active'
  `, workspaceID, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) ListNotifications(ctx context.Context, workspaceID, userID string, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, title, body, read_at, created_at
    FROM notifications
    WHERE workspace_id = $1 AND user_id = $2
    ORDER BY created_at DESC
    LIMIT $3 OFFSET $4
  `, workspaceID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountUnread(ctx context.Context, workspaceID, userID string) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM notifications
    WHERE workspace_id = $1 AND user_id = $2 AND read_at IS NULL
  `, workspaceID, userID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, workspaceID, userID, notificationID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = now()
    WHERE workspace_id = $1 AND user_id = $2 AND id = $3
  `, workspaceID, userID, notificationID)
	return err
}

func (s *Store) CreateMessage(ctx context.Context, workspaceID string, msg Message) (Message, error) {
	err := s.DB.QueryRow(ctx, `
    INSERT INTO messages (workspace_id, sender_id, recipient_id, body)
    VALUES ($1,$2,NULLIF($3,'')::uuid,$4)
    RETURNING id, created_at
  `, workspaceID, msg.SenderID, msg.RecipientID, msg.Body).Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

func (s *Store) ListMessages(ctx context.Context, workspaceID, userID string, limit, offset int) ([]Message, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT m.id, m.sender_id::text, COALESCE(u.full_name, ''),
           COALESCE(m.recipient_id::text, ''), m.body, m.read_at, m.created_at
    FROM messages m
    LEFT JOIN users u ON u.id = m.sender_id
    WHERE m.workspace_id = $1
      AND (m.recipient_id IS NULL OR m.recipient_id = $2 OR m.sender_id = $2)
    ORDER BY m.created_at DESC
    LIMIT $3 OFFSET $4
  `, workspaceID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.RecipientID, &m.Body, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) MarkMessageRead(ctx context.Context, workspaceID, userID, messageID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE messages SET read_at = now()
    WHERE workspace_id = $1 AND recipient_id = $2 AND id = $3
  `, workspaceID, userID, messageID)
	return err
}
