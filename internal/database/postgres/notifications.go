package postgres

import (
	"context"
	"fmt"

	"classservice/internal/database/repo"
	"classservice/internal/errdefs"
)

func (r *PostgresRepository) CreateNotification(ctx context.Context, n repo.Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		n.ID,
		n.UserID,
		n.Type,
		n.Message,
		n.Status,
		n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ListNotifications(ctx context.Context, userID string) ([]repo.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, user_id::text, type, message, status, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []repo.Notification
	for rows.Next() {
		var n repo.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Status, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}

	return notifications, nil
}

func (r *PostgresRepository) MarkSeen(ctx context.Context, id, userID string) error {
	res, err := r.pool.Exec(ctx,
		`UPDATE notifications SET status = 'seen' WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification seen: %w", err)
	}

	if res.RowsAffected() == 0 {
		return errdefs.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) DeleteNotification(ctx context.Context, id, userID string) error {
	res, err := r.pool.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	if res.RowsAffected() == 0 {
		return errdefs.ErrNotFound
	}

	return nil
}
