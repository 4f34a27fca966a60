package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"vetclinic-api/internal/domain/notifications"
)

type NotificationsRepo struct {
	db *sql.DB
}

func NewNotificationsRepo(db *sql.DB) *NotificationsRepo {
	return &NotificationsRepo{db: db}
}

func (r *NotificationsRepo) Create(ctx context.Context, n notifications.Notification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, user_id, pet_id, type, message, sent_at, is_read
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		n.ID,
		n.UserID,
		n.PetID,
		n.Type,
		n.Message,
		n.SentAt,
		n.IsRead,
	)
	return err
}

func (r *NotificationsRepo) GetByID(ctx context.Context, id string) (notifications.Notification, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return notifications.Notification{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, pet_id, type, message, sent_at, is_read
		FROM notifications
		WHERE id = $1
	`, id)

	var n notifications.Notification
	if err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.PetID,
		&n.Type,
		&n.Message,
		&n.SentAt,
		&n.IsRead,
	); err != nil {
		if err == sql.ErrNoRows {
			return notifications.Notification{}, ErrNotFound
		}
		return notifications.Notification{}, err
	}
	return n, nil
}

func (r *NotificationsRepo) ListByUser(ctx context.Context, userID string) ([]notifications.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, pet_id, type, message, sent_at, is_read
		FROM notifications
		WHERE user_id = $1
		ORDER BY sent_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]notifications.Notification, 0)
	for rows.Next() {
		var n notifications.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.PetID,
			&n.Type,
			&n.Message,
			&n.SentAt,
			&n.IsRead,
		); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *NotificationsRepo) ExistsRecent(ctx context.Context, userID, petID, notifType string, since time.Time) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND pet_id = $2 AND type = $3 AND sent_at >= $4
		)
	`, userID, petID, notifType, since)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *NotificationsRepo) ExistsExact(ctx context.Context, userID, petID, notifType, message string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND pet_id = $2 AND type = $3 AND message = $4
		)
	`, userID, petID, notifType, message)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *NotificationsRepo) MarkRead(ctx context.Context, id string, read bool) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = $2 WHERE id = $1
	`, id, read)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *NotificationsRepo) MarkAllRead(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read
	`, userID)
	return err
}

func (r *NotificationsRepo) DeleteByPet(ctx context.Context, petID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE pet_id = $1`, petID)
	return err
}
