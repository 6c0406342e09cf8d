package notify

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	KindInfo    = "INFO"
	KindSuccess = "SUCCESS"
	KindWarning = "WARNING"
)

type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Kind      string    `json:"kind"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Push inserts an in-app notification. Callers treat failures as
// log-and-continue; a missed notification never fails the triggering
// operation.
func Push(ctx context.Context, db *pgxpool.Pool, userID int64, title, body, kind string) error {
	if db == nil {
		return nil
	}
	_, err := db.Exec(ctx, `
		INSERT INTO notifications (user_id, title, body, kind)
		VALUES ($1, $2, $3, $4)`, userID, title, body, kind)
	return err
}

// List returns a user's notifications, newest first.
func List(ctx context.Context, db *pgxpool.Pool, userUID string, unreadOnly bool, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.Query(ctx, `
		SELECT n.id, n.title, n.body, n.kind, n.is_read, n.created_at
		FROM notifications n
		JOIN users u ON u.id = n.user_id
		WHERE u.public_id = $1::uuid
		  AND ($2 = FALSE OR n.is_read = FALSE)
		ORDER BY n.created_at DESC
		LIMIT $3`, userUID, unreadOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Kind, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead marks a single notification read for its owner.
func MarkRead(ctx context.Context, db *pgxpool.Pool, userUID string, id int64) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1
		  AND user_id = (SELECT id FROM users WHERE public_id = $2::uuid)`, id, userUID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
