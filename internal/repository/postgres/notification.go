package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const notificationColumns = `id, recipient_id, title, body, read, read_at, metadata, created_at`

// NotificationRepository implements repository.NotificationRepository using PostgreSQL.
type NotificationRepository struct {
	pool database.DBTX
}

// NewNotificationRepository creates a new PostgreSQL-backed notification repository.
func NewNotificationRepository(pool database.DBTX) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)

// insertNotifications writes notes through db, usually an open transaction
// owned by the order repository.
func insertNotifications(ctx context.Context, db database.DBTX, notes []domain.Notification) error {
	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for _, n := range notes {
		metaJSON, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("marshal notification metadata: %w", err)
		}
		if _, err := db.Exec(ctx, query,
			n.ID,
			n.RecipientID,
			n.Title,
			n.Body,
			n.Read,
			n.ReadAt,
			metaJSON,
			n.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	return nil
}

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var (
		n        domain.Notification
		metaJSON []byte
	)
	if err := row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.Title,
		&n.Body,
		&n.Read,
		&n.ReadAt,
		&metaJSON,
		&n.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(metaJSON) > 0 && string(metaJSON) != "null" {
		if err := json.Unmarshal(metaJSON, &n.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal notification metadata: %w", err)
		}
	}
	return &n, nil
}

// GetByID retrieves a notification by its ID.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (_ *domain.Notification, err error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetNotification", query)
	defer func() { end(err) }()

	n, err := scanNotification(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("notification", id)
		}
		return nil, database.StoreError(fmt.Errorf("get notification: %w", err))
	}
	return n, nil
}

// ListForRecipient returns a recipient's notifications, newest first.
func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipientID string, unreadOnly bool, limit int) (_ []domain.Notification, err error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1 AND (NOT $2 OR NOT read)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`

	ctx, end := database.TraceQuery(ctx, "ListNotifications", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, recipientID, unreadOnly, limit)
	if err != nil {
		return nil, database.StoreError(fmt.Errorf("list notifications: %w", err))
	}
	defer rows.Close()

	notes := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, database.StoreError(fmt.Errorf("scan notification: %w", err))
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, database.StoreError(fmt.Errorf("iterate notifications: %w", err))
	}
	return notes, nil
}

// MarkRead sets the read flag. A notification that was already read keeps
// its original read_at.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, at time.Time) (_ *domain.Notification, err error) {
	query := `
		UPDATE notifications
		SET read = TRUE, read_at = COALESCE(read_at, $2)
		WHERE id = $1
		RETURNING ` + notificationColumns

	ctx, end := database.TraceQuery(ctx, "MarkNotificationRead", query)
	defer func() { end(err) }()

	n, err := scanNotification(r.pool.QueryRow(ctx, query, id, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("notification", id)
		}
		return nil, database.StoreError(fmt.Errorf("mark notification read: %w", err))
	}
	return n, nil
}
