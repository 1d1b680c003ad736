package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-report-card-api/internal/models"
)

// NotificationRepository writes dashboard notifications.
type NotificationRepository struct {
	db    *sqlx.DB
	timer queryTimer
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB, observer QueryObserver) *NotificationRepository {
	return &NotificationRepository{db: db, timer: queryTimer{observer: observer}}
}

// Create inserts a new unread notification.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	defer r.timer.start("notifications.create")()

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, user_id, title, message, type, read, created_at)
        VALUES (:id, :user_id, :title, :message, :type, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}
