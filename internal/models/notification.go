package models

import "time"

// NotificationType classifies rows in the notifications table.
type NotificationType string

const (
	NotificationTypeMissingGrades NotificationType = "missing_grades"
)

// Notification is a message surfaced on a user's dashboard.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	Type      NotificationType `db:"type" json:"type"`
	Read      bool             `db:"read" json:"read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}
