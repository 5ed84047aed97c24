package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationStatusUpdate = "status_update"
	NotificationNewComment   = "new_comment"
	NotificationAssignment   = "assignment"
)

// Notification is the side-record created on every accepted status
// transition and every comment. The row is the source of truth; the
// websocket push is best effort.
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Type      string         `gorm:"not null;size:30;index" json:"type"`
	ReportID  uint           `gorm:"not null;index" json:"report_id"`
	CommentID *uint          `json:"comment_id,omitempty"`
	Title     string         `gorm:"not null;size:255" json:"title"`
	Message   string         `gorm:"not null;size:1000" json:"message"`
	Payload   datatypes.JSON `json:"payload,omitempty"`
	IsRead    bool           `gorm:"not null;default:false;index" json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
}
