package models

import "time"

// Comment belongs to a report thread. Internal comments are visible to
// the assigned officer and external maintainer only; external comments
// are the citizen-facing thread.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReportID  uint      `gorm:"not null;index" json:"report_id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Text      string    `gorm:"not null;type:text" json:"text"`
	Internal  bool      `gorm:"not null;default:false;index" json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}
