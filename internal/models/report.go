package models

import "time"

type ReportStatus string

const (
	StatusPendingApproval ReportStatus = "pending_approval"
	StatusAssigned        ReportStatus = "assigned"
	StatusInProgress      ReportStatus = "in_progress"
	StatusSuspended       ReportStatus = "suspended"
	StatusRejected        ReportStatus = "rejected"
	StatusResolved        ReportStatus = "resolved"
)

// Valid reports whether s is one of the six defined statuses.
func (s ReportStatus) Valid() bool {
	switch s {
	case StatusPendingApproval, StatusAssigned, StatusInProgress,
		StatusSuspended, StatusRejected, StatusResolved:
		return true
	}
	return false
}

// Terminal reports whether no further transitions may leave s.
func (s ReportStatus) Terminal() bool {
	return s == StatusRejected || s == StatusResolved
}

// Report is a citizen-submitted civic issue. The workflow fields
// (status, assigned_to, external_user, reviewed_by, note) are only
// mutated through the guarded transitions in the report service.
type Report struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	Title        string        `gorm:"not null;size:255" json:"title"`
	Description  string        `gorm:"not null;type:text" json:"description"`
	Address      string        `gorm:"size:500" json:"address"`
	Latitude     float64       `gorm:"type:decimal(10,8);not null" json:"latitude"`
	Longitude    float64       `gorm:"type:decimal(11,8);not null" json:"longitude"`
	CategoryID   uint          `gorm:"not null;index" json:"category_id"`
	Category     Category      `gorm:"foreignKey:CategoryID" json:"category"`
	UserID       uint          `gorm:"not null;index" json:"-"`
	User         User          `gorm:"foreignKey:UserID" json:"-"`
	IsAnonymous  bool          `gorm:"not null;default:false" json:"is_anonymous"`
	Status       ReportStatus  `gorm:"not null;size:20;default:'pending_approval';index" json:"status"`
	AssignedTo   *uint         `gorm:"index" json:"assigned_to,omitempty"`
	ExternalUser *uint         `gorm:"index" json:"external_user,omitempty"`
	ReviewedBy   *uint         `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time    `json:"reviewed_at,omitempty"`
	Note         *string       `gorm:"size:1000" json:"note,omitempty"`
	Photos       []ReportPhoto `gorm:"foreignKey:ReportID" json:"photos"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// ReportPhoto is an image stored in the external photo store. PublicID
// is the store's object key, kept so uploads can be destroyed again.
type ReportPhoto struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ReportID uint   `gorm:"not null;index" json:"-"`
	URL      string `gorm:"not null;size:500" json:"url"`
	PublicID string `gorm:"not null;size:255" json:"-"`
}
