package models

// Category classifies reports (road maintenance, public lighting, ...)
// and scopes which officers and companies may handle them.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null;size:100;uniqueIndex" json:"name"`
}
