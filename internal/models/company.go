package models

// Company is an external maintenance contractor. Its category set
// constrains which reports its employees may be assigned.
type Company struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"not null;size:150;uniqueIndex" json:"name"`
	Categories []Category `gorm:"many2many:company_categories" json:"categories,omitempty"`
}
