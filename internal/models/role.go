package models

type RoleType string

const (
	RoleCitizen            RoleType = "citizen"
	RolePubRelations       RoleType = "pub_relations"
	RoleTechOfficer        RoleType = "tech_officer"
	RoleExternalMaintainer RoleType = "external_maintainer"
	RoleAdmin              RoleType = "admin"
)

// Role is an assignable capability. Tech-officer roles belong to a
// municipal office and carry the category that office handles; assigning
// such a role to a user makes them eligible for reports in that category.
type Role struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Label      string    `gorm:"not null;size:100;uniqueIndex" json:"label"`
	Type       RoleType  `gorm:"not null;size:30;index" json:"type"`
	CategoryID *uint     `gorm:"index" json:"category_id,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
