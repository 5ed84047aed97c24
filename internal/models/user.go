package models

import (
	"time"

	"gorm.io/gorm"
)

// User covers every actor on the platform: citizens, municipal staff and
// external maintainers. What a user may do is derived from its roles.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	FirstName string         `gorm:"size:100" json:"first_name"`
	LastName  string         `gorm:"size:100" json:"last_name"`
	CompanyID *uint          `gorm:"index" json:"company_id,omitempty"`
	Company   *Company       `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Roles     []Role         `gorm:"many2many:user_roles" json:"roles,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasRole reports whether any of the user's roles is of the given type.
func (u *User) HasRole(t RoleType) bool {
	for _, r := range u.Roles {
		if r.Type == t {
			return true
		}
	}
	return false
}

// RoleTypes returns the distinct role types, used for JWT claims.
func (u *User) RoleTypes() []string {
	seen := make(map[RoleType]bool, len(u.Roles))
	types := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		if !seen[r.Type] {
			seen[r.Type] = true
			types = append(types, string(r.Type))
		}
	}
	return types
}

// HandledCategoryIDs returns the category ids this user may work on:
// office categories for tech officers, company categories for external
// maintainers.
func (u *User) HandledCategoryIDs() []uint {
	var ids []uint
	for _, r := range u.Roles {
		if r.Type == RoleTechOfficer && r.CategoryID != nil {
			ids = append(ids, *r.CategoryID)
		}
	}
	if u.Company != nil {
		for _, c := range u.Company.Categories {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// HandlesCategory reports whether categoryID is among the user's handled
// categories.
func (u *User) HandlesCategory(categoryID uint) bool {
	for _, id := range u.HandledCategoryIDs() {
		if id == categoryID {
			return true
		}
	}
	return false
}
