package seed

import (
	"log/slog"

	"github.com/participium/participium-backend/internal/config"
	"github.com/participium/participium-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var defaultCategories = []string{
	"Roads and Sidewalks",
	"Public Lighting",
	"Waste Collection",
	"Water Supply and Sewer",
	"Public Parks and Green Areas",
	"Road Signs and Traffic Lights",
	"Architectural Barriers",
	"Other",
}

// Run inserts the baseline data the platform cannot operate without:
// categories, roles (one tech-officer office role per category) and the
// bootstrap admin account. Safe to call on every startup.
func Run(db *gorm.DB, cfg *config.Config) error {
	if err := categories(db); err != nil {
		return err
	}
	if err := roles(db); err != nil {
		return err
	}
	if err := admin(db, cfg); err != nil {
		return err
	}
	if cfg.SeedFixtures {
		if err := fixtures(db); err != nil {
			return err
		}
	}
	return nil
}

func categories(db *gorm.DB) error {
	created := 0
	for _, name := range defaultCategories {
		var existing models.Category
		err := db.Where("name = ?", name).First(&existing).Error
		if err == nil {
			continue
		}
		if err := db.Create(&models.Category{Name: name}).Error; err != nil {
			return err
		}
		created++
	}
	if created > 0 {
		slog.Info("seeded categories", "new", created)
	}
	return nil
}

func roles(db *gorm.DB) error {
	base := []models.Role{
		{Label: "Citizen", Type: models.RoleCitizen},
		{Label: "Public Relations Office", Type: models.RolePubRelations},
		{Label: "External Maintainer", Type: models.RoleExternalMaintainer},
		{Label: "Administrator", Type: models.RoleAdmin},
	}
	for _, r := range base {
		if err := ensureRole(db, r); err != nil {
			return err
		}
	}

	// One municipal office role per category.
	var cats []models.Category
	if err := db.Find(&cats).Error; err != nil {
		return err
	}
	for _, c := range cats {
		id := c.ID
		if err := ensureRole(db, models.Role{
			Label:      c.Name + " Office",
			Type:       models.RoleTechOfficer,
			CategoryID: &id,
		}); err != nil {
			return err
		}
	}
	return nil
}

func ensureRole(db *gorm.DB, role models.Role) error {
	var existing models.Role
	err := db.Where("label = ?", role.Label).First(&existing).Error
	if err == nil {
		return nil
	}
	return db.Create(&role).Error
}

func admin(db *gorm.DB, cfg *config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", cfg.AdminEmail).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var adminRole models.Role
	if err := db.Where("type = ?", models.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	user := models.User{
		Email:     cfg.AdminEmail,
		Password:  string(hash),
		FirstName: "Platform",
		LastName:  "Administrator",
		Roles:     []models.Role{adminRole},
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	slog.Info("seeded admin account", "email", cfg.AdminEmail)
	return nil
}

// fixtures creates a demo staff roster for local development: a
// public-relations clerk, one officer for the roads office and a
// contracted maintenance company with one maintainer.
func fixtures(db *gorm.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	var roadsCat models.Category
	if err := db.Where("name = ?", "Roads and Sidewalks").First(&roadsCat).Error; err != nil {
		return err
	}

	var company models.Company
	err = db.Where("name = ?", "Demo Maintenance S.r.l.").First(&company).Error
	if err != nil {
		company = models.Company{
			Name:       "Demo Maintenance S.r.l.",
			Categories: []models.Category{roadsCat},
		}
		if err := db.Create(&company).Error; err != nil {
			return err
		}
	}

	var prRole, officeRole, maintRole models.Role
	if err := db.Where("type = ?", models.RolePubRelations).First(&prRole).Error; err != nil {
		return err
	}
	if err := db.Where("type = ? AND category_id = ?", models.RoleTechOfficer, roadsCat.ID).First(&officeRole).Error; err != nil {
		return err
	}
	if err := db.Where("type = ?", models.RoleExternalMaintainer).First(&maintRole).Error; err != nil {
		return err
	}

	demo := []models.User{
		{Email: "pr@demo.local", FirstName: "Paola", LastName: "Rossi", Roles: []models.Role{prRole}},
		{Email: "officer@demo.local", FirstName: "Tiziano", LastName: "Ferri", Roles: []models.Role{officeRole}},
		{Email: "maintainer@demo.local", FirstName: "Marco", LastName: "Bianchi", CompanyID: &company.ID, Roles: []models.Role{maintRole}},
	}

	for _, d := range demo {
		var count int64
		if err := db.Model(&models.User{}).Where("email = ?", d.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		d.Password = string(hash)
		if err := db.Create(&d).Error; err != nil {
			return err
		}
		slog.Info("seeded fixture user", "email", d.Email)
	}
	return nil
}
