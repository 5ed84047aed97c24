package services

import (
	"errors"
	"fmt"

	"github.com/participium/participium-backend/internal/dto"
	"github.com/participium/participium-backend/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrOperatorNotFound   = errors.New("operator not found")
	ErrRoleNotFound       = errors.New("one or more roles do not exist")
	ErrNotTechOfficerRole = errors.New("all roles must be of type tech officer")
	ErrOpenReports        = errors.New("cannot remove a role while the operator has open reports in its category")
)

type OperatorService struct {
	db *gorm.DB
}

func NewOperatorService(db *gorm.DB) *OperatorService {
	return &OperatorService{db: db}
}

// ReplaceRoles bulk-replaces an operator's tech-officer role set. Roles
// of other types on the account are untouched. Removal is refused while
// the operator still has open reports in a removed role's category.
func (s *OperatorService) ReplaceRoles(operatorID uint, roleIDs []uint) (*models.User, error) {
	var operator models.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Roles").First(&operator, operatorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOperatorNotFound
			}
			return err
		}

		var newRoles []models.Role
		if err := tx.Find(&newRoles, roleIDs).Error; err != nil {
			return err
		}
		if len(newRoles) != len(roleIDs) {
			return ErrRoleNotFound
		}
		for _, r := range newRoles {
			if r.Type != models.RoleTechOfficer {
				return ErrNotTechOfficerRole
			}
		}

		keep := make(map[uint]bool, len(roleIDs))
		for _, id := range roleIDs {
			keep[id] = true
		}

		// Removing a role must not orphan in-flight work in its category.
		for _, r := range operator.Roles {
			if r.Type != models.RoleTechOfficer || keep[r.ID] || r.CategoryID == nil {
				continue
			}
			var open int64
			err := tx.Model(&models.Report{}).
				Where("assigned_to = ? AND category_id = ? AND status NOT IN ?", operator.ID, *r.CategoryID,
					[]models.ReportStatus{models.StatusResolved, models.StatusRejected}).
				Count(&open).Error
			if err != nil {
				return fmt.Errorf("failed to count open reports: %w", err)
			}
			if open > 0 {
				return fmt.Errorf("%w: %d open reports in category %d", ErrOpenReports, open, *r.CategoryID)
			}
		}

		replacement := make([]models.Role, 0, len(newRoles))
		for _, r := range operator.Roles {
			if r.Type != models.RoleTechOfficer {
				replacement = append(replacement, r)
			}
		}
		replacement = append(replacement, newRoles...)

		if err := tx.Model(&operator).Association("Roles").Replace(replacement); err != nil {
			return fmt.Errorf("failed to replace roles: %w", err)
		}

		operator.Roles = replacement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &operator, nil
}

// CreateOperator provisions a staff or maintainer account with the given
// roles. Admin only.
func (s *OperatorService) CreateOperator(req *dto.CreateOperatorRequest) (*models.User, error) {
	var existing models.User
	if err := s.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	var roles []models.Role
	if len(req.RolesID) > 0 {
		if err := s.db.Find(&roles, req.RolesID).Error; err != nil {
			return nil, err
		}
		if len(roles) != len(req.RolesID) {
			return nil, ErrRoleNotFound
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:     req.Email,
		Password:  string(hash),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		CompanyID: req.CompanyID,
		Roles:     roles,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create operator: %w", err)
	}
	return &user, nil
}

// ListUsers returns every account with roles preloaded. Admin only.
func (s *OperatorService) ListUsers() ([]models.User, error) {
	var users []models.User
	err := s.db.Preload("Roles").Preload("Company").Order("id").Find(&users).Error
	return users, err
}
