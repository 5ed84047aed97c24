package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/participium/participium-backend/internal/dto"
	"github.com/participium/participium-backend/internal/models"
	"gorm.io/gorm"
)

const currentUserKey = "current_user"

// RoleRequired loads the authenticated user and rejects the request
// unless one of its roles matches. The database, not the token, is the
// authority: revoking a role takes effect immediately.
func RoleRequired(db *gorm.DB, types ...models.RoleType) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		var user models.User
		if err := db.Preload("Roles").Preload("Company.Categories").First(&user, userID).Error; err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		for _, t := range types {
			if user.HasRole(t) {
				c.Locals(currentUserKey, &user)
				return c.Next()
			}
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Message: "Insufficient role",
		})
	}
}

// CurrentUser returns the user loaded by RoleRequired, or nil.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(currentUserKey).(*models.User)
	return user
}
