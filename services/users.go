package services

import (
	"log"
	"strings"

	"larp-membership-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

// permissionFlags are the capability names accepted by the permissions
// endpoints. Keep in sync with User.HasPermission.
var permissionFlags = []string{
	"is_admin",
	"is_moderator",
	"can_create_events",
	"can_add_event_status",
	"can_adjust_character_status",
	"can_accept_cast",
	"can_arbitrate",
}

func validPermissionFlag(flag string) bool {
	for _, f := range permissionFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// ListPermissions shows users and their capability flags. Supports an email
// substring search and filtering to holders of one permission.
func (s *UserService) ListPermissions(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	if !user.IsAdmin && !user.IsModerator {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin or moderator access required"})
	}

	query := s.DB.Model(&models.User{}).Order("email ASC")
	if search := c.Query("email"); search != "" {
		query = query.Where("email LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if flag := c.Query("permission"); flag != "" {
		if !validPermissionFlag(flag) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown permission flag"})
		}
		query = query.Where(flag+" = ?", true)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching users"})
	}
	return c.JSON(fiber.Map{"users": users})
}

// UpdateUserPermission sets one capability flag on a user. Only admins may
// grant or revoke is_admin and is_moderator; moderators may manage the rest.
func (s *UserService) UpdateUserPermission(c *fiber.Ctx) error {
	actor := c.Locals("current_user").(*models.User)
	if !actor.IsAdmin && !actor.IsModerator {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin or moderator access required"})
	}

	var req struct {
		Permission string `json:"permission"`
		Value      bool   `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if !validPermissionFlag(req.Permission) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown permission flag"})
	}
	if (req.Permission == "is_admin" || req.Permission == "is_moderator") && !actor.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "only admins can change admin or moderator status"})
	}

	var target models.User
	if err := s.DB.First(&target, "id = ?", c.Params("user_id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching user"})
	}

	target.SetPermission(req.Permission, req.Value)
	if err := s.DB.Save(&target).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update permission"})
	}

	log.Printf("✅ %s set %s=%t for %s", actor.Email, req.Permission, req.Value, target.Email)
	return c.JSON(target)
}

// UserDetails returns one user with their characters, for the admin view.
func (s *UserService) UserDetails(c *fiber.Ctx) error {
	actor := c.Locals("current_user").(*models.User)
	if !actor.IsAdmin && !actor.IsModerator {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin or moderator access required"})
	}

	var target models.User
	err := s.DB.Preload("Characters").First(&target, "id = ?", c.Params("user_id")).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching user"})
	}
	return c.JSON(target)
}

// SetupAdmin promotes the calling user to admin, but only while no admin
// exists. Bootstraps a fresh install.
func (s *UserService) SetupAdmin(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var adminCount int64
	if err := s.DB.Model(&models.User{}).Where("is_admin = ?", true).Count(&adminCount).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if adminCount > 0 {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "an admin already exists"})
	}

	user.IsAdmin = true
	if err := s.DB.Save(user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to promote user"})
	}

	log.Printf("✅ %s promoted to admin via first-run setup", user.Email)
	return c.JSON(fiber.Map{"message": "you are now an admin"})
}

// RecreateDB drops and re-migrates every table. Admin only, and also gated
// behind the setup token middleware. Destroys all data.
func (s *UserService) RecreateDB(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	if !user.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
	}

	tables := []interface{}{
		&models.CastSignup{},
		&models.EventParticipation{},
		&models.StatusPurchase{},
		&models.StatusAdjustment{},
		&models.Complaint{},
		&models.CharacterSkill{},
		&models.Character{},
		&models.Skill{},
		&models.Event{},
		&models.User{},
	}
	if err := s.DB.Migrator().DropTable(tables...); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to drop tables", "cause": err.Error()})
	}
	if err := s.DB.AutoMigrate(tables...); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to migrate tables", "cause": err.Error()})
	}

	log.Printf("🗑 Database recreated by %s", user.Email)
	return c.JSON(fiber.Map{"message": "database recreated"})
}
