package services

import (
	"time"

	"larp-membership-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CharacterLimit returns how many characters a membership level allows.
func CharacterLimit(level string) int {
	switch level {
	case models.MembershipPremium:
		return 50
	case models.MembershipStandard:
		return 25
	case models.MembershipBasic:
		return 10
	default:
		return 1
	}
}

// IsMembershipExpired reports whether a membership no longer grants edit
// rights at the given instant. Level None is always expired; a nil expiry on
// a paid level never expires. Stored expiry values are treated as UTC.
func IsMembershipExpired(level string, expiry *time.Time, now time.Time) bool {
	if level == models.MembershipNone {
		return true
	}
	if expiry == nil {
		return false
	}
	return expiry.UTC().Before(now.UTC())
}

type MembershipService struct {
	DB *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{DB: db}
}

// EditableCharacters returns the characters the user may currently edit:
// none when the membership is None or expired, otherwise the oldest-created
// characters up to the level's limit. Upgrading never reorders the subset;
// downgrading silently locks newer characters without deleting them.
func (s *MembershipService) EditableCharacters(user *models.User) ([]models.Character, error) {
	if IsMembershipExpired(user.MembershipLevel, user.MembershipExpiry, time.Now()) {
		return nil, nil
	}

	var characters []models.Character
	if err := s.DB.Where("user_id = ?", user.ID).
		Order("created_at ASC").
		Limit(CharacterLimit(user.MembershipLevel)).
		Find(&characters).Error; err != nil {
		return nil, err
	}
	return characters, nil
}

// CanEditCharacter checks a single character against EditableCharacters.
func (s *MembershipService) CanEditCharacter(user *models.User, characterID string) (bool, error) {
	editable, err := s.EditableCharacters(user)
	if err != nil {
		return false, err
	}
	for _, ch := range editable {
		if ch.ID == characterID {
			return true, nil
		}
	}
	return false, nil
}

// GetMembership returns the current user's membership standing.
func (s *MembershipService) GetMembership(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	return c.JSON(fiber.Map{
		"membership_level":  user.MembershipLevel,
		"membership_expiry": user.MembershipExpiry,
		"character_limit":   CharacterLimit(user.MembershipLevel),
		"expired":           IsMembershipExpired(user.MembershipLevel, user.MembershipExpiry, time.Now()),
	})
}

// Subscribe starts a paid membership, one year from now.
func (s *MembershipService) Subscribe(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var req struct {
		MembershipLevel string `json:"membership_level"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	switch req.MembershipLevel {
	case models.MembershipBasic, models.MembershipStandard, models.MembershipPremium:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid membership level"})
	}

	expiry := time.Now().UTC().AddDate(1, 0, 0)
	user.MembershipLevel = req.MembershipLevel
	user.MembershipExpiry = &expiry
	if err := s.DB.Save(user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update membership"})
	}

	return c.JSON(fiber.Map{
		"message":           "subscribed to " + req.MembershipLevel + " membership",
		"membership_level":  user.MembershipLevel,
		"membership_expiry": user.MembershipExpiry,
	})
}

// Upgrade moves an active membership to a strictly higher level, keeping the
// existing expiry date.
func (s *MembershipService) Upgrade(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	if user.MembershipLevel == models.MembershipNone {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "an active membership is required to upgrade"})
	}

	var req struct {
		MembershipLevel string `json:"membership_level"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	switch req.MembershipLevel {
	case models.MembershipStandard, models.MembershipPremium:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid membership level"})
	}

	if membershipIndex(req.MembershipLevel) <= membershipIndex(user.MembershipLevel) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "you can only upgrade to a higher membership level"})
	}

	user.MembershipLevel = req.MembershipLevel
	if err := s.DB.Save(user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update membership"})
	}

	return c.JSON(fiber.Map{
		"message":          "upgraded to " + req.MembershipLevel + " membership",
		"membership_level": user.MembershipLevel,
	})
}

// Cancel drops the membership to None. Characters survive but stop being
// editable.
func (s *MembershipService) Cancel(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	if user.MembershipLevel == models.MembershipNone {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no active membership to cancel"})
	}

	user.MembershipLevel = models.MembershipNone
	user.MembershipExpiry = nil
	if err := s.DB.Save(user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to cancel membership"})
	}

	return c.JSON(fiber.Map{"message": "membership cancelled; characters remain viewable but locked for editing"})
}

// AdminSetMembership lets an admin set any user's level and expiry directly.
func (s *MembershipService) AdminSetMembership(c *fiber.Ctx) error {
	actor := c.Locals("current_user").(*models.User)
	if !actor.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin permission required"})
	}

	var target models.User
	if err := s.DB.First(&target, "id = ?", c.Params("user_id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "user not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching user"})
	}

	var req struct {
		MembershipLevel  string `json:"membership_level"`
		MembershipExpiry string `json:"membership_expiry,omitempty"` // YYYY-MM-DD, empty clears
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	if membershipIndex(req.MembershipLevel) < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid membership level"})
	}

	target.MembershipLevel = req.MembershipLevel
	if req.MembershipExpiry != "" {
		expiry, err := time.Parse("2006-01-02", req.MembershipExpiry)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid expiry date format, expected YYYY-MM-DD"})
		}
		target.MembershipExpiry = &expiry
	} else {
		target.MembershipExpiry = nil
	}

	if err := s.DB.Save(&target).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update membership"})
	}

	return c.JSON(fiber.Map{"message": "membership updated for " + target.FullName()})
}

func membershipIndex(level string) int {
	for i, l := range models.MembershipLevels {
		if l == level {
			return i
		}
	}
	return -1
}
