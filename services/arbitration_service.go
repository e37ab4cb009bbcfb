package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"larp-membership-system/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"
)

// Offense is one row of the offense→penalty catalog, loaded once at boot
// from the offenses spreadsheet and injected here read-only.
type Offense struct {
	Offense string `json:"offense"`
	Penalty string `json:"penalty"`
}

type ArbitrationService struct {
	DB       *gorm.DB
	Status   *StatusService
	Offenses []Offense
}

func NewArbitrationService(db *gorm.DB, status *StatusService, offenses []Offense) *ArbitrationService {
	return &ArbitrationService{DB: db, Status: status, Offenses: offenses}
}

// ListOffenses exposes the offense catalog for the complaint form.
func (s *ArbitrationService) ListOffenses(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"offenses": s.Offenses})
}

// ListComplaints: admins and moderators see everything; arbitrators see
// unresolved complaints; everyone else sees none.
func (s *ArbitrationService) ListComplaints(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var complaints []models.Complaint
	query := s.DB.Preload("Complainant").Preload("Accused").Order("date_filed DESC")
	switch {
	case user.IsAdmin || user.IsModerator:
		// all complaints
	case user.CanArbitrate:
		query = query.Where("status <> ?", models.ComplaintResolved)
	default:
		return c.JSON(fiber.Map{"complaints": complaints})
	}

	if err := query.Find(&complaints).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching complaints"})
	}
	return c.JSON(fiber.Map{"complaints": complaints})
}

// findUserByFullName matches a free-text "First Last" name against users,
// case-insensitively. Everything after the first space is the last name.
// Input is NFC-normalized so composed and decomposed accents compare equal.
func (s *ArbitrationService) findUserByFullName(name string) (*models.User, error) {
	parts := strings.Fields(norm.NFC.String(strings.TrimSpace(name)))
	if len(parts) < 2 {
		return nil, fmt.Errorf("both first and last name are required")
	}
	first := parts[0]
	last := strings.Join(parts[1:], " ")

	var user models.User
	err := s.DB.Where("LOWER(first_name) = LOWER(?) AND LOWER(last_name) = LOWER(?)", first, last).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateComplaint files a new complaint. The accused is resolved by full
// name; no match rejects the submission. The penalty ceiling is copied from
// the offense catalog at filing time.
func (s *ArbitrationService) CreateComplaint(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var req struct {
		AccusedName       string `json:"accused_name"`
		Offense           string `json:"offense"`
		DateOfOffense     string `json:"date_of_offense"` // YYYY-MM-DD
		Description       string `json:"description"`
		ResolutionAttempt string `json:"resolution_attempt"`
		PeopleInvolved    string `json:"people_involved,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Description == "" || req.ResolutionAttempt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "description and resolution_attempt are required"})
	}

	accused, err := s.findUserByFullName(req.AccusedName)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no user found with that name; check the spelling and try again",
		})
	}

	dateOfOffense, err := time.Parse("2006-01-02", req.DateOfOffense)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid date_of_offense, expected YYYY-MM-DD"})
	}

	penalty := ""
	for _, o := range s.Offenses {
		if o.Offense == req.Offense {
			penalty = o.Penalty
			break
		}
	}

	complaint := models.Complaint{
		ComplainantID:     user.ID,
		AccusedID:         accused.ID,
		Offense:           req.Offense,
		Penalty:           penalty,
		DateOfOffense:     dateOfOffense,
		Description:       req.Description,
		ResolutionAttempt: req.ResolutionAttempt,
		PeopleInvolved:    req.PeopleInvolved,
		Status:            models.ComplaintUnresolved,
	}
	if err := s.DB.Create(&complaint).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to file complaint"})
	}

	log.Printf("⚖️  Complaint filed against %s (offense: %s)", accused.FullName(), complaint.Offense)
	return c.Status(fiber.StatusCreated).JSON(complaint)
}

// GetComplaint returns one complaint with the accused's characters, for the
// resolution form.
func (s *ArbitrationService) GetComplaint(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	if !user.CanArbitrate && !user.IsAdmin && !user.IsModerator {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to view complaints"})
	}

	var complaint models.Complaint
	if err := s.DB.Preload("Complainant").Preload("Accused").
		First(&complaint, "id = ?", c.Params("complaint_id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "complaint not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching complaint"})
	}

	var accusedCharacters []models.Character
	s.DB.Where("user_id = ?", complaint.AccusedID).Find(&accusedCharacters)

	return c.JSON(fiber.Map{"complaint": complaint, "accused_characters": accusedCharacters})
}

// AssignArbitrator claims the complaint for the calling arbitrator. First
// writer wins and assignment is permanent; the check-then-set runs inside a
// transaction, which narrows but does not close the race window.
func (s *ArbitrationService) AssignArbitrator(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	if !user.CanArbitrate && !user.IsAdmin && !user.IsModerator {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to arbitrate"})
	}

	var complaint models.Complaint
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&complaint, "id = ?", c.Params("complaint_id")).Error; err != nil {
			return err
		}
		if complaint.ArbitratorID != nil {
			return nil // already claimed, no replacement
		}
		complaint.ArbitratorID = &user.ID
		return tx.Save(&complaint).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "complaint not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to assign arbitrator"})
	}

	if *complaint.ArbitratorID != user.ID {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "complaint already has an arbitrator"})
	}
	return c.JSON(fiber.Map{"message": "you are now assigned as arbitrator for this complaint"})
}

// ResolveComplaint records the terminal outcome. Only the assigned
// arbitrator may resolve. Acceptance requires a target character and a
// deduction in [1, penalty]; the deduction is capped by the penalty ceiling
// only, never by the character's balance.
func (s *ArbitrationService) ResolveComplaint(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var complaint models.Complaint
	if err := s.DB.First(&complaint, "id = ?", c.Params("complaint_id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "complaint not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching complaint"})
	}

	if complaint.ArbitratorID == nil || *complaint.ArbitratorID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "only the assigned arbitrator can resolve this complaint"})
	}
	if complaint.Status == models.ComplaintResolved {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "complaint is already resolved"})
	}

	var req struct {
		Resolution      string `json:"resolution"` // Accepted or Denied
		Reason          string `json:"reason"`
		CharacterID     string `json:"character_id,omitempty"`
		DeductionAmount int    `json:"deduction_amount,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Reason == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "a resolution reason is required"})
	}
	if req.Resolution != models.ResolutionAccepted && req.Resolution != models.ResolutionDenied {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "resolution must be Accepted or Denied"})
	}

	var character models.Character
	if req.Resolution == models.ResolutionAccepted {
		if req.CharacterID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "select a character to deduct status from"})
		}
		penalty, _ := strconv.Atoi(strings.TrimSpace(complaint.Penalty))
		if req.DeductionAmount < 1 || req.DeductionAmount > penalty {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("deduction amount must be between 1 and %d", penalty),
			})
		}

		if err := s.DB.First(&character, "id = ?", req.CharacterID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
		}
		if character.UserID != complaint.AccusedID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "character does not belong to the accused"})
		}
	}

	// deduction and resolution commit or roll back together; a retry after a
	// failure never finds a half-resolved complaint
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if req.Resolution == models.ResolutionAccepted {
			note := fmt.Sprintf("Arbitration Complaint #%s: %s", complaint.ID, complaint.Offense)
			if err := applyAdjustment(tx, &character, -req.DeductionAmount, models.StatusPenalty, note, user.ID, nil); err != nil {
				return err
			}
		}

		complaint.Resolution = req.Resolution
		complaint.ResolutionReason = req.Reason
		complaint.Status = models.ComplaintResolved
		return tx.Save(&complaint).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to resolve complaint", "cause": err.Error()})
	}

	log.Printf("⚖️  Complaint %s resolved: %s (by %s)", complaint.ID, req.Resolution, user.Email)
	return c.JSON(fiber.Map{"message": "complaint resolved", "complaint": complaint})
}
