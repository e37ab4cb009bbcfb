package services

import (
	"fmt"
	"log"

	"larp-membership-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StatusService owns the append-only status-point ledger. Every mutation
// writes the ledger row and the character's cached balance in one
// transaction so the two can never drift.
type StatusService struct {
	DB *gorm.DB
}

func NewStatusService(db *gorm.DB) *StatusService {
	return &StatusService{DB: db}
}

// applyAdjustment appends one ledger row and moves the character's
// total_status/status_remaining by amount, then re-derives rank. Must run
// inside tx; callers compose several of these into one transaction.
//
// Rank is recomputed from status_spent, which grants do not touch — so a
// grant normally leaves rank unchanged. The recompute still runs so that
// every balance mutator follows the same path.
func applyAdjustment(tx *gorm.DB, character *models.Character, amount int, statusType, notes, actorID string, eventID *string) error {
	adj := models.StatusAdjustment{
		CharacterID: character.ID,
		Amount:      amount,
		StatusType:  statusType,
		Notes:       notes,
		AdjustedBy:  actorID,
		EventID:     eventID,
	}
	if err := tx.Create(&adj).Error; err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	character.TotalStatus += amount
	character.StatusRemaining += amount
	character.Rank = RankForSpent(character.StatusSpent)
	if err := tx.Save(character).Error; err != nil {
		return fmt.Errorf("failed to update character balance: %w", err)
	}
	return nil
}

// Grant appends a positive ledger entry for the character.
func (s *StatusService) Grant(characterID string, amount int, statusType, notes, actorID string, eventID *string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var character models.Character
		if err := tx.First(&character, "id = ?", characterID).Error; err != nil {
			return fmt.Errorf("character not found: %w", err)
		}
		return applyAdjustment(tx, &character, amount, statusType, notes, actorID, eventID)
	})
}

// Deduct appends a negative ledger entry. The amount is bounded only by the
// caller's ceiling, not by the character's balance — total_status may go
// negative, matching the arbitration rules.
func (s *StatusService) Deduct(characterID string, amount int, statusType, notes, actorID string) error {
	if amount < 0 {
		amount = -amount
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var character models.Character
		if err := tx.First(&character, "id = ?", characterID).Error; err != nil {
			return fmt.Errorf("character not found: %w", err)
		}
		return applyAdjustment(tx, &character, -amount, statusType, notes, actorID, nil)
	})
}

// TotalsByType sums ledger entries into the fixed summary keys. Entries with
// other type tags (Penalty, free-form manual labels) are left out.
func (s *StatusService) TotalsByType(characterID string) (map[string]int, error) {
	totals := make(map[string]int, len(models.SummaryStatusTypes))
	for _, t := range models.SummaryStatusTypes {
		totals[t] = 0
	}

	var rows []struct {
		StatusType string
		Total      int
	}
	if err := s.DB.Model(&models.StatusAdjustment{}).
		Select("status_type, COALESCE(SUM(amount), 0) AS total").
		Where("character_id = ?", characterID).
		Group("status_type").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		if _, ok := totals[row.StatusType]; ok {
			totals[row.StatusType] = row.Total
		}
	}
	return totals, nil
}

// History returns the character's full ledger, oldest first. Manual
// adjustments and event-sourced grants look identical once recorded.
func (s *StatusService) History(characterID string) ([]models.StatusAdjustment, error) {
	var adjustments []models.StatusAdjustment
	err := s.DB.Where("character_id = ?", characterID).
		Order("date ASC").
		Find(&adjustments).Error
	return adjustments, err
}

// HasEventGrant reports whether the character already received a ledger
// entry for the event. Used to keep the participation grant idempotent.
func (s *StatusService) HasEventGrant(characterID, eventID string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.StatusAdjustment{}).
		Where("character_id = ? AND event_id = ?", characterID, eventID).
		Count(&count).Error
	return count > 0, err
}

// AdjustCharacterStatus is the manual adjustment surface for staff with the
// can_adjust_character_status capability. Supports a search step (by name
// fragment or exact id) and the apply step.
func (s *StatusService) AdjustCharacterStatus(c *fiber.Ctx) error {
	actor := c.Locals("current_user").(*models.User)
	if !actor.CanAdjustCharacterStatus {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to adjust character status"})
	}

	var req struct {
		Action          string `json:"action"` // "search" or "apply"
		CharacterSearch string `json:"character_search,omitempty"`
		CharacterID     string `json:"character_id,omitempty"`
		StatusAmount    int    `json:"status_amount"`
		StatusType      string `json:"status_type"`
		Notes           string `json:"notes,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	if req.Action == "search" {
		if req.CharacterSearch == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "enter a character name or id to search"})
		}
		var characters []models.Character
		if err := s.DB.Where("id = ?", req.CharacterSearch).Find(&characters).Error; err != nil || len(characters) == 0 {
			if err := s.DB.Where("LOWER(name) LIKE LOWER(?)", "%"+req.CharacterSearch+"%").Find(&characters).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error searching characters"})
			}
		}
		if len(characters) == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no characters found matching your search"})
		}
		return c.JSON(fiber.Map{"results": characters})
	}

	if req.CharacterID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "select a character to adjust status"})
	}

	var character models.Character
	if err := s.DB.First(&character, "id = ?", req.CharacterID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching character"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		return applyAdjustment(tx, &character, req.StatusAmount, req.StatusType, req.Notes, actor.ID, nil)
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to adjust status", "cause": err.Error()})
	}

	log.Printf("✅ Manual adjustment: %+d %s status for %s (by %s)", req.StatusAmount, req.StatusType, character.Name, actor.Email)
	return c.JSON(fiber.Map{
		"message":          fmt.Sprintf("successfully adjusted status for %s", character.Name),
		"total_status":     character.TotalStatus,
		"status_remaining": character.StatusRemaining,
	})
}

// CharacterStatusHistory returns the merged chronological ledger plus the
// fixed-key totals for one of the caller's own characters.
func (s *StatusService) CharacterStatusHistory(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var character models.Character
	if err := s.DB.First(&character, "id = ?", c.Params("character_id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching character"})
	}
	if character.UserID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to view this character's history"})
	}

	history, err := s.History(character.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching history"})
	}
	totals, err := s.TotalsByType(character.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error computing totals"})
	}

	return c.JSON(fiber.Map{
		"character":     character,
		"history":       history,
		"status_totals": totals,
	})
}

// PurchaseStatus records a pending real-money purchase request. Payment
// fulfillment stays manual.
func (s *StatusService) PurchaseStatus(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var req struct {
		CharacterID string `json:"character_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var character models.Character
	if err := s.DB.First(&character, "id = ?", req.CharacterID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
	}
	if character.UserID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid character selection"})
	}

	purchase := models.StatusPurchase{
		CharacterID: character.ID,
		Status:      models.PurchasePending,
	}
	if err := s.DB.Create(&purchase).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record purchase"})
	}

	return c.JSON(fiber.Map{
		"message":  "status purchase request submitted; payment processing is handled manually",
		"purchase": purchase,
	})
}
