package services

import (
	"errors"
	"fmt"
	"log"

	"larp-membership-system/models"
	"larp-membership-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ErrOverBudget rejects a build whose recomputed cost exceeds the
// character's lifetime status. The transaction rolls back, so the previous
// skill set and attributes stand untouched.
var ErrOverBudget = errors.New("total status spent exceeds available status points")

type CharacterService struct {
	DB         *gorm.DB
	Membership *MembershipService
}

func NewCharacterService(db *gorm.DB, membership *MembershipService) *CharacterService {
	return &CharacterService{DB: db, Membership: membership}
}

// MyCharacters lists the caller's characters with their editability under
// the current membership.
func (s *CharacterService) MyCharacters(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var characters []models.Character
	if err := s.DB.Where("user_id = ?", user.ID).Order("created_at ASC").Find(&characters).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching characters"})
	}

	editable, err := s.Membership.EditableCharacters(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error checking membership"})
	}
	editableIDs := make(map[string]bool, len(editable))
	for _, ch := range editable {
		editableIDs[ch.ID] = true
	}

	type characterView struct {
		models.Character
		Editable bool `json:"editable"`
	}
	views := make([]characterView, 0, len(characters))
	for _, ch := range characters {
		views = append(views, characterView{Character: ch, Editable: editableIDs[ch.ID]})
	}
	return c.JSON(fiber.Map{"characters": views})
}

// CreateCharacter makes a fresh character at the starting status grant.
// Rejected once the user's character count reaches the membership limit.
func (s *CharacterService) CreateCharacter(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var count int64
	if err := s.DB.Model(&models.Character{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error counting characters"})
	}
	limit := CharacterLimit(user.MembershipLevel)
	if int(count) >= limit {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": fmt.Sprintf("you have reached your character limit of %d for your %s membership level", limit, user.MembershipLevel),
		})
	}

	var req struct {
		Name    string `json:"name"`
		Realm   string `json:"realm"`
		Species string `json:"species"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Name == "" || req.Realm == "" || req.Species == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name, realm and species are required"})
	}
	if !validSpecies(req.Realm, req.Species) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "species not available in that realm"})
	}

	character := models.Character{
		UserID:          user.ID,
		Name:            req.Name,
		Realm:           req.Realm,
		Species:         req.Species,
		TotalStatus:     models.StartingStatus,
		StatusRemaining: models.StartingStatus,
		Rank:            RankForSpent(0),
	}
	if err := s.DB.Create(&character).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create character"})
	}

	log.Printf("✅ Character created: %s (%s/%s) for %s", character.Name, character.Realm, character.Species, user.Email)
	return c.Status(fiber.StatusCreated).JSON(character)
}

// UpdateCharacter applies a full build: attributes plus the complete skill
// selection. The cost is recomputed from scratch every time — the skill set
// is wiped and re-added inside the transaction, so duplicates can never
// double-charge and an over-budget build leaves the previous state intact.
func (s *CharacterService) UpdateCharacter(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var character models.Character
	if err := s.DB.First(&character, "id = ?", c.Params("character_id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching character"})
	}
	if character.UserID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not own this character"})
	}

	canEdit, err := s.Membership.CanEditCharacter(user, character.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error checking membership"})
	}
	if !canEdit {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "you cannot edit this character with your current membership level",
		})
	}

	var req struct {
		Name      string   `json:"name"`
		Species   string   `json:"species"`
		GroupName string   `json:"group_name,omitempty"`
		Health    int      `json:"health"`
		Stamina   int      `json:"stamina"`
		SkillIDs  []string `json:"skill_ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Health < 0 || req.Stamina < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "health and stamina must be non-negative"})
	}
	if req.Species != "" && !validSpecies(character.Realm, req.Species) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "species not available in that realm"})
	}

	err = s.SaveBuild(&character, req.Name, req.Species, req.GroupName, req.Health, req.Stamina, req.SkillIDs)
	if errors.Is(err, ErrOverBudget) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrOverBudget.Error()})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to update character", "cause": err.Error()})
	}

	return c.JSON(character)
}

// SaveBuild recomputes status_spent (health + tiered stamina + selected
// skill costs), re-derives rank, and commits the whole build atomically.
func (s *CharacterService) SaveBuild(character *models.Character, name, species, groupName string, health, stamina int, skillIDs []string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if name != "" {
			character.Name = name
		}
		if species != "" {
			character.Species = species
		}
		character.GroupName = groupName
		character.Health = health
		character.Stamina = stamina

		if err := tx.Where("character_id = ?", character.ID).Delete(&models.CharacterSkill{}).Error; err != nil {
			return fmt.Errorf("failed to reset skill set: %w", err)
		}

		seen := make(map[string]bool, len(skillIDs))
		var skillCosts []int
		for _, skillID := range skillIDs {
			if seen[skillID] {
				continue
			}
			seen[skillID] = true

			var skill models.Skill
			if err := tx.First(&skill, "id = ?", skillID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					continue // unknown selections are dropped, matching the catalog-lookup behavior
				}
				return err
			}
			if err := tx.Create(&models.CharacterSkill{CharacterID: character.ID, SkillID: skill.ID}).Error; err != nil {
				return fmt.Errorf("failed to add skill %s: %w", skill.Name, err)
			}
			skillCosts = append(skillCosts, skill.Cost)
		}

		totalSpent := BuildCost(health, stamina, skillCosts)
		if totalSpent > character.TotalStatus {
			return ErrOverBudget
		}

		character.StatusSpent = totalSpent
		character.StatusRemaining = character.TotalStatus - totalSpent
		character.Rank = RankForSpent(totalSpent)
		return tx.Save(character).Error
	})
}

// ViewCharacter returns the sheet data: attributes, skills grouped by lore
// category, and the total resource yield of the selected skills.
func (s *CharacterService) ViewCharacter(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var character models.Character
	if err := s.DB.Preload("Skills.Skill").First(&character, "id = ?", c.Params("character_id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching character"})
	}
	if character.UserID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not own this character"})
	}

	resources := 0
	skillsByCategory := map[string][]models.Skill{}
	for _, cs := range character.Skills {
		resources += cs.Skill.Resources
		skillsByCategory[cs.Skill.LoreCategory] = append(skillsByCategory[cs.Skill.LoreCategory], cs.Skill)
	}

	return c.JSON(fiber.Map{
		"character":          character,
		"resources":          resources,
		"skills_by_category": skillsByCategory,
	})
}

// ExportCharacterPDF renders the printable character sheet. When R2 is
// configured the sheet is also archived.
func (s *CharacterService) ExportCharacterPDF(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var character models.Character
	if err := s.DB.Preload("Skills.Skill").First(&character, "id = ?", c.Params("character_id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching character"})
	}
	if character.UserID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not own this character"})
	}

	pdfBytes, err := utils.RenderCharacterSheet(&character)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to render character sheet", "cause": err.Error()})
	}

	filename := slug.Make(character.Name) + "-character-sheet.pdf"
	if utils.R2Enabled() {
		if url, err := utils.ArchivePDF("character-sheets/"+filename, pdfBytes); err != nil {
			log.Printf("⚠️  Failed to archive character sheet for %s: %v", character.Name, err)
		} else {
			log.Printf("✅ Character sheet archived: %s", url)
		}
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(pdfBytes)
}

// DeleteCharacter removes the character and cascades to its skills, ledger
// rows, purchases, participations and cast signups in one transaction.
func (s *CharacterService) DeleteCharacter(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var character models.Character
	if err := s.DB.First(&character, "id = ?", c.Params("character_id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching character"})
	}
	if character.UserID != user.ID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to delete this character"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{
			&models.CharacterSkill{},
			&models.StatusAdjustment{},
			&models.StatusPurchase{},
			&models.EventParticipation{},
			&models.CastSignup{},
		} {
			if err := tx.Where("character_id = ?", character.ID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&character).Error
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete character", "cause": err.Error()})
	}

	log.Printf("🗑  Character deleted: %s (by %s)", character.Name, user.Email)
	return c.JSON(fiber.Map{"message": fmt.Sprintf("character %s has been deleted", character.Name)})
}

func validSpecies(realm, species string) bool {
	for _, sp := range models.SpeciesByRealm[realm] {
		if sp == species {
			return true
		}
	}
	return false
}
