package services

import (
	"fmt"
	"log"

	"larp-membership-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// StatusManagement lists completed events that still need work: events with
// at least one participant character lacking an event grant, and events with
// pending cast signups.
func (s *EventService) StatusManagement(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	if !user.CanAddEventStatus && !user.CanAcceptCast && !user.CanAdjustCharacterStatus {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to manage status"})
	}

	var unprocessed []models.Event
	if err := s.DB.Raw(`
		SELECT e.* FROM events e
		WHERE e.status = ? AND EXISTS (
			SELECT 1 FROM event_participations ep
			WHERE ep.event_id = e.id
			AND NOT EXISTS (
				SELECT 1 FROM status_adjustments sa
				WHERE sa.character_id = ep.character_id AND sa.event_id = e.id
			)
		)
		ORDER BY e.start_date DESC
	`, models.EventCompleted).Scan(&unprocessed).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching unprocessed events"})
	}

	var castEvents []models.Event
	if err := s.DB.Raw(`
		SELECT e.* FROM events e
		INNER JOIN cast_signups cs ON cs.event_id = e.id
		WHERE e.status = ? AND cs.status = ?
		GROUP BY e.id
		ORDER BY MAX(e.start_date) DESC
	`, models.EventCompleted, models.CastPending).Scan(&castEvents).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching cast events"})
	}

	return c.JSON(fiber.Map{
		"unprocessed_events": unprocessed,
		"cast_events":        castEvents,
	})
}

// EventParticipants lists the characters of an event that have not yet
// received their grant, with each character's timeblock count. Already
// granted characters are excluded, which is what keeps the grant idempotent.
func (s *EventService) EventParticipants(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	if !user.CanAddEventStatus {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to add event status"})
	}

	var event models.Event
	if err := s.DB.First(&event, "id = ?", c.Params("event_id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching event"})
	}
	if event.Processed {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "this event has already been processed"})
	}

	type participantRow struct {
		CharacterID    string `json:"character_id"`
		CharacterName  string `json:"character_name"`
		TimeblockCount int    `json:"timeblock_count"`
	}
	var participants []participantRow
	if err := s.DB.Raw(`
		SELECT c.id AS character_id, c.name AS character_name, COUNT(ep.timeblock) AS timeblock_count
		FROM characters c
		INNER JOIN event_participations ep ON ep.character_id = c.id
		WHERE ep.event_id = ?
		AND NOT EXISTS (
			SELECT 1 FROM status_adjustments sa
			WHERE sa.character_id = c.id AND sa.event_id = ep.event_id
		)
		GROUP BY c.id, c.name
		ORDER BY c.name
	`, event.ID).Scan(&participants).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching participants"})
	}

	return c.JSON(fiber.Map{"event": event, "participants": participants})
}

// AdjustEventStatus grants event status to one participating character. Play
// status is derived at grant time from the character's timeblock count; the
// other amounts come from the reviewer. One ledger row per nonzero type, all
// inside one transaction with the balance update.
//
// When this character is the last ungranted participant and no cast signup
// is still pending, the event is marked processed.
func (s *EventService) AdjustEventStatus(c *fiber.Ctx) error {
	actor := c.Locals("current_user").(*models.User)
	if !actor.CanAddEventStatus {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to add event status"})
	}

	var req struct {
		CharacterID       string `json:"character_id"`
		EventID           string `json:"event_id"`
		WritingStatus     int    `json:"writing_status"`
		ManagementStatus  int    `json:"management_status"`
		ServiceStatus     int    `json:"service_status"`
		CastStatus        int    `json:"cast_status"`
		InteractionStatus int    `json:"interaction_status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var event models.Event
	if err := s.DB.First(&event, "id = ?", req.EventID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
	}
	if event.Processed {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "this event has already been processed"})
	}

	var character models.Character
	if err := s.DB.First(&character, "id = ?", req.CharacterID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "character not found"})
	}

	granted, err := s.Status.HasEventGrant(character.ID, event.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error checking existing grants"})
	}
	if granted {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "this character has already received status for this event"})
	}

	var timeblockCount int64
	s.DB.Model(&models.EventParticipation{}).
		Where("event_id = ? AND character_id = ?", event.ID, character.ID).
		Count(&timeblockCount)
	if timeblockCount == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "this character did not participate in this event"})
	}
	playStatus := int(timeblockCount) * PlayStatusPerTimeblock

	grants := []struct {
		statusType string
		amount     int
	}{
		{models.StatusWriting, req.WritingStatus},
		{models.StatusManagement, req.ManagementStatus},
		{models.StatusService, req.ServiceStatus},
		{models.StatusCast, req.CastStatus},
		{models.StatusInteraction, req.InteractionStatus},
		{models.StatusPlay, playStatus},
	}

	// Was this the last ungranted participant? Counted before the grant so
	// "exactly one remaining" means this one.
	var ungranted int64
	s.DB.Raw(`
		SELECT COUNT(DISTINCT ep.character_id) FROM event_participations ep
		WHERE ep.event_id = ?
		AND NOT EXISTS (
			SELECT 1 FROM status_adjustments sa
			WHERE sa.character_id = ep.character_id AND sa.event_id = ep.event_id
		)
	`, event.ID).Scan(&ungranted)

	var pendingCast int64
	s.DB.Model(&models.CastSignup{}).
		Where("event_id = ? AND status = ?", event.ID, models.CastPending).
		Count(&pendingCast)

	total := 0
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		for _, g := range grants {
			if g.amount <= 0 {
				continue
			}
			eventID := event.ID
			if err := applyAdjustment(tx, &character, g.amount, g.statusType,
				fmt.Sprintf("Event: %s", event.Title), actor.ID, &eventID); err != nil {
				return err
			}
			total += g.amount
		}

		if ungranted == 1 && pendingCast == 0 {
			event.Processed = true
			if err := tx.Save(&event).Error; err != nil {
				return fmt.Errorf("failed to mark event processed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to grant event status", "cause": err.Error()})
	}

	log.Printf("✅ Event status: +%d to %s for %q (by %s)", total, character.Name, event.Title, actor.Email)
	return c.JSON(fiber.Map{
		"message":          fmt.Sprintf("successfully added %d status points to %s", total, character.Name),
		"total_granted":    total,
		"play_status":      playStatus,
		"event_processed":  event.Processed,
		"total_status":     character.TotalStatus,
		"status_remaining": character.StatusRemaining,
	})
}

// CastSignups lists pending cast signups for an event, ordered by timeblock.
func (s *EventService) CastSignups(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	if !user.CanAcceptCast {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to manage cast signups"})
	}

	var event models.Event
	if err := s.DB.First(&event, "id = ?", c.Params("event_id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
	}

	var signups []models.CastSignup
	if err := s.DB.Preload("User").Preload("Character").
		Where("event_id = ? AND status = ?", event.ID, models.CastPending).
		Order("timeblock ASC").
		Find(&signups).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching cast signups"})
	}

	return c.JSON(fiber.Map{"event": event, "cast_signups": signups})
}

// ProcessCastSignup accepts or denies one pending cast signup. Accepting
// grants the fixed cast award plus any writing/management awards, all in one
// transaction with the signup state change.
func (s *EventService) ProcessCastSignup(c *fiber.Ctx) error {
	actor := c.Locals("current_user").(*models.User)
	if !actor.CanAcceptCast {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to manage cast signups"})
	}

	var req struct {
		CastSignupID     string `json:"cast_signup_id"`
		Action           string `json:"action"` // "accept" or "deny"
		WritingStatus    int    `json:"writing_status"`
		ManagementStatus int    `json:"management_status"`
		Notes            string `json:"notes,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var signup models.CastSignup
	if err := s.DB.Preload("Event").First(&signup, "id = ?", req.CastSignupID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "cast signup not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching cast signup"})
	}
	if signup.Status != models.CastPending {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cast signup has already been processed"})
	}

	switch req.Action {
	case "accept":
		var character models.Character
		if err := s.DB.First(&character, "id = ?", signup.CharacterID).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching character"})
		}

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			signup.Status = models.CastAccepted
			signup.WritingStatus = req.WritingStatus
			signup.ManagementStatus = req.ManagementStatus
			signup.Notes = req.Notes
			if err := tx.Save(&signup).Error; err != nil {
				return err
			}

			note := fmt.Sprintf("Event: %s - Timeblock %d", signup.Event.Title, signup.Timeblock)
			eventID := signup.EventID
			if err := applyAdjustment(tx, &character, CastStatusAward, models.StatusCast, note, actor.ID, &eventID); err != nil {
				return err
			}
			if req.WritingStatus > 0 {
				if err := applyAdjustment(tx, &character, req.WritingStatus, models.StatusWriting, note, actor.ID, &eventID); err != nil {
					return err
				}
			}
			if req.ManagementStatus > 0 {
				if err := applyAdjustment(tx, &character, req.ManagementStatus, models.StatusManagement, note, actor.ID, &eventID); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to accept cast signup", "cause": err.Error()})
		}

	case "deny":
		signup.Status = models.CastDenied
		signup.Notes = req.Notes
		if err := s.DB.Save(&signup).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to deny cast signup"})
		}

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "action must be accept or deny"})
	}

	log.Printf("✅ Cast signup %sed for timeblock %d of %q (by %s)", req.Action, signup.Timeblock, signup.Event.Title, actor.Email)
	return c.JSON(fiber.Map{"message": fmt.Sprintf("successfully %sed cast signup", req.Action), "cast_signup": signup})
}
