package services

import (
	"fmt"
	"log"
	"sort"
	"time"

	"larp-membership-system/models"
	"larp-membership-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Status granted per attended timeblock when an event is processed.
const PlayStatusPerTimeblock = 25

// Cast status granted when a cast signup is accepted.
const CastStatusAward = 100

type EventService struct {
	DB     *gorm.DB
	Status *StatusService
}

func NewEventService(db *gorm.DB, status *StatusService) *EventService {
	return &EventService{DB: db, Status: status}
}

// UpdateEventStatuses advances event lifecycle states from wall-clock time.
// Upcoming → In Progress at start_date, In Progress → Completed at end_date.
// The predicate is derived purely from stored timestamps, so the 5-minute
// sweep and any concurrent page-load sweep are safe to run together.
func (s *EventService) UpdateEventStatuses() error {
	now := time.Now()

	if err := s.DB.Model(&models.Event{}).
		Where("status = ? AND start_date <= ?", models.EventUpcoming, now).
		Update("status", models.EventInProgress).Error; err != nil {
		return fmt.Errorf("failed to start events: %w", err)
	}

	if err := s.DB.Model(&models.Event{}).
		Where("status = ? AND end_date <= ?", models.EventInProgress, now).
		Update("status", models.EventCompleted).Error; err != nil {
		return fmt.Errorf("failed to complete events: %w", err)
	}
	return nil
}

// ListEvents groups events by lifecycle status with distinct participant and
// cast counts. Completed events are filtered to those the caller attended.
// The lifecycle sweep runs first so listings are never stale.
func (s *EventService) ListEvents(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	if err := s.UpdateEventStatuses(); err != nil {
		log.Printf("[Events] Status sweep failed: %v", err)
	}

	var events []models.Event
	if err := s.DB.Order("start_date ASC").Find(&events).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching events"})
	}

	attendedIDs := map[string]bool{}
	var participations []models.EventParticipation
	s.DB.Where("user_id = ?", user.ID).Find(&participations)
	for _, p := range participations {
		attendedIDs[p.EventID] = true
	}
	var castSignups []models.CastSignup
	s.DB.Where("user_id = ?", user.ID).Find(&castSignups)
	for _, cs := range castSignups {
		attendedIDs[cs.EventID] = true
	}

	var upcoming, inProgress, completed []models.Event
	for i := range events {
		event := events[i]
		s.DB.Model(&models.EventParticipation{}).
			Where("event_id = ?", event.ID).
			Distinct("user_id").Count(&event.ParticipantCount)
		s.DB.Model(&models.CastSignup{}).
			Where("event_id = ?", event.ID).
			Distinct("user_id").Count(&event.CastCount)

		switch event.Status {
		case models.EventUpcoming:
			upcoming = append(upcoming, event)
		case models.EventInProgress:
			inProgress = append(inProgress, event)
		case models.EventCompleted:
			if attendedIDs[event.ID] {
				completed = append(completed, event)
			}
		}
	}

	return c.JSON(fiber.Map{
		"upcoming":    upcoming,
		"in_progress": inProgress,
		"completed":   completed,
	})
}

// CreateEvent requires the can_create_events capability.
func (s *EventService) CreateEvent(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	if !user.CanCreateEvents {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to create events"})
	}

	var req struct {
		Title      string    `json:"title"`
		Realm      string    `json:"realm"`
		Timeblocks int       `json:"timeblocks"`
		StartDate  time.Time `json:"start_date"`
		EndDate    time.Time `json:"end_date"`
		Location   string    `json:"location"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}
	if req.Title == "" || req.Realm == "" || req.Location == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title, realm and location are required"})
	}
	if req.Timeblocks < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "timeblocks must be at least 1"})
	}
	if !req.EndDate.After(req.StartDate) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "end_date must be after start_date"})
	}

	event := models.Event{
		Title:      req.Title,
		Realm:      req.Realm,
		Timeblocks: req.Timeblocks,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Location:   req.Location,
		Status:     models.EventUpcoming,
		CreatedBy:  user.ID,
	}
	if err := s.DB.Create(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create event"})
	}

	log.Printf("✅ Event created: %s (%s, %d timeblocks)", event.Title, event.Realm, event.Timeblocks)
	return c.Status(fiber.StatusCreated).JSON(event)
}

// SignupEvent handles both participant and cast signups. Each timeblock is
// checked independently against the one-signup-per-(user, event, timeblock)
// rule; a clash skips that timeblock and the rest of the submission still
// proceeds, with the existing signup left untouched.
func (s *EventService) SignupEvent(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	var event models.Event
	if err := s.DB.First(&event, "id = ?", c.Params("event_id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching event"})
	}
	if !event.StartDate.After(time.Now()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot sign up for an event that has already started"})
	}

	var req struct {
		SignupType string `json:"signup_type"` // "participant" or "cast"
		// participant: character per timeblock
		Characters map[int]string `json:"characters,omitempty"`
		// cast: one character across selected timeblocks
		CastCharacterID string `json:"cast_character_id,omitempty"`
		CastTimeblocks  []int  `json:"cast_timeblocks,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	var created, skipped []int
	switch req.SignupType {
	case "participant":
		for timeblock := 1; timeblock <= event.Timeblocks; timeblock++ {
			characterID, ok := req.Characters[timeblock]
			if !ok || characterID == "" {
				continue
			}
			if !s.ownsCharacter(user.ID, characterID) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not own the selected character"})
			}
			if s.timeblockTaken(event.ID, user.ID, timeblock) {
				skipped = append(skipped, timeblock)
				continue
			}
			participation := models.EventParticipation{
				EventID:     event.ID,
				UserID:      user.ID,
				CharacterID: characterID,
				Timeblock:   timeblock,
			}
			if err := s.DB.Create(&participation).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record signup"})
			}
			created = append(created, timeblock)
		}

	case "cast":
		if req.CastCharacterID == "" || len(req.CastTimeblocks) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cast signup requires a character and at least one timeblock"})
		}
		if !s.ownsCharacter(user.ID, req.CastCharacterID) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not own the selected character"})
		}
		for _, timeblock := range req.CastTimeblocks {
			if timeblock < 1 || timeblock > event.Timeblocks {
				skipped = append(skipped, timeblock)
				continue
			}
			if s.timeblockTaken(event.ID, user.ID, timeblock) {
				skipped = append(skipped, timeblock)
				continue
			}
			signup := models.CastSignup{
				EventID:     event.ID,
				UserID:      user.ID,
				CharacterID: req.CastCharacterID,
				Timeblock:   timeblock,
				Status:      models.CastPending,
			}
			if err := s.DB.Create(&signup).Error; err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to record cast signup"})
			}
			created = append(created, timeblock)
		}

	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "signup_type must be participant or cast"})
	}

	return c.JSON(fiber.Map{
		"message":            "successfully signed up for the event",
		"timeblocks_created": created,
		"timeblocks_skipped": skipped,
	})
}

func (s *EventService) ownsCharacter(userID, characterID string) bool {
	var count int64
	s.DB.Model(&models.Character{}).
		Where("id = ? AND user_id = ?", characterID, userID).
		Count(&count)
	return count > 0
}

// timeblockTaken reports whether the user already holds a participant or
// cast slot for the timeblock.
func (s *EventService) timeblockTaken(eventID, userID string, timeblock int) bool {
	var count int64
	s.DB.Model(&models.EventParticipation{}).
		Where("event_id = ? AND user_id = ? AND timeblock = ?", eventID, userID, timeblock).
		Count(&count)
	if count > 0 {
		return true
	}
	s.DB.Model(&models.CastSignup{}).
		Where("event_id = ? AND user_id = ? AND timeblock = ?", eventID, userID, timeblock).
		Count(&count)
	return count > 0
}

// MySignups lists the caller's slots for one event, sorted by timeblock.
func (s *EventService) MySignups(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	eventID := c.Params("event_id")

	var event models.Event
	if err := s.DB.First(&event, "id = ?", eventID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
	}

	type signupView struct {
		Timeblock int    `json:"timeblock"`
		Type      string `json:"type"`
		Character string `json:"character"`
		Status    string `json:"status"`
	}
	var signups []signupView

	var participations []models.EventParticipation
	s.DB.Preload("Character").Where("event_id = ? AND user_id = ?", eventID, user.ID).Find(&participations)
	for _, p := range participations {
		signups = append(signups, signupView{Timeblock: p.Timeblock, Type: "Participant", Character: p.Character.Name, Status: "Confirmed"})
	}

	var casts []models.CastSignup
	s.DB.Preload("Character").Where("event_id = ? AND user_id = ?", eventID, user.ID).Find(&casts)
	for _, cs := range casts {
		signups = append(signups, signupView{Timeblock: cs.Timeblock, Type: "Cast", Character: cs.Character.Name, Status: cs.Status})
	}

	sort.Slice(signups, func(i, j int) bool { return signups[i].Timeblock < signups[j].Timeblock })
	return c.JSON(fiber.Map{"event": event, "signups": signups})
}

// rosterGroups collapses per-timeblock rows into one entry per
// (user, character) with sorted timeblocks.
func (s *EventService) rosterGroups(eventID string) ([]utils.RosterGroup, []utils.RosterGroup, error) {
	var participations []models.EventParticipation
	if err := s.DB.Preload("User").Preload("Character").
		Where("event_id = ?", eventID).Find(&participations).Error; err != nil {
		return nil, nil, err
	}

	type key struct{ userID, characterID string }
	pGroups := map[key]*utils.RosterGroup{}
	var pOrder []key
	for _, p := range participations {
		k := key{p.UserID, p.CharacterID}
		g, ok := pGroups[k]
		if !ok {
			g = &utils.RosterGroup{
				UserName:       p.User.FullName(),
				CharacterName:  p.Character.Name,
				CharacterRealm: p.Character.Realm,
			}
			pGroups[k] = g
			pOrder = append(pOrder, k)
		}
		g.Timeblocks = append(g.Timeblocks, p.Timeblock)
	}

	var casts []models.CastSignup
	if err := s.DB.Preload("User").Preload("Character").
		Where("event_id = ?", eventID).Find(&casts).Error; err != nil {
		return nil, nil, err
	}
	cGroups := map[key]*utils.RosterGroup{}
	var cOrder []key
	for _, cs := range casts {
		k := key{cs.UserID, cs.CharacterID}
		g, ok := cGroups[k]
		if !ok {
			g = &utils.RosterGroup{
				UserName:       cs.User.FullName(),
				CharacterName:  cs.Character.Name,
				CharacterRealm: cs.Character.Realm,
			}
			cGroups[k] = g
			cOrder = append(cOrder, k)
		}
		g.Timeblocks = append(g.Timeblocks, cs.Timeblock)
		g.Statuses = append(g.Statuses, cs.Status)
	}

	participants := make([]utils.RosterGroup, 0, len(pOrder))
	for _, k := range pOrder {
		sort.Ints(pGroups[k].Timeblocks)
		participants = append(participants, *pGroups[k])
	}
	castList := make([]utils.RosterGroup, 0, len(cOrder))
	for _, k := range cOrder {
		sort.Ints(cGroups[k].Timeblocks)
		castList = append(castList, *cGroups[k])
	}
	return participants, castList, nil
}

// EventRoster returns the grouped roster for event organizers.
func (s *EventService) EventRoster(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	if !user.CanCreateEvents {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to view rosters"})
	}

	var event models.Event
	if err := s.DB.First(&event, "id = ?", c.Params("event_id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
	}

	participants, cast, err := s.rosterGroups(event.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error building roster"})
	}

	return c.JSON(fiber.Map{
		"event":        event,
		"participants": participants,
		"cast":         cast,
	})
}

// EventRosterPDF renders the roster as a paginated document.
func (s *EventService) EventRosterPDF(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	if !user.CanCreateEvents {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to view rosters"})
	}

	var event models.Event
	if err := s.DB.First(&event, "id = ?", c.Params("event_id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
	}

	participants, cast, err := s.rosterGroups(event.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error building roster"})
	}

	pdfBytes, err := utils.RenderEventRoster(&event, participants, cast)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to render roster", "cause": err.Error()})
	}

	filename := slug.Make(event.Title) + "-roster.pdf"
	if utils.R2Enabled() {
		if url, err := utils.ArchivePDF("rosters/"+filename, pdfBytes); err != nil {
			log.Printf("⚠️  Failed to archive roster for %s: %v", event.Title, err)
		} else {
			log.Printf("✅ Roster archived: %s", url)
		}
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(pdfBytes)
}

// AttendedEvents summarizes the caller's event history per
// (event, character, role) with the status gained from each.
func (s *EventService) AttendedEvents(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)

	type attendedEntry struct {
		Event        models.Event     `json:"event"`
		Character    models.Character `json:"character"`
		Role         string           `json:"role"`
		Timeblocks   []int            `json:"timeblocks"`
		StatusGained int              `json:"status_gained"`
	}
	type key struct {
		eventID, characterID, role string
	}
	entries := map[key]*attendedEntry{}
	var order []key

	var participations []models.EventParticipation
	s.DB.Where("user_id = ?", user.ID).Find(&participations)
	for _, p := range participations {
		k := key{p.EventID, p.CharacterID, "Participant"}
		if _, ok := entries[k]; !ok {
			entries[k] = &attendedEntry{Role: "Participant"}
			order = append(order, k)
		}
		entries[k].Timeblocks = append(entries[k].Timeblocks, p.Timeblock)
	}

	var casts []models.CastSignup
	s.DB.Where("user_id = ?", user.ID).Find(&casts)
	for _, cs := range casts {
		k := key{cs.EventID, cs.CharacterID, "Cast"}
		if _, ok := entries[k]; !ok {
			entries[k] = &attendedEntry{Role: "Cast"}
			order = append(order, k)
		}
		entries[k].Timeblocks = append(entries[k].Timeblocks, cs.Timeblock)
	}

	result := make([]attendedEntry, 0, len(order))
	for _, k := range order {
		e := entries[k]
		s.DB.First(&e.Event, "id = ?", k.eventID)
		s.DB.First(&e.Character, "id = ?", k.characterID)

		var gained int
		s.DB.Model(&models.StatusAdjustment{}).
			Select("COALESCE(SUM(amount), 0)").
			Where("event_id = ? AND character_id = ?", k.eventID, k.characterID).
			Scan(&gained)
		e.StatusGained = gained
		sort.Ints(e.Timeblocks)
		result = append(result, *e)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Event.StartDate.After(result[j].Event.StartDate)
	})
	return c.JSON(fiber.Map{"attended": result})
}

// EventHistory lists all events for admins/moderators with sortable columns.
func (s *EventService) EventHistory(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	if !user.IsAdmin && !user.IsModerator {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to access event history"})
	}

	sortBy := c.Query("sort_by", "date")
	order := c.Query("order", "desc")
	dir := "DESC"
	if order == "asc" {
		dir = "ASC"
	}

	column := "start_date"
	switch sortBy {
	case "realm":
		column = "realm"
	case "title":
		column = "title"
	}

	var events []models.Event
	if err := s.DB.Order(column + " " + dir).Find(&events).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching events"})
	}
	return c.JSON(fiber.Map{"events": events, "sort_by": sortBy, "order": order})
}

// EventHistoryDetail groups an event's ledger entries by acting user and
// character for the audit view.
func (s *EventService) EventHistoryDetail(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	if !user.IsAdmin && !user.IsModerator {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "you do not have permission to access event history"})
	}

	var event models.Event
	if err := s.DB.First(&event, "id = ?", c.Params("event_id")).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
	}

	var adjustments []models.StatusAdjustment
	if err := s.DB.Preload("Character").Preload("User").
		Where("event_id = ?", event.ID).
		Order("date ASC").
		Find(&adjustments).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching adjustments"})
	}

	return c.JSON(fiber.Map{"event": event, "adjustments": adjustments})
}

// ClearCompletedEvents deletes all completed events together with their
// signups. Admin housekeeping; the ledger rows keep their history.
func (s *EventService) ClearCompletedEvents(c *fiber.Ctx) error {
	user := c.Locals("current_user").(*models.User)
	if !user.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin permission required"})
	}

	var completed []models.Event
	if err := s.DB.Where("status = ?", models.EventCompleted).Find(&completed).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error fetching events"})
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for _, event := range completed {
			if err := tx.Where("event_id = ?", event.ID).Delete(&models.CastSignup{}).Error; err != nil {
				return err
			}
			if err := tx.Where("event_id = ?", event.ID).Delete(&models.EventParticipation{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&event).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to clear events", "cause": err.Error()})
	}

	log.Printf("🗑  Cleared %d completed events (by %s)", len(completed), user.Email)
	return c.JSON(fiber.Map{"message": "completed events have been cleared", "cleared": len(completed)})
}
