package services

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"larp-membership-system/models"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Character{},
		&models.CharacterSkill{},
		&models.Skill{},
		&models.Event{},
		&models.EventParticipation{},
		&models.CastSignup{},
		&models.StatusAdjustment{},
		&models.StatusPurchase{},
		&models.Complaint{},
	))
	return db
}

func makeUser(t *testing.T, db *gorm.DB, email string, mutate ...func(*models.User)) *models.User {
	t.Helper()
	user := &models.User{
		FirstName: "Test",
		LastName:  "Member",
		Email:     email,
		Birthday:  time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC),
	}
	for _, m := range mutate {
		m(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func makeCharacter(t *testing.T, db *gorm.DB, userID, name string) *models.Character {
	t.Helper()
	character := &models.Character{
		UserID:          userID,
		Name:            name,
		Realm:           "Everstars",
		Species:         "Human",
		TotalStatus:     models.StartingStatus,
		StatusRemaining: models.StartingStatus,
		Rank:            1,
	}
	require.NoError(t, db.Create(character).Error)
	return character
}

func makeEvent(t *testing.T, db *gorm.DB, title, status string, timeblocks int) *models.Event {
	t.Helper()
	event := &models.Event{
		Title:      title,
		Realm:      "Everstars",
		StartDate:  time.Now().Add(-48 * time.Hour),
		EndDate:    time.Now().Add(-24 * time.Hour),
		Location:   "Meadow Hall",
		Timeblocks: timeblocks,
		Status:     status,
		CreatedBy:  "system",
	}
	require.NoError(t, db.Create(event).Error)
	return event
}

// newAuthedApp builds a fiber app with the given user preloaded as
// current_user, standing in for the auth middleware.
func newAuthedApp(user *models.User) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("current_user", user)
		return c.Next()
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var parsed map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp.StatusCode, parsed
}
