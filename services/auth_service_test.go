package services

import (
	"testing"

	"larp-membership-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db)

	app := newAuthedApp(nil)
	app.Post("/auth/register", svc.Register)
	app.Post("/auth/login", svc.Login)

	payload := map[string]interface{}{
		"first_name": "Rowan",
		"last_name":  "Vale",
		"email":      "Rowan.Vale@Example.com",
		"password":   "correct horse",
		"birthday":   "1992-04-01",
	}

	t.Run("register normalizes email and hashes the password", func(t *testing.T) {
		code, body := doJSON(t, app, "POST", "/auth/register", payload)
		require.Equal(t, 201, code)
		assert.NotEmpty(t, body["token"])

		var user models.User
		require.NoError(t, db.Where("email = ?", "rowan.vale@example.com").First(&user).Error)
		assert.NotEqual(t, "correct horse", user.PasswordHash)
		assert.False(t, user.IsAdmin)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		code, _ := doJSON(t, app, "POST", "/auth/register", payload)
		assert.Equal(t, 409, code)
	})

	t.Run("birthday is required", func(t *testing.T) {
		code, _ := doJSON(t, app, "POST", "/auth/register", map[string]interface{}{
			"first_name": "A", "last_name": "B",
			"email": "ab@example.com", "password": "long enough",
		})
		assert.Equal(t, 400, code)
	})

	t.Run("login with correct password", func(t *testing.T) {
		code, body := doJSON(t, app, "POST", "/auth/login", map[string]interface{}{
			"email":    "rowan.vale@example.com",
			"password": "correct horse",
		})
		require.Equal(t, 200, code)

		token := body["token"].(string)
		userID, err := ParseToken(token)
		require.NoError(t, err)

		var user models.User
		require.NoError(t, db.Where("email = ?", "rowan.vale@example.com").First(&user).Error)
		assert.Equal(t, user.ID, userID)
	})

	t.Run("wrong password and unknown account look identical", func(t *testing.T) {
		code1, body1 := doJSON(t, app, "POST", "/auth/login", map[string]interface{}{
			"email": "rowan.vale@example.com", "password": "wrong",
		})
		code2, body2 := doJSON(t, app, "POST", "/auth/login", map[string]interface{}{
			"email": "ghost@example.com", "password": "wrong",
		})
		assert.Equal(t, 401, code1)
		assert.Equal(t, 401, code2)
		assert.Equal(t, body1["error"], body2["error"])
	})
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not-a-token")
	assert.Error(t, err)

	token, err := IssueToken("some-user-id")
	require.NoError(t, err)
	userID, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "some-user-id", userID)
}
