package services

import (
	"testing"

	"larp-membership-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateUserPermission(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	admin := makeUser(t, db, "admin@example.com", func(u *models.User) { u.IsAdmin = true })
	moderator := makeUser(t, db, "mod@example.com", func(u *models.User) { u.IsModerator = true })
	target := makeUser(t, db, "member@example.com")

	adminApp := newAuthedApp(admin)
	adminApp.Put("/admin/permissions/:user_id", svc.UpdateUserPermission)
	modApp := newAuthedApp(moderator)
	modApp.Put("/admin/permissions/:user_id", svc.UpdateUserPermission)

	t.Run("moderator grants a working capability", func(t *testing.T) {
		code, _ := doJSON(t, modApp, "PUT", "/admin/permissions/"+target.ID, map[string]interface{}{
			"permission": "can_create_events", "value": true,
		})
		require.Equal(t, 200, code)

		var reloaded models.User
		require.NoError(t, db.First(&reloaded, "id = ?", target.ID).Error)
		assert.True(t, reloaded.CanCreateEvents)
	})

	t.Run("moderator cannot grant admin", func(t *testing.T) {
		code, _ := doJSON(t, modApp, "PUT", "/admin/permissions/"+target.ID, map[string]interface{}{
			"permission": "is_admin", "value": true,
		})
		assert.Equal(t, 403, code)
	})

	t.Run("admin grants admin", func(t *testing.T) {
		code, _ := doJSON(t, adminApp, "PUT", "/admin/permissions/"+target.ID, map[string]interface{}{
			"permission": "is_admin", "value": true,
		})
		require.Equal(t, 200, code)

		var reloaded models.User
		require.NoError(t, db.First(&reloaded, "id = ?", target.ID).Error)
		assert.True(t, reloaded.IsAdmin)
	})

	t.Run("unknown flag names are rejected", func(t *testing.T) {
		code, _ := doJSON(t, adminApp, "PUT", "/admin/permissions/"+target.ID, map[string]interface{}{
			"permission": "can_do_anything", "value": true,
		})
		assert.Equal(t, 400, code)
	})
}

func TestSetupAdminOnlyBootstrapsOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)

	first := makeUser(t, db, "first@example.com")
	second := makeUser(t, db, "second@example.com")

	firstApp := newAuthedApp(first)
	firstApp.Post("/admin/setup", svc.SetupAdmin)
	code, _ := doJSON(t, firstApp, "POST", "/admin/setup", nil)
	require.Equal(t, 200, code)

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, "id = ?", first.ID).Error)
	assert.True(t, reloaded.IsAdmin)

	secondApp := newAuthedApp(second)
	secondApp.Post("/admin/setup", svc.SetupAdmin)
	code, _ = doJSON(t, secondApp, "POST", "/admin/setup", nil)
	assert.Equal(t, 403, code)
}

func TestUserPermissionHelpers(t *testing.T) {
	user := &models.User{}
	assert.False(t, user.HasPermission("can_arbitrate"))
	assert.True(t, user.SetPermission("can_arbitrate", true))
	assert.True(t, user.HasPermission("can_arbitrate"))
	assert.False(t, user.SetPermission("nonsense", true))
	assert.False(t, user.HasPermission("nonsense"))
}
