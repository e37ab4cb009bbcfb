package services

import (
	"testing"
	"time"

	"larp-membership-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterLimit(t *testing.T) {
	assert.Equal(t, 1, CharacterLimit(models.MembershipNone))
	assert.Equal(t, 10, CharacterLimit(models.MembershipBasic))
	assert.Equal(t, 25, CharacterLimit(models.MembershipStandard))
	assert.Equal(t, 50, CharacterLimit(models.MembershipPremium))
	assert.Equal(t, 1, CharacterLimit("garbage"))
}

func TestIsMembershipExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("none is always expired", func(t *testing.T) {
		assert.True(t, IsMembershipExpired(models.MembershipNone, nil, now))
		assert.True(t, IsMembershipExpired(models.MembershipNone, &future, now))
	})

	t.Run("nil expiry never expires", func(t *testing.T) {
		assert.False(t, IsMembershipExpired(models.MembershipBasic, nil, now))
	})

	t.Run("paid level with past expiry", func(t *testing.T) {
		assert.True(t, IsMembershipExpired(models.MembershipPremium, &past, now))
		assert.False(t, IsMembershipExpired(models.MembershipPremium, &future, now))
	})
}

func TestEditableCharacters(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)

	user := makeUser(t, db, "member@example.com", func(u *models.User) {
		u.MembershipLevel = models.MembershipNone
	})

	// create three characters with distinct created_at ordering
	first := makeCharacter(t, db, user.ID, "Oldest")
	require.NoError(t, db.Model(first).Update("created_at", time.Now().Add(-3*time.Hour)).Error)
	second := makeCharacter(t, db, user.ID, "Middle")
	require.NoError(t, db.Model(second).Update("created_at", time.Now().Add(-2*time.Hour)).Error)
	third := makeCharacter(t, db, user.ID, "Newest")
	require.NoError(t, db.Model(third).Update("created_at", time.Now().Add(-time.Hour)).Error)

	t.Run("no membership means nothing editable", func(t *testing.T) {
		editable, err := svc.EditableCharacters(user)
		require.NoError(t, err)
		assert.Empty(t, editable)
	})

	t.Run("expired membership means nothing editable", func(t *testing.T) {
		past := time.Now().Add(-24 * time.Hour)
		user.MembershipLevel = models.MembershipBasic
		user.MembershipExpiry = &past

		editable, err := svc.EditableCharacters(user)
		require.NoError(t, err)
		assert.Empty(t, editable)
	})

	t.Run("active membership unlocks oldest first up to the limit", func(t *testing.T) {
		future := time.Now().Add(24 * time.Hour)
		user.MembershipLevel = models.MembershipBasic
		user.MembershipExpiry = &future

		editable, err := svc.EditableCharacters(user)
		require.NoError(t, err)
		require.Len(t, editable, 3)
		assert.Equal(t, "Oldest", editable[0].Name)
		assert.Equal(t, "Newest", editable[2].Name)

		ok, err := svc.CanEditCharacter(user, third.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("downgrade locks newer characters without deleting them", func(t *testing.T) {
		// simulate a one-character limit by pointing the level at None's limit
		// via an active Basic membership on a second user with 11 characters
		crowded := makeUser(t, db, "crowded@example.com", func(u *models.User) {
			future := time.Now().Add(24 * time.Hour)
			u.MembershipLevel = models.MembershipBasic
			u.MembershipExpiry = &future
		})
		for i := 0; i < 11; i++ {
			ch := makeCharacter(t, db, crowded.ID, "Char")
			require.NoError(t, db.Model(ch).Update("created_at", time.Now().Add(-time.Duration(20-i)*time.Minute)).Error)
		}

		editable, err := svc.EditableCharacters(crowded)
		require.NoError(t, err)
		assert.Len(t, editable, 10)

		var total int64
		db.Model(&models.Character{}).Where("user_id = ?", crowded.ID).Count(&total)
		assert.EqualValues(t, 11, total)
	})
}
