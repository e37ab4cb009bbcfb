package services

import (
	"testing"

	"larp-membership-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOffenses = []Offense{
	{Offense: "Unsafe Combat", Penalty: "500"},
	{Offense: "Metagaming", Penalty: "250"},
}

func TestCreateComplaintNameLookup(t *testing.T) {
	db := newTestDB(t)
	svc := NewArbitrationService(db, NewStatusService(db), testOffenses)

	complainant := makeUser(t, db, "filer@example.com")
	makeUser(t, db, "accused@example.com", func(u *models.User) {
		u.FirstName = "Rowan"
		u.LastName = "Vale"
	})

	app := newAuthedApp(complainant)
	app.Post("/arbitration/complaints", svc.CreateComplaint)

	t.Run("case-insensitive full name match", func(t *testing.T) {
		code, _ := doJSON(t, app, "POST", "/arbitration/complaints", map[string]interface{}{
			"accused_name":       "rowan VALE",
			"offense":            "Unsafe Combat",
			"date_of_offense":    "2026-02-10",
			"description":        "swung too hard during the melee",
			"resolution_attempt": "spoke to them at the event",
		})
		require.Equal(t, 201, code)

		var complaint models.Complaint
		require.NoError(t, db.First(&complaint).Error)
		assert.Equal(t, "500", complaint.Penalty, "penalty ceiling copied from catalog")
		assert.Equal(t, models.ComplaintUnresolved, complaint.Status)
	})

	t.Run("unknown name rejects the filing", func(t *testing.T) {
		code, _ := doJSON(t, app, "POST", "/arbitration/complaints", map[string]interface{}{
			"accused_name":       "Nobody Here",
			"offense":            "Metagaming",
			"date_of_offense":    "2026-02-10",
			"description":        "x",
			"resolution_attempt": "y",
		})
		assert.Equal(t, 400, code)
	})

	t.Run("first name alone is not enough", func(t *testing.T) {
		code, _ := doJSON(t, app, "POST", "/arbitration/complaints", map[string]interface{}{
			"accused_name":       "Rowan",
			"offense":            "Metagaming",
			"date_of_offense":    "2026-02-10",
			"description":        "x",
			"resolution_attempt": "y",
		})
		assert.Equal(t, 400, code)
	})
}

func TestAssignArbitratorFirstWriteWins(t *testing.T) {
	db := newTestDB(t)
	svc := NewArbitrationService(db, NewStatusService(db), testOffenses)

	complainant := makeUser(t, db, "filer@example.com")
	accused := makeUser(t, db, "accused@example.com")
	first := makeUser(t, db, "arb1@example.com", func(u *models.User) { u.CanArbitrate = true })
	second := makeUser(t, db, "arb2@example.com", func(u *models.User) { u.CanArbitrate = true })

	complaint := &models.Complaint{
		ComplainantID: complainant.ID,
		AccusedID:     accused.ID,
		Offense:       "Metagaming",
		Penalty:       "250",
		Description:   "d",
		Status:        models.ComplaintUnresolved,
	}
	require.NoError(t, db.Create(complaint).Error)

	appFirst := newAuthedApp(first)
	appFirst.Post("/arbitration/complaints/:complaint_id/assign", svc.AssignArbitrator)
	code, _ := doJSON(t, appFirst, "POST", "/arbitration/complaints/"+complaint.ID+"/assign", nil)
	require.Equal(t, 200, code)

	appSecond := newAuthedApp(second)
	appSecond.Post("/arbitration/complaints/:complaint_id/assign", svc.AssignArbitrator)
	code, _ = doJSON(t, appSecond, "POST", "/arbitration/complaints/"+complaint.ID+"/assign", nil)
	assert.Equal(t, 409, code)

	var reloaded models.Complaint
	require.NoError(t, db.First(&reloaded, "id = ?", complaint.ID).Error)
	require.NotNil(t, reloaded.ArbitratorID)
	assert.Equal(t, first.ID, *reloaded.ArbitratorID, "assignment is permanent")
}

func TestResolveComplaint(t *testing.T) {
	db := newTestDB(t)
	status := NewStatusService(db)
	svc := NewArbitrationService(db, status, testOffenses)

	complainant := makeUser(t, db, "filer@example.com")
	accused := makeUser(t, db, "accused@example.com")
	arbitrator := makeUser(t, db, "arb@example.com", func(u *models.User) { u.CanArbitrate = true })
	outsider := makeUser(t, db, "other@example.com", func(u *models.User) { u.CanArbitrate = true })
	character := makeCharacter(t, db, accused.ID, "Thorn")

	newComplaint := func() *models.Complaint {
		complaint := &models.Complaint{
			ComplainantID: complainant.ID,
			AccusedID:     accused.ID,
			Offense:       "Unsafe Combat",
			Penalty:       "500",
			Description:   "d",
			Status:        models.ComplaintUnresolved,
			ArbitratorID:  &arbitrator.ID,
		}
		require.NoError(t, db.Create(complaint).Error)
		return complaint
	}

	app := newAuthedApp(arbitrator)
	app.Post("/arbitration/complaints/:complaint_id/resolve", svc.ResolveComplaint)

	t.Run("only the assigned arbitrator may resolve", func(t *testing.T) {
		complaint := newComplaint()
		other := newAuthedApp(outsider)
		other.Post("/arbitration/complaints/:complaint_id/resolve", svc.ResolveComplaint)
		code, _ := doJSON(t, other, "POST", "/arbitration/complaints/"+complaint.ID+"/resolve", map[string]interface{}{
			"resolution": "Denied", "reason": "r",
		})
		assert.Equal(t, 403, code)
	})

	t.Run("deduction must stay within the penalty ceiling", func(t *testing.T) {
		complaint := newComplaint()
		for _, amount := range []int{0, -10, 501} {
			code, _ := doJSON(t, app, "POST", "/arbitration/complaints/"+complaint.ID+"/resolve", map[string]interface{}{
				"resolution":       "Accepted",
				"reason":           "r",
				"character_id":     character.ID,
				"deduction_amount": amount,
			})
			assert.Equal(t, 400, code, "amount=%d", amount)
		}
	})

	t.Run("accepted resolution writes a penalty ledger row", func(t *testing.T) {
		complaint := newComplaint()
		code, _ := doJSON(t, app, "POST", "/arbitration/complaints/"+complaint.ID+"/resolve", map[string]interface{}{
			"resolution":       "Accepted",
			"reason":           "confirmed by three witnesses",
			"character_id":     character.ID,
			"deduction_amount": 400,
		})
		require.Equal(t, 200, code)

		var reloaded models.Complaint
		require.NoError(t, db.First(&reloaded, "id = ?", complaint.ID).Error)
		assert.Equal(t, models.ComplaintResolved, reloaded.Status)
		assert.Equal(t, models.ResolutionAccepted, reloaded.Resolution)

		var adj models.StatusAdjustment
		require.NoError(t, db.Where("character_id = ? AND status_type = ?", character.ID, models.StatusPenalty).First(&adj).Error)
		assert.Equal(t, -400, adj.Amount)
		assert.Contains(t, adj.Notes, complaint.ID)
		assert.Contains(t, adj.Notes, "Unsafe Combat")

		var ch models.Character
		require.NoError(t, db.First(&ch, "id = ?", character.ID).Error)
		assert.Equal(t, models.StartingStatus-400, ch.TotalStatus)
	})

	t.Run("failed resolution leaves no partial state", func(t *testing.T) {
		complaint := newComplaint()
		var before models.Character
		require.NoError(t, db.First(&before, "id = ?", character.ID).Error)

		// break the ledger table so the deduction cannot be written
		require.NoError(t, db.Migrator().DropTable(&models.StatusAdjustment{}))
		code, _ := doJSON(t, app, "POST", "/arbitration/complaints/"+complaint.ID+"/resolve", map[string]interface{}{
			"resolution":       "Accepted",
			"reason":           "r",
			"character_id":     character.ID,
			"deduction_amount": 100,
		})
		assert.Equal(t, 500, code)

		var reloaded models.Complaint
		require.NoError(t, db.First(&reloaded, "id = ?", complaint.ID).Error)
		assert.Equal(t, models.ComplaintUnresolved, reloaded.Status, "complaint must not resolve without the deduction")

		var ch models.Character
		require.NoError(t, db.First(&ch, "id = ?", character.ID).Error)
		assert.Equal(t, before.TotalStatus, ch.TotalStatus, "balance must not move without the resolution")

		// retry after the failure deducts exactly once
		require.NoError(t, db.AutoMigrate(&models.StatusAdjustment{}))
		code, _ = doJSON(t, app, "POST", "/arbitration/complaints/"+complaint.ID+"/resolve", map[string]interface{}{
			"resolution":       "Accepted",
			"reason":           "r",
			"character_id":     character.ID,
			"deduction_amount": 100,
		})
		require.Equal(t, 200, code)

		var count int64
		db.Model(&models.StatusAdjustment{}).
			Where("character_id = ? AND status_type = ?", character.ID, models.StatusPenalty).
			Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("resolution is terminal", func(t *testing.T) {
		complaint := newComplaint()
		code, _ := doJSON(t, app, "POST", "/arbitration/complaints/"+complaint.ID+"/resolve", map[string]interface{}{
			"resolution": "Denied", "reason": "insufficient evidence",
		})
		require.Equal(t, 200, code)

		code, _ = doJSON(t, app, "POST", "/arbitration/complaints/"+complaint.ID+"/resolve", map[string]interface{}{
			"resolution": "Accepted", "reason": "changed my mind",
			"character_id": character.ID, "deduction_amount": 1,
		})
		assert.Equal(t, 400, code)
	})
}
