package utils

import (
	"bytes"
	"testing"
	"time"

	"larp-membership-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCharacterSheet(t *testing.T) {
	rank := 2
	character := &models.Character{
		Name:    "Aria Moonshadow",
		Realm:   "Everstars",
		Species: "Human",
		Health:  2, Stamina: 8,
		TotalStatus: 5000, StatusSpent: 2500, StatusRemaining: 2500, Rank: 1,
		Skills: []models.CharacterSkill{
			{Skill: models.Skill{LoreCategory: "Arcana", SubCategory: "Rituals", Name: "Circle Casting", Cost: 1000, Rank: &rank, Resources: 3}},
			{Skill: models.Skill{LoreCategory: "Craft", SubCategory: "Smithing", Name: "Forge Work", Cost: 500, Resources: 2}},
		},
	}

	assert.Equal(t, 5, totalResources(character), "sheet sums resources across all purchased skills")

	data, err := RenderCharacterSheet(character)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "output is a PDF document")
}

func TestRenderEventRoster(t *testing.T) {
	event := &models.Event{
		Title:      "Winter Gathering",
		Realm:      "Everstars",
		Location:   "Meadow Hall",
		StartDate:  time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 1, 12, 12, 0, 0, 0, time.UTC),
		Timeblocks: 3,
	}
	participants := []RosterGroup{
		{UserName: "Rowan Vale", CharacterName: "Aria", CharacterRealm: "Everstars", Timeblocks: []int{1, 2}},
	}
	cast := []RosterGroup{
		{UserName: "Sam Reed", CharacterName: "Thorn", CharacterRealm: "Everstars", Timeblocks: []int{3}, Statuses: []string{"Pending"}},
	}

	data, err := RenderEventRoster(event, participants, cast)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	// empty roster still renders
	data, err = RenderEventRoster(event, nil, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
