package services

import (
	"path/filepath"
	"testing"

	"larp-membership-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNumericCell(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"500", 500, false},
		{"1,000", 1000, false},
		{"500 status", 500, false},
		{" 250 ", 250, false},
		{"12.0", 12, false},
		{"", 0, true},
		{"n/a", 0, true},
	}
	for _, tc := range cases {
		got, err := numericCell(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input=%q", tc.in)
			continue
		}
		require.NoError(t, err, "input=%q", tc.in)
		assert.Equal(t, tc.want, got, "input=%q", tc.in)
	}
}

func TestColumnIndex(t *testing.T) {
	header := []string{"Lore Category", " Sub Category ", "skill name", "Status"}
	assert.Equal(t, 0, columnIndex(header, "Lore Category"))
	assert.Equal(t, 1, columnIndex(header, "Sub Category"))
	assert.Equal(t, 2, columnIndex(header, "Skill Name"))
	assert.Equal(t, -1, columnIndex(header, "Penalty"))
}

func writeSheet(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadSkillsFromExcel(t *testing.T) {
	db := newTestDB(t)

	path := writeSheet(t, [][]interface{}{
		{"Lore Category", "Sub Category", "Skill Name", "Status", "Rank", "Resources"},
		{"Arcana", "Rituals", "Circle Casting", "1,000", "2", "3"},
		{"Arcana", "Rituals", "Warding", "500 status", "", ""},
		{"Arcana", "Rituals", "", "100", "", ""},      // missing name, skipped
		{"Crafts", "Smithing", "Forging", "n/a", "", ""}, // bad cost, skipped
	})

	loaded, err := LoadSkillsFromExcel(db, path)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)

	var circle models.Skill
	require.NoError(t, db.Where("name = ?", "Circle Casting").First(&circle).Error)
	assert.Equal(t, 1000, circle.Cost)
	require.NotNil(t, circle.Rank)
	assert.Equal(t, 2, *circle.Rank)
	assert.Equal(t, 3, circle.Resources)

	t.Run("reload upserts instead of duplicating", func(t *testing.T) {
		again := writeSheet(t, [][]interface{}{
			{"Lore Category", "Sub Category", "Skill Name", "Status"},
			{"Arcana", "Rituals", "Circle Casting", "1200"},
		})
		loaded, err := LoadSkillsFromExcel(db, again)
		require.NoError(t, err)
		assert.Equal(t, 1, loaded)

		var count int64
		db.Model(&models.Skill{}).Where("name = ?", "Circle Casting").Count(&count)
		assert.EqualValues(t, 1, count)

		var updated models.Skill
		require.NoError(t, db.Where("name = ?", "Circle Casting").First(&updated).Error)
		assert.Equal(t, 1200, updated.Cost)
	})
}

func TestLoadSkillsMissingColumn(t *testing.T) {
	db := newTestDB(t)
	path := writeSheet(t, [][]interface{}{
		{"Lore Category", "Skill Name", "Status"},
		{"Arcana", "Circle Casting", "1000"},
	})
	_, err := LoadSkillsFromExcel(db, path)
	assert.Error(t, err)
}

func TestLoadOffenses(t *testing.T) {
	path := writeSheet(t, [][]interface{}{
		{"Offense", "Penalty"},
		{"Unsafe Combat", "500"},
		{"Metagaming", "250"},
		{"", "100"}, // empty offense, skipped
	})

	offenses, err := LoadOffenses(path)
	require.NoError(t, err)
	require.Len(t, offenses, 2)
	assert.Equal(t, "Unsafe Combat", offenses[0].Offense)
	assert.Equal(t, "500", offenses[0].Penalty)
}
