package services

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"larp-membership-system/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// numericCell coerces a spreadsheet cell to an int, stripping everything
// that is not a digit or a decimal point first. Authors paste values like
// "1,000" and "500 status" into these sheets.
func numericCell(raw string) (int, error) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, fmt.Errorf("no numeric value in %q", raw)
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// columnIndex maps header names to column positions. Comparison is
// case-insensitive and ignores surrounding whitespace.
func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// LoadSkillsFromExcel reads the skill catalog workbook and upserts every
// row into the skills table, keyed on (lore_category, sub_category, name).
// Rows missing a required column or with an unparseable cost are logged and
// skipped so one bad row never blocks the rest of the sheet.
func LoadSkillsFromExcel(db *gorm.DB, path string) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open skill catalog %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return 0, fmt.Errorf("skill catalog %s has no data rows", path)
	}

	header := rows[0]
	loreCol := columnIndex(header, "Lore Category")
	subCol := columnIndex(header, "Sub Category")
	nameCol := columnIndex(header, "Skill Name")
	costCol := columnIndex(header, "Status")
	if loreCol < 0 || subCol < 0 || nameCol < 0 || costCol < 0 {
		return 0, fmt.Errorf("skill catalog %s is missing a required column (Lore Category, Sub Category, Skill Name, Status)", path)
	}
	rankCol := columnIndex(header, "Rank")
	resourcesCol := columnIndex(header, "Resources")

	loaded := 0
	for i, row := range rows[1:] {
		lore := cellAt(row, loreCol)
		sub := cellAt(row, subCol)
		name := cellAt(row, nameCol)
		if lore == "" || sub == "" || name == "" {
			log.Printf("⚠️ Skipping skill row %d: missing lore/sub/name", i+2)
			continue
		}
		cost, err := numericCell(cellAt(row, costCol))
		if err != nil {
			log.Printf("⚠️ Skipping skill row %d (%s): bad cost: %v", i+2, name, err)
			continue
		}

		skill := models.Skill{
			LoreCategory: lore,
			SubCategory:  sub,
			Name:         name,
			Cost:         cost,
		}
		if rank, err := numericCell(cellAt(row, rankCol)); err == nil {
			skill.Rank = &rank
		}
		if resources, err := numericCell(cellAt(row, resourcesCol)); err == nil {
			skill.Resources = resources
		}

		err = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lore_category"}, {Name: "sub_category"}, {Name: "name"}},
			UpdateAll: true,
		}).Create(&skill).Error
		if err != nil {
			log.Printf("⚠️ Skipping skill row %d (%s): %v", i+2, name, err)
			continue
		}
		loaded++
	}

	log.Printf("✅ Loaded %d skills from %s", loaded, path)
	return loaded, nil
}

// LoadOffenses reads the offense catalog workbook into memory. The caller
// injects the resulting slice into the arbitration service; offenses are
// not stored in the database.
func LoadOffenses(path string) ([]Offense, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open offense catalog %s: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("offense catalog %s has no data rows", path)
	}

	header := rows[0]
	offenseCol := columnIndex(header, "Offense")
	penaltyCol := columnIndex(header, "Penalty")
	if offenseCol < 0 || penaltyCol < 0 {
		return nil, fmt.Errorf("offense catalog %s is missing a required column (Offense, Penalty)", path)
	}

	var offenses []Offense
	for i, row := range rows[1:] {
		offense := cellAt(row, offenseCol)
		penalty := cellAt(row, penaltyCol)
		if offense == "" {
			log.Printf("⚠️ Skipping offense row %d: empty offense", i+2)
			continue
		}
		offenses = append(offenses, Offense{Offense: offense, Penalty: penalty})
	}

	log.Printf("✅ Loaded %d offenses from %s", len(offenses), path)
	return offenses, nil
}
