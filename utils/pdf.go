package utils

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"larp-membership-system/models"

	"github.com/go-pdf/fpdf"
)

// RosterGroup is one roster line: a user playing one character across a set
// of timeblocks. Statuses is populated for cast lines only.
type RosterGroup struct {
	UserName       string   `json:"user_name"`
	CharacterName  string   `json:"character_name"`
	CharacterRealm string   `json:"character_realm"`
	Timeblocks     []int    `json:"timeblocks"`
	Statuses       []string `json:"statuses,omitempty"`
}

func timeblockList(blocks []int) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = fmt.Sprintf("%d", b)
	}
	return strings.Join(parts, ", ")
}

func totalResources(character *models.Character) int {
	total := 0
	for _, cs := range character.Skills {
		total += cs.Skill.Resources
	}
	return total
}

func pdfBytes(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderCharacterSheet produces the printable character sheet. Skills are
// grouped by lore category the same way the character view shows them.
func RenderCharacterSheet(character *models.Character) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(character.Name+" - Character Sheet", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, character.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("%s  /  %s", character.Realm, character.Species), "", 1, "C", false, 0, "")
	if character.GroupName != "" {
		pdf.CellFormat(0, 7, "Group: "+character.GroupName, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Attributes", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(95, 7, fmt.Sprintf("Health: %d", character.Health), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Stamina: %d", character.Stamina), "", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Rank: %d", character.Rank), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Total Status: %d", character.TotalStatus), "", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Status Spent: %d", character.StatusSpent), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Status Remaining: %d", character.StatusRemaining), "", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Resources: %d", totalResources(character)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	byCategory := map[string][]models.Skill{}
	var categories []string
	for _, cs := range character.Skills {
		if _, ok := byCategory[cs.Skill.LoreCategory]; !ok {
			categories = append(categories, cs.Skill.LoreCategory)
		}
		byCategory[cs.Skill.LoreCategory] = append(byCategory[cs.Skill.LoreCategory], cs.Skill)
	}
	sort.Strings(categories)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Skills", "B", 1, "L", false, 0, "")
	if len(categories) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 7, "No skills purchased", "", 1, "L", false, 0, "")
	}
	for _, cat := range categories {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, cat, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		skills := byCategory[cat]
		sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
		for _, skill := range skills {
			line := fmt.Sprintf("%s (%s)  -  %d status", skill.Name, skill.SubCategory, skill.Cost)
			if skill.Resources > 0 {
				line += fmt.Sprintf(", %d resources", skill.Resources)
			}
			pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(1)
	}

	return pdfBytes(pdf)
}

func rosterTable(pdf *fpdf.Fpdf, title string, groups []RosterGroup, withStatus bool) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")

	if len(groups) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 7, "None", "", 1, "L", false, 0, "")
		pdf.Ln(3)
		return
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(55, 7, "Member", "1", 0, "L", false, 0, "")
	pdf.CellFormat(55, 7, "Character", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Realm", "1", 0, "L", false, 0, "")
	if withStatus {
		pdf.CellFormat(25, 7, "Timeblocks", "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, "Status", "1", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(50, 7, "Timeblocks", "1", 1, "L", false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, g := range groups {
		pdf.CellFormat(55, 7, g.UserName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(55, 7, g.CharacterName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, g.CharacterRealm, "1", 0, "L", false, 0, "")
		if withStatus {
			pdf.CellFormat(25, 7, timeblockList(g.Timeblocks), "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 7, strings.Join(g.Statuses, ", "), "1", 1, "L", false, 0, "")
		} else {
			pdf.CellFormat(50, 7, timeblockList(g.Timeblocks), "1", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(3)
}

// RenderEventRoster produces the printable event roster with participants
// and cast in separate tables.
func RenderEventRoster(event *models.Event, participants, cast []RosterGroup) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(event.Title+" - Roster", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, event.Title, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("%s  /  %s", event.Realm, event.Location), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("%s to %s  (%d timeblocks)",
		event.StartDate.Format("Jan 2, 2006 15:04"),
		event.EndDate.Format("Jan 2, 2006 15:04"),
		event.Timeblocks), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	rosterTable(pdf, "Participants", participants, false)
	rosterTable(pdf, "Cast", cast, true)

	return pdfBytes(pdf)
}
