package models

// SpeciesByRealm constrains which species a character may take per realm.
var SpeciesByRealm = map[string][]string{
	"Everstars": {"Human", "Android", "Gen-E"},
	"Guildhall": {"Human", "Elf", "Orc"},
	"Tyrs":      {"Human", "Ghoul", "Airadin"},
}

// StartingStatus is the lifetime status-point grant every new character
// begins with.
const StartingStatus = 5000

// Character belongs to exactly one user. total_status and status_remaining
// are caches over the status_adjustments ledger; every mutator keeps them in
// lockstep inside the same transaction.
type Character struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string `gorm:"not null;index" json:"user_id"`
	Name      string `gorm:"not null" json:"name"`
	Realm     string `gorm:"type:varchar(20);not null" json:"realm"`
	Species   string `gorm:"type:varchar(20);not null" json:"species"`
	GroupName string `json:"group_name,omitempty"`

	Health          int `gorm:"default:0" json:"health"`
	Stamina         int `gorm:"default:0" json:"stamina"`
	TotalStatus     int `gorm:"default:5000" json:"total_status"`
	StatusSpent     int `gorm:"default:0" json:"status_spent"`
	StatusRemaining int `gorm:"default:5000" json:"status_remaining"`
	Rank            int `gorm:"default:1" json:"rank"`

	Skills []CharacterSkill `json:"skills,omitempty" gorm:"foreignKey:CharacterID"`

	Timestamps
}

// CharacterSkill links a character to one chosen skill from the catalog.
// At most one row per (character, skill).
type CharacterSkill struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	CharacterID string `gorm:"not null;index" json:"character_id"`
	SkillID     string `gorm:"not null;index" json:"skill_id"`

	Skill Skill `json:"skill,omitempty" gorm:"foreignKey:SkillID"`
}

// Skill is a catalog entry loaded from the skills spreadsheet. Read-only
// outside the catalog import.
type Skill struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	LoreCategory string `gorm:"type:varchar(50);not null;uniqueIndex:idx_skill_key" json:"lore_category"`
	SubCategory  string `gorm:"type:varchar(50);not null;uniqueIndex:idx_skill_key" json:"sub_category"`
	Name         string `gorm:"not null;uniqueIndex:idx_skill_key" json:"name"`
	Cost         int    `gorm:"not null" json:"cost"`
	Rank         *int   `json:"rank,omitempty"`
	Resources    int    `gorm:"default:0" json:"resources"`
}
