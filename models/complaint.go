package models

import "time"

// Complaint states and resolutions.
const (
	ComplaintUnresolved = "Unresolved"
	ComplaintResolved   = "Resolved"

	ResolutionAccepted = "Accepted"
	ResolutionDenied   = "Denied"
)

// Complaint is an arbitration case filed by one member against another.
// ArbitratorID is assigned at most once, first come first served, and only
// the assigned arbitrator may resolve.
type Complaint struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	ComplainantID string    `gorm:"not null;index" json:"complainant_id"`
	AccusedID     string    `gorm:"not null;index" json:"accused_id"`
	Offense       string    `gorm:"not null" json:"offense"`
	Penalty       string    `json:"penalty,omitempty"`
	DateOfOffense time.Time `gorm:"not null" json:"date_of_offense"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	DateFiled     time.Time `json:"date_filed" gorm:"autoCreateTime"`
	Status        string    `gorm:"type:varchar(20);default:'Unresolved'" json:"status"`

	ArbitratorID     *string `gorm:"index" json:"arbitrator_id,omitempty"`
	Resolution       string  `gorm:"type:varchar(20)" json:"resolution,omitempty"`
	ResolutionReason string  `gorm:"type:text" json:"resolution_reason,omitempty"`

	ResolutionAttempt string `gorm:"type:text;not null" json:"resolution_attempt"`
	PeopleInvolved    string `gorm:"type:text" json:"people_involved,omitempty"`

	Complainant User `json:"complainant,omitempty" gorm:"foreignKey:ComplainantID"`
	Accused     User `json:"accused,omitempty" gorm:"foreignKey:AccusedID"`
}
