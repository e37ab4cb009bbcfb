package models

import "time"

// Ledger entry type tags. The summary view only totals the first six;
// Penalty and free-form manual tags still appear in history.
const (
	StatusWriting     = "Writing"
	StatusManagement  = "Management"
	StatusService     = "Service"
	StatusCast        = "Cast"
	StatusInteraction = "Interaction"
	StatusPlay        = "Play"
	StatusPenalty     = "Penalty"
)

// SummaryStatusTypes are the fixed keys of the per-character totals view.
var SummaryStatusTypes = []string{
	StatusWriting, StatusManagement, StatusService,
	StatusCast, StatusInteraction, StatusPlay,
}

// StatusAdjustment is the append-only ledger of every status-point change.
// It is the single source of truth; Character.TotalStatus/StatusRemaining
// are caches kept in lockstep by every mutator.
type StatusAdjustment struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	CharacterID string    `gorm:"not null;index" json:"character_id"`
	Amount      int       `gorm:"not null" json:"amount"`
	StatusType  string    `gorm:"type:varchar(20);not null" json:"status_type"`
	Notes       string    `gorm:"type:text" json:"notes,omitempty"`
	Date        time.Time `json:"date" gorm:"autoCreateTime"`
	AdjustedBy  string    `gorm:"not null" json:"adjusted_by"`
	EventID     *string   `gorm:"index" json:"event_id,omitempty"`

	Character Character `json:"character,omitempty" gorm:"foreignKey:CharacterID"`
	User      User      `json:"user,omitempty" gorm:"foreignKey:AdjustedBy"`
}

// Status purchase states. Payment fulfillment is manual; nothing in the
// service completes these automatically.
const (
	PurchasePending   = "Pending"
	PurchaseCompleted = "Completed"
	PurchaseFailed    = "Failed"
)

// StatusPurchase records a real-money status-point purchase request.
type StatusPurchase struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	CharacterID string    `gorm:"not null;index" json:"character_id"`
	Amount      int       `gorm:"default:100" json:"amount"`
	Price       float64   `gorm:"default:10.00" json:"price"`
	Date        time.Time `json:"date" gorm:"autoCreateTime"`
	Status      string    `gorm:"type:varchar(20);default:'Pending'" json:"status"`

	Character Character `json:"character,omitempty" gorm:"foreignKey:CharacterID"`
}
