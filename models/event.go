package models

import "time"

// Event lifecycle states. Linear, no back-transitions.
const (
	EventUpcoming   = "Upcoming"
	EventInProgress = "In Progress"
	EventCompleted  = "Completed"
)

// Cast signup approval states.
const (
	CastPending  = "Pending"
	CastAccepted = "Accepted"
	CastDenied   = "Denied"
)

// Event is a realm-scoped activity split into numbered timeblocks.
// Status is derived from wall-clock time against start/end; Processed means
// every participant grant for the event has been finalized.
type Event struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	Title      string    `gorm:"not null" json:"title"`
	Realm      string    `gorm:"type:varchar(20);not null" json:"realm"`
	StartDate  time.Time `gorm:"not null" json:"start_date"`
	EndDate    time.Time `gorm:"not null" json:"end_date"`
	Location   string    `gorm:"not null" json:"location"`
	Timeblocks int       `gorm:"not null" json:"timeblocks"`
	Status     string    `gorm:"type:varchar(20);default:'Upcoming'" json:"status"`
	Processed  bool      `gorm:"default:false" json:"processed"`
	CreatedBy  string    `gorm:"not null" json:"created_by"`

	Participants []EventParticipation `json:"participants,omitempty" gorm:"foreignKey:EventID"`
	CastSignups  []CastSignup         `json:"cast_signups,omitempty" gorm:"foreignKey:EventID"`

	// Calculated fields (not stored in DB)
	ParticipantCount int64 `json:"participant_count,omitempty" gorm:"-"`
	CastCount        int64 `json:"cast_count,omitempty" gorm:"-"`
}

// EventParticipation is one confirmed participant slot: a user playing a
// character during one timeblock of an event.
type EventParticipation struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	EventID     string `gorm:"not null;index" json:"event_id"`
	UserID      string `gorm:"not null;index" json:"user_id"`
	CharacterID string `gorm:"not null;index" json:"character_id"`
	Timeblock   int    `gorm:"not null" json:"timeblock"`

	ServicePerformed bool `gorm:"default:false" json:"service_performed"`
	DecoratedArea    bool `gorm:"default:false" json:"decorated_area"`
	ResourcesUsed    int  `gorm:"default:0" json:"resources_used"`
	TreasureTurnedIn int  `gorm:"default:0" json:"treasure_turned_in"`
	StatusGained     int  `gorm:"default:0" json:"status_gained"`
	Completed        bool `gorm:"default:false" json:"completed"`

	User      User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Character Character `json:"character,omitempty" gorm:"foreignKey:CharacterID"`
}

// CastSignup is a cast-role request for one timeblock. Mutually exclusive
// with EventParticipation for the same (user, event, timeblock).
type CastSignup struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	EventID     string `gorm:"not null;index" json:"event_id"`
	UserID      string `gorm:"not null;index" json:"user_id"`
	CharacterID string `gorm:"not null;index" json:"character_id"`
	Timeblock   int    `gorm:"not null" json:"timeblock"`
	Status      string `gorm:"type:varchar(20);default:'Pending'" json:"status"`

	WritingStatus    int    `gorm:"default:0" json:"writing_status"`
	ManagementStatus int    `gorm:"default:0" json:"management_status"`
	Notes            string `gorm:"type:text" json:"notes,omitempty"`

	User      User      `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Character Character `json:"character,omitempty" gorm:"foreignKey:CharacterID"`
	Event     Event     `json:"event,omitempty" gorm:"foreignKey:EventID"`
}
