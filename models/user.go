package models

import (
	"time"

	"gorm.io/gorm"
)

// Membership levels, ordered lowest to highest.
const (
	MembershipNone     = "None"
	MembershipBasic    = "Basic"
	MembershipStandard = "Standard"
	MembershipPremium  = "Premium"
)

// MembershipLevels is the upgrade ordering used to compare tiers.
var MembershipLevels = []string{MembershipNone, MembershipBasic, MembershipStandard, MembershipPremium}

// User is a registered member. Permissions are independent boolean
// capabilities, not a hierarchy — check the flag you need, nothing more.
type User struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	FirstName    string    `gorm:"not null" json:"first_name"`
	LastName     string    `gorm:"not null" json:"last_name"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	Birthday     time.Time `gorm:"not null" json:"birthday"`
	PasswordHash string    `gorm:"type:text" json:"-"`

	IsAdmin                  bool `gorm:"default:false" json:"is_admin"`
	IsModerator              bool `gorm:"default:false" json:"is_moderator"`
	CanCreateEvents          bool `gorm:"default:false" json:"can_create_events"`
	CanAddEventStatus        bool `gorm:"default:false" json:"can_add_event_status"`
	CanAdjustCharacterStatus bool `gorm:"default:false" json:"can_adjust_character_status"`
	CanAcceptCast            bool `gorm:"default:false" json:"can_accept_cast"`
	CanArbitrate             bool `gorm:"default:false" json:"can_arbitrate"`

	MembershipLevel  string     `gorm:"type:varchar(20);default:'None'" json:"membership_level"`
	MembershipExpiry *time.Time `json:"membership_expiry,omitempty"`
	DateRegistered   time.Time  `json:"date_registered" gorm:"autoCreateTime"`

	Characters []Character `json:"characters,omitempty" gorm:"foreignKey:UserID"`
}

// HasPermission reports whether the named capability flag is set.
func (u *User) HasPermission(flag string) bool {
	switch flag {
	case "is_admin":
		return u.IsAdmin
	case "is_moderator":
		return u.IsModerator
	case "can_create_events":
		return u.CanCreateEvents
	case "can_add_event_status":
		return u.CanAddEventStatus
	case "can_adjust_character_status":
		return u.CanAdjustCharacterStatus
	case "can_accept_cast":
		return u.CanAcceptCast
	case "can_arbitrate":
		return u.CanArbitrate
	}
	return false
}

// SetPermission updates the named capability flag. Returns false for unknown
// flag names.
func (u *User) SetPermission(flag string, value bool) bool {
	switch flag {
	case "is_admin":
		u.IsAdmin = value
	case "is_moderator":
		u.IsModerator = value
	case "can_create_events":
		u.CanCreateEvents = value
	case "can_add_event_status":
		u.CanAddEventStatus = value
	case "can_adjust_character_status":
		u.CanAdjustCharacterStatus = value
	case "can_accept_cast":
		u.CanAcceptCast = value
	case "can_arbitrate":
		u.CanArbitrate = value
	default:
		return false
	}
	return true
}

// FullName is the "First Last" form used in rosters and complaint lookups.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
