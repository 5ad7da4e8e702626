package model

import (
	"time"
)

type User struct {
	ID                 uint       `gorm:"primarykey" json:"id"`
	Email              string     `gorm:"size:120;uniqueIndex;not null" json:"email"`
	PasswordHash       string     `gorm:"size:60;not null" json:"-"` // bcrypt
	CurrentPlanetID    *uint      `gorm:"index" json:"-"`            // in-progress planet, nil when idle
	CurrentDiscoveryID *uint      `json:"-"`                         // pending discovery of CurrentPlanetID
	ResetToken         *string    `gorm:"type:text" json:"-"`        // latest issued reset token
	ResetTokenIssuedAt *time.Time `gorm:"index" json:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`

	Planets []Planet `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// SessionPointer identifies the planet and discovery a user is exploring.
type SessionPointer struct {
	PlanetID    uint `json:"planet_id"`
	DiscoveryID uint `json:"discovery_id"`
}

// Session returns the in-progress exploration, or nil when the user is idle.
// A half-set pair is treated as idle.
func (u *User) Session() *SessionPointer {
	if u.CurrentPlanetID == nil || u.CurrentDiscoveryID == nil {
		return nil
	}
	return &SessionPointer{PlanetID: *u.CurrentPlanetID, DiscoveryID: *u.CurrentDiscoveryID}
}

// BeginSession points the user at a newly started planet.
func (u *User) BeginSession(planetID, discoveryID uint) {
	u.CurrentPlanetID = &planetID
	u.CurrentDiscoveryID = &discoveryID
}

// AdvanceSession moves the pointer to the next discovery of the same planet.
func (u *User) AdvanceSession(discoveryID uint) {
	u.CurrentDiscoveryID = &discoveryID
}

// EndSession clears both pointers together.
func (u *User) EndSession() {
	u.CurrentPlanetID = nil
	u.CurrentDiscoveryID = nil
}

// SetResetToken replaces any previously issued token.
func (u *User) SetResetToken(token string, issuedAt time.Time) {
	u.ResetToken = &token
	u.ResetTokenIssuedAt = &issuedAt
}

func (u *User) ClearResetToken() {
	u.ResetToken = nil
	u.ResetTokenIssuedAt = nil
}

// HasResetToken reports whether token is the one currently on record.
func (u *User) HasResetToken(token string) bool {
	return u.ResetToken != nil && token != "" && *u.ResetToken == token
}
