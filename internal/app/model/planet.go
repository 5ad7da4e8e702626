package model

import (
	"time"
)

const DefaultPlanetName = "Unnamed Planet"

// PlanetNameMaxLength is the longest name a planet can be given.
const PlanetNameMaxLength = 30

type Planet struct {
	ID               uint       `gorm:"primarykey" json:"id"`
	UserID           uint       `gorm:"index;not null" json:"-"` // explorer
	Name             string     `gorm:"size:80;not null;default:'Unnamed Planet'" json:"name"`
	ThingsToDiscover int        `gorm:"not null" json:"things_to_discover"`
	ArchivedAt       *time.Time `gorm:"index" json:"archived_at,omitempty"` // set when named
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Explorer    *User       `gorm:"foreignKey:UserID" json:"-"`
	Discoveries []Discovery `gorm:"foreignKey:PlanetID;constraint:OnDelete:CASCADE" json:"discoveries,omitempty"`
}

func (Planet) TableName() string {
	return "planets"
}

func (p *Planet) IsArchived() bool {
	return p.ArchivedAt != nil
}

func (p *Planet) OwnedBy(userID uint) bool {
	return p.UserID == userID
}

// Archive names the planet and marks it complete.
func (p *Planet) Archive(name string, at time.Time) {
	p.Name = name
	p.ArchivedAt = &at
}
