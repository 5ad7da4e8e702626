package model

import (
	"time"
)

type Discovery struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	PlanetID        uint      `gorm:"not null;uniqueIndex:idx_discoveries_planet_number;uniqueIndex:idx_discoveries_planet_thing" json:"planet_id"`
	Number          int       `gorm:"not null;uniqueIndex:idx_discoveries_planet_number" json:"number"` // 1-based within planet
	Circumstances   string    `gorm:"size:40;not null" json:"circumstances"`
	ThingDiscovered string    `gorm:"size:70;not null;uniqueIndex:idx_discoveries_planet_thing" json:"thing_discovered"`
	Description     *string   `gorm:"type:text" json:"description"` // nil while pending
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	Planet *Planet `gorm:"foreignKey:PlanetID" json:"-"`
}

func (Discovery) TableName() string {
	return "discoveries"
}

func (d *Discovery) IsPending() bool {
	return d.Description == nil
}

func (d *Discovery) Describe(text string) {
	d.Description = &text
}
