package models

import "time"

// Setting is one persisted configuration value. Kind selects how Value is
// read; see the settings package.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Kind      string    `gorm:"size:10;not null" json:"kind"`
	Value     string    `gorm:"type:text" json:"value"`
}
