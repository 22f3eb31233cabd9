package models

import "time"

// Profile is a named operator role ("admin", "clerk") granting permissions.
type Profile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	IsSystem    bool      `gorm:"default:false" json:"is_system"`
	// Permissions is stored through the profile_permissions join table.
	Permissions []Permission `gorm:"many2many:profile_permissions;" json:"permissions,omitempty"`
}

// Permission grants one action on one resource, or all of them with "*".
type Permission struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Resource string `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"resource"`
	Action   string `gorm:"size:50;not null;uniqueIndex:idx_perm_resource_action" json:"action"`
}

// Code returns the permission as "resource:action".
func (p Permission) Code() string {
	return p.Resource + ":" + p.Action
}
