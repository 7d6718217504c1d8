package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User represents a person known to the external identity provider.
// TokenIdentifier is the provider-qualified identity ("issuer|subject") and
// is unique across all users.
type User struct {
	ID              uint                        `gorm:"primarykey" json:"id"`
	CreatedAt       time.Time                   `json:"created_at"`
	UpdatedAt       time.Time                   `json:"updated_at"`
	DeletedAt       gorm.DeletedAt              `gorm:"index" json:"-"`
	TokenIdentifier string                      `gorm:"uniqueIndex;not null" json:"token_identifier"`
	OrgIDs          datatypes.JSONSlice[string] `gorm:"not null" json:"org_ids"` // Ordered, append-only
	Name            string                      `json:"name,omitempty"`
	Image           string                      `json:"image,omitempty"`

	// Relationships
	Files     []File     `gorm:"foreignKey:UserID" json:"files,omitempty"`
	Favorites []Favorite `gorm:"foreignKey:UserID" json:"favorites,omitempty"`
}

// BelongsTo reports whether orgID is one of the user's organizations.
func (u *User) BelongsTo(orgID string) bool {
	return slices.Contains(u.OrgIDs, orgID)
}
