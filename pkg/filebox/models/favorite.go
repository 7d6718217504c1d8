package models

import (
	"time"
)

// Favorite is a user's org-scoped bookmark on a file.
// A user can favorite a given file at most once.
type Favorite struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_file" json:"user_id"`
	FileID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_file;index" json:"file_id"`
	OrgID     string    `gorm:"not null;index" json:"org_id"`
}
