package models

import (
	"time"
)

// FileType is the coarse content category of an uploaded file
type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypePDF   FileType = "pdf"
	FileTypeCSV   FileType = "csv"
)

var mimeFileTypes = map[string]FileType{
	"image/png":       FileTypeImage,
	"image/jpeg":      FileTypeImage,
	"image/gif":       FileTypeImage,
	"image/webp":      FileTypeImage,
	"application/pdf": FileTypePDF,
	"text/csv":        FileTypeCSV,
}

// FileTypeForMIME maps a Content-Type to a FileType. The second return value
// is false for content types that are not accepted.
func FileTypeForMIME(contentType string) (FileType, bool) {
	t, ok := mimeFileTypes[contentType]
	return t, ok
}

// File is the metadata row for a blob stored outside the database.
// Every file belongs to exactly one organization.
type File struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `gorm:"not null" json:"name"`
	FileID    *string   `gorm:"index" json:"file_id"` // Blob storage key
	Type      *FileType `gorm:"type:varchar(10)" json:"type"`
	OrgID     string    `gorm:"not null;index" json:"org_id"`
	UserID    *uint     `gorm:"index" json:"user_id"` // Uploader

	// Relationships
	User      *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Favorites []Favorite `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"favorites,omitempty"`
}
