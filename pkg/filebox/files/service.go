// Package files implements the organization-scoped file operations: upload
// URL issuance, create, list, delete and favorite toggling.
package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mikepea/filebox/pkg/filebox/access"
	"github.com/mikepea/filebox/pkg/filebox/apierr"
	"github.com/mikepea/filebox/pkg/filebox/auth"
	"github.com/mikepea/filebox/pkg/filebox/models"
	"github.com/mikepea/filebox/pkg/filebox/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	msgLoginRequired = "you must be logged in to upload a file"
	msgNoOrgAccess   = "you do not have access to this org"
	msgFileNotFound  = "this file does not exist"
)

// Service performs file operations on behalf of a caller
type Service struct {
	db      *gorm.DB
	access  *access.Checker
	storage storage.Storage
}

// NewService creates a new files service
func NewService(db *gorm.DB, checker *access.Checker, store storage.Storage) *Service {
	return &Service{db: db, access: checker, storage: store}
}

// CreateInput describes a file to record
type CreateInput struct {
	Name   string
	FileID *string
	Type   *models.FileType
	OrgID  string
}

// ListFilter narrows a file listing. Zero values mean no filtering.
type ListFilter struct {
	Query     string
	Favorites bool
	Type      models.FileType
}

// FileWithURL is a file together with the current download URL of its blob.
// URL is nil when the blob is missing.
type FileWithURL struct {
	models.File
	URL *string `json:"url"`
}

// GenerateUploadURL mints a fresh upload destination for an authenticated
// caller. Nothing is written to the database.
func (s *Service) GenerateUploadURL(ctx context.Context, caller auth.Identity) (storage.Upload, error) {
	if !caller.Authenticated() {
		return storage.Upload{}, apierr.Unauthenticated(msgLoginRequired)
	}

	upload, err := s.storage.NewUpload(ctx)
	if err != nil {
		return storage.Upload{}, fmt.Errorf("failed to create upload URL: %w", err)
	}
	return upload, nil
}

// Create records a file in orgID for the caller
func (s *Service) Create(ctx context.Context, caller auth.Identity, in CreateInput) (*models.File, error) {
	if !caller.Authenticated() {
		return nil, apierr.Unauthenticated(msgLoginRequired)
	}

	decision, err := s.access.Check(ctx, caller.TokenIdentifier, in.OrgID)
	if err != nil {
		return nil, err
	}
	if !decision.Granted {
		return nil, apierr.AccessDenied(msgNoOrgAccess)
	}

	file := models.File{
		Name:   in.Name,
		FileID: in.FileID,
		Type:   in.Type,
		OrgID:  in.OrgID,
		UserID: &decision.User.ID,
	}
	if err := s.db.WithContext(ctx).Create(&file).Error; err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	slog.Info("file created", "file_id", file.ID, "org_id", file.OrgID, "user_id", decision.User.ID)
	return &file, nil
}

// List returns the files of orgID in insertion order, each with its
// download URL. Anonymous callers and callers without access to the org get
// an empty list; a caller with no user record is still an error.
func (s *Service) List(ctx context.Context, caller auth.Identity, orgID string, filter ListFilter) ([]FileWithURL, error) {
	result := []FileWithURL{}
	if !caller.Authenticated() {
		return result, nil
	}

	decision, err := s.access.Check(ctx, caller.TokenIdentifier, orgID)
	if err != nil {
		return nil, err
	}
	if !decision.Granted {
		return result, nil
	}

	db := s.db.WithContext(ctx)
	var files []models.File
	if err := db.Where("org_id = ?", orgID).Order("id ASC").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	var favorites map[uint]bool
	if filter.Favorites {
		var ids []uint
		err := db.Model(&models.Favorite{}).
			Where("user_id = ? AND org_id = ?", decision.User.ID, orgID).
			Pluck("file_id", &ids).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load favorites: %w", err)
		}
		favorites = make(map[uint]bool, len(ids))
		for _, id := range ids {
			favorites[id] = true
		}
	}

	query := strings.ToLower(filter.Query)
	for _, file := range files {
		if query != "" && !strings.Contains(strings.ToLower(file.Name), query) {
			continue
		}
		if filter.Favorites && !favorites[file.ID] {
			continue
		}
		if filter.Type != "" && (file.Type == nil || *file.Type != filter.Type) {
			continue
		}

		item := FileWithURL{File: file}
		if file.FileID != nil {
			url, err := s.storage.URL(ctx, *file.FileID)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve file URL: %w", err)
			}
			item.URL = url
		}
		result = append(result, item)
	}

	return result, nil
}

// loadAuthorized returns the file with id after checking the caller may act
// on the file's org.
func (s *Service) loadAuthorized(ctx context.Context, caller auth.Identity, id uint) (*models.File, *models.User, error) {
	if !caller.Authenticated() {
		return nil, nil, apierr.Unauthenticated(msgLoginRequired)
	}

	var file models.File
	err := s.db.WithContext(ctx).First(&file, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apierr.NotFound(msgFileNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load file: %w", err)
	}

	decision, err := s.access.Check(ctx, caller.TokenIdentifier, file.OrgID)
	if err != nil {
		return nil, nil, err
	}
	if !decision.Granted {
		return nil, nil, apierr.AccessDenied(msgNoOrgAccess)
	}
	return &file, decision.User, nil
}

// Delete removes a file and its favorites, then its blob. A blob that cannot
// be removed is logged and left behind.
func (s *Service) Delete(ctx context.Context, caller auth.Identity, id uint) error {
	file, user, err := s.loadAuthorized(ctx, caller, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", file.ID).Delete(&models.Favorite{}).Error; err != nil {
			return fmt.Errorf("failed to delete favorites: %w", err)
		}
		res := tx.Delete(&models.File{}, file.ID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete file: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apierr.NotFound(msgFileNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("file deleted", "file_id", file.ID, "org_id", file.OrgID, "user_id", user.ID)

	if file.FileID != nil {
		if err := s.storage.Delete(ctx, *file.FileID); err != nil {
			slog.Error("failed to delete blob", "file_id", file.ID, "storage_id", *file.FileID, "error", err)
		}
	}
	return nil
}

// ToggleFavorite favorites the file for the caller, or unfavorites it when
// it already is one. It returns whether the file is a favorite afterwards.
func (s *Service) ToggleFavorite(ctx context.Context, caller auth.Identity, id uint) (bool, error) {
	file, user, err := s.loadAuthorized(ctx, caller, id)
	if err != nil {
		return false, err
	}

	var favorited bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND file_id = ?", user.ID, file.ID).Delete(&models.Favorite{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove favorite: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			favorited = false
			return nil
		}

		favorite := models.Favorite{UserID: user.ID, FileID: file.ID, OrgID: file.OrgID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&favorite).Error; err != nil {
			return fmt.Errorf("failed to add favorite: %w", err)
		}
		favorited = true
		return nil
	})
	if err != nil {
		return false, err
	}

	slog.Info("favorite toggled", "file_id", file.ID, "user_id", user.ID, "favorited", favorited)
	return favorited, nil
}
