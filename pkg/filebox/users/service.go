package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mikepea/filebox/pkg/filebox/apierr"
	"github.com/mikepea/filebox/pkg/filebox/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service reads and writes users
type Service struct {
	db *gorm.DB
}

// NewService creates a new users service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Profile is the public part of a user
type Profile struct {
	Name  *string `json:"name"`
	Image *string `json:"image"`
}

// Resolve returns the user with the given token identifier
func (s *Service) Resolve(ctx context.Context, tokenIdentifier string) (*models.User, error) {
	return resolve(s.db.WithContext(ctx), tokenIdentifier)
}

func resolve(db *gorm.DB, tokenIdentifier string) (*models.User, error) {
	var user models.User
	err := db.Where("token_identifier = ?", tokenIdentifier).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.NotFound("expected user to be defined")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// Profile returns the display name and image of a user. An unknown user
// yields an empty profile rather than an error.
func (s *Service) Profile(ctx context.Context, userID uint) (Profile, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Profile{}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("failed to load user: %w", err)
	}
	return Profile{Name: &user.Name, Image: &user.Image}, nil
}

// Create registers a new user with no organizations
func (s *Service) Create(ctx context.Context, tokenIdentifier, name, image string) (*models.User, error) {
	user := models.User{
		TokenIdentifier: tokenIdentifier,
		OrgIDs:          []string{},
		Name:            name,
		Image:           image,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	slog.Info("user created", "user_id", user.ID)
	return &user, nil
}

// Update replaces the display metadata of an existing user
func (s *Service) Update(ctx context.Context, tokenIdentifier, name, image string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := resolve(tx, tokenIdentifier)
		if err != nil {
			return err
		}
		return tx.Model(user).Updates(map[string]interface{}{
			"name":  name,
			"image": image,
		}).Error
	})
}

// Upsert creates the user on first sign-in and refreshes name and image on
// later ones.
func (s *Service) Upsert(ctx context.Context, tokenIdentifier, name, image string) (*models.User, error) {
	user, err := s.Resolve(ctx, tokenIdentifier)
	if errors.Is(err, apierr.ErrNotFound) {
		return s.Create(ctx, tokenIdentifier, name, image)
	}
	if err != nil {
		return nil, err
	}
	if user.Name != name || user.Image != image {
		if err := s.Update(ctx, tokenIdentifier, name, image); err != nil {
			return nil, err
		}
		user.Name, user.Image = name, image
	}
	return user, nil
}

// AddOrgID appends orgID to the user's organizations. Adding an org the
// user already belongs to is a no-op.
func (s *Service) AddOrgID(ctx context.Context, tokenIdentifier, orgID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := resolve(tx, tokenIdentifier)
		if err != nil {
			return err
		}
		if user.BelongsTo(orgID) {
			return nil
		}

		orgIDs := append(append([]string{}, user.OrgIDs...), orgID)
		if err := tx.Model(user).Update("org_ids", datatypes.JSONSlice[string](orgIDs)).Error; err != nil {
			return fmt.Errorf("failed to add org to user: %w", err)
		}
		slog.Info("user joined org", "user_id", user.ID, "org_id", orgID)
		return nil
	})
}
