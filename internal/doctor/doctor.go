// Package doctor provides doctor profile operations.
//
// A doctor is discoverable by patients only once a complete profile
// exists; consultation creation validates against the same table.
package doctor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docbridge/docbridge/internal/apperr"
	"github.com/docbridge/docbridge/internal/identity"
	"github.com/docbridge/docbridge/internal/models"
	"gorm.io/gorm"
)

// ProfileOpts holds the editable profile fields. Category and Experience
// are written on every upsert; an empty Bio or ProfileImage means "keep
// the stored value", so neither can be cleared through this call.
type ProfileOpts struct {
	Category     string
	Experience   int
	Bio          string
	ProfileImage string
}

// UpsertProfile creates or updates a doctor's profile.
func UpsertProfile(db *gorm.DB, userID string, opts ProfileOpts) (*models.DoctorProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("doctor: %w: userId is required", apperr.ErrValidation)
	}
	opts.Category = strings.TrimSpace(opts.Category)
	if opts.Category == "" {
		return nil, fmt.Errorf("doctor: %w: category is required", apperr.ErrValidation)
	}
	if opts.Experience < 0 {
		return nil, fmt.Errorf("doctor: %w: experience must not be negative", apperr.ErrValidation)
	}

	var profile models.DoctorProfile
	err := db.Where("user_id = ?", userID).First(&profile).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		profile = models.DoctorProfile{
			UserID:       userID,
			Category:     opts.Category,
			Experience:   opts.Experience,
			Bio:          opts.Bio,
			ProfileImage: opts.ProfileImage,
		}
		if err := db.Create(&profile).Error; err != nil {
			return nil, fmt.Errorf("doctor: create profile: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("doctor: get profile %s: %w", userID, err)
	default:
		updates := map[string]interface{}{
			"category":   opts.Category,
			"experience": opts.Experience,
		}
		// Bio and image keep their previous value when omitted.
		if opts.Bio != "" {
			updates["bio"] = opts.Bio
		}
		if opts.ProfileImage != "" {
			updates["profile_image"] = opts.ProfileImage
		}
		if err := db.Model(&profile).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("doctor: update profile %s: %w", userID, err)
		}
		if err := db.First(&profile, "user_id = ?", userID).Error; err != nil {
			return nil, fmt.Errorf("doctor: reload profile %s: %w", userID, err)
		}
	}
	return &profile, nil
}

// GetProfile returns a doctor's own profile.
func GetProfile(db *gorm.DB, userID string) (*models.DoctorProfile, error) {
	var profile models.DoctorProfile
	if err := db.Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("doctor: %w: profile for %s", apperr.ErrNotFound, userID)
		}
		return nil, fmt.Errorf("doctor: get profile %s: %w", userID, err)
	}
	return &profile, nil
}

// Listing is a browsable doctor: profile plus directory display data.
type Listing struct {
	models.DoctorProfile
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// ListComplete returns all doctors with a complete profile, names
// resolved through the directory. Profiles whose user the directory no
// longer knows are filtered out rather than listed nameless.
func ListComplete(ctx context.Context, db *gorm.DB, dir identity.Directory) ([]Listing, error) {
	var profiles []models.DoctorProfile
	if err := db.Order("created_at DESC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("doctor: list profiles: %w", err)
	}
	if len(profiles) == 0 {
		return []Listing{}, nil
	}

	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.UserID
	}
	users, err := dir.Lookup(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("doctor: resolve names: %w", err)
	}

	listings := make([]Listing, 0, len(profiles))
	for _, p := range profiles {
		u, ok := users[p.UserID]
		if !ok {
			continue
		}
		listings = append(listings, Listing{DoctorProfile: p, Name: u.Name, Email: u.Email})
	}
	return listings, nil
}
