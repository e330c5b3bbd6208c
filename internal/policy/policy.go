// Package policy holds the shared access predicates for consultations.
//
// The message channel and the rating aggregator both gate on these
// instead of carrying their own copies of the rules.
package policy

import (
	"fmt"

	"github.com/docbridge/docbridge/internal/models"
	"gorm.io/gorm"
)

// IsParty reports whether userID is the consultation's patient or doctor.
func IsParty(c *models.Consultation, userID string) bool {
	return userID != "" && (userID == c.PatientID || userID == c.DoctorID)
}

// IsChatEligible reports whether the consultation's state allows chat.
func IsChatEligible(c *models.Consultation) bool {
	return c.Status == models.StatusAccepted
}

// IsRatingEligible reports whether userID may submit a rating for the
// consultation: chat-eligible state, patient only, and no prior rating.
// The no-prior-rating read is advisory; the unique index on ratings is
// what holds under concurrent submissions.
func IsRatingEligible(db *gorm.DB, c *models.Consultation, userID string) (bool, error) {
	if !IsChatEligible(c) || userID != c.PatientID {
		return false, nil
	}
	var count int64
	if err := db.Model(&models.Rating{}).
		Where("consultation_id = ?", c.ID).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("policy: check prior rating for %s: %w", c.ID, err)
	}
	return count == 0, nil
}
