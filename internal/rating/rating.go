// Package rating records consultation ratings and maintains each
// doctor's derived score summary.
package rating

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/docbridge/docbridge/internal/apperr"
	"github.com/docbridge/docbridge/internal/events"
	"github.com/docbridge/docbridge/internal/identity"
	"github.com/docbridge/docbridge/internal/models"
	"github.com/docbridge/docbridge/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Submit records a patient's rating for an accepted consultation and
// recomputes the doctor's summary. The rating insert and the summary
// update commit as one transaction: a reader never observes one without
// the other.
//
// The summary is always re-derived from the full rating set, never
// incremented. Under concurrent submissions each transaction re-reads
// every rating, so the committed summary is correct regardless of
// interleaving; an incremental update would need a concurrency guarantee
// this design deliberately avoids depending on.
func Submit(db *gorm.DB, bus *events.Bus, consultationID, patientID string, score int, review string) (*models.Rating, error) {
	if score < 1 || score > 5 {
		return nil, fmt.Errorf("rating: %w: score must be between 1 and 5", apperr.ErrValidation)
	}

	var c models.Consultation
	if err := db.Where("id = ?", consultationID).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("rating: %w: consultation %s", apperr.ErrNotFound, consultationID)
		}
		return nil, fmt.Errorf("rating: get consultation %s: %w", consultationID, err)
	}
	if patientID != c.PatientID {
		return nil, fmt.Errorf("rating: %w: only the consultation's patient may rate", apperr.ErrUnauthorized)
	}
	if !policy.IsChatEligible(&c) {
		return nil, fmt.Errorf("rating: %w: rating requires an accepted consultation", apperr.ErrForbiddenState)
	}

	// Friendly pre-check; the unique indexes are the real guard.
	eligible, err := policy.IsRatingEligible(db, &c, patientID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, fmt.Errorf("rating: %w: consultation %s is already rated", apperr.ErrConflict, consultationID)
	}

	rating := models.Rating{
		ID:             uuid.NewString(),
		ConsultationID: c.ID,
		DoctorID:       c.DoctorID,
		PatientID:      patientID,
		Score:          score,
		Review:         strings.TrimSpace(review),
	}

	var avg float64
	var count int64
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rating).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("rating: %w: duplicate rating for consultation or doctor-patient pair", apperr.ErrConflict)
			}
			return fmt.Errorf("rating: create: %w", err)
		}
		a, n, err := Recompute(tx, c.DoctorID)
		if err != nil {
			return err
		}
		avg, count = a, n
		return nil
	})
	if err != nil {
		return nil, err
	}

	bus.Publish(events.Event{
		Type:           events.TypeRatingSubmitted,
		ConsultationID: c.ID,
		PatientID:      patientID,
		DoctorID:       c.DoctorID,
		RatingID:       rating.ID,
		Score:          score,
		AverageScore:   avg,
		RatingCount:    count,
	})

	return &rating, nil
}

// Recompute re-derives a doctor's score summary from the full rating set
// and writes it to the profile. Callers pass their transaction handle so
// the write shares its atomicity.
func Recompute(tx *gorm.DB, doctorID string) (float64, int64, error) {
	var scores []int
	if err := tx.Model(&models.Rating{}).
		Where("doctor_id = ?", doctorID).
		Pluck("score", &scores).Error; err != nil {
		return 0, 0, fmt.Errorf("rating: read scores for doctor %s: %w", doctorID, err)
	}

	count := int64(len(scores))
	var avg float64
	if count > 0 {
		sum := 0
		for _, s := range scores {
			sum += s
		}
		avg = roundHalfUp(float64(sum) / float64(count))
	}

	if err := tx.Model(&models.DoctorProfile{}).
		Where("user_id = ?", doctorID).
		Updates(map[string]interface{}{"average_score": avg, "rating_count": count}).Error; err != nil {
		return 0, 0, fmt.Errorf("rating: update summary for doctor %s: %w", doctorID, err)
	}
	return avg, count, nil
}

// roundHalfUp rounds to one decimal with half-up semantics, matching the
// summary's presentation contract (4.25 → 4.3, never 4.2).
func roundHalfUp(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}

// View is a rating with the reviewer's display name resolved. Contact
// data is deliberately absent.
type View struct {
	models.Rating
	ReviewerName string `json:"reviewerName,omitempty"`
}

// ListForDoctor returns a doctor's ratings, newest first.
func ListForDoctor(ctx context.Context, db *gorm.DB, dir identity.Directory, doctorID string) ([]View, error) {
	if doctorID == "" {
		return nil, fmt.Errorf("rating: %w: doctorId is required", apperr.ErrValidation)
	}

	var ratings []models.Rating
	if err := db.Where("doctor_id = ?", doctorID).
		Order("created_at DESC").Find(&ratings).Error; err != nil {
		return nil, fmt.Errorf("rating: list for doctor %s: %w", doctorID, err)
	}

	views := make([]View, len(ratings))
	for i, r := range ratings {
		views[i] = View{Rating: r}
	}
	if dir != nil && len(ratings) > 0 {
		ids := make([]string, 0, len(ratings))
		seen := map[string]bool{}
		for _, r := range ratings {
			if !seen[r.PatientID] {
				seen[r.PatientID] = true
				ids = append(ids, r.PatientID)
			}
		}
		users, err := dir.Lookup(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("rating: resolve reviewers: %w", err)
		}
		for i := range views {
			views[i].ReviewerName = users[views[i].PatientID].Name
		}
	}
	return views, nil
}
