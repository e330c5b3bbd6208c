package rating

import (
	"fmt"

	"github.com/docbridge/docbridge/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Audit re-derives every doctor's score summary from the raw rating set
// and repairs any drift. Summaries are written transactionally with each
// rating, so drift indicates a bug or out-of-band data change; the audit
// exists to detect that, log it, and restore the invariant. Returns the
// number of repaired summaries.
func Audit(db *gorm.DB, logger *zap.Logger) (int, error) {
	var profiles []models.DoctorProfile
	if err := db.Find(&profiles).Error; err != nil {
		return 0, fmt.Errorf("rating: audit: load profiles: %w", err)
	}

	repaired := 0
	for _, p := range profiles {
		p := p
		err := db.Transaction(func(tx *gorm.DB) error {
			avg, count, err := Recompute(tx, p.UserID)
			if err != nil {
				return err
			}
			if avg != p.AverageScore || count != p.RatingCount {
				repaired++
				logger.Warn("rating summary drift repaired",
					zap.String("doctor_id", p.UserID),
					zap.Float64("stored_average", p.AverageScore),
					zap.Float64("derived_average", avg),
					zap.Int64("stored_count", p.RatingCount),
					zap.Int64("derived_count", count),
				)
			}
			return nil
		})
		if err != nil {
			return repaired, err
		}
	}

	logger.Info("rating summary audit complete",
		zap.Int("doctors", len(profiles)),
		zap.Int("repaired", repaired),
	)
	return repaired, nil
}
