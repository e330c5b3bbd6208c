// Package artifact stores prediction results and renders them for
// export. An artifact is immutable once written; consultations snapshot
// its payload instead of pointing into it.
package artifact

import (
	"errors"
	"fmt"
	"strings"

	"github.com/docbridge/docbridge/internal/apperr"
	"github.com/docbridge/docbridge/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Create stores a prediction run for a patient. The symptom list must
// contain at least one non-blank entry.
func Create(db *gorm.DB, patientID string, symptoms []string, preds []models.Prediction) (*models.Artifact, error) {
	if patientID == "" {
		return nil, fmt.Errorf("artifact: %w: patientId is required", apperr.ErrValidation)
	}
	cleaned := make([]string, 0, len(symptoms))
	for _, s := range symptoms {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("artifact: %w: at least one symptom is required", apperr.ErrValidation)
	}

	a := models.Artifact{
		ID:        uuid.NewString(),
		PatientID: patientID,
	}
	if err := a.SetSymptoms(cleaned); err != nil {
		return nil, fmt.Errorf("artifact: encode symptoms: %w", err)
	}
	if err := a.SetPredictions(preds); err != nil {
		return nil, fmt.Errorf("artifact: encode predictions: %w", err)
	}
	if err := db.Create(&a).Error; err != nil {
		return nil, fmt.Errorf("artifact: create: %w", err)
	}
	return &a, nil
}

// Get returns an artifact readable by the given user. The owning patient
// always may; a doctor may once a consultation references the artifact
// and names them.
func Get(db *gorm.DB, id, userID string) (*models.Artifact, error) {
	var a models.Artifact
	if err := db.First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("artifact: %w: %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("artifact: get %s: %w", id, err)
	}
	ok, err := canRead(db, &a, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("artifact: %w: %s may not read %s", apperr.ErrUnauthorized, userID, id)
	}
	return &a, nil
}

// ListForPatient returns a patient's own artifacts, newest first.
func ListForPatient(db *gorm.DB, patientID string) ([]models.Artifact, error) {
	var out []models.Artifact
	err := db.Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("artifact: list for patient %s: %w", patientID, err)
	}
	return out, nil
}

func canRead(db *gorm.DB, a *models.Artifact, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	if a.PatientID == userID {
		return true, nil
	}
	var count int64
	err := db.Model(&models.Consultation{}).
		Where("artifact_id = ? AND doctor_id = ?", a.ID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("artifact: check doctor access: %w", err)
	}
	return count > 0, nil
}
