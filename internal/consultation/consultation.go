// Package consultation provides consultation lifecycle operations.
package consultation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/docbridge/docbridge/internal/apperr"
	"github.com/docbridge/docbridge/internal/events"
	"github.com/docbridge/docbridge/internal/models"
	"github.com/docbridge/docbridge/internal/policy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a new consultation.
type CreateOpts struct {
	PatientID   string
	DoctorID    string
	ArtifactID  string
	Symptoms    []string            // defaults to the artifact's symptoms
	Predictions []models.Prediction // defaults to the artifact's predictions
	Message     string
	Attachments []models.Attachment
}

// ValidTransitions maps each status to its valid successor statuses.
// rejected and completed are terminal. accepted → completed is defined in
// the model but reachable by no caller yet; Transition refuses it.
var ValidTransitions = map[string][]string{
	models.StatusPending:  {models.StatusAccepted, models.StatusRejected},
	models.StatusAccepted: {models.StatusCompleted},
}

// knownStatuses is the full status vocabulary, settable or not.
var knownStatuses = map[string]bool{
	models.StatusPending:   true,
	models.StatusAccepted:  true,
	models.StatusRejected:  true,
	models.StatusCompleted: true,
}

// Create creates a consultation in pending status. The symptom and
// prediction payload is snapshotted from the source artifact unless the
// caller supplies its own, so the consultation stays stable even if the
// artifact set changes later.
func Create(db *gorm.DB, opts CreateOpts) (*models.Consultation, error) {
	if opts.PatientID == "" {
		return nil, fmt.Errorf("consultation: %w: patientId is required", apperr.ErrValidation)
	}
	if opts.DoctorID == "" {
		return nil, fmt.Errorf("consultation: %w: doctorId is required", apperr.ErrValidation)
	}
	if opts.ArtifactID == "" {
		return nil, fmt.Errorf("consultation: %w: artifactId is required", apperr.ErrValidation)
	}
	if opts.PatientID == opts.DoctorID {
		return nil, fmt.Errorf("consultation: %w: patient and doctor must differ", apperr.ErrValidation)
	}

	// The doctor must have a complete profile to receive consultations.
	var profile models.DoctorProfile
	if err := db.Where("user_id = ?", opts.DoctorID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("consultation: %w: doctor profile not found or incomplete", apperr.ErrValidation)
		}
		return nil, fmt.Errorf("consultation: check doctor %s: %w", opts.DoctorID, err)
	}

	// The artifact must exist and belong to the requesting patient.
	var artifact models.Artifact
	if err := db.Where("id = ?", opts.ArtifactID).First(&artifact).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("consultation: %w: artifact not found: %s", apperr.ErrValidation, opts.ArtifactID)
		}
		return nil, fmt.Errorf("consultation: check artifact %s: %w", opts.ArtifactID, err)
	}
	if artifact.PatientID != opts.PatientID {
		return nil, fmt.Errorf("consultation: %w: artifact %s does not belong to patient", apperr.ErrValidation, opts.ArtifactID)
	}

	c := models.Consultation{
		ID:         uuid.NewString(),
		PatientID:  opts.PatientID,
		DoctorID:   opts.DoctorID,
		ArtifactID: opts.ArtifactID,
		Message:    strings.TrimSpace(opts.Message),
		Status:     models.StatusPending,
	}

	symptoms := opts.Symptoms
	predictions := opts.Predictions
	if len(symptoms) == 0 {
		s, err := artifact.Symptoms()
		if err != nil {
			return nil, fmt.Errorf("consultation: decode artifact symptoms: %w", err)
		}
		symptoms = s
	}
	if len(predictions) == 0 {
		p, err := artifact.Predictions()
		if err != nil {
			return nil, fmt.Errorf("consultation: decode artifact predictions: %w", err)
		}
		predictions = p
	}
	if err := c.SetSymptoms(symptoms); err != nil {
		return nil, fmt.Errorf("consultation: encode symptoms: %w", err)
	}
	if err := c.SetPredictions(predictions); err != nil {
		return nil, fmt.Errorf("consultation: encode predictions: %w", err)
	}
	if err := c.SetAttachments(opts.Attachments); err != nil {
		return nil, fmt.Errorf("consultation: encode attachments: %w", err)
	}

	if err := db.Create(&c).Error; err != nil {
		return nil, fmt.Errorf("consultation: create: %w", err)
	}
	return &c, nil
}

// Transition moves a consultation to a new status. Only the owning doctor
// may transition. The UPDATE is guarded on the current status, so when two
// transitions race the loser's guard misses and it fails with an invalid
// transition instead of silently overwriting.
func Transition(db *gorm.DB, bus *events.Bus, id, actingUserID, target string) (*models.Consultation, error) {
	var c models.Consultation
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("consultation: %w: %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("consultation: get %s: %w", id, err)
	}

	if actingUserID != c.DoctorID {
		return nil, fmt.Errorf("consultation: %w: only the owning doctor may change status", apperr.ErrUnauthorized)
	}

	if !knownStatuses[target] {
		return nil, fmt.Errorf("consultation: %w: unknown status %q", apperr.ErrValidation, target)
	}
	// completed exists in the model but no caller may set it yet.
	if target == models.StatusCompleted {
		return nil, fmt.Errorf("consultation: %w: %q → %q", apperr.ErrInvalidTransition, c.Status, target)
	}
	if !isValidTransition(c.Status, target) {
		return nil, fmt.Errorf("consultation: %w: %q → %q", apperr.ErrInvalidTransition, c.Status, target)
	}

	now := time.Now()
	result := db.Model(&models.Consultation{}).
		Where("id = ? AND status = ?", id, c.Status).
		Updates(map[string]interface{}{"status": target, "updated_at": now})
	if result.Error != nil {
		return nil, fmt.Errorf("consultation: transition %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		// A concurrent transition won; the observed status is stale.
		return nil, fmt.Errorf("consultation: %w: status changed concurrently", apperr.ErrInvalidTransition)
	}

	old := c.Status
	c.Status = target
	c.UpdatedAt = now

	bus.Publish(events.Event{
		Type:           events.TypeConsultationTransitioned,
		ConsultationID: c.ID,
		PatientID:      c.PatientID,
		DoctorID:       c.DoctorID,
		OldStatus:      old,
		NewStatus:      target,
	})

	return &c, nil
}

// isValidTransition checks whether a status transition is allowed.
func isValidTransition(from, to string) bool {
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// Get retrieves a consultation; only its two parties may read it.
func Get(db *gorm.DB, id, actingUserID string) (*models.Consultation, error) {
	var c models.Consultation
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("consultation: %w: %s", apperr.ErrNotFound, id)
		}
		return nil, fmt.Errorf("consultation: get %s: %w", id, err)
	}
	if !policy.IsParty(&c, actingUserID) {
		return nil, fmt.Errorf("consultation: %w: not a party to %s", apperr.ErrUnauthorized, id)
	}
	return &c, nil
}

// PatientView is a consultation in the patient's list, enriched with the
// patient's rating when one exists.
type PatientView struct {
	models.Consultation
	Rating *models.Rating `json:"rating,omitempty"`
}

// ListForPatient returns a patient's consultations, newest first, each
// joined with its rating if submitted.
func ListForPatient(db *gorm.DB, patientID string) ([]PatientView, error) {
	if patientID == "" {
		return nil, fmt.Errorf("consultation: %w: patientId is required", apperr.ErrValidation)
	}

	var consultations []models.Consultation
	if err := db.Where("patient_id = ?", patientID).
		Order("created_at DESC").Find(&consultations).Error; err != nil {
		return nil, fmt.Errorf("consultation: list for patient %s: %w", patientID, err)
	}
	if len(consultations) == 0 {
		return []PatientView{}, nil
	}

	ids := make([]string, len(consultations))
	for i, c := range consultations {
		ids[i] = c.ID
	}
	var ratings []models.Rating
	if err := db.Where("consultation_id IN ?", ids).Find(&ratings).Error; err != nil {
		return nil, fmt.Errorf("consultation: load ratings: %w", err)
	}
	byConsultation := make(map[string]*models.Rating, len(ratings))
	for i := range ratings {
		byConsultation[ratings[i].ConsultationID] = &ratings[i]
	}

	views := make([]PatientView, len(consultations))
	for i, c := range consultations {
		views[i] = PatientView{Consultation: c, Rating: byConsultation[c.ID]}
	}
	return views, nil
}

// ListForDoctor returns a doctor's consultations, newest first.
func ListForDoctor(db *gorm.DB, doctorID string) ([]models.Consultation, error) {
	if doctorID == "" {
		return nil, fmt.Errorf("consultation: %w: doctorId is required", apperr.ErrValidation)
	}
	var consultations []models.Consultation
	if err := db.Where("doctor_id = ?", doctorID).
		Order("created_at DESC").Find(&consultations).Error; err != nil {
		return nil, fmt.Errorf("consultation: list for doctor %s: %w", doctorID, err)
	}
	return consultations, nil
}
