package models

import "time"

// Rating is a patient's one-time score for a doctor after an accepted
// consultation. Both unique indexes are load-bearing: they are what makes
// concurrent duplicate submissions lose at the storage layer instead of
// racing a pre-check.
type Rating struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ConsultationID string    `gorm:"size:36;not null;uniqueIndex" json:"consultationId"`
	DoctorID       string    `gorm:"size:36;not null;uniqueIndex:idx_ratings_doctor_patient;index" json:"doctorId"`
	PatientID      string    `gorm:"size:36;not null;uniqueIndex:idx_ratings_doctor_patient" json:"patientId"`
	Score          int       `gorm:"not null" json:"score"`
	Review         string    `gorm:"type:text" json:"review,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
