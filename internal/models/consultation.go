package models

import "time"

// Consultation statuses. Transitions between them are validated by the
// consultation package; rejected and completed are terminal.
const (
	StatusPending   = "pending"
	StatusAccepted  = "accepted"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
)

// Consultation is the patient-to-doctor request aggregate. The symptom and
// prediction payload is snapshotted from the source artifact at creation
// time, so later artifact changes never alter an open consultation.
type Consultation struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	PatientID  string `gorm:"size:36;not null;index" json:"patientId"`
	DoctorID   string `gorm:"size:36;not null;index" json:"doctorId"`
	ArtifactID string `gorm:"size:36;not null;index" json:"artifactId"`

	SymptomsJSON    string `gorm:"column:symptoms;type:json" json:"-"`
	PredictionsJSON string `gorm:"column:predictions;type:json" json:"-"`
	Message         string `gorm:"type:text" json:"message,omitempty"`
	AttachmentsJSON string `gorm:"column:attachments;type:json" json:"-"`

	Status    string    `gorm:"size:16;default:pending;index" json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Messages []Message `gorm:"foreignKey:ConsultationID" json:"-"`
}

// Symptoms decodes the snapshotted symptom list.
func (c *Consultation) Symptoms() ([]string, error) {
	return decodeStrings(c.SymptomsJSON)
}

// SetSymptoms encodes and stores the symptom list.
func (c *Consultation) SetSymptoms(symptoms []string) error {
	s, err := encodeJSON(symptoms)
	if err != nil {
		return err
	}
	c.SymptomsJSON = s
	return nil
}

// Predictions decodes the snapshotted prediction list.
func (c *Consultation) Predictions() ([]Prediction, error) {
	var preds []Prediction
	if err := decodeJSON(c.PredictionsJSON, &preds); err != nil {
		return nil, err
	}
	return preds, nil
}

// SetPredictions encodes and stores the prediction list.
func (c *Consultation) SetPredictions(preds []Prediction) error {
	s, err := encodeJSON(preds)
	if err != nil {
		return err
	}
	c.PredictionsJSON = s
	return nil
}

// Attachments decodes the attachment references.
func (c *Consultation) Attachments() ([]Attachment, error) {
	var atts []Attachment
	if err := decodeJSON(c.AttachmentsJSON, &atts); err != nil {
		return nil, err
	}
	return atts, nil
}

// SetAttachments encodes and stores the attachment references.
func (c *Consultation) SetAttachments(atts []Attachment) error {
	s, err := encodeJSON(atts)
	if err != nil {
		return err
	}
	c.AttachmentsJSON = s
	return nil
}
