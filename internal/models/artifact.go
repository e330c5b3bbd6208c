package models

import "time"

// Artifact is a stored prediction result. Consultations reference an
// artifact at creation time and snapshot its payload; the artifact itself
// is immutable after creation.
type Artifact struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	PatientID string `gorm:"size:36;not null;index" json:"patientId"`

	SymptomsJSON    string `gorm:"column:symptoms;type:json" json:"-"`
	PredictionsJSON string `gorm:"column:predictions;type:json" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
}

// Symptoms decodes the symptom list the prediction was made from.
func (a *Artifact) Symptoms() ([]string, error) {
	return decodeStrings(a.SymptomsJSON)
}

// SetSymptoms encodes and stores the symptom list.
func (a *Artifact) SetSymptoms(symptoms []string) error {
	s, err := encodeJSON(symptoms)
	if err != nil {
		return err
	}
	a.SymptomsJSON = s
	return nil
}

// Predictions decodes the stored prediction list.
func (a *Artifact) Predictions() ([]Prediction, error) {
	var preds []Prediction
	if err := decodeJSON(a.PredictionsJSON, &preds); err != nil {
		return nil, err
	}
	return preds, nil
}

// SetPredictions encodes and stores the prediction list.
func (a *Artifact) SetPredictions(preds []Prediction) error {
	s, err := encodeJSON(preds)
	if err != nil {
		return err
	}
	a.PredictionsJSON = s
	return nil
}
