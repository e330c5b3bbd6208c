package models

import "time"

// Message is one entry in a consultation's chat log. Messages are
// append-only and immutable once written. The auto-increment ID breaks
// ordering ties when two messages land on the same timestamp.
type Message struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ConsultationID string    `gorm:"size:36;not null;index" json:"consultationId"`
	SenderID       string    `gorm:"size:36;not null" json:"senderId"`
	Text           string    `gorm:"type:text;not null" json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}
