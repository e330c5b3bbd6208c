package models

import "time"

// DoctorProfile holds a doctor's practice details plus the derived score
// summary. AverageScore and RatingCount are recomputed from the full
// rating set inside the same transaction as every rating insert; they are
// never incremented in place.
type DoctorProfile struct {
	UserID       string    `gorm:"primaryKey;size:36" json:"userId"`
	Category     string    `gorm:"size:64;not null" json:"category"`
	Experience   int       `gorm:"not null" json:"experience"`
	Bio          string    `gorm:"type:text" json:"bio,omitempty"`
	ProfileImage string    `gorm:"size:255" json:"profileImage,omitempty"`
	AverageScore float64   `gorm:"default:0" json:"averageScore"`
	RatingCount  int64     `gorm:"default:0" json:"ratingCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
