package models

import (
	"time"

	"gorm.io/gorm"
)

// Response is an append-only submission record. The unique (form_id, email)
// index is the authoritative duplicate-submission signal for quiz forms; the
// email column is nil for categories that do not capture identity, and NULLs
// are exempt from the uniqueness constraint.
type Response struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	FormID uint `json:"form_id" gorm:"not null;index;uniqueIndex:idx_responses_form_email"`
	// TotalScore is set only for quiz submissions; nil means "not
	// applicable", never "scored zero".
	TotalScore  *int           `json:"total_score,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Username    string         `json:"username,omitempty"`
	Email       *string        `json:"email,omitempty" gorm:"uniqueIndex:idx_responses_form_email"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Form    Form     `json:"form,omitempty"`
	Answers []Answer `json:"responses,omitempty" gorm:"foreignKey:ResponseID"`
}
