package models

import (
	"time"

	"gorm.io/gorm"
)

// Answer is a single entry inside a Response. IsCorrect and Marks are
// populated by the scoring engine for quiz submissions and stay at their zero
// values otherwise.
type Answer struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	ResponseID uint           `json:"response_id" gorm:"not null;index"`
	QuestionID uint           `json:"question_id" gorm:"not null;index"`
	Value      AnswerValue    `json:"response_value" gorm:"type:jsonb;not null"`
	IsCorrect  bool           `json:"is_correct" gorm:"not null;default:false"`
	Marks      int            `json:"marks" gorm:"not null;default:0"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
