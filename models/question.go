package models

import (
	"time"

	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionNumber         QuestionType = "number"
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionCheckbox       QuestionType = "checkbox"
	QuestionDropdown       QuestionType = "dropdown"
)

type Question struct {
	ID     uint         `json:"id" gorm:"primaryKey"`
	FormID uint         `json:"form_id" gorm:"not null;index"`
	Text   string       `json:"text" gorm:"not null"`
	Type   QuestionType `json:"type" gorm:"not null"`
	Order  int          `json:"order" gorm:"not null"`
	// Marks is meaningful only on Quiz forms; scoring awards 1 point when
	// unset.
	Marks *int `json:"marks,omitempty"`
	// CorrectAnswer is a scalar for text/number/multiple-choice/dropdown
	// questions and an array for checkbox questions.
	CorrectAnswer AnswerValue    `json:"correct_answer,omitempty" gorm:"type:jsonb"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Options []Option `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
}
