package models

import (
	"time"

	"gorm.io/gorm"
)

// Form categories. Quiz is the only scored category: quiz forms carry
// TotalMarks and their submissions go through the scoring engine.
const (
	CategorySurvey       = "Survey"
	CategoryFeedback     = "Feedback"
	CategoryRegistration = "Registration"
	CategoryQuiz         = "Quiz"
	CategoryPoll         = "Poll"
	CategoryApplication  = "Application"
	CategoryAssessment   = "Assessment"
	CategoryOrderForm    = "Order Form"
	CategoryOthers       = "Others"
)

var FormCategories = []string{
	CategorySurvey,
	CategoryFeedback,
	CategoryRegistration,
	CategoryQuiz,
	CategoryPoll,
	CategoryApplication,
	CategoryAssessment,
	CategoryOrderForm,
	CategoryOthers,
}

func IsValidCategory(category string) bool {
	for _, c := range FormCategories {
		if c == category {
			return true
		}
	}
	return false
}

type Form struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description"`
	Category    string `json:"category" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	// TotalMarks is the sum of question marks, maintained only for Quiz
	// forms; nil for every other category.
	TotalMarks *int           `json:"total_marks,omitempty"`
	OwnerID    uint           `json:"owner_id" gorm:"not null;index"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Owner     User       `json:"owner,omitempty"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:FormID"`
}
