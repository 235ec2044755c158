package services

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"

	"formpulse/models"

	"gorm.io/gorm"
)

type FormService struct {
	db *gorm.DB
}

func NewFormService(db *gorm.DB) *FormService {
	return &FormService{db: db}
}

type CreateFormRequest struct {
	Title       string                  `json:"title" binding:"required"`
	Description string                  `json:"description"`
	Category    string                  `json:"category" binding:"required,formcategory"`
	Questions   []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

type CreateQuestionRequest struct {
	Text          string          `json:"text" binding:"required"`
	Type          string          `json:"type" binding:"required,oneof=text number multiple-choice checkbox dropdown"`
	Options       []string        `json:"options"`
	Order         int             `json:"order" binding:"required"`
	Marks         *int            `json:"marks" binding:"omitempty,min=1"`
	CorrectAnswer json.RawMessage `json:"correctAnswer"`
}

func (s *FormService) CreateForm(ownerID uint, req *CreateFormRequest) (*models.Form, error) {
	// Start transaction
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	slug, err := s.uniqueSlug(tx)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	form := models.Form{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Slug:        slug,
		OwnerID:     ownerID,
	}

	if err := tx.Create(&form).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	// Create questions and options
	for _, qReq := range req.Questions {
		question := models.Question{
			FormID:        form.ID,
			Text:          qReq.Text,
			Type:          models.QuestionType(qReq.Type),
			Order:         qReq.Order,
			Marks:         qReq.Marks,
			CorrectAnswer: models.AnswerValue(qReq.CorrectAnswer),
		}

		if err := tx.Create(&question).Error; err != nil {
			tx.Rollback()
			return nil, err
		}

		for i, text := range qReq.Options {
			option := models.Option{
				QuestionID: question.ID,
				Text:       text,
				Order:      i + 1,
			}

			if err := tx.Create(&option).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	// Quiz forms carry the sum of their question marks; other categories
	// keep total_marks NULL.
	if form.Category == models.CategoryQuiz {
		totalMarks := 0
		for _, qReq := range req.Questions {
			if qReq.Marks != nil {
				totalMarks += *qReq.Marks
			}
		}
		if err := tx.Model(&form).Update("total_marks", totalMarks).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return s.GetFormByID(form.ID, ownerID)
}

func (s *FormService) GetUserForms(ownerID uint) ([]models.Form, error) {
	var forms []models.Form
	err := s.db.Where("owner_id = ?", ownerID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order"`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`options."order"`)
		}).
		Order("created_at DESC").
		Find(&forms).Error
	return forms, err
}

func (s *FormService) GetFormByID(formID uint, ownerID uint) (*models.Form, error) {
	var form models.Form
	err := s.db.Where("id = ? AND owner_id = ?", formID, ownerID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order"`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`options."order"`)
		}).
		First(&form).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFormNotFound
	}
	return &form, err
}

// GetFormBySlug loads a form for a respondent. Correct answers are stripped
// so the payload never leaks the answer key.
func (s *FormService) GetFormBySlug(slug string) (*models.Form, error) {
	var form models.Form
	err := s.db.Where("slug = ?", slug).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order(`questions."order"`)
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order(`options."order"`)
		}).
		First(&form).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, err
	}

	for i := range form.Questions {
		form.Questions[i].CorrectAnswer = nil
	}
	return &form, nil
}

// IsOwner reports whether the user owns the form; ErrFormNotFound when the
// form does not exist.
func (s *FormService) IsOwner(formID uint, userID uint) error {
	var form models.Form
	if err := s.db.Select("id", "owner_id").First(&form, formID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFormNotFound
		}
		return err
	}
	if form.OwnerID != userID {
		return ErrNotOwner
	}
	return nil
}

func (s *FormService) DeleteForm(formID uint, ownerID uint) error {
	if _, err := s.GetFormByID(formID, ownerID); err != nil {
		return err
	}

	return s.db.Delete(&models.Form{}, formID).Error
}

func (s *FormService) uniqueSlug(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		slug := generateSlug()
		var count int64
		if err := tx.Model(&models.Form{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
	}
	return "", errors.New("could not allocate a unique form slug")
}

func generateSlug() string {
	bytes := make([]byte, 5)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
