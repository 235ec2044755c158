package services

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"formpulse/models"

	"gorm.io/gorm"
)

// emailPattern is deliberately simple: local-part "@" domain "." tld, with no
// whitespace anywhere.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type ResponseService struct {
	db         *gorm.DB
	dispatcher *NotificationDispatcher
	hub        *Hub
}

func NewResponseService(db *gorm.DB, dispatcher *NotificationDispatcher, hub *Hub) *ResponseService {
	return &ResponseService{
		db:         db,
		dispatcher: dispatcher,
		hub:        hub,
	}
}

type SubmitResponseRequest struct {
	FormID    uint          `json:"formId" binding:"required"`
	Responses []AnswerInput `json:"responses" binding:"required,min=1,dive"`
}

type SubmitQuizResponseRequest struct {
	FormID    uint          `json:"formId" binding:"required"`
	Responses []AnswerInput `json:"responses" binding:"required,min=1,dive"`
	Username  string        `json:"username" binding:"required"`
	Email     string        `json:"email" binding:"required"`
}

type QuizSubmissionResult struct {
	Response *models.Response
	Score    int
	MaxScore int
}

// SubmitResponse persists a non-quiz submission. Answers pass through
// unscored and TotalScore stays nil ("not applicable").
func (s *ResponseService) SubmitResponse(req *SubmitResponseRequest) (*models.Response, error) {
	if err := validateSubmission(req.FormID, req.Responses); err != nil {
		return nil, err
	}

	var form models.Form
	if err := s.db.First(&form, req.FormID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	// Quiz submissions must go through the scoring path; an unscored row on
	// a quiz would undercount the score distribution.
	if form.Category == models.CategoryQuiz {
		return nil, ErrQuizForm
	}

	answers := make([]models.Answer, 0, len(req.Responses))
	for _, in := range req.Responses {
		answers = append(answers, models.Answer{
			QuestionID: in.QuestionID,
			Value:      models.AnswerValue(in.ResponseValue),
		})
	}

	response := models.Response{
		FormID:      form.ID,
		Answers:     answers,
		SubmittedAt: time.Now().UTC(),
	}

	if err := s.db.Create(&response).Error; err != nil {
		return nil, err
	}

	s.publishSubmission(&form, &response)
	return &response, nil
}

// SubmitQuizResponse validates, scores and persists a quiz submission, then
// dispatches the score notification without blocking on its outcome.
func (s *ResponseService) SubmitQuizResponse(req *SubmitQuizResponseRequest) (*QuizSubmissionResult, error) {
	if err := validateSubmission(req.FormID, req.Responses); err != nil {
		return nil, err
	}
	if err := validateRespondent(req.Username, req.Email); err != nil {
		return nil, err
	}

	// Fast path: reject known duplicates before loading and scoring.
	exists, err := s.ExistsByFormAndEmail(req.FormID, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateSubmission
	}

	var form models.Form
	if err := s.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order(`questions."order"`)
	}).First(&form, req.FormID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}

	if form.Category != models.CategoryQuiz {
		return nil, ErrNotQuizForm
	}

	scored, totalScore, maxScore := ScoreSubmission(form.Questions, req.Responses)

	answers := make([]models.Answer, 0, len(scored))
	for _, sa := range scored {
		answers = append(answers, models.Answer{
			QuestionID: sa.QuestionID,
			Value:      sa.Value,
			IsCorrect:  sa.IsCorrect,
			Marks:      sa.Marks,
		})
	}

	score := totalScore
	email := req.Email
	response := models.Response{
		FormID:      form.ID,
		Answers:     answers,
		TotalScore:  &score,
		SubmittedAt: time.Now().UTC(),
		Username:    req.Username,
		Email:       &email,
	}

	if err := s.db.Create(&response).Error; err != nil {
		// The unique (form_id, email) index is the authoritative duplicate
		// signal: two near-simultaneous submissions can both pass the
		// pre-check above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateSubmission
		}
		return nil, err
	}

	if s.dispatcher != nil {
		s.dispatcher.DispatchScore(req.Email, req.Username, totalScore, maxScore)
	}
	s.publishSubmission(&form, &response)

	return &QuizSubmissionResult{Response: &response, Score: totalScore, MaxScore: maxScore}, nil
}

// ExistsByFormAndEmail backs the duplicate-submission fast path.
func (s *ResponseService) ExistsByFormAndEmail(formID uint, email string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Response{}).
		Where("form_id = ? AND email = ?", formID, email).
		Count(&count).Error
	return count > 0, err
}

// FindByForm returns all submissions for a form in insertion order.
func (s *ResponseService) FindByForm(formID uint) ([]models.Response, error) {
	var responses []models.Response
	err := s.db.Where("form_id = ?", formID).
		Preload("Answers").
		Order("id").
		Find(&responses).Error
	return responses, err
}

type FormattedAnswer struct {
	QuestionText  string             `json:"question_text"`
	ResponseValue models.AnswerValue `json:"response_value"`
}

type FormattedResponse struct {
	ID          uint              `json:"id"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Username    string            `json:"username,omitempty"`
	TotalScore  *int              `json:"total_score,omitempty"`
	Responses   []FormattedAnswer `json:"responses"`
}

// GetFormResponses returns a form's submissions with question ids resolved to
// question text for display. Owner-scoped.
func (s *ResponseService) GetFormResponses(formID uint, requesterID uint) ([]FormattedResponse, error) {
	var form models.Form
	if err := s.db.Preload("Questions").First(&form, formID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if form.OwnerID != requesterID {
		return nil, ErrNotOwner
	}

	responses, err := s.FindByForm(formID)
	if err != nil {
		return nil, err
	}

	questionText := make(map[uint]string, len(form.Questions))
	for _, q := range form.Questions {
		questionText[q.ID] = q.Text
	}

	formatted := make([]FormattedResponse, 0, len(responses))
	for _, r := range responses {
		fr := FormattedResponse{
			ID:          r.ID,
			SubmittedAt: r.SubmittedAt,
			Username:    r.Username,
			TotalScore:  r.TotalScore,
			Responses:   make([]FormattedAnswer, 0, len(r.Answers)),
		}
		for _, a := range r.Answers {
			text, ok := questionText[a.QuestionID]
			if !ok {
				text = "Unknown Question"
			}
			fr.Responses = append(fr.Responses, FormattedAnswer{
				QuestionText:  text,
				ResponseValue: a.Value,
			})
		}
		formatted = append(formatted, fr)
	}
	return formatted, nil
}

func (s *ResponseService) publishSubmission(form *models.Form, response *models.Response) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToForm(form.ID, "submission_received", map[string]interface{}{
		"form_id":      form.ID,
		"response_id":  response.ID,
		"submitted_at": response.SubmittedAt,
		"total_score":  response.TotalScore,
	})
}

func validateSubmission(formID uint, answers []AnswerInput) error {
	if formID == 0 {
		return newValidationError(MissingField, "formId is required")
	}
	if len(answers) == 0 {
		return newValidationError(MalformedPayload, "responses must be a non-empty array")
	}
	for _, a := range answers {
		if a.QuestionID == 0 {
			return newValidationError(MalformedPayload, "each response needs a questionId")
		}
		if len(a.ResponseValue) == 0 {
			return newValidationError(MalformedPayload, "each response needs a responseValue")
		}
	}
	return nil
}

func validateRespondent(username, email string) error {
	if strings.TrimSpace(username) == "" {
		return newValidationError(MissingField, "username is required")
	}
	if email == "" {
		return newValidationError(MissingField, "email is required")
	}
	if !emailPattern.MatchString(email) {
		return newValidationError(InvalidEmail, "invalid email format")
	}
	return nil
}
