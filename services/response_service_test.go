package services

import (
	"encoding/json"
	"errors"
	"testing"

	"formpulse/models"
)

func quizRequest(form *models.Form, email string) *SubmitQuizResponseRequest {
	return &SubmitQuizResponseRequest{
		FormID:   form.ID,
		Username: "alice",
		Email:    email,
		Responses: []AnswerInput{
			{QuestionID: form.Questions[0].ID, ResponseValue: json.RawMessage(`"Paris"`)},
			{QuestionID: form.Questions[1].ID, ResponseValue: json.RawMessage(`[2, 1]`)},
		},
	}
}

func TestSubmitQuizResponse_ScoresAndPersists(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	form := createTestQuiz(t, db, owner.ID)
	service := NewResponseService(db, nil, nil)

	result, err := service.SubmitQuizResponse(quizRequest(form, "alice@example.com"))
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if result.Score != 8 || result.MaxScore != 8 {
		t.Fatalf("expected 8/8, got %d/%d", result.Score, result.MaxScore)
	}

	var stored models.Response
	if err := db.Preload("Answers").First(&stored, result.Response.ID).Error; err != nil {
		t.Fatalf("load stored response: %v", err)
	}
	if stored.TotalScore == nil || *stored.TotalScore != 8 {
		t.Fatalf("expected stored total score 8, got %v", stored.TotalScore)
	}
	if stored.Email == nil || *stored.Email != "alice@example.com" {
		t.Fatalf("expected stored email, got %v", stored.Email)
	}
	if len(stored.Answers) != 2 {
		t.Fatalf("expected 2 stored answers, got %d", len(stored.Answers))
	}
	for _, a := range stored.Answers {
		if !a.IsCorrect || a.Marks == 0 {
			t.Errorf("answer %d expected correct with marks, got %+v", a.QuestionID, a)
		}
	}
}

func TestSubmitQuizResponse_DuplicateEmailRejected(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	form := createTestQuiz(t, db, owner.ID)
	service := NewResponseService(db, nil, nil)

	if _, err := service.SubmitQuizResponse(quizRequest(form, "alice@example.com")); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	_, err := service.SubmitQuizResponse(quizRequest(form, "alice@example.com"))
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("expected ErrDuplicateSubmission, got %v", err)
	}

	var count int64
	db.Model(&models.Response{}).Where("form_id = ?", form.ID).Count(&count)
	if count != 1 {
		t.Fatalf("expected single stored response, got %d", count)
	}
}

func TestSubmitQuizResponse_SameEmailDifferentForms(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	first := createTestQuiz(t, db, owner.ID)
	second := createTestQuiz(t, db, owner.ID)

	service := NewResponseService(db, nil, nil)
	if _, err := service.SubmitQuizResponse(quizRequest(first, "alice@example.com")); err != nil {
		t.Fatalf("first form submit failed: %v", err)
	}
	if _, err := service.SubmitQuizResponse(quizRequest(second, "alice@example.com")); err != nil {
		t.Fatalf("same email on another form must be allowed: %v", err)
	}
}

func TestSubmitQuizResponse_NonQuizFormRejected(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	form := createTestQuiz(t, db, owner.ID)
	if err := db.Model(&models.Form{}).Where("id = ?", form.ID).Update("category", models.CategorySurvey).Error; err != nil {
		t.Fatalf("recategorize form: %v", err)
	}

	service := NewResponseService(db, nil, nil)
	_, err := service.SubmitQuizResponse(quizRequest(form, "alice@example.com"))
	if !errors.Is(err, ErrNotQuizForm) {
		t.Fatalf("expected ErrNotQuizForm, got %v", err)
	}
}

func TestSubmitQuizResponse_MissingFormNotFound(t *testing.T) {
	db := newTestDB(t)
	service := NewResponseService(db, nil, nil)

	_, err := service.SubmitQuizResponse(&SubmitQuizResponseRequest{
		FormID:    999,
		Username:  "alice",
		Email:     "alice@example.com",
		Responses: []AnswerInput{{QuestionID: 1, ResponseValue: json.RawMessage(`"x"`)}},
	})
	if !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("expected ErrFormNotFound, got %v", err)
	}
}

func TestSubmitQuizResponse_ValidationKinds(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	form := createTestQuiz(t, db, owner.ID)
	service := NewResponseService(db, nil, nil)

	cases := []struct {
		name string
		req  *SubmitQuizResponseRequest
		kind ValidationKind
	}{
		{
			name: "missing form id",
			req: &SubmitQuizResponseRequest{
				Username:  "alice",
				Email:     "alice@example.com",
				Responses: []AnswerInput{{QuestionID: 1, ResponseValue: json.RawMessage(`"x"`)}},
			},
			kind: MissingField,
		},
		{
			name: "empty responses",
			req: &SubmitQuizResponseRequest{
				FormID:   form.ID,
				Username: "alice",
				Email:    "alice@example.com",
			},
			kind: MalformedPayload,
		},
		{
			name: "answer without value",
			req: &SubmitQuizResponseRequest{
				FormID:    form.ID,
				Username:  "alice",
				Email:     "alice@example.com",
				Responses: []AnswerInput{{QuestionID: 1}},
			},
			kind: MalformedPayload,
		},
		{
			name: "blank username",
			req: &SubmitQuizResponseRequest{
				FormID:    form.ID,
				Username:  "   ",
				Email:     "alice@example.com",
				Responses: []AnswerInput{{QuestionID: 1, ResponseValue: json.RawMessage(`"x"`)}},
			},
			kind: MissingField,
		},
		{
			name: "bad email",
			req: &SubmitQuizResponseRequest{
				FormID:    form.ID,
				Username:  "alice",
				Email:     "not-an-email",
				Responses: []AnswerInput{{QuestionID: 1, ResponseValue: json.RawMessage(`"x"`)}},
			},
			kind: InvalidEmail,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.SubmitQuizResponse(tc.req)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if vErr.Kind != tc.kind {
				t.Fatalf("expected kind %s, got %s", tc.kind, vErr.Kind)
			}
		})
	}

	var count int64
	db.Model(&models.Response{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected submissions must not be stored, found %d", count)
	}
}

func TestSubmitResponse_NonQuizLeavesScoreNil(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	form := createTestQuiz(t, db, owner.ID)
	if err := db.Model(&models.Form{}).Where("id = ?", form.ID).Update("category", models.CategoryFeedback).Error; err != nil {
		t.Fatalf("recategorize form: %v", err)
	}

	service := NewResponseService(db, nil, nil)
	response, err := service.SubmitResponse(&SubmitResponseRequest{
		FormID: form.ID,
		Responses: []AnswerInput{
			{QuestionID: form.Questions[0].ID, ResponseValue: json.RawMessage(`"Loved the workshop"`)},
		},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if response.TotalScore != nil {
		t.Fatalf("non-quiz submissions carry no score, got %v", *response.TotalScore)
	}

	var stored models.Response
	if err := db.Preload("Answers").First(&stored, response.ID).Error; err != nil {
		t.Fatalf("load stored response: %v", err)
	}
	if len(stored.Answers) != 1 || stored.Answers[0].IsCorrect {
		t.Fatalf("expected one unscored answer, got %+v", stored.Answers)
	}
}

func TestSubmitResponse_QuizFormRejected(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	form := createTestQuiz(t, db, owner.ID)
	service := NewResponseService(db, nil, nil)

	_, err := service.SubmitResponse(&SubmitResponseRequest{
		FormID: form.ID,
		Responses: []AnswerInput{
			{QuestionID: form.Questions[0].ID, ResponseValue: json.RawMessage(`"Paris"`)},
		},
	})
	if !errors.Is(err, ErrQuizForm) {
		t.Fatalf("expected ErrQuizForm, got %v", err)
	}

	// No unscored row lands on the quiz, so bucket counts always cover every
	// stored submission.
	var count int64
	db.Model(&models.Response{}).Where("form_id = ?", form.ID).Count(&count)
	if count != 0 {
		t.Fatalf("rejected generic submission must not be stored, found %d", count)
	}
}

func TestGetFormResponses_OwnerScopedWithQuestionText(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	other := createTestUser(t, db, "other")
	form := createTestQuiz(t, db, owner.ID)
	service := NewResponseService(db, nil, nil)

	if _, err := service.SubmitQuizResponse(quizRequest(form, "alice@example.com")); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := service.GetFormResponses(form.ID, other.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner for non-owner, got %v", err)
	}

	formatted, err := service.GetFormResponses(form.ID, owner.ID)
	if err != nil {
		t.Fatalf("get responses failed: %v", err)
	}
	if len(formatted) != 1 {
		t.Fatalf("expected 1 formatted response, got %d", len(formatted))
	}
	if formatted[0].Responses[0].QuestionText != "Capital of France?" {
		t.Fatalf("expected question text resolved, got %q", formatted[0].Responses[0].QuestionText)
	}
}

func TestGetFormResponses_UnknownQuestionLabel(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner")
	form := createTestQuiz(t, db, owner.ID)
	service := NewResponseService(db, nil, nil)

	response := models.Response{
		FormID: form.ID,
		Answers: []models.Answer{
			{QuestionID: 9999, Value: rawJSON(t, "orphan")},
		},
	}
	if err := db.Create(&response).Error; err != nil {
		t.Fatalf("seed response: %v", err)
	}

	formatted, err := service.GetFormResponses(form.ID, owner.ID)
	if err != nil {
		t.Fatalf("get responses failed: %v", err)
	}
	if formatted[0].Responses[0].QuestionText != "Unknown Question" {
		t.Fatalf("expected Unknown Question label, got %q", formatted[0].Responses[0].QuestionText)
	}
}
