package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"formpulse/models"
	"formpulse/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Form{}, &models.Question{}, &models.Option{}, &models.Response{}, &models.Answer{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedQuiz(t *testing.T, db *gorm.DB) *models.Form {
	t.Helper()

	owner := models.User{Username: "owner", Email: "owner@example.com"}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}

	marks := 5
	form := models.Form{
		Title:    "Capitals",
		Category: models.CategoryQuiz,
		Slug:     "capitals123",
		OwnerID:  owner.ID,
		Questions: []models.Question{
			{
				Text:          "Capital of France?",
				Type:          models.QuestionText,
				Order:         1,
				Marks:         &marks,
				CorrectAnswer: models.AnswerValue(`"Paris"`),
			},
		},
	}
	if err := db.Create(&form).Error; err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return &form
}

func newSubmitRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewResponseHandler(services.NewResponseService(db, nil, nil))
	router := gin.New()
	router.POST("/api/forms/response", handler.SubmitResponse)
	router.POST("/api/forms/response/submit-quiz-response", handler.SubmitQuizResponse)
	return router
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitQuizResponse_ReturnsScore(t *testing.T) {
	db := newHandlerTestDB(t)
	form := seedQuiz(t, db)
	router := newSubmitRouter(db)

	w := postJSON(router, "/api/forms/response/submit-quiz-response", gin.H{
		"formId":   form.ID,
		"username": "alice",
		"email":    "alice@example.com",
		"responses": []gin.H{
			{"questionId": form.Questions[0].ID, "responseValue": "Paris"},
		},
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Message  string `json:"message"`
		Score    int    `json:"score"`
		MaxScore int    `json:"maxScore"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Message != "Quiz response saved" || body.Score != 5 || body.MaxScore != 5 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestSubmitQuizResponse_DuplicateGets400(t *testing.T) {
	db := newHandlerTestDB(t)
	form := seedQuiz(t, db)
	router := newSubmitRouter(db)

	payload := gin.H{
		"formId":   form.ID,
		"username": "alice",
		"email":    "alice@example.com",
		"responses": []gin.H{
			{"questionId": form.Questions[0].ID, "responseValue": "Paris"},
		},
	}

	if w := postJSON(router, "/api/forms/response/submit-quiz-response", payload); w.Code != http.StatusOK {
		t.Fatalf("first submit failed: %d %s", w.Code, w.Body.String())
	}

	w := postJSON(router, "/api/forms/response/submit-quiz-response", payload)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "This email has already submitted a response for this quiz." {
		t.Fatalf("unexpected duplicate message %q", body["error"])
	}
}

func TestSubmitQuizResponse_InvalidEmailGets400WithKind(t *testing.T) {
	db := newHandlerTestDB(t)
	form := seedQuiz(t, db)
	router := newSubmitRouter(db)

	w := postJSON(router, "/api/forms/response/submit-quiz-response", gin.H{
		"formId":   form.ID,
		"username": "alice",
		"email":    "not-an-email",
		"responses": []gin.H{
			{"questionId": form.Questions[0].ID, "responseValue": "Paris"},
		},
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["kind"] != "invalid_email" {
		t.Fatalf("expected invalid_email kind, got %+v", body)
	}
}

func TestSubmitQuizResponse_MissingFormGets404(t *testing.T) {
	db := newHandlerTestDB(t)
	router := newSubmitRouter(db)

	w := postJSON(router, "/api/forms/response/submit-quiz-response", gin.H{
		"formId":   999,
		"username": "alice",
		"email":    "alice@example.com",
		"responses": []gin.H{
			{"questionId": 1, "responseValue": "Paris"},
		},
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSubmitQuizResponse_MalformedJSONGets400(t *testing.T) {
	db := newHandlerTestDB(t)
	router := newSubmitRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/forms/response/submit-quiz-response", bytes.NewReader([]byte(`{"formId":`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSubmitResponse_NonQuizReturns201(t *testing.T) {
	db := newHandlerTestDB(t)
	form := seedQuiz(t, db)
	if err := db.Model(&models.Form{}).Where("id = ?", form.ID).Update("category", models.CategorySurvey).Error; err != nil {
		t.Fatalf("recategorize form: %v", err)
	}
	router := newSubmitRouter(db)

	w := postJSON(router, "/api/forms/response", gin.H{
		"formId": form.ID,
		"responses": []gin.H{
			{"questionId": form.Questions[0].ID, "responseValue": "blue"},
		},
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetFormResponses_RequiresOwnership(t *testing.T) {
	db := newHandlerTestDB(t)
	form := seedQuiz(t, db)

	intruder := models.User{Username: "intruder", Email: "intruder@example.com"}
	if err := db.Create(&intruder).Error; err != nil {
		t.Fatalf("create intruder: %v", err)
	}

	gin.SetMode(gin.TestMode)
	handler := NewResponseHandler(services.NewResponseService(db, nil, nil))
	router := gin.New()
	router.GET("/api/forms/get-responses/:formId", func(c *gin.Context) {
		c.Set("user_id", intruder.ID)
		handler.GetFormResponses(c)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/forms/get-responses/%d", form.ID), nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
