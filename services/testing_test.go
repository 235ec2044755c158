package services

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"formpulse/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite database backed by a temp file. A file,
// not :memory:: the in-memory DSN gives each pooled connection its own empty
// database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Form{},
		&models.Question{},
		&models.Option{},
		&models.Response{},
		&models.Answer{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := models.User{Username: username, Email: username + "@example.com"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &user
}

var testSlugSeq uint64

// createTestQuiz seeds a quiz form with two questions: a 5-mark text question
// answered "Paris" and a 3-mark checkbox question answered [1, 2].
func createTestQuiz(t *testing.T, db *gorm.DB, ownerID uint) *models.Form {
	t.Helper()

	form := models.Form{
		Title:    "Geography Quiz",
		Category: models.CategoryQuiz,
		Slug:     fmt.Sprintf("quiz-%d", atomic.AddUint64(&testSlugSeq, 1)),
		OwnerID:  ownerID,
	}
	if err := db.Create(&form).Error; err != nil {
		t.Fatalf("create form: %v", err)
	}

	marks5, marks3 := 5, 3
	questions := []models.Question{
		{
			FormID:        form.ID,
			Text:          "Capital of France?",
			Type:          models.QuestionText,
			Order:         1,
			Marks:         &marks5,
			CorrectAnswer: rawJSON(t, "Paris"),
		},
		{
			FormID:        form.ID,
			Text:          "Pick the even ones",
			Type:          models.QuestionCheckbox,
			Order:         2,
			Marks:         &marks3,
			CorrectAnswer: rawJSON(t, []int{1, 2}),
		},
	}
	for i := range questions {
		if err := db.Create(&questions[i]).Error; err != nil {
			t.Fatalf("create question: %v", err)
		}
	}

	form.Questions = questions
	return &form
}

func rawJSON(t *testing.T, v interface{}) models.AnswerValue {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal test value: %v", err)
	}
	return models.AnswerValue(data)
}
