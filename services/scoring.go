package services

import (
	"encoding/json"
	"strconv"
	"strings"

	"formpulse/models"
)

// AnswerInput is a single submitted answer before scoring.
type AnswerInput struct {
	QuestionID    uint            `json:"questionId" binding:"required"`
	ResponseValue json.RawMessage `json:"responseValue" binding:"required"`
}

// ScoredAnswer is an answer entry after scoring.
type ScoredAnswer struct {
	QuestionID uint
	Value      models.AnswerValue
	IsCorrect  bool
	Marks      int
}

// ScoreSubmission matches each submitted answer against its question's
// correct answer and returns the scored entries, the total awarded marks and
// the maximum achievable score across all questions on the form (not just the
// answered ones). Entries referencing unknown question ids are dropped, not
// treated as errors.
func ScoreSubmission(questions []models.Question, answers []AnswerInput) ([]ScoredAnswer, int, int) {
	byID := make(map[uint]*models.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	scored := make([]ScoredAnswer, 0, len(answers))
	totalScore := 0
	for _, in := range answers {
		question, ok := byID[in.QuestionID]
		if !ok {
			continue
		}

		marks := questionMarks(question)
		correct := answerMatches(question, in.ResponseValue)
		awarded := 0
		if correct {
			awarded = marks
			totalScore += marks
		}

		scored = append(scored, ScoredAnswer{
			QuestionID: question.ID,
			Value:      models.AnswerValue(in.ResponseValue),
			IsCorrect:  correct,
			Marks:      awarded,
		})
	}

	maxScore := 0
	for i := range questions {
		maxScore += questionMarks(&questions[i])
	}

	return scored, totalScore, maxScore
}

// questionMarks returns the credit a correct answer earns: the question's
// marks when set, 1 otherwise.
func questionMarks(q *models.Question) int {
	if q.Marks != nil && *q.Marks > 0 {
		return *q.Marks
	}
	return 1
}

// answerMatches compares the submitted value against the correct answer after
// normalizing both sides to a canonical form for the question type. A plain
// byte-equality check would miss "5" vs 5 and order-swapped checkbox answers.
func answerMatches(q *models.Question, submitted json.RawMessage) bool {
	key := json.RawMessage(q.CorrectAnswer)
	if q.CorrectAnswer.IsNull() {
		return false
	}

	switch q.Type {
	case models.QuestionNumber:
		a, okA := decodeNumber(submitted)
		b, okB := decodeNumber(key)
		return okA && okB && a == b
	case models.QuestionCheckbox:
		a, okA := decodeTokenSet(submitted)
		b, okB := decodeTokenSet(key)
		return okA && okB && equalTokenSets(a, b)
	case models.QuestionText:
		// Trimmed, case-sensitive string comparison: "paris" does not match
		// "Paris", and "5" does not match "5.0". Numeric canonicalization is
		// for the other question types only.
		a, okA := decodeString(submitted)
		b, okB := decodeString(key)
		return okA && okB && strings.TrimSpace(a) == strings.TrimSpace(b)
	default: // multiple-choice, dropdown
		a, okA := decodeToken(submitted)
		b, okB := decodeToken(key)
		return okA && okB && a == b
	}
}

// decodeString decodes a JSON string as-is.
func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// decodeToken decodes a JSON scalar into a canonical string token. Numeric
// values (and numeric strings) collapse to a minimal decimal form so 5, 5.0
// and "5" all compare equal.
func decodeToken(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64), true
		}
		return s, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

func decodeNumber(raw json.RawMessage) (float64, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// decodeTokenSet decodes a JSON array (or a lone scalar, treated as a
// single-element selection) into a set of canonical tokens.
func decodeTokenSet(raw json.RawMessage) (map[string]struct{}, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		token, ok := decodeToken(raw)
		if !ok {
			return nil, false
		}
		return map[string]struct{}{strings.TrimSpace(token): {}}, true
	}

	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		token, ok := decodeToken(item)
		if !ok {
			return nil, false
		}
		set[strings.TrimSpace(token)] = struct{}{}
	}
	return set, true
}

func equalTokenSets(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for token := range a {
		if _, ok := b[token]; !ok {
			return false
		}
	}
	return true
}
