package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"formpulse/models"

	"gorm.io/gorm"
)

// SentimentService collects free-text feedback answers and sends them to an
// external sentiment classifier. The classifier is a collaborator, not a
// dependency for correctness: when it is unreachable the result degrades to
// all-zero percentages instead of failing the analytics call.
type SentimentService struct {
	db     *gorm.DB
	client *http.Client
	apiURL string
}

func NewSentimentService(db *gorm.DB, apiURL string) *SentimentService {
	return &SentimentService{
		db:     db,
		client: &http.Client{Timeout: 15 * time.Second},
		apiURL: apiURL,
	}
}

type SentimentResult struct {
	Positive string `json:"positive"`
	Negative string `json:"negative"`
	Neutral  string `json:"neutral"`
}

func zeroSentiment() *SentimentResult {
	return &SentimentResult{Positive: "0.00%", Negative: "0.00%", Neutral: "0.00%"}
}

// AnalyzeFeedback classifies the text answers across the owner's Feedback
// forms, optionally restricted to a single form (formID == 0 means all).
func (s *SentimentService) AnalyzeFeedback(ctx context.Context, ownerID uint, formID uint) (*SentimentResult, error) {
	query := s.db.Model(&models.Form{}).
		Where("owner_id = ? AND category = ?", ownerID, models.CategoryFeedback)
	if formID != 0 {
		query = query.Where("id = ?", formID)
	}

	var formIDs []uint
	if err := query.Pluck("id", &formIDs).Error; err != nil {
		return nil, err
	}
	if len(formIDs) == 0 {
		return zeroSentiment(), nil
	}

	var responses []models.Response
	if err := s.db.Where("form_id IN ?", formIDs).
		Preload("Answers").
		Find(&responses).Error; err != nil {
		return nil, err
	}

	texts := collectTextAnswers(responses)
	if len(texts) == 0 {
		return zeroSentiment(), nil
	}

	counts, err := s.classify(ctx, texts)
	if err != nil {
		log.Printf("Sentiment classifier unavailable, returning zero percentages: %v", err)
		return zeroSentiment(), nil
	}

	return percentages(counts), nil
}

// collectTextAnswers keeps free-text values only: string answers that do not
// parse as numbers, trimmed and de-duplicated in first-seen order.
func collectTextAnswers(responses []models.Response) []string {
	seen := make(map[string]struct{})
	var texts []string
	for _, r := range responses {
		for _, a := range r.Answers {
			var value string
			if err := json.Unmarshal(a.Value, &value); err != nil {
				continue
			}
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			if _, err := strconv.ParseFloat(value, 64); err == nil {
				continue
			}
			if _, ok := seen[value]; ok {
				continue
			}
			seen[value] = struct{}{}
			texts = append(texts, value)
		}
	}
	return texts
}

type sentimentCounts struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
}

func (s *SentimentService) classify(ctx context.Context, texts []string) (*sentimentCounts, error) {
	body, err := json.Marshal(map[string][]string{"responses": texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}

	var counts sentimentCounts
	if err := json.NewDecoder(resp.Body).Decode(&counts); err != nil {
		return nil, err
	}
	return &counts, nil
}

func percentages(c *sentimentCounts) *SentimentResult {
	total := c.Positive + c.Negative + c.Neutral
	if total == 0 {
		return zeroSentiment()
	}
	return &SentimentResult{
		Positive: fmt.Sprintf("%.2f%%", c.Positive/total*100),
		Negative: fmt.Sprintf("%.2f%%", c.Negative/total*100),
		Neutral:  fmt.Sprintf("%.2f%%", c.Neutral/total*100),
	}
}
