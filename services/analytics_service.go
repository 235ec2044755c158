package services

import (
	"errors"
	"sort"
	"strconv"
	"time"

	"formpulse/models"

	"gorm.io/gorm"
)

type AnalyticsService struct {
	db *gorm.DB
}

func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// scoreBucketBounds are the histogram boundaries. Buckets are half-open
// [lower, next); scores at or above the last bound land in the overflow
// bucket.
var scoreBucketBounds = []int{0, 5, 10, 15, 20, 25, 30, 35, 40}

type ScoreBucket struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type QuestionStat struct {
	QuestionID      uint    `json:"question_id"`
	CorrectnessRate float64 `json:"correctness_rate"`
}

type QuizAnalytics struct {
	TotalSubmissions  int            `json:"totalSubmissions"`
	AverageScore      float64        `json:"averageScore"`
	ScoreDistribution []ScoreBucket  `json:"scoreDistribution"`
	SubmissionTrends  []TrendPoint   `json:"submissionTrends"`
	QuestionStats     []QuestionStat `json:"questionStats"`
}

// QuizAnalytics aggregates all stored submissions for a form. Owner-only.
// Reads run concurrently with submission writes and tolerate eventual
// consistency; no isolation guarantee is needed.
func (s *AnalyticsService) QuizAnalytics(formID uint, requesterID uint) (*QuizAnalytics, error) {
	var form models.Form
	if err := s.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order(`questions."order"`)
	}).First(&form, formID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFormNotFound
		}
		return nil, err
	}
	if form.OwnerID != requesterID {
		return nil, ErrNotOwner
	}

	var responses []models.Response
	if err := s.db.Where("form_id = ?", formID).
		Preload("Answers").
		Order("id").
		Find(&responses).Error; err != nil {
		return nil, err
	}

	analytics := &QuizAnalytics{TotalSubmissions: len(responses)}

	scoreSum, scoredCount := 0, 0
	buckets := make(map[string]int)
	trends := make(map[string]int)
	type tally struct{ total, correct int }
	tallies := make(map[uint]*tally)

	for i := range responses {
		r := &responses[i]
		if r.TotalScore != nil {
			scoreSum += *r.TotalScore
			scoredCount++
			buckets[bucketLabel(*r.TotalScore)]++
		}
		trends[r.SubmittedAt.UTC().Format("2006-01-02")]++
		for _, a := range r.Answers {
			t := tallies[a.QuestionID]
			if t == nil {
				t = &tally{}
				tallies[a.QuestionID] = t
			}
			t.total++
			if a.IsCorrect {
				t.correct++
			}
		}
	}

	if scoredCount > 0 {
		analytics.AverageScore = float64(scoreSum) / float64(scoredCount)
	}

	// Buckets in boundary order, empty ones skipped.
	for _, lower := range scoreBucketBounds[:len(scoreBucketBounds)-1] {
		label := strconv.Itoa(lower)
		if count := buckets[label]; count > 0 {
			analytics.ScoreDistribution = append(analytics.ScoreDistribution, ScoreBucket{Bucket: label, Count: count})
		}
	}
	if count := buckets[overflowLabel()]; count > 0 {
		analytics.ScoreDistribution = append(analytics.ScoreDistribution, ScoreBucket{Bucket: overflowLabel(), Count: count})
	}

	analytics.SubmissionTrends = sortedTrends(trends)

	// Questions with zero answers are omitted rather than reported as 0.
	for _, q := range form.Questions {
		t := tallies[q.ID]
		if t == nil || t.total == 0 {
			continue
		}
		analytics.QuestionStats = append(analytics.QuestionStats, QuestionStat{
			QuestionID:      q.ID,
			CorrectnessRate: float64(t.correct) / float64(t.total),
		})
	}

	return analytics, nil
}

// sortedTrends turns per-day counts into a sparse series sorted ascending by
// date.
func sortedTrends(trends map[string]int) []TrendPoint {
	dates := make([]string, 0, len(trends))
	for date := range trends {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	points := make([]TrendPoint, 0, len(dates))
	for _, date := range dates {
		points = append(points, TrendPoint{Date: date, Count: trends[date]})
	}
	return points
}

type TrendForm struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

type SubmissionTrendReport struct {
	Trends []TrendPoint `json:"trends"`
	Forms  []TrendForm  `json:"forms"`
}

// SubmissionTrends reports daily submission counts for one form, or across
// all Registration forms when formID is 0. The Registration form list rides
// along either way so the dashboard can offer form selection.
func (s *AnalyticsService) SubmissionTrends(formID uint) (*SubmissionTrendReport, error) {
	var registrationForms []models.Form
	if err := s.db.Select("id", "title").
		Where("category = ?", models.CategoryRegistration).
		Order("id").
		Find(&registrationForms).Error; err != nil {
		return nil, err
	}

	report := &SubmissionTrendReport{
		Trends: []TrendPoint{},
		Forms:  make([]TrendForm, 0, len(registrationForms)),
	}
	for _, f := range registrationForms {
		report.Forms = append(report.Forms, TrendForm{ID: f.ID, Title: f.Title})
	}

	query := s.db.Model(&models.Response{})
	if formID != 0 {
		query = query.Where("form_id = ?", formID)
	} else {
		if len(registrationForms) == 0 {
			return report, nil
		}
		formIDs := make([]uint, 0, len(registrationForms))
		for _, f := range registrationForms {
			formIDs = append(formIDs, f.ID)
		}
		query = query.Where("form_id IN ?", formIDs)
	}

	var stamps []time.Time
	if err := query.Pluck("submitted_at", &stamps).Error; err != nil {
		return nil, err
	}

	trends := make(map[string]int, len(stamps))
	for _, stamp := range stamps {
		trends[stamp.UTC().Format("2006-01-02")]++
	}
	report.Trends = sortedTrends(trends)
	return report, nil
}

func bucketLabel(score int) string {
	last := scoreBucketBounds[len(scoreBucketBounds)-1]
	if score >= last {
		return overflowLabel()
	}
	for i := len(scoreBucketBounds) - 2; i >= 0; i-- {
		if score >= scoreBucketBounds[i] {
			return strconv.Itoa(scoreBucketBounds[i])
		}
	}
	return strconv.Itoa(scoreBucketBounds[0])
}

func overflowLabel() string {
	return strconv.Itoa(scoreBucketBounds[len(scoreBucketBounds)-1]) + "+"
}

type MostActiveForm struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	ResponseCount int64  `json:"responseCount"`
}

type DashboardMetrics struct {
	TotalForms     int64           `json:"totalForms"`
	TotalResponses int64           `json:"totalResponses"`
	MostActiveForm *MostActiveForm `json:"mostActiveForm"`
}

// DashboardMetrics summarizes an owner's forms for the dashboard landing
// page.
func (s *AnalyticsService) DashboardMetrics(ownerID uint) (*DashboardMetrics, error) {
	var forms []models.Form
	if err := s.db.Select("id", "title").Where("owner_id = ?", ownerID).Find(&forms).Error; err != nil {
		return nil, err
	}

	metrics := &DashboardMetrics{TotalForms: int64(len(forms))}
	if len(forms) == 0 {
		return metrics, nil
	}

	formIDs := make([]uint, 0, len(forms))
	titles := make(map[uint]string, len(forms))
	for _, f := range forms {
		formIDs = append(formIDs, f.ID)
		titles[f.ID] = f.Title
	}

	if err := s.db.Model(&models.Response{}).
		Where("form_id IN ?", formIDs).
		Count(&metrics.TotalResponses).Error; err != nil {
		return nil, err
	}

	var top struct {
		FormID uint
		Count  int64
	}
	err := s.db.Model(&models.Response{}).
		Select("form_id, COUNT(*) as count").
		Where("form_id IN ?", formIDs).
		Group("form_id").
		Order("count DESC").
		Limit(1).
		Scan(&top).Error
	if err != nil {
		return nil, err
	}
	if top.Count > 0 {
		metrics.MostActiveForm = &MostActiveForm{
			ID:            top.FormID,
			Title:         titles[top.FormID],
			ResponseCount: top.Count,
		}
	}

	return metrics, nil
}
