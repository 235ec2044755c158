package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"formpulse/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
	sentimentService *services.SentimentService
}

func NewAnalyticsHandler(analyticsService *services.AnalyticsService, sentimentService *services.SentimentService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		sentimentService: sentimentService,
	}
}

func (h *AnalyticsHandler) QuizAnalytics(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	formID, err := strconv.ParseUint(c.Param("formId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Form ID"})
		return
	}

	analytics, err := h.analyticsService.QuizAnalytics(uint(formID), userID.(uint))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFormNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
		case errors.Is(err, services.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: You do not own this form"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		}
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// SubmissionTrends serves the dashboard trend chart: one form when formId is
// given, all Registration forms otherwise.
func (h *AnalyticsHandler) SubmissionTrends(c *gin.Context) {
	var formID uint64
	if formIDParam := c.Query("formId"); formIDParam != "" {
		var err error
		formID, err = strconv.ParseUint(formIDParam, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Form ID"})
			return
		}
	}

	report, err := h.analyticsService.SubmissionTrends(uint(formID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"trends": report.Trends,
		"forms":  report.Forms,
	})
}

func (h *AnalyticsHandler) SentimentAnalysis(c *gin.Context) {
	userIDParam := c.Query("userId")
	if userIDParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required"})
		return
	}
	userID, err := strconv.ParseUint(userIDParam, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid User ID"})
		return
	}

	var formID uint64
	if formIDParam := c.Query("formId"); formIDParam != "" {
		formID, err = strconv.ParseUint(formIDParam, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Form ID"})
			return
		}
	}

	result, err := h.sentimentService.AnalyzeFeedback(c.Request.Context(), uint(userID), uint(formID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AnalyticsHandler) DashboardMetrics(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	metrics, err := h.analyticsService.DashboardMetrics(userID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch dashboard metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"totalForms":     metrics.TotalForms,
		"totalResponses": metrics.TotalResponses,
		"mostActiveForm": metrics.MostActiveForm,
	})
}
