package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"formpulse/services"

	"github.com/gin-gonic/gin"
)

type ResponseHandler struct {
	responseService *services.ResponseService
}

func NewResponseHandler(responseService *services.ResponseService) *ResponseHandler {
	return &ResponseHandler{
		responseService: responseService,
	}
}

func (h *ResponseHandler) SubmitResponse(c *gin.Context) {
	var req services.SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Request Data"})
		return
	}

	response, err := h.responseService.SubmitResponse(&req)
	if err != nil {
		renderSubmissionError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Response Submitted Successfully",
		"response": response,
	})
}

func (h *ResponseHandler) SubmitQuizResponse(c *gin.Context) {
	var req services.SubmitQuizResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Request Data"})
		return
	}

	result, err := h.responseService.SubmitQuizResponse(&req)
	if err != nil {
		renderSubmissionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Quiz response saved",
		"score":    result.Score,
		"maxScore": result.MaxScore,
	})
}

func (h *ResponseHandler) GetFormResponses(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	formID, err := strconv.ParseUint(c.Param("formId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Form ID"})
		return
	}

	responses, err := h.responseService.GetFormResponses(uint(formID), userID.(uint))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFormNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
		case errors.Is(err, services.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: You do not own this form"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": responses})
}

func renderSubmissionError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "kind": string(vErr.Kind)})
	case errors.Is(err, services.ErrFormNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Form not found"})
	case errors.Is(err, services.ErrDuplicateSubmission):
		c.JSON(http.StatusBadRequest, gin.H{"error": "This email has already submitted a response for this quiz."})
	case errors.Is(err, services.ErrNotQuizForm):
		c.JSON(http.StatusBadRequest, gin.H{"error": "This is not a quiz form"})
	case errors.Is(err, services.ErrQuizForm):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Quiz responses must use the quiz submission endpoint"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "kind": "internal"})
	}
}
