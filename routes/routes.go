package routes

import (
	"log"
	"net/http"
	"strconv"

	"formpulse/handlers"
	"formpulse/middleware"
	"formpulse/models"
	"formpulse/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// RegisterValidations wires custom binding rules into gin's validator engine.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("formcategory", func(fl validator.FieldLevel) bool {
			return models.IsValidCategory(fl.Field().String())
		})
	}
}

func SetupRoutes(
	router *gin.Engine,
	formHandler *handlers.FormHandler,
	responseHandler *handlers.ResponseHandler,
	analyticsHandler *handlers.AnalyticsHandler,
	hub *services.Hub,
	formService *services.FormService,
	limiter middleware.RateLimiter,
	jwtSecret string,
) {
	// API routes
	api := router.Group("/api")
	{
		// Owner routes (protected)
		forms := api.Group("/forms")
		forms.Use(middleware.AuthMiddleware(jwtSecret))
		{
			forms.POST("", formHandler.CreateForm)
			forms.GET("", formHandler.GetUserForms)
			forms.GET("/:id", formHandler.GetFormByID)
			forms.DELETE("/:id", formHandler.DeleteForm)
			forms.GET("/analytics/:formId/quiz-analytics", analyticsHandler.QuizAnalytics)
			forms.GET("/get-responses/:formId", responseHandler.GetFormResponses)
		}

		// Respondent routes (public, rate limited on writes)
		public := api.Group("/forms")
		{
			public.GET("/slug/:slug", formHandler.GetFormBySlug)
			public.GET("/sentiment-analysis", analyticsHandler.SentimentAnalysis)
			public.GET("/submission-trend-analysis", analyticsHandler.SubmissionTrends)

			submissions := public.Group("/response")
			submissions.Use(middleware.RateLimit(limiter))
			{
				submissions.POST("", responseHandler.SubmitResponse)
				submissions.POST("/submit-quiz-response", responseHandler.SubmitQuizResponse)
			}
		}

		// Dashboard
		dashboard := api.Group("/dashboard")
		dashboard.Use(middleware.AuthMiddleware(jwtSecret))
		{
			dashboard.GET("/metrics", analyticsHandler.DashboardMetrics)
		}
	}

	// WebSocket endpoint for the owner's live submission feed. Browsers
	// cannot set headers on websocket upgrades, so the token rides in the
	// query string.
	router.GET("/ws/forms/:formId", func(c *gin.Context) {
		formID, err := strconv.ParseUint(c.Param("formId"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Form ID"})
			return
		}

		userID, err := middleware.ParseUserToken(c.Query("token"), jwtSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		if err := formService.IsOwner(uint(formID), userID); err != nil {
			log.Printf("Feed access denied for form %d, user %d: %v", formID, userID, err)
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: You do not own this form"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for form %d: %v", formID, err)
			return
		}

		hub.RegisterClient(conn, uint(formID))
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
