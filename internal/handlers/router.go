package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/EduPulse-2025/assessment-platform/internal/services"
	"github.com/EduPulse-2025/assessment-platform/internal/utils"
	"github.com/EduPulse-2025/assessment-platform/internal/validator"
)

type HandlerManager struct {
	assessmentHandler *AssessmentHandler
	attemptHandler    *AttemptHandler
	statisticsHandler *StatisticsHandler
	studentHandler    *StudentHandler
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		assessmentHandler: NewAssessmentHandler(serviceManager.Assessment(), validator, logger),
		attemptHandler:    NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		statisticsHandler: NewStatisticsHandler(serviceManager.Statistics(), logger),
		studentHandler:    NewStudentHandler(serviceManager.Student(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// Assessment routes
		assessments := v1.Group("/assessments")
		{
			assessments.POST("", hm.assessmentHandler.CreateAssessment)
			assessments.GET("", hm.assessmentHandler.ListAssessments)
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)
			assessments.GET("/:id/teacher-view", hm.assessmentHandler.GetTeacherView)
			assessments.DELETE("/:id", hm.assessmentHandler.DeleteAssessment)

			// Attempt policy
			assessments.GET("/:id/settings", hm.assessmentHandler.GetSettings)
			assessments.PUT("/:id/settings", hm.assessmentHandler.UpdateSettings)

			// Attempt lifecycle
			assessments.POST("/:id/start-attempt", hm.attemptHandler.StartAttempt)
			assessments.GET("/:id/remaining-attempts", hm.attemptHandler.RemainingAttempts)

			// Free-form completion without a formal attempt
			assessments.POST("/:id/complete", hm.attemptHandler.CompleteFreeForm)

			// Class analytics
			assessments.GET("/:id/statistics", hm.statisticsHandler.GetStatistics)
			assessments.GET("/:id/statistics/export", hm.statisticsHandler.ExportStatistics)
		}

		// Question routes
		questions := v1.Group("/questions")
		{
			questions.POST("/:id/regenerate", hm.assessmentHandler.RegenerateQuestion)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/:id/submit-response", hm.attemptHandler.SubmitResponse)
			attempts.POST("/:id/complete", hm.attemptHandler.CompleteAttempt)
		}

		// Cross-assessment analytics
		v1.GET("/class-statistics", hm.statisticsHandler.GetOverview)

		// Student reporting routes
		students := v1.Group("/students")
		{
			students.GET("/:id/statistics", hm.studentHandler.GetStatistics)
			students.GET("/:id/performance-report", hm.studentHandler.GetPerformanceReport)
			students.GET("/:id/assessments/:assessment_id/performance", hm.studentHandler.GetAssessmentPerformance)
			students.GET("/:id/assessments/:assessment_id/attempts", hm.studentHandler.ListAttempts)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "assessment-platform",
		})
	})
}
