package api

import (
	"net/http"

	"mtr/training-app/internal/domain"
	"mtr/training-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	coachService service.CoachService,
	athleteService service.AthleteService,
	rankingService service.RankingService,
	reportService service.ReportService,
	profileService service.ProfileService,
) {
	authHandler := NewAuthHandler(authService)
	coachHandler := NewCoachHandler(coachService)
	athleteHandler := NewAthleteHandler(athleteService)
	rankingHandler := NewRankingHandler(rankingService)
	reportHandler := NewReportHandler(reportService)
	profileHandler := NewProfileHandler(profileService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Shared Routes ---
		protected.GET("/profile", profileHandler.GetProfile)
		protected.PUT("/profile", profileHandler.UpdateProfile)
		protected.POST("/profile/photo", profileHandler.UploadProfilePhoto)

		// Leaderboard is visible to every authenticated user.
		protected.GET("/rankings", rankingHandler.GetRankings)

		// --- Athlete Routes ---
		athleteGroup := protected.Group("/athlete")
		{
			athleteGroup.GET("/agenda", athleteHandler.GetAgenda)
			athleteGroup.GET("/logs", athleteHandler.GetTrainingLogs)
			athleteGroup.POST("/logs", athleteHandler.SubmitTrainingLog)
			athleteGroup.GET("/logs/types", athleteHandler.GetAvailableTrainingTypes)
			athleteGroup.GET("/calendar", athleteHandler.GetCalendarMonth)
			athleteGroup.GET("/stats", athleteHandler.GetStats)
		}

		// --- Coach Routes ---
		// Admins get the full coach surface as well.
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach, domain.RoleAdmin))
		{
			coachGroup.POST("/assignments", coachHandler.CreateAssignments)
			coachGroup.GET("/assignments", coachHandler.GetAssignments)
			coachGroup.PUT("/assignments/:assignmentId/complete", coachHandler.CompleteAssignment)
			coachGroup.PUT("/assignments/:assignmentId/resend", coachHandler.ResendAssignment)
			coachGroup.DELETE("/assignments/:assignmentId", coachHandler.DeleteAssignment)

			coachGroup.GET("/dashboard/stats", coachHandler.GetDashboardStats)
			coachGroup.GET("/dashboard/activity", coachHandler.GetWeeklyActivity)

			coachGroup.GET("/history", coachHandler.GetTrainingHistory)
			coachGroup.DELETE("/history/:logId", coachHandler.DeleteTrainingLog)

			coachGroup.GET("/athletes", coachHandler.ListAthletes)
			coachGroup.DELETE("/athletes", coachHandler.DeleteAthletes)

			coachGroup.GET("/reports/weekly", reportHandler.DownloadWeeklyReport)
		}
	}
}
