package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quitwell/coaching-app/internal/domain"
	"quitwell/coaching-app/internal/service"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	coachService service.CoachService,
	planService service.PlanService,
	phaseService service.PhaseService,
	historyService service.HistoryService,
) {
	authHandler := NewAuthHandler(authService)
	coachHandler := NewCoachHandler(coachService)
	planHandler := NewPlanHandler(planService)
	phaseHandler := NewPhaseHandler(phaseService)
	historyHandler := NewHistoryHandler(historyService)

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
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Coach roster ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			coachGroup.POST("/members", coachHandler.AddMemberByEmail)
			coachGroup.GET("/members", coachHandler.GetManagedMembers)
		}

		// --- Plan lifecycle ---
		planGroup := protected.Group("/plans")
		{
			planGroup.POST("", RoleMiddleware(domain.RoleMember, domain.RoleCoach), planHandler.CreateDraft)
			planGroup.GET("/:id", planHandler.GetPlan)

			// Transitions. Fine-grained role checks (who may act in which
			// state) live in the engine; the route layer only gates the
			// obvious role families.
			planGroup.POST("/:id/submit", RoleMiddleware(domain.RoleMember, domain.RoleCoach), planHandler.Submit)
			planGroup.POST("/:id/approve", RoleMiddleware(domain.RoleCoach), planHandler.Approve)
			planGroup.POST("/:id/deny", RoleMiddleware(domain.RoleCoach), planHandler.Deny)
			planGroup.POST("/:id/accept", RoleMiddleware(domain.RoleMember), planHandler.Accept)
			planGroup.POST("/:id/decline", RoleMiddleware(domain.RoleMember), planHandler.Decline)
			planGroup.POST("/:id/complete", RoleMiddleware(domain.RoleCoach), planHandler.MarkComplete)
			planGroup.POST("/:id/fail", RoleMiddleware(domain.RoleCoach), planHandler.MarkFailed)
			planGroup.POST("/:id/cancel", RoleMiddleware(domain.RoleMember, domain.RoleCoach), planHandler.Cancel)
			planGroup.PUT("/:id/content", RoleMiddleware(domain.RoleCoach), planHandler.UpdateContent)
			planGroup.PUT("/:id/evaluation", RoleMiddleware(domain.RoleCoach), planHandler.SetEvaluation)

			// Derived reads
			planGroup.GET("/:id/progress", planHandler.GetProgress)
			planGroup.GET("/:id/outcome", planHandler.GetOutcomeLabel)

			// Phases
			planGroup.GET("/:id/phases", phaseHandler.GetPhases)
			planGroup.POST("/:id/phases/:phaseId/complete", RoleMiddleware(domain.RoleMember, domain.RoleCoach), phaseHandler.MarkPhaseComplete)
			planGroup.PUT("/:id/phases/:phaseId/goals", RoleMiddleware(domain.RoleCoach), phaseHandler.EditPhaseGoals)
		}

		// --- Member views ---
		memberGroup := protected.Group("/members/:memberId")
		{
			memberGroup.GET("/plans/newest", planHandler.GetNewestPlan)
			memberGroup.GET("/plans", historyHandler.GetHistory)
		}
	}
}
