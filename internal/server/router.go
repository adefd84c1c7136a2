// Package server assembles the HTTP routes.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "treasurytracker/internal/docs" // swagger spec registration
	"treasurytracker/internal/handlers"
	"treasurytracker/internal/middleware"
	"treasurytracker/internal/services"
)

// Deps are the collaborators the router dispatches to.
type Deps struct {
	UserService       services.UserServicer
	InvestmentService services.InvestmentServicer
	PortfolioService  services.PortfolioServicer
	AuditService      services.AuditServicer
	Tokens            *middleware.TokenManager
	AuthLimiter       *middleware.IPRateLimiter
	PipelineAPIKey    string
	OverdueGraceDays  int
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(d Deps) *gin.Engine {
	authHandler := handlers.NewAuthHandler(d.UserService, d.Tokens)
	investmentHandler := handlers.NewInvestmentHandler(d.InvestmentService, d.AuditService)
	portfolioHandler := handlers.NewPortfolioHandler(d.PortfolioService)
	pipelineHandler := handlers.NewPipelineHandler(d.InvestmentService, d.OverdueGraceDays)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	if d.AuthLimiter != nil {
		auth.Use(middleware.RateLimit(d.AuthLimiter))
	}
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(d.Tokens))

	protected.GET("/profile", authHandler.GetProfile)

	investments := protected.Group("/investments")
	investments.POST("", investmentHandler.CreateInvestment)
	investments.GET("", investmentHandler.ListInvestments)
	investments.GET("/:id", investmentHandler.GetInvestment)
	investments.PUT("/:id", investmentHandler.UpdateInvestment)
	investments.DELETE("/:id", investmentHandler.DeleteInvestment)
	investments.POST("/:id/regenerate-schedule", investmentHandler.RegenerateSchedule)
	investments.GET("/:id/payments", investmentHandler.ListPayments)
	investments.GET("/:id/payments/export", investmentHandler.ExportPayments)
	investments.PUT("/:id/payments/:payment_id", investmentHandler.UpdatePayment)

	portfolio := protected.Group("/portfolio")
	portfolio.GET("/summary", portfolioHandler.GetSummary)
	portfolio.GET("/upcoming-payments", portfolioHandler.GetUpcomingPayments)
	portfolio.GET("/full", portfolioHandler.GetFullPortfolio)

	// Pipeline routes (scheduled status driver)
	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(d.PipelineAPIKey))
	pipeline.POST("/payments/refresh-statuses", pipelineHandler.RefreshStatuses)

	return router
}
