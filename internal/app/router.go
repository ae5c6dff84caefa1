package app

import (
	"sports_academy_backend/docs"
	"sports_academy_backend/internal/config"
	"sports_academy_backend/internal/middleware"
	"sports_academy_backend/internal/model"
	"sports_academy_backend/pkg/monitoring"
	"sports_academy_backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerCoachRoutes(authGroup, c)
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.Check)

		// Credential endpoints carry the tightest policy.
		auth := public.Group("/")
		auth.Use(middleware.RateLimit(a.Limiter, ratelimit.Auth))
		{
			auth.POST("/register", c.auth.Register)
			auth.POST("/login", c.auth.Login)
		}
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	standard := middleware.RateLimit(a.Limiter, ratelimit.Standard)
	generous := middleware.RateLimit(a.Limiter, ratelimit.Generous)

	rg.GET("/profile", generous, c.auth.GetProfile)
	rg.PUT("/user/profile", standard, c.user.UpdateProfile)
	rg.GET("/leaderboard", generous, c.user.Leaderboard)

	rg.GET("/quizzes", generous, c.quiz.List)
	rg.GET("/quizzes/:id", generous, c.quiz.Get)

	rg.POST("/quizzes/:id/attempts", standard, c.attempt.Start)
	rg.POST("/attempts/:id/submit", standard, c.attempt.Submit)
	rg.GET("/attempts", generous, c.attempt.ListMine)
	rg.GET("/attempts/:id", generous, c.attempt.Get)

	rg.GET("/media", generous, c.media.List)
	rg.POST("/media/avatar", standard, c.media.UploadAvatar)
	rg.POST("/media/highlights", middleware.RateLimit(a.Limiter, ratelimit.Strict), c.media.UploadHighlight)
	rg.DELETE("/media/:id", standard, c.media.Delete)
}

func (a *App) registerCoachRoutes(rg *gin.RouterGroup, c *controllers) {
	coach := rg.Group("/")
	coach.Use(middleware.RoleMiddleware(model.Coach, model.Admin))
	coach.Use(middleware.RateLimit(a.Limiter, ratelimit.Standard))
	{
		coach.POST("/quizzes", c.quiz.Create)
		coach.PUT("/quizzes/:id", c.quiz.Update)
		coach.DELETE("/quizzes/:id", c.quiz.Delete)

		coach.GET("/quizzes/:id/attempts", c.attempt.ListByQuiz)
		coach.POST("/attempts/:id/answers/:question_id/review", c.attempt.Review)
	}
}
