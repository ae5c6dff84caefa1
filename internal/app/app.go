package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sports_academy_backend/internal/config"
	"sports_academy_backend/internal/controller"
	"sports_academy_backend/internal/repository"
	"sports_academy_backend/internal/service"
	"sports_academy_backend/internal/util"
	"sports_academy_backend/pkg/configwatcher"
	"sports_academy_backend/pkg/database"
	"sports_academy_backend/pkg/logger"
	"sports_academy_backend/pkg/monitoring"
	"sports_academy_backend/pkg/ratelimit"
	"sports_academy_backend/pkg/security"
	"sports_academy_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config  *config.Config
	Router  *gin.Engine
	DB      *gorm.DB
	Redis   *redis.Client
	Limiter *ratelimit.Limiter

	stopJanitor     func()
	corsOrigins     *security.OriginSet
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user    *repository.UserRepository
	quiz    *repository.QuizRepository
	attempt *repository.AttemptRepository
	media   *repository.MediaRepository
}

type services struct {
	auth    *service.AuthService
	user    *service.UserService
	quiz    *service.QuizService
	grading *service.GradingService
	storage *service.StorageService
	media   *service.MediaService
}

type controllers struct {
	auth    *controller.AuthController
	user    *controller.UserController
	quiz    *controller.QuizController
	attempt *controller.AttemptController
	media   *controller.MediaController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:    repository.NewUserRepository(db),
		quiz:    repository.NewQuizRepository(db),
		attempt: repository.NewAttemptRepository(db),
		media:   repository.NewMediaRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.quiz = service.NewQuizService(repos.quiz)
	s.grading = service.NewGradingService(repos.attempt, repos.quiz, repos.user)
	s.media = service.NewMediaService(repos.media, s.user, s.storage)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth, s.user),
		user:    controller.NewUserController(s.user),
		quiz:    controller.NewQuizController(s.quiz),
		attempt: controller.NewAttemptController(s.grading),
		media:   controller.NewMediaController(s.media),
		health:  controller.NewHealthController(db),
	}
}

// initLimiter builds the policy limiter shared by the routes. Single-instance
// deployments count in memory; multi-instance ones share counters via Redis.
func (a *App) initLimiter(cfg *config.Config, rdb *redis.Client) *ratelimit.Limiter {
	if cfg.RateLimit.UseRedis && rdb != nil {
		return ratelimit.New(ratelimit.NewRedisStore(rdb)).WithLogger(logger.Log)
	}

	store := ratelimit.NewMemoryStore()
	a.stopJanitor = store.StartJanitor(5 * time.Minute)
	return ratelimit.New(store).WithLogger(logger.Log)
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	a.corsOrigins = security.NewOriginSet(cfg.CORS.AllowedOrigins)
	router.Use(security.CORS(a.corsOrigins))
	router.Use(security.Secure())

	// Coarse per-IP flood protection in front of the per-route policies.
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 100000
	}
	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	router.Use(security.FloodLimiter(maxRequests, window))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	runMigration := cfg.ForceMigrate || cfg.Server.Mode != "release"
	db, err := database.InitDB(&cfg.Database, runMigration)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}

	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		if cfg.RateLimit.UseRedis {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		logger.Log.Warn("Redis unavailable, policy limiters fall back to memory", zap.Error(err))
		rdb = nil
	}
	app.Redis = rdb

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg)
	controllers := app.initControllers(services, db)

	app.Limiter = app.initLimiter(cfg, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("sports-academy", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	app.RegisterConfigCallback(func(next *config.Config) {
		app.corsOrigins.Update(next.CORS.AllowedOrigins)
		logger.Log.Info("CORS allowlist updated",
			zap.Strings("origins", next.CORS.AllowedOrigins))
	})

	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(reloaded interface{}) {
		logger.Log.Info("Configuration file reloaded")
		if next, ok := reloaded.(*config.Config); ok {
			for _, cb := range app.configCallbacks {
				cb(next)
			}
		}
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if a.stopJanitor != nil {
		a.stopJanitor()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
