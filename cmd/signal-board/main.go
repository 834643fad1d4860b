package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/classroom-signal-board/api/swagger"
	"github.com/noah-isme/classroom-signal-board/internal/handler"
	"github.com/noah-isme/classroom-signal-board/internal/middleware"
	"github.com/noah-isme/classroom-signal-board/internal/repository"
	"github.com/noah-isme/classroom-signal-board/internal/service"
	"github.com/noah-isme/classroom-signal-board/pkg/cache"
	"github.com/noah-isme/classroom-signal-board/pkg/config"
	"github.com/noah-isme/classroom-signal-board/pkg/database"
	"github.com/noah-isme/classroom-signal-board/pkg/logger"
	corsmiddleware "github.com/noah-isme/classroom-signal-board/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/classroom-signal-board/pkg/middleware/requestid"
	"github.com/noah-isme/classroom-signal-board/pkg/realtime"
	"github.com/noah-isme/classroom-signal-board/pkg/storage"
)

// @title Classroom Signal Board API
// @version 1.0.0
// @description Students raise requests, the teacher sees and resolves them.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closer, err := openStore(ctx, cfg, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to open request store", "driver", cfg.Store.Driver, "error", err)
	}
	defer closer.Close() //nolint:errcheck

	location, err := time.LoadLocation(cfg.Board.Timezone)
	if err != nil {
		logr.Sugar().Warnw("unknown board timezone, using local time", "timezone", cfg.Board.Timezone, "error", err)
		location = time.Local
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	catalogSvc := service.NewCatalogService(nil, cfg.Board.UrgentAckOnly)
	requestRepo := repository.NewRequestRepository(store, logr,
		repository.WithCollectionKey(cfg.Store.CollectionKey),
		repository.WithCatalog(catalogSvc),
		repository.WithMalformedRecorder(metricsSvc),
	)
	boardStore := service.NewBoardStore(requestRepo, logr)

	var sender service.AlertSender
	if cfg.Alerts.Enabled() {
		telegram, err := service.NewTelegramSender(cfg.Alerts.TelegramToken, cfg.Alerts.TelegramChatID)
		if err != nil {
			logr.Sugar().Warnw("telegram alerts disabled", "error", err)
		} else {
			sender = telegram
		}
	}
	alerts := service.NewNotificationService(sender, service.NotificationConfig{
		MaxPriority: cfg.Alerts.MaxPriority,
		Workers:     cfg.Alerts.Workers,
		Retries:     cfg.Alerts.Retries,
		RetryDelay:  cfg.Alerts.RetryDelay,
	}, metricsSvc, logr)

	if cfg.JWT.TeacherPINHash == "" {
		logr.Warn("TEACHER_PIN_HASH not set; teacher sessions are granted without a pin")
	}
	sessionSvc := service.NewSessionService(validate, logr, service.SessionConfig{
		Secret:         cfg.JWT.Secret,
		Expiry:         cfg.JWT.Expiration,
		TeacherPINHash: cfg.JWT.TeacherPINHash,
		MaxNameLength:  cfg.Board.MaxNameLength,
	})
	studentSvc := service.NewStudentService(boardStore, catalogSvc, validate, service.StudentConfig{
		AckDuration: cfg.Board.AckDuration,
		Location:    location,
	}, logr, service.WithRaiseAlerter(alerts), service.WithStudentMetrics(metricsSvc))
	teacherSvc := service.NewTeacherService(boardStore, catalogSvc, metricsSvc, logr)
	exportSvc := service.NewExportService(boardStore, logr)

	hub := realtime.NewHub(originChecker(cfg.CORS.AllowedOrigins), logr)
	watcher := service.NewWatcherService(boardStore, teacherSvc, hub, metricsSvc, cfg.Board.PollInterval, logr)
	boardStore.SetNotifier(watcher)

	alerts.Start(ctx)
	go watcher.Run(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, boardStore, logr)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Session(sessionSvc))
	registerRoutes(api,
		handler.NewCatalogHandler(catalogSvc),
		handler.NewSessionHandler(sessionSvc),
		handler.NewStudentHandler(studentSvc, hub),
		handler.NewTeacherHandler(teacherSvc, exportSvc, metricsSvc, hub),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	alerts.Stop()
}

func registerRoutes(api *gin.RouterGroup, catalog *handler.CatalogHandler, sessions *handler.SessionHandler, students *handler.StudentHandler, teachers *handler.TeacherHandler) {
	api.GET("/catalog", catalog.List)

	session := api.Group("/session")
	session.POST("/student", sessions.StartStudent)
	session.POST("/teacher", sessions.StartTeacher)

	student := api.Group("/student", middleware.RequireStudent())
	student.GET("/board", students.Board)
	student.POST("/requests", students.Raise)
	student.DELETE("/requests/:id", students.Withdraw)
	student.GET("/stream", students.Stream)

	teacher := api.Group("/teacher", middleware.RequireTeacher())
	teacher.GET("/board", teachers.Board)
	teacher.POST("/requests/:id/:action", teachers.Resolve)
	teacher.GET("/export", teachers.Export)
	teacher.GET("/stats", teachers.Stats)
	teacher.GET("/stream", teachers.Stream)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// openStore builds the key-value backend selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg *config.Config, logr *zap.Logger) (repository.KeyValueStore, io.Closer, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory, "":
		logr.Warn("using in-memory request store; requests are lost on restart")
		return repository.NewMemoryStore(), nopCloser{}, nil
	case config.StoreDriverFile:
		files, err := storage.NewLocalStorage(cfg.Store.FileDir)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewFileStore(files), nopCloser{}, nil
	case config.StoreDriverRedis:
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		store := repository.NewRedisStore(client)
		return store, store, nil
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(ctx, db, logr); err != nil {
			db.Close() //nolint:errcheck
			return nil, nil, err
		}
		return repository.NewPostgresStore(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// originChecker mirrors the CORS allow-list for websocket upgrades.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
