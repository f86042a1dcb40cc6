package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"studio-server/internal/config"
	"studio-server/internal/curriculum"
	delivery "studio-server/internal/delivery/http"
	"studio-server/internal/delivery/http/middleware"
	ws "studio-server/internal/delivery/websocket"
	"studio-server/internal/lmsapi"
	"studio-server/internal/logger"
	"studio-server/internal/messaging"
	"studio-server/internal/repository"
	"studio-server/internal/service"
	"studio-server/pkg/database"
	"studio-server/pkg/migration"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run migrations and exit: up, down, version or force=N (postgres store only)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		// в production .env может отсутствовать
		fmt.Printf("Warning: could not load .env file: %v\n", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
		OutputPath:  cfg.Log.Output,
		Service:     "studio-server",
		Development: cfg.Env == "development",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)
	log.Info("Configuration loaded", cfg.LogFields()...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Session store ---
	repo, closeStore, err := setupSessionStore(ctx, cfg, *migrateCmd, log)
	if err != nil {
		log.Fatal("Failed to set up session store", zap.String("store", cfg.Session.Store), zap.Error(err))
	}
	defer closeStore()
	if *migrateCmd != "" {
		return
	}

	// --- Events ---
	wsManager := ws.NewManager(cfg.GetAllowedOrigins(), log)
	wsManager.Start(ctx)

	events := []messaging.EventPublisher{messaging.NewLogEventPublisher(log), wsManager}
	if cfg.RabbitMQ.URL != "" {
		mqConn, err := connectRabbitMQ(cfg.RabbitMQ.URL, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()

		publisher, err := messaging.NewRabbitMQEventPublisher(mqConn, cfg.RabbitMQ.EventsQueue, log)
		if err != nil {
			log.Fatal("Failed to create studio event publisher", zap.Error(err))
		}
		defer publisher.Close()
		events = append(events, publisher)
	} else {
		log.Info("RABBITMQ_URL not set, studio events go to the log and websocket only")
	}

	// --- Services ---
	lms, err := lmsapi.NewClient(cfg.LMS.BaseURL, cfg.LMS.Timeout, cfg.LMS.UploadTimeout, log)
	if err != nil {
		log.Fatal("Failed to create LMS client", zap.Error(err))
	}
	studio := service.NewStudioService(lms, repo, messaging.Fanout(events...), wsManager, curriculum.UUIDGenerator{}, log)
	go purgeExpiredSessions(ctx, repo, cfg.Session.PurgeInterval, log)

	// --- HTTP ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}
	maxUpload := cfg.Server.MaxUploadMB << 20

	router := gin.New()
	router.MaxMultipartMemory = 32 << 20
	router.Use(middleware.ZapLoggingMiddlewareForGin(log))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")
	// пути содержат id сессий и уроков, метки по шаблону маршрута
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string { return c.FullPath() }

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.GetAllowedOrigins()
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RefreshHeader, middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.AccessTokenHeader, middleware.RequestIDHeader}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	delivery.NewStudioHandler(studio, wsManager, maxUpload, log).RegisterRoutes(router)
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exiting")
}

// setupSessionStore builds the configured repository. For postgres it also
// applies migrations, or runs only the requested migration command.
func setupSessionStore(ctx context.Context, cfg *config.Config, migrateCmd string, log *zap.Logger) (repository.SessionRepository, func(), error) {
	if migrateCmd != "" && cfg.Session.Store != config.StorePostgres {
		return nil, nil, fmt.Errorf("-migrate needs SESSION_STORE=%s", config.StorePostgres)
	}

	switch cfg.Session.Store {
	case config.StoreRedis:
		client, err := setupRedis(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisSessionRepository(client, cfg.Session.TTL, log), func() { client.Close() }, nil

	case config.StorePostgres:
		pool, err := database.Connect(ctx, database.Config{
			DSN:         cfg.GetDSN(),
			MaxConns:    cfg.Database.MaxConns,
			IdleTimeout: cfg.Database.IdleTimeout,
			Attempts:    50,
			RetryDelay:  3 * time.Second,
		}, log)
		if err != nil {
			return nil, nil, err
		}
		migrator := migration.NewMigrator(migration.Config{
			MigrationsPath: repository.MigrationsPath,
			MigrationsFS:   repository.MigrationsFS,
		}, pool, log)

		action, forceTo, err := parseMigrateCommand(migrateCmd)
		if err == nil {
			switch action {
			case "up":
				err = migrator.Up()
			case "down":
				err = migrator.Down()
			case "force":
				err = migrator.ForceVersion(forceTo)
			case "version":
				var version uint
				var dirty bool
				if version, dirty, err = migrator.Version(); err == nil {
					log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
				}
			}
		}
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migration failed: %w", err)
		}
		return repository.NewPgSessionRepository(pool, cfg.Session.TTL, log), pool.Close, nil

	default:
		log.Warn("Using in-memory session store, sessions are lost on restart")
		return repository.NewMemorySessionRepository(cfg.Session.TTL, log), func() {}, nil
	}
}

// parseMigrateCommand разбирает значение флага -migrate. Пустое значение
// означает обычный запуск с применением миграций.
func parseMigrateCommand(cmd string) (action string, version uint, err error) {
	switch cmd {
	case "", "up":
		return "up", 0, nil
	case "down", "version":
		return cmd, 0, nil
	}
	if v, ok := strings.CutPrefix(cmd, "force="); ok {
		n, perr := strconv.ParseUint(v, 10, 32)
		if perr != nil {
			return "", 0, fmt.Errorf("invalid -migrate force version %q: %w", v, perr)
		}
		return "force", uint(n), nil
	}
	return "", 0, fmt.Errorf("unknown -migrate command %q", cmd)
}

func purgeExpiredSessions(ctx context.Context, repo repository.SessionRepository, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx)
			if err != nil {
				log.Warn("Failed to purge expired sessions", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("Expired sessions purged", zap.Int64("count", n))
			}
		}
	}
}

// setupRedis initializes the Redis client with retry logic.
func setupRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	const maxRetries = 20
	const retryDelay = 3 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info("Connected to Redis", zap.String("address", opts.Addr), zap.Int("attempt", attempt))
			return client, nil
		}
		client.Close()
		lastErr = err
		log.Warn("Redis ping failed, retrying...", zap.Int("attempt", attempt), zap.Int("max_retries", maxRetries), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}

// connectRabbitMQ dials RabbitMQ, retrying while the broker starts.
func connectRabbitMQ(rawURL string, log *zap.Logger) (*amqp.Connection, error) {
	const maxRetries = 5
	const retryDelay = 5 * time.Second

	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		var conn *amqp.Connection
		if conn, err = amqp.Dial(rawURL); err == nil {
			log.Info("Connected to RabbitMQ", zap.String("url", maskURL(rawURL)), zap.Int("attempt", attempt))
			go func() {
				if closeErr := <-conn.NotifyClose(make(chan *amqp.Error, 1)); closeErr != nil {
					log.Error("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
				}
			}()
			return conn, nil
		}
		log.Warn("RabbitMQ connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxRetries),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}

func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[invalid url]"
	}
	return u.Redacted()
}
