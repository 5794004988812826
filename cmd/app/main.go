package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/waste3d/courseplatform-api/config"
	"github.com/waste3d/courseplatform-api/internal/application/usecase"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/cache"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/database"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/email"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/oauth"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/paystack"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/repository"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/security"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/storage"
	"github.com/waste3d/courseplatform-api/internal/middleware"
	"github.com/waste3d/courseplatform-api/internal/streaming"
	grpc_server "github.com/waste3d/courseplatform-api/internal/transport/grpc"
	handlers "github.com/waste3d/courseplatform-api/internal/transport/http"

	"github.com/redis/go-redis/v9"
)

type objectStore interface {
	streaming.ObjectStore
	usecase.ObjectWriter
	usecase.ObjectRemover
	Ping(ctx context.Context) error
}

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}
	if err := database.Seed(context.Background(), db); err != nil {
		log.Fatalf("Failed to seed DB: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	var store objectStore
	if cfg.S3Endpoint != "" {
		minioStore, err := storage.NewMinioStore(cfg)
		if err != nil {
			log.Fatalf("Failed to create S3 client: %v", err)
		}
		if err := minioStore.EnsureBucket(context.Background(), cfg.S3Region); err != nil {
			log.Fatalf("Failed to prepare bucket %s: %v", cfg.S3Bucket, err)
		}
		store = minioStore
	} else {
		log.Println("WARNING: S3_ENDPOINT is empty, media is kept in memory")
		store = storage.NewMemoryStore()
	}

	var google *oauth.GoogleProvider
	if cfg.GoogleEnabled() {
		google = oauth.NewGoogleProvider(cfg)
	}
	paystackClient := paystack.NewClient(cfg.PaystackSecretKey, cfg.PaystackBaseURL)
	if !paystackClient.Enabled() {
		log.Println("WARNING: PAYSTACK_SECRET_KEY is empty, payments are disabled")
	}

	tokenCache := cache.NewTokenCache(rdb)
	courseCache := cache.NewCourseCache(rdb)
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	courseRepo := repository.NewCourseRepository(db, courseCache)
	videoRepo := repository.NewVideoRepository(db, courseCache)
	engagementRepo := repository.NewEngagementRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	authUseCase := usecase.NewAuthUseCase(
		userRepo,
		sessionRepo,
		tokenCache,
		security.NewPasswordHasher(),
		security.NewTokenManager(cfg.TokenSecret, 24*time.Hour),
		email.NewEmailSender(cfg.SendgridAPIKey, cfg.SMTPEmail, cfg.FrontendURL),
		google,
		cfg.SessionTTL(),
	)
	courseUseCase := usecase.NewCourseUseCase(courseRepo, engagementRepo, store)
	videoUseCase := usecase.NewVideoUseCase(videoRepo, courseRepo, engagementRepo, store)
	paymentUseCase := usecase.NewPaymentUseCase(paymentRepo, paystackClient, cfg.PaystackCallbackURL)
	uploadUseCase := usecase.NewUploadUseCase(store, cfg.MaxUploadMB<<20)

	if err := authUseCase.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	dbCheck := func(ctx context.Context) error { return database.Ping(ctx, db) }
	redisCheck := tokenCache.Ping

	sessions := middleware.NewSessionStore(cfg.SessionSecret, cfg.SessionTTL(), cfg.CookieSecure)
	router := handlers.NewRouter(handlers.Handlers{
		Auth:    handlers.NewAuthHandler(authUseCase, sessions, cfg.FrontendURL),
		Course:  handlers.NewCourseHandler(courseUseCase),
		Video:   handlers.NewVideoHandler(videoUseCase, streaming.NewRelay(store)),
		User:    handlers.NewUserHandler(videoUseCase),
		Payment: handlers.NewPaymentHandler(paymentUseCase),
		Upload:  handlers.NewUploadHandler(uploadUseCase, cfg.MaxUploadMB<<20),
		Health:  handlers.NewHealthHandler(map[string]handlers.Check{"database": dbCheck, "redis": redisCheck, "storage": store.Ping}),
	}, authUseCase, sessions, middleware.NewRateLimiter(rdb), cfg.Origins())

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	healthServer := grpc_server.NewHealthServer(map[string]grpc_server.Check{"database": dbCheck, "redis": redisCheck}, 15*time.Second)
	go healthServer.Run(ctx)
	go purgeSessions(ctx, authUseCase)

	lis, err := net.Listen("tcp", cfg.GRPCPort)
	if err != nil {
		log.Fatalf("Failed to listen: %v", err)
	}
	grpcServer := grpc_server.NewServer(healthServer)
	go func() {
		log.Printf("gRPC health server is running on port %s...", cfg.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("Failed to serve gRPC: %v", err)
		}
	}()

	// no WriteTimeout: long video responses must not be cut off
	srv := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		log.Printf("Course platform API is running on port %s...", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Println("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	grpcServer.GracefulStop()
	if err := rdb.Close(); err != nil {
		log.Printf("Redis close: %v", err)
	}
}

func purgeSessions(ctx context.Context, auth *usecase.AuthUseCase) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.PurgeExpiredSessions(ctx)
			if err != nil {
				log.Printf("purge sessions: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("Purged %d expired sessions", n)
			}
		}
	}
}
