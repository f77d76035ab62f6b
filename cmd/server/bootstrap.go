package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/civigo/civigo/internal/api"
	"github.com/civigo/civigo/internal/app"
	"github.com/civigo/civigo/internal/app/maintenance"
	iauth "github.com/civigo/civigo/internal/auth"
	"github.com/civigo/civigo/internal/cache"
	"github.com/civigo/civigo/internal/database"
	"github.com/civigo/civigo/internal/monitoring"
	"github.com/civigo/civigo/internal/monitoring/checks"
	"github.com/civigo/civigo/internal/services"
	"github.com/civigo/civigo/internal/storage"
	"github.com/civigo/civigo/internal/verification"
	"github.com/civigo/civigo/internal/vision"
	"github.com/civigo/civigo/pkg/logger"
)

// runtimeStack bundles long-lived resources used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Cleaner *maintenance.Cleaner
	Router  *gin.Engine
}

// bootstrapRuntime initialises the database, the token store, the managed
// vision providers, and every service behind the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	// One-time login tokens live in Redis when it is available so every
	// instance sees the same single-use semantics; the database store covers
	// single-node deployments.
	var tokenStore iauth.TokenStore
	if cfg.Redis.Enabled {
		client, redisErr := cache.NewRedisClient(cache.RedisConfig{
			Address:  cfg.Redis.Address,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout,
		})
		if redisErr != nil {
			log.Warn("redis unavailable; falling back to database-backed token store", zap.Error(redisErr))
		} else {
			stack.Redis = client
			log.Info("redis connected", zap.String("addr", cfg.Redis.Address))
		}
	}

	if stack.Redis != nil {
		tokenStore, err = iauth.NewRedisTokenStore(stack.Redis)
	} else {
		tokenStore, err = iauth.NewDatabaseTokenStore(stack.DB)
	}
	if err != nil {
		return nil, fmt.Errorf("initialise token store: %w", err)
	}

	broker, err := iauth.NewTokenBroker(tokenStore, iauth.TokenBrokerConfig{TTL: cfg.Auth.LoginToken.TTL})
	if err != nil {
		return nil, fmt.Errorf("initialise token broker: %w", err)
	}

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:         cfg.Auth.JWT.Secret,
		Issuer:         cfg.Auth.JWT.Issuer,
		AccessTokenTTL: cfg.Auth.JWT.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	provider, err := vision.NewRekognitionProvider(rekognition.NewFromConfig(awsCfg), vision.RekognitionConfig{
		CollectionID:   cfg.AWS.CollectionID,
		RequestTimeout: cfg.AWS.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise face provider: %w", err)
	}

	extractor, err := vision.NewTextractExtractor(textract.NewFromConfig(awsCfg), cfg.AWS.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("initialise text extractor: %w", err)
	}

	objects, err := storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.AWS.Bucket, cfg.AWS.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("initialise object store: %w", err)
	}

	policy := cfg.Verification.Policy()
	gate := verification.NewQualityGate(provider, cfg.Verification.QualityBounds())
	scorer := verification.NewScorer(provider, policy)

	auditSvc, err := services.NewAuditService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise audit service: %w", err)
	}

	userSvc, err := services.NewUserService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise user service: %w", err)
	}

	holderSvc, err := services.NewHolderService(stack.DB)
	if err != nil {
		return nil, fmt.Errorf("initialise holder service: %w", err)
	}

	appSvc, err := services.NewApplicationService(services.ApplicationServiceConfig{
		DB:             stack.DB,
		Gate:           gate,
		Scorer:         scorer,
		Policy:         policy,
		Objects:        objects,
		Holders:        holderSvc,
		Users:          userSvc,
		Audit:          auditSvc,
		HolderValidity: cfg.Verification.HolderValidity,
		PresignTTL:     cfg.AWS.PresignTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise application service: %w", err)
	}

	extractionSvc, err := services.NewExtractionService(extractor)
	if err != nil {
		return nil, fmt.Errorf("initialise extraction service: %w", err)
	}

	loginSvc, err := services.NewLoginService(services.LoginServiceConfig{
		Gate:    gate,
		Scorer:  scorer,
		Policy:  policy,
		Holders: holderSvc,
		Users:   userSvc,
		Broker:  broker,
		JWT:     jwtSvc,
		Audit:   auditSvc,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise login service: %w", err)
	}

	if err := seedBootstrapReviewer(ctx, userSvc, cfg, log); err != nil {
		return nil, err
	}

	stack.Cleaner = maintenance.NewCleaner(broker, auditSvc,
		maintenance.WithTokenSchedule(cfg.Auth.LoginToken.SweepSchedule),
		maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
		maintenance.WithAuditSchedule(cfg.Maintenance.AuditSchedule))
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	health := monitoring.NewHealthManager()
	health.RegisterReadiness(checks.Database(stack.DB, 0))
	health.RegisterReadiness(checks.Redis(stack.Redis, cfg.Redis.Enabled, cfg.Redis.Timeout))

	routerDeps := api.Deps{
		JWT:               jwtSvc,
		Applications:      appSvc,
		Extraction:        extractionSvc,
		Login:             loginSvc,
		Holders:           holderSvc,
		Audit:             auditSvc,
		Health:            health,
		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
	}
	if cfg.Monitoring.Prometheus.Enabled {
		routerDeps.MetricsEndpoint = cfg.Monitoring.Prometheus.Endpoint
	}

	stack.Router, err = api.NewRouter(routerDeps)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// seedBootstrapReviewer provisions the initial reviewer account when one is
// configured and no reviewer exists yet.
func seedBootstrapReviewer(ctx context.Context, users *services.UserService, cfg *app.Config, log *zap.Logger) error {
	email := strings.TrimSpace(cfg.Auth.Bootstrap.Email)
	password := cfg.Auth.Bootstrap.Password
	if email == "" || password == "" {
		return nil
	}

	if err := users.EnsureBootstrapReviewer(ctx, email, password); err != nil {
		return fmt.Errorf("seed bootstrap reviewer: %w", err)
	}

	log.Info("bootstrap reviewer ensured", zap.String("email", email))
	return nil
}

// Shutdown gracefully stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil {
		return
	}

	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		if stopCtx != nil {
			ctx = stopCtx
		}
		if err := s.Cleaner.RunOnce(ctx); err != nil {
			log.Warn("maintenance shutdown cleanup failed", zap.Error(err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Warn("redis shutdown", zap.Error(err))
		}
	}

	if s.DB != nil {
		closeDatabase(s.DB, log)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.Database.DatabaseServiceConfig()

	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
