package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"propvalue/server/config"
	"propvalue/server/internal/api"
	"propvalue/server/internal/auth"
	"propvalue/server/internal/cache"
	"propvalue/server/internal/database"
	"propvalue/server/internal/prediction"
	"propvalue/server/internal/pricing"
	"propvalue/server/internal/properties"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	// A missing .env is fine; the environment may already be populated
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file loaded")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	gin.SetMode(cfg.Server.GinMode)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	repo, err := openRepository(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize property store")
	}
	defer repo.Close()

	propertyCache, err := openCache(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize cache")
	}
	if closer, ok := propertyCache.(io.Closer); ok {
		defer closer.Close()
	}

	jwtManager, err := auth.NewJWTManager(cfg.Auth.JWTSecret, 0)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize authentication")
	}

	service := properties.NewService(repo, propertyCache, jwtManager, properties.Options{
		PropertyTTL:           cfg.Cache.PropertyTTL,
		SearchTTL:             cfg.Cache.SearchTTL,
		SearchHistoryLimit:    cfg.Cache.SearchHistoryLimit,
		StrictCreateOwnership: cfg.Auth.StrictCreateOwnership,
	}, logger)

	predictor := prediction.NewClient(cfg.Prediction.URL, cfg.Prediction.RateLimit, logger)
	engine := pricing.NewEngine(service, predictor, cfg.Prediction.Workers, logger)

	handler := api.NewHandler(service, engine, predictor, jwtManager, cfg.Server.UploadDir, logger)
	router := api.NewRouter(handler, cfg.Server.CORSAllowOrigins, logger)

	logger.Infof("Starting server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.WithError(err).Fatal("Server failed to start")
	}
}

func openRepository(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (database.PropertyRepository, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		logger.Infof("Using SQLite database at: %s", cfg.Store.SQLitePath)
		if err := os.MkdirAll(filepath.Dir(cfg.Store.SQLitePath), 0755); err != nil {
			return nil, err
		}
		repo, err := database.NewGormRepository(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("Running database migrations...")
		if err := repo.RunMigrations(); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil

	case "memory":
		logger.Warn("Using in-memory property store; data is lost on restart")
		return database.NewMemoryRepository(), nil

	default:
		logger.WithField("database", cfg.Store.MongoDatabase).Info("Connecting to MongoDB")
		repo, err := database.NewMongoRepository(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := repo.EnsureIndexes(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil
	}
}

func openCache(cfg *config.Config, logger *logrus.Logger) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		redisCache := cache.NewRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisCache.Ping(ctx); err != nil {
			return nil, err
		}
		logger.WithField("addr", cfg.Cache.RedisAddr).Info("Using Redis cache")
		return redisCache, nil

	case "memory":
		logger.Info("Using in-process cache")
		return cache.NewMemory(), nil

	default:
		logger.Info("Caching disabled")
		return cache.Noop{}, nil
	}
}
