package cmd

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"eventhub-backend/config"
	"eventhub-backend/internal/api"
	"eventhub-backend/internal/auth"
	"eventhub-backend/internal/cache"
	"eventhub-backend/internal/database"
	"eventhub-backend/internal/notify"
	"eventhub-backend/internal/service"
)

const connectAttempts = 5

// openDatabase connects with retry and returns a func that closes the pool.
func openDatabase() (*gorm.DB, func(), error) {
	db, err := database.ConnectWithRetry(cfg.DB, log, connectAttempts)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to connect to database after %d attempts", connectAttempts)
	}
	log.Info("Successfully connected to database")

	closeDB := func() {
		log.Info("Closing database connection...")
		sqlDB, err := db.DB()
		if err != nil {
			return
		}
		if err := sqlDB.Close(); err != nil {
			log.WithError(err).Error("Error closing database connection")
		}
	}
	return db, closeDB, nil
}

func newNotifier() notify.Notifier {
	if cfg.SMTP.Enabled {
		log.WithField("host", cfg.SMTP.Host).Info("Email delivery via SMTP")
		return notify.NewSMTPNotifier(cfg.SMTP)
	}
	log.Info("SMTP disabled, emails will be logged")
	return &notify.LogNotifier{Log: log}
}

// newCache falls back to a disabled cache when Redis is unreachable.
func newCache() *cache.RedisCache {
	c, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize Redis cache, continuing without caching")
		c, _ = cache.NewRedisCache(config.RedisConfig{})
	}
	return c
}

func newTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expire, cfg.JWT.AdminExpire)
}

func newServices(db *gorm.DB, notifier notify.Notifier, tokens *auth.TokenManager, c cache.Cache) api.Services {
	return api.Services{
		Auth:     service.NewAuthService(db, log, notifier, tokens, cfg.FrontendURL),
		Users:    service.NewUserService(db, log, notifier, tokens),
		Events:   service.NewEventService(db, log, notifier),
		RSVPs:    service.NewRSVPService(db, log, notifier),
		Comments: service.NewCommentService(db, log, notifier),
		Admin:    service.NewAdminService(db, log, notifier, c),
	}
}
