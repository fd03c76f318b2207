package database

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"eventhub-backend/config"
	"eventhub-backend/internal/models"
)

// DSN builds the postgres connection string from the DB_* settings.
func DSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Pass, cfg.Name, cfg.Port, cfg.SSLMode,
	)
}

// GormConfig is shared by production and test connections so both translate
// driver errors the same way.
func GormConfig(log *logrus.Logger, debug bool) *gorm.Config {
	level := logger.Error
	if debug {
		level = logger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		}),
	}
}

// Connect opens the database and configures the connection pool.
func Connect(cfg config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	if cfg.Host == "" || cfg.User == "" || cfg.Name == "" || cfg.Port == "" {
		return nil, errors.New("database settings missing, check DB_HOST, DB_USER, DB_NAME and DB_PORT")
	}

	db, err := gorm.Open(postgres.Open(DSN(cfg)), GormConfig(log, cfg.Debug))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get database connection")
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

// ConnectWithRetry retries Connect with exponential backoff.
func ConnectWithRetry(cfg config.DatabaseConfig, log *logrus.Logger, attempts int) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	wait := time.Second
	for i := 0; i < attempts; i++ {
		log.WithField("attempt", i+1).Info("Connecting to database...")
		db, err = Connect(cfg, log)
		if err == nil {
			return db, nil
		}
		log.WithFields(logrus.Fields{
			"error":         err.Error(),
			"retry_attempt": i + 1,
			"max_retries":   attempts,
		}).Error("Failed to connect to database, retrying...")
		if i < attempts-1 {
			time.Sleep(wait)
			wait *= 2
		}
	}
	return nil, err
}

// Migrate runs the schema migrations for every model.
func Migrate(db *gorm.DB) error {
	if err := models.Migrate(db); err != nil {
		return errors.Wrap(err, "migration failed")
	}
	return nil
}
