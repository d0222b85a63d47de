package database

import (
	"time"

	"github.com/tasagro-dev/tasagro/internal/config"
	"github.com/tasagro-dev/tasagro/internal/logger"
	"github.com/tasagro-dev/tasagro/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type DB struct {
	*gorm.DB
}

func Connect(cfg *config.Config) (*DB, error) {
	log := logger.GetLogger("database")

	logLevel := gormlogger.Silent
	if cfg.ServerEnv == "development" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(logLevel),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	if err := db.Use(&MetricsPlugin{}); err != nil {
		log.Warnf("failed to register metrics plugin: %v", err)
	}

	// Connection pool
	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	log.Info("database connection established")

	return &DB{db}, nil
}

// Migrate runs AutoMigrate for the cache tables.
func Migrate(db *DB) error {
	return db.AutoMigrate(
		&models.SearchCache{},
		&models.GeocodeCache{},
	)
}
