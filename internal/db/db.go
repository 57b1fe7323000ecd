package db

import (
	"log"
	"os"
	"time"

	"topicslog/internal/config"
	"topicslog/internal/docstore/gormstore"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to Postgres. Unique violations are translated to
// gorm.ErrDuplicatedKey for the store.
func Open(cfg *config.Config, sugar *zap.SugaredLogger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         gormLogger(cfg),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sugar.Infow("Success connecting to db", "host", cfg.DBHost, "name", cfg.DBName)
	return db, nil
}

func gormLogger(cfg *config.Config) logger.Interface {
	level := logger.Info
	if cfg.IsProduction() {
		level = logger.Error
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			SlowThreshold:             time.Second, // Slow SQL threshold
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  !cfg.IsProduction(),
		},
	)
}

// Migrate runs database migrations
func Migrate(db *gorm.DB, sugar *zap.SugaredLogger) error {
	if err := gormstore.AutoMigrate(db); err != nil {
		return err
	}
	sugar.Infow("Database schema migrated successfully")
	return nil
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
