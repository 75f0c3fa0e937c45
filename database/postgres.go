package database

import (
	"fleet-backend/models"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the Postgres connection and migrates the schema. Any failure
// is fatal.
func Connect(databaseURL string, logLevel string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(logLevel)),
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	log.Println("✅ Database connected successfully")

	if err := Migrate(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	log.Println("✅ Database migrated successfully")
	return db
}

// Migrate auto-migrates all models. Activities come before the tables that
// reference them.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Vehicle{},
		&models.Driver{},
		&models.Activity{},
		&models.AutomaticActivity{},
		&models.Expense{},
		&models.Revenue{},
	)
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info":
		return logger.Info
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}
