package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"arthik-chat-be/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func getLogger(level logger.LogLevel) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  true,
		},
	)
}

func configureConnectionPool(db *gorm.DB, maxOpen int) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return nil
}

// NewGormDB opens a postgres or sqlite database. For sqlite the connection
// string is a file path (or ":memory:").
func NewGormDB(driver, dsn string, verbose bool) (*gorm.DB, error) {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	cfg := &gorm.Config{Logger: getLogger(level)}

	var (
		db      *gorm.DB
		err     error
		maxOpen = 100
	)
	switch strings.ToLower(driver) {
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("postgres: DB_CONNECTION_STRING is required")
		}
		db, err = gorm.Open(postgres.Open(dsn), cfg)
	case "sqlite":
		if dsn == "" {
			dsn = "arthik_chat.db"
		}
		db, err = gorm.Open(sqlite.Open(sqliteDSN(dsn)), cfg)
		// sqlite serialises writers; one connection avoids SQLITE_BUSY.
		maxOpen = 1
	default:
		return nil, fmt.Errorf("unsupported sql driver: %s", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := configureConnectionPool(db, maxOpen); err != nil {
		return nil, err
	}
	return db, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_foreign_keys=on"
}

// AutoMigrate creates or updates the chat tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.ChatSession{}, &model.ChatMessage{})
}
