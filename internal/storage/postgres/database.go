package postgres

import (
	"fmt"
	"log/slog"

	"github.com/VitaminP8/postsync/models"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// Settings selects the gorm dialect and connection string.
type Settings struct {
	Dialect string // "postgres" or "sqlite3"
	DSN     string
}

// DSN builds a postgres connection string from its parts.
func DSN(host, user, password, name, port, sslmode string) string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, password, name, port, sslmode,
	)
}

// Open connects to the database and applies the schema.
func Open(s Settings) (*gorm.DB, error) {
	db, err := gorm.Open(s.Dialect, s.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}
	db.LogMode(false)

	if s.Dialect == "sqlite3" {
		// sqlite allows a single writer; keep one connection so an in-memory
		// database is not silently recreated per connection.
		db.DB().SetMaxOpenConns(1)
		db.Exec("PRAGMA foreign_keys = ON")
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("database ready", "dialect", s.Dialect)
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...).Error; err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close closes the connection. A nil db is a no-op.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close the database connection: %w", err)
	}
	return nil
}
