package database

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes a connection to the PostgreSQL database
func Connect(dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Database connection established")
	return db, nil
}

// AutoMigrate runs database migrations
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&Organization{},
		&Incident{},
		&TimelineEvent{},
		&Hypothesis{},
		&Integration{},
		&AIActivity{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// InitializeDefaults creates the default organization if no organization
// exists yet, so a fresh install has a tenant to receive webhooks on.
func InitializeDefaults(db *gorm.DB, defaultOrgName string) error {
	var count int64
	if err := db.Model(&Organization{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count organizations: %w", err)
	}
	if count > 0 {
		return nil
	}

	org := &Organization{
		UUID: uuid.New().String(),
		Name: defaultOrgName,
		Slug: "default",
	}
	if err := db.Create(org).Error; err != nil {
		return fmt.Errorf("failed to create default organization: %w", err)
	}
	log.Printf("Created default organization %q (slug: %s)", org.Name, org.Slug)
	return nil
}
