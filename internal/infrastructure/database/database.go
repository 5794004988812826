package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/waste3d/courseplatform-api/config"
	"github.com/waste3d/courseplatform-api/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const connectAttempts = 5

// Open connects to the configured driver, retrying while the database container wakes up.
func Open(cfg config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	var db *gorm.DB
	var err error
	for i := 0; i < connectAttempts; i++ {
		db, err = gorm.Open(dialector, &gorm.Config{TranslateError: true})
		if err == nil {
			break
		}
		log.Printf("DB connect attempt %d failed: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.DBDriver, err)
	}

	if cfg.DBDriver == "postgres" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}
	return db, nil
}

// OpenMemory returns a private in-memory SQLite database, migrated. Used by tests and local tooling.
func OpenMemory(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// shared-cache memory databases lock per table across connections
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Session{},
		&domain.Course{},
		&domain.Video{},
		&domain.Enrollment{},
		&domain.WatchProgress{},
		&domain.Like{},
		&domain.Plan{},
		&domain.Payment{},
		&domain.WebhookEvent{},
	)
}

var DefaultPlans = []domain.Plan{
	{Name: "Monthly", Code: "monthly", Amount: 500000, Currency: "NGN", Interval: "monthly", Description: "Full library access, billed monthly", IsActive: true},
	{Name: "Annual", Code: "annual", Amount: 5000000, Currency: "NGN", Interval: "annually", Description: "Full library access, billed yearly", IsActive: true},
}

// Seed inserts the default plans when the table is empty.
func Seed(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&domain.Plan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	plans := make([]domain.Plan, len(DefaultPlans))
	copy(plans, DefaultPlans)
	if err := db.WithContext(ctx).Create(&plans).Error; err != nil {
		return err
	}
	log.Printf("Seeded %d plans", len(plans))
	return nil
}

// Ping checks the underlying connection.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if sqlDB == nil {
		return errors.New("no sql connection")
	}
	return sqlDB.PingContext(ctx)
}
