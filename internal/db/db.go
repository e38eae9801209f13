package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inkpress/inkpress/internal/models"
)

// Connect opens the postgres pool and runs migrations. The returned handle
// is created once at startup and passed explicitly into the repositories;
// nothing mutates it afterwards.
func Connect(dsn string) (*gorm.DB, error) {
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}

	return conn, nil
}

// Migrate creates or updates the schema, including the unique index on
// article slugs that backs conflict detection.
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.Author{},
		&models.Category{},
		&models.Tag{},
		&models.Article{},
		&models.ArticleTag{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
