// Package db opens the relational store and keeps its schema in sync
package db

import (
	"errors"
	"fmt"
	"os"

	"github.com/fork-archive-hub/drive-server/internal/model"
	"github.com/fork-archive-hub/drive-server/pkg/util"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens the database selected by driver and migrates it
func New(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		// If running in a container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.InContainer() {
			if _, err := os.Stat(dsn); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", dsn)
			}
		}

		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database, %w", driver, err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates every table and unique index the services rely on
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		model.User{},
		model.KeyServer{},
		model.Team{},
		model.TeamMember{},
		model.TeamInvitation{},
		model.Share{},
		model.Folder{},
		model.File{},
		model.FolderLock{},
	)
	if err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return nil
}
