// Package db opens the configured database and keeps the schema current
package db

import (
	"errors"
	"fmt"
	"os"

	"clipforge/editor-api/internal/model"
	"clipforge/editor-api/pkg/util"

	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// New opens SQLite or Postgres depending on database.driver and migrates
// the schema. SQLite is the default for single-node deployments
func New() (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch viper.GetString("database.driver") {
	case "postgres":
		dsn := viper.GetString("database.dsn")
		if dsn == "" {
			return nil, errors.New("database.dsn is required for the postgres driver")
		}

		dialector = postgres.Open(dsn)
	case "sqlite", "":
		path := viper.GetString("database.dsn")
		if path == "" {
			path = "database.db"
		}

		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(path); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", path)
				}
			}
		}

		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unknown database driver %q", viper.GetString("database.driver"))
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database, %w", err)
	}

	err = db.AutoMigrate(
		model.Project{},
		model.TimelineSnapshot{},
		model.VersionCounter{},
		model.AuditLog{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return db, nil
}
