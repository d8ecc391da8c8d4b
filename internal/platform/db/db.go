package db

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fatflowers/memberlink/internal/models"
	cfgpkg "github.com/fatflowers/memberlink/pkg/config"
	gormzap "github.com/fatflowers/memberlink/pkg/gormlog"
)

// Open connects with the configured driver. postgres is the production
// store; sqlite serves local development and the CLI against a file.
func Open(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		l.Error("database DSN is empty")
		return nil, gorm.ErrInvalidDB
	}
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case cfgpkg.DBDriverPostgres, "":
		dialector = postgres.Open(cfg.Database.DSN)
	case cfgpkg.DBDriverSQLite:
		dialector = sqlite.Open(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormzap.New(l)})
	if err != nil {
		l.Errorf("failed to connect database: %v", err)
		return nil, err
	}
	l.Infow("connected to database", "driver", dialector.Name())
	return db, nil
}

var Module = fx.Options(
	fx.Provide(Open),
	fx.Invoke(AutoMigrate),
	fx.Invoke(registerDBClose),
)

// AutoMigrate runs GORM migrations on startup
func AutoMigrate(l *zap.SugaredLogger, db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Membership{},
		&models.WebhookEventLog{},
	); err != nil {
		l.Errorf("automigrate failed: %v", err)
		return err
	}
	l.Infow("automigrate completed")
	return nil
}

// registerDBClose ensures the underlying *sql.DB is closed on shutdown
func registerDBClose(lc fx.Lifecycle, l *zap.SugaredLogger, gdb *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return Close(l, gdb)
		},
	})
}

func Close(l *zap.SugaredLogger, gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		l.Warnw("gorm: get sql.DB failed", "err", err)
		return nil
	}
	l.Infow("closing database connection pool")
	return sqlDB.Close()
}
