package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	internaladmin "github.com/angelmondragon/storefront-backend/internal/admin"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "create-admin"})
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	ctx := logg.WithAdmin(context.Background(), cfg.Admin.User)

	if cfg.Admin.Password == "" {
		logg.Warn(ctx, "ADMIN_PASSWORD not set, skipping admin bootstrap")
		return
	}

	dbClient, err := db.New(ctx, cfg.DB, db.Options{
		UseSQLite:   cfg.FeatureFlags.UseSQLite,
		AutoMigrate: cfg.FeatureFlags.UseSQLite,
	}, logg)
	if err != nil {
		logg.Error(ctx, "resource not working: database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	svc, err := internaladmin.NewService(internaladmin.ServiceParams{
		Repo:           internaladmin.NewRepository(dbClient.DB()),
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "failed to build admin service", err)
		os.Exit(1)
	}

	created, err := svc.Bootstrap(ctx, internaladmin.BootstrapInput{
		Username: cfg.Admin.User,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	})
	if err != nil {
		logg.Error(ctx, "admin bootstrap failed", err)
		os.Exit(1)
	}
	if !created {
		logg.Info(ctx, "admin already exists")
		return
	}
	logg.Info(ctx, "admin created")
}
