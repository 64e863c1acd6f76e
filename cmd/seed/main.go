package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

var sampleItems = []catalog.ItemInput{
	{Name: "Item A", Description: "Sample item A", Price: 1000},
	{Name: "Item B", Description: "Sample item B", Price: 2500},
	{Name: "Item C", Description: "Sample item C", Price: 499},
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})
	_ = godotenv.Load()

	withOrder := flag.Bool("order", true, "also create a sample unpaid order with the first two items")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	if err := run(ctx, cfg, logg, *withOrder); err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, withOrder bool) error {
	dbClient, err := db.New(ctx, cfg.DB, db.Options{
		UseSQLite:   cfg.FeatureFlags.UseSQLite,
		AutoMigrate: cfg.FeatureFlags.UseSQLite,
	}, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		return err
	}

	seeded := make([]*models.Item, 0, len(sampleItems))
	for _, input := range sampleItems {
		item, created, err := catalogService.EnsureItem(ctx, input)
		if err != nil {
			return fmt.Errorf("seed %s: %w", input.Name, err)
		}
		logg.Info(logg.WithFields(ctx, map[string]any{
			"item_id": item.ID,
			"name":    item.Name,
			"created": created,
		}), "seed.item")
		seeded = append(seeded, item)
	}

	if !withOrder {
		return nil
	}

	var orderID uint
	err = dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := orders.NewRepository(tx)
		order := &models.Order{}
		if err := repo.Create(ctx, order); err != nil {
			return err
		}
		for _, item := range seeded[:2] {
			if err := repo.CreateLine(ctx, &models.OrderItem{OrderID: order.ID, ItemID: item.ID, Quantity: 1}); err != nil {
				return err
			}
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed order: %w", err)
	}
	logg.Info(logg.WithOrderID(ctx, orderID), "seed.order")
	return nil
}
