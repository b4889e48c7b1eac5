// Command seed loads products and inventory from a YAML file (SEED_FILE,
// default seed.yaml) into the catalog tables.
package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/imrishuroy/go-rental-cart/internal/aws"
	"github.com/imrishuroy/go-rental-cart/internal/catalog"
	"github.com/imrishuroy/go-rental-cart/internal/config"
	"github.com/imrishuroy/go-rental-cart/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	path := os.Getenv("SEED_FILE")
	if path == "" {
		path = "seed.yaml"
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("read seed file", zap.String("path", path), zap.Error(err))
	}
	f, err := catalog.ParseSeed(raw)
	if err != nil {
		logger.Fatal("invalid seed file", zap.String("path", path), zap.Error(err))
	}

	ctx := context.Background()
	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}
	store := catalog.NewStore(clients.DynamoDB, cfg.ProductsTable, cfg.InventoryTable)
	if err := store.Seed(ctx, f); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("catalog seeded",
		zap.Int("products", len(f.Products)),
		zap.Int("inventory", len(f.Inventory)))
}
