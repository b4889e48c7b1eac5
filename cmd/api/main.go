package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-rental-cart/internal/aws"
	"github.com/imrishuroy/go-rental-cart/internal/cart"
	"github.com/imrishuroy/go-rental-cart/internal/cartstore"
	"github.com/imrishuroy/go-rental-cart/internal/catalog"
	"github.com/imrishuroy/go-rental-cart/internal/checkout"
	"github.com/imrishuroy/go-rental-cart/internal/config"
	"github.com/imrishuroy/go-rental-cart/internal/handlers"
	"github.com/imrishuroy/go-rental-cart/internal/idempotency"
	"github.com/imrishuroy/go-rental-cart/internal/invoices"
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

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		logger.Fatal("failed to init aws clients", zap.Error(err))
	}

	store := catalog.NewStore(clients.DynamoDB, cfg.ProductsTable, cfg.InventoryTable)
	generator := invoices.NewGenerator(
		invoices.NewStore(clients.DynamoDB, cfg.InvoicesTable),
		idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.TTLWindow),
		aws.NewPublisher(clients.SQS, cfg.QueueURL),
		logger,
	)

	var carts handlers.CartSessions = cartstore.NewStore(clients.DynamoDB, cfg.CartsTable, cfg.CartTTL)
	if cfg.CartStore == config.CartStoreMemory {
		// only safe with a single API process; Lambda instances do not share memory
		carts = cart.NewRegistry()
	}
	logger.Info("cart store", zap.String("backend", cfg.CartStore))

	hc := handlers.HandlerConfig{
		Service: checkout.NewService(store, store, generator, cfg.Pricing, logger),
		Carts:   carts,
		Logger:  logger,
	}

	if !cfg.RunLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	r := handlers.NewRouter(hc, cfg.AllowedOrigins)

	if cfg.RunLocal {
		addr := ":" + cfg.Port
		logger.Info("running local server", zap.String("addr", addr))
		if err := r.Run(addr); err != nil {
			logger.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	adapter := ginadapter.New(r)
	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
