package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-rental-cart/internal/aws"
	"github.com/imrishuroy/go-rental-cart/internal/catalog"
	"github.com/imrishuroy/go-rental-cart/internal/config"
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

	p := NewProcessor(
		invoices.NewStore(clients.DynamoDB, cfg.InvoicesTable),
		catalog.NewStore(clients.DynamoDB, cfg.ProductsTable, cfg.InventoryTable),
		aws.NewMetrics(clients.CloudWatch, cfg.MetricsNamespace),
		logger,
	)

	// RUN_LOCAL=true processes one message from LOCAL_SQS_BODY and exits.
	if cfg.RunLocal {
		body := os.Getenv("LOCAL_SQS_BODY")
		if body == "" {
			logger.Fatal("LOCAL_SQS_BODY is required when RUN_LOCAL=true")
		}
		ev := events.SQSEvent{Records: []events.SQSMessage{{MessageId: "local", Body: body}}}
		if err := p.Handle(context.Background(), ev); err != nil {
			logger.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(p.Handle)
}
