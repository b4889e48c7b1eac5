// Package config loads process settings from the environment and an optional
// pricing constants file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/imrishuroy/go-rental-cart/internal/catalog"
)

// Cart store backends.
const (
	CartStoreMemory   = "memory"
	CartStoreDynamoDB = "dynamodb"
)

// Config is the runtime configuration shared by the API and the worker.
type Config struct {
	Env              string
	Port             string
	LogLevel         string
	RunLocal         bool
	ProductsTable    string
	InventoryTable   string
	InvoicesTable    string
	IdempotencyTable string
	CartsTable       string
	QueueURL         string
	MetricsNamespace string
	TTLWindow        time.Duration
	CartTTL          time.Duration
	// CartStore is "memory" or "dynamodb". In-memory carts only work with a
	// single long-lived API process.
	CartStore string
	AllowedOrigins   []string
	PricingFile      string

	// Pricing overrides catalog coefficients per product id.
	Pricing map[string]catalog.PricingConstants
}

// pricingFile is the YAML shape of the pricing constants file:
//
//	products:
//	  muletas-axilares:
//	    a: 3.72
//	    b: 1.89
type pricingFile struct {
	Products map[string]catalog.PricingConstants `yaml:"products"`
}

// Load reads .env (if present), then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:              getenv("APP_ENV", "production"),
		Port:             getenv("PORT", "8080"),
		LogLevel:         getenv("LOG_LEVEL", "info"),
		RunLocal:         os.Getenv("RUN_LOCAL") == "true",
		ProductsTable:    getenv("PRODUCTS_TABLE", "products"),
		InventoryTable:   getenv("INVENTORY_TABLE", "inventory"),
		InvoicesTable:    getenv("INVOICES_TABLE", "invoices"),
		IdempotencyTable: getenv("IDEMPOTENCY_TABLE", "idempotency"),
		CartsTable:       getenv("CARTS_TABLE", "carts"),
		QueueURL:         os.Getenv("INVOICES_QUEUE_URL"),
		MetricsNamespace: getenv("METRICS_NAMESPACE", "RentalCart"),
		PricingFile:      os.Getenv("PRICING_FILE"),
		AllowedOrigins:   splitList(getenv("ALLOWED_ORIGINS", "*")),
	}

	ttl, err := parseHours(getenv("IDEMPOTENCY_TTL_HOURS", "48"))
	if err != nil {
		return nil, fmt.Errorf("IDEMPOTENCY_TTL_HOURS: %w", err)
	}
	cfg.TTLWindow = ttl

	cartTTL, err := parseHours(getenv("CART_TTL_HOURS", "72"))
	if err != nil {
		return nil, fmt.Errorf("CART_TTL_HOURS: %w", err)
	}
	cfg.CartTTL = cartTTL

	defaultStore := CartStoreDynamoDB
	if cfg.RunLocal {
		defaultStore = CartStoreMemory
	}
	cfg.CartStore = getenv("CART_STORE", defaultStore)
	if cfg.CartStore != CartStoreMemory && cfg.CartStore != CartStoreDynamoDB {
		return nil, fmt.Errorf("CART_STORE: unknown store %q", cfg.CartStore)
	}

	if cfg.PricingFile != "" {
		pricing, err := LoadPricingFile(cfg.PricingFile)
		if err != nil {
			return nil, err
		}
		cfg.Pricing = pricing
	}
	return cfg, nil
}

// LoadPricingFile parses a YAML pricing constants file.
func LoadPricingFile(path string) (map[string]catalog.PricingConstants, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}
	return ParsePricing(raw)
}

// ParsePricing decodes pricing constants and validates them.
func ParsePricing(raw []byte) (map[string]catalog.PricingConstants, error) {
	var f pricingFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse pricing file: %w", err)
	}
	v := catalog.NewValidator()
	for id, c := range f.Products {
		if id == "" {
			return nil, fmt.Errorf("pricing file: empty product id")
		}
		if err := v.Struct(c); err != nil {
			return nil, fmt.Errorf("pricing file: product %q: %w", id, err)
		}
	}
	return f.Products, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseHours(s string) (time.Duration, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return time.Duration(n) * time.Hour, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
