package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"vehicle-financing/backend/internal/advisor"
	"vehicle-financing/backend/internal/api"
	"vehicle-financing/backend/internal/checkout"
)

func main() {
	if err := godotenv.Load(); err == nil {
		logrus.Info("loaded environment from .env")
	}

	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	dataDir := filepath.Join(baseDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logrus.Fatalf("create data directory: %v", err)
	}

	advisorCfg := advisor.Config{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   os.Getenv("OPENAI_MODEL"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
	}
	if temp := os.Getenv("OPENAI_TEMPERATURE"); temp != "" {
		if v, err := strconv.ParseFloat(temp, 64); err == nil {
			advisorCfg.Temperature = v
		}
	}
	if maxTokens := os.Getenv("OPENAI_MAX_TOKENS"); maxTokens != "" {
		if v, err := strconv.Atoi(maxTokens); err == nil {
			advisorCfg.MaxTokens = v
		}
	}

	checkoutCfg := checkout.Config{
		APIKey:  os.Getenv("CHECKOUT_API_KEY"),
		BaseURL: os.Getenv("CHECKOUT_BASE_URL"),
	}
	if timeout := os.Getenv("CHECKOUT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			checkoutCfg.Timeout = d
		}
	}

	cfg := api.Config{
		CatalogPath:    strings.TrimSpace(os.Getenv("LENDER_CATALOG_PATH")),
		DBPath:         filepath.Join(dataDir, "financing.db"),
		AdvisorConfig:  advisorCfg,
		CheckoutConfig: checkoutCfg,
		RedisAddr:      strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		AllowedOrigins: splitOrigins(os.Getenv("ALLOWED_ORIGINS")),
		DisableAdvisor: strings.EqualFold(strings.TrimSpace(os.Getenv("DISABLE_ADVISOR")), "true"),
	}

	if override := strings.TrimSpace(os.Getenv("FINANCING_DB_PATH")); override != "" {
		cfg.DBPath = override
	}
	if ttl := os.Getenv("ESTIMATE_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.CacheTTL = d
		}
	}
	if limit := strings.TrimSpace(os.Getenv("RATE_LIMIT")); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil && v > 0 {
			cfg.RateLimit = v
		}
	}
	if window := os.Getenv("RATE_LIMIT_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil {
			cfg.RateWindow = d
		}
	}
	cfg.RequireSubscription = strings.EqualFold(strings.TrimSpace(os.Getenv("REQUIRE_SUBSCRIPTION")), "true")

	server, err := api.NewServer(cfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	logrus.Infof("starting vehicle-financing backend on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}

func splitOrigins(raw string) []string {
	var out []string
	for _, origin := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
