package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"whale-sentry/internal/domain"
)

type Config struct {
	DatabaseURL string
	RedisURL    string

	TelegramBotToken string
	TelegramChatID   string

	OpenAIAPIKey string
	OpenAIModel  string

	ModelVariant domain.ModelVariant

	EngineEnabled  bool
	EngineCoin     string
	EnginePollSecs int
	OrderKRWBudget float64
	RiskPollSecs   int

	TakeProfitPct            float64
	StopLossPct              float64
	PremiumNegativeThreshold float64
	PremiumLowThreshold      float64

	APIKey string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		APIKey:           os.Getenv("API_KEY"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, Telegram bot disabled")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, commentary falls back to rule-based text")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.ModelVariant = domain.VariantAuto
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("MODEL_VARIANT"))); v != "" {
		variant := domain.ModelVariant(v)
		if variant.IsValid() {
			cfg.ModelVariant = variant
		} else {
			log.Printf("Warning: unsupported MODEL_VARIANT=%q, defaulting to auto", v)
		}
	}

	cfg.EngineEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("ENGINE_ENABLED")), "true")

	cfg.EngineCoin = strings.ToUpper(strings.TrimSpace(os.Getenv("ENGINE_COIN")))
	if cfg.EngineCoin == "" {
		cfg.EngineCoin = "BTC"
	}
	if !domain.IsSupportedCoin(cfg.EngineCoin) {
		log.Printf("Warning: unsupported ENGINE_COIN=%q, defaulting to BTC", cfg.EngineCoin)
		cfg.EngineCoin = "BTC"
	}

	cfg.EnginePollSecs = 60
	if v := os.Getenv("ENGINE_POLL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EnginePollSecs = n
		}
	}

	cfg.RiskPollSecs = 3600
	if v := os.Getenv("RISK_POLL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RiskPollSecs = n
		}
	}

	cfg.OrderKRWBudget = 100000
	if v := strings.TrimSpace(os.Getenv("ORDER_KRW_BUDGET")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.OrderKRWBudget = n
		}
	}

	cfg.TakeProfitPct = 0.05
	if v := strings.TrimSpace(os.Getenv("TAKE_PROFIT_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.TakeProfitPct = n
		}
	}

	cfg.StopLossPct = -0.03
	if v := strings.TrimSpace(os.Getenv("STOP_LOSS_PCT")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n < 0 {
			cfg.StopLossPct = n
		}
	}

	cfg.PremiumNegativeThreshold = -0.01
	if v := strings.TrimSpace(os.Getenv("PREMIUM_NEGATIVE_THRESHOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.PremiumNegativeThreshold = n
		}
	}

	cfg.PremiumLowThreshold = 0.02
	if v := strings.TrimSpace(os.Getenv("PREMIUM_LOW_THRESHOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.PremiumLowThreshold = n
		}
	}

	return cfg
}
