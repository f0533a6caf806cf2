package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"whale-sentry/internal/advisor"
	"whale-sentry/internal/anomaly"
	"whale-sentry/internal/bot"
	"whale-sentry/internal/cache"
	"whale-sentry/internal/collector"
	"whale-sentry/internal/config"
	"whale-sentry/internal/db"
	"whale-sentry/internal/handler"
	"whale-sentry/internal/job"
	"whale-sentry/internal/ml/registry"
	"whale-sentry/internal/repository"
	"whale-sentry/internal/risk"
	"whale-sentry/internal/strategy"
	"whale-sentry/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "whale-sentry/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newPredictorFunc       = risk.NewPredictor
	newRiskPollerFunc      = job.NewRiskPoller
	startRiskPollerFunc    = func(p *job.RiskPoller, ctx context.Context) { go p.Start(ctx) }
	startEngineFunc        = func(e *bot.Engine, ctx context.Context) { go e.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Whale Sentry API
// @version         1.0
// @description     Whale-tracking risk prediction and trading signals.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	if db.Pool == nil {
		log.Fatal("DATABASE_URL is required: the risk predictor loads its model artifact from Postgres")
	}

	// Repositories
	marketRepo := repository.NewMarketRepository(db.Pool, tracer)
	premiumRepo := repository.NewPremiumRepository(db.Pool, tracer)
	whaleRepo := repository.NewWhaleRepository(db.Pool, tracer)
	predictionRepo := repository.NewPredictionRepository(db.Pool, tracer)
	decisionRepo := repository.NewDecisionRepository(db.Pool, tracer)
	registryRepo := registry.NewRepository(db.Pool, tracer)

	if err := marketRepo.RunMigrations(ctx); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Load the model and build the scoring stack
	predictor, err := newPredictorFunc(ctx, tracer, registryRepo, marketRepo, cfg.ModelVariant)
	if err != nil {
		log.Fatalf("failed to load risk model (variant %s): %v", cfg.ModelVariant, err)
	}
	log.Printf("risk predictor ready with variant %s", predictor.Variant())

	// Background scoring keeps the risk_predictions audit table current
	riskPoller := newRiskPollerFunc(tracer, predictor, predictionRepo, cfg.RiskPollSecs)
	startRiskPollerFunc(riskPoller, ctx)

	ttlCache := cache.NewTTLCache(cache.Client)
	coll := collector.New(tracer, ttlCache, predictor, premiumRepo, whaleRepo)

	strat := strategy.NewDataDriven(tracer, coll, predictor.FeatureImportance(), cfg.TakeProfitPct, cfg.StopLossPct)
	premiumFilter := strategy.NewPremiumFilter(cfg.PremiumNegativeThreshold, cfg.PremiumLowThreshold)

	// Trade engine (paper execution)
	var engine *bot.Engine
	if cfg.EngineEnabled {
		executor := bot.NewPaperExecutor(coll)
		engine = bot.NewEngine(
			tracer, strat, premiumFilter, coll, executor, decisionRepo, nil,
			cfg.EngineCoin, cfg.OrderKRWBudget, cfg.EnginePollSecs,
		)
		startEngineFunc(engine, ctx)
	}

	// Telegram bot + trade notifications
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	os.Setenv("TELEGRAM_CHAT_ID", cfg.TelegramChatID)
	notifier := startTelegramBotFunc(predictor, strat, engine)
	if engine != nil && notifier != nil {
		engine.SetNotifier(notifier)
	}

	// Advisor commentary
	var llm advisor.LLMClient
	if cfg.OpenAIAPIKey != "" {
		llm = advisor.NewOpenAIClient(cfg.OpenAIAPIKey)
	}
	adv := advisor.New(tracer, llm, cfg.OpenAIModel)

	detector := anomaly.NewDetector(tracer)

	h := handler.New(tracer, predictor, strat, adv, coll, decisionRepo, detector, engine)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("whale-sentry"))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
