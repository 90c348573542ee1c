package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/jtiebel/formguard-api/internal/audit"
	"github.com/jtiebel/formguard-api/internal/classifier"
	"github.com/jtiebel/formguard-api/internal/config"
	"github.com/jtiebel/formguard-api/internal/database"
	"github.com/jtiebel/formguard-api/internal/handler"
	"github.com/jtiebel/formguard-api/internal/middleware"
	"github.com/jtiebel/formguard-api/internal/review"
	"github.com/jtiebel/formguard-api/internal/router"
	"github.com/jtiebel/formguard-api/internal/service"
	"github.com/jtiebel/formguard-api/internal/token"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	scoring := classifier.ScoringConfig{
		Threshold:   cfg.ScoreThreshold,
		WarnBand:    cfg.WarnBand,
		LogCapacity: cfg.LogCapacity,
	}

	var engineOpts []classifier.Option
	if cfg.RulesetPath != "" {
		ruleset, err := config.LoadRuleset(cfg.RulesetPath)
		if err != nil {
			log.Fatalf("failed to load ruleset: %v", err)
		}
		if len(ruleset.Keywords) > 0 {
			engineOpts = append(engineOpts, classifier.WithKeywords(ruleset.Keywords))
		}
		if ruleset.Threshold > 0 {
			scoring.Threshold = ruleset.Threshold
		}
	}

	engine := classifier.NewEngine(scoring, engineOpts...)
	auditLog := audit.NewLog(scoring.LogCapacity)

	var tokenStore token.Store = token.NewMemoryStore()
	if cfg.RedisURL != "" {
		redisClient, err := database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		tokenStore = token.NewRedisStore(redisClient, cfg.TokenTTL)
	}
	issuer := token.NewIssuer(tokenStore, cfg.TokenSingleUse, logger)

	var publisher review.Publisher = review.NopPublisher{}
	if cfg.NATSURL != "" {
		natsConn, err := nats.Connect(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
		publisher = review.NewNATSPublisher(natsConn, cfg.ReviewSubject, logger)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	evaluationService := service.NewEvaluationService(engine, issuer, auditLog, publisher, validate, logger)

	evaluateHandler := handler.NewEvaluateHandler(evaluationService, logger)
	tokenHandler := handler.NewTokenHandler(issuer, validate, logger)
	auditHandler := handler.NewAuditHandler(auditLog, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		EvaluateHandler: evaluateHandler,
		TokenHandler:    tokenHandler,
		AuditHandler:    auditHandler,
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
		RateLimiter:     middleware.RateLimit("evaluate", cfg.RateLimitMax, cfg.RateLimitTTL),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
