package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"gedquiz/internal/app"
	"gedquiz/internal/app/observability"
	"gedquiz/internal/auth"
	"gedquiz/internal/db"
	"gedquiz/internal/event"
	"gedquiz/internal/progress"
	"gedquiz/internal/question"
	"gedquiz/internal/quiz"
	"gedquiz/internal/session"
)

func main() {
	cfg := app.LoadConfig()
	ctx := context.Background()

	dbConn, err := db.OpenPostgresWithConfig(ctx, cfg.DBDSN, db.PostgresConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.DBConnMaxLifeMins) * time.Minute,
	})
	if err != nil {
		log.Printf("database error: %v", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if cfg.SchemaBootstrap {
		if err := db.EnsureSchema(ctx, dbConn); err != nil {
			log.Printf("schema bootstrap error: %v", err)
			os.Exit(1)
		}
	}

	var cache question.Cache
	rdb, err := db.OpenRedis(ctx, db.RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	switch {
	case err != nil:
		log.Printf("redis unavailable, question cache disabled: %v", err)
	case rdb == nil:
		log.Printf("REDIS_ADDR is empty, question cache disabled")
	default:
		defer rdb.Close()
		cache = question.NewRedisCache(rdb, "gedquiz:")
	}

	publisher, err := event.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	if err != nil {
		log.Printf("rabbitmq unavailable, event publishing disabled: %v", err)
		publisher, _ = event.NewPublisher("", "")
	}
	defer publisher.Close()

	collector := observability.NewCollector(dbConn)
	questions := question.NewStore(dbConn, cache, cfg.QuestionCacheTTL)
	prog := progress.NewStore(dbConn)

	registry := session.NewRegistry()
	registry.OnChange(collector.SetActiveSessions)
	sessions := session.NewService(questions, prog, registry, quiz.Hooks(collector.EventHook, publisher.Hook), cfg.BatchQuestionLimit)

	limiter := app.NewRateLimiter(cfg.FetchRateLimitPerMin, time.Minute)
	sweeper, err := session.NewSweeper(cfg.SessionSweepCron, sessions, cfg.SessionIdle, func() { limiter.Prune() })
	if err != nil {
		log.Printf("sweeper error: %v", err)
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	verifier := auth.NewVerifier(cfg.AuthJWTSecret)
	if !verifier.Enabled() {
		log.Printf("AUTH_JWT_SECRET is empty, only anonymous sessions are available")
	}

	r := app.NewRouter(app.Dependencies{
		Questions: questions,
		Progress:  prog,
		Sessions:  sessions,
		Verifier:  verifier,
		Collector: collector,
		Limiter:   limiter,
	})

	log.Printf("gedquiz web listening on %s (env=%s)", cfg.HTTPAddr, cfg.AppEnv)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Printf("server stopped: %v", err)
		os.Exit(1)
	}
}
