/**
 * @description
 * This is the main entry point for the affiliate-service. It is responsible
 * for initializing all components of the service: configuration, the database
 * connection pool, the RabbitMQ producer and consumer, the Redis client used
 * for click rate limiting, the auto-payout scheduler, the repository, the core
 * application service, and the HTTP server. It wires everything together and
 * starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Redis client for rate limiting.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/shoplane/affiliate-service/internal/api"
	"github.com/shoplane/affiliate-service/internal/app"
	"github.com/shoplane/affiliate-service/internal/config"
	"github.com/shoplane/affiliate-service/internal/store"
	rmrabbit "github.com/shoplane/affiliate-service/pkg/rabbitmq"
)

func main() {
	// Load .env for local development; in production everything comes from
	// the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("level=info component=bootstrap msg=\"no .env file found, using environment\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.InternalAPIKey) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"internal api key must be configured\" env=INTERNAL_API_KEY")
	}
	if strings.TrimSpace(cfg.ClickHashSalt) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"click hash salt must be configured\" env=CLICK_HASH_SALT")
	}

	log.Printf("level=info component=bootstrap msg=\"starting affiliate-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}

	poolConfig.MaxConns = 100
	poolConfig.MinConns = 20
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts behind
	// connection poolers.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Initialize the RabbitMQ producer. A broker outage degrades event
	// publishing but must not keep the service from booting.
	var producer rmrabbit.Publisher
	eventProducer, err := rmrabbit.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; using fallback\" err=%v", err)
		producer = &rmrabbit.EventProducerFallback{}
	} else {
		defer eventProducer.Close()
		producer = eventProducer
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Redis backs click rate limiting. A missing or unreachable Redis
	// disables the limiter rather than the service.
	var redisClient *redis.Client
	if cfg.ClickRateLimitPerMinute > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; click rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; click rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; click rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// Initialize the core application service with its dependencies.
	affiliateService := app.NewService(repository, producer, cfg.EventExchange, cfg.ClickHashSalt)

	var rateLimiter app.ClickRateLimiter
	if redisClient != nil {
		rateLimiter = app.NewRedisClickRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
	}

	// Wire up the sale-event consumer: every successful subscription payment
	// published by the billing side flows through here and becomes a
	// commission.
	saleConsumer := affiliateService.SaleEventConsumer()

	rabbitConsumer, err := rmrabbit.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"rabbitmq consumer init failed\" err=%v", err)
	}
	defer rabbitConsumer.Close()

	saleBindings := map[string]func([]byte) bool{
		"sale.payment.succeeded": saleConsumer.HandleMessage,
	}
	if err := rabbitConsumer.ConsumeWithBindings(cfg.EventExchange, cfg.SaleEventQueue, saleBindings); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"sale consumer start failed\" err=%v", err)
	}

	// Start the auto-payout scheduler when enabled.
	var scheduler *app.Scheduler
	if cfg.AutoPayoutEnabled {
		slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
		jobs := app.NewJobs(affiliateService, repository, slogger)
		scheduler = app.NewScheduler(jobs, slogger, cfg.AutoPayoutSchedule)
		scheduler.Start()
		log.Printf("level=info component=bootstrap msg=\"auto-payout scheduler started\" schedule=%q", cfg.AutoPayoutSchedule)
	}

	// Initialize the API handlers and router.
	handlers := api.NewAffiliateHandlers(affiliateService, rateLimiter, cfg.ClickRateLimitPerMinute)
	router := api.NewRouter(handlers, cfg.InternalAPIKey)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
