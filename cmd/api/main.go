package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nimasrn/property-marketplace/internal/auth"
	"github.com/nimasrn/property-marketplace/internal/config"
	"github.com/nimasrn/property-marketplace/internal/docstore"
	"github.com/nimasrn/property-marketplace/internal/events"
	"github.com/nimasrn/property-marketplace/internal/handlers"
	"github.com/nimasrn/property-marketplace/internal/queue"
	"github.com/nimasrn/property-marketplace/internal/repository"
	"github.com/nimasrn/property-marketplace/internal/services"
	"github.com/nimasrn/property-marketplace/internal/stream"
	xhttp "github.com/nimasrn/property-marketplace/pkg/http"
	"github.com/nimasrn/property-marketplace/pkg/logger"
	"github.com/nimasrn/property-marketplace/pkg/mongo"
	"github.com/nimasrn/property-marketplace/pkg/pg"
	"github.com/nimasrn/property-marketplace/pkg/prom"
	"github.com/nimasrn/property-marketplace/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer logger.Sync()

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	if err = prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := pg.CreateReadWrite(cfg.ReadDB(), cfg.WriteDB(), cfg.IsDev())
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}
	defer db.Close()

	mongoClient, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
		Timeout:  cfg.MongoTimeout,
	})
	if err != nil {
		logger.Error("failed connecting to mongo", "error", err)
		return
	}
	defer mongoClient.Close(context.Background())

	store := docstore.New(mongoClient.Database())
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Error("failed creating mongo indexes", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{cfg.RedisAddr},
		ClientName: "api-" + hostname,
		DB:         cfg.RedisDatabase,
		Username:   cfg.RedisUsername,
		Password:   cfg.RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}
	defer redisAdap.Close()

	q, err := queue.NewQueue(ctx, redisAdap, queue.QueueConfig{
		Name:          cfg.EventQueueName,
		ConsumerGroup: cfg.QueueConsumerGroup,
		ConsumerName:  "api-" + hostname,
		MaxLen:        cfg.QueueMaxLen,
	})
	if err != nil {
		logger.Error("failed creating event queue", "error", err)
		return
	}
	emitter := events.NewPublisher(q)

	// repositories
	users := repository.NewUserRepository(db)
	properties := repository.NewPropertyRepository(db)
	leads := repository.NewLeadRepository(db)
	connections := repository.NewConnectionRepository(db)
	txs := repository.NewTransactionRepository(db)
	notifications := repository.NewNotificationRepository(db)

	// services
	notifier := services.NewNotificationService(notifications, users, properties)
	leadService := services.NewLeadService(db, leads, connections, txs, properties, users, notifier, emitter)
	transactionService := services.NewTransactionService(db, txs, leads, connections, properties, notifier, emitter)
	propertyService := services.NewPropertyService(properties)
	appointmentService := services.NewAppointmentService(store, properties, notifier, emitter)

	// live updates fan in from every dispatcher through pub/sub
	hub := stream.NewHub(hostname, 0)
	bridge := stream.NewBridge(redisAdap, cfg.StreamChannel, hub)
	go func() {
		if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("stream bridge stopped", "error", err)
		}
	}()

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	s := xhttp.CreateServer()
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	// event streams stay open far beyond any write deadline
	s.Server.WriteTimeout = 0
	for _, m := range xhttp.APIMiddlewares(prom.ObserveHTTPRequest, cfg.HttpCorsAllowOrigin) {
		s.Use(m)
	}

	handlers.Register(s.Router, tokens, handlers.Handlers{
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"postgres": func(ctx context.Context) error {
				sqlDB, err := db.Write(ctx).DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
			"mongo": mongoClient.Ping,
			"redis": func(ctx context.Context) error {
				return redisAdap.Client().Ping(ctx).Err()
			},
		}),
		Leads:         handlers.NewLeadHandler(leadService),
		Properties:    handlers.NewPropertyHandler(propertyService),
		Transactions:  handlers.NewTransactionHandler(transactionService, hub),
		Appointments:  handlers.NewAppointmentHandler(appointmentService),
		Notifications: handlers.NewNotificationHandler(notifier),
	})

	if cfg.AppDebugMetricsAddr != "" {
		go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)
	}

	go func() {
		if err := s.ListenAndServe(cfg.HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down api")
	// open streams only end once their subscriptions are closed
	hub.Close()
	s.Shutdown()
	q.Stop(5 * time.Second)
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
