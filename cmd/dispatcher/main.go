package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nimasrn/property-marketplace/internal/config"
	"github.com/nimasrn/property-marketplace/internal/dispatcher"
	"github.com/nimasrn/property-marketplace/internal/queue"
	"github.com/nimasrn/property-marketplace/internal/stream"
	"github.com/nimasrn/property-marketplace/pkg/kafka"
	"github.com/nimasrn/property-marketplace/pkg/logger"
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
	logger.Info("starting dispatcher", "version", version, "commit", commit, "date", date)

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{cfg.RedisAddr},
		ClientName: "dispatcher-" + hostname,
		DB:         cfg.RedisDatabase,
		Username:   cfg.RedisUsername,
		Password:   cfg.RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}
	defer redisAdap.Close()

	sinks := []dispatcher.Sink{
		dispatcher.NewPubSubSink(stream.NewBridge(redisAdap, cfg.StreamChannel, nil)),
	}
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		producer := kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      brokers,
			Topic:        cfg.KafkaTopic,
			RequiredAcks: -1,
			Compression:  cfg.KafkaCompression,
		})
		defer producer.Close()
		sinks = append(sinks, dispatcher.NewKafkaSink(producer))
	} else {
		logger.Warn("KAFKA_BROKERS is empty, events go to pub/sub only")
	}

	idempotency := dispatcher.NewIdempotencyService(redisAdap, dispatcher.DefaultIdempotencyConfig())

	consumer := cfg.QueueConsumerName
	if consumer == "" {
		consumer = hostname
	}
	service := dispatcher.NewService(redisAdap, dispatcher.NewEventProcessor(idempotency, sinks...), dispatcher.Config{
		Queue: queue.QueueConfig{
			Name:              cfg.EventQueueName,
			ConsumerGroup:     cfg.QueueConsumerGroup,
			ConsumerName:      consumer,
			MaxRetries:        cfg.QueueMaxRetries,
			VisibilityTimeout: cfg.QueueVisibilityTimeout,
			PollInterval:      cfg.QueuePollInterval,
			BatchSize:         cfg.QueueBatchSize,
			MaxLen:            cfg.QueueMaxLen,
			EnableDLQ:         cfg.QueueEnableDLQ,
		},
		Workers: cfg.DispatcherWorkers,
	})

	addr := cfg.AppDebugMetricsAddr
	if addr == "" {
		addr = ":9100"
	}
	go func() {
		prom.ListenAndServer(addr, cfg.AppDebugMetricsURI)
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	if err := service.Start(); err != nil {
		logger.Error("failed to start dispatcher", "error", err)
		return
	}

	<-c
	service.Stop()
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
