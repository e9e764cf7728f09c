// cmd/notification-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"notification-service/internal/api"
	"notification-service/internal/archive"
	"notification-service/internal/channel"
	"notification-service/internal/common/aws"
	"notification-service/internal/common/config"
	"notification-service/internal/common/database"
	"notification-service/internal/common/httpclient"
	"notification-service/internal/common/logger"
	"notification-service/internal/common/observability"
	"notification-service/internal/dispatch"
	"notification-service/internal/events"
	"notification-service/internal/models"
	"notification-service/internal/service"
	"notification-service/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("starting notification service",
		zap.String("environment", cfg.App.Environment),
		zap.Int("port", cfg.HTTP.Port),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected")

	var st store.Store = store.NewPostgresStore(pg.DB)

	// --- Init Redis cache (optional) ---
	if cfg.Database.Redis.Enabled {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		st = store.NewCachedStore(st, rdb, time.Duration(cfg.Database.Redis.CacheTTL)*time.Second, log)
		zapLog.Info("Redis connected, store cache enabled")
	}

	// --- Init Elasticsearch archive (optional) ---
	var archiver *archive.Archiver
	if cfg.Archive.Enabled {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping()
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		archiver = archive.New(es, cfg.Archive.Index)
		zapLog.Info("Elasticsearch connected, delivery archive enabled")
	}

	// --- Build the channel sender registry ---
	registry := channel.NewRegistry()
	if cfg.Channels.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Channels.Email.AWSRegion)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		registry.Register(models.ChannelEmail, channel.NewEmailSender(sesClient, cfg.Channels.Email.FromEmail, log))
	}
	if cfg.Channels.SMS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Channels.SMS.AWSRegion)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		registry.Register(models.ChannelSMS, channel.NewSMSSender(snsClient, cfg.Channels.SMS.SenderID, log))
	}
	if cfg.Channels.Push.Enabled {
		pushClient := httpclient.NewClient(time.Duration(cfg.Channels.Push.Timeout) * time.Second)
		registry.Register(models.ChannelPush, channel.NewPushSender(pushClient, cfg.Channels.Push.GatewayURL, cfg.Channels.Push.APIKey, log))
	}
	zapLog.Info("channel senders registered", zap.Any("channels", registry.Channels()))

	svc := service.New(st, log)

	// --- Start the dispatch loop ---
	dispatcher := dispatch.New(dispatch.Config{
		Interval:       cfg.Dispatch.Interval,
		BatchSize:      cfg.Dispatch.BatchSize,
		AttemptTimeout: cfg.Dispatch.AttemptTimeout,
	}, st, registry, archiver, obs, log)

	dispatcherDone := make(chan struct{})
	go func() {
		defer close(dispatcherDone)
		dispatcher.Run(ctx)
	}()

	// --- Start the Kafka event consumer (optional) ---
	consumerDone := make(chan struct{})
	if cfg.Kafka.Enabled {
		consumer, err := events.NewConsumer(cfg.Kafka, log)
		if err != nil {
			zapLog.Fatal("kafka consumer init failed", zap.Error(err))
		}
		defer consumer.Close()

		router := events.NewRouter(
			events.NewTripTranslator(svc, log),
			events.NewPaymentTranslator(svc, log),
			events.NewDriverTranslator(svc, log),
			log,
		)
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(ctx, router.Route); err != nil && ctx.Err() == nil {
				zapLog.Error("kafka consumer stopped", zap.Error(err))
			}
		}()
	} else {
		close(consumerDone)
	}

	// --- Start the HTTP server ---
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      api.NewServer(svc, st, log).Handler(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Wait for shutdown signal ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	zapLog.Info("shutdown signal received", zap.String("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("http server shutdown", zap.Error(err))
	}

	<-dispatcherDone
	<-consumerDone
	zapLog.Info("notification service stopped")
}
