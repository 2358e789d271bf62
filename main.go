package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/streadway/amqp"

	"github.com/muhammadolammi/careerwise/internal/config"
	"github.com/muhammadolammi/careerwise/internal/database"
	"github.com/muhammadolammi/careerwise/internal/extract"
	"github.com/muhammadolammi/careerwise/internal/logger"
	"github.com/muhammadolammi/careerwise/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "careerwise: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()
	log = log.With(map[string]interface{}{"app": cfg.App.Name, "env": cfg.App.Environment})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// create agent and runner
	recommender, err := newAgentRecommender(ctx, cfg.GenAI)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		Extractor:   extract.New(log),
		Recommender: recommender,
		UploadDir:   cfg.Server.UploadDir,
		Logger:      log,
	}

	var reader RecommendationReader
	if cfg.Database.URL != "" {
		db, err := database.Open(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		store := database.NewStore(db)
		opts.Store = store
		reader = store
	} else {
		log.Warn("database.url not set, assessments will not be persisted", nil)
	}

	p, err := pipeline.New(opts)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           NewServer(p, reader, cfg.Server.MaxUploadBytes, log).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	if cfg.RabbitMQ.URL != "" {
		workerConfig, closeConn, err := newWorkerConfig(ctx, cfg, p, log)
		if err != nil {
			return err
		}
		defer closeConn()

		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("starting consumer pool", map[string]interface{}{"workers": cfg.RabbitMQ.Workers, "queue": cfg.RabbitMQ.Queue})
			workerConfig.StartConsumerWorkerPool(ctx, cfg.RabbitMQ.Workers)
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", map[string]interface{}{"address": cfg.Server.Address})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down", nil)
	case err := <-errCh:
		if err != nil {
			stop()
			wg.Wait()
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown", nil)
	}
	wg.Wait()
	return nil
}

func newWorkerConfig(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, log logger.Logger) (*WorkerConfig, func(), error) {
	r2Client, err := NewR2Client(ctx, cfg.R2)
	if err != nil {
		return nil, nil, err
	}

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}
	publisher, err := newAMQPPublisher(conn, cfg.RabbitMQ.UpdateExchange)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	return &WorkerConfig{
		Pipeline: p,
		R2Bucket: cfg.R2.Bucket,
		Objects:  r2Client,
		Updates:  publisher,
		RabbitMQ: cfg.RabbitMQ,
		Logger:   log.With(map[string]interface{}{"component": "consumer"}),
	}, func() { conn.Close() }, nil
}
