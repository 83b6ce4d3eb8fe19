package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	infragin "github.com/jonesrussell/north-cloud/harvester/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/harvester/infrastructure/logger"
	infraredis "github.com/jonesrussell/north-cloud/harvester/infrastructure/redis"
	"github.com/jonesrussell/north-cloud/harvester/internal/queue"
	"github.com/redis/go-redis/v9"
)

// TopicRunner performs one run for a list of topics.
type TopicRunner interface {
	Run(ctx context.Context, topics []string) (*RunResult, error)
}

// Worker consumes job messages and serves health and metrics endpoints.
type Worker struct {
	consumer *queue.Consumer
	server   *infragin.Server
	runner   TopicRunner
	log      infralogger.Logger
}

// NewWorker creates a worker reading from client.
func NewWorker(
	client *redis.Client,
	queueCfg queue.Config,
	serverCfg *infragin.Config,
	runner TopicRunner,
	metricsHandler http.Handler,
	log infralogger.Logger,
) *Worker {
	server := infragin.NewServer(serverCfg, log, func(r *gin.Engine) {
		infragin.RegisterHealthRoutes(r, infragin.HealthOptions{
			ServiceName:    serverCfg.ServiceName,
			ServiceVersion: serverCfg.ServiceVersion,
			Checks: map[string]infragin.HealthChecker{
				"redis": infragin.PingChecker("redis", infragin.HealthStatusUnhealthy, func() error {
					return client.Ping(context.Background()).Err()
				}),
			},
		})
		r.GET("/metrics", gin.WrapH(metricsHandler))
	})

	return &Worker{
		consumer: queue.NewConsumer(client, queueCfg, log),
		server:   server,
		runner:   runner,
		log:      log.With(infralogger.Component("worker")),
	}
}

// Run consumes messages until ctx is done or the HTTP server fails.
func (w *Worker) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverErr := w.server.StartAsync()
	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- w.consumer.Run(runCtx, w.Handle)
	}()

	var runErr error
	select {
	case err := <-serverErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
		cancel()
		<-consumerDone
	case err := <-consumerDone:
		if err != nil {
			runErr = fmt.Errorf("consume: %w", err)
		}
	}

	if err := w.server.Shutdown(context.WithoutCancel(ctx)); err != nil {
		w.log.Warn("HTTP server shutdown failed", infralogger.Error(err))
	}

	return runErr
}

// Handle runs the topics of one message.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	result, err := w.runner.Run(ctx, msg.Topics)
	if err != nil {
		return err
	}
	w.log.Info("Job completed",
		infralogger.String("message_id", msg.ID),
		infralogger.String("run_id", result.RunID),
		infralogger.Int("articles", len(result.Articles)),
	)
	return nil
}

// RunWorker connects to Redis and runs a worker for app.
func RunWorker(ctx context.Context, app *App) error {
	cfg := app.deps.Config

	client, err := infraredis.NewClient(ctx, cfg.Queue.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() { _ = client.Close() }()

	worker := NewWorker(
		client,
		cfg.Queue,
		&infragin.Config{
			Port:  cfg.Metrics.WithDefaults().ListenPort,
			Debug: cfg.Logging.Level == "debug",
		},
		app.Runner,
		app.Metrics.Handler(),
		app.deps.Logger,
	)

	return worker.Run(ctx)
}
