package lifecycleservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"ride-lifecycle/internal/domain/ride"
	"ride-lifecycle/internal/general/config"
	"ride-lifecycle/internal/general/jwt"
	"ride-lifecycle/internal/general/logger"
	"ride-lifecycle/internal/general/postgres"
	"ride-lifecycle/internal/general/rabbitmq"
	"ride-lifecycle/internal/general/redisx"
	"ride-lifecycle/internal/software/lifecycle/handler"
	"ride-lifecycle/internal/software/lifecycle/service"
)

const producerName = "lifecycle-service"

// Run wires the lifecycle service and blocks until ctx is cancelled.
func Run(ctx context.Context, configPath string, maxConcurrent int) error {
	// set up a new logger and context with a static request ID for startup logs
	logger := logger.New(producerName)
	ctx = logger.WithRequestID(ctx, "startup-001")

	// load a config from file
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}
	if maxConcurrent <= 0 {
		maxConcurrent = cfg.Service.MaxConcurrent
	}

	// set up a Postgres connection pool
	pool, err := postgres.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	// connect to RabbitMQ and declare the lifecycle topology
	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}

	// connect to Redis for driver availability flags
	redisClient, err := redisx.NewClient(ctx, cfg)
	if err != nil {
		logger.Error(ctx, "redis_connection_failed", "Failed to connect to Redis", err, nil)
		return err
	}
	defer redisClient.Close()

	// set up the RabbitMQ publisher and its message-backed collaborators
	pub := rabbitmq.NewMQPublisher(rmq)
	notifier := rabbitmq.NewNotifier(pub, producerName)
	payments := rabbitmq.NewPaymentService(pub, producerName)

	// set up the JWT manager
	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour)

	// set up the necessary repos
	uow := postgres.NewUnitOfWork(pool)
	rideRepo := postgres.NewRideRepo()
	rideEventRepo := postgres.NewRideEventRepo()
	receiptRepo := postgres.NewReceiptRepo()
	availability := redisx.NewAvailabilityStore(redisClient)

	// set up the lifecycle service
	validator := ride.NewValidator(ride.DefaultPolicy)
	svc := service.NewLifecycleService(logger, uow, rideRepo, rideEventRepo, receiptRepo,
		validator, availability, payments, notifier, pub, rmq)

	// run the background consumer for driver-originated transitions
	svc.RunBackgroundConsumers(ctx)

	// set up the HTTP handler and its routes
	mux := http.NewServeMux()
	httpHandler := handler.NewLifecycleHTTPHandler(svc, logger, jwtManager)
	httpHandler.RegisterRoutes(mux)

	// concurrency limiter (global), blocks when capacity is full
	limitedHandler := withConcurrencyLimit(maxConcurrent, mux)

	// set up the server configurations
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Service.Port),
		Handler:           limitedHandler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Lifecycle Service started on port %d", cfg.Service.Port),
		map[string]any{"port": cfg.Service.Port, "max_concurrent": maxConcurrent},
	)

	// start the server in a background goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	// wait for context cancellation or server error
	select {
	case <-ctx.Done():
		// graceful HTTP shutdown on context cancel
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info(ctx, "shutdown_started", "Lifecycle Service shutting down", nil)
		if err := srv.Shutdown(shCtx); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_shutdown_failed", "Failed to gracefully shut down HTTP server", err, nil)
		}
	case err := <-errCh:
		// server returned a terminal error at startup or during run
		if err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err,
				map[string]any{"port": cfg.Service.Port})
			return err
		}
		return nil
	}

	return nil
}

// withConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It controls how many HTTP requests can be in-progress at the same time.
func withConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}: // acquire
			defer func() { <-sem }() // release
			next.ServeHTTP(w, r)
		case <-r.Context().Done():
			// client canceled or server is shutting down
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		}
	})
}
