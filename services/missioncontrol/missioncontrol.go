// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package missioncontrol provides the core Mission Control service.
//
// This package contains the main service type that coordinates all
// components: HTTP routing, the SQLite-backed store, the external
// gateway client, background job workers, and observability
// infrastructure.
//
// # Enterprise Integration
//
// The service supports dependency injection via extensions.ServiceOptions,
// enabling a hosted deployment to provide a custom IdentityProvider
// (JWT/JWKS validation) in place of the local no-op provider.
//
// # Usage
//
// Open source (uses no-op defaults):
//
//	cfg := missioncontrol.Config{Port: 12300}
//	svc, err := missioncontrol.New(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc.Run()
package missioncontrol

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/MissionControl/services/missioncontrol/gateway"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/jobs"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/observability"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/routes"
	"github.com/AleutianAI/MissionControl/services/missioncontrol/store"

	"github.com/AleutianAI/MissionControl/pkg/extensions"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the Mission Control service.
//
// # Description
//
// Service abstracts the service lifecycle, enabling testing and
// alternative implementations. Only essential lifecycle methods are
// exposed.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use. Run() blocks and
// should only be called once per instance.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for testing.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds Mission Control configuration options.
//
// # Description
//
// Config centralizes all configuration for the service. Values can be
// populated from environment variables, config files, or
// programmatically for testing. All fields have sensible defaults.
type Config struct {
	// Port is the HTTP server port. Default: 12300
	Port int

	// DatabasePath is the SQLite database file.
	// Default: "./missioncontrol.db". Use ":memory:" for tests.
	DatabasePath string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// If empty, tracing is disabled.
	OTelEndpoint string

	// EnableMetrics enables the Prometheus metrics endpoint.
	// Default: true
	EnableMetrics bool

	// GinMode sets the Gin framework mode.
	// Valid values: "debug", "release", "test"
	GinMode string

	// JobQueueSize bounds each background job queue. Default: 64
	JobQueueSize int

	// JobWorkers is the worker count per job queue. Default: 2
	JobWorkers int
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use.
//
// # Thread Safety
//
// Thread-safe after construction. All fields are read-only after New()
// returns.
type service struct {
	config        Config
	opts          extensions.ServiceOptions
	router        *gin.Engine
	store         *store.Store
	dispatcher    *jobs.Dispatcher
	metrics       *observability.Metrics
	tracerCleanup func(context.Context)
	jobsCancel    context.CancelFunc
}

// New creates a new Mission Control Service with the given configuration.
//
// # Description
//
// New initializes all components:
//  1. Applies default configuration for missing values
//  2. Initializes OpenTelemetry tracing (when an endpoint is set)
//  3. Initializes Prometheus metrics
//  4. Opens the SQLite store and applies the schema
//  5. Starts the background job dispatcher
//  6. Sets up HTTP routes with extension options
//
// If opts is nil, DefaultOptions() is used (no-op implementations).
func New(cfg Config, opts *extensions.ServiceOptions) (Service, error) {
	s := &service{
		config: applyConfigDefaults(cfg),
	}

	if opts != nil {
		s.opts = *opts
	} else {
		s.opts = extensions.DefaultOptions()
	}

	if s.config.OTelEndpoint != "" {
		cleanup, err := s.initTracer()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracer: %w", err)
		}
		s.tracerCleanup = cleanup
	}

	if s.config.EnableMetrics {
		s.metrics = observability.InitMetrics()
		slog.Info("Initialized Prometheus metrics")
	}

	st, err := store.Open(s.config.DatabasePath)
	if err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	s.store = st

	if err := s.initDispatcher(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to start job dispatcher: %w", err)
	}

	s.initRouter()

	return s, nil
}

// =============================================================================
// Service Interface Methods
// =============================================================================

// Run starts the HTTP server and blocks until shutdown or error.
func (s *service) Run() error {
	defer s.cleanup()

	addr := fmt.Sprintf(":%d", s.config.Port)
	slog.Info("Starting Mission Control server", "port", s.config.Port)

	return s.router.Run(addr)
}

// Router returns the underlying Gin engine for testing.
func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12300
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "./missioncontrol.db"
	}
	if cfg.JobQueueSize == 0 {
		cfg.JobQueueSize = 64
	}
	if cfg.JobWorkers == 0 {
		cfg.JobWorkers = 2
	}
	cfg.EnableMetrics = true

	return cfg
}

// initTracer initializes OpenTelemetry distributed tracing.
//
// # Limitations
//
//   - Uses an insecure gRPC connection (appropriate for internal
//     networks)
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("missioncontrol-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}

	return cleanup, nil
}

// initDispatcher starts the background job workers. The notifications
// queue forwards task changes to the assigned agent's gateway session.
func (s *service) initDispatcher() error {
	s.dispatcher = jobs.NewDispatcher(s.config.JobQueueSize, s.config.JobWorkers, slog.Default())

	if err := s.dispatcher.Register("notifications", s.notifyAgent); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.jobsCancel = cancel
	s.dispatcher.Start(ctx)
	return nil
}

// notifyAgent delivers a task notification to the assigned agent's
// gateway session. At-least-once, best-effort: errors are returned for
// the dispatcher to log and the job is not retried.
func (s *service) notifyAgent(ctx context.Context, job jobs.Job) error {
	agentID, _ := job.Payload["agent_id"].(string)
	if agentID == "" {
		return nil
	}
	agent, err := s.store.GetAgent(ctx, agentID)
	if err != nil {
		return err
	}
	if agent.BoardID == nil || agent.OpenClawSessionID == nil {
		return nil
	}
	board, err := s.store.GetBoard(ctx, *agent.BoardID)
	if err != nil {
		return err
	}
	if board.GatewayID == nil {
		return nil
	}
	gw, err := s.store.GetGateway(ctx, *board.GatewayID)
	if err != nil {
		return err
	}

	var token string
	if gw.Token != nil {
		token = *gw.Token
	}
	client := gateway.NewClient(gateway.Config{BaseURL: gw.URL, Token: token}, 0)

	taskID, _ := job.Payload["task_id"].(string)
	status, _ := job.Payload["status"].(string)
	msg := fmt.Sprintf("Task update (%s): task %s is now %s. Check the board for details.",
		job.Kind, taskID, status)
	return client.SendMessage(ctx, *agent.OpenClawSessionID, msg, true)
}

// initRouter sets up the Gin HTTP router with all routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("missioncontrol-service"))

	routes.SetupRoutes(s.router, s.store, s.opts.IdentityProvider, s.dispatcher, s.metrics)
}

// cleanup releases all resources held by the service.
func (s *service) cleanup() {
	if s.jobsCancel != nil {
		s.jobsCancel()
	}
	if s.dispatcher != nil {
		s.dispatcher.Shutdown()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			slog.Warn("store close error", "error", err)
		}
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}
