// Copyright (C) 2026 QuestDesk Labs (dev@questdesk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
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

	"github.com/questdesk/questdesk/pkg/logging"
	"github.com/questdesk/questdesk/services/console/answerflow"
	"github.com/questdesk/questdesk/services/console/backend"
	"github.com/questdesk/questdesk/services/console/config"
	"github.com/questdesk/questdesk/services/console/datatypes"
	"github.com/questdesk/questdesk/services/console/handlers"
	"github.com/questdesk/questdesk/services/console/license"
	"github.com/questdesk/questdesk/services/console/observability"
	"github.com/questdesk/questdesk/services/console/routes"
	"github.com/questdesk/questdesk/services/console/tenantcfg"
)

func initTracer(endpoint string) (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("console-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	configPath := os.Getenv("QUESTDESK_CONFIG")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load the configuration: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(cfg.Log.Level),
		LogDir:  cfg.Log.Dir,
		Service: "console",
		JSON:    cfg.Log.JSON,
	})
	defer logger.Close()
	slog.SetDefault(logger.Logger)

	if cfg.Tracing.Enabled {
		cleanup, err := initTracer(cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatalf("failed to setup the OTLP tracer: %v", err)
		}
		defer cleanup(context.Background())
	}

	metrics := observability.InitMetrics()

	client, err := backend.NewClient(backend.Config{
		BaseURL:           cfg.Backend.BaseURL,
		Timeout:           cfg.Backend.Timeout,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
	})
	if err != nil {
		log.Fatalf("failed to create the backend client: %v", err)
	}

	cache := tenantcfg.NewCache(client, tenantcfg.WithMetrics(metrics))
	gate := license.NewGate(client,
		license.WithTTL(cfg.License.CacheTTL),
		license.WithMetrics(metrics))
	hub := handlers.NewHub(metrics)

	// A tenant config change invalidates the license view too: limits can
	// be raised through the same config push.
	cache.OnInvalidated(func() {
		gate.Invalidate()
		hub.Broadcast(handlers.EventConfigInvalidated)
	})
	cache.OnRefreshed(func(_ *datatypes.TenantConfig) {
		hub.Broadcast(handlers.EventConfigRefreshed)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := cache.Refresh(ctx); err != nil {
		slog.Warn("initial tenant config load failed, serving defaults until refresh", "error", err)
	}

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, cache.Invalidate)
		if err != nil {
			slog.Warn("config watcher unavailable", "error", err)
		} else if err := watcher.Start(ctx); err != nil {
			slog.Warn("failed to start the config watcher", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	orch := answerflow.NewOrchestrator(answerflow.OrchestratorConfig{
		Gate:       gate,
		Config:     cache,
		Dispatcher: client,
		ActiveJobs: client,
		Metrics:    metrics,
	})
	registry := answerflow.NewRegistry(
		answerflow.WithFlowTTL(cfg.Flows.TTL),
		answerflow.WithRegistryMetrics(metrics))
	registry.StartJanitor(cfg.Flows.JanitorInterval)
	defer registry.Close()

	router := gin.Default()
	router.Use(otelgin.Middleware("console-service"))
	routes.SetupRoutes(router, routes.Deps{
		Orchestrator: orch,
		Registry:     registry,
		Cache:        cache,
		Hub:          hub,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("starting the console server", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
