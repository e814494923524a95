// Copyright (C) 2026 StoryKid
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/storykidnft/storykid-backend/pkg/logging"
	"github.com/storykidnft/storykid-backend/services/generation"
	"github.com/storykidnft/storykid-backend/services/nft"
	"github.com/storykidnft/storykid-backend/services/progress"
	"github.com/storykidnft/storykid-backend/services/story/orchestration"
	"github.com/storykidnft/storykid-backend/services/story/routes"
	"github.com/storykidnft/storykid-backend/services/story/store"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "storykid-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("story-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	logger := logging.New(logging.Config{Service: "story", JSON: true})
	slog.SetDefault(logger.Slog())

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	dbPath := os.Getenv("STORY_DB_PATH")
	if dbPath == "" {
		dbPath = "storykid.db"
	}
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("Failed to open story database: %v", err)
	}
	defer db.Close()

	hub := progress.NewHub()
	progressService := progress.NewService(hub)

	storyGen, err := generation.NewOpenAIStoryGenerator()
	if err != nil {
		log.Fatalf("Failed to initialize story generator: %v", err)
	}
	imageGen, err := generation.NewHTTPImageGenerator()
	if err != nil {
		log.Fatalf("Failed to initialize image generator: %v", err)
	}

	// Narration is optional; the continuation pipeline skips it when unset.
	var audio generation.AudioGenerator
	audioGen, err := generation.NewHTTPAudioGenerator()
	if err != nil {
		log.Fatalf("Failed to initialize audio generator: %v", err)
	}
	if audioGen != nil {
		audio = audioGen
	} else {
		slog.Info("AUDIO_API_URL not set, story narration disabled")
	}

	relay, err := nft.NewRelayClient()
	if err != nil {
		log.Fatalf("Failed to initialize mint relay client: %v", err)
	}

	orch := orchestration.New(storyGen, imageGen, audio, relay, db, progressService)

	router := gin.Default()
	router.Use(otelgin.Middleware("story-service"))

	routes.SetupRoutes(router, orch, db, relay, hub)

	port := os.Getenv("STORY_PORT")
	if port == "" {
		port = "3000"
	}
	log.Println("Starting the story server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
