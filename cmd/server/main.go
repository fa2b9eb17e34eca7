package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/pesio-ai/be-fraud-cases/internal/app"
	"github.com/pesio-ai/be-fraud-cases/internal/auth"
	"github.com/pesio-ai/be-fraud-cases/internal/client"
	"github.com/pesio-ai/be-fraud-cases/internal/config"
	"github.com/pesio-ai/be-fraud-cases/internal/handler"
	"github.com/pesio-ai/be-fraud-cases/internal/logger"
	"github.com/pesio-ai/be-fraud-cases/internal/rpc"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Str("database_driver", cfg.Database.Driver).
		Str("events_driver", cfg.Events.Driver).
		Msg("Starting Fraud Cases Service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store
	store, err := app.OpenStore(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open case store")
	}
	defer store.Close()

	// Initialize event publisher
	sink, err := client.NewSink(cfg.Events)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create event sink")
	}
	publisher := client.NewNotificationPublisher(sink, cfg.Events.SubjectPrefix, log.Logger)
	defer publisher.Close()

	// Initialize services
	svc := app.NewServices(store, publisher, app.SLAPolicy(cfg.SLA), log)

	// Initialize authentication
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	sessions := auth.NewSessions(cfg.Auth.IdleTimeout, cfg.Auth.SessionCapacity)
	authn := auth.NewAuthenticator(tokens, sessions, store, log)

	// Setup HTTP server
	router := handler.NewRouter(handler.NewHTTPHandler(svc, log), authn, store, handler.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, log)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Setup gRPC server
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(authn.UnaryServerInterceptor()))
	rpc.RegisterCaseServiceServer(grpcServer, handler.NewGRPCHandler(svc, log.Logger))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer) // Enable reflection for debugging

	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create gRPC listener")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Info().Int("port", cfg.Server.GRPCPort).Msg("Starting gRPC server")
		if err := grpcServer.Serve(grpcListener); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("HTTP server shutdown failed")
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
	}

	log.Info().Msg("Server stopped")
}
