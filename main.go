package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alimponya/clinic-portal/internal/pkg/config"
	"github.com/alimponya/clinic-portal/internal/server"
	"github.com/alimponya/clinic-portal/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file, using environment variables")
	}

	if err := logger.Init(zapcore.InfoLevel, zap.String("service", "clinic-portal")); err != nil {
		return err
	}
	zapLogger := logger.Log
	defer zapLogger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	otelShutdown, err := server.InitObservability("clinic-portal", cfg.MetricsAddr, zapLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := otelShutdown(context.Background()); err != nil {
			zapLogger.Error("Failed to shutdown OpenTelemetry", zap.Error(err))
		}
	}()

	srv, err := server.New(cfg, zapLogger)
	if err != nil {
		return err
	}

	router, err := server.SetupRouter(cfg, srv.GetBackend(), zapLogger)
	if err != nil {
		return err
	}

	if err := server.SetupAssets(router); err != nil {
		zapLogger.Error("Failed to setup assets", zap.Error(err))
		return err
	}

	srv.SetRouter(router)

	// pprof stays on its own port, never exposed publicly
	server.StartPprofServer(cfg.PprofAddr, zapLogger)

	httpServer := srv.HTTPServer()

	done := make(chan bool, 1)
	go server.GracefulShutdown(httpServer, zapLogger, done)

	zapLogger.Info("Server starting", zap.String("port", cfg.ServerPort))
	if err := httpServer.ListenAndServe(); err != nil {
		zapLogger.Error("Server error", zap.Error(err))
	}

	<-done
	zapLogger.Info("Graceful shutdown complete")

	return nil
}
