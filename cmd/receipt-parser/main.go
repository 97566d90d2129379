package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/receipt-parser/internal/categories"
	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/export"
	"github.com/joseph-ayodele/receipt-parser/internal/llm/cache"
	"github.com/joseph-ayodele/receipt-parser/internal/llm/gemini"
	"github.com/joseph-ayodele/receipt-parser/internal/pipeline"
	"github.com/joseph-ayodele/receipt-parser/internal/receipts"
	repo "github.com/joseph-ayodele/receipt-parser/internal/repository"
	svc "github.com/joseph-ayodele/receipt-parser/internal/server"
)

func main() {
	// Structured logger without time/level noise; the process supervisor stamps lines.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := svc.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer svc.CloseDB(client, logger)

	if err := svc.PingDB(ctx, client, logger, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	categoryRepo := repo.NewCategoryRepository(client, logger)
	receiptRepo := repo.NewReceiptRepository(client, logger)
	reportRepo := repo.NewReportRepository(client, logger)

	geminiClient := gemini.NewClient(gemini.ConfigFrom(cfg.Gemini), logger)
	analyzer, closeCache, err := cache.Wrap(geminiClient, geminiClient.Model(), cfg.Pipeline.AnalysisCachePath, logger)
	if err != nil {
		logger.Error("failed to open analysis cache", "path", cfg.Pipeline.AnalysisCachePath, "error", err)
		os.Exit(1)
	}
	defer closeCache()

	processor := pipeline.NewProcessor(logger, analyzer,
		categories.NewResolver(categoryRepo, logger),
		receiptRepo,
		pipeline.Options{
			MaxImageBytes:  cfg.Pipeline.MaxImageBytes,
			ProcessTimeout: cfg.Pipeline.ProcessTimeout,
		},
	)
	receiptsService := receipts.NewService(receiptRepo, reportRepo, categoryRepo, cfg.Report.Currency, logger)
	exportService := export.NewService(receiptRepo, logger)

	grpcServer, healthServer := svc.NewGRPCServer(
		svc.NewReceiptService(processor, receiptsService, exportService, logger),
		svc.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
		logger,
	)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	logger.Info("receipt-parser listening", "addr", cfg.Server.GRPCAddr, "model", geminiClient.Model())
	errCh := make(chan error, 1)
	go func() { errCh <- grpcServer.Serve(lis) }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		logger.Error("gRPC serve error", "error", err)
	}

	healthServer.Shutdown()
	stopped := make(chan struct{})
	go func() { grpcServer.GracefulStop(); close(stopped) }()
	select {
	case <-stopped:
	case <-time.After(10 * time.Second):
		logger.Warn("graceful stop timed out, forcing")
		grpcServer.Stop()
	}
	logger.Info("receipt-parser stopped")
}
