package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/receipt-parser/internal/async"
	"github.com/joseph-ayodele/receipt-parser/internal/categories"
	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/export"
	"github.com/joseph-ayodele/receipt-parser/internal/ingest"
	"github.com/joseph-ayodele/receipt-parser/internal/llm/cache"
	"github.com/joseph-ayodele/receipt-parser/internal/llm/gemini"
	"github.com/joseph-ayodele/receipt-parser/internal/pipeline"
	repo "github.com/joseph-ayodele/receipt-parser/internal/repository"
	"github.com/joseph-ayodele/receipt-parser/internal/server"
	"github.com/joseph-ayodele/receipt-parser/internal/utils"
)

func main() {
	fs := ff.NewFlagSet("receipt-batch")
	var (
		dir        = fs.StringLong("dir", "", "directory to process receipts from (required)")
		user       = fs.StringLong("user", "", "user id (UUID) that owns the receipts (required)")
		out        = fs.StringLong("out", "", "output XLSX file path (optional, defaults to <dir>/../receipts.xlsx)")
		fromStr    = fs.StringLong("from", "", "export from date YYYY-MM-DD")
		toStr      = fs.StringLong("to", "", "export to date YYYY-MM-DD")
		workers    = fs.IntLong("workers", 4, "concurrent uploads")
		skipHidden = fs.BoolLong("skip-hidden", "skip dot files and directories")
		watch      = fs.BoolLong("watch", "keep running and process new images as they appear")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("RECEIPTS")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if *dir == "" {
		logger.Error("--dir is required")
		os.Exit(2)
	}
	userID, err := uuid.Parse(*user)
	if err != nil {
		logger.Error("--user must be a UUID", "user", *user, "error", err)
		os.Exit(2)
	}
	dateRange, err := utils.ParseDateRange(*fromStr, *toStr)
	if err != nil {
		logger.Error("invalid export window", "error", err)
		os.Exit(2)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "receipts.xlsx")
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(2)
	}
	if err := common.ValidateSections(cfg.Database, cfg.Gemini, cfg.Pipeline); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer server.CloseDB(client, logger)

	categoryRepo := repo.NewCategoryRepository(client, logger)
	receiptRepo := repo.NewReceiptRepository(client, logger)

	geminiClient := gemini.NewClient(gemini.ConfigFrom(cfg.Gemini), logger)
	analyzer, closeCache, err := cache.Wrap(geminiClient, geminiClient.Model(), cfg.Pipeline.AnalysisCachePath, logger)
	if err != nil {
		logger.Error("failed to open analysis cache", "error", err)
		os.Exit(1)
	}
	defer closeCache()

	processor := pipeline.NewProcessor(logger, analyzer,
		categories.NewResolver(categoryRepo, logger),
		receiptRepo,
		pipeline.Options{MaxImageBytes: cfg.Pipeline.MaxImageBytes, ProcessTimeout: cfg.Pipeline.ProcessTimeout},
	)
	usecase := ingest.NewUsecase(processor, int64(cfg.Pipeline.MaxImageBytes), logger)

	var (
		mu    sync.Mutex
		stats ingest.DirStats
	)
	report := func(r ingest.FileResult) {
		mu.Lock()
		defer mu.Unlock()
		if r.Err != "" {
			stats.Failed++
			logger.Warn("batch.file.failed", "path", r.Path, "kind", r.Kind, "error", r.Err)
			return
		}
		stats.Succeeded++
		logger.Info("batch.file.ok", "path", r.Path, "receipt_id", r.ReceiptID)
	}
	queue := async.NewQueue(usecase.Handler(report), logger,
		async.WithWorkers(*workers),
		async.WithProcessTimeout(cfg.Pipeline.ProcessTimeout),
	)

	if *watch {
		runWatch(ctx, queue, userID, *dir, *skipHidden, logger)
	} else {
		paths, scan, err := ingest.ScanDirectory(*dir, nil, *skipHidden)
		if err != nil {
			logger.Error("scan failed", "dir", *dir, "error", err)
			os.Exit(1)
		}
		stats.Scanned, stats.Matched = scan.Scanned, scan.Matched
		for _, p := range paths {
			if err := queue.Enqueue(ctx, async.Job{UserID: userID, Path: p}); err != nil {
				logger.Warn("enqueue stopped", "path", p, "error", err)
				break
			}
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	queue.Shutdown(shutdownCtx)
	cancel()
	logger.Info("batch.done",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
	)

	xlsx, err := export.NewService(receiptRepo, logger).ReceiptsXLSX(context.Background(), userID, dateRange)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("failed to write export", "path", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("export written", "path", *out, "bytes", len(xlsx))
}

func runWatch(ctx context.Context, queue *async.Queue, userID uuid.UUID, dir string, skipHidden bool, logger *slog.Logger) {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		SkipHidden:  skipHidden,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		logger.Error("watch failed", "dir", dir, "error", err)
		return
	}
	logger.Info("watching for receipts", "dir", dir)
	for {
		select {
		case p, ok := <-events:
			if !ok {
				return
			}
			if err := queue.Enqueue(ctx, async.Job{UserID: userID, Path: p}); err != nil {
				return
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
