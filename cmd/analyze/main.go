package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/joseph-ayodele/receipt-parser/constants"
	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/llm"
	"github.com/joseph-ayodele/receipt-parser/internal/llm/cache"
	"github.com/joseph-ayodele/receipt-parser/internal/llm/gemini"
)

type output struct {
	StoreName   string              `json:"store_name"`
	ReceiptDate string              `json:"receipt_date"`
	TotalAmount *string             `json:"total_amount"`
	LineItems   []llm.LineItemDraft `json:"line_items"`
}

func main() {
	fs := ff.NewFlagSet("analyze")
	var (
		model   = fs.StringLong("model", "", "Gemini model name (defaults to GEMINI_MODEL)")
		cached  = fs.StringLong("cache", "", "bbolt reply cache path (defaults to ANALYSIS_CACHE_PATH)")
		timeout = fs.DurationLong("timeout", 2*time.Minute, "overall timeout")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("RECEIPTS")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	args := fs.GetArgs()
	if len(args) != 1 {
		logger.Error("usage: analyze [flags] <image>")
		os.Exit(2)
	}
	path := args[0]
	mimeType, ok := constants.MimeTypeFor(filepath.Ext(path))
	if !ok {
		logger.Error("unsupported image type", "path", path)
		os.Exit(2)
	}

	cfg, err := common.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(2)
	}
	if *model != "" {
		cfg.Gemini.Model = *model
	}
	if *cached != "" {
		cfg.Pipeline.AnalysisCachePath = *cached
	}
	if err := common.ValidateSections(cfg.Gemini); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	image, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read image", "path", path, "error", err)
		os.Exit(1)
	}
	if len(image) > cfg.Pipeline.MaxImageBytes {
		logger.Error("image too large", "bytes", len(image), "limit", cfg.Pipeline.MaxImageBytes)
		os.Exit(1)
	}

	client := gemini.NewClient(gemini.ConfigFrom(cfg.Gemini), logger)
	analyzer, closeCache, err := cache.Wrap(client, client.Model(), cfg.Pipeline.AnalysisCachePath, logger)
	if err != nil {
		logger.Error("failed to open analysis cache", "error", err)
		os.Exit(1)
	}
	defer closeCache()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	analysis, err := analyzer.Analyze(ctx, image, mimeType)
	if err != nil {
		logger.Error("analysis failed", "kind", common.KindOf(err), "error", err)
		os.Exit(1)
	}

	res := output{
		StoreName:   analysis.StoreName,
		ReceiptDate: analysis.ReceiptDate.Format("2006-01-02"),
		LineItems:   analysis.LineItems,
	}
	if analysis.TotalAmount.Valid {
		s := analysis.TotalAmount.Decimal.StringFixed(2)
		res.TotalAmount = &s
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
}
