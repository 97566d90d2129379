package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-parser/constants"
	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/entity"
	"github.com/joseph-ayodele/receipt-parser/internal/llm"
	"github.com/joseph-ayodele/receipt-parser/internal/repository"
)

// CategoryResolver is satisfied by *categories.Resolver.
type CategoryResolver interface {
	Resolve(ctx context.Context, labels []string) (map[string]*entity.Category, error)
	Fallback(ctx context.Context) (*entity.Category, error)
}

// Failure explains why an upload produced no receipt.
type Failure struct {
	Kind    common.FailureKind
	Message string
}

// UploadResult is the outcome of one upload. Exactly one of Receipt and Failure is set.
type UploadResult struct {
	Status    constants.UploadStatus
	ReceiptID uuid.UUID
	Receipt   *entity.Receipt
	Failure   *Failure
}

func (r *UploadResult) Succeeded() bool { return r.Status == constants.UploadSucceeded }

type Options struct {
	MaxImageBytes  int
	ProcessTimeout time.Duration
}

// Processor runs analyze, resolve, assemble and persist for one image.
type Processor struct {
	logger   *slog.Logger
	analyzer llm.Analyzer
	resolver CategoryResolver
	receipts repository.ReceiptRepository
	opts     Options
	now      func() time.Time
}

func NewProcessor(
	logger *slog.Logger,
	analyzer llm.Analyzer,
	resolver CategoryResolver,
	receipts repository.ReceiptRepository,
	opts Options,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = constants.MaxImageBytesDefault
	}
	return &Processor{
		logger:   logger,
		analyzer: analyzer,
		resolver: resolver,
		receipts: receipts,
		opts:     opts,
		now:      time.Now,
	}
}

// Upload processes one receipt image for userID.
// Input and analysis problems come back as a failed result with nothing stored.
// Storage problems are returned as errors and leave no partial receipt behind.
func (p *Processor) Upload(ctx context.Context, userID uuid.UUID, image []byte, mimeType string) (*UploadResult, error) {
	start := time.Now()
	if p.opts.ProcessTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.ProcessTimeout)
		defer cancel()
	}

	if userID == uuid.Nil {
		return p.fail(userID, common.KindInvalidInput, "user id is required", start), nil
	}
	if len(image) == 0 {
		return p.fail(userID, common.KindInvalidInput, "image is empty", start), nil
	}
	if len(image) > p.opts.MaxImageBytes {
		msg := fmt.Sprintf("image is %d bytes, limit is %d", len(image), p.opts.MaxImageBytes)
		return p.fail(userID, common.KindInvalidInput, msg, start), nil
	}
	if strings.TrimSpace(mimeType) == "" {
		mimeType = DetectMimeType(image)
	}

	p.logger.Info("pipeline.upload.start", "user_id", userID, "image_bytes", len(image), "mime_type", mimeType)

	analysis, err := p.analyzer.Analyze(ctx, image, mimeType)
	if err != nil {
		return p.fail(userID, common.KindOf(err), err.Error(), start), nil
	}

	resolved, err := p.resolver.Resolve(ctx, analysis.Labels())
	if err != nil {
		p.logger.Error("pipeline.upload.resolve_failed", "user_id", userID, "error", err)
		return nil, err
	}
	var fallback *entity.Category
	if needsFallback(analysis, resolved) {
		if fallback, err = p.resolver.Fallback(ctx); err != nil {
			p.logger.Error("pipeline.upload.resolve_failed", "user_id", userID, "error", err)
			return nil, err
		}
	}

	rec := Assemble(userID, analysis, resolved, fallback, p.now())
	if err := p.receipts.Create(ctx, rec); err != nil {
		p.logger.Error("pipeline.upload.persist_failed", "user_id", userID, "receipt_id", rec.ID, "error", err)
		return nil, common.NewAppError(common.CodeDatabase, "store receipt", fmt.Errorf("%w: %w", common.ErrDatabase, err))
	}

	p.logger.Info("pipeline.upload.ok",
		"user_id", userID,
		"receipt_id", rec.ID,
		"store", rec.StoreName,
		"items", len(rec.LineItems),
		"categories", len(resolved),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &UploadResult{Status: constants.UploadSucceeded, ReceiptID: rec.ID, Receipt: rec}, nil
}

func (p *Processor) fail(userID uuid.UUID, kind common.FailureKind, msg string, start time.Time) *UploadResult {
	p.logger.Warn("pipeline.upload.failed",
		"user_id", userID,
		"kind", kind,
		"message", msg,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &UploadResult{Status: constants.UploadFailed, Failure: &Failure{Kind: kind, Message: msg}}
}

func needsFallback(a *llm.Analysis, resolved map[string]*entity.Category) bool {
	for _, d := range a.LineItems {
		if d.Category == nil {
			return true
		}
		if _, ok := resolved[constants.NormalizeCategoryName(*d.Category)]; !ok {
			return true
		}
	}
	return false
}

// DetectMimeType sniffs the image type, assuming JPEG when the bytes are not a known image.
func DetectMimeType(image []byte) string {
	mt := http.DetectContentType(image)
	if strings.HasPrefix(mt, "image/") {
		return mt
	}
	return "image/jpeg"
}
