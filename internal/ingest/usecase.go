package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-parser/constants"
	"github.com/joseph-ayodele/receipt-parser/internal/async"
	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/pipeline"
)

// Uploader is satisfied by *pipeline.Processor.
type Uploader interface {
	Upload(ctx context.Context, userID uuid.UUID, image []byte, mimeType string) (*pipeline.UploadResult, error)
}

// FileResult is the per-file outcome of an ingest.
type FileResult struct {
	Path      string
	ReceiptID uuid.UUID
	Kind      common.FailureKind
	Err       string
}

// Usecase feeds image files from disk into the upload pipeline.
type Usecase struct {
	uploader Uploader
	maxBytes int64
	logger   *slog.Logger
}

func NewUsecase(uploader Uploader, maxBytes int64, logger *slog.Logger) *Usecase {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = constants.MaxImageBytesDefault
	}
	return &Usecase{uploader: uploader, maxBytes: maxBytes, logger: logger}
}

// IngestPath uploads a single image file. A failed upload is reported in the result;
// the error is reserved for files that cannot be read and storage failures.
func (u *Usecase) IngestPath(ctx context.Context, userID uuid.UUID, path string) (FileResult, error) {
	res := FileResult{Path: path}
	mimeType, ok := constants.MimeTypeFor(filepath.Ext(path))
	if !ok {
		return res, common.NewAppError(common.CodeInvalidInput, fmt.Sprintf("unsupported file type: %s", path), common.ErrInvalidInput)
	}

	info, err := os.Stat(path)
	if err != nil {
		return res, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > u.maxBytes {
		res.Kind = common.KindInvalidInput
		res.Err = fmt.Sprintf("file is %d bytes, limit is %d", info.Size(), u.maxBytes)
		u.logger.Warn("ingest.file.too_large", "path", path, "bytes", info.Size())
		return res, nil
	}
	image, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}

	out, err := u.uploader.Upload(ctx, userID, image, mimeType)
	if err != nil {
		return res, err
	}
	if !out.Succeeded() {
		res.Kind = out.Failure.Kind
		res.Err = out.Failure.Message
		return res, nil
	}
	res.ReceiptID = out.ReceiptID
	return res, nil
}

// Handler adapts IngestPath to an async.Handler. Results are passed to report, which
// must be safe for concurrent use.
func (u *Usecase) Handler(report func(FileResult)) async.Handler {
	return func(ctx context.Context, job async.Job) error {
		res, err := u.IngestPath(ctx, job.UserID, job.Path)
		if err != nil {
			res.Kind = common.KindOf(err)
			res.Err = err.Error()
		}
		if report != nil {
			report(res)
		}
		return err
	}
}
