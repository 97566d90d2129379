package receipts

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-parser/constants"
	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/entity"
	"github.com/joseph-ayodele/receipt-parser/internal/repository"
	"github.com/joseph-ayodele/receipt-parser/internal/utils"
)

// Service handles receipt reads and reports.
type Service struct {
	receiptRepo  repository.ReceiptRepository
	reportRepo   repository.ReportRepository
	categoryRepo repository.CategoryRepository
	currency     string
	logger       *slog.Logger
}

// NewService creates a new receipt service. An empty currency falls back to TRY.
func NewService(
	receiptRepo repository.ReceiptRepository,
	reportRepo repository.ReportRepository,
	categoryRepo repository.CategoryRepository,
	currency string,
	logger *slog.Logger,
) *Service {
	if currency == "" {
		currency = constants.ReportCurrencyDefault
	}
	return &Service{
		receiptRepo:  receiptRepo,
		reportRepo:   reportRepo,
		categoryRepo: categoryRepo,
		currency:     currency,
		logger:       logger,
	}
}

// TotalSpent returns the sum of all the user's receipt totals.
func (s *Service) TotalSpent(ctx context.Context, userID uuid.UUID) (*entity.TotalSpent, error) {
	total, count, err := s.reportRepo.TotalSpent(ctx, userID)
	if err != nil {
		s.logger.Error("failed to compute total spent", "user_id", userID, "error", err)
		return nil, common.WrapError(err, "total spent")
	}
	s.logger.Info("total spent computed", "user_id", userID, "receipts", count)
	return &entity.TotalSpent{Total: total, Count: count, Currency: s.currency}, nil
}

// CategorySummary groups the user's line items by category within r.
// No matching items is reported as common.ErrNoData.
func (s *Service) CategorySummary(ctx context.Context, userID uuid.UUID, r entity.DateRange) ([]entity.CategorySummary, error) {
	from, until := utils.Bounds(r)
	rows, err := s.reportRepo.CategorySummary(ctx, userID, from, until)
	if err != nil {
		s.logger.Error("failed to summarize categories", "user_id", userID, "error", err)
		return nil, common.WrapError(err, "category summary")
	}
	if len(rows) == 0 {
		return nil, common.NewAppError(common.CodeNoData, "no line items in range", common.ErrNoData)
	}
	s.logger.Info("category summary computed", "user_id", userID, "categories", len(rows))
	return rows, nil
}

// ReceiptList returns receipt headers within r, newest first.
func (s *Service) ReceiptList(ctx context.Context, userID uuid.UUID, r entity.DateRange) ([]entity.ReceiptSummary, error) {
	from, until := utils.Bounds(r)
	s.logger.Info("listing receipts", "user_id", userID, "from_date", from, "until", until)
	recs, err := s.receiptRepo.ListReceipts(ctx, userID, from, until)
	if err != nil {
		return nil, common.WrapError(err, "list receipts")
	}
	s.logger.Info("receipts listed successfully", "user_id", userID, "count", len(recs))
	return recs, nil
}

func (s *Service) GetReceipt(ctx context.Context, userID, receiptID uuid.UUID) (*entity.Receipt, error) {
	return s.receiptRepo.Get(ctx, userID, receiptID)
}

func (s *Service) DeleteReceipt(ctx context.Context, userID, receiptID uuid.UUID) error {
	return s.receiptRepo.Delete(ctx, userID, receiptID)
}

func (s *Service) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	cats, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		s.logger.Error("failed to list categories", "error", err)
		return nil, common.WrapError(err, "list categories")
	}
	return cats, nil
}
