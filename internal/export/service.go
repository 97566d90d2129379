package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/receipt-parser/internal/entity"
	"github.com/joseph-ayodele/receipt-parser/internal/repository"
	"github.com/joseph-ayodele/receipt-parser/internal/utils"
)

const (
	sheetReceipts  = "Receipts"
	sheetLineItems = "LineItems"
)

// Service produces XLSX bytes for receipt exports.
type Service struct {
	receiptsRepo repository.ReceiptRepository
	logger       *slog.Logger
}

func NewService(repo repository.ReceiptRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{receiptsRepo: repo, logger: logger}
}

// ReceiptsXLSX returns a workbook with one sheet of receipt headers and one of line items
// for the user's receipts dated within r.
func (s *Service) ReceiptsXLSX(ctx context.Context, userID uuid.UUID, r entity.DateRange) ([]byte, error) {
	start := time.Now()
	from, until := utils.Bounds(r)

	recs, err := s.receiptsRepo.ListWithItems(ctx, userID, from, until)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// The default sheet becomes the receipts sheet so the workbook opens on it.
	if err := f.SetSheetName(f.GetSheetName(0), sheetReceipts); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetLineItems); err != nil {
		return nil, err
	}

	if err := writeRow(f, sheetReceipts, 1, "Receipt ID", "Receipt Date", "Store", "Total Amount", "Items", "Uploaded At"); err != nil {
		return nil, err
	}
	if err := writeRow(f, sheetLineItems, 1, "Receipt ID", "Receipt Date", "Store", "Item", "Category", "Quantity", "Unit Price", "Line Total"); err != nil {
		return nil, err
	}

	row, itemRow := 2, 2
	for _, rec := range recs {
		date := rec.ReceiptDate.Format("2006-01-02")
		total, _ := rec.TotalAmount.Round(2).Float64()
		if err := writeRow(f, sheetReceipts, row, rec.ID.String(), date, rec.StoreName, total,
			len(rec.LineItems), rec.UploadedAt.UTC().Format(time.RFC3339)); err != nil {
			return nil, err
		}
		row++

		for _, li := range rec.LineItems {
			qty, _ := li.Quantity.Float64()
			unit, _ := li.UnitPrice.Round(2).Float64()
			line, _ := li.TotalLineAmount.Round(2).Float64()
			if err := writeRow(f, sheetLineItems, itemRow, rec.ID.String(), date, rec.StoreName,
				truncate(li.ItemName, 140), li.CategoryName, qty, unit, line); err != nil {
				return nil, err
			}
			itemRow++
		}
	}

	_ = f.SetColWidth(sheetReceipts, "A", "A", 38)
	_ = f.SetColWidth(sheetReceipts, "B", "B", 14)
	_ = f.SetColWidth(sheetReceipts, "C", "C", 28)
	_ = f.SetColWidth(sheetReceipts, "D", "E", 14)
	_ = f.SetColWidth(sheetReceipts, "F", "F", 22)
	_ = f.SetColWidth(sheetLineItems, "A", "A", 38)
	_ = f.SetColWidth(sheetLineItems, "C", "E", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", userID.String(),
		"receipts", len(recs),
		"line_items", itemRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
