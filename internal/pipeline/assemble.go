package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-parser/constants"
	"github.com/joseph-ayodele/receipt-parser/internal/entity"
	"github.com/joseph-ayodele/receipt-parser/internal/llm"
)

// Assemble builds the receipt aggregate for an analysis. Drafts keep their order;
// a draft whose label is missing from resolved is bound to fallback.
func Assemble(userID uuid.UUID, a *llm.Analysis, resolved map[string]*entity.Category, fallback *entity.Category, now time.Time) *entity.Receipt {
	rec := &entity.Receipt{
		ID:          uuid.New(),
		UserID:      userID,
		StoreName:   a.StoreName,
		ReceiptDate: a.ReceiptDate,
		TotalAmount: decimal.Zero,
		RawText:     a.RawText,
		UploadedAt:  now.UTC(),
		LineItems:   make([]entity.LineItem, 0, len(a.LineItems)),
	}
	if a.TotalAmount.Valid {
		rec.TotalAmount = a.TotalAmount.Decimal
	}

	for _, d := range a.LineItems {
		cat := fallback
		if d.Category != nil {
			if c, ok := resolved[constants.NormalizeCategoryName(*d.Category)]; ok {
				cat = c
			}
		}
		rec.LineItems = append(rec.LineItems, entity.LineItem{
			ID:              uuid.New(),
			ReceiptID:       rec.ID,
			ItemName:        d.ItemName,
			Quantity:        d.Quantity,
			UnitPrice:       d.UnitPrice,
			TotalLineAmount: d.TotalLineAmount,
			CategoryID:      cat.ID,
			CategoryName:    cat.Name,
		})
	}
	return rec
}
