package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TotalSpent is the sum of a user's receipt totals.
type TotalSpent struct {
	Total    decimal.Decimal `json:"total"`
	Count    int64           `json:"count"`
	Currency string          `json:"currency"`
}

// CategorySummary aggregates line items of one category.
type CategorySummary struct {
	CategoryName string          `json:"category_name"`
	ItemCount    int64           `json:"item_count"`
	TotalSpent   decimal.Decimal `json:"total_spent"`
}

// ReceiptSummary is a receipt header without its line items.
type ReceiptSummary struct {
	ID          uuid.UUID       `json:"id"`
	StoreName   string          `json:"store_name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ReceiptDate time.Time       `json:"receipt_date"`
	UploadedAt  time.Time       `json:"uploaded_at"`
}

// DateRange bounds a report by receipt date. Nil ends are open.
// End is inclusive at day granularity.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}
