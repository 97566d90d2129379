package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt represents a receipt for data transfer between layers.
type Receipt struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	StoreName   string          `json:"store_name"`
	ReceiptDate time.Time       `json:"receipt_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	RawText     string          `json:"raw_text,omitempty"`
	UploadedAt  time.Time       `json:"uploaded_at"`
	LineItems   []LineItem      `json:"line_items"`
}

// LineItem is one purchased item of a receipt, bound to exactly one category.
type LineItem struct {
	ID              uuid.UUID       `json:"id"`
	ReceiptID       uuid.UUID       `json:"receipt_id"`
	ItemName        string          `json:"item_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalLineAmount decimal.Decimal `json:"total_line_amount"`
	CategoryID      uuid.UUID       `json:"category_id"`
	CategoryName    string          `json:"category_name,omitempty"`
}
