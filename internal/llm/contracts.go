package llm

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Analysis is the structured extraction of one receipt image.
// It lives only for the duration of one upload.
type Analysis struct {
	StoreName   string
	ReceiptDate time.Time
	TotalAmount decimal.NullDecimal
	LineItems   []LineItemDraft
	// RawText is the sanitized reply the analysis was parsed from.
	RawText string
}

// LineItemDraft is a line item still carrying its free-text category label.
type LineItemDraft struct {
	ItemName        string          `json:"ItemName"`
	Quantity        decimal.Decimal `json:"Quantity"`
	UnitPrice       decimal.Decimal `json:"UnitPrice"`
	TotalLineAmount decimal.Decimal `json:"TotalLineAmount"` // net, after discounts
	Category        *string         `json:"Category,omitempty"`
}

// Labels returns the category labels of the drafts in order, skipping absent ones.
func (a *Analysis) Labels() []string {
	labels := make([]string, 0, len(a.LineItems))
	for _, li := range a.LineItems {
		if li.Category != nil {
			labels = append(labels, *li.Category)
		}
	}
	return labels
}

// Analyzer is the interface the upload pipeline depends on.
// Failures are *common.AppError values wrapping ErrExternalService or ErrMalformedAnalysis.
type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (*Analysis, error)
}
