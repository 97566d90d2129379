package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-parser/internal/common"
)

var receiptDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02.01.2006",
	"02/01/2006",
}

type wireAnalysis struct {
	StoreName   string              `json:"StoreName"`
	ReceiptDate string              `json:"ReceiptDate"`
	TotalAmount decimal.NullDecimal `json:"TotalAmount"`
	LineItems   []LineItemDraft     `json:"LineItems"`
}

// ParseAnalysis decodes a sanitized reply into an Analysis. Field names are matched
// case-insensitively. TotalAmount and Category stay absent when the reply omits them.
// Any reply that is not a single object of the expected shape fails with ErrMalformedAnalysis.
func ParseAnalysis(candidate string, logger *slog.Logger) (*Analysis, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dec := json.NewDecoder(strings.NewReader(candidate))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, common.MalformedAnalysisError("decode reply", err)
	}
	if dec.More() {
		return nil, common.MalformedAnalysisError("trailing data after object", nil)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, common.MalformedAnalysisError(fmt.Sprintf("expected an object, got %T", doc), nil)
	}

	canonicalizeKeys(obj, analysisFields)
	if items, ok := obj["LineItems"].([]any); ok {
		for _, it := range items {
			if m, ok := it.(map[string]any); ok {
				canonicalizeKeys(m, lineItemFields)
			}
		}
	}

	if err := ValidateAnalysisDocument(obj); err != nil {
		return nil, common.MalformedAnalysisError("validate reply", err)
	}

	normalized, err := json.Marshal(obj)
	if err != nil {
		return nil, common.MalformedAnalysisError("re-encode reply", err)
	}
	var w wireAnalysis
	if err := json.NewDecoder(bytes.NewReader(normalized)).Decode(&w); err != nil {
		return nil, common.MalformedAnalysisError("decode fields", err)
	}

	date, err := parseReceiptDate(w.ReceiptDate)
	if err != nil {
		return nil, common.MalformedAnalysisError("parse ReceiptDate", err)
	}

	items := make([]LineItemDraft, 0, len(w.LineItems))
	for i, li := range w.LineItems {
		li.ItemName = strings.TrimSpace(li.ItemName)
		if li.Category != nil && strings.TrimSpace(*li.Category) == "" {
			li.Category = nil
		}
		if exceedsGross(li) {
			logger.Warn("llm.parse.line_amount_mismatch",
				"index", i,
				"item", li.ItemName,
				"quantity", li.Quantity.String(),
				"unit_price", li.UnitPrice.String(),
				"total_line_amount", li.TotalLineAmount.String(),
			)
		}
		items = append(items, li)
	}

	return &Analysis{
		StoreName:   strings.TrimSpace(w.StoreName),
		ReceiptDate: date,
		TotalAmount: w.TotalAmount,
		LineItems:   items,
		RawText:     candidate,
	}, nil
}

// canonicalizeKeys renames keys that match a canonical name case-insensitively.
// An exact canonical key already present wins over a differently cased duplicate.
func canonicalizeKeys(m map[string]any, canonical []string) {
	for key, v := range m {
		for _, name := range canonical {
			if key == name || !strings.EqualFold(key, name) {
				continue
			}
			if _, exists := m[name]; !exists {
				m[name] = v
			}
			delete(m, key)
			break
		}
	}
}

func parseReceiptDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range receiptDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// exceedsGross reports a net line amount larger than quantity times unit price.
// Discounts only ever lower the net amount, so this points at a misread.
func exceedsGross(li LineItemDraft) bool {
	if li.Quantity.IsZero() || li.UnitPrice.IsZero() {
		return false
	}
	gross := li.Quantity.Mul(li.UnitPrice)
	return li.TotalLineAmount.Sub(gross).GreaterThan(decimal.New(1, -2))
}
