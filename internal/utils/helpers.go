package utils

import (
	"fmt"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/receipt-parser/internal/common"
	"github.com/joseph-ayodele/receipt-parser/internal/entity"
)

const ymd = "2006-01-02"

func ParseYMD(s string) (time.Time, error) {
	t, err := time.ParseInLocation(ymd, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	// strip time to midnight UTC to match DATE semantics
	return StartOfDay(t), nil
}

// StartOfDay truncates t to midnight UTC of its calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDateRange parses optional YYYY-MM-DD bounds. Empty strings leave that end open.
func ParseDateRange(from, to string) (entity.DateRange, error) {
	var r entity.DateRange
	if s := strings.TrimSpace(from); s != "" {
		t, err := ParseYMD(s)
		if err != nil {
			return r, common.NewAppError(common.CodeInvalidInput, fmt.Sprintf("start_date %q must be YYYY-MM-DD", s), common.ErrInvalidInput)
		}
		r.Start = &t
	}
	if s := strings.TrimSpace(to); s != "" {
		t, err := ParseYMD(s)
		if err != nil {
			return r, common.NewAppError(common.CodeInvalidInput, fmt.Sprintf("end_date %q must be YYYY-MM-DD", s), common.ErrInvalidInput)
		}
		r.End = &t
	}
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return r, common.NewAppError(common.CodeInvalidInput, "start_date is after end_date", common.ErrInvalidInput)
	}
	return r, nil
}

// Bounds turns a DateRange into the half-open window [start, end+1day).
// Nil results mean that side is unbounded.
func Bounds(r entity.DateRange) (from, until *time.Time) {
	if r.Start != nil {
		s := StartOfDay(*r.Start)
		from = &s
	}
	if r.End != nil {
		e := StartOfDay(*r.End).AddDate(0, 0, 1)
		until = &e
	}
	return from, until
}

func ToPBCategory(c *entity.Category) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":   structpb.NewStringValue(c.ID.String()),
		"name": structpb.NewStringValue(c.Name),
	}}
}

func ToPBReceiptSummary(r entity.ReceiptSummary) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":           structpb.NewStringValue(r.ID.String()),
		"store_name":   structpb.NewStringValue(r.StoreName),
		"total_amount": structpb.NewStringValue(r.TotalAmount.StringFixed(2)),
		"receipt_date": structpb.NewStringValue(r.ReceiptDate.Format(ymd)),
		"uploaded_at":  structpb.NewStringValue(r.UploadedAt.UTC().Format(time.RFC3339)),
	}}
}

func ToPBReceipt(r *entity.Receipt) *structpb.Struct {
	items := make([]*structpb.Value, 0, len(r.LineItems))
	for _, li := range r.LineItems {
		items = append(items, structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"id":                structpb.NewStringValue(li.ID.String()),
			"item_name":         structpb.NewStringValue(li.ItemName),
			"quantity":          structpb.NewStringValue(li.Quantity.String()),
			"unit_price":        structpb.NewStringValue(li.UnitPrice.StringFixed(2)),
			"total_line_amount": structpb.NewStringValue(li.TotalLineAmount.StringFixed(2)),
			"category_id":       structpb.NewStringValue(li.CategoryID.String()),
			"category_name":     structpb.NewStringValue(li.CategoryName),
		}}))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"id":           structpb.NewStringValue(r.ID.String()),
		"store_name":   structpb.NewStringValue(r.StoreName),
		"receipt_date": structpb.NewStringValue(r.ReceiptDate.Format(ymd)),
		"total_amount": structpb.NewStringValue(r.TotalAmount.StringFixed(2)),
		"uploaded_at":  structpb.NewStringValue(r.UploadedAt.UTC().Format(time.RFC3339)),
		"line_items":   structpb.NewListValue(&structpb.ListValue{Values: items}),
	}}
}

func ToPBCategorySummary(s entity.CategorySummary) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"category_name": structpb.NewStringValue(s.CategoryName),
		"item_count":    structpb.NewNumberValue(float64(s.ItemCount)),
		"total_spent":   structpb.NewStringValue(s.TotalSpent.StringFixed(2)),
	}}
}

func ToPBTotalSpent(t *entity.TotalSpent) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"total":    structpb.NewStringValue(t.Total.StringFixed(2)),
		"count":    structpb.NewNumberValue(float64(t.Count)),
		"currency": structpb.NewStringValue(t.Currency),
	}}
}

// StringField reads a string field from a request struct, empty when missing.
func StringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	if v, ok := s.GetFields()[key]; ok {
		return v.GetStringValue()
	}
	return ""
}
