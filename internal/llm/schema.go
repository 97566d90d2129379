package llm

// Canonical field names of the analysis payload.
var (
	analysisFields = []string{"StoreName", "ReceiptDate", "TotalAmount", "LineItems"}
	lineItemFields = []string{"ItemName", "Quantity", "UnitPrice", "TotalLineAmount", "Category"}
)

// BuildAnalysisJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// Keys are matched against it after case-insensitive canonicalization.
func BuildAnalysisJSONSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"ItemName":        map[string]any{"type": []any{"string", "null"}},
			"Quantity":        amountProp(false),
			"UnitPrice":       amountProp(false),
			"TotalLineAmount": amountProp(true),
			"Category":        map[string]any{"type": []any{"string", "null"}},
		},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"StoreName":   map[string]any{"type": "string"},
			"ReceiptDate": map[string]any{"type": "string", "minLength": 1},
			"TotalAmount": map[string]any{
				"anyOf": []any{amountProp(true), map[string]any{"type": "null"}},
			},
			"LineItems": map[string]any{
				"type":  []any{"array", "null"},
				"items": item,
			},
		},
		"required": []any{"StoreName", "ReceiptDate"},
	}
}

// amountProp accepts a JSON number or a numeric string.
func amountProp(signed bool) map[string]any {
	prop := map[string]any{"type": []any{"number", "string"}}
	if signed {
		prop["pattern"] = `^-?\d+(\.\d+)?$`
	} else {
		prop["pattern"] = `^\d+(\.\d+)?$`
		prop["minimum"] = 0
	}
	return prop
}
