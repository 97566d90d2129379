package llm

import "strings"

// AnalysisFormat is the single JSON object the service is asked to return.
const AnalysisFormat = `{"StoreName":"","ReceiptDate":"yyyy-MM-dd","TotalAmount":0.00,"LineItems":[{"ItemName":"","Quantity":0.00,"UnitPrice":0.00,"TotalLineAmount":0.00,"Category":""}]}`

// BuildAnalysisPrompt returns the fixed instruction sent alongside every receipt image.
func BuildAnalysisPrompt() string {
	parts := []string{
		"Analyze this receipt image.",
		"Find the store name (StoreName), the transaction date (ReceiptDate), the grand total (TotalAmount) and every purchased item (LineItems).",
		"Use ISO-8601 dates (YYYY-MM-DD).",
		"For each item give its quantity, unit price and the net line amount after any discount in TotalLineAmount; never emit discounts as separate items.",
		"Round amounts to two decimals.",
		"Give each item a short spending category label in Category (for example Dairy, Produce, Beverages, Cleaning); if uncertain use Other.",
		"Return exactly one JSON object in this format: " + AnalysisFormat + ".",
		"Do NOT add any other text or explanation.",
	}
	return strings.Join(parts, " ")
}
