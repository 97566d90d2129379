package constants

// UploadStatus is the terminal state of one receipt upload.
type UploadStatus string

const (
	UploadSucceeded UploadStatus = "SUCCEEDED"
	UploadFailed    UploadStatus = "FAILED"
)

// ReportCurrencyDefault labels report totals; no conversion is performed.
const ReportCurrencyDefault = "TRY"
