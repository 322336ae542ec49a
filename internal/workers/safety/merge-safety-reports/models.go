package mergesafetyreports

import "cosmetic-insights/internal/analytics/safety"

// Input carries the two branch reports. Either may be absent; the barcode
// report wins for ingredients present in both.
type Input struct {
	OCRReport     *safety.ProductSafetyReport `json:"ocrReport,omitempty"`
	BarcodeReport *safety.ProductSafetyReport `json:"barcodeReport,omitempty"`
	ReportID      string                      `json:"reportId,omitempty"`
}

// Output is the job variables the worker sets on completion.
type Output struct {
	ReportID     string                      `json:"reportId"`
	SafetyReport *safety.ProductSafetyReport `json:"safetyReport"`
}
