package analyzer

import "image"

// QualityAnalyzer scores decoded images. Implementations must be safe for
// concurrent use and must never panic.
type QualityAnalyzer interface {
	Analyze(img image.Image, criteria Criteria) Outcome
	AnalyzeWithOptions(img image.Image, options AnalysisOptions) Outcome
}

// MetricsCalculator handles image metrics computation
type MetricsCalculator interface {
	Grayscale(img image.Image) *image.Gray
	CalculateLaplacianVariance(gray *image.Gray) float64
	CalculateMeanSaturation(img image.Image) float64
	CalculateBrightness(gray *image.Gray) float64
}
