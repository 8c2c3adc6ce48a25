package analyzer

import (
	"image"
	"math"

	"github.com/anime-shed/photo-curator-go/internal/logger"

	"github.com/sirupsen/logrus"
)

// coreAnalyzer implements QualityAnalyzer on top of a MetricsCalculator
type coreAnalyzer struct {
	metricsCalculator MetricsCalculator
	defaults          AnalysisOptions
}

// NewQualityAnalyzer creates an analyzer using the default thresholds and
// the given tag locale.
func NewQualityAnalyzer(locale Locale) QualityAnalyzer {
	return NewQualityAnalyzerWithCalculator(NewMetricsCalculator(), DefaultOptions().WithLocale(locale))
}

// NewQualityAnalyzerWithCalculator allows substituting the metrics source.
func NewQualityAnalyzerWithCalculator(calc MetricsCalculator, defaults AnalysisOptions) QualityAnalyzer {
	return &coreAnalyzer{
		metricsCalculator: calc,
		defaults:          defaults,
	}
}

// Analyze scores img for the given criteria using the analyzer's defaults.
func (ca *coreAnalyzer) Analyze(img image.Image, criteria Criteria) Outcome {
	return ca.AnalyzeWithOptions(img, ca.defaults.WithCriteria(criteria))
}

// AnalyzeWithOptions never panics: decode problems and faults during
// scoring both yield the neutral fallback.
func (ca *coreAnalyzer) AnalyzeWithOptions(img image.Image, options AnalysisOptions) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"panic": r,
			}).Error("Image scoring panicked")
			outcome = fallback(ReasonComputationFault, options.Locale)
		}
	}()

	if !readable(img) {
		return fallback(ReasonDecodeUnavailable, options.Locale)
	}

	subScores := ca.evaluate(img, options)

	for _, sub := range subScores {
		if math.IsNaN(sub.Score) || math.IsInf(sub.Score, 0) {
			logger.WithField("criterion", sub.Name).Warn("Non-finite sub-score")
			return fallback(ReasonComputationFault, options.Locale)
		}
	}

	return aggregate(subScores, options.Locale)
}

// evaluate runs each requested criterion in fixed order followed by the
// unconditional brightness check.
func (ca *coreAnalyzer) evaluate(img image.Image, options AnalysisOptions) []SubScore {
	th := options.Thresholds
	bounds := img.Bounds()
	gray := ca.metricsCalculator.Grayscale(img)

	subScores := make([]SubScore, 0, len(AllCriteria)+1)
	if options.Criteria.Has(CriterionSharpness) {
		subScores = append(subScores, th.ScoreSharpness(ca.metricsCalculator.CalculateLaplacianVariance(gray)))
	}
	if options.Criteria.Has(CriterionColor) {
		subScores = append(subScores, th.ScoreColor(ca.metricsCalculator.CalculateMeanSaturation(img)))
	}
	if options.Criteria.Has(CriterionComposition) {
		subScores = append(subScores, th.ScoreComposition(bounds.Dx(), bounds.Dy()))
	}
	subScores = append(subScores, th.ScoreBrightness(ca.metricsCalculator.CalculateBrightness(gray)))

	return subScores
}

// readable rejects nil and empty images and pixel buffers too short for
// their declared bounds.
func readable(img image.Image) bool {
	if img == nil {
		return false
	}
	b := img.Bounds()
	if b.Empty() {
		return false
	}

	switch p := img.(type) {
	case *image.RGBA:
		return bufferFits(len(p.Pix), p.Stride, b, 4)
	case *image.NRGBA:
		return bufferFits(len(p.Pix), p.Stride, b, 4)
	case *image.RGBA64:
		return bufferFits(len(p.Pix), p.Stride, b, 8)
	case *image.NRGBA64:
		return bufferFits(len(p.Pix), p.Stride, b, 8)
	case *image.CMYK:
		return bufferFits(len(p.Pix), p.Stride, b, 4)
	case *image.Gray:
		return bufferFits(len(p.Pix), p.Stride, b, 1)
	case *image.Gray16:
		return bufferFits(len(p.Pix), p.Stride, b, 2)
	case *image.Paletted:
		return len(p.Palette) > 0 && bufferFits(len(p.Pix), p.Stride, b, 1)
	}
	return true
}

func bufferFits(n, stride int, b image.Rectangle, bytesPerPixel int) bool {
	rowBytes := b.Dx() * bytesPerPixel
	return stride >= rowBytes && n >= (b.Dy()-1)*stride+rowBytes
}

// aggregate averages the sub-scores and collects their tags.
func aggregate(subScores []SubScore, locale Locale) Outcome {
	score := NeutralScore
	if len(subScores) > 0 {
		var sum float64
		for _, sub := range subScores {
			sum += sub.Score
		}
		score = sum / float64(len(subScores))
	}

	keys := make([]TagKey, 0, len(subScores))
	for _, sub := range subScores {
		if sub.Tag != "" {
			keys = append(keys, sub.Tag)
		}
	}
	if len(keys) == 0 {
		keys = append(keys, TagOrdinaryPhoto)
	}

	return Outcome{
		Kind:      OutcomeScored,
		Score:     score,
		Tags:      locale.Texts(keys),
		TagKeys:   keys,
		SubScores: subScores,
	}
}

func fallback(reason FallbackReason, locale Locale) Outcome {
	key := TagAnalysisFailed
	if reason == ReasonDecodeUnavailable {
		key = TagUnreadable
	}
	return Outcome{
		Kind:    OutcomeFallback,
		Score:   NeutralScore,
		Tags:    []string{locale.Text(key)},
		TagKeys: []TagKey{key},
		Reason:  reason,
	}
}
