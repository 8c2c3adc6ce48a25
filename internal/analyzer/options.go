package analyzer

// ScoringThresholds holds the constants of the scoring heuristics
type ScoringThresholds struct {
	MaxScore float64

	// Sharpness
	LaplacianDivisor   float64
	HighSharpnessMin   float64
	MediumSharpnessMin float64

	// Color, banded on raw mean saturation (0-255)
	SaturationDivisor     float64
	RichSaturationMin     float64
	ModerateSaturationMin float64

	// Composition
	GoldenRatio         float64
	RatioPenalty        float64
	MinCompositionScore float64
	RatioTolerance      float64
	SecondaryRatios     []float64

	// Brightness, banded on mean gray level (0-255)
	GoodBrightnessMin     float64
	GoodBrightnessMax     float64
	ModerateBrightnessMin float64
	ModerateBrightnessMax float64
	GoodLightingScore     float64
	ModerateLightingScore float64
	PoorLightingScore     float64
}

// DefaultThresholds returns the default scoring thresholds
func DefaultThresholds() ScoringThresholds {
	return ScoringThresholds{
		MaxScore:              10,
		LaplacianDivisor:      100,
		HighSharpnessMin:      7,
		MediumSharpnessMin:    4,
		SaturationDivisor:     25,
		RichSaturationMin:     100,
		ModerateSaturationMin: 50,
		GoldenRatio:           1.618,
		RatioPenalty:          2,
		MinCompositionScore:   3,
		RatioTolerance:        0.2,
		SecondaryRatios:       []float64{1.5, 1.33}, // 3:2 and 4:3
		GoodBrightnessMin:     80,
		GoodBrightnessMax:     180,
		ModerateBrightnessMin: 50,
		ModerateBrightnessMax: 220,
		GoodLightingScore:     8,
		ModerateLightingScore: 6,
		PoorLightingScore:     4,
	}
}

// AnalysisOptions configures a single analysis call
type AnalysisOptions struct {
	Criteria   Criteria
	Locale     Locale
	Thresholds ScoringThresholds
}

// DefaultOptions returns default analysis options
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		Criteria:   DefaultCriteria(),
		Locale:     LocaleEnglish,
		Thresholds: DefaultThresholds(),
	}
}

// WithCriteria replaces the requested criteria
func (opts AnalysisOptions) WithCriteria(criteria Criteria) AnalysisOptions {
	opts.Criteria = criteria
	return opts
}

// WithLocale sets the tag language
func (opts AnalysisOptions) WithLocale(locale Locale) AnalysisOptions {
	opts.Locale = locale
	return opts
}

// WithThresholds overrides the scoring thresholds
func (opts AnalysisOptions) WithThresholds(thresholds ScoringThresholds) AnalysisOptions {
	opts.Thresholds = thresholds
	return opts
}
