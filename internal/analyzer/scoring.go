package analyzer

import "math"

const (
	recommendedMinScore = 8.5
	goodMinScore        = 7.0
)

// QualityLevelFor maps a final score to its quality level.
func QualityLevelFor(score float64) QualityLevel {
	switch {
	case score >= recommendedMinScore:
		return QualityRecommended
	case score >= goodMinScore:
		return QualityGood
	default:
		return QualityAverage
	}
}

// ScoreSharpness normalizes the Laplacian variance; tags are banded on the
// normalized score.
func (t ScoringThresholds) ScoreSharpness(laplacianVar float64) SubScore {
	score := math.Min(t.MaxScore, laplacianVar/t.LaplacianDivisor)

	tag := TagBlurry
	if score > t.HighSharpnessMin {
		tag = TagHighSharpness
	} else if score > t.MediumSharpnessMin {
		tag = TagMediumSharpness
	}
	return SubScore{Name: string(CriterionSharpness), Score: score, Tag: tag}
}

// ScoreColor normalizes the mean saturation; tags are banded on the raw
// saturation, not the clamped score.
func (t ScoringThresholds) ScoreColor(meanSaturation float64) SubScore {
	score := math.Min(t.MaxScore, meanSaturation/t.SaturationDivisor)

	tag := TagMonotoneColor
	if meanSaturation > t.RichSaturationMin {
		tag = TagRichColor
	} else if meanSaturation > t.ModerateSaturationMin {
		tag = TagModerateColor
	}
	return SubScore{Name: string(CriterionColor), Score: score, Tag: tag}
}

// ScoreComposition rates the aspect ratio by its distance from the golden
// ratio. Tags are banded on the raw distance, independent of the clamp.
func (t ScoringThresholds) ScoreComposition(width, height int) SubScore {
	ratio := float64(width) / float64(height)
	distance := math.Abs(ratio - t.GoldenRatio)

	score := t.MaxScore - distance*t.RatioPenalty
	score = math.Max(t.MinCompositionScore, math.Min(t.MaxScore, score))

	tag := TagAverageComposition
	if distance < t.RatioTolerance {
		tag = TagExcellentComposition
	} else {
		for _, r := range t.SecondaryRatios {
			if math.Abs(ratio-r) < t.RatioTolerance {
				tag = TagGoodComposition
				break
			}
		}
	}
	return SubScore{Name: string(CriterionComposition), Score: score, Tag: tag}
}

// ScoreBrightness bands the mean gray level into three fixed scores.
func (t ScoringThresholds) ScoreBrightness(brightness float64) SubScore {
	sub := SubScore{Name: "brightness"}
	switch {
	case brightness >= t.GoodBrightnessMin && brightness <= t.GoodBrightnessMax:
		sub.Score, sub.Tag = t.GoodLightingScore, TagGoodLighting
	case brightness >= t.ModerateBrightnessMin && brightness <= t.ModerateBrightnessMax:
		sub.Score, sub.Tag = t.ModerateLightingScore, TagModerateLighting
	default:
		sub.Score, sub.Tag = t.PoorLightingScore, TagPoorLighting
	}
	return sub
}
