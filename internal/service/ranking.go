package service

import (
	"image"
	"math"
	"sort"

	"github.com/anime-shed/photo-curator-go/internal/analyzer"
	"github.com/anime-shed/photo-curator-go/internal/logger"
	"github.com/anime-shed/photo-curator-go/pkg/models"

	"github.com/corona10/goimagehash"
	"github.com/samber/lo"
)

// duplicateThreshold is the dHash Hamming distance below which two photos
// count as the same shot
const duplicateThreshold = 10

// rankResults turns the found slots into results in input order, flags
// near-duplicates against earlier photos and sorts by descending rounded
// score. Equal scores keep their input order.
func rankResults(names []string, slots []photoSlot, locale analyzer.Locale) []models.AnalysisResult {
	type seenPhoto struct {
		name string
		hash *goimagehash.ImageHash
	}

	results := make([]models.AnalysisResult, 0, len(slots))
	var seen []seenPhoto

	for i, slot := range slots {
		if !slot.found {
			continue
		}
		result := toResult(names[i], slot.entry.Outcome, locale)

		if slot.entry.Hashed {
			hash := goimagehash.NewImageHash(slot.entry.DHash, goimagehash.DHash)
			// A repeated filename is the same photo, not a duplicate of itself
			original, dup := lo.Find(seen, func(p seenPhoto) bool {
				if p.name == names[i] {
					return false
				}
				dist, err := hash.Distance(p.hash)
				return err == nil && dist < duplicateThreshold
			})
			if dup {
				result.DuplicateOf = original.name
			} else {
				seen = append(seen, seenPhoto{name: names[i], hash: hash})
			}
		}

		results = append(results, result)
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	return results
}

func toResult(name string, outcome analyzer.Outcome, locale analyzer.Locale) models.AnalysisResult {
	return models.AnalysisResult{
		Filename:     name,
		Score:        roundScore(outcome.Score),
		Tags:         outcome.Tags,
		QualityLevel: string(analyzer.QualityLevelFor(outcome.Score)),
		SubScores: lo.Map(outcome.SubScores, func(sub analyzer.SubScore, _ int) models.SubScore {
			s := models.SubScore{Name: sub.Name, Score: roundScore(sub.Score)}
			if sub.Tag != "" {
				s.Tag = locale.Text(sub.Tag)
			}
			return s
		}),
		Fallback:       outcome.IsFallback(),
		FallbackReason: string(outcome.Reason),
	}
}

// roundScore rounds to one decimal, ties to even.
func roundScore(score float64) float64 {
	return math.RoundToEven(score*10) / 10
}

// differenceHash returns the 64-bit dHash of img. Hashing is best effort.
func differenceHash(img image.Image) (hash uint64, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).Warn("Perceptual hash failed")
			hash, ok = 0, false
		}
	}()

	h, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return 0, false
	}
	return h.GetHash(), true
}
