package analyzer

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Criterion identifies an optional scoring criterion. Brightness is not a
// criterion: it is always evaluated.
type Criterion string

const (
	CriterionSharpness   Criterion = "sharpness"
	CriterionColor       Criterion = "color"
	CriterionComposition Criterion = "composition"
)

// AllCriteria lists the requestable criteria in evaluation order.
var AllCriteria = []Criterion{CriterionSharpness, CriterionColor, CriterionComposition}

// Criteria is an unordered set of requested criteria.
type Criteria map[Criterion]struct{}

// NewCriteria builds a set; duplicates collapse.
func NewCriteria(items ...Criterion) Criteria {
	c := make(Criteria, len(items))
	for _, item := range items {
		c[item] = struct{}{}
	}
	return c
}

// DefaultCriteria is used when a request does not name any criteria field.
func DefaultCriteria() Criteria {
	return NewCriteria(CriterionComposition, CriterionSharpness, CriterionColor)
}

// ParseCriteria converts raw identifiers into a set, rejecting unknown names.
func ParseCriteria(raw []string) (Criteria, error) {
	c := make(Criteria, len(raw))
	for _, r := range raw {
		name := Criterion(strings.ToLower(strings.TrimSpace(r)))
		if !lo.Contains(AllCriteria, name) {
			return nil, fmt.Errorf("unknown criterion %q", r)
		}
		c[name] = struct{}{}
	}
	return c, nil
}

// Has reports whether the criterion was requested.
func (c Criteria) Has(criterion Criterion) bool {
	_, ok := c[criterion]
	return ok
}

// Key returns a canonical representation, stable regardless of input order.
func (c Criteria) Key() string {
	names := lo.FilterMap(AllCriteria, func(item Criterion, _ int) (string, bool) {
		return string(item), c.Has(item)
	})
	return strings.Join(names, ",")
}

// SubScore is the result of one criterion.
type SubScore struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Tag   TagKey  `json:"tag"`
}

// OutcomeKind discriminates Outcome.
type OutcomeKind int

const (
	OutcomeScored OutcomeKind = iota
	OutcomeFallback
)

// FallbackReason explains why scoring fell back to the neutral score.
type FallbackReason string

const (
	ReasonNone              FallbackReason = ""
	ReasonDecodeUnavailable FallbackReason = "decode_unavailable"
	ReasonComputationFault  FallbackReason = "computation_fault"
)

// NeutralScore is reported whenever an image cannot be scored.
const NeutralScore = 5.0

// Outcome is either a scored result or a fallback. Score and Tags are always
// populated so callers that do not care about the distinction can ignore Kind.
type Outcome struct {
	Kind      OutcomeKind
	Score     float64
	Tags      []string
	TagKeys   []TagKey
	SubScores []SubScore
	Reason    FallbackReason
}

// IsFallback reports whether the outcome is the neutral fallback.
func (o Outcome) IsFallback() bool {
	return o.Kind == OutcomeFallback
}

// QualityLevel is the coarse three-band classification of a final score.
type QualityLevel string

const (
	QualityRecommended QualityLevel = "recommended"
	QualityGood        QualityLevel = "good"
	QualityAverage     QualityLevel = "average"
)
