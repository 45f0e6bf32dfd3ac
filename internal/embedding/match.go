package embedding

import (
	"fmt"
	"math"
	"strings"

	"github.com/saturnino-fabrica-de-software/vivo/internal/domain"
)

// Convention selects how MatchPolicy.Threshold is read
type Convention string

const (
	// ConventionDistance matches when cosine distance < threshold
	ConventionDistance Convention = "distance"
	// ConventionSimilarity matches when cosine similarity >= threshold
	ConventionSimilarity Convention = "similarity"
)

// DefaultDistanceThreshold is DeepFace's cosine threshold for Facenet512
const DefaultDistanceThreshold = 0.30

// MatchPolicy is the single verification rule of a deployment
type MatchPolicy struct {
	Convention Convention `json:"convention"`
	Threshold  float64    `json:"threshold"`
}

// DefaultPolicy returns the distance convention at DefaultDistanceThreshold
func DefaultPolicy() MatchPolicy {
	return MatchPolicy{Convention: ConventionDistance, Threshold: DefaultDistanceThreshold}
}

// ParseConvention accepts "distance" or "similarity", case-insensitively
func ParseConvention(s string) (Convention, error) {
	switch c := Convention(strings.ToLower(strings.TrimSpace(s))); c {
	case ConventionDistance, ConventionSimilarity:
		return c, nil
	default:
		return "", domain.ErrInvalidMatchPolicy.WithError(fmt.Errorf("unknown convention %q", s))
	}
}

// Validate rejects unknown conventions and thresholds outside the range of
// the chosen measure.
func (p MatchPolicy) Validate() error {
	if math.IsNaN(p.Threshold) {
		return domain.ErrInvalidMatchPolicy.WithError(fmt.Errorf("threshold is NaN"))
	}
	switch p.Convention {
	case ConventionDistance:
		if p.Threshold <= 0 || p.Threshold > 2 {
			return domain.ErrInvalidMatchPolicy.WithError(
				fmt.Errorf("distance threshold %.3f outside (0, 2]", p.Threshold))
		}
	case ConventionSimilarity:
		if p.Threshold < -1 || p.Threshold >= 1 {
			return domain.ErrInvalidMatchPolicy.WithError(
				fmt.Errorf("similarity threshold %.3f outside [-1, 1)", p.Threshold))
		}
	default:
		return domain.ErrInvalidMatchPolicy.WithError(fmt.Errorf("unknown convention %q", p.Convention))
	}
	return nil
}

// Matches applies the policy to a cosine distance
func (p MatchPolicy) Matches(distance float64) bool {
	if p.Convention == ConventionSimilarity {
		return 1-distance >= p.Threshold
	}
	return distance < p.Threshold
}

// MatchResult is the outcome of one verification
type MatchResult struct {
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
	Match      bool    `json:"match"`
}

// Distance returns the cosine distance 1 - a.b/(|a||b|), clamped to [0, 2].
// It is 1 when either vector has zero norm.
func Distance(a, b []float64) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, domain.ErrInputContract.WithError(
			fmt.Errorf("embedding lengths %d and %d are not comparable", len(a), len(b)))
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1, nil
	}

	d := 1 - dot/math.Sqrt(na*nb)
	// rounding can push identical or opposite vectors just past [0, 2]
	return math.Min(math.Max(d, 0), 2), nil
}

// Verify compares a live embedding against a stored template. A negative
// result is reported through MatchResult.Match, never as an error.
func Verify(live, stored []float64, policy MatchPolicy) (MatchResult, error) {
	if err := policy.Validate(); err != nil {
		return MatchResult{}, err
	}
	d, err := Distance(live, stored)
	if err != nil {
		return MatchResult{}, err
	}
	return MatchResult{
		Distance:   d,
		Similarity: 1 - d,
		Match:      policy.Matches(d),
	}, nil
}
