// Package scoring computes the local, rule-based readiness score. It needs no
// model and gives the same answer for the same resume.
package scoring

import "math"

// Facts are the counted parts of a resume.
type Facts struct {
	Skills     []string `json:"skills"`
	Education  []string `json:"education"`
	Experience []string `json:"experience"`
}

// Score is min(100, 10 × (0.5×skills + 0.3×education + 0.2×experience)),
// rounded to two decimals.
func Score(f Facts) float64 {
	// 10 × the weighted sum is 5s + 3e + 2x, which stays exact in integers.
	raw := 5*len(f.Skills) + 3*len(f.Education) + 2*len(f.Experience)
	return math.Min(100, math.Round(float64(raw)*100)/100)
}
