// Package assessment builds the recommendation prompt sent to the model and
// turns the model's untrusted reply into a canonical Assessment.
package assessment

import "errors"

var (
	ErrNoJSONFound   = errors.New("no JSON object found in model output")
	ErrMalformedJSON = errors.New("model output is not valid JSON")
)

// Component is one scored dimension of a career breakdown.
type Component struct {
	Points float64 `json:"points"`
	Advice string  `json:"advice"`
}

type CareerBreakdown struct {
	Skills        Component `json:"Skills"`
	Education     Component `json:"Education"`
	Experience    Component `json:"Experience"`
	WeightedScore float64   `json:"Weighted_score"`
	SkillsGap     []string  `json:"Skills_gap"`
}

// Assessment is the normalized model output. Its JSON keys are the ones the
// prompt asks for, so a marshalled Assessment normalizes back to itself.
//
// Every career in CareerPaths has an entry in each per-career map and no
// slice is nil.
type Assessment struct {
	CareerPaths         []string                   `json:"career_paths"`
	ReadinessScore      float64                    `json:"readiness_score"`
	Feedback            string                     `json:"feedback"`
	Breakdown           map[string]CareerBreakdown `json:"readiness_breakdown"`
	IndustryTrends      []string                   `json:"industry_trends"`
	CustomMatching      []string                   `json:"custom_matching"`
	ResumeSuggestions   []string                   `json:"resume_suggestions"`
	ATSScore            float64                    `json:"ATS_score"`
	MissingKeywords     []string                   `json:"missing_keywords"`
	RecommendedSkills   map[string][]string        `json:"recommended_skills"`
	RecommendedCourses  map[string][]string        `json:"recommended_courses"`
	RecommendedProjects map[string][]string        `json:"recommended_projects"`
}

func emptyBreakdown() CareerBreakdown {
	return CareerBreakdown{SkillsGap: []string{}}
}
