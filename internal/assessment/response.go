package assessment

type Recommendation struct {
	CareerPath          string          `json:"career_path"`
	Score               float64         `json:"score"`
	Details             CareerBreakdown `json:"details"`
	RecommendedSkills   []string        `json:"recommended_skills"`
	RecommendedCourses  []string        `json:"recommended_courses"`
	RecommendedProjects []string        `json:"recommended_projects"`
}

// Response is the upload endpoint's reply. Field names and nesting are relied
// on by existing clients.
type Response struct {
	Name              string           `json:"name"`
	Email             string           `json:"email"`
	ResumeFile        string           `json:"resume_file"`
	ReadinessScore    float64          `json:"readiness_score"`
	ReadinessFeedback string           `json:"readiness_feedback"`
	Recommendations   []Recommendation `json:"recommendations"`
	IndustryTrends    []string         `json:"industry_trends"`
	ResumeSuggestions []string         `json:"resume_suggestions"`
	ATSScore          float64          `json:"ATS_score"`
	MissingKeywords   []string         `json:"missing_keywords"`
	CustomMatching    []string         `json:"custom_matching"`
}

// NewResponse lays the assessment out per career path, in model order.
func NewResponse(name, email, resumeFile string, a *Assessment) *Response {
	recs := make([]Recommendation, 0, len(a.CareerPaths))
	for _, career := range a.CareerPaths {
		details, ok := a.Breakdown[career]
		if !ok {
			details = emptyBreakdown()
		}
		recs = append(recs, Recommendation{
			CareerPath:          career,
			Score:               details.WeightedScore,
			Details:             details,
			RecommendedSkills:   nonNil(a.RecommendedSkills[career]),
			RecommendedCourses:  nonNil(a.RecommendedCourses[career]),
			RecommendedProjects: nonNil(a.RecommendedProjects[career]),
		})
	}

	return &Response{
		Name:              name,
		Email:             email,
		ResumeFile:        resumeFile,
		ReadinessScore:    a.ReadinessScore,
		ReadinessFeedback: a.Feedback,
		Recommendations:   recs,
		IndustryTrends:    nonNil(a.IndustryTrends),
		ResumeSuggestions: nonNil(a.ResumeSuggestions),
		ATSScore:          a.ATSScore,
		MissingKeywords:   nonNil(a.MissingKeywords),
		CustomMatching:    nonNil(a.CustomMatching),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
