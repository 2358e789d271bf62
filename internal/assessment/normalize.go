package assessment

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Normalize locates the JSON object in a model reply and reshapes it into an
// Assessment.
//
// Candidate objects are tried in the order they open, then the span from the
// first '{' to the last '}'. Missing or mistyped fields default to zero values
// and every score is clamped to [0,100]; only a missing or unparseable object
// is an error.
func Normalize(raw string) (*Assessment, error) {
	if !strings.Contains(raw, "{") {
		return nil, ErrNoJSONFound
	}
	obj, err := decodeFirst(raw)
	if err != nil {
		return nil, err
	}
	return reshape(obj), nil
}

func decodeFirst(raw string) (map[string]interface{}, error) {
	var firstErr error
	// A span that balances but does not decode may still contain a valid
	// object, so scanning resumes at the next '{' inside it.
	for i := 0; ; {
		start, end, ok := nextObject(raw, i)
		if !ok {
			break
		}
		obj, err := decodeObject(raw[start : end+1])
		if err == nil {
			return obj, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		i = start + 1
	}

	if span, ok := outerSpan(raw); ok {
		obj, err := decodeObject(span)
		if err == nil {
			return obj, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr == nil {
		firstErr = errors.New("unterminated object")
	}
	return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, firstErr)
}

func decodeObject(s string) (map[string]interface{}, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after object")
	}
	if obj == nil {
		return nil, errors.New("not an object")
	}
	return obj, nil
}

func get(obj map[string]interface{}, names ...string) interface{} {
	v, _ := lookup(obj, names...)
	return v
}

func reshape(obj map[string]interface{}) *Assessment {
	paths := uniqueStrings(asStrings(get(obj, "career_paths")))

	a := &Assessment{
		CareerPaths:       paths,
		ReadinessScore:    score(get(obj, "readiness_score")),
		Feedback:          asString(get(obj, "feedback", "readiness_feedback")),
		Breakdown:         make(map[string]CareerBreakdown, len(paths)),
		IndustryTrends:    asStrings(get(obj, "industry_trends")),
		CustomMatching:    asStrings(get(obj, "custom_matching")),
		ResumeSuggestions: asStrings(get(obj, "resume_suggestions")),
		ATSScore:          score(get(obj, "ATS_score", "ats_score")),
		MissingKeywords:   asStrings(get(obj, "missing_keywords")),
	}

	breakdowns := asObject(get(obj, "readiness_breakdown", "breakdown"))
	for _, p := range paths {
		a.Breakdown[p] = breakdownFrom(asObject(get(breakdowns, p)))
	}

	a.RecommendedSkills = perCareer(get(obj, "recommended_skills"), paths)
	a.RecommendedCourses = perCareer(get(obj, "recommended_courses"), paths)
	a.RecommendedProjects = perCareer(get(obj, "recommended_projects"), paths)
	return a
}

func breakdownFrom(m map[string]interface{}) CareerBreakdown {
	b := emptyBreakdown()
	if m == nil {
		return b
	}
	b.Skills = component(m, "Skills", "skills")
	b.Education = component(m, "Education", "education")
	b.Experience = component(m, "Experience", "experience")
	b.WeightedScore = score(get(m, "Weighted_score", "weighted_score"))
	b.SkillsGap = asStrings(get(m, "Skills_gap", "skills_gap"))
	return b
}

// component reads {"Skills": {"points", "advice"}}, a bare {"Skills": 70}, or
// the flat {"skills_points", "skills_advice"} form.
func component(m map[string]interface{}, name, flat string) Component {
	v, ok := lookup(m, name)
	if !ok {
		return Component{
			Points: score(get(m, flat+"_points")),
			Advice: asString(get(m, flat+"_advice")),
		}
	}
	if obj := asObject(v); obj != nil {
		return Component{
			Points: score(get(obj, "points", "score")),
			Advice: asString(get(obj, "advice")),
		}
	}
	return Component{Points: score(v)}
}

// perCareer reads a career to list mapping. A plain list applies to every
// career.
func perCareer(v interface{}, paths []string) map[string][]string {
	out := make(map[string][]string, len(paths))
	byCareer := asObject(v)
	for _, p := range paths {
		if byCareer != nil {
			out[p] = asStrings(get(byCareer, p))
			continue
		}
		out[p] = asStrings(v)
	}
	return out
}
