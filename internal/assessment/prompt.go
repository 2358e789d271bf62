package assessment

import (
	"fmt"
	"strings"
)

const fieldContract = `Analyze the following resume and return a JSON object with exactly these fields:

- "career_paths": array of the top career paths for this candidate, most relevant first, at least one entry
- "readiness_score": overall career readiness, a number from 0 to 100
- "readiness_breakdown": an object keyed by each career path in "career_paths", each value containing:
    - "Skills": {"points": number 0-100, "advice": string}
    - "Education": {"points": number 0-100, "advice": string}
    - "Experience": {"points": number 0-100, "advice": string}
    - "Weighted_score": weighted average of Skills, Education and Experience, a number from 0 to 100
    - "Skills_gap": array of skills that are missing or weak for that career
- "industry_trends": non-empty array of trending roles or skills in the industry
- "custom_matching": non-empty array of careers matched to the user preferences (remote, salary, location)
- "resume_suggestions": non-empty array of bullet points that would improve the resume
- "ATS_score": estimated applicant tracking system compatibility, a number from 0 to 100
- "missing_keywords": non-empty array of keywords missing for the target roles
- "feedback": general constructive feedback, a string
- "recommended_skills": an object keyed by each career path, each value a non-empty array of skills
- "recommended_courses": an object keyed by each career path, each value a non-empty array of courses
- "recommended_projects": an object keyed by each career path, each value a non-empty array of projects

Respond with a single JSON object only. Do not wrap it in markdown code fences and do not add any text before or after it.`

// BuildPrompt returns the user message for one recommendation request.
// Preferences are embedded verbatim; blank preferences become "{}".
func BuildPrompt(resumeText, preferences string) string {
	if strings.TrimSpace(preferences) == "" {
		preferences = "{}"
	}
	return fmt.Sprintf("%s\n\nUser preferences (if any):\n%s\n\nResume:\n%s\n", fieldContract, preferences, resumeText)
}
