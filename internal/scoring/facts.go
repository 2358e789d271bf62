package scoring

import (
	"strings"
	"unicode"
)

type section int

const (
	sectionNone section = iota
	sectionSkills
	sectionEducation
	sectionExperience
	sectionOther
)

var headings = map[string]section{
	"skills":                  sectionSkills,
	"technical skills":        sectionSkills,
	"core skills":             sectionSkills,
	"key skills":              sectionSkills,
	"skills and tools":        sectionSkills,
	"skills & tools":          sectionSkills,
	"competencies":            sectionSkills,
	"core competencies":       sectionSkills,
	"technologies":            sectionSkills,
	"tech stack":              sectionSkills,
	"education":               sectionEducation,
	"education and training":  sectionEducation,
	"education & training":    sectionEducation,
	"academic background":     sectionEducation,
	"academics":               sectionEducation,
	"qualifications":          sectionEducation,
	"experience":              sectionExperience,
	"work experience":         sectionExperience,
	"professional experience": sectionExperience,
	"employment":              sectionExperience,
	"employment history":      sectionExperience,
	"work history":            sectionExperience,
	"career history":          sectionExperience,
	"summary":                 sectionOther,
	"profile":                 sectionOther,
	"objective":               sectionOther,
	"projects":                sectionOther,
	"certifications":          sectionOther,
	"awards":                  sectionOther,
	"interests":               sectionOther,
	"languages":               sectionOther,
	"references":              sectionOther,
	"publications":            sectionOther,
	"volunteering":            sectionOther,
	"contact":                 sectionOther,
}

// ParseFacts splits resume text into sections by their headings. Skills are
// split on commas, semicolons, pipes and bullets and de-duplicated ignoring
// case; education and experience keep one entry per line.
func ParseFacts(text string) Facts {
	f := Facts{Skills: []string{}, Education: []string{}, Experience: []string{}}
	seenSkills := map[string]struct{}{}
	current := sectionNone

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if s, rest, ok := heading(line); ok {
			current = s
			line = rest
			if line == "" {
				continue
			}
		}

		switch current {
		case sectionSkills:
			for _, skill := range splitSkills(line) {
				key := strings.ToLower(skill)
				if _, dup := seenSkills[key]; dup {
					continue
				}
				seenSkills[key] = struct{}{}
				f.Skills = append(f.Skills, skill)
			}
		case sectionEducation:
			if entry := stripBullet(line); entry != "" {
				f.Education = append(f.Education, entry)
			}
		case sectionExperience:
			if entry := stripBullet(line); entry != "" {
				f.Experience = append(f.Experience, entry)
			}
		}
	}
	return f
}

// heading reports whether line opens a section. "Skills: Go, SQL" is a
// heading followed by content.
func heading(line string) (section, string, bool) {
	label, rest := line, ""
	if i := strings.IndexByte(line, ':'); i >= 0 {
		label, rest = line[:i], strings.TrimSpace(line[i+1:])
	}
	label = strings.ToLower(strings.TrimSpace(strings.TrimLeft(label, "#*= ")))
	label = strings.TrimRight(label, "*= ")
	s, ok := headings[label]
	return s, rest, ok
}

func splitSkills(line string) []string {
	parts := strings.FieldsFunc(line, func(r rune) bool {
		switch r {
		case ',', ';', '|', '•', '·', '▪', '●':
			return true
		}
		return false
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = stripBullet(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stripBullet(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return r == '-' || r == '*' || r == '•' || r == '▪' || r == '●' || r == '·' || unicode.IsSpace(r)
	})
	return strings.TrimSpace(s)
}
