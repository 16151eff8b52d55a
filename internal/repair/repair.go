// Package repair turns raw inference responses, which are not
// guaranteed to be valid JSON or correctly shaped, into well-typed
// field structures. Parsing failures degrade to empty structures; the
// package never returns an error to its caller.
package repair

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"resume-extract-go/internal/logger"
	"resume-extract-go/internal/types"
)

// HeaderFields holds the repaired output of the header-field prompt.
type HeaderFields struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Location    string `json:"location"`
}

// DeepFields holds the repaired output of the deep-field prompt.
type DeepFields struct {
	HardSkills        []string          `json:"hard_skills"`
	SoftSkills        []string          `json:"soft_skills"`
	WorkingExperience []types.Job       `json:"working_experience"`
	Education         []types.Education `json:"education"`
}

// Empty reports whether the deep result carries nothing usable.
func (d DeepFields) Empty() bool {
	return len(d.HardSkills) == 0 && len(d.SoftSkills) == 0 &&
		len(d.WorkingExperience) == 0 && len(d.Education) == 0
}

var (
	fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

	// "field": "value" pairs for the field-by-field fallback.
	kvPairRe = regexp.MustCompile(`"([a-z_]+)"\s*:\s*"((?:[^"\\]|\\.)*)"`)

	bulletItemRe    = regexp.MustCompile(`^[\s]*[-•●○■▪▸►*·・]+[\s]*`)
	numberedItemRe  = regexp.MustCompile(`^\s*\d+[.)]\s*`)
	listSplitRe     = regexp.MustCompile(`[\n,;、，；•・]`)
	segmentAnchorRe = regexp.MustCompile(`(?m)^[ \t]*(?:[A-Z][^\n]{0,80}?\b(?:Inc|Corp(?:oration)?|Ltd|LLC|LLP|Co|Company|GmbH|K\.K)\.?\b[^\n]*|株式会社[^\n]{1,40}|[^\n]{1,40}株式会社[^\n]*)$`)
	dateRangeRe     = regexp.MustCompile(`(?i)(?:(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{4}|\d{1,2}/\d{4}|(?:19|20)\d{2}\s*年?\s*\d{0,2}\s*月?)\s*(?:-|–|—|~|〜|to|から)\s*(?:(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{4}|\d{1,2}/\d{4}|(?:19|20)\d{2}\s*年?\s*\d{0,2}\s*月?|Present|Current|現在)`)
	descriptionValueRe = regexp.MustCompile(`"description"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	roleKeywordRe   = regexp.MustCompile(`(?i)\b(?:engineer|developer|programmer|manager|director|analyst|consultant|designer|architect|lead|specialist|coordinator|administrator|scientist|officer|intern)\b|エンジニア|マネージャー|部長|課長|主任|担当`)
)

const (
	maxCompanyLen     = 100
	maxRoleLen        = 100
	maxDescriptionLen = 400
	maxInstitutionLen = 150
	maxDegreeLen      = 150

	// Response sizes past this point signal a text dump rather than a
	// structured extraction.
	textDumpThreshold = 5000
)

// ExtractJSON pulls a JSON object out of free text: first from a
// markdown code fence, then by scanning for the first balanced {...}
// span. Empty string when neither is found.
func ExtractJSON(text string) string {
	if m := fenceRe.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			level++
		case '}':
			level--
			if level == 0 {
				return strings.TrimSpace(text[start : i+1])
			}
		}
	}
	return ""
}

// parseObject runs the parsing ladder over a raw response: fenced or
// balanced JSON first, then field-by-field regex assembly, then an
// empty map.
func parseObject(raw string) map[string]any {
	if jsonStr := ExtractJSON(raw); jsonStr != "" {
		var obj map[string]any
		if err := json.Unmarshal([]byte(jsonStr), &obj); err == nil {
			return obj
		}
	}

	obj := map[string]any{}
	for _, m := range kvPairRe.FindAllStringSubmatch(raw, -1) {
		if _, exists := obj[m[1]]; !exists {
			obj[m[1]] = m[2]
		}
	}
	return obj
}

// ParseHeader repairs a header-prompt response into typed fields.
func ParseHeader(raw string) HeaderFields {
	obj := parseObject(raw)
	return HeaderFields{
		Name:        stringField(obj, "name", "full_name"),
		Email:       strings.ToLower(stringField(obj, "email", "email_address")),
		Phone:       stringField(obj, "phone", "phone_number", "tel"),
		DateOfBirth: stringField(obj, "date_of_birth", "dob", "birth_date"),
		Location:    stringField(obj, "location", "address", "city"),
	}
}

// ParseDeep repairs a deep-prompt response into typed list fields.
// The malformed-list repair runs unconditionally as a safety net, even
// when the JSON parsed cleanly.
func ParseDeep(raw string) DeepFields {
	obj := parseObject(raw)

	deep := DeepFields{
		HardSkills:        repairStringList(firstPresent(obj, "hard_skills", "technical_skills")),
		SoftSkills:        repairStringList(firstPresent(obj, "soft_skills", "interpersonal_skills")),
		WorkingExperience: repairExperience(firstPresent(obj, "working_experience", "work_experience", "experience")),
		Education:         repairEducation(firstPresent(obj, "education", "school_university")),
	}

	// A bare "skills" list goes to the hard bucket when the model
	// ignored the split.
	if len(deep.HardSkills) == 0 {
		if v, ok := obj["skills"]; ok {
			deep.HardSkills = repairStringList(v)
		}
	}
	return deep
}

func stringField(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok {
				s = strings.TrimSpace(s)
				if s != "" && !strings.EqualFold(s, "null") && !strings.EqualFold(s, "unknown") && !strings.EqualFold(s, "n/a") {
					return s
				}
			}
		}
	}
	return ""
}

func firstPresent(obj map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			return v
		}
	}
	return nil
}

// repairStringList coerces a value into a clean string list: strings
// are split on bullets, newlines, and list separators; lists get the
// same per-item cleaning. Items outside length (2,100) are dropped.
func repairStringList(value any) []string {
	items := []string{}
	switch v := value.(type) {
	case nil:
		return items
	case string:
		for _, part := range listSplitRe.Split(v, -1) {
			if item := cleanListItem(part); item != "" {
				items = append(items, item)
			}
		}
	case []any:
		for _, elem := range v {
			if s, ok := elem.(string); ok {
				if item := cleanListItem(s); item != "" {
					items = append(items, item)
				}
			}
		}
	}
	return items
}

func cleanListItem(raw string) string {
	s := bulletItemRe.ReplaceAllString(raw, "")
	s = numberedItemRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if len(s) <= 2 || len(s) >= 100 {
		return ""
	}
	return s
}

// repairExperience coerces the working-experience value into a list
// of fully-populated Job entries. A string value gets the emergency
// segmentation treatment; entries in a proper list are never dropped,
// only repaired.
func repairExperience(value any) []types.Job {
	jobs := []types.Job{}
	switch v := value.(type) {
	case nil:
		return jobs
	case string:
		return segmentExperienceDump(v)
	case []any:
		for _, elem := range v {
			entry, ok := elem.(map[string]any)
			if !ok {
				continue
			}
			jobs = append(jobs, types.Job{
				Company:     coerce(entry, maxCompanyLen, "Unknown", "company", "company_name", "employer"),
				Role:        coerce(entry, maxRoleLen, "See Description", "role", "title", "position", "job_title"),
				Duration:    coerce(entry, maxRoleLen, "N/A", "duration", "dates", "period"),
				Description: coerce(entry, maxDescriptionLen, "", "description", "responsibilities", "summary"),
			})
		}
	}
	return jobs
}

// segmentExperienceDump recovers structure from a model that dumped
// free text instead of entries. Segments are bounded by lines carrying
// a company legal suffix; when none exist a single sentinel entry
// preserves the text for manual review.
func segmentExperienceDump(text string) []types.Job {
	text = strings.TrimSpace(text)
	if text == "" {
		return []types.Job{}
	}

	anchors := segmentAnchorRe.FindAllStringIndex(text, 10)
	if len(anchors) == 0 {
		return []types.Job{{
			Company:     "Unknown",
			Role:        "See Description",
			Duration:    "N/A",
			Description: truncate(text, maxDescriptionLen),
		}}
	}

	var jobs []types.Job
	for i, loc := range anchors {
		end := len(text)
		if i+1 < len(anchors) {
			end = anchors[i+1][0]
		}
		segment := text[loc[0]:end]
		lines := strings.Split(segment, "\n")

		job := types.Job{
			Company:     truncate(strings.Trim(lines[0], " \t.,"), maxCompanyLen),
			Role:        "See Description",
			Duration:    "N/A",
			Description: truncate(segment, maxDescriptionLen),
		}
		if m := dateRangeRe.FindString(segment); m != "" {
			job.Duration = m
		}
		for _, line := range lines[1:min(len(lines), 4)] {
			if roleKeywordRe.MatchString(line) {
				job.Role = truncate(strings.TrimSpace(line), maxRoleLen)
				break
			}
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// repairEducation mirrors repairExperience for education entries.
func repairEducation(value any) []types.Education {
	entries := []types.Education{}
	switch v := value.(type) {
	case nil:
		return entries
	case string:
		for _, item := range repairStringList(v) {
			entries = append(entries, types.Education{
				Institution: truncate(item, maxInstitutionLen),
				Degree:      "N/A",
				Field:       "N/A",
				Year:        "N/A",
			})
		}
	case []any:
		for _, elem := range v {
			entry, ok := elem.(map[string]any)
			if !ok {
				if s, isStr := elem.(string); isStr {
					if item := cleanListItem(s); item != "" {
						entries = append(entries, types.Education{
							Institution: truncate(item, maxInstitutionLen),
							Degree:      "N/A", Field: "N/A", Year: "N/A",
						})
					}
				}
				continue
			}
			entries = append(entries, types.Education{
				Institution: coerce(entry, maxInstitutionLen, "Unknown", "institution", "school", "university", "school_university"),
				Degree:      coerce(entry, maxDegreeLen, "N/A", "degree", "qualification"),
				Field:       coerce(entry, maxDegreeLen, "N/A", "field", "major", "field_of_study"),
				Year:        coerce(entry, 20, "N/A", "year", "dates", "graduation_year"),
			})
		}
	}
	return entries
}

// coerce reads the first present key as a string, truncated, falling
// back to the sentinel so every entry stays fully populated.
func coerce(entry map[string]any, maxLen int, sentinel string, keys ...string) string {
	for _, key := range keys {
		v, ok := entry[key]
		if !ok {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = strings.TrimSpace(t)
		case float64:
			s = strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", t), "0"), ".")
		}
		if s != "" {
			return truncate(s, maxLen)
		}
	}
	return sentinel
}

// ValidateDeepExtraction scans a repaired deep result for symptomatic
// issues and returns warning strings. Issues never block the pipeline;
// callers log them and continue.
func ValidateDeepExtraction(raw string, deep DeepFields) []string {
	var warnings []string

	if len(deep.HardSkills) > 0 && strings.ContainsAny(deep.HardSkills[0], "\n•●・") {
		warnings = append(warnings, "first hard skill still contains bullet or newline characters")
	}
	if len(deep.SoftSkills) > 0 && strings.ContainsAny(deep.SoftSkills[0], "\n•●・") {
		warnings = append(warnings, "first soft skill still contains bullet or newline characters")
	}
	// Oversized descriptions are checked against the raw response,
	// since repair already truncates them.
	for i, m := range descriptionValueRe.FindAllStringSubmatch(raw, -1) {
		if len(m[1]) > 1000 {
			warnings = append(warnings, fmt.Sprintf("description %d exceeds 1000 chars, likely echoed raw text", i))
		}
	}
	if len(raw) > textDumpThreshold {
		warnings = append(warnings, fmt.Sprintf("response length %d exceeds text-dump threshold", len(raw)))
	}

	for _, w := range warnings {
		logger.Warn().Str("issue", w).Msg("deep extraction quality gate")
	}
	return warnings
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
