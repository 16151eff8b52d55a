package extractor

import (
	"regexp"
	"strings"

	"resume-extract-go/internal/types"
)

const (
	maxCompanyLen     = 100
	maxRoleLen        = 100
	maxDescriptionLen = 400
	maxInstitutionLen = 150
	maxDegreeLen      = 150
	educationTailSize = 2000
)

// Company anchor families, tried in order. Only the first family that
// yields any match is used, so a resume with legal-suffix company
// names is never polluted by looser capitalized-phrase matches.
var companyAnchorFamilies = []*regexp.Regexp{
	// Legal entity suffix, English and Japanese.
	regexp.MustCompile(`(?m)(?:[A-Z][A-Za-z0-9&.,'\- ]{1,60}?,?\s(?:Inc|Corp(?:oration)?|Ltd|LLC|LLP|Co|Company|GmbH|K\.K)\.?(?:\s|$))|(?:株式会社[^\s、。,]{1,30})|(?:[^\s、。,]{1,30}株式会社)|(?:有限会社[^\s、。,]{1,30})`),
	// Descriptive organization keyword.
	regexp.MustCompile(`(?m)[A-Z][A-Za-z0-9&.'\- ]{1,50}(?:Technologies|Solutions|Systems|Consulting|Software|Services|Labs|Group|Partners|Holdings|Bank|Industries)`),
	// Standalone capitalized phrase on its own line, confirmed as a
	// company by a job title or date range within the next two lines.
	regexp.MustCompile(`(?m)^[ \t]*([A-Z][A-Za-z0-9&.,'\- ]{2,60})[ \t]*$`),
}

var jobTitleRe = regexp.MustCompile(`(?i)\b(?:engineer|developer|programmer|manager|director|analyst|consultant|designer|architect|lead|specialist|coordinator|administrator|scientist|officer|intern|accountant|recruiter|president|executive)\b|エンジニア|マネージャー|ディレクター|コンサルタント|部長|課長|係長|主任|担当|リーダー`)

// Date range patterns, most specific first.
var dateRangeRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{4}\s*(?:-|–|—|~|〜|to)\s*(?:(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{4}|Present|Current|Now)`),
	regexp.MustCompile(`(?i)\d{1,2}/\d{4}\s*(?:-|–|—|~|〜|to)\s*(?:\d{1,2}/\d{4}|Present|Current)`),
	regexp.MustCompile(`(?:19|20)\d{2}\s*年?\s*\d{0,2}\s*月?\s*(?:-|–|—|~|〜|to|から)\s*(?:(?:19|20)\d{2}\s*年?\s*\d{0,2}\s*月?|Present|Current|現在)`),
}

var (
	bulletLineRe = regexp.MustCompile(`(?m)^[ \t]*[-•●○■▪▸►*·・][ \t]*(.+)$`)
	sentenceRe   = regexp.MustCompile(`[^.。!?\n]+[.。!?]`)
)

// extractExperience isolates the experience section and slices it into
// per-company chunks bounded by company anchors.
func extractExperience(text string) []types.Job {
	body := findSection(text, sectionExperience)
	if body == "" {
		return []types.Job{}
	}

	anchors := findCompanyAnchors(body)
	if len(anchors) == 0 {
		return []types.Job{}
	}

	var jobs []types.Job
	for i, a := range anchors {
		end := len(body)
		if i+1 < len(anchors) {
			end = anchors[i+1].start
		}
		chunk := body[a.start:end]
		jobs = append(jobs, buildJob(a.company, chunk))
	}
	return jobs
}

type companyAnchor struct {
	company string
	start   int
}

func findCompanyAnchors(body string) []companyAnchor {
	for familyIdx, re := range companyAnchorFamilies {
		matches := re.FindAllStringSubmatchIndex(body, 20)
		if matches == nil {
			continue
		}
		var anchors []companyAnchor
		for _, m := range matches {
			start, end := m[0], m[1]
			if len(m) > 2 && m[2] >= 0 {
				start, end = m[2], m[3]
			}
			company := strings.Trim(body[start:end], " \t\n.,")
			if company == "" {
				continue
			}
			// The loose capitalized-phrase family needs confirmation
			// from context and must not swallow role lines.
			if familyIdx == 2 {
				if jobTitleRe.MatchString(company) || !confirmedByContext(body[end:]) {
					continue
				}
			}
			anchors = append(anchors, companyAnchor{company: truncate(company, maxCompanyLen), start: m[0]})
		}
		if len(anchors) > 0 {
			return anchors
		}
	}
	return nil
}

// confirmedByContext reports whether the next two lines after a
// candidate company line contain a job title or a date range.
func confirmedByContext(rest string) bool {
	lines := strings.SplitN(strings.TrimLeft(rest, "\n"), "\n", 3)
	probe := strings.Join(lines[:min(2, len(lines))], "\n")
	if jobTitleRe.MatchString(probe) {
		return true
	}
	for _, re := range dateRangeRes {
		if re.MatchString(probe) {
			return true
		}
	}
	return false
}

func buildJob(company, chunk string) types.Job {
	job := types.Job{
		Company:     company,
		Role:        "Unknown",
		Duration:    "N/A",
		Description: "",
	}

	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, company) {
			continue
		}
		if jobTitleRe.MatchString(line) && len(line) <= maxRoleLen {
			job.Role = strings.Trim(line, " \t-•●・")
			break
		}
	}

	dateEnd := 0
	for _, re := range dateRangeRes {
		if loc := re.FindStringIndex(chunk); loc != nil {
			job.Duration = chunk[loc[0]:loc[1]]
			dateEnd = loc[1]
			break
		}
	}

	job.Description = buildDescription(chunk, dateEnd)
	return job
}

// buildDescription takes the first bullet lines within 600 characters
// after the date match, falling back to leading sentences.
func buildDescription(chunk string, dateEnd int) string {
	scope := chunk[dateEnd:]
	if len(scope) > 600 {
		scope = scope[:600]
	}

	bullets := bulletLineRe.FindAllStringSubmatch(scope, 4)
	if len(bullets) > 0 {
		var parts []string
		for _, b := range bullets {
			parts = append(parts, strings.TrimSpace(b[1]))
		}
		return truncate(strings.Join(parts, "; "), maxDescriptionLen)
	}

	sentences := sentenceRe.FindAllString(scope, 3)
	if len(sentences) > 0 {
		return truncate(strings.TrimSpace(strings.Join(sentences, " ")), maxDescriptionLen)
	}
	return ""
}

var institutionRe = regexp.MustCompile(`(?m)(?:[A-Z][A-Za-z&.,'\- ]{1,80}(?:University|College|Institute|School|Academy)(?:\sof\s[A-Z][A-Za-z ]{1,40})?)|(?:[^\s、。,]{1,30}(?:大学院|大学|高等学校|高校|専門学校|短期大学))`)

var degreeRe = regexp.MustCompile(`(?i)\b(?:Bachelor(?:'s)?|Master(?:'s)?|Ph\.?D|Doctorate|B\.?Sc?|M\.?Sc?|B\.?A|M\.?A|B\.?E|M\.?E|MBA|Associate(?:'s)?)\b[^\n,;、]{0,60}|学士|修士|博士`)

var fieldOfStudyRe = regexp.MustCompile(`(?i)(?:major(?:ing)?\s+in|degree\s+in|\bin)\s+([A-Z][A-Za-z& ]{2,60})`)

var gradYearRe = regexp.MustCompile(`(?:19|20)\d{2}`)

// extractEducation works like extractExperience but anchored on
// institution keywords. When no education header exists it scans the
// document tail, where education is usually listed.
func extractEducation(text string) []types.Education {
	body := findSection(text, sectionEducation)
	if body == "" {
		// Education is typically the last section even when its
		// header went unrecognized.
		tail := text
		if len(tail) > educationTailSize {
			tail = tail[len(tail)-educationTailSize:]
		}
		body = tail
	}

	matches := institutionRe.FindAllStringIndex(body, 10)
	if matches == nil {
		return []types.Education{}
	}

	var entries []types.Education
	seen := map[string]bool{}
	for i, loc := range matches {
		institution := strings.Trim(body[loc[0]:loc[1]], " \t\n.,")
		if seen[institution] {
			continue
		}
		seen[institution] = true

		end := len(body)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		chunk := body[loc[0]:end]

		entry := types.Education{
			Institution: truncate(institution, maxInstitutionLen),
			Degree:      "N/A",
			Field:       "N/A",
			Year:        "N/A",
		}
		if m := degreeRe.FindString(chunk); m != "" {
			entry.Degree = truncate(strings.TrimSpace(m), maxDegreeLen)
		}
		if m := fieldOfStudyRe.FindStringSubmatch(chunk); m != nil {
			entry.Field = strings.TrimSpace(m[1])
		}
		if m := gradYearRe.FindString(chunk); m != "" {
			entry.Year = m
		}
		entries = append(entries, entry)
	}
	return entries
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
