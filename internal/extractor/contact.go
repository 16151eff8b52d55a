package extractor

import (
	"regexp"
	"strings"

	"resume-extract-go/internal/normalizer"
)

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// Phone candidate patterns, high precision first.
var phonePatterns = []*regexp.Regexp{
	// Parenthesized US area code.
	regexp.MustCompile(`\(\d{3}\)[ \t]*\d{3}[-. ]?\d{4}`),
	// Dashed or spaced groups, optional country code.
	regexp.MustCompile(`\+?\d{1,4}[-. ]\d{2,4}[-. ]\d{3,4}(?:[-. ]\d{3,4})?`),
	// Labeled number, any shape after the label.
	regexp.MustCompile(`(?i)(?:phone|tel|mobile|cell|電話(?:番号)?|携帯)[ \t]*[:：]?[ \t]*([+\d][\d\-. ()]{6,})`),
	// Generic digit run.
	regexp.MustCompile(`\+?\d[\d\-. ()]{8,}\d`),
}

var dobLabelRe = regexp.MustCompile(`(?i)(?:date[ \t]+of[ \t]+birth|birth[ \t]*date|d\.?o\.?b\.?|生年月日|誕生日)[ \t]*[:：]?[ \t]*([^\n]{4,40})`)

var dobCandidateRes = []*regexp.Regexp{
	regexp.MustCompile(`(令和|平成|昭和)\s*\d{1,2}\s*年\s*\d{1,2}\s*月\s*\d{1,2}\s*日?`),
	regexp.MustCompile(`\d{4}\s*年\s*\d{1,2}\s*月\s*\d{1,2}\s*日?`),
	regexp.MustCompile(`\b(?:19|20)\d{2}[-/.]\d{1,2}[-/.]\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}[-/.]\d{1,2}[-/.](?:19|20)\d{2}\b`),
	regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2},?\s+(?:19|20)\d{2}\b`),
}

var nameLabelRe = regexp.MustCompile(`(?im)^[ \t]*(?:name|full[ \t]+name|氏名|名前|お名前)[ \t]*[:：][ \t]*(.+)$`)

var locationLabelRe = regexp.MustCompile(`(?im)^[ \t]*(?:address|location|city|現住所|住所|所在地)[ \t]*[:：][ \t]*(.+)$`)

// Tokens that disqualify a line from being a person's name.
var nameBlacklist = map[string]bool{
	"resume": true, "curriculum": true, "vitae": true, "profile": true,
	"summary": true, "objective": true, "contact": true, "address": true,
	"phone": true, "email": true, "experience": true, "education": true,
	"skills": true, "engineer": true, "developer": true, "manager": true,
	"director": true, "consultant": true, "analyst": true, "designer": true,
	"architect": true, "specialist": true, "senior": true, "junior": true,
	"software": true, "professional": true, "references": true, "page": true,
	"履歴書": true, "職務経歴書": true, "株式会社": true,
}

var (
	englishNameRe  = regexp.MustCompile(`^[A-Za-z][A-Za-z .'\-]+$`)
	japaneseNameRe = regexp.MustCompile(`^[\p{Han}\p{Hiragana}\p{Katakana}ー・　 ]{2,20}$`)
	allUpperRe     = regexp.MustCompile(`^[A-Z .'\-]+$`)
	digitLineRe    = regexp.MustCompile(`^[ \t]*(\d)[ \t]*$`)
)

// extractEmail returns the first email in text, lowercased, with its
// byte offset, or ("", -1).
func extractEmail(text string) (string, int) {
	loc := emailRe.FindStringIndex(text)
	if loc == nil {
		return "", -1
	}
	return strings.ToLower(text[loc[0]:loc[1]]), loc[0]
}

// extractPhone searches the window around the email anchor first, then
// the whole text. Candidates are validated by digit count and a
// repeated-digit check before normalization.
func extractPhone(text string, emailIdx, window int) string {
	if emailIdx >= 0 {
		lo := emailIdx - window
		if lo < 0 {
			lo = 0
		}
		hi := emailIdx + window
		if hi > len(text) {
			hi = len(text)
		}
		if phone := phoneFromPatterns(text[lo:hi]); phone != "" {
			return phone
		}
	}
	return phoneFromPatterns(text)
}

func phoneFromPatterns(text string) string {
	for _, re := range phonePatterns {
		for _, m := range re.FindAllStringSubmatch(text, 5) {
			candidate := m[0]
			if len(m) > 1 && m[1] != "" {
				candidate = m[1]
			}
			if !validPhoneCandidate(candidate) {
				continue
			}
			if phone, ok := normalizer.StandardizePhone(candidate); ok {
				return phone
			}
		}
	}
	return ""
}

func validPhoneCandidate(candidate string) bool {
	digits := nonDigitRe.ReplaceAllString(candidate, "")
	if len(digits) < 10 || len(digits) > 15 {
		return false
	}
	// Uniform runs like 1111111111 are page artifacts, not numbers.
	first := digits[0]
	for i := 1; i < len(digits); i++ {
		if digits[i] != first {
			return true
		}
	}
	return false
}

var nonDigitRe = regexp.MustCompile(`\D`)

// extractDOB looks for a birth date inside the contact window around
// the anchor (email or phone position) when one exists, otherwise the
// whole text. Every candidate passes through date standardization,
// which enforces the plausible-age window.
func extractDOB(text string, anchorIdx, window int) string {
	scope := text
	if anchorIdx >= 0 {
		lo := anchorIdx - window
		if lo < 0 {
			lo = 0
		}
		hi := anchorIdx + window
		if hi > len(text) {
			hi = len(text)
		}
		scope = text[lo:hi]
	}

	if m := dobLabelRe.FindStringSubmatch(scope); m != nil {
		if date, ok := normalizer.StandardizeDate(m[1]); ok {
			return date
		}
	}
	for _, re := range dobCandidateRes {
		for _, m := range re.FindAllString(scope, 5) {
			if date, ok := normalizer.StandardizeDate(m); ok {
				return date
			}
		}
	}
	return ""
}

// extractName tries three strategies in order: explicit label, a scan
// of the first ten lines, and the line immediately preceding the email
// match. The first validated candidate wins.
func extractName(text string, emailIdx int) string {
	if m := nameLabelRe.FindStringSubmatch(text); m != nil {
		if name := validateName(m[1]); name != "" {
			return name
		}
	}

	lines := strings.Split(text, "\n")
	limit := 10
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		if name := validateName(line); name != "" {
			return name
		}
	}

	if emailIdx > 0 {
		before := text[:emailIdx]
		if cut := len(before) - 200; cut > 0 {
			before = before[cut:]
		}
		prev := strings.Split(strings.TrimRight(before, "\n \t"), "\n")
		for i := len(prev) - 1; i >= 0 && i >= len(prev)-3; i-- {
			if name := validateName(prev[i]); name != "" {
				return name
			}
		}
	}
	return ""
}

// validateName returns the cleaned name when the candidate passes the
// shape and blacklist rules, otherwise empty.
func validateName(candidate string) string {
	s := normalizer.CleanName(candidate)
	if len(s) < 2 || len(s) > 50 {
		return ""
	}
	lower := strings.ToLower(s)
	for token := range nameBlacklist {
		if strings.Contains(lower, token) {
			return ""
		}
	}

	if japaneseNameRe.MatchString(s) {
		return s
	}
	if !englishNameRe.MatchString(s) {
		return ""
	}
	words := strings.Fields(s)
	if len(words) < 2 || len(words) > 4 {
		return ""
	}
	for _, w := range words {
		if w[0] < 'A' || w[0] > 'Z' {
			return ""
		}
		// All-caps words longer than an initialism are headers, not
		// names.
		if len(w) > 4 && allUpperRe.MatchString(w) {
			return ""
		}
	}
	return s
}

// extractLocation picks up an explicitly labeled address line.
func extractLocation(text string) string {
	m := locationLabelRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	loc := strings.TrimSpace(m[1])
	if len(loc) < 2 || len(loc) > 120 {
		return ""
	}
	return loc
}

// extractTableFields handles the tabular layout common in Japanese
// 履歴書 forms, where each header field sits on its own label row.
// Returns field name -> raw value for whatever labels were found.
func extractTableFields(text string) map[string]string {
	fields := map[string]string{}
	if m := nameLabelRe.FindStringSubmatch(text); m != nil {
		fields["name"] = strings.TrimSpace(m[1])
	}
	if m := dobLabelRe.FindStringSubmatch(text); m != nil {
		fields["date_of_birth"] = strings.TrimSpace(m[1])
	}
	if m := locationLabelRe.FindStringSubmatch(text); m != nil {
		fields["location"] = strings.TrimSpace(m[1])
	}
	return fields
}

// fixVerticalDigits reassembles phone numbers that PDF extraction
// split into one digit per line. Runs of seven or more single-digit
// lines are joined back into a single line.
func fixVerticalDigits(text string) string {
	lines := strings.Split(text, "\n")
	var out []string
	i := 0
	for i < len(lines) {
		j := i
		var digits []string
		for j < len(lines) {
			m := digitLineRe.FindStringSubmatch(lines[j])
			if m == nil {
				break
			}
			digits = append(digits, m[1])
			j++
		}
		if len(digits) >= 7 {
			out = append(out, strings.Join(digits, ""))
			i = j
			continue
		}
		out = append(out, lines[i])
		i++
	}
	return strings.Join(out, "\n")
}
