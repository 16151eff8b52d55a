// Package normalizer provides pure canonicalization helpers for phone
// numbers, dates, names, and raw resume text in English and Japanese.
// All functions are side-effect free and never panic; unusable input
// yields an empty result instead of an error.
package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	nonDigitRe = regexp.MustCompile(`\D`)

	// Japanese imperial era dates, e.g. 平成3年4月1日.
	eraDateRe = regexp.MustCompile(`(令和|平成|昭和)\s*(\d{1,2})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日?`)

	// Gregorian Japanese-style dates, e.g. 1990年4月1日.
	kanjiDateRe = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日?`)

	numericDateRe = regexp.MustCompile(`\b((?:19|20)\d{2})[-/.](\d{1,2})[-/.](\d{1,2})\b`)

	zeroWidthRe = regexp.MustCompile(`[\x{200b}\x{200c}\x{200d}\x{2060}\x{feff}]`)

	honorificPrefixRe = regexp.MustCompile(`(?i)^(mr|mrs|ms|miss|dr|prof)\.?\s+`)
	honorificSuffixRe = regexp.MustCompile(`(様|さん|氏|君)$`)
	academicSuffixRe  = regexp.MustCompile(`(?i)[,，]?\s*(ph\.?d\.?|m\.?d\.?|mba|m\.?sc\.?|b\.?sc\.?|esq\.?)$`)
	parentheticalRe   = regexp.MustCompile(`[（(][^）)]*[）)]`)
	whitespaceRe      = regexp.MustCompile(`\s+`)
)

// Era year offsets: era year N corresponds to Gregorian N + offset.
var eraOffsets = map[string]int{
	"令和": 2018,
	"平成": 1988,
	"昭和": 1925,
}

// dateLayouts tried in order for Western-style date strings. Day-first
// comes before month-first because the resumes this tool sees are
// mostly non-US.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"02/01/2006",
	"01/02/2006",
	"02-01-2006",
	"02.01.2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

const (
	minAge = 18
	maxAge = 70
)

// StandardizePhone canonicalizes a phone number string. The number
// class is detected from digit count and prefix: Japanese mobile
// (090-1234-5678), Japanese landline (03-1234-5678 / 0xx-xxx-xxxx),
// US domestic ((123) 456-7890), US with country code
// (+1 (123) 456-7890), or a generic dash-grouped run. Returns false
// when fewer than 7 digits remain after cleaning.
func StandardizePhone(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	digits := nonDigitRe.ReplaceAllString(norm.NFKC.String(raw), "")

	// Fold the +81 country code onto a domestic leading zero.
	if (len(digits) == 11 || len(digits) == 12) && strings.HasPrefix(digits, "81") && !strings.HasPrefix(digits, "810") {
		digits = "0" + digits[2:]
	}

	switch {
	case len(digits) == 11 && jpMobilePrefix(digits):
		return digits[:3] + "-" + digits[3:7] + "-" + digits[7:], true
	case len(digits) == 10 && digits[0] == '0':
		// Two-digit area codes for the largest cities, three-digit
		// otherwise.
		if digits[1] == '3' || digits[1] == '6' {
			return digits[:2] + "-" + digits[2:6] + "-" + digits[6:], true
		}
		return digits[:3] + "-" + digits[3:6] + "-" + digits[6:], true
	case len(digits) == 10:
		return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:]), true
	case len(digits) == 11 && digits[0] == '1':
		return fmt.Sprintf("+1 (%s) %s-%s", digits[1:4], digits[4:7], digits[7:]), true
	case len(digits) >= 10:
		head := digits[:len(digits)-7]
		return head + "-" + digits[len(digits)-7:len(digits)-4] + "-" + digits[len(digits)-4:], true
	case len(digits) >= 7:
		return digits, true
	default:
		return "", false
	}
}

func jpMobilePrefix(digits string) bool {
	if digits[0] != '0' || digits[2] != '0' {
		return false
	}
	switch digits[1] {
	case '5', '7', '8', '9':
		return true
	}
	return false
}

// StandardizeDate canonicalizes a birth date string to YYYY-MM-DD.
// Accepts ISO, slash, dot, dash, written-month, Japanese 年月日, and
// Japanese era (令和/平成/昭和) forms. Dates implying an age outside
// [18,70] at the current time are rejected.
func StandardizeDate(raw string) (string, bool) {
	return standardizeDateAt(raw, time.Now())
}

func standardizeDateAt(raw string, now time.Time) (string, bool) {
	s := strings.TrimSpace(norm.NFKC.String(raw))
	if s == "" {
		return "", false
	}

	if m := eraDateRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[2])
		month, _ := strconv.Atoi(m[3])
		day, _ := strconv.Atoi(m[4])
		return buildDate(year+eraOffsets[m[1]], month, day, now)
	}

	if m := kanjiDateRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return buildDate(year, month, day, now)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return buildDate(t.Year(), int(t.Month()), t.Day(), now)
		}
	}

	// Last resort: pull the first plausible numeric date out of a
	// longer string.
	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return buildDate(year, month, day, now)
	}

	return "", false
}

func buildDate(year, month, day int, now time.Time) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	dob := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Round-trip catches impossible dates like Feb 30.
	if dob.Year() != year || int(dob.Month()) != month || dob.Day() != day {
		return "", false
	}

	age := now.Year() - year
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < minAge || age > maxAge {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// CleanName strips honorific prefixes and suffixes, trailing academic
// titles, parenthesized furigana, and collapses whitespace.
func CleanName(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "　", " ")
	s = parentheticalRe.ReplaceAllString(s, " ")
	s = honorificPrefixRe.ReplaceAllString(s, "")
	s = academicSuffixRe.ReplaceAllString(s, "")
	s = honorificSuffixRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeText prepares raw extracted document text for pattern
// matching: removes zero-width marks and null bytes, applies NFKC
// compatibility normalization (folding full-width digits and
// punctuation to half-width), unifies line endings, and collapses
// runs of blank lines.
func NormalizeText(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.ReplaceAll(raw, "\x00", "")
	s = zeroWidthRe.ReplaceAllString(s, "")
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	// PDF extraction tends to leave stray mid-line ideographic commas
	// where list bullets were.
	s = strings.ReplaceAll(s, "・ ", "・")

	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
