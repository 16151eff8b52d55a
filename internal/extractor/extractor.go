// Package extractor produces a best-effort baseline record from raw
// resume text using only deterministic string matching. It performs no
// network or inference calls, so its output is always available and
// identical for identical input.
package extractor

import (
	"strings"

	"resume-extract-go/internal/logger"
	"resume-extract-go/internal/normalizer"
	"resume-extract-go/internal/types"
)

// Options tunes the contact-window sizes used for anchored searches.
type Options struct {
	// PhoneWindow is the character span around the email match
	// searched for a phone number before falling back to full text.
	PhoneWindow int
	// DOBWindow is the character span around the contact anchor
	// searched for a birth date.
	DOBWindow int
}

// DefaultOptions returns the standard window sizes.
func DefaultOptions() Options {
	return Options{PhoneWindow: 300, DOBWindow: 500}
}

// Extractor is the deterministic pattern-extraction stage.
type Extractor struct {
	opts Options
}

// New creates an Extractor. Zero window values fall back to defaults.
func New(opts Options) *Extractor {
	defaults := DefaultOptions()
	if opts.PhoneWindow <= 0 {
		opts.PhoneWindow = defaults.PhoneWindow
	}
	if opts.DOBWindow <= 0 {
		opts.DOBWindow = defaults.DOBWindow
	}
	return &Extractor{opts: opts}
}

// Extract runs all field extractors over the text and returns the
// pattern baseline. Fields that could not be found stay empty; the
// record shape is always complete.
func (e *Extractor) Extract(text string) *types.ResumeRecord {
	record := types.NewResumeRecord("")

	text = normalizer.NormalizeText(text)
	text = fixVerticalDigits(text)
	if strings.TrimSpace(text) == "" {
		return record
	}

	// Tabular label rows (Japanese 履歴書 layouts) are the cheapest
	// and most reliable signal, so they are consulted first.
	table := extractTableFields(text)

	email, emailIdx := extractEmail(text)
	if email != "" {
		record.Email = email
		record.SetSource("email", types.SourceRegex)
	}

	phone := extractPhone(text, emailIdx, e.opts.PhoneWindow)
	if phone != "" {
		record.Phone = phone
		record.SetSource("phone", types.SourceRegex)
	}

	anchorIdx := emailIdx
	if anchorIdx < 0 && phone != "" {
		anchorIdx = strings.Index(text, phone)
	}
	if dob := extractDOB(text, anchorIdx, e.opts.DOBWindow); dob != "" {
		record.DateOfBirth = dob
		record.SetSource("date_of_birth", types.SourceRegex)
	} else if raw, ok := table["date_of_birth"]; ok {
		if dob, ok := normalizer.StandardizeDate(raw); ok {
			record.DateOfBirth = dob
			record.SetSource("date_of_birth", types.SourceRegex)
		}
	}

	if raw, ok := table["name"]; ok {
		if name := validateName(raw); name != "" {
			record.Name = name
			record.SetSource("name", types.SourceRegex)
		}
	}
	if record.Name == "" {
		if name := extractName(text, emailIdx); name != "" {
			record.Name = name
			record.SetSource("name", types.SourceRegex)
		}
	}

	if loc := extractLocation(text); loc != "" {
		record.Location = loc
		record.SetSource("location", types.SourceRegex)
	}

	record.Skills = extractSkills(text)
	if len(record.Skills.Raw) > 0 {
		record.SetSource("skills", types.SourceRegex)
	}

	record.WorkingExperience = extractExperience(text)
	if len(record.WorkingExperience) > 0 {
		record.SetSource("working_experience", types.SourceRegex)
	}

	record.Education = extractEducation(text)
	if len(record.Education) > 0 {
		record.SetSource("education", types.SourceRegex)
	}

	logger.Debug().
		Str("email", record.Email).
		Int("skills", len(record.Skills.Raw)).
		Int("jobs", len(record.WorkingExperience)).
		Int("education", len(record.Education)).
		Msg("pattern extraction complete")

	return record
}
