package extractor

import "regexp"

// section identifies a resume section the extractor can isolate.
type section int

const (
	sectionSkills section = iota
	sectionExperience
	sectionEducation
)

// Header patterns per section, tried in priority order; the first
// pattern with a match wins. English and Japanese synonyms are listed
// together since documents mix both.
var sectionHeaderPatterns = map[section][]*regexp.Regexp{
	sectionSkills: {
		regexp.MustCompile(`(?im)^[ \t]*(?:technical[ \t]+skills|core[ \t]+competenc\w+)[ \t:：]*$`),
		regexp.MustCompile(`(?im)^[ \t]*skills?(?:[ \t]*(?:&|and)[ \t]*(?:abilities|expertise|tools))?[ \t:：]*$`),
		regexp.MustCompile(`(?im)^[ \t]*(?:programming[ \t]+languages|technologies)[ \t:：]*$`),
		regexp.MustCompile(`(?m)^[ \t]*(?:スキル|技能|保有スキル|テクニカルスキル|資格・スキル)[ \t:：]*$`),
	},
	sectionExperience: {
		regexp.MustCompile(`(?im)^[ \t]*(?:work|professional|employment)[ \t]+(?:experience|history)[ \t:：]*$`),
		regexp.MustCompile(`(?im)^[ \t]*(?:experience|career[ \t]+(?:history|summary)?)[ \t:：]*$`),
		regexp.MustCompile(`(?m)^[ \t]*(?:職歴|職務経歴|業務経歴)[ \t:：]*$`),
	},
	sectionEducation: {
		regexp.MustCompile(`(?im)^[ \t]*(?:education(?:al)?(?:[ \t]+background)?|academic[ \t]+(?:background|history))[ \t:：]*$`),
		regexp.MustCompile(`(?im)^[ \t]*qualifications?[ \t:：]*$`),
		regexp.MustCompile(`(?m)^[ \t]*(?:学歴|最終学歴)[ \t:：]*$`),
	},
}

// anyHeaderPatterns is the union used to find where a section body ends.
var anyHeaderPatterns = func() []*regexp.Regexp {
	var all []*regexp.Regexp
	for _, list := range sectionHeaderPatterns {
		all = append(all, list...)
	}
	// Headers that terminate a section without being extraction
	// targets themselves.
	all = append(all,
		regexp.MustCompile(`(?im)^[ \t]*(?:summary|objective|profile|projects?|certifications?|awards?|references?|languages?|interests?|hobbies)[ \t:：]*$`),
		regexp.MustCompile(`(?m)^[ \t]*(?:自己PR|志望動機|本人希望|通勤時間|扶養家族|趣味|特技|免許)[ \t:：]*$`),
	)
	return all
}()

// findSection returns the body of the requested section: the text
// between the first matching header and the next recognized header or
// end of text. Empty string when no header matches.
func findSection(text string, kind section) string {
	for _, re := range sectionHeaderPatterns[kind] {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		body := text[loc[1]:]
		if end := nextHeaderIndex(body); end >= 0 {
			body = body[:end]
		}
		return body
	}
	return ""
}

// nextHeaderIndex finds the earliest position of any recognized
// section header in text, or -1.
func nextHeaderIndex(text string) int {
	earliest := -1
	for _, re := range anyHeaderPatterns {
		loc := re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		// A header at offset zero is leftover from the header line we
		// just matched; skip past leading newlines before comparing.
		if loc[0] == 0 && loc[1] < len(text) {
			continue
		}
		if earliest < 0 || loc[0] < earliest {
			earliest = loc[0]
		}
	}
	return earliest
}
