package extractor

import (
	"regexp"
	"strings"

	"resume-extract-go/internal/types"
)

const (
	maxHardSkills  = 30
	maxSoftSkills  = 20
	maxTotalSkills = 50
)

// hardSkillVocab lists technical terms, lowercased. Matching is by
// whole-token membership.
var hardSkillVocab = buildVocab(
	"python", "java", "javascript", "typescript", "go", "golang", "c", "c++",
	"c#", "ruby", "php", "swift", "kotlin", "scala", "rust", "perl", "r",
	"sql", "mysql", "postgresql", "postgres", "oracle", "sqlite", "mongodb",
	"redis", "elasticsearch", "cassandra", "dynamodb",
	"html", "css", "react", "vue", "angular", "svelte", "jquery", "node.js",
	"nodejs", "django", "flask", "rails", "spring", "laravel", "express",
	"docker", "kubernetes", "terraform", "ansible", "jenkins", "ci/cd",
	"aws", "azure", "gcp", "linux", "unix", "git", "svn", "bash", "shell",
	"excel", "powerpoint", "word", "access", "vba", "tableau", "power bi",
	"sap", "salesforce", "autocad", "photoshop", "illustrator", "figma",
	"machine learning", "deep learning", "data analysis", "data science",
	"tensorflow", "pytorch", "pandas", "numpy", "spark", "hadoop", "kafka",
	"grpc", "graphql", "rest", "api", "microservices", "networking",
	"security", "testing", "selenium", "junit", "pytest",
)

// softSkillVocab lists interpersonal terms, lowercased.
var softSkillVocab = buildVocab(
	"leadership", "communication", "teamwork", "collaboration",
	"problem solving", "problem-solving", "critical thinking",
	"time management", "adaptability", "flexibility", "creativity",
	"negotiation", "presentation", "mentoring", "coaching",
	"decision making", "decision-making", "organization", "multitasking",
	"customer service", "public speaking", "conflict resolution",
	"attention to detail", "analytical thinking", "interpersonal",
	"self-motivated", "work ethic", "empathy",
)

func buildVocab(terms ...string) map[string]bool {
	vocab := make(map[string]bool, len(terms))
	for _, t := range terms {
		vocab[t] = true
	}
	return vocab
}

var (
	bulletRe       = regexp.MustCompile(`^[\s]*[-•●○■□◆◇▪▸►*·・]+[\s]*`)
	numberPrefixRe = regexp.MustCompile(`^\s*\d+[.)]\s*`)
	pureNumberRe   = regexp.MustCompile(`^[\d.\s%]+$`)
	acronymRe      = regexp.MustCompile(`\b[A-Z]{2,}\b`)
	skillSplitRe   = regexp.MustCompile(`[\n,;、，；]| {3,}`)
)

// Section-header words that survive naive splitting and must not be
// treated as skills.
var skillStopwords = map[string]bool{
	"skills": true, "skill": true, "technical": true, "languages": true,
	"tools": true, "other": true, "and": true, "etc": true,
	"スキル": true, "技能": true, "その他": true,
}

// extractSkills isolates the skills section, splits it into tokens,
// and classifies each as hard or soft.
func extractSkills(text string) types.Skills {
	body := findSection(text, sectionSkills)
	if body == "" {
		return types.Skills{HardSkills: []string{}, SoftSkills: []string{}, Raw: []string{}}
	}
	return classifySkillTokens(splitSkillTokens(body))
}

// splitSkillTokens splits a skills section body on newlines, commas,
// semicolons, slashes, and wide gaps, cleaning each token.
func splitSkillTokens(body string) []string {
	var tokens []string
	seen := map[string]bool{}
	for _, part := range skillSplitRe.Split(body, -1) {
		token := cleanSkillToken(part)
		if token == "" {
			continue
		}
		key := strings.ToLower(token)
		if seen[key] {
			continue
		}
		seen[key] = true
		tokens = append(tokens, token)
		if len(tokens) >= maxTotalSkills {
			break
		}
	}
	return tokens
}

func cleanSkillToken(raw string) string {
	s := bulletRe.ReplaceAllString(raw, "")
	s = numberPrefixRe.ReplaceAllString(s, "")
	s = strings.Trim(s, " \t:：.()[]")
	if len(s) < 3 || len(s) > 80 {
		return ""
	}
	if pureNumberRe.MatchString(s) {
		return ""
	}
	if skillStopwords[strings.ToLower(s)] {
		return ""
	}
	return s
}

// classifySkillTokens buckets tokens into hard and soft skills using
// vocabulary membership. Unknown tokens default to hard when they look
// technical (acronym, digit, dot, or slash), soft otherwise.
func classifySkillTokens(tokens []string) types.Skills {
	skills := types.Skills{
		HardSkills: []string{},
		SoftSkills: []string{},
		Raw:        []string{},
	}
	for _, token := range tokens {
		skills.Raw = append(skills.Raw, token)
		switch {
		case isHardSkill(token):
			if len(skills.HardSkills) < maxHardSkills {
				skills.HardSkills = append(skills.HardSkills, token)
			}
		case isSoftSkill(token):
			if len(skills.SoftSkills) < maxSoftSkills {
				skills.SoftSkills = append(skills.SoftSkills, token)
			}
		case looksTechnical(token):
			if len(skills.HardSkills) < maxHardSkills {
				skills.HardSkills = append(skills.HardSkills, token)
			}
		default:
			if len(skills.SoftSkills) < maxSoftSkills {
				skills.SoftSkills = append(skills.SoftSkills, token)
			}
		}
	}
	return skills
}

func isHardSkill(token string) bool {
	return hardSkillVocab[strings.ToLower(token)]
}

func isSoftSkill(token string) bool {
	return softSkillVocab[strings.ToLower(token)]
}

func looksTechnical(token string) bool {
	if strings.ContainsAny(token, "0123456789./") {
		return true
	}
	return acronymRe.MatchString(token)
}
