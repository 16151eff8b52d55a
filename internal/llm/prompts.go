package llm

import (
	"fmt"
	"unicode/utf8"
)

const headerSystemPrompt = `You are a resume parsing assistant. You extract candidate contact fields from resume text. Respond with a single JSON object and nothing else: no explanations, no markdown fences.`

const headerUserTemplate = `Extract the following fields from the resume text below. Use null for anything you cannot find.

Required JSON keys:
  "name": the candidate's full name
  "email": email address
  "phone": phone number exactly as written
  "date_of_birth": birth date if present
  "location": city or address

Resume text:
%s`

const deepSystemPrompt = `You are a resume parsing assistant. You extract structured career data from resume text. Respond with a single JSON object and nothing else: no explanations, no markdown fences. Summarize descriptions in your own words, never copy long passages verbatim.`

const deepUserTemplate = `Extract the following from the resume text below. Use empty lists for sections you cannot find.

Required JSON keys:
  "hard_skills": list of technical skills
  "soft_skills": list of interpersonal skills
  "working_experience": list of objects with keys "company", "role", "duration", "description" (description at most 2 sentences)
  "education": list of objects with keys "institution", "degree", "field", "year"

Resume text:
%s`

// HeaderPrompt builds the small contact-fields prompt over a bounded
// prefix of the resume text, since header fields sit at the top.
func HeaderPrompt(text string, maxChars int) (system, user string) {
	if maxChars > 0 && len(text) > maxChars {
		cut := maxChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return headerSystemPrompt, fmt.Sprintf(headerUserTemplate, text)
}

// DeepPrompt builds the full-text prompt for skills, experience, and
// education.
func DeepPrompt(text string) (system, user string) {
	return deepSystemPrompt, fmt.Sprintf(deepUserTemplate, text)
}
