package repair

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONFromFence(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"name\": \"John Smith\"}\n```\nDone."
	assert.Equal(t, `{"name": "John Smith"}`, ExtractJSON(raw))
}

func TestExtractJSONBalancedSpan(t *testing.T) {
	raw := `The extracted fields are {"name": "Jane", "meta": {"ok": true}} as requested.`
	assert.Equal(t, `{"name": "Jane", "meta": {"ok": true}}`, ExtractJSON(raw))
}

func TestExtractJSONNoObject(t *testing.T) {
	assert.Empty(t, ExtractJSON("sorry, I could not process this resume"))
}

func TestParseHeaderCleanJSON(t *testing.T) {
	raw := `{"name": "John Smith", "email": "John@Acme.COM", "phone": "090-1234-5678", "date_of_birth": "1990-04-01", "location": "Tokyo"}`
	h := ParseHeader(raw)

	assert.Equal(t, "John Smith", h.Name)
	assert.Equal(t, "john@acme.com", h.Email, "email is case-folded")
	assert.Equal(t, "090-1234-5678", h.Phone)
	assert.Equal(t, "1990-04-01", h.DateOfBirth)
	assert.Equal(t, "Tokyo", h.Location)
}

func TestParseHeaderFieldRegexFallback(t *testing.T) {
	// Broken JSON (trailing comma inside, unbalanced) forces the
	// field-by-field ladder stage.
	raw := `the model says "name": "Taro Tanaka", and also "email": "taro@example.jp", trailing junk`
	h := ParseHeader(raw)

	assert.Equal(t, "Taro Tanaka", h.Name)
	assert.Equal(t, "taro@example.jp", h.Email)
}

func TestParseHeaderSentinelValuesDropped(t *testing.T) {
	raw := `{"name": "Unknown", "email": "N/A", "phone": "null"}`
	h := ParseHeader(raw)

	assert.Empty(t, h.Name)
	assert.Empty(t, h.Email)
	assert.Empty(t, h.Phone)
}

func TestParseDeepStringSkillsCoerced(t *testing.T) {
	raw := `{"hard_skills": "• Python\n• SQL, Docker", "soft_skills": ["Leadership", "- Teamwork"]}`
	deep := ParseDeep(raw)

	assert.Equal(t, []string{"Python", "SQL", "Docker"}, deep.HardSkills)
	assert.Equal(t, []string{"Leadership", "Teamwork"}, deep.SoftSkills)
}

func TestParseDeepBareSkillsKey(t *testing.T) {
	raw := `{"skills": ["Python", "Kubernetes"]}`
	deep := ParseDeep(raw)

	assert.Equal(t, []string{"Python", "Kubernetes"}, deep.HardSkills)
}

func TestParseDeepSkillLengthBounds(t *testing.T) {
	long := strings.Repeat("x", 120)
	raw := `{"hard_skills": ["Go", "ab", "SQL", "` + long + `"]}`
	deep := ParseDeep(raw)

	// Items must be longer than 2 and shorter than 100 characters.
	assert.Equal(t, []string{"SQL"}, deep.HardSkills)
}

func TestParseDeepExperienceEntriesNeverDropped(t *testing.T) {
	raw := `{"working_experience": [
		{"company": "Acme Inc.", "role": "Engineer", "duration": "2018-2021", "description": "Built things"},
		{"company": "Globex"},
		{"role": "Analyst"}
	]}`
	deep := ParseDeep(raw)

	require.Len(t, deep.WorkingExperience, 3)
	assert.Equal(t, "Acme Inc.", deep.WorkingExperience[0].Company)
	assert.Equal(t, "Globex", deep.WorkingExperience[1].Company)
	assert.Equal(t, "See Description", deep.WorkingExperience[1].Role, "missing keys get sentinels")
	assert.Equal(t, "N/A", deep.WorkingExperience[1].Duration)
	assert.Equal(t, "Unknown", deep.WorkingExperience[2].Company)
}

func TestSegmentExperienceDump(t *testing.T) {
	dump := "Worked for many years.\n" +
		"Northwind Ltd.\nSenior Engineer on the platform team\n2015年 - 2019年\nBuilt the core systems.\n" +
		"Contoso Inc.\nManager\nLed a team of eight people."
	raw := `{"working_experience": "` + strings.ReplaceAll(dump, "\n", `\n`) + `"}`
	deep := ParseDeep(raw)

	require.GreaterOrEqual(t, len(deep.WorkingExperience), 2, "each company suffix line starts a segment")
	assert.Equal(t, "Northwind Ltd", deep.WorkingExperience[0].Company)
	assert.Contains(t, deep.WorkingExperience[0].Role, "Engineer")
	assert.NotEqual(t, "N/A", deep.WorkingExperience[0].Duration)
	assert.Equal(t, "Contoso Inc", deep.WorkingExperience[1].Company)
}

func TestSegmentExperienceDumpNoAnchors(t *testing.T) {
	raw := `{"working_experience": "did a lot of freelance work over the years with no formal employer names"}`
	deep := ParseDeep(raw)

	require.Len(t, deep.WorkingExperience, 1)
	assert.Equal(t, "Unknown", deep.WorkingExperience[0].Company)
	assert.Equal(t, "See Description", deep.WorkingExperience[0].Role)
	assert.Contains(t, deep.WorkingExperience[0].Description, "freelance")
}

func TestRepairEducationStringCoercion(t *testing.T) {
	raw := `{"education": "Tokyo University\nStanford University"}`
	deep := ParseDeep(raw)

	require.Len(t, deep.Education, 2)
	assert.Equal(t, "Tokyo University", deep.Education[0].Institution)
	assert.Equal(t, "N/A", deep.Education[0].Degree)
}

func TestParseDeepGarbageYieldsEmpty(t *testing.T) {
	deep := ParseDeep("complete nonsense with no structure at all")
	assert.True(t, deep.Empty())
	assert.NotNil(t, deep.HardSkills, "lists are non-nil even when empty")
	assert.NotNil(t, deep.WorkingExperience)
}

func TestValidateDeepExtraction(t *testing.T) {
	longDesc := strings.Repeat("x", 1100)
	raw := `{"working_experience": [{"company": "A", "description": "` + longDesc + `"}]}`
	deep := ParseDeep(raw)

	warnings := ValidateDeepExtraction(raw, deep)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "1000 chars")

	// The entry itself was still repaired and truncated.
	require.Len(t, deep.WorkingExperience, 1)
	assert.LessOrEqual(t, len(deep.WorkingExperience[0].Description), 400)
}

func TestValidateDeepExtractionTextDump(t *testing.T) {
	raw := strings.Repeat("resume text ", 500)
	warnings := ValidateDeepExtraction(raw, DeepFields{})
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[len(warnings)-1], "text-dump")
}
