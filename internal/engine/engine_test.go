package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-extract-go/internal/types"
)

// stubInferencer returns canned responses keyed by prompt kind.
type stubInferencer struct {
	available  bool
	headerResp string
	deepResp   string
	err        error
	calls      int
}

func (s *stubInferencer) Infer(ctx context.Context, system, user string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if strings.Contains(system, "contact fields") {
		return s.headerResp, nil
	}
	return s.deepResp, nil
}

func (s *stubInferencer) Probe(ctx context.Context) bool {
	return s.available
}

const simpleResume = "John Smith\nEmail: john@acme.com\nPhone: (415) 555-0132\nSKILLS\nPython, Leadership\n"

func TestPatternOnlyWhenInferencerNil(t *testing.T) {
	e := New(DefaultConfig(), nil)
	record := e.Extract(context.Background(), simpleResume)
	require.NotNil(t, record)

	assert.Equal(t, "John Smith", record.Name)
	assert.Equal(t, "john@acme.com", record.Email)
	assert.Equal(t, "(415) 555-0132", record.Phone)
	assert.Equal(t, []string{"Python"}, record.Skills.HardSkills)
	assert.Equal(t, []string{"Leadership"}, record.Skills.SoftSkills)
	assert.False(t, record.AIEnhanced)
}

func TestPatternOnlyWhenBackendUnavailable(t *testing.T) {
	stub := &stubInferencer{available: false}
	e := New(DefaultConfig(), stub)
	record := e.Extract(context.Background(), simpleResume)

	assert.Equal(t, 0, stub.calls, "unavailable backend must never be called")
	assert.False(t, record.AIEnhanced)
}

func TestHeaderMergePatternWins(t *testing.T) {
	stub := &stubInferencer{
		available:  true,
		headerResp: `{"name": "Wrong Person", "email": "filled@example.com", "date_of_birth": "1990-04-01"}`,
		deepResp:   `{}`,
	}
	cfg := DefaultConfig()
	cfg.Policy = PolicyAlways
	e := New(cfg, stub)

	// Pattern finds the name but not the email.
	record := e.Extract(context.Background(), "Jane Doe\nSKILLS\nPython, SQL, Docker, Leadership\n")

	assert.Equal(t, "Jane Doe", record.Name, "pattern value wins for header fields")
	assert.Equal(t, "filled@example.com", record.Email, "inferred value fills the gap")
	assert.Equal(t, "1990-04-01", record.DateOfBirth)
	assert.Equal(t, types.SourceRegex, record.Sources["name"])
	assert.Equal(t, types.SourceInferred, record.Sources["email"])
	assert.True(t, record.AIEnhanced)
}

func TestDeepMergeInferredOverrides(t *testing.T) {
	stub := &stubInferencer{
		available:  true,
		headerResp: `{}`,
		deepResp:   `{"hard_skills": ["Python", "SQL"], "soft_skills": ["Mentoring"]}`,
	}
	cfg := DefaultConfig()
	cfg.Policy = PolicyAlways
	e := New(cfg, stub)

	record := e.Extract(context.Background(), "Jane Doe\nSKILLS\nExcel\n")

	assert.Equal(t, []string{"Python", "SQL"}, record.Skills.HardSkills,
		"non-empty inferred result overrides the pattern result for deep fields")
	assert.Equal(t, []string{"Mentoring"}, record.Skills.SoftSkills)
	assert.Equal(t, types.SourceInferred, record.Sources["skills"])
}

func TestDeepMergeKeepsPatternWhenInferenceEmpty(t *testing.T) {
	stub := &stubInferencer{available: true, headerResp: `{}`, deepResp: `garbage, no json here`}
	cfg := DefaultConfig()
	cfg.Policy = PolicyAlways
	e := New(cfg, stub)

	record := e.Extract(context.Background(), simpleResume)

	assert.Equal(t, []string{"Python"}, record.Skills.HardSkills)
	assert.Equal(t, types.SourceRegex, record.Sources["skills"])
}

func TestInferredPhoneNotRenormalized(t *testing.T) {
	stub := &stubInferencer{
		available:  true,
		headerResp: `{"phone": "090 1234 5678"}`,
		deepResp:   `{}`,
	}
	cfg := DefaultConfig()
	cfg.Policy = PolicyAlways
	e := New(cfg, stub)

	record := e.Extract(context.Background(), "Jane Doe\nSKILLS\nPython, SQL, Docker, Leadership\n")

	assert.Equal(t, "090 1234 5678", record.Phone, "inference-sourced phone is stored as returned")
	assert.Equal(t, types.SourceInferred, record.Sources["phone"])
}

func TestInferredDOBStandardized(t *testing.T) {
	stub := &stubInferencer{
		available:  true,
		headerResp: `{"date_of_birth": "平成2年4月1日"}`,
		deepResp:   `{}`,
	}
	cfg := DefaultConfig()
	cfg.Policy = PolicyAlways
	e := New(cfg, stub)

	record := e.Extract(context.Background(), "Jane Doe\n")

	assert.Equal(t, "1990-04-01", record.DateOfBirth,
		"birth date is re-standardized regardless of source")
}

func TestImplausibleInferredDOBDropped(t *testing.T) {
	stub := &stubInferencer{
		available:  true,
		headerResp: `{"date_of_birth": "2024-01-01"}`,
		deepResp:   `{}`,
	}
	cfg := DefaultConfig()
	cfg.Policy = PolicyAlways
	e := New(cfg, stub)

	record := e.Extract(context.Background(), "Jane Doe\n")

	assert.Empty(t, record.DateOfBirth)
	assert.NotContains(t, record.Sources, "date_of_birth")
}

func TestInferenceErrorDegradesToPatternOnly(t *testing.T) {
	stub := &stubInferencer{available: true, err: errors.New("backend exploded")}
	cfg := DefaultConfig()
	cfg.Policy = PolicyAlways
	e := New(cfg, stub)

	var record *types.ResumeRecord
	assert.NotPanics(t, func() {
		record = e.Extract(context.Background(), simpleResume)
	})
	assert.Equal(t, "John Smith", record.Name)
	assert.False(t, record.AIEnhanced)
}

func TestOnDeficiencyPolicySkipsCompleteBaseline(t *testing.T) {
	stub := &stubInferencer{available: true, headerResp: `{}`, deepResp: `{}`}
	cfg := DefaultConfig()
	cfg.Policy = PolicyOnDeficiency
	cfg.MinSkills = 2
	e := New(cfg, stub)

	complete := "John Smith\nEmail: john@acme.com\nPhone: (415) 555-0132\n" +
		"Date of Birth: 1990-04-01\nSKILLS\nPython, SQL, Leadership\n"
	e.Extract(context.Background(), complete)

	assert.Equal(t, 0, stub.calls, "complete baseline must not trigger inference")
}

func TestOnDeficiencyPolicyTriggersOnMissingField(t *testing.T) {
	stub := &stubInferencer{available: true, headerResp: `{}`, deepResp: `{}`}
	cfg := DefaultConfig()
	cfg.Policy = PolicyOnDeficiency
	e := New(cfg, stub)

	e.Extract(context.Background(), "SKILLS\nPython, SQL, Docker, Leadership\n")

	assert.Equal(t, 2, stub.calls, "missing name/email must trigger both inference calls")
}

func TestExtractEmptyInputFullyShaped(t *testing.T) {
	e := New(DefaultConfig(), nil)
	record := e.Extract(context.Background(), "")
	require.NotNil(t, record)

	assert.NotNil(t, record.Skills.HardSkills)
	assert.NotNil(t, record.Skills.SoftSkills)
	assert.NotNil(t, record.WorkingExperience)
	assert.NotNil(t, record.Education)
	assert.Equal(t, types.StatusFailed, record.Status)
}

func TestExtractIdempotent(t *testing.T) {
	stub := &stubInferencer{
		available:  true,
		headerResp: `{"email": "x@y.com"}`,
		deepResp:   `{"hard_skills": ["Go"]}`,
	}
	cfg := DefaultConfig()
	cfg.Policy = PolicyAlways
	e := New(cfg, stub)

	a := e.Extract(context.Background(), simpleResume)
	b := e.Extract(context.Background(), simpleResume)

	assert.Equal(t, a.Name, b.Name)
	assert.Equal(t, a.Email, b.Email)
	assert.Equal(t, a.Skills, b.Skills)
	assert.Equal(t, a.Sources, b.Sources)
}

func TestEmergencyContactScan(t *testing.T) {
	// Odd formatting keeps the strict email pattern from matching is
	// hard to stage; instead verify the scan itself.
	e := New(DefaultConfig(), nil)
	record := types.NewResumeRecord("")
	e.emergencyContactScan(record, "reach me at JANE(at)... no wait: jane@late-addendum.io or 090-1234-5678")

	assert.Equal(t, "jane@late-addendum.io", record.Email)
	assert.Equal(t, "090-1234-5678", record.Phone)
}

func TestStatusDerivation(t *testing.T) {
	e := New(DefaultConfig(), nil)

	complete := e.Extract(context.Background(), simpleResume+"EXPERIENCE\nAcme Corp.\nEngineer\n2015 - 2018\n")
	assert.Equal(t, types.StatusComplete, complete.Status)

	partial := e.Extract(context.Background(), "Jane Doe\nnothing else useful here")
	assert.Equal(t, types.StatusPartial, partial.Status)
}
