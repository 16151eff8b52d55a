// Package engine orchestrates the extraction pipeline for a single
// document: pattern extraction, the optional inference calls,
// response repair, field-level merge, and final validation. Extract
// never returns an error; failures degrade field completeness and are
// visible only through provenance tags and the record status.
package engine

import (
	"context"
	"regexp"
	"strings"

	"resume-extract-go/internal/extractor"
	"resume-extract-go/internal/llm"
	"resume-extract-go/internal/logger"
	"resume-extract-go/internal/normalizer"
	"resume-extract-go/internal/repair"
	"resume-extract-go/internal/types"
)

// Policy controls when the inference collaborator is invoked.
type Policy string

const (
	// PolicyAlways runs inference on every document.
	PolicyAlways Policy = "always"
	// PolicyOnDeficiency runs inference only when the pattern baseline
	// left gaps.
	PolicyOnDeficiency Policy = "on-deficiency"
)

// Config holds the engine's tunables. The engine reads it but never
// mutates it, so one Config can serve concurrent engines.
type Config struct {
	Policy           Policy
	MinSkills        int
	PhoneWindow      int
	DOBWindow        int
	HeaderPromptSize int
}

// DefaultConfig returns the standard engine configuration.
func DefaultConfig() Config {
	return Config{
		Policy:           PolicyOnDeficiency,
		MinSkills:        3,
		PhoneWindow:      300,
		DOBWindow:        500,
		HeaderPromptSize: 3000,
	}
}

// Inferencer is the inference collaborator surface the engine needs.
// *llm.Client satisfies it.
type Inferencer interface {
	Infer(ctx context.Context, system, user string) (string, error)
	Probe(ctx context.Context) bool
}

// Engine produces one final ResumeRecord per document. It is
// stateless across calls and safe for concurrent use.
type Engine struct {
	cfg        Config
	pattern    *extractor.Extractor
	inferencer Inferencer
}

// New creates an engine. A nil inferencer disables the inference
// stage entirely; the engine then always runs pattern-only.
func New(cfg Config, inferencer Inferencer) *Engine {
	defaults := DefaultConfig()
	if cfg.Policy == "" {
		cfg.Policy = defaults.Policy
	}
	if cfg.MinSkills <= 0 {
		cfg.MinSkills = defaults.MinSkills
	}
	if cfg.PhoneWindow <= 0 {
		cfg.PhoneWindow = defaults.PhoneWindow
	}
	if cfg.DOBWindow <= 0 {
		cfg.DOBWindow = defaults.DOBWindow
	}
	if cfg.HeaderPromptSize <= 0 {
		cfg.HeaderPromptSize = defaults.HeaderPromptSize
	}
	return &Engine{
		cfg:        cfg,
		pattern:    extractor.New(extractor.Options{PhoneWindow: cfg.PhoneWindow, DOBWindow: cfg.DOBWindow}),
		inferencer: inferencer,
	}
}

// Extract runs the full pipeline over raw resume text. The returned
// record is fully shaped for any input, including the empty string.
func (e *Engine) Extract(ctx context.Context, text string) *types.ResumeRecord {
	state := types.StateInit

	record := e.pattern.Extract(text)
	transition(&state, types.StatePatternExtracted)

	if !e.shouldInfer(ctx, record) {
		transition(&state, types.StateInferenceSkipped)
		e.finalize(record, text, &state)
		return record
	}
	transition(&state, types.StateInferenceAttempt)

	headerSystem, headerUser := llm.HeaderPrompt(text, e.cfg.HeaderPromptSize)
	headerRaw := e.infer(ctx, headerSystem, headerUser)
	deepSystem, deepUser := llm.DeepPrompt(text)
	deepRaw := e.infer(ctx, deepSystem, deepUser)

	header := repair.ParseHeader(headerRaw)
	deep := repair.ParseDeep(deepRaw)
	repair.ValidateDeepExtraction(deepRaw, deep)
	transition(&state, types.StateRepaired)

	e.mergeHeader(record, header)
	e.mergeDeep(record, deep)
	transition(&state, types.StateMerged)

	e.finalize(record, text, &state)
	return record
}

func transition(state *types.EngineState, next types.EngineState) {
	logger.Debug().Str("from", string(*state)).Str("to", string(next)).Msg("engine transition")
	*state = next
}

// shouldInfer evaluates availability and the invocation policy.
func (e *Engine) shouldInfer(ctx context.Context, record *types.ResumeRecord) bool {
	if e.inferencer == nil {
		return false
	}
	if !e.inferencer.Probe(ctx) {
		return false
	}
	if e.cfg.Policy == PolicyAlways {
		return true
	}
	return e.isDeficient(record)
}

// isDeficient reports whether the pattern baseline needs help: too few
// skills, an empty skill bucket, or a missing header field.
func (e *Engine) isDeficient(record *types.ResumeRecord) bool {
	if len(record.Skills.Raw) < e.cfg.MinSkills {
		return true
	}
	if len(record.Skills.HardSkills) == 0 || len(record.Skills.SoftSkills) == 0 {
		return true
	}
	return record.Name == "" || record.Email == "" || record.Phone == "" || record.DateOfBirth == ""
}

// infer performs one collaborator call, treating any error as an empty
// response.
func (e *Engine) infer(ctx context.Context, system, user string) string {
	raw, err := e.inferencer.Infer(ctx, system, user)
	if err != nil {
		logger.Warn().Err(err).Msg("inference call failed, continuing with pattern baseline")
		return ""
	}
	return raw
}

// mergeHeader applies pattern-wins precedence: an inferred value only
// fills a field the patterns left empty. The inferred phone is stored
// as returned; it arrives close to a usable shape already.
func (e *Engine) mergeHeader(record *types.ResumeRecord, header repair.HeaderFields) {
	if record.Name == "" && header.Name != "" {
		record.Name = header.Name
		record.SetSource("name", types.SourceInferred)
		record.AIEnhanced = true
	}
	if record.Email == "" && header.Email != "" && strings.Contains(header.Email, "@") {
		record.Email = strings.ToLower(header.Email)
		record.SetSource("email", types.SourceInferred)
		record.AIEnhanced = true
	}
	if record.Phone == "" && header.Phone != "" {
		record.Phone = header.Phone
		record.SetSource("phone", types.SourceInferred)
		record.AIEnhanced = true
	}
	if record.DateOfBirth == "" && header.DateOfBirth != "" {
		record.DateOfBirth = header.DateOfBirth
		record.SetSource("date_of_birth", types.SourceInferred)
		record.AIEnhanced = true
	}
	if record.Location == "" && header.Location != "" {
		record.Location = header.Location
		record.SetSource("location", types.SourceInferred)
		record.AIEnhanced = true
	}
}

// mergeDeep applies the inverted precedence for list fields: a
// non-empty inferred result overrides even a non-empty pattern result,
// since structured generation beats rigid regexes on these sections.
func (e *Engine) mergeDeep(record *types.ResumeRecord, deep repair.DeepFields) {
	if len(deep.HardSkills) > 0 || len(deep.SoftSkills) > 0 {
		record.Skills = types.Skills{
			HardSkills: deep.HardSkills,
			SoftSkills: deep.SoftSkills,
			Raw:        append(append([]string{}, deep.HardSkills...), deep.SoftSkills...),
		}
		record.SetSource("skills", types.SourceInferred)
		record.AIEnhanced = true
	}
	if len(deep.WorkingExperience) > 0 {
		record.WorkingExperience = deep.WorkingExperience
		record.SetSource("working_experience", types.SourceInferred)
		record.AIEnhanced = true
	}
	if len(deep.Education) > 0 {
		record.Education = deep.Education
		record.SetSource("education", types.SourceInferred)
		record.AIEnhanced = true
	}
}

var (
	emergencyEmailRe = regexp.MustCompile(`[^\s<>]+@[^\s<>]+\.[A-Za-z]{2,}`)
	emergencyDigitRe = regexp.MustCompile(`\d[\d\-. ()]{8,}\d`)
)

// finalize applies the VALIDATED-stage coercions and closes out the
// record.
func (e *Engine) finalize(record *types.ResumeRecord, text string, state *types.EngineState) {
	if record.Skills.HardSkills == nil {
		record.Skills.HardSkills = []string{}
	}
	if record.Skills.SoftSkills == nil {
		record.Skills.SoftSkills = []string{}
	}
	if record.Skills.Raw == nil {
		record.Skills.Raw = []string{}
	}
	if record.WorkingExperience == nil {
		record.WorkingExperience = []types.Job{}
	}
	if record.Education == nil {
		record.Education = []types.Education{}
	}

	record.Name = normalizer.CleanName(record.Name)

	// The birth date gets one final standardization pass regardless of
	// which stage produced it.
	if record.DateOfBirth != "" {
		if date, ok := normalizer.StandardizeDate(record.DateOfBirth); ok {
			record.DateOfBirth = date
		} else {
			record.DateOfBirth = ""
			delete(record.Sources, "date_of_birth")
		}
	}

	transition(state, types.StateValidated)

	if record.Email == "" && record.Phone == "" {
		e.emergencyContactScan(record, text)
	}

	record.SetStatus()
	transition(state, types.StateDone)

	logger.Debug().
		Str("status", string(record.Status)).
		Bool("ai_enhanced", record.AIEnhanced).
		Int("core_fields", record.CoreFieldCount()).
		Msg("record finalized")
}

// emergencyContactScan is the last-ditch pass when both email and
// phone are missing: looser patterns over the whole text pick up
// contact tokens the strict extraction rejected.
func (e *Engine) emergencyContactScan(record *types.ResumeRecord, text string) {
	text = normalizer.NormalizeText(text)

	if m := emergencyEmailRe.FindString(text); m != "" {
		record.Email = strings.ToLower(strings.Trim(m, ".,;"))
		record.SetSource("email", types.SourceRegex)
	}
	for _, m := range emergencyDigitRe.FindAllString(text, 5) {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, m)
		if len(digits) < 10 || len(digits) > 15 {
			continue
		}
		if phone, ok := normalizer.StandardizePhone(m); ok {
			record.Phone = phone
			record.SetSource("phone", types.SourceRegex)
			break
		}
	}
}
