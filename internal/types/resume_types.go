package types

import (
	"time"

	"github.com/google/uuid"
)

// FieldSource records where a field value came from.
type FieldSource string

const (
	// SourceRegex marks a value produced by deterministic pattern extraction.
	SourceRegex FieldSource = "regex"
	// SourceInferred marks a value produced by the inference collaborator.
	SourceInferred FieldSource = "inferred"
)

// ExtractionStatus summarizes how complete a record is.
type ExtractionStatus string

const (
	// StatusComplete means at least four of the core fields were found.
	StatusComplete ExtractionStatus = "Complete"
	// StatusSuccess means at least three core fields were found.
	StatusSuccess ExtractionStatus = "Success"
	// StatusPartial means at least the name was found.
	StatusPartial ExtractionStatus = "Partial"
	// StatusFailed means nothing usable was extracted.
	StatusFailed ExtractionStatus = "Failed"
)

// EngineState is the reconciliation engine's processing stage for a
// single document. States advance monotonically.
type EngineState string

const (
	StateInit              EngineState = "INIT"
	StatePatternExtracted  EngineState = "PATTERN_EXTRACTED"
	StateInferenceSkipped  EngineState = "INFERENCE_SKIPPED"
	StateInferenceAttempt  EngineState = "INFERENCE_ATTEMPTED"
	StateRepaired          EngineState = "REPAIRED"
	StateMerged            EngineState = "MERGED"
	StateValidated         EngineState = "VALIDATED"
	StateDone              EngineState = "DONE"
)

// Job is one entry of working experience.
type Job struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
}

// Education is one entry of education history.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Year        string `json:"year"`
}

// Skills groups classified skill lists. HardSkills and SoftSkills are
// the classified buckets; Raw keeps everything that was found.
type Skills struct {
	HardSkills []string `json:"hard_skills"`
	SoftSkills []string `json:"soft_skills"`
	Raw        []string `json:"raw"`
}

// ResumeRecord is the extraction result for one document. Empty string
// means the field was not found. List fields are always non-nil.
type ResumeRecord struct {
	RecordID   string `json:"record_id"`
	SourceFile string `json:"source_file,omitempty"`

	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Location    string `json:"location"`

	Skills            Skills      `json:"skills"`
	WorkingExperience []Job       `json:"working_experience"`
	Education         []Education `json:"education"`

	// Sources maps a field name (name, email, phone, date_of_birth,
	// skills, working_experience, education) to where its final value
	// came from. Fields never filled carry no entry.
	Sources map[string]FieldSource `json:"sources"`

	AIEnhanced bool             `json:"ai_enhanced"`
	Status     ExtractionStatus `json:"extraction_status"`
	ParseMethod string          `json:"parse_method,omitempty"`

	ProcessedAt time.Time `json:"processed_at"`
}

// NewResumeRecord returns a record with a fresh ID and initialized
// list fields.
func NewResumeRecord(sourceFile string) *ResumeRecord {
	return &ResumeRecord{
		RecordID:   uuid.NewString(),
		SourceFile: sourceFile,
		Skills: Skills{
			HardSkills: []string{},
			SoftSkills: []string{},
			Raw:        []string{},
		},
		WorkingExperience: []Job{},
		Education:         []Education{},
		Sources:           map[string]FieldSource{},
		Status:            StatusFailed,
		ProcessedAt:       time.Now(),
	}
}

// CoreFieldCount counts how many of the core header fields plus the
// two main list sections are populated. Drives Status.
func (r *ResumeRecord) CoreFieldCount() int {
	count := 0
	if r.Name != "" {
		count++
	}
	if r.Email != "" {
		count++
	}
	if r.Phone != "" {
		count++
	}
	if len(r.Skills.Raw) > 0 {
		count++
	}
	if len(r.WorkingExperience) > 0 {
		count++
	}
	if len(r.Education) > 0 {
		count++
	}
	return count
}

// SetStatus derives the extraction status from field completeness.
func (r *ResumeRecord) SetStatus() {
	switch n := r.CoreFieldCount(); {
	case n >= 4:
		r.Status = StatusComplete
	case n >= 3:
		r.Status = StatusSuccess
	case r.Name != "":
		r.Status = StatusPartial
	default:
		r.Status = StatusFailed
	}
}

// SetSource records provenance for a field.
func (r *ResumeRecord) SetSource(field string, src FieldSource) {
	if r.Sources == nil {
		r.Sources = map[string]FieldSource{}
	}
	r.Sources[field] = src
}
