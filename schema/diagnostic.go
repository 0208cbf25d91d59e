// Package schema defines the diagnostics channel shared by every pipeline
// stage (spec.md §6/§7): severities, stages, error codes, and the
// Diagnostics accumulator. It holds no validation helpers for externally
// supplied structures.
package schema

import (
	"fmt"

	"github.com/google/uuid"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Stage identifies which pipeline stage raised a Diagnostic.
type Stage string

const (
	StageNormalize  Stage = "normalize"
	StageDetect     Stage = "detect"
	StageTokenize   Stage = "tokenize"
	StageScreenplay Stage = "screenplay"
	StageTabular    Stage = "tabular"
	StageAggregate  Stage = "aggregate"
	StageConflict   Stage = "conflict"
	StageMerge      Stage = "merge"
	StageSchema     Stage = "schema"
)

// Error codes used across the pipeline. Callers may switch on these; the
// Message field is for humans only.
const (
	CodeMappingMissingRole = "mapping_missing_role"
	CodeMappingUnknownCol  = "mapping_unknown_column"
	CodeRowEmptyRole       = "row_empty_role"
	CodeRowInvalidTimecode = "row_invalid_timecode"
	CodeOrphanDialogue     = "orphan_dialogue"
	CodeUnterminatedBlock  = "unterminated_block"
	CodeConflictCapped     = "conflict_scene_capped"
	CodeCancelled          = "cancelled"
	CodeApplyConflict      = "apply_conflict"
	CodePersistence        = "persistence_error"
	CodeInputUndecodable   = "input_undecodable"
)

// Location pins a Diagnostic to a place in the source material.
type Location struct {
	SourceFile string `json:"source_file,omitempty"`
	Line       int    `json:"line,omitempty"`
}

// Diagnostic is the single structured error/warning/info record every
// stage emits instead of throwing (spec.md §7: "parser stages never
// throw on data content").
type Diagnostic struct {
	ID       uuid.UUID `json:"id"`
	Severity Severity  `json:"severity"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Stage    Stage     `json:"stage"`
	Location *Location `json:"location,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Location != nil {
		return fmt.Sprintf("[%s] %s:%s %s (%s:%d)", d.Severity, d.Stage, d.Code, d.Message, d.Location.SourceFile, d.Location.Line)
	}
	return fmt.Sprintf("[%s] %s:%s %s", d.Severity, d.Stage, d.Code, d.Message)
}

// New builds a Diagnostic with a fresh ID.
func New(sev Severity, stage Stage, code, message string, loc *Location) Diagnostic {
	return Diagnostic{
		ID:       uuid.New(),
		Severity: sev,
		Code:     code,
		Message:  message,
		Stage:    stage,
		Location: loc,
	}
}

// Diagnostics accumulates records for a single parse. It is not safe for
// concurrent use by design: spec.md §5 guarantees one accumulator per
// single-threaded document parse, with no shared mutable state across
// stages.
type Diagnostics struct {
	records []Diagnostic
}

// Add appends a diagnostic.
func (d *Diagnostics) Add(diag Diagnostic) {
	d.records = append(d.records, diag)
}

// Addf is a convenience constructor+append.
func (d *Diagnostics) Addf(sev Severity, stage Stage, code string, loc *Location, format string, args ...any) {
	d.Add(New(sev, stage, code, fmt.Sprintf(format, args...), loc))
}

// All returns every accumulated diagnostic, in emission order.
func (d *Diagnostics) All() []Diagnostic {
	return d.records
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
func (d *Diagnostics) HasErrors() bool {
	for _, r := range d.records {
		if r.Severity == Error {
			return true
		}
	}
	return false
}

// Merge appends another accumulator's records onto this one, preserving
// relative order (used when joining per-document results into a bundle).
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.records = append(d.records, other.records...)
}
