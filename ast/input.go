package ast

import "strconv"

// Cell is a single tabular cell value as decoded from a spreadsheet or
// extracted table (spec.md §6).
type Cell struct {
	Str      string
	Num      float64
	IsNum    bool
	IsNull   bool
}

// StrCell builds a string Cell.
func StrCell(s string) Cell { return Cell{Str: s} }

// NumCell builds a numeric Cell.
func NumCell(n float64) Cell { return Cell{Num: n, IsNum: true} }

// NullCell builds a null Cell.
func NullCell() Cell { return Cell{IsNull: true} }

// String renders a Cell's textual value regardless of underlying kind,
// used uniformly by the tabular parser.
func (c Cell) String() string {
	if c.IsNull {
		return ""
	}
	if c.IsNum {
		return formatNum(c.Num)
	}
	return c.Str
}

func formatNum(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// DecodedInput is the closed set of shapes the pipeline accepts from
// external document decoders (spec.md §6). Exactly one of the embedded
// variants is populated; Kind reports which.
type DecodedInputKind int

const (
	TextInputKind DecodedInputKind = iota
	TableInputKind
	MultiInputKind
)

// DecodedInput is a tagged-union input document. Construct with
// NewTextInput / NewTableInput / NewMultiInput.
type DecodedInput struct {
	Kind  DecodedInputKind
	Name  string // source file name, for diagnostics/metadata
	Text  TextInput
	Table TableInput
	Multi []DecodedInput
}

// TextInput wraps raw decoded text (plain or screenplay-formatted).
type TextInput struct {
	Text string
}

// TableInput wraps a decoded spreadsheet/table (headers + rows of named
// cells), as produced by an external XLSX/DOCX/PDF table extractor.
type TableInput struct {
	SheetName string
	Headers   []string
	Rows      []map[string]Cell
}

// NewTextInput builds a TextInput-kind DecodedInput.
func NewTextInput(name, text string) DecodedInput {
	return DecodedInput{Kind: TextInputKind, Name: name, Text: TextInput{Text: text}}
}

// NewTableInput builds a TableInput-kind DecodedInput.
func NewTableInput(name, sheet string, headers []string, rows []map[string]Cell) DecodedInput {
	return DecodedInput{Kind: TableInputKind, Name: name, Table: TableInput{SheetName: sheet, Headers: headers, Rows: rows}}
}

// NewMultiInput builds a MultiInput-kind DecodedInput bundling several
// inputs for a single ParseRequest.
func NewMultiInput(name string, inputs ...DecodedInput) DecodedInput {
	return DecodedInput{Kind: MultiInputKind, Name: name, Multi: inputs}
}

// Flatten expands a (possibly nested) DecodedInput into its leaf
// Text/Table inputs, in source order.
func (d DecodedInput) Flatten() []DecodedInput {
	switch d.Kind {
	case MultiInputKind:
		out := make([]DecodedInput, 0, len(d.Multi))
		for _, child := range d.Multi {
			out = append(out, child.Flatten()...)
		}
		return out
	default:
		return []DecodedInput{d}
	}
}

// UserEditKind is the closed tag for UserEdit variants.
type UserEditKind int

const (
	EditMerge UserEditKind = iota
	EditDelete
	EditRename
)

// UserEdit is a tagged-union bundle mutation requested by the UI
// (spec.md §3): Merge, Delete, or Rename.
type UserEdit struct {
	Kind UserEditKind

	// Merge fields.
	Sources []string // normalized names merged away
	Primary string    // normalized name kept

	// Delete / Rename target.
	Target string

	// Rename field.
	NewDisplay string
}

// NewMergeEdit builds a Merge UserEdit.
func NewMergeEdit(primary string, sources ...string) UserEdit {
	return UserEdit{Kind: EditMerge, Primary: primary, Sources: sources}
}

// NewDeleteEdit builds a Delete UserEdit.
func NewDeleteEdit(target string) UserEdit {
	return UserEdit{Kind: EditDelete, Target: target}
}

// NewRenameEdit builds a Rename UserEdit.
func NewRenameEdit(target, newDisplay string) UserEdit {
	return UserEdit{Kind: EditRename, Target: target, NewDisplay: newDisplay}
}
