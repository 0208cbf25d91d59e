package parser

import (
	"strconv"
	"strings"

	"github.com/castingdb/scriptpipeline/ast"
	"github.com/castingdb/scriptpipeline/config"
	"github.com/castingdb/scriptpipeline/schema"
)

// ColumnMapping maps a ScriptLine field to the source table's header
// name, or "" when the field could not be located (spec.md §4.5).
type ColumnMapping struct {
	RoleName    string
	Timecode    string
	SourceText  string
	Translation string
	RecStatus   string
	Notes       string
}

// AutoDetectColumns implements spec.md §4.5's header-synonym matching:
// each header is matched (case-insensitively, whitespace-trimmed)
// against the synonym lists in rules.Columns, either exactly or as an
// abbreviation (a prefix of at least two characters, e.g. "EN" for
// "english"), and the first matching header wins for each field.
func AutoDetectColumns(headers []string, rules config.Rules) ColumnMapping {
	var mapping ColumnMapping

	for _, header := range headers {
		text := strings.ToLower(strings.TrimSpace(header))
		switch {
		case mapping.RoleName == "" && matchesAny(text, rules.Columns.RoleName):
			mapping.RoleName = header
		case mapping.Timecode == "" && matchesAny(text, rules.Columns.Timecode):
			mapping.Timecode = header
		case mapping.SourceText == "" && matchesAny(text, rules.Columns.SourceText):
			mapping.SourceText = header
		case mapping.Translation == "" && matchesAny(text, rules.Columns.Translation):
			mapping.Translation = header
		case mapping.RecStatus == "" && matchesAny(text, rules.Columns.RecStatus):
			mapping.RecStatus = header
		case mapping.Notes == "" && matchesAny(text, rules.Columns.Notes):
			mapping.Notes = header
		}
	}
	return mapping
}

func matchesAny(text string, synonyms []string) bool {
	for _, s := range synonyms {
		s = strings.ToLower(s)
		if text == s || (len([]rune(text)) >= 2 && strings.HasPrefix(s, text)) {
			return true
		}
	}
	return false
}

// ParseTable projects a decoded table's rows into ScriptLine values
// using mapping, validating each row and emitting a diagnostic instead
// of failing the whole table (spec.md §4.5/§7). A mapping with no
// role_name column yields no lines and a single CodeMappingMissingRole
// error. A row with an empty or missing role name is dropped with
// CodeRowEmptyRole; an unparsable timecode is kept with Timecode left
// empty and a CodeRowInvalidTimecode warning.
func ParseTable(table ast.TableInput, mapping ColumnMapping, source string, diags *schema.Diagnostics) []ast.ScriptLine {
	var out []ast.ScriptLine

	if mapping.RoleName == "" {
		if diags != nil {
			diags.Addf(schema.Error, schema.StageTabular, schema.CodeMappingMissingRole,
				&schema.Location{SourceFile: source},
				"no column is mapped to role_name, table skipped")
		}
		return out
	}

	for i, row := range table.Rows {
		sourceRow := i + 2 // header is row 1; used only for diagnostic locations
		role := cellAt(row, mapping.RoleName)
		if strings.TrimSpace(role) == "" {
			if diags != nil {
				diags.Addf(schema.Warning, schema.StageTabular, schema.CodeRowEmptyRole,
					&schema.Location{SourceFile: source, Line: sourceRow},
					"row %d has no role name, skipped", sourceRow)
			}
			continue
		}

		tc := cellAt(row, mapping.Timecode)
		if tc != "" && !validTimecode(tc) {
			if diags != nil {
				diags.Addf(schema.Warning, schema.StageTabular, schema.CodeRowInvalidTimecode,
					&schema.Location{SourceFile: source, Line: sourceRow},
					"row %d has an unparsable timecode %q, cleared", sourceRow, tc)
			}
			tc = ""
		}

		// line_number is a contiguous 1..N counter over emitted lines only
		// (spec.md §4.5), not the raw source row, so skipped rows leave no
		// gap.
		out = append(out, ast.ScriptLine{
			LineNumber:  len(out) + 1,
			RoleName:    role,
			Timecode:    tc,
			SourceText:  cellAt(row, mapping.SourceText),
			Translation: cellAt(row, mapping.Translation),
			RecStatus:   parseRecStatus(cellAt(row, mapping.RecStatus)),
			Notes:       cellAt(row, mapping.Notes),
		})
	}
	return out
}

func cellAt(row map[string]ast.Cell, header string) string {
	if header == "" {
		return ""
	}
	cell, ok := row[header]
	if !ok {
		return ""
	}
	return strings.TrimSpace(cell.String())
}

func validTimecode(s string) bool {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '.' })
	if len(parts) < 3 || len(parts) > 4 {
		return false
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return true
}

func parseRecStatus(s string) ast.RecStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "recorded", "rec", "done", "x", "v", "✓":
		return ast.RecStatusRecorded
	case "no", "not_recorded", "not recorded", "pending", "":
		return ast.RecStatusNotRecorded
	case "optional", "opt":
		return ast.RecStatusOptional
	default:
		return ast.RecStatusNotRecorded
	}
}
