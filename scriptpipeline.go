// Package scriptpipeline is the root of the Script Ingestion Pipeline:
// it wires normalize -> detect -> lex -> parse -> aggregate -> conflict
// into the entry points named in spec.md §6, and exposes ParseMany for
// caller-parallel fan-out across documents (spec.md §5).
package scriptpipeline

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/castingdb/scriptpipeline/aggregate"
	"github.com/castingdb/scriptpipeline/ast"
	"github.com/castingdb/scriptpipeline/conflict"
	"github.com/castingdb/scriptpipeline/config"
	"github.com/castingdb/scriptpipeline/detect"
	"github.com/castingdb/scriptpipeline/lexer"
	"github.com/castingdb/scriptpipeline/normalize"
	"github.com/castingdb/scriptpipeline/parser"
	"github.com/castingdb/scriptpipeline/schema"
)

// ParseOptions tunes a single ParseScript call. The zero value is not
// usable directly; use DefaultParseOptions.
type ParseOptions struct {
	Rules config.Rules
}

// DefaultParseOptions returns options built on config.Default().
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Rules: config.Default()}
}

// ParseRequest names one document for ParseMany, carrying the decoded
// input alongside the options and a label used in diagnostics.
type ParseRequest struct {
	Name    string
	Input   ast.DecodedInput
	Options ParseOptions
}

// NormalizeText runs the Text Normalizer (spec.md §4.1).
func NormalizeText(text string) string {
	return normalize.Normalize(text)
}

// DetectContentType runs the Content-Type Detector (spec.md §4.2) over a
// decoded input. TableInput is trivially Tabular (RowOriented); TextInput
// is classified from its normalized lines; MultiInput reports Hybrid
// whenever its leaves disagree.
func DetectContentType(input ast.DecodedInput, rules config.Rules) detect.ContentKind {
	leaves := input.Flatten()
	if len(leaves) == 0 {
		return detect.Screenplay
	}
	var kinds []detect.ContentKind
	for _, leaf := range leaves {
		switch leaf.Kind {
		case ast.TableInputKind:
			kinds = append(kinds, detect.RowOriented())
		default:
			normalized := normalize.Normalize(leaf.Text.Text)
			kinds = append(kinds, detect.Lines(strings.Split(normalized, "\n"), rules))
		}
	}
	first := kinds[0]
	for _, k := range kinds[1:] {
		if k != first {
			return detect.Hybrid
		}
	}
	return first
}

// AutoDetectColumns runs the Tabular Parser's column auto-detection
// (spec.md §4.5).
func AutoDetectColumns(headers []string, rules config.Rules) parser.ColumnMapping {
	return parser.AutoDetectColumns(headers, rules)
}

// ParseTable projects a decoded table into ScriptLines using a
// previously computed mapping (spec.md §4.5).
func ParseTable(table ast.TableInput, mapping parser.ColumnMapping, source string, diags *schema.Diagnostics) []ast.ScriptLine {
	return parser.ParseTable(table, mapping, source, diags)
}

// ParseScript runs the full pipeline (normalize -> detect -> tokenize ->
// screenplay parse -> aggregate -> conflict extract, or tabular parse for
// table inputs) over a single, possibly multi-part, DecodedInput
// (spec.md §6).
func ParseScript(input ast.DecodedInput, opts ParseOptions) (*ast.ParseBundle, *schema.Diagnostics) {
	bundle := ast.NewParseBundle()
	diags := &schema.Diagnostics{}

	for _, leaf := range input.Flatten() {
		before := len(diags.All())
		switch leaf.Kind {
		case ast.TableInputKind:
			parseTableLeaf(bundle, leaf, opts, diags)
		default:
			parseTextLeaf(bundle, leaf, opts, diags)
		}
		if n := len(bundle.Metadata.SourceFiles); n > 0 {
			bundle.Metadata.SourceFiles[n-1].Warnings = len(diags.All()) - before
		}
	}

	conflict.Extract(bundle, opts.Rules, input.Name, diags)
	bundle.Metadata.Warnings = len(diags.All())
	return bundle, diags
}

func parseTextLeaf(bundle *ast.ParseBundle, leaf ast.DecodedInput, opts ParseOptions, diags *schema.Diagnostics) {
	normalized := normalize.Normalize(leaf.Text.Text)
	lines := strings.Split(normalized, "\n")
	kind := detect.Lines(lines, opts.Rules)

	tokens := lexer.Tokenize(normalized, opts.Rules)
	result := parser.ParseScreenplay(tokens, opts.Rules, leaf.Name, diags)
	aggregate.Aggregate(bundle, result.Dialogues, opts.Rules)

	bundle.Metadata.SourceFiles = append(bundle.Metadata.SourceFiles, ast.SourceFileSummary{
		Name:        leaf.Name,
		ContentKind: kind.String(),
		LineCount:   len(lines),
	})
}

func parseTableLeaf(bundle *ast.ParseBundle, leaf ast.DecodedInput, opts ParseOptions, diags *schema.Diagnostics) {
	mapping := parser.AutoDetectColumns(leaf.Table.Headers, opts.Rules)
	rows := parser.ParseTable(leaf.Table, mapping, leaf.Name, diags)
	bundle.ScriptLines = append(bundle.ScriptLines, rows...)

	bundle.Metadata.SourceFiles = append(bundle.Metadata.SourceFiles, ast.SourceFileSummary{
		Name:        leaf.Name,
		ContentKind: detect.Tabular.String(),
		LineCount:   len(leaf.Table.Rows) + 1,
	})
}

// ApplyUserEdits folds a batch of UserEdits (Merge/Delete/Rename) into a
// ParseBundle in place, returning the same bundle for chaining (spec.md
// §6). This mutates the bundle's in-memory Character map; persisting the
// result is the merge package's job.
func ApplyUserEdits(bundle *ast.ParseBundle, edits []ast.UserEdit) *ast.ParseBundle {
	for _, edit := range edits {
		switch edit.Kind {
		case ast.EditMerge:
			applyMergeEdit(bundle, edit)
		case ast.EditDelete:
			delete(bundle.Characters, edit.Target)
		case ast.EditRename:
			if c, ok := bundle.Characters[edit.Target]; ok {
				c.DisplayName = edit.NewDisplay
			}
		}
	}
	bundle.RecomputeMetadata()
	return bundle
}

func applyMergeEdit(bundle *ast.ParseBundle, edit ast.UserEdit) {
	primary, ok := bundle.Characters[edit.Primary]
	if !ok {
		return
	}
	for _, src := range edit.Sources {
		other, ok := bundle.Characters[src]
		if !ok || src == edit.Primary {
			continue
		}
		primary.ReplicaCount += other.ReplicaCount
		for scene := range other.ScenesPresent {
			primary.ScenesPresent[scene] = struct{}{}
		}
		for _, variant := range other.SortedVariants() {
			primary.ObserveVariant(variant, len(bundle.Characters))
		}
		delete(bundle.Characters, src)
	}
}

// ParseMany runs ParseScript over every request concurrently, one
// goroutine per document (spec.md §5: "caller-parallel, per-document
// sequential"), and joins results in the caller-supplied order (not
// completion order). ctx is checked once before each document's parse
// starts: a parse that has not started when ctx is cancelled is skipped
// and ParseMany returns ctx's error; a parse already running is not
// interrupted.
func ParseMany(ctx context.Context, requests []ParseRequest) ([]*ast.ParseBundle, []*schema.Diagnostics, error) {
	bundles := make([]*ast.ParseBundle, len(requests))
	diagsOut := make([]*schema.Diagnostics, len(requests))

	group, ctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bundle, diags := ParseScript(req.Input, req.Options)
			bundles[i] = bundle
			diagsOut[i] = diags
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return bundles, diagsOut, nil
}
