// Package ast defines the normalized domain model the Script Ingestion
// Pipeline produces: scenes, characters, conflicts, script lines, and the
// aggregated ParseBundle (spec.md §3).
package ast

import (
	"regexp"
	"sort"
	"strings"
)

var nonAlphaNumSpace = regexp.MustCompile(`[^\p{L}\p{N} ]+`)
var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeKey applies the basic identity-key transform shared by every
// stage that needs to compare speaker names: uppercase, strip
// non-alphanumeric-non-space characters, collapse whitespace, trim
// (spec.md §3's definition of RawDialogue.speaker_normalized). Honorific
// stripping is a further step applied only when building a Character's
// NormalizedName (spec.md §4.6) and lives in the aggregate package.
func NormalizeKey(raw string) string {
	s := strings.ToUpper(raw)
	s = nonAlphaNumSpace.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// CharacterKind is a closed tag identifying how a Character was derived.
type CharacterKind int

const (
	REGULAR CharacterKind = iota
	GROUP
	VARIANT
)

func (k CharacterKind) String() string {
	switch k {
	case REGULAR:
		return "REGULAR"
	case GROUP:
		return "GROUP"
	case VARIANT:
		return "VARIANT"
	default:
		return "UNKNOWN"
	}
}

// Scene is a region of the token stream delimited by scene headings. A
// synthetic scene 0 exists for scripts without explicit headings
// (spec.md §3).
type Scene struct {
	Index        int
	Heading      string
	SpanStart    int // inclusive token/line index
	SpanEnd      int // inclusive token/line index
}

// RawDialogue is one speaker's appearance within a scene, emitted by the
// Screenplay Parser before aggregation (spec.md §3).
type RawDialogue struct {
	SceneIndex        int
	SpeakerRaw        string
	SpeakerNormalized string
	DialogueLines     []string
	SourceSpanStart   int
	SourceSpanEnd     int
	// Kind carries forward group-marker detection (§4.4) so the
	// aggregator can promote the resulting Character without re-parsing
	// the raw cue text.
	Kind CharacterKind
}

// Character is the aggregated, deduplicated identity of a speaker
// (spec.md §3).
type Character struct {
	DisplayName         string
	NormalizedName      string
	ReplicaCount        int
	Variants            map[string]struct{}
	Kind                CharacterKind
	ParentNormalizedName string // only set when Kind == VARIANT
	ScenesPresent       map[int]struct{}

	// firstSeen and variantCounts back display-name tie-breaking
	// and are not part of the public contract; they stay unexported so
	// equality comparisons (go-cmp) need an explicit Comparer/Exporter
	// option where tests care about them.
	variantCounts map[string]int
	firstSeen     map[string]int
}

// NewCharacter returns an empty Character ready for accumulation.
func NewCharacter(normalizedName string) *Character {
	return &Character{
		NormalizedName: normalizedName,
		Variants:       map[string]struct{}{},
		ScenesPresent:  map[int]struct{}{},
		variantCounts:  map[string]int{},
		firstSeen:      map[string]int{},
	}
}

// ObserveVariant records one more occurrence of a surface form, updating
// DisplayName using the most-frequent-wins / first-seen-breaks-ties rule
// (spec.md §4.6).
func (c *Character) ObserveVariant(surface string, order int) {
	if _, ok := c.Variants[surface]; !ok {
		c.Variants[surface] = struct{}{}
	}
	if _, ok := c.firstSeen[surface]; !ok {
		c.firstSeen[surface] = order
	}
	c.variantCounts[surface]++

	if c.DisplayName == "" {
		c.DisplayName = surface
		return
	}
	best := c.variantCounts[c.DisplayName]
	cand := c.variantCounts[surface]
	if cand > best || (cand == best && c.firstSeen[surface] < c.firstSeen[c.DisplayName]) {
		c.DisplayName = surface
	}
}

// SortedVariants returns the observed surface forms in deterministic
// (alphabetical) order, useful for diagnostics/serialization.
func (c *Character) SortedVariants() []string {
	out := make([]string, 0, len(c.Variants))
	for v := range c.Variants {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// SortedScenes returns the scene indices a character appears in, sorted.
func (c *Character) SortedScenes() []int {
	out := make([]int, 0, len(c.ScenesPresent))
	for s := range c.ScenesPresent {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// ConflictPair is an unordered pair of distinct characters sharing a
// scene (spec.md §3). A is always lexicographically less than B.
type ConflictPair struct {
	A      string
	B      string
	Scenes map[int]struct{}
}

// Key canonicalizes (a, b) so the same unordered pair always produces
// the same map key regardless of input order.
func Key(a, b string) (string, string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// SortedScenes returns this pair's scene indices in ascending order.
func (p ConflictPair) SortedScenes() []int {
	out := make([]int, 0, len(p.Scenes))
	for s := range p.Scenes {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

// RecStatus is the closed, domain-enumerated recording status of a
// ScriptLine (spec.md §3).
type RecStatus string

const (
	RecStatusRecorded    RecStatus = "recorded"
	RecStatusNotRecorded RecStatus = "not_recorded"
	RecStatusOptional    RecStatus = "optional"
)

// ScriptLine is one projected row from a tabular input (spec.md §3/§4.5).
type ScriptLine struct {
	LineNumber  int
	RoleName    string
	Timecode    string // empty when absent/invalid
	SourceText  string
	Translation string
	RecStatus   RecStatus
	Notes       string
}

// BundleMetadata carries summary counters and per-source-file stats
// alongside a ParseBundle (spec.md §3, expanded per SPEC_FULL.md §3).
type BundleMetadata struct {
	TotalReplicas int
	SourceFiles   []SourceFileSummary
	Warnings      int
}

// SourceFileSummary is a per-input-document summary (SPEC_FULL.md §3
// addition).
type SourceFileSummary struct {
	Name        string
	ContentKind string
	LineCount   int
	Warnings    int
}

// ParseBundle is the aggregated pipeline output for one or more input
// documents processed together (spec.md §3).
type ParseBundle struct {
	Characters  map[string]*Character
	Conflicts   map[string]*ConflictPair // keyed by "A\x00B"
	ScriptLines []ScriptLine
	Metadata    BundleMetadata

	// insertOrder preserves first-insertion order over Characters so
	// that repeated runs over identical input produce byte-identical
	// iteration order (spec.md §4.6 determinism, §8 invariant 7).
	insertOrder []string
}

// NewParseBundle returns an empty, ready-to-populate bundle.
func NewParseBundle() *ParseBundle {
	return &ParseBundle{
		Characters: map[string]*Character{},
		Conflicts:  map[string]*ConflictPair{},
	}
}

// EnsureCharacter returns the Character for normalizedName, creating and
// recording insertion order if it is new.
func (b *ParseBundle) EnsureCharacter(normalizedName string) *Character {
	if c, ok := b.Characters[normalizedName]; ok {
		return c
	}
	c := NewCharacter(normalizedName)
	b.Characters[normalizedName] = c
	b.insertOrder = append(b.insertOrder, normalizedName)
	return c
}

// OrderedCharacters returns characters in first-insertion order (spec.md
// §4.6 determinism).
func (b *ParseBundle) OrderedCharacters() []*Character {
	out := make([]*Character, 0, len(b.insertOrder))
	for _, name := range b.insertOrder {
		if c, ok := b.Characters[name]; ok {
			out = append(out, c)
		}
	}
	return out
}

// conflictKey builds the map key for an unordered pair already
// canonicalized via Key.
func conflictKey(a, b string) string {
	return a + "\x00" + b
}

// AddConflict records scene co-occurrence between two distinct
// characters, unioning scene sets across calls (spec.md §4.7).
func (b *ParseBundle) AddConflict(a, b2 string, scene int) {
	if a == b2 {
		return
	}
	lo, hi := Key(a, b2)
	k := conflictKey(lo, hi)
	pair, ok := b.Conflicts[k]
	if !ok {
		pair = &ConflictPair{A: lo, B: hi, Scenes: map[int]struct{}{}}
		b.Conflicts[k] = pair
	}
	pair.Scenes[scene] = struct{}{}
}

// OrderedConflicts returns conflicts sorted by (A, B) for deterministic
// output.
func (b *ParseBundle) OrderedConflicts() []*ConflictPair {
	out := make([]*ConflictPair, 0, len(b.Conflicts))
	for _, p := range b.Conflicts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// RecomputeMetadata recomputes TotalReplicas from the current character
// set. Call after mutating Characters directly (e.g. during merge).
func (b *ParseBundle) RecomputeMetadata() {
	total := 0
	for _, c := range b.Characters {
		total += c.ReplicaCount
	}
	b.Metadata.TotalReplicas = total
}
