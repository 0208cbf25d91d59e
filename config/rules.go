// Package config holds the pipeline's tunable-but-closed rule sets: scene
// markers, honorifics, variant suffixes, and tabular column synonyms.
//
// These sets are deliberately fixed by the specification (see the
// "config" entry in DESIGN.md's package ledger): a caller may load a replacement Rules value, but
// nothing in this package silently widens the built-in sets, and doing so
// changes pipeline output in ways the golden end-to-end scenarios pin down.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Rules bundles every closed vocabulary the pipeline's heuristics consult.
type Rules struct {
	// SceneMarkers are line prefixes that mark a SCENE_HEADING (§4.3).
	SceneMarkers []string `yaml:"scene_markers"`
	// TransitionMarkers are literal lines/suffixes that mark a TRANSITION.
	TransitionMarkers []string `yaml:"transition_markers"`
	// CueSuffixes are parenthetical/numeric cue suffixes folded into the
	// same normalized key (§4.4), e.g. "(V.O.)", "(CONT'D)".
	CueSuffixes []string `yaml:"cue_suffixes"`
	// GroupMarkers are trailing cue markers that promote a character to
	// kind=GROUP (§4.4).
	GroupMarkers []string `yaml:"group_markers"`
	// DualSpeakerSeparators split a cue into more than one speaker name
	// (§4.4), e.g. "/", "&", " and ".
	DualSpeakerSeparators []string `yaml:"dual_speaker_separators"`
	// Honorifics are stripped from the front of a normalized name (§4.6).
	Honorifics []string `yaml:"honorifics"`
	// VariantSuffixes are trailing tokens that mark a VARIANT character
	// whose parent is the name with the suffix removed (§4.6).
	VariantSuffixes []string `yaml:"variant_suffixes"`
	// Columns maps each ScriptLine field to the header synonyms that
	// identify it during tabular column auto-detection (§4.5).
	Columns ColumnSynonyms `yaml:"columns"`
	// MaxCharactersPerScene caps the Conflict Extractor's O(k^2) pass
	// (§4.7); scenes with more distinct characters than this are capped
	// and a warning diagnostic is raised.
	MaxCharactersPerScene int `yaml:"max_characters_per_scene"`
}

// ColumnSynonyms is the closed set of header-name synonyms per ScriptLine
// field, used by auto_detect_columns (§4.5).
type ColumnSynonyms struct {
	RoleName    []string `yaml:"role_name"`
	Timecode    []string `yaml:"timecode"`
	SourceText  []string `yaml:"source_text"`
	Translation []string `yaml:"translation"`
	RecStatus   []string `yaml:"rec_status"`
	Notes       []string `yaml:"notes"`
}

// Default returns the built-in rule set matching spec.md exactly. It is
// the set in force unless a caller explicitly loads an override.
func Default() Rules {
	return Rules{
		SceneMarkers:          []string{"INT.", "EXT.", "I/E", "סצנה", "SCENE"},
		TransitionMarkers:     []string{"FADE IN", "FADE OUT", "CUT TO"},
		CueSuffixes:           []string{"(V.O.)", "(O.S.)", "(CONT'D)"},
		GroupMarkers:          []string{"(GROUP)", "(CROWD)", "(ALL)"},
		DualSpeakerSeparators: []string{"/", "&", " and "},
		Honorifics:            []string{"MR.", "MRS.", "MS.", "DR."},
		VariantSuffixes:       []string{" OLDER", " YOUNGER", " CHILD", " V.O.", " O.S.", " 2", " II"},
		Columns: ColumnSynonyms{
			RoleName:    []string{"role", "character", "char", "תפקיד", "דמות"},
			Timecode:    []string{"tc", "timecode", "time", "קוד זמן"},
			SourceText:  []string{"text", "dialogue", "english", "source", "מקור"},
			Translation: []string{"translation", "hebrew", "תרגום"},
			RecStatus:   []string{"rec", "status", "הוקלט", "סטטוס"},
			Notes:       []string{"note", "notes", "הערה", "הערות"},
		},
		MaxCharactersPerScene: 200,
	}
}

// Load reads a YAML rules file and overlays it onto Default(). Any field
// absent from the file keeps its default, so a caller can override a
// single vocabulary (e.g. an additional scene marker for a regional
// format) without having to restate every other set. A field present in
// the file replaces the default entirely, even when it is an empty list
// or zero.
func Load(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, err
	}
	rules := Default()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, err
	}
	return rules, nil
}
