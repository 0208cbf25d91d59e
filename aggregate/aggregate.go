// Package aggregate implements the Character Aggregator (spec.md §4.6):
// it groups RawDialogue events by normalized speaker identity into
// Characters, computing display names, replica counts, and variant
// relationships.
package aggregate

import (
	"strings"

	"github.com/castingdb/scriptpipeline/ast"
	"github.com/castingdb/scriptpipeline/config"
)

// VariantSuffixes and Honorifics are consulted in the order given by
// config.Rules; both lists are short and closed (spec.md §4.6).

// NormalizedName computes the honorific-stripped identity key used to
// group characters, layering honorific removal on top of
// ast.NormalizeKey's basic transform (spec.md §4.6 step 1).
func NormalizedName(raw string, rules config.Rules) string {
	key := ast.NormalizeKey(raw)
	for _, honorific := range rules.Honorifics {
		stripped := ast.NormalizeKey(honorific)
		if strings.HasPrefix(key, stripped+" ") {
			return strings.TrimSpace(strings.TrimPrefix(key, stripped))
		}
		if key == stripped {
			return key
		}
	}
	return key
}

// Aggregate groups dialogues into the bundle's Characters map, in the
// order given by dialogues. order must be stable across a single call
// (spec.md "Determinism": first-insertion order).
func Aggregate(bundle *ast.ParseBundle, dialogues []ast.RawDialogue, rules config.Rules) {
	for i, rd := range dialogues {
		key := NormalizedName(rd.SpeakerRaw, rules)
		c := bundle.EnsureCharacter(key)
		c.ReplicaCount += len(rd.DialogueLines)
		c.ObserveVariant(rd.SpeakerRaw, i)
		c.ScenesPresent[rd.SceneIndex] = struct{}{}
		if rd.Kind == ast.GROUP {
			c.Kind = ast.GROUP
		}
	}

	applyVariantDetection(bundle, rules)
	bundle.RecomputeMetadata()
}

// applyVariantDetection implements spec.md §4.6 step 4: a character
// whose normalized name is parent+suffix, where a character with the
// bare parent name also exists, is reclassified kind=VARIANT. A
// character already promoted to GROUP is never demoted.
func applyVariantDetection(bundle *ast.ParseBundle, rules config.Rules) {
	for _, c := range bundle.OrderedCharacters() {
		if c.Kind == ast.GROUP {
			continue
		}
		for _, suffix := range rules.VariantSuffixes {
			if !strings.HasSuffix(c.NormalizedName, suffix) {
				continue
			}
			parent := strings.TrimSuffix(c.NormalizedName, suffix)
			if parent == c.NormalizedName {
				continue
			}
			if _, ok := bundle.Characters[parent]; ok {
				c.Kind = ast.VARIANT
				c.ParentNormalizedName = parent
				break
			}
		}
	}
}
