// Package conflict implements the Conflict Extractor (spec.md §4.7): for
// every scene, every unordered pair of distinct characters present is
// recorded as a potential casting conflict.
package conflict

import (
	"sort"

	"github.com/castingdb/scriptpipeline/ast"
	"github.com/castingdb/scriptpipeline/config"
	"github.com/castingdb/scriptpipeline/schema"
)

// Extract enumerates, for every scene, all unordered pairs of distinct
// characters present and records them on bundle via AddConflict. Scenes
// with more than rules.MaxCharactersPerScene distinct characters are
// capped to the first N (in normalized-name order) and a warning
// diagnostic is raised instead of paying the full O(k^2) cost (spec.md
// §4.7).
func Extract(bundle *ast.ParseBundle, rules config.Rules, source string, diags *schema.Diagnostics) {
	bySceneName := scenesToNames(bundle)

	scenes := make([]int, 0, len(bySceneName))
	for scene := range bySceneName {
		scenes = append(scenes, scene)
	}
	sort.Ints(scenes)

	maxPerScene := rules.MaxCharactersPerScene
	if maxPerScene <= 0 {
		maxPerScene = 200
	}

	for _, scene := range scenes {
		names := bySceneName[scene]
		if len(names) > maxPerScene {
			if diags != nil {
				diags.Addf(schema.Warning, schema.StageConflict, schema.CodeConflictCapped,
					&schema.Location{SourceFile: source},
					"scene %d has %d distinct characters, capped to %d for conflict extraction", scene, len(names), maxPerScene)
			}
			names = names[:maxPerScene]
		}
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				bundle.AddConflict(names[i], names[j], scene)
			}
		}
	}
}

// scenesToNames builds scene -> sorted distinct normalized names,
// derived from each character's recorded scene presence.
func scenesToNames(bundle *ast.ParseBundle) map[int][]string {
	out := map[int][]string{}
	for _, c := range bundle.OrderedCharacters() {
		for scene := range c.ScenesPresent {
			out[scene] = append(out[scene], c.NormalizedName)
		}
	}
	for scene, names := range out {
		sort.Strings(names)
		out[scene] = names
	}
	return out
}
