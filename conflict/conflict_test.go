package conflict

import (
	"testing"

	"github.com/castingdb/scriptpipeline/ast"
	"github.com/castingdb/scriptpipeline/config"
	"github.com/castingdb/scriptpipeline/schema"
)

func buildBundle(t *testing.T, scenePresence map[string][]int) *ast.ParseBundle {
	t.Helper()
	bundle := ast.NewParseBundle()
	for name, scenes := range scenePresence {
		c := bundle.EnsureCharacter(name)
		for _, s := range scenes {
			c.ScenesPresent[s] = struct{}{}
		}
	}
	return bundle
}

// S1 — minimal screenplay: JOHN and MARY share scene 0.
func TestExtractMinimalConflict(t *testing.T) {
	bundle := buildBundle(t, map[string][]int{
		"JOHN": {0},
		"MARY": {0},
	})
	var diags schema.Diagnostics
	Extract(bundle, config.Default(), "test.txt", &diags)

	conflicts := bundle.OrderedConflicts()
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	if conflicts[0].A != "JOHN" || conflicts[0].B != "MARY" {
		t.Fatalf("expected (JOHN, MARY), got (%s, %s)", conflicts[0].A, conflicts[0].B)
	}
	scenes := conflicts[0].SortedScenes()
	if len(scenes) != 1 || scenes[0] != 0 {
		t.Fatalf("expected conflict scenes [0], got %v", scenes)
	}
}

func TestExtractNoConflictDifferentScenes(t *testing.T) {
	bundle := buildBundle(t, map[string][]int{
		"JOHN": {0},
		"MARY": {1},
	})
	var diags schema.Diagnostics
	Extract(bundle, config.Default(), "test.txt", &diags)

	if len(bundle.OrderedConflicts()) != 0 {
		t.Fatalf("expected no conflicts, got %+v", bundle.OrderedConflicts())
	}
}

func TestExtractVariantNoSelfConflict(t *testing.T) {
	bundle := buildBundle(t, map[string][]int{
		"SARAH":       {0},
		"SARAH OLDER": {1},
	})
	var diags schema.Diagnostics
	Extract(bundle, config.Default(), "test.txt", &diags)

	if len(bundle.OrderedConflicts()) != 0 {
		t.Fatalf("expected no conflict between variant and parent in separate scenes, got %+v", bundle.OrderedConflicts())
	}
}

func TestExtractCapsLargeScene(t *testing.T) {
	scenePresence := map[string][]int{}
	for i := 0; i < 5; i++ {
		scenePresence[string(rune('A'+i))] = []int{0}
	}
	bundle := buildBundle(t, scenePresence)
	rules := config.Default()
	rules.MaxCharactersPerScene = 3

	var diags schema.Diagnostics
	Extract(bundle, rules, "test.txt", &diags)

	foundWarning := false
	for _, d := range diags.All() {
		if d.Code == schema.CodeConflictCapped {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Fatalf("expected a capped-scene warning diagnostic")
	}
	// 3 capped characters produce C(3,2)=3 pairs.
	if len(bundle.OrderedConflicts()) != 3 {
		t.Fatalf("expected 3 conflicts after capping, got %d", len(bundle.OrderedConflicts()))
	}
}

func TestExtractDeterministicPairOrder(t *testing.T) {
	bundle := buildBundle(t, map[string][]int{
		"ZOE":  {0},
		"AMY":  {0},
		"MARY": {0},
	})
	var diags schema.Diagnostics
	Extract(bundle, config.Default(), "test.txt", &diags)

	conflicts := bundle.OrderedConflicts()
	for _, c := range conflicts {
		if c.A >= c.B {
			t.Errorf("expected canonical A < B, got (%s, %s)", c.A, c.B)
		}
	}
}
