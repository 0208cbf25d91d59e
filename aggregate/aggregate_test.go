package aggregate

import (
	"testing"

	"github.com/castingdb/scriptpipeline/ast"
	"github.com/castingdb/scriptpipeline/config"
)

func TestNormalizedNameStripsHonorific(t *testing.T) {
	rules := config.Default()
	got := NormalizedName("Dr. Smith", rules)
	if got != "SMITH" {
		t.Fatalf("expected SMITH, got %q", got)
	}
}

func TestNormalizedNameNoHonorificUnchanged(t *testing.T) {
	rules := config.Default()
	got := NormalizedName("John Smith", rules)
	if got != "JOHN SMITH" {
		t.Fatalf("expected JOHN SMITH, got %q", got)
	}
}

func dialogue(speaker string, scene int, lines int) ast.RawDialogue {
	rd := ast.RawDialogue{
		SceneIndex:        scene,
		SpeakerRaw:        speaker,
		SpeakerNormalized: ast.NormalizeKey(speaker),
	}
	for i := 0; i < lines; i++ {
		rd.DialogueLines = append(rd.DialogueLines, "line")
	}
	return rd
}

// S3 — variant detection.
func TestAggregateVariantDetection(t *testing.T) {
	rules := config.Default()
	bundle := ast.NewParseBundle()

	var dialogues []ast.RawDialogue
	for i := 0; i < 5; i++ {
		dialogues = append(dialogues, dialogue("SARAH", 0, 1))
	}
	for i := 0; i < 3; i++ {
		dialogues = append(dialogues, dialogue("SARAH OLDER", 1, 1))
	}

	Aggregate(bundle, dialogues, rules)

	sarah, ok := bundle.Characters["SARAH"]
	if !ok {
		t.Fatalf("expected SARAH character")
	}
	if sarah.Kind != ast.REGULAR {
		t.Fatalf("expected SARAH kind=REGULAR, got %v", sarah.Kind)
	}
	if sarah.ReplicaCount != 5 {
		t.Fatalf("expected 5 replicas for SARAH, got %d", sarah.ReplicaCount)
	}

	older, ok := bundle.Characters["SARAH OLDER"]
	if !ok {
		t.Fatalf("expected SARAH OLDER character")
	}
	if older.Kind != ast.VARIANT {
		t.Fatalf("expected SARAH OLDER kind=VARIANT, got %v", older.Kind)
	}
	if older.ParentNormalizedName != "SARAH" {
		t.Fatalf("expected parent SARAH, got %q", older.ParentNormalizedName)
	}
	if older.ReplicaCount != 3 {
		t.Fatalf("expected 3 replicas for SARAH OLDER, got %d", older.ReplicaCount)
	}
}

func TestAggregateGroupKindPreserved(t *testing.T) {
	rules := config.Default()
	bundle := ast.NewParseBundle()

	rd := dialogue("CROWD", 0, 1)
	rd.Kind = ast.GROUP
	Aggregate(bundle, []ast.RawDialogue{rd}, rules)

	crowd := bundle.Characters["CROWD"]
	if crowd.Kind != ast.GROUP {
		t.Fatalf("expected GROUP kind preserved, got %v", crowd.Kind)
	}
}

func TestAggregateDisplayNameMostFrequent(t *testing.T) {
	rules := config.Default()
	bundle := ast.NewParseBundle()

	dialogues := []ast.RawDialogue{
		dialogue("John", 0, 1),
		dialogue("JOHN", 0, 1),
		dialogue("JOHN", 1, 1),
	}
	Aggregate(bundle, dialogues, rules)

	c := bundle.Characters["JOHN"]
	if c.DisplayName != "JOHN" {
		t.Fatalf("expected most-frequent display name JOHN, got %q", c.DisplayName)
	}
}

func TestAggregateScenePresenceUnion(t *testing.T) {
	rules := config.Default()
	bundle := ast.NewParseBundle()

	dialogues := []ast.RawDialogue{
		dialogue("JOHN", 0, 1),
		dialogue("JOHN", 2, 1),
	}
	Aggregate(bundle, dialogues, rules)

	c := bundle.Characters["JOHN"]
	scenes := c.SortedScenes()
	if len(scenes) != 2 || scenes[0] != 0 || scenes[1] != 2 {
		t.Fatalf("expected scenes [0 2], got %v", scenes)
	}
}
