package ast

import "testing"

func TestConflictKeyCanonical(t *testing.T) {
	a, b := Key("MARY", "JOHN")
	if a != "JOHN" || b != "MARY" {
		t.Fatalf("expected (JOHN, MARY), got (%s, %s)", a, b)
	}
}

func TestAddConflictNoSelfPair(t *testing.T) {
	b := NewParseBundle()
	b.AddConflict("JOHN", "JOHN", 0)
	if len(b.Conflicts) != 0 {
		t.Fatalf("expected no self-conflict, got %d", len(b.Conflicts))
	}
}

func TestAddConflictUnionsScenes(t *testing.T) {
	b := NewParseBundle()
	b.AddConflict("JOHN", "MARY", 0)
	b.AddConflict("MARY", "JOHN", 1)
	if len(b.Conflicts) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(b.Conflicts))
	}
	var pair *ConflictPair
	for _, p := range b.Conflicts {
		pair = p
	}
	if pair.A != "JOHN" || pair.B != "MARY" {
		t.Fatalf("expected canonical (JOHN, MARY), got (%s, %s)", pair.A, pair.B)
	}
	if len(pair.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(pair.Scenes))
	}
}

func TestCharacterObserveVariantTieBreakFirstSeen(t *testing.T) {
	c := NewCharacter("JOHN")
	c.ObserveVariant("John", 0)
	c.ObserveVariant("JOHN", 1)
	if c.DisplayName != "John" {
		t.Fatalf("expected first-seen tie-break to keep %q, got %q", "John", c.DisplayName)
	}
}

func TestCharacterObserveVariantMostFrequentWins(t *testing.T) {
	c := NewCharacter("JOHN")
	c.ObserveVariant("John", 0)
	c.ObserveVariant("JOHN", 1)
	c.ObserveVariant("JOHN", 2)
	if c.DisplayName != "JOHN" {
		t.Fatalf("expected most-frequent %q to win, got %q", "JOHN", c.DisplayName)
	}
}

func TestOrderedCharactersFirstInsertionOrder(t *testing.T) {
	b := NewParseBundle()
	b.EnsureCharacter("MARY")
	b.EnsureCharacter("JOHN")
	b.EnsureCharacter("MARY") // re-ensure must not reorder
	names := []string{}
	for _, c := range b.OrderedCharacters() {
		names = append(names, c.NormalizedName)
	}
	if len(names) != 2 || names[0] != "MARY" || names[1] != "JOHN" {
		t.Fatalf("expected insertion order [MARY JOHN], got %v", names)
	}
}

func TestDecodedInputFlatten(t *testing.T) {
	multi := NewMultiInput("bundle",
		NewTextInput("a.txt", "a"),
		NewMultiInput("nested", NewTextInput("b.txt", "b")),
		NewTableInput("c.xlsx", "Sheet1", []string{"Role"}, nil),
	)
	flat := multi.Flatten()
	if len(flat) != 3 {
		t.Fatalf("expected 3 leaf inputs, got %d", len(flat))
	}
	if flat[0].Name != "a.txt" || flat[1].Name != "b.txt" || flat[2].Name != "c.xlsx" {
		t.Fatalf("unexpected flatten order: %+v", flat)
	}
}
