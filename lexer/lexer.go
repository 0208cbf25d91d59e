// Package lexer implements the Tokenizer (spec.md §4.3): one token per
// input line, classified by a fixed rule order.
package lexer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/castingdb/scriptpipeline/config"
	"github.com/castingdb/scriptpipeline/token"
)

var (
	transitionToSuffix = regexp.MustCompile(`TO:\s*$`)
	parenWrapped       = regexp.MustCompile(`^\(.*\)$`)
	sentenceEnders     = regexp.MustCompile(`[.!?]{1}\s`)
	cueSuffixPattern   = regexp.MustCompile(`\s*(\(V\.O\.\)|\(O\.S\.\)|\(CONT'D\)|\d+)$`)
)

// Tokenize classifies every line of text into a Token, in source order,
// one token per input line (spec.md §4.3, invariant 3 in §8).
func Tokenize(text string, rules config.Rules) []token.Token {
	lines := strings.Split(text, "\n")
	tokens := make([]token.Token, 0, len(lines))

	prevKind := token.BLANK
	dialogueOpen := false
	for i, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		kind := classify(trimmed, prevKind, dialogueOpen, rules)
		tokens = append(tokens, token.Token{
			Line:    i + 1,
			Raw:     raw,
			Trimmed: trimmed,
			Kind:    kind,
		})
		prevKind = kind
		switch kind {
		case token.CHARACTER_CUE, token.PARENTHETICAL, token.DIALOGUE:
			dialogueOpen = true
		case token.BLANK, token.SCENE_HEADING, token.TRANSITION:
			dialogueOpen = false
		}
	}
	return tokens
}

// classify applies the rule order from spec.md §4.3: BLANK, SCENE_HEADING,
// TRANSITION, CHARACTER_CUE, PARENTHETICAL, DIALOGUE, then ACTION. DIALOGUE
// is the default for any run of lines following a CHARACTER_CUE or
// PARENTHETICAL, unbroken by BLANK or SCENE_HEADING (spec.md §4.3) — this is
// tracked by dialogueOpen rather than the single previous token's kind, so
// multi-line dialogue blocks classify correctly.
func classify(trimmed string, prevKind token.Kind, dialogueOpen bool, rules config.Rules) token.Kind {
	if trimmed == "" {
		return token.BLANK
	}
	if isSceneHeading(trimmed, rules) {
		return token.SCENE_HEADING
	}
	if isTransition(trimmed, rules) {
		return token.TRANSITION
	}
	if isCharacterCue(trimmed, prevKind, dialogueOpen) {
		return token.CHARACTER_CUE
	}
	if isParenthetical(trimmed) {
		return token.PARENTHETICAL
	}
	if dialogueOpen {
		return token.DIALOGUE
	}
	return token.ACTION
}

func isSceneHeading(trimmed string, rules config.Rules) bool {
	for _, marker := range rules.SceneMarkers {
		if strings.HasPrefix(trimmed, marker) {
			return true
		}
	}
	return false
}

func isTransition(trimmed string, rules config.Rules) bool {
	if isAllCaps(trimmed) && transitionToSuffix.MatchString(trimmed) {
		return true
	}
	for _, marker := range rules.TransitionMarkers {
		if trimmed == marker || trimmed == marker+":" {
			return true
		}
	}
	return false
}

// isCharacterCue applies spec.md §4.3's rule: all-caps (or Hebrew-caps
// equivalent), length 2-40 after trim, no sentence-ending punctuation,
// optionally followed by a known suffix. Valid when the previous token
// was blank, a scene heading, or action, and also when it interrupts an
// open dialogue block (spec.md §4.4's S_SPEAKING|S_PAREN, CHARACTER_CUE
// -> S_SPEAKING transition: close prior, start new) — otherwise a second
// speaker's cue directly following the first's dialogue, with no blank
// line between, would misclassify as DIALOGUE and never close the block.
func isCharacterCue(trimmed string, prevKind token.Kind, dialogueOpen bool) bool {
	switch prevKind {
	case token.BLANK, token.SCENE_HEADING, token.ACTION:
	default:
		if !dialogueOpen {
			return false
		}
	}
	core := cueSuffixPattern.ReplaceAllString(trimmed, "")
	core = strings.TrimSpace(core)
	if len(core) < 2 || len(core) > 40 {
		return false
	}
	if sentenceEnders.MatchString(core + " ") {
		return false
	}
	return isAllCaps(core) || isHebrewCapsEquivalent(core)
}

func isParenthetical(trimmed string) bool {
	return parenWrapped.MatchString(trimmed) && len(trimmed) >= 2
}

// isAllCaps reports whether every cased letter in s is uppercase (digits,
// punctuation and spaces are ignored), unicode-aware.
func isAllCaps(s string) bool {
	seenLetter := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			seenLetter = true
		}
	}
	return seenLetter
}

// isHebrewCapsEquivalent treats Hebrew script (which has no case
// distinction) as trivially satisfying the "all caps" cue rule, matching
// spec.md §4.3's "Hebrew-caps-equivalent" clause.
func isHebrewCapsEquivalent(s string) bool {
	seenHebrew := false
	for _, r := range s {
		switch {
		case r >= 0x0590 && r <= 0x05FF:
			seenHebrew = true
		case r == ' ', r == '.', r == '-', r == '\'', r == '/', (r >= '0' && r <= '9'):
			// punctuation/digits allowed inside a cue
		default:
			return false
		}
	}
	return seenHebrew
}
