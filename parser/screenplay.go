// Package parser implements the Screenplay Parser state machine
// (spec.md §4.4) and the Tabular Parser (spec.md §4.5).
package parser

import (
	"strings"

	"github.com/castingdb/scriptpipeline/ast"
	"github.com/castingdb/scriptpipeline/config"
	"github.com/castingdb/scriptpipeline/schema"
	"github.com/castingdb/scriptpipeline/token"
)

// state is the Screenplay Parser's internal state (spec.md §4.4).
type state int

const (
	sOutside state = iota
	sScene
	sSpeaking
	sParen
)

// ScreenplayResult is the joined output of the state machine: the scenes
// encountered and every RawDialogue emitted, in scene-encounter order
// (spec.md §5 ordering guarantee).
type ScreenplayResult struct {
	Scenes    []ast.Scene
	Dialogues []ast.RawDialogue
}

type screenplayMachine struct {
	rules   config.Rules
	diags   *schema.Diagnostics
	source  string
	state   state
	scenes  []ast.Scene
	result  []ast.RawDialogue

	// active holds the in-progress RawDialogue(s) for the current
	// speaking block. A dual-speaker cue ("JANE / KATE") opens one
	// RawDialogue per name, all closed together.
	active []*ast.RawDialogue
}

// ParseScreenplay consumes a token stream and runs the state machine
// described in spec.md §4.4, producing scenes and RawDialogue events.
func ParseScreenplay(tokens []token.Token, rules config.Rules, source string, diags *schema.Diagnostics) ScreenplayResult {
	m := &screenplayMachine{rules: rules, diags: diags, source: source, state: sOutside}

	for _, tok := range tokens {
		m.step(tok)
	}
	m.closeActive()
	// Terminal: end-of-input closes any active RawDialogue; a final
	// implicit BLANK is conceptually appended, already satisfied by
	// closeActive above.

	return ScreenplayResult{Scenes: m.scenes, Dialogues: m.result}
}

func (m *screenplayMachine) step(tok token.Token) {
	switch tok.Kind {
	case token.SCENE_HEADING:
		m.closeActive()
		m.openScene(tok)
		m.state = sScene
	case token.CHARACTER_CUE:
		switch m.state {
		case sScene, sOutside:
			m.ensureScene(tok)
			m.openSpeaking(tok)
			m.state = sSpeaking
		case sSpeaking, sParen:
			m.closeActive()
			m.openSpeaking(tok)
			m.state = sSpeaking
		}
	case token.PARENTHETICAL:
		if m.state == sSpeaking {
			m.state = sParen
		}
		// No dialogue line added for a parenthetical (§4.4).
	case token.DIALOGUE:
		switch m.state {
		case sParen, sSpeaking:
			m.appendDialogue(tok.Trimmed)
			m.state = sSpeaking
		default:
			// Orphan dialogue: no active cue. Attribute to a synthetic
			// UNKNOWN speaker, excluded from character output but
			// recorded (spec.md §7 StateMachineWarning).
			m.recordOrphan(tok)
		}
	case token.BLANK:
		if m.state == sSpeaking || m.state == sParen {
			m.closeActive()
			m.state = sScene
		}
	case token.ACTION:
		m.closeActive()
		if m.state == sOutside {
			m.state = sScene
		}
	case token.TRANSITION:
		m.closeActive()
		m.state = sOutside
	}
}

func (m *screenplayMachine) ensureScene(tok token.Token) {
	if len(m.scenes) == 0 {
		m.scenes = append(m.scenes, ast.Scene{Index: 0, SpanStart: tok.Line, SpanEnd: tok.Line})
	}
}

func (m *screenplayMachine) openScene(tok token.Token) {
	idx := len(m.scenes)
	m.scenes = append(m.scenes, ast.Scene{Index: idx, Heading: tok.Trimmed, SpanStart: tok.Line, SpanEnd: tok.Line})
}

func (m *screenplayMachine) currentSceneIndex() int {
	if len(m.scenes) == 0 {
		return 0
	}
	return m.scenes[len(m.scenes)-1].Index
}

func (m *screenplayMachine) extendSceneSpan(line int) {
	if len(m.scenes) == 0 {
		return
	}
	s := &m.scenes[len(m.scenes)-1]
	if line > s.SpanEnd {
		s.SpanEnd = line
	}
}

func (m *screenplayMachine) openSpeaking(tok token.Token) {
	sceneIdx := m.currentSceneIndex()
	m.extendSceneSpan(tok.Line)

	cueText, kind := stripCueMarkers(tok.Trimmed, m.rules)
	names := splitDualSpeakers(cueText, m.rules)

	m.active = m.active[:0]
	for _, name := range names {
		rd := &ast.RawDialogue{
			SceneIndex:        sceneIdx,
			SpeakerRaw:        name,
			SpeakerNormalized: ast.NormalizeKey(name),
			SourceSpanStart:   tok.Line,
			SourceSpanEnd:     tok.Line,
			Kind:              kind,
		}
		m.active = append(m.active, rd)
	}
}

func (m *screenplayMachine) appendDialogue(line string) {
	for _, rd := range m.active {
		rd.DialogueLines = append(rd.DialogueLines, line)
	}
}

func (m *screenplayMachine) closeActive() {
	for _, rd := range m.active {
		m.extendSceneSpan(rd.SourceSpanStart)
		m.result = append(m.result, *rd)
	}
	m.active = nil
}

func (m *screenplayMachine) recordOrphan(tok token.Token) {
	if m.diags == nil {
		return
	}
	m.diags.Addf(schema.Warning, schema.StageScreenplay, schema.CodeOrphanDialogue,
		&schema.Location{SourceFile: m.source, Line: tok.Line},
		"dialogue line %d has no preceding speaker cue, attributed to UNKNOWN", tok.Line)
}

// stripCueMarkers removes the group-marker suffix (promoting kind=GROUP)
// and the cue-continuation suffixes ((V.O.), (O.S.), (CONT'D)) that map
// to the same normalized key as the bare cue (spec.md §4.4). The
// remaining text is what gets split on dual-speaker separators and fed
// to NormalizeKey.
func stripCueMarkers(cue string, rules config.Rules) (string, ast.CharacterKind) {
	kind := ast.REGULAR
	trimmed := strings.TrimSpace(cue)
	for _, marker := range rules.GroupMarkers {
		if strings.HasSuffix(trimmed, marker) {
			kind = ast.GROUP
			cue = strings.TrimSpace(strings.TrimSuffix(trimmed, marker))
			break
		}
	}
	for _, suffix := range rules.CueSuffixes {
		trimmed := strings.TrimSpace(cue)
		if strings.HasSuffix(trimmed, suffix) {
			cue = strings.TrimSpace(strings.TrimSuffix(trimmed, suffix))
		}
	}
	return strings.TrimSpace(cue), kind
}

// splitDualSpeakers implements spec.md §4.4's dual/multi-speaker cue
// rule: "JANE / KATE" (or "&", " and ") emits one name per speaker.
func splitDualSpeakers(cue string, rules config.Rules) []string {
	parts := []string{cue}
	for _, sep := range rules.DualSpeakerSeparators {
		var next []string
		for _, p := range parts {
			for _, piece := range strings.Split(p, sep) {
				if t := strings.TrimSpace(piece); t != "" {
					next = append(next, t)
				}
			}
		}
		parts = next
	}
	if len(parts) == 0 {
		return []string{strings.TrimSpace(cue)}
	}
	return parts
}
