// Package token defines the lexical token kinds produced by the tokenizer
// when it classifies a decoded script's lines.
package token

// Kind is the provisional classification of a single source line.
type Kind int

const (
	// BLANK is a line with zero non-whitespace characters.
	BLANK Kind = iota
	// SCENE_HEADING marks the start of a new scene (INT./EXT./I/E/SCENE/...).
	SCENE_HEADING
	// CHARACTER_CUE is a speaker label preceding a dialogue block.
	CHARACTER_CUE
	// PARENTHETICAL is a stage direction wrapped in matching parens, usually
	// nested inside a speaking block.
	PARENTHETICAL
	// DIALOGUE is a line of spoken text attributed to the active speaker.
	DIALOGUE
	// ACTION is scene description / stage direction outside a dialogue block.
	ACTION
	// TRANSITION marks an editing transition (CUT TO:, FADE OUT, ...).
	TRANSITION
)

func (k Kind) String() string {
	switch k {
	case BLANK:
		return "BLANK"
	case SCENE_HEADING:
		return "SCENE_HEADING"
	case CHARACTER_CUE:
		return "CHARACTER_CUE"
	case PARENTHETICAL:
		return "PARENTHETICAL"
	case DIALOGUE:
		return "DIALOGUE"
	case ACTION:
		return "ACTION"
	case TRANSITION:
		return "TRANSITION"
	default:
		return "UNKNOWN"
	}
}

// Token is one classified source line. Tokens are immutable once produced
// and own the lifetime of their source text for the duration of a parse.
type Token struct {
	// Line is the 1-based line number in the (normalized) source text.
	Line int
	// Raw is the untrimmed source line.
	Raw string
	// Trimmed is Raw with leading/trailing whitespace removed.
	Trimmed string
	// Kind is the provisional line classification (§4.3).
	Kind Kind
}

func (t Token) String() string {
	return t.Kind.String() + ": " + t.Trimmed
}
