// Package detect implements the Content-Type Detector (spec.md §4.2): a
// deterministic weighted-vote classifier over a decoded document's lines.
package detect

import (
	"regexp"
	"strings"

	"github.com/castingdb/scriptpipeline/config"
)

// ContentKind is the closed classification a detect pass produces.
type ContentKind int

const (
	Tabular ContentKind = iota
	Screenplay
	Hybrid
)

func (k ContentKind) String() string {
	switch k {
	case Tabular:
		return "tabular"
	case Screenplay:
		return "screenplay"
	case Hybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

var (
	allCapsCueLike = regexp.MustCompile(`^[A-Z0-9 .\-'/]{2,40}$`)
	columnSepRun   = regexp.MustCompile(`\t|\|`)
)

// Lines classifies a slice of already-normalized text lines. It is a
// pure function of its input, so dispatch is deterministic given
// identical input (spec.md §4.2).
func Lines(lines []string, rules config.Rules) ContentKind {
	nonBlank := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonBlank = append(nonBlank, l)
		}
	}
	if len(nonBlank) == 0 {
		return Screenplay
	}

	tabularVote := tabularScore(nonBlank) >= 0.60
	screenplayVote := sceneHeadingRatio(nonBlank, rules) >= 0.01 || cueRatio(nonBlank) >= 0.05

	switch {
	case tabularVote && screenplayVote:
		return Hybrid
	case screenplayVote:
		return Screenplay
	case tabularVote:
		return Tabular
	default:
		return Screenplay
	}
}

// RowOriented classifies an already row-oriented input (headers + rows)
// as Tabular without running the line heuristics (spec.md §4.2: "or
// when input arrives already row-oriented").
func RowOriented() ContentKind {
	return Tabular
}

func tabularScore(nonBlank []string) float64 {
	hits := 0
	for _, l := range nonBlank {
		if len(columnSepRun.FindAllStringIndex(l, -1)) >= 2 {
			hits++
		}
	}
	return float64(hits) / float64(len(nonBlank))
}

func sceneHeadingRatio(nonBlank []string, rules config.Rules) float64 {
	hits := 0
	for _, l := range nonBlank {
		t := strings.TrimSpace(l)
		for _, marker := range rules.SceneMarkers {
			if strings.HasPrefix(t, marker) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(nonBlank))
}

func cueRatio(nonBlank []string) float64 {
	hits := 0
	for i, l := range nonBlank {
		t := strings.TrimSpace(l)
		if len(t) < 2 || len(t) > 40 {
			continue
		}
		if !allCapsCueLike.MatchString(t) {
			continue
		}
		if i+1 >= len(nonBlank) {
			continue
		}
		next := nonBlank[i+1]
		if strings.HasPrefix(next, " ") || strings.HasPrefix(next, "\t") || next != strings.TrimSpace(next) {
			hits++
		}
	}
	return float64(hits) / float64(len(nonBlank))
}
