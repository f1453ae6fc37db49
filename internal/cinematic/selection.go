package cinematic

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Mode chooses how stages are selected.
type Mode string

const (
	// ModeComprehensive runs every stage.
	ModeComprehensive Mode = "comprehensive"
	// ModePromptGuided runs the stages whose keywords appear in the
	// instruction, or every stage when none do.
	ModePromptGuided Mode = "prompt_guided"
)

// ParseMode accepts the wire spellings of a mode. Empty means comprehensive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "comprehensive", "full":
		return ModeComprehensive, nil
	case "prompt_guided", "prompt-guided", "guided", "prompt":
		return ModePromptGuided, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// Selection is the set of stages a run will execute.
type Selection uint8

func bit(name StageName) Selection {
	for i, n := range CanonicalOrder {
		if n == name {
			return 1 << i
		}
	}
	return 0
}

// SelectAll selects every stage.
const SelectAll Selection = 1<<len(CanonicalOrder) - 1

// Has reports whether the stage is selected.
func (s Selection) Has(name StageName) bool { return s&bit(name) != 0 }

// Stages lists the selected stages in canonical order.
func (s Selection) Stages() []StageName {
	out := make([]StageName, 0, len(CanonicalOrder))
	for _, n := range CanonicalOrder {
		if s.Has(n) {
			out = append(out, n)
		}
	}
	return out
}

type keywordGroup struct {
	name     string
	keywords []string
	stages   []StageName
}

// keywordGroups is the fixed instruction vocabulary. Matching is plain
// case-insensitive substring search.
var keywordGroups = []keywordGroup{
	{
		name:     "lighting",
		keywords: []string{"lighting", "light", "dramatic", "cinematic", "shadow", "highlight"},
		stages:   []StageName{StageLighting},
	},
	{
		name:     "color",
		keywords: []string{"color", "colour", "mood", "saturation", "warm", "tone"},
		stages:   []StageName{StageColorGrading},
	},
	{
		name:     "composition",
		keywords: []string{"composition", "framing", "frame", "focus"},
		stages:   []StageName{StageComposition},
	},
	{
		name:     "story",
		keywords: []string{"story", "emotion", "narrative"},
		stages:   []StageName{StageComposition, StageLighting},
	},
	{
		name:     "detail",
		keywords: []string{"detail", "sharp", "texture", "clarity"},
		stages:   []StageName{StageDetail},
	},
}

// mandatory stages run in every mode.
var mandatory = bit(StagePreprocess) | bit(StagePolish)

// Select resolves the stage set for a mode and instruction.
func Select(mode Mode, instruction string) Selection {
	sel, _ := selectWithGroups(mode, instruction)
	return sel
}

// MatchedGroups returns the names of keyword groups found in instruction.
func MatchedGroups(instruction string) []string {
	_, groups := selectWithGroups(ModePromptGuided, instruction)
	return groups
}

func selectWithGroups(mode Mode, instruction string) (Selection, []string) {
	if mode != ModePromptGuided || strings.TrimSpace(instruction) == "" {
		return SelectAll, nil
	}
	text := cases.Fold().String(instruction)

	sel := mandatory
	var groups []string
	for _, g := range keywordGroups {
		for _, kw := range g.keywords {
			if strings.Contains(text, kw) {
				for _, st := range g.stages {
					sel |= bit(st)
				}
				groups = append(groups, g.name)
				break
			}
		}
	}
	if len(groups) == 0 {
		return SelectAll, nil
	}
	return sel, groups
}
