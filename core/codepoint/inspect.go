package codepoint

import (
	"fmt"
	"strings"

	"github.com/npillmayer/uax/emoji"
	"github.com/npillmayer/uax/grapheme"
	"github.com/npillmayer/uax/segment"
)

// WarningKind classifies the diagnostics of Inspect.
type WarningKind int

// Kinds of warnings for emoji sequences.
const (
	NotAnEmoji       WarningKind = iota // code-point without any emoji property
	MultipleClusters                    // sequence spans more than one grapheme cluster
)

// Warning is a non-fatal finding about an emoji sequence.
type Warning struct {
	Kind     WarningKind
	Position int  // index of the scalar value, -1 for sequence-level warnings
	Rune     rune // offending scalar value, if any
	Message  string
}

func (w Warning) String() string {
	return w.Message
}

// Inspect checks an emoji sequence for code-points which are not emoji
// (per UTS #51 properties) and for sequences which will not render as a
// single user-perceived character. Inspect never fails; an empty result
// means no findings.
func Inspect(seq EmojiSequence) []Warning {
	emoji.SetupEmojisClasses()
	var warnings []Warning
	for i, r := range seq.runes {
		if emoji.EmojisClassForRune(r) < 0 {
			warnings = append(warnings, Warning{
				Kind:     NotAnEmoji,
				Position: i,
				Rune:     r,
				Message:  fmt.Sprintf("code-point %U is not an emoji", r),
			})
		}
	}
	if n := countGraphemes(seq.String()); n > 1 {
		warnings = append(warnings, Warning{
			Kind:     MultipleClusters,
			Position: -1,
			Message:  fmt.Sprintf("sequence %s spans %d grapheme clusters", seq.HexString(), n),
		})
	}
	for _, w := range warnings {
		tracer().Debugf(w.Message)
	}
	return warnings
}

func countGraphemes(s string) int {
	grapheme.SetupGraphemeClasses()
	onGraphemes := grapheme.NewBreaker(1)
	seg := segment.NewSegmenter(onGraphemes)
	seg.Init(strings.NewReader(s))
	n := 0
	for seg.Next() {
		n++
	}
	return n
}
