// Package cli implements the sheetctl command surface: a set of cobra
// subcommands wrapping internal/engine.Sheet operations, plus a repl
// command that keeps one Sheet alive across a sequence of commands read
// from stdin. Grounded on roach88-nysm's internal/cli package (root.go,
// run.go): a RootOptions struct carrying persistent flags, one
// NewXCommand constructor per verb, slog wired to the --verbose flag.
package cli

import (
	"fmt"
	"strconv"

	"github.com/vogtb/sheetcore/internal/formula"
)

// ParsePosition parses A1-style text ("B12", "$A$1") into a Position,
// ignoring any `$` markers — sheetctl's command-line surface only ever
// deals in printed positions, never anchors.
func ParsePosition(text string) (formula.Position, error) {
	i := 0
	for i < len(text) && text[i] == '$' {
		i++
	}
	letterStart := i
	for i < len(text) && isLetter(text[i]) {
		i++
	}
	if i == letterStart {
		return formula.Position{}, fmt.Errorf("cli: %q has no column letters", text)
	}
	letters := text[letterStart:i]
	for i < len(text) && text[i] == '$' {
		i++
	}
	digitStart := i
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if digitStart == i || i != len(text) {
		return formula.Position{}, fmt.Errorf("cli: %q has no trailing row number", text)
	}
	row, err := strconv.Atoi(text[digitStart:i])
	if err != nil {
		return formula.Position{}, fmt.Errorf("cli: %q: %w", text, err)
	}
	return formula.Position{Row: row, Col: formula.ColumnNumber(upper(letters))}, nil
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func upper(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		out[i] = b
	}
	return string(out)
}
