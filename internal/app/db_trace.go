package app

import (
	"strings"
	"unicode/utf8"
)

const maxTracedQueryLength = 512

// formatDBQueryForTrace folds a statement onto one line and caps it so wide
// multi-row inserts do not bloat span attributes.
func formatDBQueryForTrace(query string) string {
	folded := strings.Join(strings.Fields(query), " ")
	if len(folded) <= maxTracedQueryLength {
		return folded
	}

	cut := maxTracedQueryLength
	for cut > 0 && !utf8.RuneStart(folded[cut]) {
		cut--
	}
	return folded[:cut] + "..."
}
