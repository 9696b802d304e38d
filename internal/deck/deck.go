package deck

import (
	"strings"

	"github.com/samber/lo"
)

// Deck names understood by clients. "Custom" resolves against the room's
// comma-separated custom deck string instead of the fixed catalog.
const (
	Fibonacci   = "Fibonacci"
	PowersOfTwo = "Powers of 2"
	TShirt      = "T-Shirt"
	Custom      = "Custom"
)

// DefaultCustom is the custom deck a room starts with until someone edits it.
const DefaultCustom = "1,2,3,5,8,13,?,☕"

var catalog = map[string][]string{
	Fibonacci:   {"0", "1", "2", "3", "5", "8", "13", "20", "40", "100", "?", "☕"},
	PowersOfTwo: {"0", "1", "2", "4", "8", "16", "32", "64", "?", "☕"},
	TShirt:      {"XS", "S", "M", "L", "XL", "?", "☕"},
}

// Names lists the selectable deck names in display order.
func Names() []string {
	return []string{Fibonacci, PowersOfTwo, TShirt, Custom}
}

// Values resolves a deck name to its card values. Unknown names fall back to
// the custom deck string, which matches how clients resolve the selection.
func Values(name, custom string) []string {
	if values, ok := catalog[name]; ok {
		return append([]string(nil), values...)
	}
	return ParseCustom(custom)
}

// ParseCustom splits a comma-separated card list, dropping blank entries.
func ParseCustom(s string) []string {
	return lo.FilterMap(strings.Split(s, ","), func(v string, _ int) (string, bool) {
		v = strings.TrimSpace(v)
		return v, v != ""
	})
}
