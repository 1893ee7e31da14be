// internal/element/element.go
//
// Element identity for the alchemy game.
// Defines:
//   - Element: a discovered (or starter) element with its display emoji.
//   - Key:     case-folded lookup key; names are case-insensitive.
//   - ID:      stable, injective identifier derived from a name.
//   - Starters: the four elements every catalog begins with.
package element

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Element is a single entry in the player's catalog.
type Element struct {
	Name        string `json:"name"`
	Emoji       string `json:"emoji"`
	IsStarter   bool   `json:"isStarter"`
	FromPartner bool   `json:"fromPartner,omitempty"`

	// DiscoveredAt orders the catalog; assigned by Catalog.Add.
	DiscoveredAt uint64 `json:"-"`
}

// Starter names, in catalog order.
const (
	Earth = "Earth"
	Water = "Water"
	Fire  = "Fire"
	Wind  = "Wind"
)

// Starters returns a fresh copy of the starter set.
func Starters() []Element {
	return []Element{
		{Name: Earth, Emoji: "🌍", IsStarter: true},
		{Name: Water, Emoji: "💧", IsStarter: true},
		{Name: Fire, Emoji: "🔥", IsStarter: true},
		{Name: Wind, Emoji: "💨", IsStarter: true},
	}
}

// IsStarterName reports whether name is one of the starters (case-insensitive).
func IsStarterName(name string) bool {
	k := Key(name)
	for _, s := range Starters() {
		if Key(s.Name) == k {
			return true
		}
	}
	return false
}

// Key returns the case-folded lookup key for name.
func Key(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// Equal compares two names case-insensitively.
func Equal(a, b string) bool {
	return Key(a) == Key(b)
}

// ID maps a name to an identifier made of lowercase letters, digits,
// underscores (for whitespace) and ~hex; escapes for everything else.
// Every non-alphanumeric rune is escaped rather than dropped, so distinct
// keys always produce distinct IDs ("God Emperor" -> god_emperor,
// "God-Emperor" -> god~2d;emperor).
func ID(name string) string {
	var b strings.Builder
	for _, r := range Key(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte('_')
		default:
			fmt.Fprintf(&b, "~%x;", r)
		}
	}
	return b.String()
}
