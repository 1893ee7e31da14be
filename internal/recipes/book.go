// internal/recipes/book.go
//
// Recipe book used by the reference oracle.
//
// Loading (LoadBook):
//   - path set: read the file (RECIPES_FILE).
//   - path empty: fall back to the embedded assets/recipes.txt.
//
// Resolve never fails: pairs missing from the book get a synthesized
// element derived from a blake2b digest of the combination key, so the
// same pair always yields the same result.
package recipes

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/robalobadob/alchemy/assets"
	"github.com/robalobadob/alchemy/internal/puzzle"
)

// Result is what a combination produces.
type Result struct {
	Element string `json:"element"`
	Emoji   string `json:"emoji"`
}

// Book maps combination keys to results.
type Book struct {
	entries map[puzzle.Key]Result
}

// LoadBook reads the book from path, or the embedded default when path is "".
func LoadBook(path string) (*Book, error) {
	var lines []string
	if path == "" {
		var err error
		lines, err = assets.RecipeLines()
		if err != nil {
			return nil, fmt.Errorf("recipes: embedded book: %w", err)
		}
	} else {
		var err error
		lines, err = readFile(path)
		if err != nil {
			return nil, fmt.Errorf("recipes: read %s: %w", path, err)
		}
	}
	return ParseBook(lines)
}

func readFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// ParseBook parses "A + B = Result | emoji" lines. The emoji part is optional.
func ParseBook(lines []string) (*Book, error) {
	b := &Book{entries: make(map[puzzle.Key]Result, len(lines))}
	for i, line := range lines {
		lhs, rhs, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("recipes: line %d: missing '='", i+1)
		}
		a, op, bb, err := splitOperands(lhs)
		if err != nil {
			return nil, fmt.Errorf("recipes: line %d: %w", i+1, err)
		}
		name, emoji, _ := strings.Cut(rhs, "|")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("recipes: line %d: empty result", i+1)
		}
		b.entries[puzzle.KeyOf(a, bb, op)] = Result{Element: name, Emoji: strings.TrimSpace(emoji)}
	}
	return b, nil
}

func splitOperands(lhs string) (string, puzzle.Operator, string, error) {
	for _, op := range []puzzle.Operator{puzzle.OpCombine, puzzle.OpSubtract} {
		if a, b, ok := strings.Cut(lhs, " "+string(op)+" "); ok {
			a, b = strings.TrimSpace(a), strings.TrimSpace(b)
			if a == "" || b == "" {
				return "", "", "", fmt.Errorf("empty operand in %q", lhs)
			}
			return a, op, b, nil
		}
	}
	return "", "", "", fmt.Errorf("no operator in %q", lhs)
}

// Len returns the number of recipes.
func (b *Book) Len() int { return len(b.entries) }

// Lookup returns the recipe for (a op b), if any.
func (b *Book) Lookup(a, c string, op puzzle.Operator) (Result, bool) {
	r, ok := b.entries[puzzle.KeyOf(a, c, op)]
	return r, ok
}

// Resolve returns the recipe for (a op b), synthesizing one when absent.
func (b *Book) Resolve(a, c string, op puzzle.Operator) Result {
	if r, ok := b.Lookup(a, c, op); ok {
		return r
	}
	return Synthesize(puzzle.KeyOf(a, c, op))
}

var (
	prefixes = []string{"Ancient", "Living", "Crystal", "Shadow", "Molten", "Frozen", "Wild", "Golden", "Silent", "Electric", "Hollow", "Mystic"}
	nouns    = []string{"Essence", "Golem", "Spirit", "Relic", "Shard", "Bloom", "Core", "Echo", "Veil", "Ember", "Tide", "Rune"}
	glyphs   = []string{"✨", "🔮", "💎", "🌀", "🧪", "🪄", "🌟", "🧿"}
)

// Synthesize derives a stable element for k.
func Synthesize(k puzzle.Key) Result {
	sum := blake2b.Sum256([]byte(k.String()))
	p := binary.BigEndian.Uint64(sum[0:8])
	n := binary.BigEndian.Uint64(sum[8:16])
	g := binary.BigEndian.Uint64(sum[16:24])
	return Result{
		Element: prefixes[p%uint64(len(prefixes))] + " " + nouns[n%uint64(len(nouns))],
		Emoji:   glyphs[g%uint64(len(glyphs))],
	}
}
