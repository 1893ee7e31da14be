// assets/embed.go
//
// Embedded default data for the reference backend:
//   - recipes.txt:  the recipe book, one "A + B = Result | emoji" per line.
//   - puzzles.json: the puzzle calendar (pinned dates plus a rotation pool).
//
// Blank lines and lines starting with '#' are skipped by RecipeLines.
package assets

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed recipes.txt puzzles.json
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
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

// RecipeLines returns the embedded recipe book.
func RecipeLines() ([]string, error) {
	return readLines("recipes.txt")
}

// PuzzlesJSON returns the embedded puzzle calendar.
func PuzzlesJSON() ([]byte, error) {
	return FS.ReadFile("puzzles.json")
}
