// internal/recipes/calendar.go
//
// Puzzle calendar. Entries carrying a date are pinned to that day; the
// rest form a rotation pool. Any other date picks a pool entry with
// daily.Index(date, salt).
package recipes

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/robalobadob/alchemy/assets"
	"github.com/robalobadob/alchemy/internal/daily"
	"github.com/robalobadob/alchemy/internal/errs"
	"github.com/robalobadob/alchemy/internal/puzzle"
)

// Calendar resolves a date to its puzzle.
type Calendar struct {
	salt   string
	pinned map[string]puzzle.Puzzle
	pool   []puzzle.Puzzle
}

type calendarFile struct {
	Puzzles []puzzle.Puzzle `json:"puzzles"`
}

// LoadCalendar reads the calendar from path, or the embedded default when
// path is "". Every puzzle must be valid and, when book is non-nil, its
// solution path must agree with the book.
func LoadCalendar(path, salt string, book *Book) (*Calendar, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = assets.PuzzlesJSON()
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("recipes: read calendar: %w", err)
	}
	var f calendarFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("recipes: decode calendar: %w", err)
	}
	return NewCalendar(f.Puzzles, salt, book)
}

// NewCalendar builds a calendar from puzzles.
func NewCalendar(puzzles []puzzle.Puzzle, salt string, book *Book) (*Calendar, error) {
	c := &Calendar{salt: salt, pinned: make(map[string]puzzle.Puzzle)}
	for i, p := range puzzles {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("recipes: puzzle %d (%s): %w", i+1, p.TargetElement, err)
		}
		if book != nil {
			if err := checkPath(book, p); err != nil {
				return nil, fmt.Errorf("recipes: puzzle %d (%s): %w", i+1, p.TargetElement, err)
			}
		}
		if p.Date == "" {
			c.pool = append(c.pool, p)
			continue
		}
		if _, err := daily.ParseDate(p.Date); err != nil {
			return nil, fmt.Errorf("recipes: puzzle %d: bad date %q", i+1, p.Date)
		}
		c.pinned[p.Date] = p
	}
	if len(c.pool) == 0 && len(c.pinned) == 0 {
		return nil, fmt.Errorf("recipes: calendar is empty")
	}
	return c, nil
}

func checkPath(book *Book, p puzzle.Puzzle) error {
	for i, s := range p.SolutionPath {
		r, ok := book.Lookup(s.ElementA, s.ElementB, s.Op())
		if !ok {
			return fmt.Errorf("step %d: %s %s %s is not in the recipe book", i+1, s.ElementA, s.Op(), s.ElementB)
		}
		if !strings.EqualFold(r.Element, s.Result) {
			return fmt.Errorf("step %d: book gives %q, path says %q", i+1, r.Element, s.Result)
		}
	}
	return nil
}

// ForDate returns the puzzle for date (YYYY-MM-DD).
func (c *Calendar) ForDate(date string) (*puzzle.Puzzle, error) {
	if _, err := daily.ParseDate(date); err != nil {
		return nil, errs.Wrap(errs.KindInvalidArgument, "puzzle for date", err)
	}
	p, ok := c.pinned[date]
	if !ok {
		if len(c.pool) == 0 {
			return nil, errs.New(errs.KindNotFound, "no puzzle for "+date)
		}
		p = c.pool[daily.Index(date, c.salt, len(c.pool))]
	}
	p.Date = date
	p.Number = daily.Number(date)
	p.SolutionPath = append([]puzzle.Step(nil), p.SolutionPath...)
	return &p, nil
}

// Size returns the pinned and pool counts.
func (c *Calendar) Size() (pinned, pool int) { return len(c.pinned), len(c.pool) }
