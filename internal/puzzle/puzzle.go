// internal/puzzle/puzzle.go
//
// Core type definitions for a daily alchemy puzzle.
// Defines:
//   - Operator: combine (+) or subtract (−).
//   - Step:     one edge of the solution path (A op B -> result).
//   - Puzzle:   the read-only daily artifact.
//   - Key:      uniqueness key for a combination (commutative for +).
package puzzle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robalobadob/alchemy/internal/element"
)

// Operator is the combination operator.
type Operator string

const (
	OpCombine  Operator = "+"
	OpSubtract Operator = "-"
)

// ParseOperator accepts the symbols and the oracle's mode names.
// Empty input means combine.
func ParseOperator(s string) (Operator, error) {
	switch strings.TrimSpace(s) {
	case "", "+", "combine":
		return OpCombine, nil
	case "-", "−", "subtract":
		return OpSubtract, nil
	}
	return "", fmt.Errorf("unknown operator %q", s)
}

// Mode returns the oracle mode name for o.
func (o Operator) Mode() string {
	if o == OpSubtract {
		return "subtract"
	}
	return "combine"
}

// Flip toggles between + and −.
func (o Operator) Flip() Operator {
	if o == OpSubtract {
		return OpCombine
	}
	return OpSubtract
}

// Step is one combination of the solution path.
type Step struct {
	ElementA string   `json:"elementA"`
	ElementB string   `json:"elementB"`
	Result   string   `json:"result"`
	Operator Operator `json:"operator,omitempty"`
}

// Op returns the step operator, defaulting to combine.
func (s Step) Op() Operator {
	if s.Operator == "" {
		return OpCombine
	}
	return s.Operator
}

// Puzzle is the daily artifact fetched from the puzzle service.
type Puzzle struct {
	Number        int    `json:"number"`
	Date          string `json:"date"`
	TargetElement string `json:"targetElement"`
	TargetEmoji   string `json:"targetEmoji"`
	ParMoves      int    `json:"parMoves"`
	SolutionPath  []Step `json:"solutionPath"`
}

// Validate checks the structural invariants of a puzzle: positive par, a
// non-empty path ending at the target, and every operand either a starter
// or produced by an earlier step.
func (p *Puzzle) Validate() error {
	if p == nil {
		return errors.New("puzzle is nil")
	}
	if strings.TrimSpace(p.TargetElement) == "" {
		return errors.New("puzzle has no target element")
	}
	if p.ParMoves <= 0 {
		return fmt.Errorf("par must be positive, got %d", p.ParMoves)
	}
	if len(p.SolutionPath) == 0 {
		return errors.New("solution path is empty")
	}
	last := p.SolutionPath[len(p.SolutionPath)-1]
	if !element.Equal(last.Result, p.TargetElement) {
		return fmt.Errorf("solution path ends at %q, not %q", last.Result, p.TargetElement)
	}
	produced := make(map[string]struct{})
	for _, s := range element.Starters() {
		produced[element.Key(s.Name)] = struct{}{}
	}
	for i, s := range p.SolutionPath {
		for _, in := range []string{s.ElementA, s.ElementB} {
			if _, ok := produced[element.Key(in)]; !ok {
				return fmt.Errorf("step %d uses %q before it is produced", i+1, in)
			}
		}
		produced[element.Key(s.Result)] = struct{}{}
	}
	return nil
}

// IsTarget reports whether name is the puzzle target (case-insensitive).
func (p *Puzzle) IsTarget(name string) bool {
	return p != nil && element.Equal(p.TargetElement, name)
}

// Key identifies a combination for move counting.
type Key struct {
	A, B string
	Op   Operator
}

// KeyOf builds the key for (a op b). Combine is commutative, so its operands
// are sorted; subtract keeps order.
func KeyOf(a, b string, op Operator) Key {
	ka, kb := element.Key(a), element.Key(b)
	if op != OpSubtract && kb < ka {
		ka, kb = kb, ka
	}
	if op == "" {
		op = OpCombine
	}
	return Key{A: ka, B: kb, Op: op}
}

// String renders the key as "a+b" or "a-b".
func (k Key) String() string {
	return k.A + string(k.Op) + k.B
}

// ParComparison renders moves − par as "0", "+N" or "−N".
func ParComparison(moves, par int) string {
	d := moves - par
	switch {
	case d > 0:
		return fmt.Sprintf("+%d", d)
	case d < 0:
		return fmt.Sprintf("−%d", -d)
	default:
		return "0"
	}
}
