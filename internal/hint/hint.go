// internal/hint/hint.go
//
// Chooses which intermediate element of the solution path to reveal next.
//
// Candidates are steps whose result is undiscovered and whose operands are
// both discovered. Among candidates the deepest step in the solution DAG
// wins (closest to the target); ties prefer fewer starter operands, then the
// earliest step. When no candidate exists the engine looks at the last
// unbuilt step and tries to reveal a buildable producer of its missing
// operand.
//
// The hint text is cosmetic; only the chosen element matters.
package hint

import (
	"fmt"
	"math/rand/v2"

	"github.com/robalobadob/alchemy/internal/element"
	"github.com/robalobadob/alchemy/internal/puzzle"
)

// Choice is the outcome of Pick.
type Choice struct {
	Element string
	Index   int // position in the solution path
	Step    puzzle.Step
}

// Pick returns the next element to hint, or ok=false when nothing is
// buildable from the discovered set.
func Pick(path []puzzle.Step, discovered func(name string) bool) (Choice, bool) {
	depth := depths(path)

	best := -1
	for i, s := range path {
		if discovered(s.Result) || !discovered(s.ElementA) || !discovered(s.ElementB) {
			continue
		}
		if best < 0 || better(path, depth, i, best) {
			best = i
		}
	}
	if best >= 0 {
		return Choice{Element: path[best].Result, Index: best, Step: path[best]}, true
	}

	for i := len(path) - 1; i >= 0; i-- {
		s := path[i]
		if discovered(s.Result) {
			continue
		}
		for _, missing := range []string{s.ElementA, s.ElementB} {
			if discovered(missing) {
				continue
			}
			for j := 0; j < i; j++ {
				p := path[j]
				if element.Equal(p.Result, missing) && discovered(p.ElementA) && discovered(p.ElementB) {
					return Choice{Element: p.Result, Index: j, Step: p}, true
				}
			}
		}
		break
	}
	return Choice{}, false
}

// better reports whether step i outranks step j.
func better(path []puzzle.Step, depth []int, i, j int) bool {
	if depth[i] != depth[j] {
		return depth[i] > depth[j]
	}
	si, sj := starterOperands(path[i]), starterOperands(path[j])
	if si != sj {
		return si < sj
	}
	return i < j
}

// depths returns, per step, its level in the solution DAG: starters (and
// anything not produced earlier in the path) sit at level 0.
func depths(path []puzzle.Step) []int {
	producedAt := make(map[string]int)
	out := make([]int, len(path))
	for i, s := range path {
		d := 0
		for _, in := range []string{s.ElementA, s.ElementB} {
			if j, ok := producedAt[element.Key(in)]; ok && out[j] > d {
				d = out[j]
			}
		}
		out[i] = d + 1
		if _, ok := producedAt[element.Key(s.Result)]; !ok {
			producedAt[element.Key(s.Result)] = i
		}
	}
	return out
}

func starterOperands(s puzzle.Step) int {
	n := 0
	if element.IsStarterName(s.ElementA) {
		n++
	}
	if element.IsStarterName(s.ElementB) {
		n++
	}
	return n
}

var templates = []string{
	"Try making %s next.",
	"You're one step from %s.",
	"Have you thought about %s?",
	"%s is within reach.",
	"The path continues through %s.",
}

// Message renders a randomized hint sentence for name.
func Message(name string, r *rand.Rand) string {
	if r == nil {
		return fmt.Sprintf(templates[rand.IntN(len(templates))], name)
	}
	return fmt.Sprintf(templates[r.IntN(len(templates))], name)
}
