// internal/element/catalog.go
//
// Catalog holds every element available in the current session.
// Responsibilities:
//   - Case-insensitive add / contains with newest-first ordering.
//   - Sorted, filtered views (newest, alphabetical, first discoveries, most used).
//   - Favorites (bounded) and per-element usage counts.
//
// A Catalog is not safe for concurrent use; the game controller owns it.
package element

import (
	"iter"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Sort selects the ordering of a catalog view.
type Sort int

const (
	SortNewest Sort = iota
	SortAlphabetical
	SortFirstDiscoveries
	SortMostUsed
)

// ParseSort maps the wire names of sort orders; unknown names fall back to newest.
func ParseSort(s string) Sort {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "alphabetical", "az":
		return SortAlphabetical
	case "first_discoveries", "firsts":
		return SortFirstDiscoveries
	case "most_used", "usage":
		return SortMostUsed
	default:
		return SortNewest
	}
}

// DefaultMaxFavorites bounds the favorites set.
const DefaultMaxFavorites = 20

// ViewOptions parameterizes Catalog.View.
type ViewOptions struct {
	Sort  Sort
	Query string
}

// Catalog is an indexed collection of elements.
type Catalog struct {
	items []Element
	index map[string]int // Key(name) -> position in items
	seq   uint64

	favorites    map[string]string // key -> display name
	maxFavorites int
	usage        map[string]int
	firsts       map[string]struct{}
}

// NewCatalog returns a catalog seeded with the starters.
func NewCatalog(maxFavorites int) *Catalog {
	if maxFavorites <= 0 {
		maxFavorites = DefaultMaxFavorites
	}
	c := &Catalog{maxFavorites: maxFavorites}
	c.Reset()
	return c
}

// Reset drops everything except the starters. Usage counts survive; they
// are device-wide rather than per session.
func (c *Catalog) Reset() {
	c.items = c.items[:0]
	c.index = make(map[string]int)
	c.seq = 0
	c.favorites = make(map[string]string)
	c.firsts = make(map[string]struct{})
	if c.usage == nil {
		c.usage = make(map[string]int)
	}
	for _, s := range Starters() {
		c.Add(s)
	}
}

// Load resets to starters and then adds bank in order.
func (c *Catalog) Load(bank []Element) {
	c.Reset()
	for _, e := range bank {
		c.Add(e)
	}
}

// Add appends e unless an element with the same name is present.
// It reports whether the element was new.
func (c *Catalog) Add(e Element) bool {
	k := Key(e.Name)
	if k == "" {
		return false
	}
	if _, ok := c.index[k]; ok {
		return false
	}
	e.Name = strings.TrimSpace(e.Name)
	if IsStarterName(e.Name) {
		e.IsStarter = true
	}
	c.seq++
	e.DiscoveredAt = c.seq
	c.index[k] = len(c.items)
	c.items = append(c.items, e)
	return true
}

// Contains reports whether name is in the catalog.
func (c *Catalog) Contains(name string) bool {
	_, ok := c.index[Key(name)]
	return ok
}

// Get returns the stored element for name.
func (c *Catalog) Get(name string) (Element, bool) {
	i, ok := c.index[Key(name)]
	if !ok {
		return Element{}, false
	}
	return c.items[i], true
}

// Len returns the number of elements, starters included.
func (c *Catalog) Len() int { return len(c.items) }

// All returns a copy of the elements in insertion order.
func (c *Catalog) All() []Element {
	out := make([]Element, len(c.items))
	copy(out, c.items)
	return out
}

// Discovered returns the non-starter elements in insertion order.
func (c *Catalog) Discovered() []Element {
	out := make([]Element, 0, len(c.items))
	for _, e := range c.items {
		if !e.IsStarter {
			out = append(out, e)
		}
	}
	return out
}

// Names returns every element name in insertion order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.items))
	for i, e := range c.items {
		out[i] = e.Name
	}
	return out
}

// Emojis maps element name to emoji.
func (c *Catalog) Emojis() map[string]string {
	out := make(map[string]string, len(c.items))
	for _, e := range c.items {
		out[e.Name] = e.Emoji
	}
	return out
}

// View returns the catalog ordered by opts.Sort and filtered by opts.Query.
// The returned sequence is lazy over a snapshot; the catalog is not modified.
func (c *Catalog) View(opts ViewOptions) iter.Seq[Element] {
	order := c.order(opts.Sort)
	query := Key(opts.Query)
	rawQuery := strings.TrimSpace(opts.Query)
	items := c.All()

	return func(yield func(Element) bool) {
		for _, i := range order {
			e := items[i]
			if query != "" && !strings.Contains(Key(e.Name), query) && !strings.Contains(e.Emoji, rawQuery) {
				continue
			}
			if !yield(e) {
				return
			}
		}
	}
}

// order returns item positions sorted for s.
func (c *Catalog) order(s Sort) []int {
	n := len(c.items)
	newest := make([]int, n)
	for i := range newest {
		newest[i] = n - 1 - i
	}

	switch s {
	case SortAlphabetical:
		col := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(newest, func(a, b int) bool {
			return col.CompareString(c.items[newest[a]].Name, c.items[newest[b]].Name) < 0
		})
	case SortFirstDiscoveries:
		sort.SliceStable(newest, func(a, b int) bool {
			return c.isFirst(newest[a]) && !c.isFirst(newest[b])
		})
	case SortMostUsed:
		col := collate.New(language.English, collate.IgnoreCase)
		sort.SliceStable(newest, func(a, b int) bool {
			ea, eb := c.items[newest[a]], c.items[newest[b]]
			ua, ub := c.usage[Key(ea.Name)], c.usage[Key(eb.Name)]
			if ua != ub {
				return ua > ub
			}
			return col.CompareString(ea.Name, eb.Name) < 0
		})
	}
	return newest
}

func (c *Catalog) isFirst(i int) bool {
	_, ok := c.firsts[Key(c.items[i].Name)]
	return ok
}

// MarkFirstDiscovery pins name under SortFirstDiscoveries.
func (c *Catalog) MarkFirstDiscovery(name string) {
	c.firsts[Key(name)] = struct{}{}
}

// SetFirstDiscoveries replaces the first-discovery marks.
func (c *Catalog) SetFirstDiscoveries(names []string) {
	c.firsts = make(map[string]struct{}, len(names))
	for _, n := range names {
		c.MarkFirstDiscovery(n)
	}
}

// ----------------------------- favorites -----------------------------------

// ToggleFavorite flips membership of name. Adding beyond capacity is a
// silent no-op. It reports whether name is a favorite afterwards.
func (c *Catalog) ToggleFavorite(name string) bool {
	k := Key(name)
	if _, ok := c.favorites[k]; ok {
		delete(c.favorites, k)
		return false
	}
	if len(c.favorites) >= c.maxFavorites {
		return false
	}
	display := strings.TrimSpace(name)
	if e, ok := c.Get(name); ok {
		display = e.Name
	}
	c.favorites[k] = display
	return true
}

// IsFavorite reports favorite membership.
func (c *Catalog) IsFavorite(name string) bool {
	_, ok := c.favorites[Key(name)]
	return ok
}

// Favorites returns favorite names sorted case-insensitively.
func (c *Catalog) Favorites() []string {
	out := make([]string, 0, len(c.favorites))
	for _, n := range c.favorites {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return Key(out[i]) < Key(out[j]) })
	return out
}

// SetFavorites replaces the favorites set, truncating at capacity.
func (c *Catalog) SetFavorites(names []string) {
	c.favorites = make(map[string]string, len(names))
	for _, n := range names {
		if len(c.favorites) >= c.maxFavorites {
			break
		}
		if k := Key(n); k != "" {
			c.favorites[k] = strings.TrimSpace(n)
		}
	}
}

// ClearFavorites empties the favorites set.
func (c *Catalog) ClearFavorites() {
	c.favorites = make(map[string]string)
}

// ------------------------------- usage -------------------------------------

// IncrementUsage bumps the usage count of name by one.
func (c *Catalog) IncrementUsage(name string) {
	c.usage[Key(name)]++
}

// Usage returns the usage count of name.
func (c *Catalog) Usage(name string) int {
	return c.usage[Key(name)]
}

// UsageCounts returns a copy of all usage counts keyed by folded name.
func (c *Catalog) UsageCounts() map[string]int {
	out := make(map[string]int, len(c.usage))
	for k, v := range c.usage {
		out[k] = v
	}
	return out
}

// SetUsage replaces the usage counts.
func (c *Catalog) SetUsage(counts map[string]int) {
	c.usage = make(map[string]int, len(counts))
	for k, v := range counts {
		c.usage[Key(k)] = v
	}
}
