package quiz

import (
	"sort"
	"sync"

	"quran-quiz-service/internal/domain"
	"quran-quiz-service/internal/generators"
)

// Archetype is a question template gated by player level, bound to its
// generation capability. Immutable once the catalog is built.
type Archetype struct {
	ID       string
	MinLevel int
	Arity    int
	Generate generators.Generator
}

// Catalog is an immutable set of archetypes. Rebuilding produces a new
// Catalog; readers never observe a partially loaded one.
type Catalog struct {
	byID  map[string]Archetype
	order []string
}

// BuildCatalog filters config entries down to active ones with a registered
// generator. Unresolvable entries are dropped, not fatal.
func BuildCatalog(entries []domain.ArchetypeConfig, registry generators.Registry) *Catalog {
	byID := make(map[string]Archetype, len(entries))
	for _, e := range entries {
		if !e.Active {
			continue
		}
		gen, ok := registry[e.ID]
		if !ok {
			continue
		}
		arity := e.OptionsCount
		if arity < 2 {
			arity = 4
		}
		byID[e.ID] = Archetype{ID: e.ID, MinLevel: e.MinLevel, Arity: arity, Generate: gen}
	}
	order := make([]string, 0, len(byID))
	for id := range byID {
		order = append(order, id)
	}
	sort.Strings(order)
	return &Catalog{byID: byID, order: order}
}

// Lookup resolves an archetype by id.
func (c *Catalog) Lookup(id string) (Archetype, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// Eligible returns the archetypes available at the given player level, in
// stable id order so that seeded planning is reproducible.
func (c *Catalog) Eligible(level int) []Archetype {
	out := make([]Archetype, 0, len(c.order))
	for _, id := range c.order {
		if a := c.byID[id]; a.MinLevel <= level {
			out = append(out, a)
		}
	}
	return out
}

// Len reports the number of loaded archetypes.
func (c *Catalog) Len() int {
	return len(c.byID)
}

// CatalogProvider holds the current catalog and swaps it wholesale on reload.
type CatalogProvider struct {
	mu      sync.RWMutex
	current *Catalog
}

func NewCatalogProvider(c *Catalog) *CatalogProvider {
	return &CatalogProvider{current: c}
}

// Current returns the live catalog.
func (p *CatalogProvider) Current() *Catalog {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Replace installs a rebuilt catalog atomically.
func (p *CatalogProvider) Replace(c *Catalog) {
	p.mu.Lock()
	p.current = c
	p.mu.Unlock()
}
