package targets

import (
	"sort"

	"github.com/marchkit/marchkit/errors"
)

// Catalog maps microarchitecture names to fully resolved entities. It is
// built once from a validated Document and read-only afterwards.
type Catalog struct {
	entries map[string]*Microarchitecture
	aliases map[string]Predicate
}

// NewCatalog builds the catalog from a validated document. Parents are
// materialized recursively before their children, feature aliases are
// resolved against the predicate registry, and every entry is checked to
// belong to exactly one architecture family. Any extraNames without a
// dataset entry get a synthetic generic entry so lookups for the host's
// machine type never fail outright.
func NewCatalog(doc *Document, predicates *PredicateRegistry, extraNames ...string) (*Catalog, error) {
	catalog := &Catalog{
		entries: make(map[string]*Microarchitecture, len(doc.Microarchitectures)),
		aliases: make(map[string]Predicate, len(doc.FeatureAliases)),
	}

	for alias, rules := range doc.FeatureAliases {
		predicate, err := predicates.Build(rules)
		if err != nil {
			return nil, errors.Wrapf(err, "feature alias %q", alias)
		}
		catalog.aliases[alias] = predicate
	}

	// Deterministic construction order
	names := make([]string, 0, len(doc.Microarchitectures))
	for name := range doc.Microarchitectures {
		names = append(names, name)
	}
	sort.Strings(names)

	building := make(map[string]bool)
	for _, name := range names {
		if err := catalog.fill(name, doc, building); err != nil {
			return nil, err
		}
	}

	// Single-root invariant holds for every entry or the dataset is
	// unusable
	for _, name := range names {
		if _, err := catalog.entries[name].Family(); err != nil {
			return nil, err
		}
	}

	for _, name := range extraNames {
		if _, ok := catalog.entries[name]; !ok {
			generic := GenericMicroarchitecture(name)
			generic.aliases = catalog.aliasLookup
			catalog.entries[name] = generic
		}
	}

	return catalog, nil
}

// fill materializes one entry, recursing into its parents first so a
// child is never constructed before all its named parents exist.
func (c *Catalog) fill(name string, doc *Document, building map[string]bool) error {
	if _, done := c.entries[name]; done {
		return nil
	}
	if building[name] {
		return errors.NewSchemaError("entry %q participates in a parent cycle", name)
	}
	building[name] = true
	defer delete(building, name)

	entry, ok := doc.Microarchitectures[name]
	if !ok {
		return errors.NewSchemaError("entry %q is named as a parent but never defined", name)
	}

	parents := make([]*Microarchitecture, 0, len(entry.From))
	for _, parent := range entry.From {
		if err := c.fill(parent, doc, building); err != nil {
			return err
		}
		parents = append(parents, c.entries[parent])
	}

	target := NewMicroarchitecture(name, entry.Vendor, parents, entry.Features, entry.Compilers, entry.Generation)
	target.aliases = c.aliasLookup
	c.entries[name] = target
	return nil
}

func (c *Catalog) aliasLookup(name string) (Predicate, bool) {
	predicate, ok := c.aliases[name]
	return predicate, ok
}

// Lookup returns the catalog entry with the given name.
func (c *Catalog) Lookup(name string) (*Microarchitecture, bool) {
	target, ok := c.entries[name]
	return target, ok
}

// Names returns all catalog entry names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// each calls fn for every entry in sorted name order.
func (c *Catalog) each(fn func(*Microarchitecture)) {
	for _, name := range c.Names() {
		fn(c.entries[name])
	}
}
