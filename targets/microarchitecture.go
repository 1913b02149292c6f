package targets

import (
	"maps"
	"slices"
	"sort"
	"sync"

	"github.com/marchkit/marchkit/errors"
)

// Microarchitecture is a specific CPU microarchitecture.
//
// Parenthood is by CPU features, not chronology: a microarchitecture can
// run binaries tuned for any of its ancestors. "haswell" has "broadwell"
// among its descendants; "haswell" itself descends from "x86_64".
//
// Values are immutable once constructed. The semantics of Features vary
// by family: x86_64 entries list every supported flag, other families may
// list only the flags added on top of a base model.
type Microarchitecture struct {
	// Name of the microarchitecture (e.g. skylake). Catalog key.
	Name string
	// Vendor of the microarchitecture, "generic" for vendor-neutral entries.
	Vendor string
	// Features is the set of supported CPU flags.
	Features map[string]struct{}
	// Parents are the direct ancestors, in dataset order. Zero, one,
	// or many (multiple inheritance of compatibility).
	Parents []*Microarchitecture
	// Compilers maps a compiler name to the tuning records that can
	// generate code for this microarchitecture.
	Compilers map[string][]CompilerSpec
	// Generation of the microarchitecture, when relevant (POWER7 vs
	// POWER8). Used only to break ties inside one family's
	// compatibility check.
	Generation int

	// aliases resolves feature aliases for Contains. Set by the
	// catalog that built this entity; nil means no aliases defined.
	aliases aliasLookup

	ancestorsOnce sync.Once
	ancestors     []*Microarchitecture
}

type aliasLookup func(name string) (Predicate, bool)

// NewMicroarchitecture constructs an immutable Microarchitecture value.
// Parents must already be fully constructed.
func NewMicroarchitecture(name, vendor string, parents []*Microarchitecture, features []string, compilers map[string][]CompilerSpec, generation int) *Microarchitecture {
	featureSet := make(map[string]struct{}, len(features))
	for _, f := range features {
		featureSet[f] = struct{}{}
	}
	return &Microarchitecture{
		Name:       name,
		Vendor:     vendor,
		Features:   featureSet,
		Parents:    parents,
		Compilers:  compilers,
		Generation: generation,
	}
}

// GenericMicroarchitecture returns a generic microarchitecture with no
// parents, no features and vendor "generic".
func GenericMicroarchitecture(name string) *Microarchitecture {
	return NewMicroarchitecture(name, "generic", nil, nil, nil, 0)
}

// Ancestors returns the transitive closure of Parents, computed once and
// cached. The order is stable: the direct parents first, then each
// parent's own ancestors that were not already seen.
func (m *Microarchitecture) Ancestors() []*Microarchitecture {
	m.ancestorsOnce.Do(func() {
		seen := make(map[string]struct{}, len(m.Parents))
		closure := make([]*Microarchitecture, 0, len(m.Parents))
		for _, p := range m.Parents {
			if _, ok := seen[p.Name]; !ok {
				seen[p.Name] = struct{}{}
				closure = append(closure, p)
			}
		}
		for _, p := range m.Parents {
			for _, a := range p.Ancestors() {
				if _, ok := seen[a.Name]; !ok {
					seen[a.Name] = struct{}{}
					closure = append(closure, a)
				}
			}
		}
		m.ancestors = closure
	})
	return m.ancestors
}

// Family returns the architecture family this microarchitecture belongs
// to: the unique member of the entity and its ancestors that has no
// ancestors of its own. Zero or multiple roots indicate a malformed
// dataset and yield an assertion error.
func (m *Microarchitecture) Family() (*Microarchitecture, error) {
	var roots []*Microarchitecture
	for _, candidate := range append([]*Microarchitecture{m}, m.Ancestors()...) {
		if len(candidate.Ancestors()) == 0 {
			roots = append(roots, candidate)
		}
	}
	if len(roots) != 1 {
		names := make([]string, len(roots))
		for i, r := range roots {
			names[i] = r.Name
		}
		return nil, errors.AssertionFailedf(
			"target %s must belong to exactly one architecture family, found %d: %v",
			m.Name, len(roots), names)
	}
	return roots[0], nil
}

// Contains reports whether the microarchitecture supports the named
// feature, either as a raw flag or through a feature alias. An unknown
// alias name is false, not an error.
func (m *Microarchitecture) Contains(feature string) bool {
	if _, ok := m.Features[feature]; ok {
		return true
	}
	if m.aliases == nil {
		return false
	}
	predicate, ok := m.aliases(feature)
	if !ok {
		return false
	}
	return predicate(m)
}

// Equal reports structural equality: name, vendor, features, computed
// ancestor closure, compilers and generation all match. Two instances
// built from the same dataset entry are equal regardless of identity.
func (m *Microarchitecture) Equal(other *Microarchitecture) bool {
	if m == other {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	return m.Name == other.Name &&
		m.Vendor == other.Vendor &&
		maps.Equal(m.Features, other.Features) &&
		slices.Equal(m.ancestorNames(), other.ancestorNames()) &&
		maps.EqualFunc(m.Compilers, other.Compilers, slices.Equal) &&
		m.Generation == other.Generation
}

// Less reports whether m is a strict ancestor of other. Comparing two
// microarchitectures related in neither direction yields ErrIncomparable,
// never a false result.
func (m *Microarchitecture) Less(other *Microarchitecture) (bool, error) {
	if m.Equal(other) {
		return false, nil
	}
	if containsTarget(other.Ancestors(), m) {
		return true, nil
	}
	if containsTarget(m.Ancestors(), other) {
		return false, nil
	}
	return false, errors.Wrapf(errors.ErrIncomparable,
		"between targets %s and %s", m.Name, other.Name)
}

// LessEqual is Equal or Less.
func (m *Microarchitecture) LessEqual(other *Microarchitecture) (bool, error) {
	if m.Equal(other) {
		return true, nil
	}
	return m.Less(other)
}

// Greater is the negation of LessEqual over comparable pairs.
func (m *Microarchitecture) Greater(other *Microarchitecture) (bool, error) {
	le, err := m.LessEqual(other)
	if err != nil {
		return false, err
	}
	return !le, nil
}

// GreaterEqual is the negation of Less over comparable pairs.
func (m *Microarchitecture) GreaterEqual(other *Microarchitecture) (bool, error) {
	lt, err := m.Less(other)
	if err != nil {
		return false, err
	}
	return !lt, nil
}

// FeatureList returns the feature flags in sorted order.
func (m *Microarchitecture) FeatureList() []string {
	features := make([]string, 0, len(m.Features))
	for f := range m.Features {
		features = append(features, f)
	}
	sort.Strings(features)
	return features
}

// ParentNames returns the direct parent names in dataset order.
func (m *Microarchitecture) ParentNames() []string {
	names := make([]string, len(m.Parents))
	for i, p := range m.Parents {
		names[i] = p.Name
	}
	return names
}

// ToMap exports the entity as name, vendor, sorted features, generation
// and parent names. Re-importing the map through a dataset entry yields
// an equal entity under Equal.
func (m *Microarchitecture) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"name":       m.Name,
		"vendor":     m.Vendor,
		"features":   m.FeatureList(),
		"generation": m.Generation,
		"parents":    m.ParentNames(),
	}
}

// String returns the microarchitecture name.
func (m *Microarchitecture) String() string {
	return m.Name
}

func (m *Microarchitecture) ancestorNames() []string {
	ancestors := m.Ancestors()
	names := make([]string, len(ancestors))
	for i, a := range ancestors {
		names[i] = a.Name
	}
	return names
}

func containsTarget(list []*Microarchitecture, target *Microarchitecture) bool {
	for _, candidate := range list {
		if candidate.Equal(target) {
			return true
		}
	}
	return false
}
