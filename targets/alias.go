package targets

import (
	"sort"
	"sync"

	"github.com/marchkit/marchkit/errors"
)

// Predicate is a boolean test over a microarchitecture. Feature aliases
// are built by AND-ing predicates together.
type Predicate func(*Microarchitecture) bool

// PredicateBuilder constructs a Predicate from the arguments an alias
// rule carries in the dataset. Builders validate their own arguments.
type PredicateBuilder func(args interface{}) (Predicate, error)

// PredicateRegistry holds the named predicate kinds usable inside the
// dataset's feature_aliases section. Read-mostly: kinds are registered at
// process initialization and never removed.
type PredicateRegistry struct {
	mu       sync.RWMutex
	builders map[string]PredicateBuilder
}

// NewPredicateRegistry creates an empty predicate registry.
func NewPredicateRegistry() *PredicateRegistry {
	return &PredicateRegistry{builders: make(map[string]PredicateBuilder)}
}

// Register adds a new predicate kind. Registering a kind name twice
// yields ErrDuplicatePredicate.
func (r *PredicateRegistry) Register(kind string, builder PredicateBuilder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[kind]; exists {
		return errors.Wrapf(errors.ErrDuplicatePredicate, "kind %q", kind)
	}
	r.builders[kind] = builder
	return nil
}

// Kinds returns the registered predicate kind names in sorted order.
func (r *PredicateRegistry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.builders))
	for kind := range r.builders {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Build resolves an alias rule set into a single predicate satisfied
// only when every rule's predicate is satisfied. A rule naming an
// unregistered kind yields ErrUnknownPredicate; this surfaces when the
// alias is built, not when the dataset is loaded.
func (r *PredicateRegistry) Build(rules map[string]interface{}) (Predicate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Deterministic build order so argument errors are stable
	kinds := make([]string, 0, len(rules))
	for kind := range rules {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	predicates := make([]Predicate, 0, len(rules))
	for _, kind := range kinds {
		builder, ok := r.builders[kind]
		if !ok {
			return nil, errors.Wrapf(errors.ErrUnknownPredicate, "kind %q", kind)
		}
		predicate, err := builder(rules[kind])
		if err != nil {
			return nil, errors.Wrapf(err, "building predicate %q", kind)
		}
		predicates = append(predicates, predicate)
	}

	return func(m *Microarchitecture) bool {
		for _, predicate := range predicates {
			if !predicate(m) {
				return false
			}
		}
		return true
	}, nil
}

var (
	defaultPredicates     *PredicateRegistry
	defaultPredicatesOnce sync.Once
)

// DefaultPredicates returns the process-wide predicate registry,
// populated with the built-in kinds on first access.
func DefaultPredicates() *PredicateRegistry {
	defaultPredicatesOnce.Do(func() {
		defaultPredicates = NewPredicateRegistry()
		registerBuiltinPredicates(defaultPredicates)
	})
	return defaultPredicates
}

// registerBuiltinPredicates installs the predicate kinds every dataset
// may use. Registration cannot collide here: the registry is empty.
func registerBuiltinPredicates(r *PredicateRegistry) {
	// reason: always satisfied. Lets the dataset document why an alias
	// exists.
	must(r.Register("reason", func(args interface{}) (Predicate, error) {
		if _, ok := args.(string); !ok {
			return nil, errors.Newf("reason wants a string, got %T", args)
		}
		return func(*Microarchitecture) bool { return true }, nil
	}))

	// any_of: satisfied when the target contains at least one of the
	// listed features.
	must(r.Register("any_of", func(args interface{}) (Predicate, error) {
		features, err := stringList(args)
		if err != nil {
			return nil, err
		}
		return func(m *Microarchitecture) bool {
			for _, f := range features {
				if m.Contains(f) {
					return true
				}
			}
			return false
		}, nil
	}))

	// families: satisfied when the target's architecture family is one
	// of the listed names.
	must(r.Register("families", func(args interface{}) (Predicate, error) {
		names, err := stringList(args)
		if err != nil {
			return nil, err
		}
		return func(m *Microarchitecture) bool {
			family, err := m.Family()
			if err != nil {
				return false
			}
			for _, name := range names {
				if family.Name == name {
					return true
				}
			}
			return false
		}, nil
	}))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// stringList coerces alias rule arguments into a string slice. JSON and
// YAML decoding both hand lists over as []interface{}.
func stringList(args interface{}) ([]string, error) {
	switch v := args.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.Newf("list element %d is %T, want string", i, item)
			}
			out[i] = s
		}
		return out, nil
	default:
		return nil, errors.Newf("want a list of strings, got %T", args)
	}
}
