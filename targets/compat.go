package targets

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/marchkit/marchkit/errors"
)

// CheckFunc decides whether a target microarchitecture is compatible
// with the host described by a raw info record. machine is the host's
// raw machine type, which is also the family name the check was
// registered under. A returned error is fatal to detection; "not
// compatible" is (false, nil).
type CheckFunc func(info RawInfo, machine string, target *Microarchitecture) (bool, error)

// CompatRegistry maps architecture family names to their compatibility
// check. One check per family: registering a family name again replaces
// the earlier check. Last registration wins; this is deliberate, so a
// consumer can override a built-in check without forking the registry.
type CompatRegistry struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

// NewCompatRegistry creates an empty compatibility check registry.
func NewCompatRegistry() *CompatRegistry {
	return &CompatRegistry{checks: make(map[string]CheckFunc)}
}

// Register installs a check for one or more architecture family names.
func (r *CompatRegistry) Register(check CheckFunc, families ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, family := range families {
		r.checks[family] = check
	}
}

// Lookup returns the check registered for a family name.
func (r *CompatRegistry) Lookup(family string) (CheckFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	check, ok := r.checks[family]
	return check, ok
}

// Families returns the family names with a registered check, sorted.
func (r *CompatRegistry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	families := make([]string, 0, len(r.checks))
	for family := range r.checks {
		families = append(families, family)
	}
	sort.Strings(families)
	return families
}

var (
	defaultChecks     *CompatRegistry
	defaultChecksOnce sync.Once
)

// DefaultChecks returns the process-wide compatibility check registry,
// populated with the built-in family checks on first access.
func DefaultChecks() *CompatRegistry {
	defaultChecksOnce.Do(func() {
		defaultChecks = NewCompatRegistry()
		registerBuiltinChecks(defaultChecks)
	})
	return defaultChecks
}

func registerBuiltinChecks(r *CompatRegistry) {
	r.Register(checkX8664, "x86_64")
	r.Register(checkPower, "ppc64le", "ppc64")
}

// checkX8664 accepts a target that descends from the x86_64 root, comes
// from the host's vendor (or is vendor-neutral), and whose features the
// host all reports.
func checkX8664(info RawInfo, machine string, target *Microarchitecture) (bool, error) {
	family, err := target.Family()
	if err != nil {
		return false, err
	}
	if family.Name != machine {
		return false, nil
	}

	vendor := info["vendor_id"]
	if vendor == "" {
		vendor = "generic"
	}
	if target.Vendor != vendor && target.Vendor != "generic" {
		return false, nil
	}

	hostFlags := make(map[string]struct{})
	for _, flag := range strings.Fields(info["flags"]) {
		hostFlags[flag] = struct{}{}
	}
	for feature := range target.Features {
		if _, ok := hostFlags[feature]; !ok {
			return false, nil
		}
	}
	return true, nil
}

var powerGenerationRe = regexp.MustCompile(`POWER(\d+)`)

// checkPower accepts a target in the host machine type's family whose
// generation does not exceed the host's POWER generation (9 for POWER9,
// and so on). A cpu field without a POWER<digits> token means the
// collector produced an unusable record, which is fatal.
func checkPower(info RawInfo, machine string, target *Microarchitecture) (bool, error) {
	match := powerGenerationRe.FindStringSubmatch(info["cpu"])
	if match == nil {
		return false, errors.NewCollectorError("no POWER generation in cpu field %q", info["cpu"])
	}
	generation, err := strconv.Atoi(match[1])
	if err != nil {
		return false, errors.NewCollectorError("POWER generation %q is not a number", match[1])
	}

	family, err := target.Family()
	if err != nil {
		return false, err
	}
	return family.Name == machine && target.Generation <= generation, nil
}
