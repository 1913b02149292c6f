package targets

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/marchkit/marchkit/config"
	"github.com/marchkit/marchkit/errors"
	"github.com/marchkit/marchkit/logger"
)

// goarchMachine maps GOARCH values to the machine-type names datasets
// key their families by (the uname -m spellings).
var goarchMachine = map[string]string{
	"amd64":   "x86_64",
	"386":     "x86",
	"arm64":   "aarch64",
	"arm":     "arm",
	"ppc64":   "ppc64",
	"ppc64le": "ppc64le",
	"riscv64": "riscv64",
	"s390x":   "s390x",
}

// HostMachine returns the running host's raw machine-type name.
func HostMachine() string {
	if machine, ok := goarchMachine[runtime.GOARCH]; ok {
		return machine
	}
	return runtime.GOARCH
}

// Detector orchestrates raw info collection, compatibility filtering and
// best-match selection. The zero value is not usable; NewDetector wires
// the default registries so tests can swap any part out.
type Detector struct {
	Catalog    *Catalog
	Checks     *CompatRegistry
	Collectors *CollectorRegistry

	// OS and Machine identify the host; they default to the running
	// platform.
	OS      string
	Machine string

	// Timeout bounds each collector attempt.
	Timeout time.Duration
}

// NewDetector builds a detector over the given catalog with the default
// check and collector registries and the configured collector timeout.
func NewDetector(catalog *Catalog) *Detector {
	timeout := time.Duration(config.DefaultCollectorTimeoutSeconds) * time.Second
	if cfg, err := config.Load(); err == nil {
		timeout = time.Duration(cfg.Detect.CollectorTimeoutSeconds) * time.Second
	}
	return &Detector{
		Catalog:    catalog,
		Checks:     DefaultChecks(),
		Collectors: DefaultCollectors(),
		OS:         runtime.GOOS,
		Machine:    HostMachine(),
		Timeout:    timeout,
	}
}

// RawHostInfo tries the collectors registered for the detector's
// operating system in order, returning the first complete record.
// Collector failures are discarded; an empty record is returned when
// every collector fails.
func (d *Detector) RawHostInfo() RawInfo {
	for _, collect := range d.Collectors.For(d.OS) {
		ctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
		info, err := collect(ctx)
		cancel()
		if err != nil {
			logger.Debugw("cpu info collector failed", "os", d.OS, "error", err)
			continue
		}
		if len(info) > 0 {
			return info
		}
	}
	return RawInfo{}
}

// Compatible filters the catalog down to the targets the host satisfies
// according to the compatibility check for its machine type's family.
// With no check registered for the family it returns nil: the host is
// unknown territory and the caller falls back to a generic target.
func (d *Detector) Compatible(info RawInfo) ([]*Microarchitecture, error) {
	check, ok := d.Checks.Lookup(d.Machine)
	if !ok {
		logger.Debugw("no compatibility check for family", "machine", d.Machine)
		return nil, nil
	}

	var compatible []*Microarchitecture
	var checkErr error
	d.Catalog.each(func(target *Microarchitecture) {
		if checkErr != nil {
			return
		}
		ok, err := check(info, d.Machine, target)
		if err != nil {
			checkErr = err
			return
		}
		if ok {
			compatible = append(compatible, target)
		}
	})
	if checkErr != nil {
		return nil, checkErr
	}
	return compatible, nil
}

// Detect returns the most specific catalog entry the host satisfies: the
// compatible target with the largest ancestor closure. Targets of equal
// depth tie-break to the lexicographically smallest name, so detection
// is deterministic. When nothing is compatible (or no check covers the
// host's family) the synthetic generic target for the host's machine
// type is returned; detection never returns an empty result.
func (d *Detector) Detect() (*Microarchitecture, error) {
	info := d.RawHostInfo()

	candidates, err := d.Compatible(info)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		logger.Infow("no compatible targets, falling back to generic", "machine", d.Machine)
		return GenericMicroarchitecture(d.Machine), nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		di, dj := len(candidates[i].Ancestors()), len(candidates[j].Ancestors())
		if di != dj {
			return di > dj
		}
		return candidates[i].Name < candidates[j].Name
	})

	best := candidates[0]
	logger.Infow("host detected",
		"target", best.Name,
		"vendor", best.Vendor,
		"candidates", len(candidates))
	return best, nil
}

// DetectHost detects the running host's microarchitecture using the
// default catalog and registries.
func DetectHost() (*Microarchitecture, error) {
	catalog, err := Default()
	if err != nil {
		return nil, err
	}
	return NewDetector(catalog).Detect()
}

// SupportedTargetNames returns the names of every known target in the
// default catalog, sorted.
func SupportedTargetNames() ([]string, error) {
	catalog, err := Default()
	if err != nil {
		return nil, err
	}
	return catalog.Names(), nil
}

// Lookup returns the named entry from the default catalog.
func Lookup(name string) (*Microarchitecture, error) {
	catalog, err := Default()
	if err != nil {
		return nil, err
	}
	target, ok := catalog.Lookup(name)
	if !ok {
		return nil, errors.Newf("unknown target %q", name)
	}
	return target, nil
}
