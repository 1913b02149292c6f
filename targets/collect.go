package targets

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/marchkit/marchkit/errors"
)

// RawInfo is a normalized raw-info record for the running host's CPU.
// Keys use underscores ("model_name", never "model name"). A usable
// record carries at least vendor_id, flags, model and model_name; family
// specific keys (the POWER cpu field) ride along untouched.
type RawInfo map[string]string

var requiredRawInfoFields = []string{"vendor_id", "flags", "model", "model_name"}

// Validate checks the record for the mandatory fields. An incomplete
// record makes the producing collector a failed attempt, not a fatal
// error.
func (info RawInfo) Validate() error {
	for _, field := range requiredRawInfoFields {
		if _, ok := info[field]; !ok {
			return errors.NewCollectorError("field %q is missing from raw cpu info", field)
		}
	}
	return nil
}

// Collector produces a raw info record for the running host. The context
// bounds any external command the collector runs.
type Collector func(ctx context.Context) (RawInfo, error)

// CollectorRegistry holds the collectors viable on each operating
// system, in registration order. Detection tries them in order and takes
// the first complete record.
type CollectorRegistry struct {
	mu   sync.RWMutex
	byOS map[string][]Collector
}

// NewCollectorRegistry creates an empty collector registry.
func NewCollectorRegistry() *CollectorRegistry {
	return &CollectorRegistry{byOS: make(map[string][]Collector)}
}

// Register appends a collector for the given operating systems (GOOS
// names).
func (r *CollectorRegistry) Register(collector Collector, oses ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, osName := range oses {
		r.byOS[osName] = append(r.byOS[osName], collector)
	}
}

// For returns the collectors registered for an operating system, in
// registration order.
func (r *CollectorRegistry) For(osName string) []Collector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byOS[osName]
}

var (
	defaultCollectors     *CollectorRegistry
	defaultCollectorsOnce sync.Once
)

// DefaultCollectors returns the process-wide collector registry,
// populated on first access. The native per-OS collector comes first,
// the portable gopsutil collector is the fallback.
func DefaultCollectors() *CollectorRegistry {
	defaultCollectorsOnce.Do(func() {
		defaultCollectors = NewCollectorRegistry()
		defaultCollectors.Register(collectProcCPUInfo, "linux")
		defaultCollectors.Register(collectSysctl, "darwin")
		defaultCollectors.Register(collectGopsutil, "linux", "darwin", "windows")
	})
	return defaultCollectors
}

// collectProcCPUInfo reads the first logical core's record from
// /proc/cpuinfo.
func collectProcCPUInfo(context.Context) (RawInfo, error) {
	file, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCollector, err.Error())
	}
	defer file.Close()

	return parseProcCPUInfo(file)
}

// parseProcCPUInfo splits each line at the first colon. A line without a
// colon after at least one key was read is the blank boundary between
// per-core records; only the first record is wanted.
func parseProcCPUInfo(r io.Reader) (RawInfo, error) {
	info := make(RawInfo)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		key, value, found := strings.Cut(line, ":")
		if !found {
			if len(info) > 0 {
				break
			}
			continue
		}
		// /proc/cpuinfo spells multi-word keys with spaces
		// ("model name"); record keys use underscores
		normalized := strings.ReplaceAll(strings.TrimSpace(key), " ", "_")
		info[normalized] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCollector, err.Error())
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return info, nil
}

// macOS spells a few flags with punctuation that datasets never use.
// The normalized spelling is emitted in addition, so feature subset
// comparisons succeed either way.
var darwinFlagSynonyms = map[string]string{
	"sse4.1": "sse4_1",
	"sse4.2": "sse4_2",
	"avx1.0": "avx",
}

// collectSysctl queries the machdep.cpu sysctl properties. Each query is
// an external command bounded by the context.
func collectSysctl(ctx context.Context) (RawInfo, error) {
	query := func(name string) (string, error) {
		out, err := exec.CommandContext(ctx, "sysctl", "-n", name).Output()
		if err != nil {
			return "", errors.NewCollectorError("sysctl -n %s: %v", name, err)
		}
		return strings.TrimSpace(string(out)), nil
	}

	info := make(RawInfo)
	var err error
	if info["vendor_id"], err = query("machdep.cpu.vendor"); err != nil {
		return nil, err
	}
	flags, err := query("machdep.cpu.features")
	if err != nil {
		return nil, err
	}
	leaf7, err := query("machdep.cpu.leaf7_features")
	if err != nil {
		return nil, err
	}
	info["flags"] = normalizeDarwinFlags(strings.ToLower(flags) + " " + strings.ToLower(leaf7))
	if info["model"], err = query("machdep.cpu.model"); err != nil {
		return nil, err
	}
	if info["model_name"], err = query("machdep.cpu.brand_string"); err != nil {
		return nil, err
	}

	return info, info.Validate()
}

func normalizeDarwinFlags(flags string) string {
	fields := strings.Fields(flags)
	seen := make(map[string]struct{}, len(fields))
	for _, flag := range fields {
		seen[flag] = struct{}{}
	}
	for spelled, synonym := range darwinFlagSynonyms {
		if _, ok := seen[spelled]; ok {
			if _, dup := seen[synonym]; !dup {
				fields = append(fields, synonym)
				seen[synonym] = struct{}{}
			}
		}
	}
	return strings.Join(fields, " ")
}

// collectGopsutil builds a record from gopsutil's portable CPU info.
// Registered after the native collectors as a fallback.
func collectGopsutil(ctx context.Context) (RawInfo, error) {
	stats, err := cpu.InfoWithContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCollector, err.Error())
	}
	if len(stats) == 0 {
		return nil, errors.NewCollectorError("gopsutil reported no cpus")
	}

	first := stats[0]
	info := RawInfo{
		"vendor_id":  first.VendorID,
		"flags":      strings.ToLower(strings.Join(first.Flags, " ")),
		"model":      first.Model,
		"model_name": first.ModelName,
	}
	return info, info.Validate()
}
