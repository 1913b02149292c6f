// Package targets is the host CPU microarchitecture catalog and
// compatibility engine.
//
// A declarative dataset describes known microarchitectures: their lineage
// (parents by compatibility, not chronology), vendor, feature flags, and
// per-compiler tuning names. From it the package builds a catalog of
// Microarchitecture values forming a DAG, and answers two questions:
// which catalog entries does the running host satisfy, and which of those
// is the most specific.
//
//	target, err := targets.DetectHost()
//	if err != nil { ... }
//	fmt.Println(target.Name) // e.g. "haswell"
//
// The default catalog is built once from the embedded dataset (or the
// file named by targets.path in the configuration) and is immutable
// afterwards. Alternate datasets can be exercised by constructing a
// Catalog and Detector directly.
package targets
