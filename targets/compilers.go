package targets

import (
	"github.com/Masterminds/semver/v3"

	"github.com/marchkit/marchkit/errors"
)

// TuningName returns the name the record tells the compiler to tune for,
// falling back to the microarchitecture's own name.
func (s CompilerSpec) TuningName(target *Microarchitecture) string {
	if s.Name != "" {
		return s.Name
	}
	return target.Name
}

// supports reports whether the record's version constraint admits the
// given compiler version.
func (s CompilerSpec) supports(version *semver.Version) (bool, error) {
	constraint, err := semver.NewConstraint(s.Versions)
	if err != nil {
		return false, errors.Wrapf(err, "invalid version constraint %q", s.Versions)
	}
	return constraint.Check(version), nil
}

// TuningFor returns the tuning name a compiler at the given version
// should be passed (the -march/-mcpu value) to target this
// microarchitecture. When the entity itself has no matching record its
// ancestors are walked in closure order, so the result degrades to the
// closest ancestor the compiler can target.
func (m *Microarchitecture) TuningFor(compiler, version string) (string, error) {
	compilerVersion, err := semver.NewVersion(version)
	if err != nil {
		return "", errors.Wrapf(err, "invalid compiler version %q", version)
	}

	for _, target := range append([]*Microarchitecture{m}, m.Ancestors()...) {
		for _, spec := range target.Compilers[compiler] {
			ok, err := spec.supports(compilerVersion)
			if err != nil {
				return "", errors.Wrapf(err, "target %s, compiler %s", target.Name, compiler)
			}
			if ok {
				return spec.TuningName(target), nil
			}
		}
	}

	return "", errors.Newf("%s %s cannot generate tuned code for target %s", compiler, version, m.Name)
}
