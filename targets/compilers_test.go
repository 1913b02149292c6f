package targets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTuningFor(t *testing.T) {
	catalog := embeddedCatalog(t)
	haswell := lookup(t, catalog, "haswell")

	// Modern gcc knows haswell by name
	name, err := haswell.TuningFor("gcc", "9.3.0")
	require.NoError(t, err)
	assert.Equal(t, "haswell", name)

	// gcc 4.8 predates -march=haswell and uses the explicit record name
	name, err = haswell.TuningFor("gcc", "4.8.5")
	require.NoError(t, err)
	assert.Equal(t, "core-avx2", name)
}

func TestTuningForFallsBackToAncestors(t *testing.T) {
	catalog := embeddedCatalog(t)
	skylake := lookup(t, catalog, "skylake")

	// gcc 4.9 cannot tune skylake; the closest ancestor it can target
	// is broadwell
	name, err := skylake.TuningFor("gcc", "4.9.4")
	require.NoError(t, err)
	assert.Equal(t, "broadwell", name)
}

func TestTuningForRecordNameOverride(t *testing.T) {
	catalog := embeddedCatalog(t)

	name, err := lookup(t, catalog, "zen2").TuningFor("gcc", "10.2.0")
	require.NoError(t, err)
	assert.Equal(t, "znver2", name)

	name, err = lookup(t, catalog, "skylake_avx512").TuningFor("clang", "11.0.0")
	require.NoError(t, err)
	assert.Equal(t, "skylake-avx512", name)
}

func TestTuningForUnknownCompiler(t *testing.T) {
	catalog := embeddedCatalog(t)

	_, err := lookup(t, catalog, "power9").TuningFor("xlc", "16.1.0")
	assert.Error(t, err)
}

func TestTuningForBadVersion(t *testing.T) {
	catalog := embeddedCatalog(t)

	_, err := lookup(t, catalog, "haswell").TuningFor("gcc", "not-a-version")
	assert.Error(t, err)
}

func TestTuningNameDefaultsToTarget(t *testing.T) {
	target := GenericMicroarchitecture("nehalem")

	assert.Equal(t, "nehalem", CompilerSpec{Versions: "*"}.TuningName(target))
	assert.Equal(t, "corei7", CompilerSpec{Versions: "*", Name: "corei7"}.TuningName(target))
}
