package targets

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marchkit/marchkit/errors"
)

// lineageCatalog builds a small catalog with a diamond in it:
//
//	base -> left  -> tip
//	base -> right -> tip
func lineageCatalog(t *testing.T) *Catalog {
	t.Helper()
	dataset := `{
	  "microarchitectures": {
	    "base":  {"from": null,   "vendor": "generic", "features": []},
	    "left":  {"from": "base", "vendor": "acme", "features": ["alpha"]},
	    "right": {"from": "base", "vendor": "acme", "features": ["beta"]},
	    "tip":   {"from": ["left", "right"], "vendor": "acme", "features": ["alpha", "beta", "gamma"]}
	  },
	  "feature_aliases": {
	    "either": {"any_of": ["alpha", "beta"]},
	    "rooted": {"families": ["base"]}
	  }
	}`
	doc, err := DecodeDocument([]byte(dataset), json.Unmarshal)
	require.NoError(t, err)
	catalog, err := NewCatalog(doc, DefaultPredicates())
	require.NoError(t, err)
	return catalog
}

func lookup(t *testing.T, c *Catalog, name string) *Microarchitecture {
	t.Helper()
	target, ok := c.Lookup(name)
	require.True(t, ok, "catalog should contain %s", name)
	return target
}

func TestAncestorsStableAndDeduplicated(t *testing.T) {
	catalog := lineageCatalog(t)
	tip := lookup(t, catalog, "tip")

	ancestors := tip.Ancestors()
	names := make([]string, len(ancestors))
	for i, a := range ancestors {
		names[i] = a.Name
	}

	// Direct parents first, then their ancestors, each name once
	assert.Equal(t, []string{"left", "right", "base"}, names)
}

func TestNoTargetIsItsOwnAncestor(t *testing.T) {
	catalog := lineageCatalog(t)
	for _, name := range catalog.Names() {
		target := lookup(t, catalog, name)
		for _, ancestor := range target.Ancestors() {
			assert.NotEqual(t, target.Name, ancestor.Name,
				"%s must not appear in its own ancestor closure", name)
		}
	}
}

func TestFamily(t *testing.T) {
	catalog := lineageCatalog(t)

	for _, name := range []string{"base", "left", "right", "tip"} {
		family, err := lookup(t, catalog, name).Family()
		require.NoError(t, err)
		assert.Equal(t, "base", family.Name)
	}
}

func TestFamilyMultipleRootsFails(t *testing.T) {
	rootA := NewMicroarchitecture("roota", "generic", nil, nil, nil, 0)
	rootB := NewMicroarchitecture("rootb", "generic", nil, nil, nil, 0)
	child := NewMicroarchitecture("child", "acme", []*Microarchitecture{rootA, rootB}, nil, nil, 0)

	_, err := child.Family()
	require.Error(t, err)
	assert.True(t, errors.HasAssertionFailure(err))
}

func TestPartialOrder(t *testing.T) {
	catalog := lineageCatalog(t)
	base := lookup(t, catalog, "base")
	left := lookup(t, catalog, "left")
	tip := lookup(t, catalog, "tip")

	lt, err := base.Less(tip)
	require.NoError(t, err)
	assert.True(t, lt)

	gt, err := tip.Greater(base)
	require.NoError(t, err)
	assert.True(t, gt)

	le, err := left.LessEqual(left)
	require.NoError(t, err)
	assert.True(t, le)

	ge, err := left.GreaterEqual(base)
	require.NoError(t, err)
	assert.True(t, ge)
}

func TestTrichotomyForComparablePairs(t *testing.T) {
	catalog := lineageCatalog(t)
	targets := []*Microarchitecture{
		lookup(t, catalog, "base"),
		lookup(t, catalog, "left"),
		lookup(t, catalog, "tip"),
	}

	// base < left < tip: exactly one of a<b, a==b, b<a per pair
	for _, a := range targets {
		for _, b := range targets {
			aLessB, err := a.Less(b)
			require.NoError(t, err)
			bLessA, err := b.Less(a)
			require.NoError(t, err)

			holds := 0
			if aLessB {
				holds++
			}
			if a.Equal(b) {
				holds++
			}
			if bLessA {
				holds++
			}
			assert.Equal(t, 1, holds, "%s vs %s", a.Name, b.Name)
		}
	}
}

func TestIncomparableOrderingIsAnError(t *testing.T) {
	catalog := lineageCatalog(t)
	left := lookup(t, catalog, "left")
	right := lookup(t, catalog, "right")

	_, err := left.Less(right)
	require.Error(t, err)
	assert.True(t, errors.IsIncomparable(err))

	_, err = left.GreaterEqual(right)
	assert.True(t, errors.IsIncomparable(err))
}

func TestStructuralEquality(t *testing.T) {
	// Two catalogs built from the same dataset produce distinct
	// instances that still compare equal
	first := lineageCatalog(t)
	second := lineageCatalog(t)

	a := lookup(t, first, "tip")
	b := lookup(t, second, "tip")
	require.NotSame(t, a, b)
	assert.True(t, a.Equal(b))

	assert.False(t, a.Equal(lookup(t, second, "left")))
	assert.False(t, a.Equal(nil))
}

func TestContains(t *testing.T) {
	catalog := lineageCatalog(t)
	base := lookup(t, catalog, "base")
	left := lookup(t, catalog, "left")
	tip := lookup(t, catalog, "tip")

	// Raw features
	assert.True(t, left.Contains("alpha"))
	assert.False(t, left.Contains("beta"))

	// Alias backed by any_of
	assert.True(t, tip.Contains("either"))
	assert.True(t, left.Contains("either"))
	assert.False(t, base.Contains("either"))

	// Alias backed by families matches everything in the base family
	assert.True(t, base.Contains("rooted"))
	assert.True(t, tip.Contains("rooted"))

	// Unknown alias is false, not an error
	assert.False(t, tip.Contains("no-such-feature"))
}

func TestGenericMicroarchitecture(t *testing.T) {
	generic := GenericMicroarchitecture("riscv64")

	assert.Equal(t, "riscv64", generic.Name)
	assert.Equal(t, "generic", generic.Vendor)
	assert.Empty(t, generic.Features)
	assert.Empty(t, generic.Ancestors())

	family, err := generic.Family()
	require.NoError(t, err)
	assert.True(t, family.Equal(generic))
}

func TestToMapRoundTrip(t *testing.T) {
	catalog := lineageCatalog(t)
	tip := lookup(t, catalog, "tip")

	exported := tip.ToMap()
	assert.Equal(t, "tip", exported["name"])
	assert.Equal(t, "acme", exported["vendor"])
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, exported["features"])
	assert.Equal(t, []string{"left", "right"}, exported["parents"])

	// Re-importing through a dataset entry reproduces an equal entity
	rebuilt := NewMicroarchitecture(
		exported["name"].(string),
		exported["vendor"].(string),
		tip.Parents,
		exported["features"].([]string),
		nil,
		exported["generation"].(int),
	)
	assert.True(t, rebuilt.Equal(tip))
}

func TestStringIsName(t *testing.T) {
	assert.Equal(t, "haswell", GenericMicroarchitecture("haswell").String())
}
