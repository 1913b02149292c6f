package targets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marchkit/marchkit/errors"
)

func decodeJSON(t *testing.T, dataset string) (*Document, error) {
	t.Helper()
	return DecodeDocument([]byte(dataset), json.Unmarshal)
}

func TestDecodeDocument(t *testing.T) {
	doc, err := decodeJSON(t, `{
	  "microarchitectures": {
	    "root":  {"from": null, "vendor": "generic", "features": []},
	    "one":   {"from": "root", "vendor": "acme", "features": ["f1"], "generation": 3},
	    "two": {
	      "from": ["root", "one"],
	      "vendor": "acme",
	      "features": ["f1", "f2"],
	      "compilers": {
	        "gcc": [{"versions": ">= 4.9"}, {"versions": ">= 4.6, < 4.9", "name": "older"}],
	        "clang": {"versions": "*"}
	      }
	    }
	  },
	  "feature_aliases": {
	    "fast": {"any_of": ["f2"]}
	  }
	}`)
	require.NoError(t, err)

	assert.Len(t, doc.Microarchitectures, 3)
	assert.Nil(t, doc.Microarchitectures["root"].From)
	assert.Equal(t, []string{"root"}, doc.Microarchitectures["one"].From)
	assert.Equal(t, 3, doc.Microarchitectures["one"].Generation)
	assert.Equal(t, []string{"root", "one"}, doc.Microarchitectures["two"].From)

	compilers := doc.Microarchitectures["two"].Compilers
	require.Len(t, compilers["gcc"], 2)
	assert.Equal(t, "older", compilers["gcc"][1].Name)
	assert.Equal(t, []CompilerSpec{{Versions: "*"}}, compilers["clang"])

	assert.Contains(t, doc.FeatureAliases, "fast")
}

func TestSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		dataset string
	}{
		{
			name:    "not a mapping",
			dataset: `[1, 2, 3]`,
		},
		{
			name:    "unknown top-level section",
			dataset: `{"targets": {}}`,
		},
		{
			name:    "missing vendor",
			dataset: `{"microarchitectures": {"a": {"from": null, "features": []}}}`,
		},
		{
			name:    "missing from",
			dataset: `{"microarchitectures": {"a": {"vendor": "acme", "features": []}}}`,
		},
		{
			name:    "missing features",
			dataset: `{"microarchitectures": {"a": {"from": null, "vendor": "acme"}}}`,
		},
		{
			name:    "from is a number",
			dataset: `{"microarchitectures": {"a": {"from": 7, "vendor": "acme", "features": []}}}`,
		},
		{
			name:    "from list with non-string",
			dataset: `{"microarchitectures": {"a": {"from": ["b", 1], "vendor": "acme", "features": []}}}`,
		},
		{
			name:    "vendor is not a string",
			dataset: `{"microarchitectures": {"a": {"from": null, "vendor": 1, "features": []}}}`,
		},
		{
			name:    "features is not a list",
			dataset: `{"microarchitectures": {"a": {"from": null, "vendor": "acme", "features": "f1"}}}`,
		},
		{
			name:    "feature is not a string",
			dataset: `{"microarchitectures": {"a": {"from": null, "vendor": "acme", "features": [1]}}}`,
		},
		{
			name:    "generation is not an integer",
			dataset: `{"microarchitectures": {"a": {"from": null, "vendor": "acme", "features": [], "generation": 1.5}}}`,
		},
		{
			name:    "unknown entry field",
			dataset: `{"microarchitectures": {"a": {"from": null, "vendor": "acme", "features": [], "extra": 1}}}`,
		},
		{
			name:    "compiler record without versions",
			dataset: `{"microarchitectures": {"a": {"from": null, "vendor": "acme", "features": [], "compilers": {"gcc": {"name": "x"}}}}}`,
		},
		{
			name:    "compiler record with unknown field",
			dataset: `{"microarchitectures": {"a": {"from": null, "vendor": "acme", "features": [], "compilers": {"gcc": {"versions": "*", "march": "x"}}}}}`,
		},
		{
			name:    "compilers is a string",
			dataset: `{"microarchitectures": {"a": {"from": null, "vendor": "acme", "features": [], "compilers": "gcc"}}}`,
		},
		{
			name:    "alias rules not a mapping",
			dataset: `{"feature_aliases": {"fast": ["f1"]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeJSON(t, tt.dataset)
			require.Error(t, err)
			assert.True(t, errors.IsSchemaError(err), "want schema error, got %v", err)
		})
	}
}

func TestLoadDocumentJSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "targets.json")
	jsonData := `{"microarchitectures": {"root": {"from": null, "vendor": "generic", "features": []}}}`
	require.NoError(t, os.WriteFile(jsonPath, []byte(jsonData), 0o644))

	yamlPath := filepath.Join(dir, "targets.yaml")
	yamlData := "microarchitectures:\n  root:\n    from: null\n    vendor: generic\n    features: []\n  child:\n    from: root\n    vendor: acme\n    features: [f1]\n    generation: 2\n"
	require.NoError(t, os.WriteFile(yamlPath, []byte(yamlData), 0o644))

	fromJSON, err := LoadDocument(jsonPath)
	require.NoError(t, err)
	assert.Len(t, fromJSON.Microarchitectures, 1)

	fromYAML, err := LoadDocument(yamlPath)
	require.NoError(t, err)
	assert.Len(t, fromYAML.Microarchitectures, 2)
	assert.Equal(t, 2, fromYAML.Microarchitectures["child"].Generation)
	assert.Equal(t, []string{"root"}, fromYAML.Microarchitectures["child"].From)
}

func TestLoadDocumentMissingFile(t *testing.T) {
	_, err := LoadDocument(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
