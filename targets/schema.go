package targets

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marchkit/marchkit/errors"
)

// Document is the validated in-memory form of a microarchitecture
// dataset. Validation is all-or-nothing: a Document exists only if the
// whole dataset satisfied the schema.
type Document struct {
	Microarchitectures map[string]Entry
	FeatureAliases     map[string]map[string]interface{}
}

// Entry is one microarchitecture definition from the dataset.
type Entry struct {
	// From lists the direct parent names. The dataset spells this as
	// null, a single name, or a list of names.
	From []string
	// Vendor is required; entries may not rely on inheriting it.
	Vendor string
	// Features lists the supported CPU flags.
	Features []string
	// Compilers maps compiler names to tuning records.
	Compilers map[string][]CompilerSpec
	// Generation defaults to 0 when the dataset omits it.
	Generation int
}

// CompilerSpec is one compiler tuning record: the versions (a semver
// constraint) that can target the microarchitecture, and optionally the
// name the compiler knows it by when that differs from the entry name.
type CompilerSpec struct {
	Name     string
	Versions string
}

// LoadDocument reads and validates a dataset file. The format is picked
// from the extension: .yaml/.yml is YAML, anything else JSON. Shape
// violations yield ErrSchema.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dataset %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeDocument(data, yaml.Unmarshal)
	default:
		return DecodeDocument(data, json.Unmarshal)
	}
}

// DecodeDocument decodes raw dataset bytes with the given unmarshal
// function and validates the result against the schema.
func DecodeDocument(data []byte, unmarshal func([]byte, interface{}) error) (*Document, error) {
	var raw map[string]interface{}
	if err := unmarshal(data, &raw); err != nil {
		return nil, errors.NewSchemaError("dataset is not a mapping: %v", err)
	}
	return documentFromRaw(raw)
}

// documentFromRaw walks the generic decoded form, enforcing the schema
// and building the typed document in one pass. Any violation aborts with
// ErrSchema; no partial document is ever returned.
func documentFromRaw(raw map[string]interface{}) (*Document, error) {
	doc := &Document{
		Microarchitectures: make(map[string]Entry),
		FeatureAliases:     make(map[string]map[string]interface{}),
	}

	for key := range raw {
		if key != "microarchitectures" && key != "feature_aliases" {
			return nil, errors.NewSchemaError("unknown top-level section %q", key)
		}
	}

	if section, ok := raw["microarchitectures"]; ok {
		entries, ok := section.(map[string]interface{})
		if !ok {
			return nil, errors.NewSchemaError("microarchitectures must be a mapping, got %T", section)
		}
		for name, value := range entries {
			entry, err := entryFromRaw(name, value)
			if err != nil {
				return nil, err
			}
			doc.Microarchitectures[name] = entry
		}
	}

	if section, ok := raw["feature_aliases"]; ok {
		aliases, ok := section.(map[string]interface{})
		if !ok {
			return nil, errors.NewSchemaError("feature_aliases must be a mapping, got %T", section)
		}
		for name, value := range aliases {
			rules, ok := value.(map[string]interface{})
			if !ok {
				return nil, errors.NewSchemaError("feature alias %q must be a mapping of rules, got %T", name, value)
			}
			doc.FeatureAliases[name] = rules
		}
	}

	return doc, nil
}

func entryFromRaw(name string, value interface{}) (Entry, error) {
	fields, ok := value.(map[string]interface{})
	if !ok {
		return Entry{}, errors.NewSchemaError("entry %q must be a mapping, got %T", name, value)
	}

	for _, required := range []string{"from", "vendor", "features"} {
		if _, ok := fields[required]; !ok {
			return Entry{}, errors.NewSchemaError("entry %q is missing required field %q", name, required)
		}
	}
	for key := range fields {
		switch key {
		case "from", "vendor", "features", "compilers", "generation":
		default:
			return Entry{}, errors.NewSchemaError("entry %q has unknown field %q", name, key)
		}
	}

	entry := Entry{}

	// from: null, one parent name, or a list of parent names
	switch from := fields["from"].(type) {
	case nil:
	case string:
		entry.From = []string{from}
	case []interface{}:
		for i, item := range from {
			parent, ok := item.(string)
			if !ok {
				return Entry{}, errors.NewSchemaError("entry %q: from[%d] is %T, want string", name, i, item)
			}
			entry.From = append(entry.From, parent)
		}
	default:
		return Entry{}, errors.NewSchemaError("entry %q: from must be null, a name, or a list of names, got %T", name, from)
	}

	vendor, ok := fields["vendor"].(string)
	if !ok {
		return Entry{}, errors.NewSchemaError("entry %q: vendor must be a string, got %T", name, fields["vendor"])
	}
	entry.Vendor = vendor

	features, ok := fields["features"].([]interface{})
	if !ok {
		return Entry{}, errors.NewSchemaError("entry %q: features must be a list, got %T", name, fields["features"])
	}
	for i, item := range features {
		flag, ok := item.(string)
		if !ok {
			return Entry{}, errors.NewSchemaError("entry %q: features[%d] is %T, want string", name, i, item)
		}
		entry.Features = append(entry.Features, flag)
	}

	if rawGeneration, ok := fields["generation"]; ok {
		generation, err := intValue(rawGeneration)
		if err != nil {
			return Entry{}, errors.NewSchemaError("entry %q: generation: %v", name, err)
		}
		entry.Generation = generation
	}

	if rawCompilers, ok := fields["compilers"]; ok {
		compilers, err := compilersFromRaw(name, rawCompilers)
		if err != nil {
			return Entry{}, err
		}
		entry.Compilers = compilers
	}

	return entry, nil
}

func compilersFromRaw(name string, value interface{}) (map[string][]CompilerSpec, error) {
	section, ok := value.(map[string]interface{})
	if !ok {
		return nil, errors.NewSchemaError("entry %q: compilers must be a mapping, got %T", name, value)
	}

	compilers := make(map[string][]CompilerSpec, len(section))
	for compiler, raw := range section {
		switch records := raw.(type) {
		case map[string]interface{}:
			spec, err := compilerSpecFromRaw(name, compiler, records)
			if err != nil {
				return nil, err
			}
			compilers[compiler] = []CompilerSpec{spec}
		case []interface{}:
			for _, item := range records {
				record, ok := item.(map[string]interface{})
				if !ok {
					return nil, errors.NewSchemaError("entry %q: compilers.%s entries must be mappings, got %T", name, compiler, item)
				}
				spec, err := compilerSpecFromRaw(name, compiler, record)
				if err != nil {
					return nil, err
				}
				compilers[compiler] = append(compilers[compiler], spec)
			}
		default:
			return nil, errors.NewSchemaError("entry %q: compilers.%s must be a record or list of records, got %T", name, compiler, raw)
		}
	}
	return compilers, nil
}

func compilerSpecFromRaw(name, compiler string, record map[string]interface{}) (CompilerSpec, error) {
	spec := CompilerSpec{}

	rawVersions, ok := record["versions"]
	if !ok {
		return spec, errors.NewSchemaError("entry %q: compilers.%s record is missing required field \"versions\"", name, compiler)
	}
	versions, ok := rawVersions.(string)
	if !ok {
		return spec, errors.NewSchemaError("entry %q: compilers.%s versions must be a string, got %T", name, compiler, rawVersions)
	}
	spec.Versions = versions

	if rawName, ok := record["name"]; ok {
		tuningName, ok := rawName.(string)
		if !ok {
			return spec, errors.NewSchemaError("entry %q: compilers.%s name must be a string, got %T", name, compiler, rawName)
		}
		spec.Name = tuningName
	}

	for key := range record {
		if key != "name" && key != "versions" {
			return spec, errors.NewSchemaError("entry %q: compilers.%s record has unknown field %q", name, compiler, key)
		}
	}

	return spec, nil
}

// intValue accepts the integer spellings JSON (float64) and YAML (int)
// decoding produce.
func intValue(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, errors.Newf("%v is not an integer", v)
		}
		return int(v), nil
	default:
		return 0, errors.Newf("must be an integer, got %T", value)
	}
}
