package targets

import (
	"encoding/json"
	"sync"

	"github.com/marchkit/marchkit/config"
	"github.com/marchkit/marchkit/errors"
	"github.com/marchkit/marchkit/logger"

	_ "embed"
)

// The embedded dataset ships with the binary so detection works with no
// configuration. targets.path in the configuration points at an
// alternate file.
//
//go:embed targets.json
var embeddedDataset []byte

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// Default returns the process-wide catalog, built on first access from
// the configured dataset and immutable afterwards. The expensive build
// runs at most once; every caller observes the same instance.
func Default() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		defaultCatalog, defaultCatalogErr = buildDefaultCatalog()
	})
	return defaultCatalog, defaultCatalogErr
}

func buildDefaultCatalog() (*Catalog, error) {
	doc, source, err := loadConfiguredDocument()
	if err != nil {
		return nil, err
	}

	catalog, err := NewCatalog(doc, DefaultPredicates(), HostMachine())
	if err != nil {
		return nil, errors.Wrapf(err, "building catalog from %s", source)
	}

	logger.Debugw("catalog built",
		"source", source,
		"entries", catalog.Len())
	return catalog, nil
}

func loadConfiguredDocument() (*Document, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}

	if cfg.Targets.Path != "" {
		doc, err := LoadDocument(cfg.Targets.Path)
		if err != nil {
			return nil, "", err
		}
		return doc, cfg.Targets.Path, nil
	}

	doc, err := DecodeDocument(embeddedDataset, json.Unmarshal)
	if err != nil {
		return nil, "", errors.Wrap(err, "embedded dataset")
	}
	return doc, "embedded dataset", nil
}
