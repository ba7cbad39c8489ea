// Package fetch retrieves result pages from the public decision archives.
// The sites are slow and intermittently broken, so the client is polite by
// default: one request per second and a single attempt per page.
package fetch

import (
	"fmt"
	"net/url"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/nadlan-labs/shuma-cli/internal/model"
)

// SourceConfig describes one archive endpoint.
type SourceConfig struct {
	BaseURL   string `yaml:"base_url"`
	PageParam string `yaml:"page_param"`
	Enabled   bool   `yaml:"enabled"`
}

// Registry maps source categories to their endpoint configuration.
type Registry map[model.SourceCategory]SourceConfig

// DefaultRegistry returns the built-in endpoints for the three archives.
func DefaultRegistry() Registry {
	return Registry{
		model.SourceDecisive: {
			BaseURL:   "https://www.gov.il/apps/moj/shamaut/decisive",
			PageParam: "page",
			Enabled:   true,
		},
		model.SourceAppeals: {
			BaseURL:   "https://www.gov.il/apps/moj/shamaut/appeals",
			PageParam: "page",
			Enabled:   true,
		},
		model.SourceCompensation: {
			BaseURL:   "https://www.gov.il/apps/moj/shamaut/compensation",
			PageParam: "page",
			Enabled:   true,
		},
	}
}

// LoadRegistry reads a source registry from a YAML file. Categories missing
// from the file fall back to the defaults.
func LoadRegistry(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: read registry %s", path)
	}

	var raw map[string]SourceConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "fetch: parse registry %s", path)
	}

	reg := DefaultRegistry()
	for name, cfg := range raw {
		cat, err := model.ParseSourceCategory(name)
		if err != nil {
			return nil, eris.Wrapf(err, "fetch: registry %s", path)
		}
		reg[cat] = cfg
	}
	return reg, nil
}

// PageURL builds the URL of a numbered result page for a source.
func (r Registry) PageURL(source model.SourceCategory, page int) (string, error) {
	cfg, ok := r[source]
	if !ok {
		return "", eris.Errorf("fetch: unknown source: %s", source)
	}
	if !cfg.Enabled {
		return "", eris.Errorf("fetch: source disabled: %s", source)
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return "", eris.Wrapf(err, "fetch: parse base url for %s", source)
	}
	q := u.Query()
	q.Set(cfg.PageParam, fmt.Sprintf("%d", page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
