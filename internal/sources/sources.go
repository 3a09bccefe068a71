// Package sources loads and writes the YAML file mapping source group
// names to their seed URLs.
package sources

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Groups maps a source group name to its seed URLs. A group is scraped as
// one unit and groups run in parallel.
type Groups map[string][]string

// Names returns the group names in sorted order.
func (g Groups) Names() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Seeds returns every seed URL across all groups, deduplicated, in sorted
// group order.
func (g Groups) Seeds() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, name := range g.Names() {
		for _, seed := range g[name] {
			if _, dup := seen[seed]; dup {
				continue
			}
			seen[seed] = struct{}{}
			out = append(out, seed)
		}
	}
	return out
}

// Load reads the sources file.
func Load(path string) (Groups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "sources: read %s", path)
	}
	var groups Groups
	if err := yaml.Unmarshal(data, &groups); err != nil {
		return nil, eris.Wrapf(err, "sources: parse %s", path)
	}
	if len(groups) == 0 {
		return nil, eris.Errorf("sources: %s defines no groups", path)
	}
	return groups, nil
}

// Save writes the sources file, replacing any existing content.
func Save(path string, groups Groups) error {
	data, err := yaml.Marshal(groups)
	if err != nil {
		return eris.Wrap(err, "sources: marshal")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "sources: write %s", path)
	}
	return nil
}
