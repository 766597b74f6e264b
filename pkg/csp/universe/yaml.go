package universe

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLSource loads tickers from a YAML file or a directory of them.
//
// Two layouts are accepted:
//
//	tickers: [NFLX, AMD]
//
// or a watchlist of items, optionally nested in named groups:
//
//	watchlist:
//	  - sym: NFLX
//	  - name: chips
//	    watchlist:
//	      - sym: AMD
type YAMLSource struct{}

func (YAMLSource) Load(ctx context.Context, path string) ([]Group, error) { //nolint:revive // ctx reserved for future use
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		groups, err := readFile(path)
		if err != nil {
			return nil, err
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for i := range groups {
			groups[i].Name = joinName(base, groups[i].Name)
		}
		return groups, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var all []Group
	for _, full := range files {
		groups, err := readFile(full)
		if err != nil {
			return nil, err
		}
		// Prefix group names with the path relative to the root, without extension.
		rel, err := filepath.Rel(path, full)
		if err != nil {
			rel = filepath.Base(full)
		}
		prefix := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		for i := range groups {
			groups[i].Name = joinName(prefix, groups[i].Name)
		}
		all = append(all, groups...)
	}
	return all, nil
}

func readFile(path string) ([]Group, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	groups, err := parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return groups, nil
}

type yamlNode struct {
	Name      string     `yaml:"name"`
	Sym       string     `yaml:"sym"`
	Tickers   []string   `yaml:"tickers"`
	Watchlist []yamlNode `yaml:"watchlist"`
}

func parseYAML(data []byte) ([]Group, error) {
	var root yamlNode
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Tickers) == 0 && len(root.Watchlist) == 0 {
		return nil, fmt.Errorf("invalid yaml: expected 'tickers' or 'watchlist'")
	}

	var groups []Group
	if len(root.Tickers) > 0 {
		groups = append(groups, Group{Name: root.Name, Tickers: Merge(root.Tickers)})
	}
	var walk func(nodes []yamlNode, path []string)
	walk = func(nodes []yamlNode, path []string) {
		var leaf []string
		for _, n := range nodes {
			if t := normalize(n.Sym); t != "" {
				leaf = append(leaf, t)
			}
		}
		if len(leaf) > 0 {
			groups = append(groups, Group{Name: strings.Join(path, "/"), Tickers: leaf})
		}
		for _, n := range nodes {
			if len(n.Watchlist) == 0 && len(n.Tickers) == 0 {
				continue
			}
			next := path
			if n.Name != "" {
				next = append(append([]string(nil), path...), n.Name)
			}
			if len(n.Tickers) > 0 {
				groups = append(groups, Group{Name: strings.Join(next, "/"), Tickers: Merge(n.Tickers)})
			}
			walk(n.Watchlist, next)
		}
	}
	walk(root.Watchlist, nil)
	return groups, nil
}

func joinName(prefix, name string) string {
	switch {
	case strings.TrimSpace(name) == "":
		return prefix
	case prefix == "":
		return name
	default:
		return prefix + "/" + name
	}
}
