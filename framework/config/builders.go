package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-kernel/framework/container"
)

// BuildersFile is the builders source location relative to the base path.
const BuildersFile = "config/builders.yaml"

// Catalog maps a catalog key to a builder func. The builders file refers to
// entries by key; it never carries code itself.
type Catalog map[string]any

// Keys returns the catalog keys, sorted.
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// entry is the long form of a builders file value: {use: <catalog key>}.
type entry struct {
	Use string `mapstructure:"use"`
}

// FileSource reads a YAML mapping of builder name → catalog key, in file order:
//
//	logger: logging.zap
//	executor: kernel.executor
//	router:
//	  use: routing.chi
type FileSource struct {
	Path    string
	Catalog Catalog
}

// NewFileSource addresses <base>/config/builders.yaml.
func NewFileSource(base string, catalog Catalog) *FileSource {
	return &FileSource{Path: filepath.Join(base, BuildersFile), Catalog: catalog}
}

var _ container.Source = (*FileSource)(nil)

// Load implements container.Source. Every failure is a ConfigLoadError.
func (s *FileSource) Load() ([]container.Definition, error) {
	defs, err := s.load()
	if err != nil {
		return nil, &container.ConfigLoadError{Path: s.Path, Err: err}
	}
	return defs, nil
}

func (s *FileSource) load() ([]container.Definition, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Wrap(err, "reading builders file")
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing builders file")
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Errorf("builders file must be a mapping, line %d", root.Line)
	}

	defs := make([]container.Definition, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		name, value := root.Content[i].Value, root.Content[i+1]
		key, err := catalogKey(value)
		if err != nil {
			return nil, errors.Wrapf(err, "builder %q", name)
		}
		fn, ok := s.Catalog[key]
		if !ok {
			return nil, fmt.Errorf("builder %q: unknown catalog entry %q (line %d)", name, key, value.Line)
		}
		defs = append(defs, container.Definition{Name: name, Builder: fn})
	}
	return defs, nil
}

func catalogKey(n *yaml.Node) (string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil
	case yaml.MappingNode:
		var raw map[string]any
		if err := n.Decode(&raw); err != nil {
			return "", err
		}
		var e entry
		if err := mapstructure.Decode(raw, &e); err != nil {
			return "", err
		}
		if e.Use == "" {
			return "", errors.Errorf("missing \"use\" at line %d", n.Line)
		}
		return e.Use, nil
	}
	return "", errors.Errorf("unsupported value at line %d", n.Line)
}
