package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Top-level YAML config key names used for shallow merge.
const (
	keyAPI     = "api"
	keyView    = "view"
	keyCache   = "cache"
	keyLogging = "logging"
	keyTheme   = "theme"
)

// knownTopLevelKeys lists the YAML keys that correspond to Config sections.
// Other keys are ignored during merge.
//
//nolint:gochecknoglobals // Compile-time constant lookup table.
var knownTopLevelKeys = map[string]bool{
	keyAPI:     true,
	keyView:    true,
	keyCache:   true,
	keyLogging: true,
	keyTheme:   true,
}

// ShallowMergeYAML loads a YAML file and merges its top-level keys onto target. A section
// present in the overlay replaces the whole section in target; absent sections are left
// unchanged.
func ShallowMergeYAML(target *Config, overlayPath string) error {
	if target == nil {
		return errors.New("nil target *Config in ShallowMergeYAML")
	}

	data, err := os.ReadFile(overlayPath)
	if err != nil {
		return fmt.Errorf("reading overlay file %s: %w", overlayPath, err)
	}

	var doc yaml.Node
	if err = yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing overlay YAML from %s: %w", overlayPath, err)
	}
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("overlay %s must be a mapping", overlayPath)
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		if !knownTopLevelKeys[key] {
			continue
		}
		if err = unmarshalSection(target, key, root.Content[i+1]); err != nil {
			return fmt.Errorf("applying overlay section %q: %w", key, err)
		}
	}
	return nil
}

// unmarshalSection decodes node into a zero value of the section type so the overlay
// replaces the section instead of merging into it.
func unmarshalSection(target *Config, key string, node *yaml.Node) error {
	switch key {
	case keyAPI:
		var v APIConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.API = v
	case keyView:
		var v ViewConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.View = v
	case keyCache:
		var v CacheConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Cache = v
	case keyLogging:
		var v LoggingConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Logging = v
	case keyTheme:
		var v ThemeConfig
		if err := node.Decode(&v); err != nil {
			return err
		}
		target.Theme = v
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
