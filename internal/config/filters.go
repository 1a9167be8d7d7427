package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rshade/pubscope/internal/model"
)

// FilterOverrides is the view.filters mapping. Key order in the file is kept.
type FilterOverrides struct {
	model.FilterSet
}

// IsZero lets omitempty drop an empty mapping.
func (f FilterOverrides) IsZero() bool { return f.Len() == 0 }

// MarshalYAML writes the filters as a mapping in key order.
func (f FilterOverrides) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range f.Keys() {
		v, _ := f.Get(key)
		var value yaml.Node
		if err := value.Encode(v); err != nil {
			return nil, fmt.Errorf("encoding filter %q: %w", key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&value)
	}
	return node, nil
}

// UnmarshalYAML reads a mapping of scalars and string sequences.
func (f *FilterOverrides) UnmarshalYAML(node *yaml.Node) error {
	set := model.NewFilterSet()
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		f.FilterSet = set
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: filters must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		v, err := filterValue(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("filter %q: %w", key, err)
		}
		set.Set(key, v)
	}
	f.FilterSet = set
	return nil
}

func filterValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: list items must be scalars", item.Line)
			}
			out = append(out, item.Value)
		}
		return out, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			err := n.Decode(&b)
			return b, err
		case "!!int":
			var i int
			err := n.Decode(&i)
			return i, err
		case "!!float":
			var fl float64
			err := n.Decode(&fl)
			return fl, err
		default:
			return n.Value, nil
		}
	default:
		return nil, fmt.Errorf("line %d: unsupported value", n.Line)
	}
}
