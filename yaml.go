package magidict

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// FromYAML parses a YAML document whose root is a mapping into a Dict,
// preserving document key order. Anchors and aliases resolve to shared
// instances, mirroring the shared-reference behavior of the conversion
// engine.
func FromYAML(data []byte) (*Dict, error) {
	var d Dict
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Mapping nodes become Dicts
// bottom-up, sequence nodes become []any, scalars decode to their
// natural Go types.
func (d *Dict) UnmarshalYAML(node *yaml.Node) error {
	if err := d.guardMutation(); err != nil {
		return err
	}
	v, err := yamlToValue(node, make(map[*yaml.Node]any))
	if err != nil {
		return err
	}
	parsed, ok := v.(*Dict)
	if !ok {
		return newErr(ErrType, fmt.Sprintf("YAML root is %T, not a mapping", v))
	}
	d.keys = parsed.keys
	d.values = parsed.values
	d.index = parsed.index
	return nil
}

// yamlToValue walks the node tree. The memo is keyed by node pointer so
// an aliased anchor converts once and every alias shares the instance;
// containers register before their children, which lets recursive
// aliases terminate.
func yamlToValue(node *yaml.Node, memo map[*yaml.Node]any) (any, error) {
	switch node.Kind {

	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return yamlToValue(node.Content[0], memo)

	case yaml.AliasNode:
		if v, ok := memo[node.Alias]; ok {
			return v, nil
		}
		return yamlToValue(node.Alias, memo)

	case yaml.MappingNode:
		d := newDict()
		memo[node] = d
		for i := 0; i+1 < len(node.Content); i += 2 {
			kn, vn := node.Content[i], node.Content[i+1]
			if kn.Kind != yaml.ScalarNode {
				return nil, newErr(ErrType, "non-scalar YAML mapping key")
			}
			v, err := yamlToValue(vn, memo)
			if err != nil {
				return nil, err
			}
			d.put(kn.Value, v)
		}
		return d, nil

	case yaml.SequenceNode:
		out := make([]any, len(node.Content))
		memo[node] = out
		for i, cn := range node.Content {
			v, err := yamlToValue(cn, memo)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case yaml.ScalarNode:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, newErr(ErrType, fmt.Sprintf("unsupported YAML node kind %d", node.Kind))
}

// MarshalYAML implements yaml.Marshaler, emitting a mapping node in
// insertion order. Placeholders emit an empty mapping.
func (d *Dict) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i, k := range d.keys {
		kn := &yaml.Node{}
		if err := kn.Encode(k); err != nil {
			return nil, err
		}
		vn := &yaml.Node{}
		if d.values[i] == nil {
			vn.Kind = yaml.ScalarNode
			vn.Tag = "!!null"
			vn.Value = "null"
		} else if err := vn.Encode(d.values[i]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, kn, vn)
	}
	return node, nil
}
