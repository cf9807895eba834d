package document

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML mapping into a document, preserving key order.
func ParseYAML(data []byte) (*Map, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("document: parsing yaml: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return NewMap(), nil
	}
	v, err := nodeToValue(root.Content[0])
	if err != nil {
		return nil, err
	}
	if !v.IsMap() {
		return nil, fmt.Errorf("document: top-level YAML value must be a mapping, got %s", v.Kind())
	}
	return v.MapVal(), nil
}

// EncodeYAML renders the document as YAML with keys in insertion order.
func EncodeYAML(m *Map) ([]byte, error) {
	node, err := valueToNode(MapValue(m))
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(node)
}

func nodeToValue(n *yaml.Node) (Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return scalarToValue(n)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeToValue(c)
			if err != nil {
				return Null(), err
			}
			items = append(items, v)
		}
		return Value{kind: KindList, list: items}, nil
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeToValue(n.Content[i+1])
			if err != nil {
				return Null(), err
			}
			m.Set(n.Content[i].Value, v)
		}
		return MapValue(m), nil
	case yaml.AliasNode:
		return nodeToValue(n.Alias)
	default:
		return Null(), fmt.Errorf("document: unsupported yaml node kind %d", n.Kind)
	}
}

func scalarToValue(n *yaml.Node) (Value, error) {
	switch n.Tag {
	case "!!null", "":
		if n.Tag == "" && n.Value != "" {
			return String(n.Value), nil
		}
		return Null(), nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return Null(), fmt.Errorf("document: invalid yaml bool %q: %w", n.Value, err)
		}
		return Bool(b), nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return Null(), fmt.Errorf("document: invalid yaml int %q: %w", n.Value, err)
		}
		return Int(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return Null(), fmt.Errorf("document: invalid yaml float %q: %w", n.Value, err)
		}
		return Float(f), nil
	default:
		return String(n.Value), nil
	}
}

func valueToNode(v Value) (*yaml.Node, error) {
	switch v.kind {
	case KindNull:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}, nil
	case KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.i, 10)}, nil
	case KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v.f, 'g', -1, 64)}, nil
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.s}, nil
	case KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.list {
			c, err := valueToNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case KindMap:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range v.m.Keys() {
			mv, _ := v.m.Get(k)
			c, err := valueToNode(mv)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, c)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("document: unsupported value kind %s", v.kind)
	}
}
