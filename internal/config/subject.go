package config

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/remiblancher/qcert/internal/cert"
	"github.com/remiblancher/qcert/internal/x509util"
)

// Subject is an ordered list of subject fields.
type Subject []cert.Field

// UnmarshalYAML keeps the mapping order of the subject section.
func (s *Subject) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: subject must be a mapping", node.Line)
	}

	fields := make(Subject, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var value any
		switch valueNode.Kind {
		case yaml.ScalarNode:
			value = valueNode.Value
		case yaml.SequenceNode:
			var entries []string
			if err := valueNode.Decode(&entries); err != nil {
				return fmt.Errorf("line %d: subject.%s: %w", valueNode.Line, keyNode.Value, err)
			}
			value = entries
		default:
			return fmt.Errorf("line %d: subject.%s must be a string or a list of strings", valueNode.Line, keyNode.Value)
		}
		fields = append(fields, cert.Field{Key: keyNode.Value, Value: value})
	}

	*s = fields
	return nil
}

// subjectFromMap orders an unordered subject table: known attributes in
// attribute-table order, then unknown keys sorted, then the SAN.
func subjectFromMap(m map[string]any) (Subject, error) {
	types := x509util.AttributeTypes()
	rank := func(key string) int {
		if isSANKey(key) {
			return len(types) + 1
		}
		if at, ok := x509util.LookupAttribute(key); ok {
			for i := range types {
				if types[i].OID.Equal(at.OID) {
					return i
				}
			}
		}
		return len(types)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ri, rj := rank(keys[i]), rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})

	fields := make(Subject, 0, len(keys))
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			fields = append(fields, cert.Field{Key: k, Value: v})
		case []any:
			entries := make([]string, 0, len(v))
			for _, e := range v {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("subject.%s: list entries must be strings", k)
				}
				entries = append(entries, s)
			}
			fields = append(fields, cert.Field{Key: k, Value: entries})
		default:
			return nil, fmt.Errorf("subject.%s must be a string or a list of strings", k)
		}
	}
	return fields, nil
}
