package sigma

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidDocument  = errors.New("document is not a mapping")
	ErrInvalidDetection = errors.New("detection must be a mapping")
	ErrMissingCondition = errors.New("missing detection.condition")
	ErrInvalidCondition = errors.New("detection.condition must be a string")
	ErrInvalidSelection = errors.New("selection must be a mapping or a list of mappings")
)

const conditionKey = "condition"

// LoadRulesYAML đọc toàn bộ document trong một stream YAML (multi-document).
// Document rỗng bị bỏ qua.
func LoadRulesYAML(b []byte) ([]Rule, error) {
	return LoadRules(bytes.NewReader(b), "")
}

// LoadRules decodes every document of r. source is only used for error messages.
func LoadRules(r io.Reader, source string) ([]Rule, error) {
	dec := yaml.NewDecoder(r)
	var out []Rule
	for idx := 0; ; idx++ {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%s: yaml: %w", describe(source, idx), err)
		}
		root := unwrap(&doc)
		if root == nil || root.Kind == 0 || isNull(root) {
			continue
		}
		rule, err := parseRule(root)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", describe(source, idx), err)
		}
		rule.Index = len(out)
		rule.Source = source
		out = append(out, rule)
	}
	return out, nil
}

func describe(source string, idx int) string {
	if source == "" {
		return fmt.Sprintf("document %d", idx)
	}
	return fmt.Sprintf("%s document %d", source, idx)
}

func parseRule(root *yaml.Node) (Rule, error) {
	if root.Kind != yaml.MappingNode {
		return Rule{}, ErrInvalidDocument
	}
	rule := Rule{Fields: make(map[string]any, len(root.Content)/2)}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		valNode := unwrap(root.Content[i+1])

		val, err := decodeValue(valNode)
		if err != nil {
			return Rule{}, fmt.Errorf("field %s: %w", key, err)
		}
		if _, dup := rule.Fields[key]; !dup {
			rule.Keys = append(rule.Keys, key)
		}
		rule.Fields[key] = val

		switch key {
		case "detection":
			det, err := parseDetection(valNode)
			if err != nil {
				return Rule{}, err
			}
			rule.Detection = &det
		case "logsource":
			rule.HasLogsource = true
			rule.Logsource = orderedPairs(valNode)
		}
	}
	return rule, nil
}

func parseDetection(node *yaml.Node) (Detection, error) {
	if node.Kind != yaml.MappingNode {
		return Detection{}, ErrInvalidDetection
	}
	var det Detection
	hasCond := false
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		val := unwrap(node.Content[i+1])
		if name == conditionKey {
			if val.Kind != yaml.ScalarNode || val.ShortTag() != "!!str" {
				return Detection{}, ErrInvalidCondition
			}
			det.Condition = val.Value
			hasCond = true
			continue
		}
		sel, err := parseSelection(name, val)
		if err != nil {
			return Detection{}, err
		}
		det.Selections = append(det.Selections, sel)
	}
	if !hasCond {
		return Detection{}, ErrMissingCondition
	}
	return det, nil
}

func parseSelection(name string, node *yaml.Node) (Selection, error) {
	switch node.Kind {
	case yaml.MappingNode:
		grp, err := parseGroup(node)
		if err != nil {
			return Selection{}, fmt.Errorf("selection %s: %w", name, err)
		}
		return Selection{Name: name, Groups: []SelectionGroup{grp}}, nil

	case yaml.SequenceNode:
		groups := make([]SelectionGroup, 0, len(node.Content))
		for i, item := range node.Content {
			item = unwrap(item)
			if item.Kind != yaml.MappingNode {
				return Selection{}, fmt.Errorf("selection %s item %d: %w", name, i, ErrInvalidSelection)
			}
			grp, err := parseGroup(item)
			if err != nil {
				return Selection{}, fmt.Errorf("selection %s item %d: %w", name, i, err)
			}
			groups = append(groups, grp)
		}
		return Selection{Name: name, Groups: groups}, nil

	default:
		return Selection{}, fmt.Errorf("selection %s: %w", name, ErrInvalidSelection)
	}
}

func parseGroup(node *yaml.Node) (SelectionGroup, error) {
	grp := SelectionGroup{Criteria: make([]Criterion, 0, len(node.Content)/2)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		v, err := decodeValue(unwrap(node.Content[i+1]))
		if err != nil {
			return SelectionGroup{}, fmt.Errorf("field %s: %w", node.Content[i].Value, err)
		}
		grp.Criteria = append(grp.Criteria, Criterion{Key: node.Content[i].Value, Value: v})
	}
	return grp, nil
}

func orderedPairs(node *yaml.Node) []KeyValue {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]KeyValue, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		v, err := decodeValue(unwrap(node.Content[i+1]))
		if err != nil {
			v = nil
		}
		out = append(out, KeyValue{Key: node.Content[i].Value, Value: v})
	}
	return out
}

func decodeValue(node *yaml.Node) (any, error) {
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return normalize(v), nil
}

// yaml.v3 trả int cho số nhỏ; thống nhất về int64.
func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalize(t[k])
		}
		return t
	default:
		return v
	}
}

func unwrap(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}
