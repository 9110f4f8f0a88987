package sigma

// Một criterion: "Field|modifier": value
type Criterion struct {
	Key   string
	Value any // nil|string|int64|bool|[]any
}

// Một group là AND của nhiều criterion, theo thứ tự khai báo
type SelectionGroup struct {
	Criteria []Criterion
}

// Một selection là OR các group (list → nhiều group; mapping → 1 group)
type Selection struct {
	Name   string
	Groups []SelectionGroup
}

// Detection là khối detection của rule: các selection có thứ tự + condition.
type Detection struct {
	Selections []Selection
	Condition  string
}

// Names returns the selection names in declaration order.
func (d Detection) Names() []string {
	out := make([]string, 0, len(d.Selections))
	for _, s := range d.Selections {
		out = append(out, s.Name)
	}
	return out
}

// Clone returns a deep copy that shares no slices or list values with d.
func (d Detection) Clone() Detection {
	out := Detection{Condition: d.Condition, Selections: make([]Selection, len(d.Selections))}
	for i, sel := range d.Selections {
		groups := make([]SelectionGroup, len(sel.Groups))
		for j, g := range sel.Groups {
			crit := make([]Criterion, len(g.Criteria))
			for k, c := range g.Criteria {
				crit[k] = Criterion{Key: c.Key, Value: cloneValue(c.Value)}
			}
			groups[j] = SelectionGroup{Criteria: crit}
		}
		out.Selections[i] = Selection{Name: sel.Name, Groups: groups}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		cp := make([]any, len(t))
		for i, it := range t {
			cp[i] = cloneValue(it)
		}
		return cp
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, it := range t {
			cp[k] = cloneValue(it)
		}
		return cp
	default:
		return v
	}
}

// KeyValue là một cặp key/value giữ thứ tự (logsource).
type KeyValue struct {
	Key   string
	Value any
}

// Rule là một document YAML đã được parse.
type Rule struct {
	// Index of the document inside its source file (0-based).
	Index int
	// Source file path, empty for in-memory input.
	Source string
	// Keys keeps top-level key order.
	Keys   []string
	Fields map[string]any

	Detection    *Detection
	HasLogsource bool
	Logsource    []KeyValue
}

// Has reports whether the top-level key is present (even when its value is null).
func (r Rule) Has(key string) bool {
	_, ok := r.Fields[key]
	return ok
}

// String returns the top-level value when it is a string.
func (r Rule) String(key string) (string, bool) {
	s, ok := r.Fields[key].(string)
	return s, ok
}
