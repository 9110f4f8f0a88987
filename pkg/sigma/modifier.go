package sigma

import (
	"fmt"
	"strconv"
	"strings"
)

// Modifier là hậu tố sau "|" trong field key.
type Modifier int

const (
	ModNone Modifier = iota
	ModContains
	ModGt
	ModGte
	ModLt
	ModLte
	ModStartsWith
	ModEndsWith
)

const (
	keyDelimiter = "|"
	wildcard     = "*"
)

var modifierByName = map[string]Modifier{
	"contains":   ModContains,
	"gt":         ModGt,
	"gte":        ModGte,
	"lt":         ModLt,
	"lte":        ModLte,
	"startswith": ModStartsWith,
	"endswith":   ModEndsWith,
}

var operatorByModifier = [...]string{
	ModNone:       "=",
	ModContains:   "?=",
	ModGt:         ">",
	ModGte:        ">=",
	ModLt:         "<",
	ModLte:        "<=",
	ModStartsWith: "=",
	ModEndsWith:   "=",
}

func (m Modifier) String() string {
	for name, mod := range modifierByName {
		if mod == m {
			return name
		}
	}
	if m == ModNone {
		return "none"
	}
	return fmt.Sprintf("Modifier(%d)", int(m))
}

// Operator returns the PDL comparison operator for m.
func (m Modifier) Operator() string {
	if m < 0 || int(m) >= len(operatorByModifier) {
		return operatorByModifier[ModNone]
	}
	return operatorByModifier[m]
}

// HasTransform reports whether m rewrites values before rendering.
func (m Modifier) HasTransform() bool {
	return m == ModStartsWith || m == ModEndsWith
}

// Transform applies the wildcard rewrite of startswith/endswith to a scalar or
// to every element of a list. Other modifiers return v unchanged.
// Null and non-scalar values are left as is for the renderer to judge.
func (m Modifier) Transform(v any) any {
	if !m.HasTransform() {
		return v
	}
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i, it := range list {
			out[i] = m.transformScalar(it)
		}
		return out
	}
	return m.transformScalar(v)
}

func (m Modifier) transformScalar(v any) any {
	s, ok := scalarString(v)
	if !ok {
		return v
	}
	s = strings.ReplaceAll(s, `\\`, `\`)
	if m == ModStartsWith {
		return s + wildcard
	}
	return wildcard + s
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case bool:
		return FormatBool(t), true
	default:
		return "", false
	}
}

// FormatBool renders a boolean the way existing PADAS rule sets spell it: True or False.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// FieldKey là kết quả phân tích "Field|modifier".
type FieldKey struct {
	Field    string
	Modifier Modifier
}

func (k FieldKey) Operator() string { return k.Modifier.Operator() }

// ParseFieldKey splits a criterion key on the first "|".
// A key without delimiter, or with a suffix outside the modifier table, resolves to
// the raw key compared with "=". It never fails.
func ParseFieldKey(key string) FieldKey {
	field, suffix, found := strings.Cut(key, keyDelimiter)
	if !found {
		return FieldKey{Field: key, Modifier: ModNone}
	}
	mod, ok := modifierByName[suffix]
	if !ok {
		// modifier lạ hoặc chuỗi nhiều modifier: so sánh bằng trên key gốc
		return FieldKey{Field: key, Modifier: ModNone}
	}
	return FieldKey{Field: field, Modifier: mod}
}
