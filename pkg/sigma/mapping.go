package sigma

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldMapping đổi tên field Sigma sang tên field PADAS.
type FieldMapping struct{ M map[string]string }

func NewFieldMapping(m map[string]string) FieldMapping {
	if m == nil {
		m = map[string]string{}
	}
	return FieldMapping{M: m}
}

// LoadFieldMapping reads a flat YAML mapping "SigmaField: padas_field".
func LoadFieldMapping(path string) (FieldMapping, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return FieldMapping{}, fmt.Errorf("read field mapping: %w", err)
	}
	m := map[string]string{}
	if err := yaml.Unmarshal(b, &m); err != nil {
		return FieldMapping{}, fmt.Errorf("parse field mapping %s: %w", path, err)
	}
	return NewFieldMapping(m), nil
}

func (fm FieldMapping) Resolve(field string) string {
	if v, ok := fm.M[field]; ok {
		return v
	}
	if v, ok := fm.M[strings.ToLower(field)]; ok {
		return v
	}
	return field
}

func (fm FieldMapping) Len() int { return len(fm.M) }
