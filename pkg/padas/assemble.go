package padas

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PhucNguyen204/sigma2padas/pkg/pdl"
	"github.com/PhucNguyen204/sigma2padas/pkg/sigma"
)

var ErrMissingRequiredField = errors.New("required fields are missing")

// RequiredFields must be present in every rule once the default id is applied.
var RequiredFields = []string{"id", "title", "detection"}

// MissingFieldsError names the rule document and the absent fields.
type MissingFieldsError struct {
	Index  int
	Source string
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	where := fmt.Sprintf("rule %d", e.Index)
	if e.Source != "" {
		where = fmt.Sprintf("%s rule %d", e.Source, e.Index)
	}
	return fmt.Sprintf("%s: %v: %s", where, ErrMissingRequiredField, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error { return ErrMissingRequiredField }

// Assembler turns loaded Sigma rules into PADAS records.
type Assembler struct {
	compiler *pdl.Compiler
}

func NewAssembler(c *pdl.Compiler) *Assembler {
	if c == nil {
		c = pdl.New()
	}
	return &Assembler{compiler: c}
}

func (a *Assembler) Compiler() *pdl.Compiler { return a.compiler }

// DefaultID derives an id from a title: spaces become "_" and letters are lower-cased.
func DefaultID(title string) string {
	return strings.ToLower(strings.ReplaceAll(title, " ", "_"))
}

// Assemble compiles r's detection and maps its fields into the schema chosen by
// SelectSchema. r is not modified. Fields the schema names but r lacks become "".
func (a *Assembler) Assemble(r sigma.Rule) (Record, error) {
	src := sourceFields{rule: r}
	if !r.Has("id") {
		if title, ok := r.String("title"); ok {
			src.defaultID = DefaultID(title)
			src.hasDefault = true
		}
	}

	var missing []string
	for _, f := range RequiredFields {
		if !src.has(f) {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFieldsError{Index: r.Index, Source: r.Source, Fields: missing}
	}

	pred, err := a.compiler.Compile(*r.Detection)
	if err != nil {
		return nil, fmt.Errorf("rule %v: %w", src.get("id"), err)
	}

	switch SelectSchema(r) {
	case SchemaRule:
		return RuleRecord{
			ID:          src.get("id"),
			Name:        src.get("title"),
			Description: src.get("description"),
			Datamodel:   datamodel(r.Logsource),
			Annotations: src.get("tags"),
			PDL:         pred,
		}, nil
	default:
		return MetaRecord{
			ID:          src.get("id"),
			Title:       src.get("name"),
			Description: pred,
			PadasRule:   src.get("rules"),
			Type:        src.get("type"),
			Field:       src.get("field"),
			GroupBy:     src.get("group-by"),
			Timespan:    src.get("timespan"),
			Condition:   src.get("condition"),
		}, nil
	}
}

// datamodel nối các giá trị logsource bằng "_"; giá trị không phải string => "".
func datamodel(ls []sigma.KeyValue) string {
	parts := make([]string, 0, len(ls))
	for _, kv := range ls {
		s, ok := kv.Value.(string)
		if !ok {
			return ""
		}
		parts = append(parts, s)
	}
	return strings.ReplaceAll(strings.Join(parts, "_"), " ", "_")
}

type sourceFields struct {
	rule       sigma.Rule
	defaultID  string
	hasDefault bool
}

func (s sourceFields) has(key string) bool {
	if key == "detection" {
		return s.rule.Detection != nil
	}
	return s.rule.Has(key) || (key == "id" && s.hasDefault)
}

func (s sourceFields) get(key string) any {
	if v, ok := s.rule.Fields[key]; ok {
		return v
	}
	if key == "id" && s.hasDefault {
		return s.defaultID
	}
	return ""
}
