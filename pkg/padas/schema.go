// Package padas assembles converted Sigma rules into PADAS rule records.
package padas

import (
	"fmt"

	"github.com/PhucNguyen204/sigma2padas/pkg/sigma"
)

// Schema is the output record shape.
type Schema int

const (
	// SchemaRule is used for detection rules that declare a logsource.
	SchemaRule Schema = iota
	// SchemaMeta is used for meta rules (correlations) without logsource.
	SchemaMeta
)

func (s Schema) String() string {
	switch s {
	case SchemaRule:
		return "rule"
	case SchemaMeta:
		return "meta"
	default:
		return fmt.Sprintf("Schema(%d)", int(s))
	}
}

// SelectSchema picks the schema from the presence of the logsource key.
func SelectSchema(r sigma.Rule) Schema {
	if r.HasLogsource {
		return SchemaRule
	}
	return SchemaMeta
}

// Record is one assembled PADAS rule.
type Record interface {
	Schema() Schema
	RuleID() string
	Predicate() string
}

// RuleRecord: {id, name, description, datamodel, annotations, pdl, enabled}
type RuleRecord struct {
	ID          any    `json:"id"`
	Name        any    `json:"name"`
	Description any    `json:"description"`
	Datamodel   string `json:"datamodel"`
	Annotations any    `json:"annotations"`
	PDL         string `json:"pdl"`
	Enabled     bool   `json:"enabled"`
}

func (RuleRecord) Schema() Schema { return SchemaRule }
func (r RuleRecord) RuleID() string { return fmt.Sprint(r.ID) }
func (r RuleRecord) Predicate() string { return r.PDL }

// MetaRecord: {id, title, description, padas_rule, type, field, group_by, timespan, condition, enabled}
// description mang predicate đã compile của detection.
type MetaRecord struct {
	ID          any    `json:"id"`
	Title       any    `json:"title"`
	Description string `json:"description"`
	PadasRule   any    `json:"padas_rule"`
	Type        any    `json:"type"`
	Field       any    `json:"field"`
	GroupBy     any    `json:"group_by"`
	Timespan    any    `json:"timespan"`
	Condition   any    `json:"condition"`
	Enabled     bool   `json:"enabled"`
}

func (MetaRecord) Schema() Schema { return SchemaMeta }
func (r MetaRecord) RuleID() string { return fmt.Sprint(r.ID) }
func (r MetaRecord) Predicate() string { return r.Description }
