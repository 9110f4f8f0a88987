package padas

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhucNguyen204/sigma2padas/pkg/pdl"
	"github.com/PhucNguyen204/sigma2padas/pkg/sigma"
)

func loadOne(t *testing.T, doc string) sigma.Rule {
	t.Helper()
	rules, err := sigma.LoadRulesYAML([]byte(doc))
	require.NoError(t, err)
	require.Len(t, rules, 1)
	return rules[0]
}

func TestDefaultID(t *testing.T) {
	assert.Equal(t, "suspicious_whoami_execution", DefaultID("Suspicious Whoami Execution"))
	assert.Equal(t, "already_ok", DefaultID("already_ok"))
}

func TestAssemble_RuleSchema(t *testing.T) {
	r := loadOne(t, `
title: Whoami Execution
description: Detects whoami
tags: [attack.discovery, attack.t1033]
logsource:
  product: windows
  category: process creation
detection:
  selection:
    EventID: 4624
    CommandLine|contains: whoami
  condition: selection
`)
	rec, err := NewAssembler(nil).Assemble(r)
	require.NoError(t, err)
	require.Equal(t, SchemaRule, rec.Schema())

	rr, ok := rec.(RuleRecord)
	require.True(t, ok)
	assert.Equal(t, "whoami_execution", rr.ID)
	assert.Equal(t, "Whoami Execution", rr.Name)
	assert.Equal(t, "Detects whoami", rr.Description)
	assert.Equal(t, "windows_process_creation", rr.Datamodel)
	assert.Equal(t, []any{"attack.discovery", "attack.t1033"}, rr.Annotations)
	assert.Equal(t, `((EventID=4624) AND (CommandLine?="whoami"))`, rr.PDL)
	assert.False(t, rr.Enabled)

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":"whoami_execution","name":"Whoami Execution","description":"Detects whoami","datamodel":"windows_process_creation","annotations":["attack.discovery","attack.t1033"],"pdl":"((EventID=4624) AND (CommandLine?=\"whoami\"))","enabled":false}`,
		string(b))
}

func TestAssemble_RuleSchemaMissingOptionalFields(t *testing.T) {
	r := loadOne(t, `
id: r-1
title: T
logsource:
  product: linux
  service: [not, a, string]
detection:
  s:
    a: 1
  condition: s
`)
	rec, err := NewAssembler(nil).Assemble(r)
	require.NoError(t, err)
	rr := rec.(RuleRecord)
	assert.Equal(t, "r-1", rr.ID)
	assert.Equal(t, "", rr.Description)
	assert.Equal(t, "", rr.Annotations)
	assert.Equal(t, "", rr.Datamodel)
}

func TestAssemble_MetaSchema(t *testing.T) {
	r := loadOne(t, `
id: many-failed-logons
title: Many failed logons
name: Many Failed Logons
type: event_count
rules: [failed_logon]
group-by: [User]
timespan: 5m
condition:
  gte: 10
detection:
  sel:
    User: null
  condition: sel
`)
	rec, err := NewAssembler(nil).Assemble(r)
	require.NoError(t, err)
	require.Equal(t, SchemaMeta, rec.Schema())

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t,
		`{"id":"many-failed-logons","title":"Many Failed Logons","description":"((User != \"*\"))","padas_rule":["failed_logon"],"type":"event_count","field":"","group_by":["User"],"timespan":"5m","condition":{"gte":10},"enabled":false}`,
		string(b))
}

func TestAssemble_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{"no detection", "id: a\ntitle: A\n", []string{"detection"}},
		{"no title no id", "detection:\n  s:\n    a: 1\n  condition: s\n", []string{"id", "title"}},
		{"non-string title cannot default id", "title: 42\ndetection:\n  s:\n    a: 1\n  condition: s\n", []string{"id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAssembler(nil).Assemble(loadOne(t, tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingRequiredField))
			var mf *MissingFieldsError
			require.True(t, errors.As(err, &mf))
			assert.Equal(t, tt.want, mf.Fields)
		})
	}
}

func TestAssemble_DoesNotMutateRule(t *testing.T) {
	r := loadOne(t, "title: No Id\nlogsource: {product: x}\ndetection:\n  s:\n    a|startswith: [x, y]\n  condition: s\n")
	det := r.Detection.Clone()
	_, err := NewAssembler(nil).Assemble(r)
	require.NoError(t, err)
	assert.False(t, r.Has("id"), "default id must not be written back")
	assert.Equal(t, det, *r.Detection)
}

func TestAssemble_UnsupportedValuePropagates(t *testing.T) {
	r := loadOne(t, "title: F\nlogsource: {product: x}\ndetection:\n  s:\n    score: 1.5\n  condition: s\n")
	_, err := NewAssembler(nil).Assemble(r)
	assert.ErrorIs(t, err, pdl.ErrUnsupportedValueType)
}

func TestAssemble_NullLogsourceStillSelectsRuleSchema(t *testing.T) {
	r := loadOne(t, "title: N\nlogsource:\ndetection:\n  s:\n    a: 1\n  condition: s\n")
	rec, err := NewAssembler(nil).Assemble(r)
	require.NoError(t, err)
	assert.Equal(t, SchemaRule, rec.Schema())
	assert.Equal(t, "", rec.(RuleRecord).Datamodel)
}
