package batch

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhucNguyen204/sigma2padas/internal/logger"
	"github.com/PhucNguyen204/sigma2padas/pkg/padas"
	"github.com/PhucNguyen204/sigma2padas/pkg/pdl"
	"github.com/PhucNguyen204/sigma2padas/pkg/sigma"
)

func genRules(t *testing.T, n int) []sigma.Rule {
	t.Helper()
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString("---\n")
		}
		fmt.Fprintf(&b, "id: r%d\ntitle: Rule %d\nlogsource: {product: windows}\ndetection:\n  s:\n    EventID: %d\n  condition: s\n", i, i, i)
	}
	rules, err := sigma.LoadRulesYAML([]byte(b.String()))
	require.NoError(t, err)
	require.Len(t, rules, n)
	return rules
}

func TestConvert_PreservesOrder(t *testing.T) {
	rules := genRules(t, 50)
	for _, workers := range []int{1, 4, 100} {
		c := NewConverter(padas.NewAssembler(nil), workers, nil)
		res, err := c.Convert(rules)
		require.NoError(t, err)
		require.Equal(t, 50, res.ProcessedRules)
		for i, r := range res.Records {
			assert.Equal(t, fmt.Sprintf("r%d", i), r.RuleID())
			assert.Equal(t, fmt.Sprintf("((EventID=%d))", i), r.Predicate())
		}
	}
}

func TestConvert_Empty(t *testing.T) {
	res, err := NewConverter(padas.NewAssembler(nil), 4, nil).Convert(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ProcessedRules)
	assert.Empty(t, res.Records)
}

func TestConvert_FirstErrorAbortsBatch(t *testing.T) {
	rules := genRules(t, 6)
	rules[2].Detection = nil
	rules[4].Detection = nil

	res, err := NewConverter(padas.NewAssembler(nil), 3, nil).Convert(rules)
	require.Error(t, err)
	assert.Nil(t, res)

	var mf *padas.MissingFieldsError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, 2, mf.Index)
	assert.Equal(t, "missing_required_field", reason(err))
}

func TestConvert_WarnsOnLiteralCollisions(t *testing.T) {
	rules, err := sigma.LoadRulesYAML([]byte("title: c\nlogsource: {product: x}\ndetection:\n  sel:\n    a: 1\n  selection:\n    b: 2\n  condition: sel or selection\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "warn")
	asm := padas.NewAssembler(pdl.WithOptions(pdl.Options{Mode: pdl.SubstituteLiteral}))
	_, err = NewConverter(asm, 1, log).Convert(rules)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "literal substitution may corrupt condition")
	assert.Contains(t, buf.String(), `"within":"selection"`)

	buf.Reset()
	_, err = NewConverter(padas.NewAssembler(nil), 1, log).Convert(rules)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestReason(t *testing.T) {
	assert.Equal(t, "unsupported_value_type", reason(fmt.Errorf("x: %w", &pdl.UnsupportedValueTypeError{Field: "f", Value: 1.5})))
	assert.Equal(t, "empty_value_list", reason(pdl.ErrEmptyValueList))
	assert.Equal(t, "other", reason(errors.New("boom")))
}
