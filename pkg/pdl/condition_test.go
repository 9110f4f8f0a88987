package pdl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_RoundTrip(t *testing.T) {
	for _, cond := range []string{
		"selection",
		"  s  AnD  nOt ( s and  false_id ) ",
		"(a or b)and(not c)",
		"1 of sel* | count() > 5",
		"",
		"sél and ünïcode",
	} {
		var b strings.Builder
		for _, tk := range tokenize(cond) {
			b.WriteString(tk.val)
		}
		assert.Equal(t, cond, b.String())
	}
}

func TestTokenize_Kinds(t *testing.T) {
	toks := tokenize("(a  or b)")
	require.Len(t, toks, 7)
	kinds := []tokKind{tokLPar, tokIdent, tokSpace, tokIdent, tokSpace, tokIdent, tokRPar}
	for i, k := range kinds {
		assert.Equal(t, k, toks[i].kind, "token %d (%q)", i, toks[i].val)
	}
	assert.Equal(t, "  ", toks[2].val)
}

func TestSubstituteTokens_LeavesUnknownIdentifiers(t *testing.T) {
	sels := []compiledSelection{{name: "sel1", pred: "(P1)"}}
	got := substituteTokens("all of them or sel1 or sel1_x", sels)
	assert.Equal(t, "all of them or (P1) or sel1_x", got)
}

func TestSubstitute_PredicateTextIsNotRescanned(t *testing.T) {
	sels := []compiledSelection{
		{name: "x", pred: `((f="y"))`},
		{name: "y", pred: `((g=1))`},
	}
	assert.Equal(t, `((f="y")) and ((g=1))`, substitute("x and y", sels, SubstituteTokens))
	// literal: "y" bên trong predicate của x cũng bị thay
	assert.Equal(t, `((f="((g=1))")) and ((g=1))`, substitute("x and y", sels, SubstituteLiteral))
}

func TestParseSubstitutionMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SubstitutionMode
		wantErr bool
	}{
		{"", SubstituteTokens, false},
		{"tokens", SubstituteTokens, false},
		{"LITERAL", SubstituteLiteral, false},
		{"legacy", SubstituteLiteral, false},
		{"regex", SubstituteTokens, true},
	}
	for _, tt := range tests {
		got, err := ParseSubstitutionMode(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.want, mustParse(t, got.String()))
	}
}

func mustParse(t *testing.T, s string) SubstitutionMode {
	t.Helper()
	m, err := ParseSubstitutionMode(s)
	require.NoError(t, err)
	return m
}

func TestRenderValue(t *testing.T) {
	tests := []struct {
		name string
		op   string
		v    any
		want string
	}{
		{"null", "?=", nil, `(f != "*")`},
		{"string", "=", "x", `(f="x")`},
		{"int", ">", int64(3), `(f>3)`},
		{"plain int", "<", 3, `(f<3)`},
		{"uint", "=", uint64(18446744073709551615), `(f=18446744073709551615)`},
		{"bool", "=", false, `(f=False)`},
		{"bools in list", "=", []any{true, int64(1)}, `(f=True OR f=1)`},
		{"ints", "=", []any{int64(1), int64(2), int64(3)}, `(f=1 OR f=2 OR f=3)`},
		{"null in list", "=", []any{"a", nil}, `(f="a" OR f != "*")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RenderValue("f", tt.op, tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindCollisions(t *testing.T) {
	got := FindCollisions([]string{"sel", "selection", "filter"})
	assert.Contains(t, got, Collision{Name: "sel", Within: "selection"})
	for _, c := range got {
		assert.NotEqual(t, "filter", c.Name)
	}

	got = FindCollisions([]string{"o", "main"})
	assert.Contains(t, got, Collision{Name: "o", Within: "or"})
	assert.Contains(t, got, Collision{Name: "o", Within: "not"})

	assert.Empty(t, FindCollisions([]string{"selection", "filter"}))
	assert.Empty(t, FindCollisions(nil))
}
