package pdl

import (
	"fmt"
	"strings"
	"unicode"
)

// SubstitutionMode chọn cách thay tên selection trong condition.
type SubstitutionMode int

const (
	// SubstituteTokens replaces whole identifier tokens only, in one pass over
	// the original condition.
	SubstituteTokens SubstitutionMode = iota
	// SubstituteLiteral replaces raw substrings selection by selection, in
	// detection order. Names that are substrings of other names or of
	// keywords corrupt the result; kept for output compatibility with older rule sets.
	SubstituteLiteral
)

func (m SubstitutionMode) String() string {
	switch m {
	case SubstituteTokens:
		return "tokens"
	case SubstituteLiteral:
		return "literal"
	default:
		return fmt.Sprintf("SubstitutionMode(%d)", int(m))
	}
}

// ParseSubstitutionMode accepts the names returned by String.
func ParseSubstitutionMode(s string) (SubstitutionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tokens", "token":
		return SubstituteTokens, nil
	case "literal", "legacy":
		return SubstituteLiteral, nil
	default:
		return SubstituteTokens, fmt.Errorf("unknown substitution mode %q", s)
	}
}

type compiledSelection struct {
	name string
	pred string
}

func substitute(cond string, sels []compiledSelection, mode SubstitutionMode) string {
	var out string
	if mode == SubstituteLiteral {
		out = substituteLiteral(cond, sels)
	} else {
		out = substituteTokens(cond, sels)
	}
	out = strings.ReplaceAll(out, `="None"`, `!="*"`)
	return strings.ReplaceAll(out, `\`, `\\`)
}

func substituteLiteral(cond string, sels []compiledSelection) string {
	for _, s := range sels {
		cond = strings.ReplaceAll(cond, s.name, s.pred)
	}
	return cond
}

func substituteTokens(cond string, sels []compiledSelection) string {
	preds := make(map[string]string, len(sels))
	for _, s := range sels {
		preds[s.name] = s.pred
	}
	var b strings.Builder
	for _, t := range tokenize(cond) {
		if t.kind == tokIdent {
			if p, ok := preds[t.val]; ok {
				b.WriteString(p)
				continue
			}
		}
		b.WriteString(t.val)
	}
	return b.String()
}

type tokKind int

const (
	tokIdent tokKind = iota
	tokSpace
	tokLPar
	tokRPar
)

type tok struct {
	kind tokKind
	val  string
}

// tokenize tách condition thành ident | khoảng trắng | ( | ) và giữ nguyên
// toàn bộ ký tự, nên nối các token lại sẽ ra đúng chuỗi ban đầu.
func tokenize(s string) []tok {
	var out []tok
	start := -1
	flush := func(end int) {
		if start >= 0 {
			out = append(out, tok{kind: tokIdent, val: s[start:end]})
			start = -1
		}
	}
	spaceStart := -1
	flushSpace := func(end int) {
		if spaceStart >= 0 {
			out = append(out, tok{kind: tokSpace, val: s[spaceStart:end]})
			spaceStart = -1
		}
	}
	for i, r := range s {
		switch {
		case r == '(' || r == ')':
			flush(i)
			flushSpace(i)
			k := tokLPar
			if r == ')' {
				k = tokRPar
			}
			out = append(out, tok{kind: k, val: string(r)})
		case unicode.IsSpace(r):
			flush(i)
			if spaceStart < 0 {
				spaceStart = i
			}
		default:
			flushSpace(i)
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(s))
	flushSpace(len(s))
	return out
}
