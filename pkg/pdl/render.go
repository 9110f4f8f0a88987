package pdl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PhucNguyen204/sigma2padas/pkg/sigma"
)

const (
	notExists = ` != "*"`
	orJoin    = " OR "
)

// RenderValue renders one field comparison as a parenthesized PDL fragment.
//
//	nil          (Field != "*")
//	"abc"        (Field="abc")
//	4624, true   (Field=4624), (Field=True)
//	[1, "a"]     (Field=1 OR Field="a")
func RenderValue(field, op string, v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "(" + field + notExists + ")", nil
	case []any:
		if len(t) == 0 {
			return "", fmt.Errorf("field %s: %w", field, ErrEmptyValueList)
		}
		terms := make([]string, 0, len(t))
		for _, it := range t {
			if it == nil {
				terms = append(terms, field+notExists)
				continue
			}
			lit, ok := literal(it)
			if !ok {
				return "", &UnsupportedValueTypeError{Field: field, Value: it}
			}
			terms = append(terms, field+op+lit)
		}
		return "(" + strings.Join(terms, orJoin) + ")", nil
	default:
		lit, ok := literal(v)
		if !ok {
			return "", &UnsupportedValueTypeError{Field: field, Value: v}
		}
		return "(" + field + op + lit + ")", nil
	}
}

// literal: string được quote, số giữ nguyên, bool viết True/False.
func literal(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return `"` + t + `"`, true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	case bool:
		return sigma.FormatBool(t), true
	default:
		return "", false
	}
}
