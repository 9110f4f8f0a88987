// Package pdl compiles a Sigma detection block into one PADAS Detection
// Language predicate.
package pdl

import (
	"fmt"
	"strings"

	"github.com/PhucNguyen204/sigma2padas/pkg/sigma"
)

const andJoin = " AND "

// Options configures a Compiler.
type Options struct {
	Mode         SubstitutionMode
	FieldMapping sigma.FieldMapping
}

// Compiler is immutable after construction and safe for concurrent use.
type Compiler struct {
	mode    SubstitutionMode
	mapping sigma.FieldMapping
}

// New returns a Compiler with token substitution and no field mapping.
func New() *Compiler {
	return WithOptions(Options{})
}

// WithOptions returns a Compiler configured by opts.
func WithOptions(opts Options) *Compiler {
	return &Compiler{mode: opts.Mode, mapping: sigma.NewFieldMapping(opts.FieldMapping.M)}
}

func (c *Compiler) Mode() SubstitutionMode { return c.mode }

// Compile renders det into a PDL predicate. det is never modified.
func Compile(det sigma.Detection) (string, error) {
	return New().Compile(det)
}

// Compile renders det into a PDL predicate. The caller's detection is copied
// first, so the result holds no references into det.
func (c *Compiler) Compile(det sigma.Detection) (string, error) {
	work := det.Clone()
	sels := make([]compiledSelection, 0, len(work.Selections))
	for _, sel := range work.Selections {
		pred, err := c.CompileSelection(sel)
		if err != nil {
			return "", fmt.Errorf("selection %s: %w", sel.Name, err)
		}
		sels = append(sels, compiledSelection{name: sel.Name, pred: pred})
	}
	return substitute(work.Condition, sels, c.mode), nil
}

// CompileSelection folds every criterion of sel into one parenthesized
// conjunction. A selection written as a list of mappings becomes the
// disjunction of its groups.
func (c *Compiler) CompileSelection(sel sigma.Selection) (string, error) {
	if len(sel.Groups) == 1 {
		return c.compileGroup(sel.Groups[0])
	}
	parts := make([]string, 0, len(sel.Groups))
	for i, g := range sel.Groups {
		p, err := c.compileGroup(g)
		if err != nil {
			return "", fmt.Errorf("item %d: %w", i, err)
		}
		parts = append(parts, p)
	}
	return "(" + strings.Join(parts, orJoin) + ")", nil
}

func (c *Compiler) compileGroup(g sigma.SelectionGroup) (string, error) {
	frags := make([]string, 0, len(g.Criteria))
	for _, crit := range g.Criteria {
		fk := sigma.ParseFieldKey(crit.Key)
		field := c.mapping.Resolve(fk.Field)
		frag, err := RenderValue(field, fk.Operator(), fk.Modifier.Transform(crit.Value))
		if err != nil {
			return "", err
		}
		frags = append(frags, frag)
	}
	return "(" + strings.Join(frags, andJoin) + ")", nil
}
