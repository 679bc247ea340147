package events

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
)

// Expr is a compiled cut, weight or column expression over the branches
// of an event tree. Vector branches are exposed as []float64, booleans as
// bool and every other scalar as float64.
type Expr struct {
	src  string
	prog *vm.Program
	vars []string
}

var functions = []expr.Option{
	expr.Function("deltaR", func(params ...any) (any, error) {
		if len(params) != 4 {
			return nil, fmt.Errorf("deltaR: want 4 arguments, got %d", len(params))
		}
		var v [4]float64
		for i, p := range params {
			f, err := toFloat(p)
			if err != nil {
				return nil, fmt.Errorf("deltaR: %w", err)
			}
			v[i] = f
		}
		return DeltaR(v[0], v[1], v[2], v[3]), nil
	}),
	expr.Function("sqrt", func(params ...any) (any, error) {
		if len(params) != 1 {
			return nil, fmt.Errorf("sqrt: want 1 argument, got %d", len(params))
		}
		f, err := toFloat(params[0])
		if err != nil {
			return nil, fmt.Errorf("sqrt: %w", err)
		}
		return math.Sqrt(f), nil
	}),
}

// Compile compiles src. An empty source and "1" select everything with
// unit value and never touch the event.
func Compile(src string) (*Expr, error) {
	src = strings.TrimSpace(src)
	e := &Expr{src: src}
	if isConstOne(src) {
		return e, nil
	}

	tree, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("could not parse %q: %w", src, err)
	}
	var ids identifiers
	ast.Walk(&tree.Node, &ids)
	e.vars = ids.variables()

	e.prog, err = expr.Compile(src, functions...)
	if err != nil {
		return nil, fmt.Errorf("could not compile %q: %w", src, err)
	}
	return e, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Expr {
	e, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return e
}

func isConstOne(src string) bool {
	switch src {
	case "", "1", "1.0", "true":
		return true
	}
	return false
}

func (e *Expr) String() string { return e.src }

// Vars returns the branch names referenced by e, sorted.
func (e *Expr) Vars() []string { return e.vars }

// Trivial reports whether e always evaluates to one.
func (e *Expr) Trivial() bool { return e.prog == nil }

func (e *Expr) run(env map[string]any) (any, error) {
	if e.prog == nil {
		return 1.0, nil
	}
	out, err := expr.Run(e.prog, env)
	if err != nil {
		return nil, fmt.Errorf("could not evaluate %q: %w", e.src, err)
	}
	return out, nil
}

// Bool evaluates e as a selection. Numbers select when non-zero.
func (e *Expr) Bool(env map[string]any) (bool, error) {
	out, err := e.run(env)
	if err != nil {
		return false, err
	}
	if b, ok := out.(bool); ok {
		return b, nil
	}
	f, err := toFloat(out)
	if err != nil {
		return false, fmt.Errorf("selection %q: %w", e.src, err)
	}
	return f != 0, nil
}

// Float evaluates e as a scalar. Vectors yield their first element, or
// zero when empty.
func (e *Expr) Float(env map[string]any) (float64, error) {
	out, err := e.run(env)
	if err != nil {
		return 0, err
	}
	if vs, ok := out.([]float64); ok {
		if len(vs) == 0 {
			return 0, nil
		}
		return vs[0], nil
	}
	f, err := toFloat(out)
	if err != nil {
		return 0, fmt.Errorf("expression %q: %w", e.src, err)
	}
	return f, nil
}

// Values evaluates e as a fill column: a vector result yields every
// element, a scalar yields itself.
func (e *Expr) Values(env map[string]any, dst []float64) ([]float64, error) {
	dst = dst[:0]
	out, err := e.run(env)
	if err != nil {
		return dst, err
	}
	switch v := out.(type) {
	case []float64:
		return append(dst, v...), nil
	case []any:
		for _, x := range v {
			f, err := toFloat(x)
			if err != nil {
				return dst, fmt.Errorf("expression %q: %w", e.src, err)
			}
			dst = append(dst, f)
		}
		return dst, nil
	}
	f, err := toFloat(out)
	if err != nil {
		return dst, fmt.Errorf("expression %q: %w", e.src, err)
	}
	return append(dst, f), nil
}

func toFloat(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case nil:
		return 0, fmt.Errorf("undefined value")
	}
	return 0, fmt.Errorf("unexpected result type %T", v)
}

// identifiers collects the names an expression refers to, minus the ones
// used as function callees.
type identifiers struct {
	names map[string]struct{}
	funcs map[string]struct{}
}

func (ids *identifiers) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		if ids.names == nil {
			ids.names = make(map[string]struct{})
		}
		ids.names[n.Value] = struct{}{}
	case *ast.CallNode:
		if callee, ok := n.Callee.(*ast.IdentifierNode); ok {
			if ids.funcs == nil {
				ids.funcs = make(map[string]struct{})
			}
			ids.funcs[callee.Value] = struct{}{}
		}
	}
}

func (ids *identifiers) variables() []string {
	var vars []string
	for name := range ids.names {
		if _, isFunc := ids.funcs[name]; isFunc {
			continue
		}
		vars = append(vars, name)
	}
	sort.Strings(vars)
	return vars
}

// DeltaR is the angular distance between two directions. Out-of-range
// coordinates, used as placeholders for missing objects, give 99.
func DeltaR(eta1, eta2, phi1, phi2 float64) float64 {
	if math.Abs(eta1) > 9 || math.Abs(eta2) > 9 {
		return 99
	}
	if math.Abs(phi1) > 6.3 || math.Abs(phi2) > 6.3 {
		return 99
	}
	deta := eta1 - eta2
	dphi := phiMPiPi(phi1 - phi2)
	return math.Sqrt(deta*deta + dphi*dphi)
}

// phiMPiPi wraps x into [-π, π).
func phiMPiPi(x float64) float64 {
	for x >= math.Pi {
		x -= 2 * math.Pi
	}
	for x < -math.Pi {
		x += 2 * math.Pi
	}
	return x
}
