// Package formula evaluates the CEL expressions content uses for derived
// costs, such as how much a repair costs and how much condition it restores.
package formula

import (
	"fmt"
	"math"

	"github.com/google/cel-go/cel"
	celtypes "github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Well-known formula names.
const (
	RepairCost   = "repair_cost"
	RepairAmount = "repair_amount"
)

// Defaults apply when an action does not declare its own formula.
var Defaults = map[string]string{
	RepairCost:   "max(50.0, (100.0 - condition) * 10.0 - skill.maintenance * 2.0)",
	RepairAmount: "30.0 + skill.maintenance * 0.2",
}

// Env is a CEL environment declaring the variables a formula may read.
type Env struct {
	env *cel.Env
}

// NewEnv builds the formula environment.
func NewEnv() (*Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("condition", cel.DoubleType),
		cel.Variable("quality", cel.DoubleType),
		cel.Variable("money", cel.DoubleType),
		cel.Variable("day", cel.DoubleType),
		cel.Variable("skill", cel.MapType(cel.StringType, cel.DoubleType)),
		cel.Variable("trait", cel.MapType(cel.StringType, cel.DoubleType)),
		cel.Variable("need", cel.MapType(cel.StringType, cel.DoubleType)),

		cel.Function("max",
			cel.Overload("max_double_double",
				[]*cel.Type{cel.DoubleType, cel.DoubleType},
				cel.DoubleType,
				cel.BinaryBinding(func(a, b ref.Val) ref.Val {
					return celtypes.Double(math.Max(float64(a.(celtypes.Double)), float64(b.(celtypes.Double))))
				}),
			),
		),
		cel.Function("min",
			cel.Overload("min_double_double",
				[]*cel.Type{cel.DoubleType, cel.DoubleType},
				cel.DoubleType,
				cel.BinaryBinding(func(a, b ref.Val) ref.Val {
					return celtypes.Double(math.Min(float64(a.(celtypes.Double)), float64(b.(celtypes.Double))))
				}),
			),
		),
		cel.Function("clamp",
			cel.Overload("clamp_double_double_double",
				[]*cel.Type{cel.DoubleType, cel.DoubleType, cel.DoubleType},
				cel.DoubleType,
				cel.FunctionBinding(func(args ...ref.Val) ref.Val {
					v := float64(args[0].(celtypes.Double))
					lo := float64(args[1].(celtypes.Double))
					hi := float64(args[2].(celtypes.Double))
					return celtypes.Double(math.Max(lo, math.Min(hi, v)))
				}),
			),
		),
	)
	if err != nil {
		return nil, err
	}
	return &Env{env: env}, nil
}

// Formula is a compiled, type-checked expression.
type Formula struct {
	Expr string
	prog cel.Program
}

// Compile parses and type-checks expr. The result must be numeric.
func (e *Env) Compile(expr string) (*Formula, error) {
	ast, iss := e.env.Compile(expr)
	if iss.Err() != nil {
		return nil, iss.Err()
	}
	out := ast.OutputType()
	if !out.IsExactType(cel.DoubleType) && !out.IsExactType(cel.IntType) {
		return nil, fmt.Errorf("formula %q yields %s, want a number", expr, out)
	}
	prog, err := e.env.Program(ast)
	if err != nil {
		return nil, err
	}
	return &Formula{Expr: expr, prog: prog}, nil
}

// Vars is the evaluation context of a formula.
type Vars struct {
	Condition float64
	Quality   float64
	Money     float64
	Day       float64
	Skills    map[string]float64
	Traits    map[string]float64
	Needs     map[string]float64
}

func (v Vars) activation() map[string]any {
	return map[string]any{
		"condition": v.Condition,
		"quality":   v.Quality,
		"money":     v.Money,
		"day":       v.Day,
		"skill":     nonNil(v.Skills),
		"trait":     nonNil(v.Traits),
		"need":      nonNil(v.Needs),
	}
}

func nonNil(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}

// Eval evaluates the formula against vars.
func (f *Formula) Eval(vars Vars) (float64, error) {
	out, _, err := f.prog.Eval(vars.activation())
	if err != nil {
		return 0, fmt.Errorf("evaluating %q: %w", f.Expr, err)
	}
	switch n := out.Value().(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("formula %q returned %T", f.Expr, out.Value())
	}
}
