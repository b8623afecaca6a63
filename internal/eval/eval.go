// Package eval evaluates scalar and predicate expressions from internal/ast
// against a row binding, using the three-valued logic and NULL-propagating
// arithmetic of internal/types (spec.md §4.3). It is consulted by
// internal/executor for WHERE, JOIN ON, HAVING, ORDER BY, and SET/VALUES
// expressions alike — one evaluator, no duplicated expression-walking code.
package eval

import (
	"fmt"

	"github.com/leengari/mini-rdbms/internal/ast"
	"github.com/leengari/mini-rdbms/internal/dberrors"
	"github.com/leengari/mini-rdbms/internal/types"
)

// Env resolves the free variables of an expression: plain column
// references and, in a GROUP BY/HAVING context, already-computed
// aggregate results matched by structural equality to the AggregateCall
// node (spec.md §4.8's HAVING rule).
type Env interface {
	ResolveColumn(qualifier, name string) (types.Value, error)
	ResolveAggregate(call *ast.AggregateCall) (types.Value, bool)
}

// Eval walks expr and produces its value under env.
func Eval(expr ast.Expression, env Env) (types.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return literalValue(e)
	case *ast.Identifier:
		return env.ResolveColumn(e.Qualifier, e.Value)
	case *ast.AggregateCall:
		if v, ok := env.ResolveAggregate(e); ok {
			return v, nil
		}
		return types.Value{}, &dberrors.AggregateMisuseError{Reason: "aggregate " + e.String() + " used outside a valid grouping context"}
	case *ast.UnaryExpression:
		return evalUnary(e, env)
	case *ast.BinaryExpression:
		return evalBinary(e, env)
	case *ast.IsNullExpression:
		v, err := Eval(e.Operand, env)
		if err != nil {
			return types.Value{}, err
		}
		result := v.IsNull()
		if e.Negate {
			result = !result
		}
		return types.Boolean(result), nil
	case *ast.InExpression:
		return evalIn(e, env)
	default:
		return types.Value{}, fmt.Errorf("eval: unsupported expression %T", expr)
	}
}

// EvalPredicate evaluates expr and interprets the result as three-valued
// logic, for WHERE/JOIN-ON/HAVING filtering.
func EvalPredicate(expr ast.Expression, env Env) (types.TriBool, error) {
	v, err := Eval(expr, env)
	if err != nil {
		return types.Unknown, err
	}
	return types.FromValue(v)
}

func literalValue(l *ast.Literal) (types.Value, error) {
	switch l.Kind {
	case ast.LitString:
		return types.Text(l.Str), nil
	case ast.LitInt:
		return types.Integer(l.Int), nil
	case ast.LitFloat:
		return types.Float(l.Flt), nil
	case ast.LitBool:
		return types.Boolean(l.Bool), nil
	case ast.LitDate:
		d, err := types.ParseDate(l.Str)
		if err != nil {
			return types.Value{}, err
		}
		return types.DateValue(d), nil
	default:
		return types.Null, nil
	}
}

func evalUnary(e *ast.UnaryExpression, env Env) (types.Value, error) {
	operand, err := Eval(e.Operand, env)
	if err != nil {
		return types.Value{}, err
	}
	switch e.Operator {
	case "-":
		return types.Negate(operand)
	case "NOT":
		tb, err := types.FromValue(operand)
		if err != nil {
			return types.Value{}, err
		}
		return types.Not(tb).ToValue(), nil
	default:
		return types.Value{}, fmt.Errorf("eval: unknown unary operator %q", e.Operator)
	}
}

func evalBinary(e *ast.BinaryExpression, env Env) (types.Value, error) {
	switch e.Operator {
	case "AND", "OR":
		left, err := Eval(e.Left, env)
		if err != nil {
			return types.Value{}, err
		}
		lt, err := types.FromValue(left)
		if err != nil {
			return types.Value{}, err
		}
		right, err := Eval(e.Right, env)
		if err != nil {
			return types.Value{}, err
		}
		rt, err := types.FromValue(right)
		if err != nil {
			return types.Value{}, err
		}
		if e.Operator == "AND" {
			return types.And(lt, rt).ToValue(), nil
		}
		return types.Or(lt, rt).ToValue(), nil
	}

	left, err := Eval(e.Left, env)
	if err != nil {
		return types.Value{}, err
	}
	right, err := Eval(e.Right, env)
	if err != nil {
		return types.Value{}, err
	}

	switch e.Operator {
	case "=":
		tb, err := types.EqualOp(left, right)
		return tb.ToValue(), err
	case "!=", "<>":
		tb, err := types.NotEqualOp(left, right)
		return tb.ToValue(), err
	case "<", "<=", ">", ">=":
		tb, err := types.OrderOp(e.Operator, left, right)
		return tb.ToValue(), err
	case "LIKE":
		return evalLike(left, right)
	case "+":
		return types.Add(left, right)
	case "-":
		return types.Sub(left, right)
	case "*":
		return types.Mul(left, right)
	case "/":
		return types.Div(left, right)
	default:
		return types.Value{}, fmt.Errorf("eval: unknown binary operator %q", e.Operator)
	}
}

func evalLike(value, pattern types.Value) (types.Value, error) {
	if value.IsNull() || pattern.IsNull() {
		return types.Null, nil
	}
	if value.Kind != types.KindText || pattern.Kind != types.KindText {
		return types.Value{}, fmt.Errorf("LIKE requires TEXT operands, got %s and %s", value.Kind, pattern.Kind)
	}
	return types.Boolean(types.Like(value.Text, pattern.Text)), nil
}

func evalIn(e *ast.InExpression, env Env) (types.Value, error) {
	left, err := Eval(e.Operand, env)
	if err != nil {
		return types.Value{}, err
	}
	if left.IsNull() {
		return types.Null, nil
	}
	sawNull := false
	for _, item := range e.List {
		v, err := Eval(item, env)
		if err != nil {
			return types.Value{}, err
		}
		if v.IsNull() {
			sawNull = true
			continue
		}
		tb, err := types.EqualOp(left, v)
		if err != nil {
			return types.Value{}, err
		}
		if tb == types.True {
			return types.Boolean(!e.Negate), nil
		}
	}
	if sawNull {
		return types.Null, nil
	}
	return types.Boolean(e.Negate), nil
}
