package predicate

import (
	"fmt"

	"github.com/pkg/errors"
)

// Context supplies column values for in-memory evaluation, keyed by the
// qualified column reference (e.g. "heroes.age"). A nil value stands for
// SQL NULL.
type Context interface {
	Get(name string) (any, error)
}

// MapContext is a Context over a flat map, typically one row with its
// joined columns.
type MapContext map[string]any

var ErrColumnNotFound = errors.New("column not found")

func (c MapContext) Get(name string) (any, error) {
	value, ok := c[name]
	if !ok {
		return nil, errors.Wrap(ErrColumnNotFound, name)
	}
	return value, nil
}

// Evaluator executes predicates against a Context without a database,
// preserving the backend's NULL semantics. Instances are stateless and
// safe to share; per-call state lives in a private visitor.
type Evaluator struct {
	registry *OpRegistry
}

func NewEvaluator(registry *OpRegistry) *Evaluator {
	if registry == nil {
		registry = DefaultOpRegistry()
	}
	return &Evaluator{registry: registry}
}

// Eval returns the three-valued result of the predicate: true, false, or
// nil for unknown.
func (e *Evaluator) Eval(n Node, ctx Context) (any, error) {
	v := &evalVisitor{ctx: ctx, registry: e.registry}
	if err := n.Accept(v); err != nil {
		return nil, err
	}
	return v.current, nil
}

// Match reports whether the predicate definitely holds; unknown counts
// as no match, as it does in a SQL WHERE clause.
func (e *Evaluator) Match(n Node, ctx Context) (bool, error) {
	result, err := e.Eval(n, ctx)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	return ok && b, nil
}

type evalVisitor struct {
	ctx      Context
	registry *OpRegistry
	current  any
}

func (v *evalVisitor) VisitColumn(n ColumnNode) error {
	value, err := v.ctx.Get(n.Name())
	if err != nil {
		return err
	}
	v.current = value
	return nil
}

func (v *evalVisitor) VisitValue(n ValueNode) error {
	v.current = n.Value()
	return nil
}

func (v *evalVisitor) VisitInfix(n InfixNode) error {
	if err := n.Left().Accept(v); err != nil {
		return err
	}
	left := v.current

	if err := n.Right().Accept(v); err != nil {
		return err
	}
	right := v.current

	result, err := v.registry.ExecBinary(left, n.Operator(), right)
	if err != nil {
		return err
	}
	v.current = result
	return nil
}

func (v *evalVisitor) VisitPrefix(n PrefixNode) error {
	if err := n.Operand().Accept(v); err != nil {
		return err
	}
	if n.Operator() != OpNot {
		return fmt.Errorf("unsupported prefix operator %q", n.Operator())
	}
	result, err := v.registry.ExecNot(v.current)
	if err != nil {
		return err
	}
	v.current = result
	return nil
}

func (v *evalVisitor) VisitPostfix(n PostfixNode) error {
	if err := n.Operand().Accept(v); err != nil {
		return err
	}
	switch n.Operator() {
	case OpIsNull:
		v.current = v.current == nil
	case OpIsNotNull:
		v.current = v.current != nil
	default:
		return fmt.Errorf("unsupported postfix operator %q", n.Operator())
	}
	return nil
}
