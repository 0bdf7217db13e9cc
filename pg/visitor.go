// Package pg renders compiled filters as parameterized PostgreSQL and
// executes them through pgx.
package pg

import (
	"fmt"

	"github.com/ninoseki/sqlmodel-filters/predicate"
)

// Compile renders a predicate as SQL text with $n placeholders.
func Compile(n predicate.Node) (sql string, params []any, err error) {
	v := NewSQLVisitor()
	if err := n.Accept(v); err != nil {
		return "", nil, err
	}
	return v.Result()
}

type SQLVisitorOption func(*SQLVisitor)

// PlaceholderOffset shifts the first emitted placeholder past parameters
// the caller has already allocated.
func PlaceholderOffset(offset int) SQLVisitorOption {
	return func(v *SQLVisitor) {
		v.placeholderOffset = offset
	}
}

// SQLVisitor walks a predicate tree and accumulates SQL text plus the
// positional parameters referenced by it. Parentheses are inserted only
// where operator precedence requires them.
type SQLVisitor struct {
	sql               string
	params            []any
	placeholderOffset int
	precedence        int
	precedenceMapping map[string]int
}

const anyOtherOperator = "(any other operator) LEFT"

func NewSQLVisitor(opts ...SQLVisitorOption) *SQLVisitor {
	v := &SQLVisitor{
		precedenceMapping: make(map[string]int),
	}
	// https://www.postgresql.org/docs/14/sql-syntax-lexical.html#SQL-PRECEDENCE-TABLE
	v.setPrecedence(100, anyOtherOperator)
	v.setPrecedence(90, "LIKE NON")
	v.setPrecedence(80, "< NON", "> NON", "= NON", "<= NON", ">= NON", "!= NON")
	v.setPrecedence(70, "IS NULL NON", "IS NOT NULL NON")
	v.setPrecedence(60, "NOT RIGHT")
	v.setPrecedence(50, "AND LEFT")
	v.setPrecedence(40, "OR LEFT")
	for i := range opts {
		opts[i](v)
	}
	return v
}

func (v *SQLVisitor) setPrecedence(precedence int, keys ...string) {
	for _, key := range keys {
		v.precedenceMapping[key] = precedence
	}
}

func precedenceKey(n predicate.Operable) string {
	return fmt.Sprintf("%s %s", n.Operator(), n.Associativity())
}

func (v *SQLVisitor) visit(key string, callable func() error) error {
	outerPrecedence := v.precedence
	innerPrecedence, ok := v.precedenceMapping[key]
	if !ok {
		innerPrecedence, ok = v.precedenceMapping[anyOtherOperator]
		if !ok {
			innerPrecedence = outerPrecedence
		}
	}
	v.precedence = innerPrecedence
	if innerPrecedence < outerPrecedence {
		v.sql += "("
	}
	if err := callable(); err != nil {
		return err
	}
	if innerPrecedence < outerPrecedence {
		v.sql += ")"
	}
	v.precedence = outerPrecedence
	return nil
}

func (v *SQLVisitor) VisitColumn(n predicate.ColumnNode) error {
	v.sql += n.Name()
	return nil
}

func (v *SQLVisitor) VisitValue(n predicate.ValueNode) error {
	v.params = append(v.params, n.Value())
	v.sql += fmt.Sprintf("$%d", v.placeholderOffset+len(v.params))
	return nil
}

func (v *SQLVisitor) VisitInfix(n predicate.InfixNode) error {
	return v.visit(precedenceKey(n), func() error {
		if err := n.Left().Accept(v); err != nil {
			return err
		}
		v.sql += fmt.Sprintf(" %s ", n.Operator())
		return n.Right().Accept(v)
	})
}

func (v *SQLVisitor) VisitPrefix(n predicate.PrefixNode) error {
	return v.visit(precedenceKey(n), func() error {
		v.sql += fmt.Sprintf("%s ", n.Operator())
		return n.Operand().Accept(v)
	})
}

func (v *SQLVisitor) VisitPostfix(n predicate.PostfixNode) error {
	return v.visit(precedenceKey(n), func() error {
		if err := n.Operand().Accept(v); err != nil {
			return err
		}
		v.sql += fmt.Sprintf(" %s", n.Operator())
		return nil
	})
}

func (v *SQLVisitor) Result() (sql string, params []any, err error) {
	return v.sql, v.params, nil
}
