// Package predicate models compiled boolean filter expressions as a small
// node tree. Consumers never inspect a predicate beyond handing it to a
// visitor: the pg package renders SQL from it and Evaluator executes it
// in memory.
package predicate

// Associativity of an operator, used by backends for parenthesization.
type Associativity string

const (
	LeftAssociative  Associativity = "LEFT"
	RightAssociative Associativity = "RIGHT"
	NonAssociative   Associativity = "NON"
)

// Operable is implemented by nodes that carry an operator.
type Operable interface {
	Operator() Operator
	Associativity() Associativity
}

// Node is a composable boolean expression over the target schema.
type Node interface {
	Accept(v Visitor) error
}

// Visitor dispatches over every predicate node kind.
type Visitor interface {
	VisitColumn(n ColumnNode) error
	VisitValue(n ValueNode) error
	VisitInfix(n InfixNode) error
	VisitPrefix(n PrefixNode) error
	VisitPostfix(n PostfixNode) error
}

// Column references a qualified column of the target schema.
func Column(name string) ColumnNode {
	return ColumnNode{name: name}
}

type ColumnNode struct {
	name string
}

func (n ColumnNode) Name() string           { return n.name }
func (n ColumnNode) Accept(v Visitor) error { return v.VisitColumn(n) }

// Value is a typed literal produced by coercion.
func Value(value any) ValueNode {
	return ValueNode{value: value}
}

type ValueNode struct {
	value any
}

func (n ValueNode) Value() any             { return n.value }
func (n ValueNode) Accept(v Visitor) error { return v.VisitValue(n) }

type InfixNode struct {
	left          Node
	operator      Operator
	right         Node
	associativity Associativity
}

func (n InfixNode) Left() Node                   { return n.left }
func (n InfixNode) Right() Node                  { return n.right }
func (n InfixNode) Operator() Operator           { return n.operator }
func (n InfixNode) Associativity() Associativity { return n.associativity }
func (n InfixNode) Accept(v Visitor) error       { return v.VisitInfix(n) }

func infix(left Node, op Operator, right Node, assoc Associativity) InfixNode {
	return InfixNode{left: left, operator: op, right: right, associativity: assoc}
}

func Equal(left, right Node) InfixNode            { return infix(left, OpEq, right, NonAssociative) }
func NotEqual(left, right Node) InfixNode         { return infix(left, OpNe, right, NonAssociative) }
func GreaterThan(left, right Node) InfixNode      { return infix(left, OpGt, right, NonAssociative) }
func GreaterThanEqual(left, right Node) InfixNode { return infix(left, OpGte, right, NonAssociative) }
func LessThan(left, right Node) InfixNode         { return infix(left, OpLt, right, NonAssociative) }
func LessThanEqual(left, right Node) InfixNode    { return infix(left, OpLte, right, NonAssociative) }
func Like(left, right Node) InfixNode             { return infix(left, OpLike, right, NonAssociative) }
func Match(left, right Node) InfixNode            { return infix(left, OpMatch, right, NonAssociative) }

// And folds its operands into left-associative binary conjunctions.
func And(left Node, rights ...Node) InfixNode {
	left, right := foldRights(And, left, rights...)
	return infix(left, OpAnd, right, LeftAssociative)
}

// Or folds its operands into left-associative binary disjunctions.
func Or(left Node, rights ...Node) InfixNode {
	left, right := foldRights(Or, left, rights...)
	return infix(left, OpOr, right, LeftAssociative)
}

func foldRights(
	combine func(Node, ...Node) InfixNode,
	left Node,
	rights ...Node,
) (Node, Node) {
	for len(rights) > 1 {
		left = combine(left, rights[0])
		rights = rights[1:]
	}
	return left, rights[0]
}

// Conjoin combines one or more predicates with And, passing a single
// predicate through unchanged.
func Conjoin(nodes []Node) Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return And(nodes[0], nodes[1:]...)
}

// Disjoin combines one or more predicates with Or, passing a single
// predicate through unchanged.
func Disjoin(nodes []Node) Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return Or(nodes[0], nodes[1:]...)
}

// Not negates a predicate.
func Not(operand Node) PrefixNode {
	return PrefixNode{operator: OpNot, operand: operand, associativity: RightAssociative}
}

type PrefixNode struct {
	operator      Operator
	operand       Node
	associativity Associativity
}

func (n PrefixNode) Operand() Node                { return n.operand }
func (n PrefixNode) Operator() Operator           { return n.operator }
func (n PrefixNode) Associativity() Associativity { return n.associativity }
func (n PrefixNode) Accept(v Visitor) error       { return v.VisitPrefix(n) }

// IsNull tests a column for SQL NULL.
func IsNull(operand Node) PostfixNode {
	return PostfixNode{operand: operand, operator: OpIsNull, associativity: NonAssociative}
}

// IsNotNull tests a column for presence.
func IsNotNull(operand Node) PostfixNode {
	return PostfixNode{operand: operand, operator: OpIsNotNull, associativity: NonAssociative}
}

type PostfixNode struct {
	operand       Node
	operator      Operator
	associativity Associativity
}

func (n PostfixNode) Operand() Node                { return n.operand }
func (n PostfixNode) Operator() Operator           { return n.operator }
func (n PostfixNode) Associativity() Associativity { return n.associativity }
func (n PostfixNode) Accept(v Visitor) error       { return v.VisitPostfix(n) }
