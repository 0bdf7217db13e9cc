// Package query defines the syntax tree produced by a Lucene-style query
// parser. The compiler consumes this tree; it never constructs one itself.
//
// The node set is closed: adding a variant extends the Visitor interface,
// so every visitor is forced to handle it before the package builds again.
package query

// NoPos marks a node whose source position is unknown.
const NoPos = -1

// Node is a single node of the parsed query tree. Nodes are immutable
// values; At returns a positioned copy rather than mutating in place.
type Node interface {
	Accept(v Visitor) (any, error)
	Pos() int
}

// Visitor dispatches over every node kind.
type Visitor interface {
	VisitWord(n WordNode) (any, error)
	VisitPhrase(n PhraseNode) (any, error)
	VisitRange(n RangeNode) (any, error)
	VisitFrom(n FromNode) (any, error)
	VisitTo(n ToNode) (any, error)
	VisitRegex(n RegexNode) (any, error)
	VisitSearchField(n SearchFieldNode) (any, error)
	VisitGroup(n GroupNode) (any, error)
	VisitNot(n NotNode) (any, error)
	VisitAnd(n AndNode) (any, error)
	VisitOr(n OrNode) (any, error)
	VisitUnknown(n UnknownNode) (any, error)
}

// Word is a bare term, possibly containing ? and * wildcards.
func Word(value string) WordNode {
	return WordNode{value: value, pos: NoPos}
}

type WordNode struct {
	value string
	pos   int
}

func (n WordNode) Value() string { return n.value }
func (n WordNode) Pos() int      { return n.pos }

func (n WordNode) At(pos int) WordNode {
	n.pos = pos
	return n
}

func (n WordNode) Accept(v Visitor) (any, error) { return v.VisitWord(n) }

// Phrase is a quoted term. The surrounding quotes are part of the value;
// the compiler strips them before matching.
func Phrase(value string) PhraseNode {
	return PhraseNode{value: value, pos: NoPos}
}

type PhraseNode struct {
	value string
	pos   int
}

func (n PhraseNode) Value() string { return n.value }
func (n PhraseNode) Pos() int      { return n.pos }

func (n PhraseNode) At(pos int) PhraseNode {
	n.pos = pos
	return n
}

func (n PhraseNode) Accept(v Visitor) (any, error) { return v.VisitPhrase(n) }

// Range is a bounded interval, [low TO high] or {low TO high}. Square
// brackets are inclusive, curly braces exclusive, independently per side.
func Range(low, high string, includeLow, includeHigh bool) RangeNode {
	return RangeNode{low: low, high: high, includeLow: includeLow, includeHigh: includeHigh, pos: NoPos}
}

type RangeNode struct {
	low, high               string
	includeLow, includeHigh bool
	pos                     int
}

func (n RangeNode) Low() string       { return n.low }
func (n RangeNode) High() string      { return n.high }
func (n RangeNode) IncludeLow() bool  { return n.includeLow }
func (n RangeNode) IncludeHigh() bool { return n.includeHigh }
func (n RangeNode) Pos() int          { return n.pos }

func (n RangeNode) At(pos int) RangeNode {
	n.pos = pos
	return n
}

func (n RangeNode) Accept(v Visitor) (any, error) { return v.VisitRange(n) }

// From is an open-ended lower bound, field:>x or field:>=x.
func From(value string, include bool) FromNode {
	return FromNode{value: value, include: include, pos: NoPos}
}

type FromNode struct {
	value   string
	include bool
	pos     int
}

func (n FromNode) Value() string { return n.value }
func (n FromNode) Include() bool { return n.include }
func (n FromNode) Pos() int      { return n.pos }

func (n FromNode) At(pos int) FromNode {
	n.pos = pos
	return n
}

func (n FromNode) Accept(v Visitor) (any, error) { return v.VisitFrom(n) }

// To is an open-ended upper bound, field:<x or field:<=x.
func To(value string, include bool) ToNode {
	return ToNode{value: value, include: include, pos: NoPos}
}

type ToNode struct {
	value   string
	include bool
	pos     int
}

func (n ToNode) Value() string { return n.value }
func (n ToNode) Include() bool { return n.include }
func (n ToNode) Pos() int      { return n.pos }

func (n ToNode) At(pos int) ToNode {
	n.pos = pos
	return n
}

func (n ToNode) Accept(v Visitor) (any, error) { return v.VisitTo(n) }

// Regex is a /slash-delimited/ regular expression literal.
func Regex(value string) RegexNode {
	return RegexNode{value: value, pos: NoPos}
}

type RegexNode struct {
	value string
	pos   int
}

func (n RegexNode) Value() string { return n.value }
func (n RegexNode) Pos() int      { return n.pos }

func (n RegexNode) At(pos int) RegexNode {
	n.pos = pos
	return n
}

func (n RegexNode) Accept(v Visitor) (any, error) { return v.VisitRegex(n) }

// SearchField qualifies a term with a field name, name:expr. The name may
// be a dotted path traversing declared relationships.
func SearchField(name string, expr Node) SearchFieldNode {
	return SearchFieldNode{name: name, expr: expr, pos: NoPos}
}

type SearchFieldNode struct {
	name string
	expr Node
	pos  int
}

func (n SearchFieldNode) Name() string { return n.name }
func (n SearchFieldNode) Expr() Node   { return n.expr }
func (n SearchFieldNode) Pos() int     { return n.pos }

func (n SearchFieldNode) At(pos int) SearchFieldNode {
	n.pos = pos
	return n
}

func (n SearchFieldNode) Accept(v Visitor) (any, error) { return v.VisitSearchField(n) }

// Group is a parenthesized sub-expression.
func Group(children ...Node) GroupNode {
	return GroupNode{children: children, pos: NoPos}
}

type GroupNode struct {
	children []Node
	pos      int
}

func (n GroupNode) Children() []Node { return n.children }
func (n GroupNode) Pos() int         { return n.pos }

func (n GroupNode) At(pos int) GroupNode {
	n.pos = pos
	return n
}

func (n GroupNode) Accept(v Visitor) (any, error) { return v.VisitGroup(n) }

// Not negates its operands.
func Not(children ...Node) NotNode {
	return NotNode{children: children, pos: NoPos}
}

type NotNode struct {
	children []Node
	pos      int
}

func (n NotNode) Children() []Node { return n.children }
func (n NotNode) Pos() int         { return n.pos }

func (n NotNode) At(pos int) NotNode {
	n.pos = pos
	return n
}

func (n NotNode) Accept(v Visitor) (any, error) { return v.VisitNot(n) }

// And is an explicit conjunction.
func And(children ...Node) AndNode {
	return AndNode{children: children, pos: NoPos}
}

type AndNode struct {
	children []Node
	pos      int
}

func (n AndNode) Children() []Node { return n.children }
func (n AndNode) Pos() int         { return n.pos }

func (n AndNode) At(pos int) AndNode {
	n.pos = pos
	return n
}

func (n AndNode) Accept(v Visitor) (any, error) { return v.VisitAnd(n) }

// Or is an explicit disjunction.
func Or(children ...Node) OrNode {
	return OrNode{children: children, pos: NoPos}
}

type OrNode struct {
	children []Node
	pos      int
}

func (n OrNode) Children() []Node { return n.children }
func (n OrNode) Pos() int         { return n.pos }

func (n OrNode) At(pos int) OrNode {
	n.pos = pos
	return n
}

func (n OrNode) Accept(v Visitor) (any, error) { return v.VisitOr(n) }

// Unknown combines adjacent terms that the parser found with no explicit
// connective between them, e.g. `name:foo age:42`.
func Unknown(children ...Node) UnknownNode {
	return UnknownNode{children: children, pos: NoPos}
}

type UnknownNode struct {
	children []Node
	pos      int
}

func (n UnknownNode) Children() []Node { return n.children }
func (n UnknownNode) Pos() int         { return n.pos }

func (n UnknownNode) At(pos int) UnknownNode {
	n.pos = pos
	return n
}

func (n UnknownNode) Accept(v Visitor) (any, error) { return v.VisitUnknown(n) }
