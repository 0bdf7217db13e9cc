// Package sqlmodelfilters compiles parsed Lucene-style query trees into
// boolean predicates bound to a typed relational schema.
//
// A Builder is configured once with a root model, optional relationships
// and optional default fields, and can then compile any number of trees;
// per-call state is local to the call, so a Builder is safe to share.
package sqlmodelfilters

import (
	"github.com/pkg/errors"

	"github.com/ninoseki/sqlmodel-filters/coerce"
	"github.com/ninoseki/sqlmodel-filters/pg"
	"github.com/ninoseki/sqlmodel-filters/predicate"
	"github.com/ninoseki/sqlmodel-filters/query"
	"github.com/ninoseki/sqlmodel-filters/schema"
)

// DefaultMaxDepth bounds recursion over adversarially nested trees.
const DefaultMaxDepth = 1000

type Option func(*Builder)

// WithRelationships declares the relationships field paths may traverse
// and the joins applied to built selects, in registration order.
func WithRelationships(rels *schema.Relationships) Option {
	return func(b *Builder) {
		b.rels = rels
	}
}

// WithDefaultFields restricts which fields a bare, unqualified term is
// expanded over. The default is every declared field of the root model.
func WithDefaultFields(names ...string) Option {
	return func(b *Builder) {
		b.defaultFields = names
	}
}

// WithCoercionRegistry replaces the default coercion registry.
func WithCoercionRegistry(registry *coerce.Registry) Option {
	return func(b *Builder) {
		b.registry = registry
	}
}

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(b *Builder) {
		b.maxDepth = depth
	}
}

// Builder compiles query trees against a fixed schema configuration.
// Configuration is constructor-time only.
type Builder struct {
	model         *schema.Model
	rels          *schema.Relationships
	defaultFields []string
	registry      *coerce.Registry
	maxDepth      int
}

func NewBuilder(model *schema.Model, opts ...Option) *Builder {
	b := &Builder{
		model:    model,
		rels:     schema.NewRelationships(),
		registry: coerce.DefaultRegistry(),
		maxDepth: DefaultMaxDepth,
	}
	for i := range opts {
		opts[i](b)
	}
	if len(b.defaultFields) == 0 {
		for _, field := range model.Fields() {
			b.defaultFields = append(b.defaultFields, field.Name)
		}
	}
	return b
}

// CompiledFilter is the compiler's output: an optional predicate (nil
// when the tree yielded nothing to filter on) and the joins to apply,
// in declaration order.
type CompiledFilter struct {
	Predicate predicate.Node
	Joins     []schema.NamedRelationship
}

// Compile walks the tree once and combines the root-level predicates.
// An unconnected sequence of top-level terms is deliberately disjunctive:
// the query matches when any of them does.
func (b *Builder) Compile(tree query.Node) (CompiledFilter, error) {
	w := &walker{
		builder:  b,
		analyzed: make(map[int]struct{}),
	}
	exprs, err := w.collect(tree)
	if err != nil {
		return CompiledFilter{}, err
	}

	filter := CompiledFilter{Joins: b.rels.All()}
	if len(exprs) > 0 {
		filter.Predicate = predicate.Disjoin(exprs)
	}
	return filter, nil
}

// CompileSelect compiles the tree and builds a SELECT over the chosen
// projection (default: the whole root model).
func (b *Builder) CompileSelect(tree query.Node, projection ...string) (pg.Select, error) {
	filter, err := b.Compile(tree)
	if err != nil {
		return pg.Select{}, err
	}
	return pg.BuildSelect(b.model, filter.Joins, filter.Predicate, projection...)
}

// ParseFunc converts raw query text into a tree. The parser itself is an
// external collaborator.
type ParseFunc func(q string) (query.Node, error)

// QToSelect parses q with the supplied parser and compiles it into a
// SELECT over the model.
func QToSelect(q string, parse ParseFunc, model *schema.Model, opts ...Option) (pg.Select, error) {
	tree, err := parse(q)
	if err != nil {
		return pg.Select{}, errors.Wrap(err, "parse query")
	}
	return NewBuilder(model, opts...).CompileSelect(tree)
}

// walker carries the per-call compile state: the positions already
// analyzed and the recursion depth. A fresh walker is created for every
// Compile call, which is what keeps consecutive calls independent.
type walker struct {
	builder  *Builder
	analyzed map[int]struct{}
	depth    int
}

func (w *walker) seen(pos int) bool {
	_, ok := w.analyzed[pos]
	return ok
}

func (w *walker) mark(pos int) {
	w.analyzed[pos] = struct{}{}
}

// collect dispatches a node and normalizes its result to a predicate
// slice. Every recursion passes through here, so the depth guard covers
// the whole walk.
func (w *walker) collect(n query.Node) ([]predicate.Node, error) {
	w.depth++
	defer func() { w.depth-- }()
	if w.depth > w.builder.maxDepth {
		return nil, &MaxDepthError{MaxDepth: w.builder.maxDepth}
	}

	result, err := n.Accept(w)
	if err != nil {
		return nil, err
	}
	exprs, _ := result.([]predicate.Node)
	return exprs, nil
}

func (w *walker) children(nodes []query.Node) ([]predicate.Node, error) {
	var exprs []predicate.Node
	for _, child := range nodes {
		sub, err := w.collect(child)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, sub...)
	}
	return exprs, nil
}

func (w *walker) VisitSearchField(n query.SearchFieldNode) (any, error) {
	if w.seen(n.Pos()) {
		return nil, nil
	}
	w.mark(n.Pos())

	resolved, err := schema.Resolve(w.builder.model, w.builder.rels, schema.ParseFieldPath(n.Name()))
	if err != nil {
		return nil, err
	}
	return termExprs(resolved, n.Expr(), w.builder.registry)
}

// bareTerm expands an unqualified leaf over the configured default
// fields. Candidates that fail to resolve or coerce are skipped; the
// survivors are combined disjunctively.
func (w *walker) bareTerm(n query.Node) (any, error) {
	if w.seen(n.Pos()) {
		return nil, nil
	}
	w.mark(n.Pos())

	var exprs []predicate.Node
	for _, name := range w.builder.defaultFields {
		resolved, err := schema.Resolve(w.builder.model, w.builder.rels, schema.ParseFieldPath(name))
		if err != nil {
			continue
		}
		sub, err := termExprs(resolved, n, w.builder.registry)
		if err != nil {
			continue
		}
		exprs = append(exprs, sub...)
	}
	if len(exprs) == 0 {
		return nil, nil
	}
	return []predicate.Node{predicate.Disjoin(exprs)}, nil
}

func (w *walker) VisitWord(n query.WordNode) (any, error) {
	return w.bareTerm(n)
}

func (w *walker) VisitPhrase(n query.PhraseNode) (any, error) {
	return w.bareTerm(n)
}

func (w *walker) VisitAnd(n query.AndNode) (any, error) {
	return w.conjunction(n.Children())
}

// Groups are conjunctive: a parenthesized sub-expression combines its
// members like an AND.
func (w *walker) VisitGroup(n query.GroupNode) (any, error) {
	return w.conjunction(n.Children())
}

func (w *walker) conjunction(nodes []query.Node) (any, error) {
	exprs, err := w.children(nodes)
	if err != nil {
		return nil, err
	}
	if len(exprs) == 0 {
		return nil, nil
	}
	return []predicate.Node{predicate.Conjoin(exprs)}, nil
}

func (w *walker) VisitOr(n query.OrNode) (any, error) {
	exprs, err := w.children(n.Children())
	if err != nil {
		return nil, err
	}
	if len(exprs) == 0 {
		return nil, nil
	}
	return []predicate.Node{predicate.Disjoin(exprs)}, nil
}

func (w *walker) VisitNot(n query.NotNode) (any, error) {
	exprs, err := w.children(n.Children())
	if err != nil {
		return nil, err
	}
	if len(exprs) == 0 {
		return nil, nil
	}
	return []predicate.Node{predicate.Not(predicate.Conjoin(exprs))}, nil
}

// Unknown splices its children's predicates directly into the parent's
// list; the disjunctive top-level combination happens in Compile.
func (w *walker) VisitUnknown(n query.UnknownNode) (any, error) {
	exprs, err := w.children(n.Children())
	if err != nil {
		return nil, err
	}
	return exprs, nil
}

func (w *walker) VisitRange(n query.RangeNode) (any, error) {
	return nil, &UnsupportedNodeError{Node: n}
}

func (w *walker) VisitFrom(n query.FromNode) (any, error) {
	return nil, &UnsupportedNodeError{Node: n}
}

func (w *walker) VisitTo(n query.ToNode) (any, error) {
	return nil, &UnsupportedNodeError{Node: n}
}

func (w *walker) VisitRegex(n query.RegexNode) (any, error) {
	return nil, &UnsupportedNodeError{Node: n}
}
