package sqlmodelfilters

import (
	"github.com/ninoseki/sqlmodel-filters/coerce"
	"github.com/ninoseki/sqlmodel-filters/predicate"
	"github.com/ninoseki/sqlmodel-filters/query"
	"github.com/ninoseki/sqlmodel-filters/schema"
)

// presenceWildcard is a bare * under a field qualifier: it asks whether
// the field is set at all, not for a pattern match.
const presenceWildcard = "*"

// termExprs builds the predicate for a single leaf term against a
// resolved field. Coercion failures surface as *coerce.Error; the caller
// decides whether they are fatal or cause a field-skip.
func termExprs(field schema.ResolvedField, node query.Node, registry *coerce.Registry) ([]predicate.Node, error) {
	column := predicate.Column(field.Column())

	switch n := node.(type) {
	case query.WordNode:
		if n.Value() == presenceWildcard {
			return []predicate.Node{predicate.IsNotNull(column)}, nil
		}
		value, err := registry.Coerce(field.Field.Kind, n.Value())
		if err != nil {
			return nil, err
		}
		if s, ok := value.(string); ok {
			like := predicate.Value(NewLikeWord(s).String())
			return []predicate.Node{predicate.Like(column, like)}, nil
		}
		return []predicate.Node{predicate.Equal(column, predicate.Value(value))}, nil

	case query.PhraseNode:
		// Phrases are always exact matches, never wildcard patterns.
		value, err := registry.Coerce(field.Field.Kind, dequote(n.Value()))
		if err != nil {
			return nil, err
		}
		return []predicate.Node{predicate.Equal(column, predicate.Value(value))}, nil

	case query.RangeNode:
		high, err := registry.Coerce(field.Field.Kind, n.High())
		if err != nil {
			return nil, err
		}
		low, err := registry.Coerce(field.Field.Kind, n.Low())
		if err != nil {
			return nil, err
		}
		upper := predicate.LessThan(column, predicate.Value(high))
		if n.IncludeHigh() {
			upper = predicate.LessThanEqual(column, predicate.Value(high))
		}
		lower := predicate.GreaterThan(column, predicate.Value(low))
		if n.IncludeLow() {
			lower = predicate.GreaterThanEqual(column, predicate.Value(low))
		}
		return []predicate.Node{predicate.And(upper, lower)}, nil

	case query.FromNode:
		value, err := registry.Coerce(field.Field.Kind, n.Value())
		if err != nil {
			return nil, err
		}
		if n.Include() {
			return []predicate.Node{predicate.GreaterThanEqual(column, predicate.Value(value))}, nil
		}
		return []predicate.Node{predicate.GreaterThan(column, predicate.Value(value))}, nil

	case query.ToNode:
		value, err := registry.Coerce(field.Field.Kind, n.Value())
		if err != nil {
			return nil, err
		}
		if n.Include() {
			return []predicate.Node{predicate.LessThanEqual(column, predicate.Value(value))}, nil
		}
		return []predicate.Node{predicate.LessThan(column, predicate.Value(value))}, nil

	case query.RegexNode:
		pattern := predicate.Value(deslash(n.Value()))
		return []predicate.Node{predicate.Match(column, pattern)}, nil

	default:
		return nil, &UnsupportedNodeError{Node: node}
	}
}
