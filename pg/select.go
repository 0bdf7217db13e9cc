package pg

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/ninoseki/sqlmodel-filters/predicate"
	"github.com/ninoseki/sqlmodel-filters/schema"
)

// Select is a ready-to-execute query: SQL text plus its positional
// parameters.
type Select struct {
	SQL    string
	Params []any
}

// BuildSelect assembles a SELECT over the chosen projection (default:
// every column of the root model), applying the declared joins in
// registration order and the WHERE clause only when a predicate is
// present. A nil predicate applies no filtering.
func BuildSelect(model *schema.Model, joins []schema.NamedRelationship, pred predicate.Node, projection ...string) (Select, error) {
	columns := strings.Join(projection, ", ")
	if len(projection) == 0 {
		columns = model.Table() + ".*"
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(columns)
	b.WriteString(" FROM ")
	b.WriteString(model.Table())

	// Each join chains off the previously joined model, starting at the
	// root, matching the order relationships were declared in.
	parent := model
	for _, join := range joins {
		b.WriteString(" ")
		b.WriteString(join.JoinClause(parent))
		parent = join.Target()
	}

	if pred == nil {
		return Select{SQL: b.String()}, nil
	}

	where, params, err := Compile(pred)
	if err != nil {
		return Select{}, errors.Wrap(err, "compile where clause")
	}
	b.WriteString(" WHERE ")
	b.WriteString(where)

	return Select{SQL: b.String(), Params: params}, nil
}
