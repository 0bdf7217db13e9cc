package sqlmodelfilters

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syreclabs.com/go/faker"

	"github.com/ninoseki/sqlmodel-filters/coerce"
	"github.com/ninoseki/sqlmodel-filters/pg"
	"github.com/ninoseki/sqlmodel-filters/predicate"
	"github.com/ninoseki/sqlmodel-filters/query"
	"github.com/ninoseki/sqlmodel-filters/schema"
)

func heroSchema() (*schema.Model, *schema.Relationships) {
	headquarter := schema.New("Headquarter", "headquarters").
		AddNullableField("id", coerce.KindInt).
		AddField("name", coerce.KindString)

	team := schema.New("Team", "teams").
		AddNullableField("id", coerce.KindInt).
		AddField("name", coerce.KindString)

	hero := schema.New("Hero", "heroes").
		AddNullableField("id", coerce.KindInt).
		AddField("name", coerce.KindString).
		AddField("secret_name", coerce.KindString).
		AddNullableField("age", coerce.KindInt).
		AddField("created_at", coerce.KindDateTime)

	rels := schema.NewRelationships().
		Register("team", schema.Simple(team)).
		Register("headquarter", schema.Simple(headquarter))

	return hero, rels
}

var heroCreatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func heroRows() []predicate.MapContext {
	return []predicate.MapContext{
		{
			"heroes.id":          int64(1),
			"heroes.name":        "Deadpond",
			"heroes.secret_name": "Dive Wilson",
			"heroes.age":         nil,
			"heroes.created_at":  heroCreatedAt,
		},
		{
			"heroes.id":          int64(2),
			"heroes.name":        "Spider-Boy",
			"heroes.secret_name": "Pedro Parqueador",
			"heroes.age":         nil,
			"heroes.created_at":  heroCreatedAt,
		},
		{
			"heroes.id":          int64(3),
			"heroes.name":        "Rusty-Man",
			"heroes.secret_name": "Tommy Sharp",
			"heroes.age":         int64(48),
			"heroes.created_at":  heroCreatedAt,
		},
	}
}

// matchingNames compiles the tree and evaluates the predicate against the
// hero fixtures, returning the names of the matching rows.
func matchingNames(t *testing.T, b *Builder, tree query.Node) []string {
	t.Helper()

	filter, err := b.Compile(tree)
	require.NoError(t, err)
	require.NotNil(t, filter.Predicate)

	evaluator := predicate.NewEvaluator(nil)
	var names []string
	for _, row := range heroRows() {
		ok, err := evaluator.Match(filter.Predicate, row)
		require.NoError(t, err)
		if ok {
			names = append(names, row["heroes.name"].(string))
		}
	}
	return names
}

func compileSQL(t *testing.T, b *Builder, tree query.Node) (string, []any) {
	t.Helper()

	filter, err := b.Compile(tree)
	require.NoError(t, err)
	require.NotNil(t, filter.Predicate)

	sql, params, err := pg.Compile(filter.Predicate)
	require.NoError(t, err)
	return sql, params
}

func newHeroBuilder(t *testing.T) *Builder {
	t.Helper()
	model, rels := heroSchema()
	return NewBuilder(model, WithRelationships(rels))
}

func TestCompileExactMatch(t *testing.T) {
	b := newHeroBuilder(t)
	tree := query.SearchField("name", query.Phrase(`"Spider-Boy"`)).At(0)

	assert.Equal(t, []string{"Spider-Boy"}, matchingNames(t, b, tree))

	sql, params := compileSQL(t, b, tree)
	assert.Equal(t, "heroes.name = $1", sql)
	assert.Equal(t, []any{"Spider-Boy"}, params)
}

func TestCompileLike(t *testing.T) {
	b := newHeroBuilder(t)

	t.Run("prefix", func(t *testing.T) {
		tree := query.SearchField("name", query.Word("Spider")).At(0)
		assert.Equal(t, []string{"Spider-Boy"}, matchingNames(t, b, tree))

		sql, params := compileSQL(t, b, tree)
		assert.Equal(t, "heroes.name LIKE $1", sql)
		assert.Equal(t, []any{"%Spider%"}, params)
	})

	t.Run("single letter", func(t *testing.T) {
		tree := query.SearchField("name", query.Word("o")).At(0)
		assert.Equal(t, []string{"Deadpond", "Spider-Boy"}, matchingNames(t, b, tree))
	})

	t.Run("explicit wildcards", func(t *testing.T) {
		tree := query.SearchField("name", query.Word("R?sty*")).At(0)
		assert.Equal(t, []string{"Rusty-Man"}, matchingNames(t, b, tree))

		_, params := compileSQL(t, b, tree)
		assert.Equal(t, []any{"R_sty%"}, params)
	})
}

func TestCompileFrom(t *testing.T) {
	b := newHeroBuilder(t)

	t.Run("matches", func(t *testing.T) {
		tree := query.SearchField("age", query.From("40", false)).At(0)
		assert.Equal(t, []string{"Rusty-Man"}, matchingNames(t, b, tree))
	})

	t.Run("strict bound excludes", func(t *testing.T) {
		tree := query.SearchField("age", query.From("48", false)).At(0)
		filter, err := b.Compile(tree)
		require.NoError(t, err)
		assertNoHeroMatches(t, filter.Predicate)
	})

	t.Run("inclusive bound includes", func(t *testing.T) {
		tree := query.SearchField("age", query.From("48", true)).At(0)
		assert.Equal(t, []string{"Rusty-Man"}, matchingNames(t, b, tree))
	})
}

func TestCompileTo(t *testing.T) {
	b := newHeroBuilder(t)

	t.Run("matches", func(t *testing.T) {
		tree := query.SearchField("age", query.To("50", false)).At(0)
		assert.Equal(t, []string{"Rusty-Man"}, matchingNames(t, b, tree))
	})

	t.Run("no matches", func(t *testing.T) {
		tree := query.SearchField("age", query.To("40", false)).At(0)
		filter, err := b.Compile(tree)
		require.NoError(t, err)
		assertNoHeroMatches(t, filter.Predicate)
	})
}

func assertNoHeroMatches(t *testing.T, pred predicate.Node) {
	t.Helper()
	require.NotNil(t, pred)

	evaluator := predicate.NewEvaluator(nil)
	for _, row := range heroRows() {
		ok, err := evaluator.Match(pred, row)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestCompileRange(t *testing.T) {
	b := newHeroBuilder(t)

	t.Run("inclusive hit", func(t *testing.T) {
		tree := query.SearchField("age", query.Range("40", "50", true, true)).At(0)
		assert.Equal(t, []string{"Rusty-Man"}, matchingNames(t, b, tree))

		sql, params := compileSQL(t, b, tree)
		assert.Equal(t, "heroes.age <= $1 AND heroes.age >= $2", sql)
		assert.Equal(t, []any{int64(50), int64(40)}, params)
	})

	t.Run("inclusive miss", func(t *testing.T) {
		tree := query.SearchField("age", query.Range("50", "60", true, true)).At(0)
		filter, err := b.Compile(tree)
		require.NoError(t, err)
		assertNoHeroMatches(t, filter.Predicate)
	})

	t.Run("exclusive low bound", func(t *testing.T) {
		tree := query.SearchField("age", query.Range("48", "60", false, false)).At(0)
		filter, err := b.Compile(tree)
		require.NoError(t, err)
		assertNoHeroMatches(t, filter.Predicate)

		sql, _ := compileSQL(t, b, tree)
		assert.Equal(t, "heroes.age < $1 AND heroes.age > $2", sql)
	})

	t.Run("datetime bounds accept dates", func(t *testing.T) {
		tree := query.SearchField("created_at", query.Range("2024-02-29", "2024-03-02", true, true)).At(0)
		names := matchingNames(t, b, tree)
		assert.Equal(t, []string{"Deadpond", "Spider-Boy", "Rusty-Man"}, names)
	})
}

func TestCompileAnd(t *testing.T) {
	b := newHeroBuilder(t)

	t.Run("both hold", func(t *testing.T) {
		tree := query.And(
			query.SearchField("name", query.Word("Rusty")).At(0),
			query.SearchField("age", query.Word("48")).At(10),
		)
		assert.Equal(t, []string{"Rusty-Man"}, matchingNames(t, b, tree))

		sql, _ := compileSQL(t, b, tree)
		assert.Equal(t, "heroes.name LIKE $1 AND heroes.age = $2", sql)
	})

	t.Run("one fails", func(t *testing.T) {
		tree := query.And(
			query.SearchField("name", query.Word("Rusty")).At(0),
			query.SearchField("age", query.Word("50")).At(10),
		)
		filter, err := b.Compile(tree)
		require.NoError(t, err)
		assertNoHeroMatches(t, filter.Predicate)
	})
}

func TestCompileOr(t *testing.T) {
	b := newHeroBuilder(t)

	t.Run("left holds", func(t *testing.T) {
		tree := query.Or(
			query.SearchField("name", query.Word("Rusty")).At(0),
			query.SearchField("age", query.Word("50")).At(10),
		)
		assert.Equal(t, []string{"Rusty-Man"}, matchingNames(t, b, tree))
	})

	t.Run("right holds", func(t *testing.T) {
		tree := query.Or(
			query.SearchField("name", query.Word("Foo")).At(0),
			query.SearchField("age", query.Word("48")).At(10),
		)
		assert.Equal(t, []string{"Rusty-Man"}, matchingNames(t, b, tree))
	})
}

func TestCompileGroup(t *testing.T) {
	b := newHeroBuilder(t)

	t.Run("group or", func(t *testing.T) {
		tree := query.Or(
			query.Group(query.Or(
				query.SearchField("name", query.Word("Spider")).At(1),
				query.SearchField("age", query.Word("48")).At(16),
			)),
			query.SearchField("name", query.Word("Rusty")).At(30),
		)
		assert.Equal(t, []string{"Spider-Boy", "Rusty-Man"}, matchingNames(t, b, tree))
	})

	t.Run("group and", func(t *testing.T) {
		tree := query.And(
			query.Group(query.Or(
				query.SearchField("name", query.Word("Spider")).At(1),
				query.SearchField("age", query.Word("48")).At(16),
			)),
			query.SearchField("name", query.Word("Rusty")).At(30),
		)
		assert.Equal(t, []string{"Rusty-Man"}, matchingNames(t, b, tree))

		sql, _ := compileSQL(t, b, tree)
		assert.Equal(t, "(heroes.name LIKE $1 OR heroes.age = $2) AND heroes.name LIKE $3", sql)
	})

	t.Run("conjunction inside group fails", func(t *testing.T) {
		tree := query.And(
			query.Group(query.And(
				query.SearchField("name", query.Word("Spider")).At(1),
				query.SearchField("age", query.Word("48")).At(16),
			)),
			query.SearchField("name", query.Word("Rusty")).At(30),
		)
		filter, err := b.Compile(tree)
		require.NoError(t, err)
		assertNoHeroMatches(t, filter.Predicate)
	})
}

func TestCompileNot(t *testing.T) {
	b := newHeroBuilder(t)

	// SQL three-valued semantics: a NULL age is neither equal nor unequal
	// to 47, so null-age rows stay unmatched.
	tree := query.Not(query.SearchField("age", query.Word("47")).At(4))
	assert.Equal(t, []string{"Rusty-Man"}, matchingNames(t, b, tree))

	sql, _ := compileSQL(t, b, tree)
	assert.Equal(t, "NOT heroes.age = $1", sql)
}

func TestCompilePresenceAndImplicitOr(t *testing.T) {
	b := newHeroBuilder(t)

	tree := query.Unknown(
		query.SearchField("name", query.Word("*")).At(0),
		query.SearchField("age", query.Word("*")).At(7),
	)

	names := matchingNames(t, b, tree)
	assert.Equal(t, []string{"Deadpond", "Spider-Boy", "Rusty-Man"}, names)

	// The top-level combination policy for unconnected terms is OR.
	sql, params := compileSQL(t, b, tree)
	assert.Equal(t, "heroes.name IS NOT NULL OR heroes.age IS NOT NULL", sql)
	assert.Empty(t, params)
}

func TestCompileIdempotency(t *testing.T) {
	b := newHeroBuilder(t)

	first, params := compileSQL(t, b, query.SearchField("name", query.Word("foo")).At(0))
	assert.Equal(t, "heroes.name LIKE $1", first)
	assert.Equal(t, []any{"%foo%"}, params)

	// Same builder, same position: the previous call must leave no residue.
	second, params := compileSQL(t, b, query.SearchField("name", query.Word("bar")).At(0))
	assert.Equal(t, "heroes.name LIKE $1", second)
	assert.Equal(t, []any{"%bar%"}, params)
}

func TestCompilePositionDeduplication(t *testing.T) {
	b := newHeroBuilder(t)

	// The same positioned node reachable twice compiles once.
	sf := query.SearchField("name", query.Word("Spider")).At(0)
	tree := query.Unknown(sf, sf)

	sql, params := compileSQL(t, b, tree)
	assert.Equal(t, "heroes.name LIKE $1", sql)
	assert.Equal(t, []any{"%Spider%"}, params)
}

func TestDefaultFieldExpansion(t *testing.T) {
	b := newHeroBuilder(t)

	t.Run("string term", func(t *testing.T) {
		tree := query.Word("Spider").At(0)
		assert.Equal(t, []string{"Spider-Boy"}, matchingNames(t, b, tree))

		// Non-string candidates fail coercion and are skipped silently.
		sql, _ := compileSQL(t, b, tree)
		assert.Equal(t, "heroes.name LIKE $1 OR heroes.secret_name LIKE $2", sql)
	})

	t.Run("numeric term", func(t *testing.T) {
		tree := query.Word("48").At(0)
		assert.Equal(t, []string{"Rusty-Man"}, matchingNames(t, b, tree))
	})

	t.Run("configured fields", func(t *testing.T) {
		model, rels := heroSchema()
		b := NewBuilder(model, WithRelationships(rels), WithDefaultFields("secret_name"))

		tree := query.Word("Sharp").At(0)
		assert.Equal(t, []string{"Rusty-Man"}, matchingNames(t, b, tree))

		sql, _ := compileSQL(t, b, tree)
		assert.Equal(t, "heroes.secret_name LIKE $1", sql)
	})
}

func TestCompileErrors(t *testing.T) {
	b := newHeroBuilder(t)

	t.Run("illegal field", func(t *testing.T) {
		_, err := b.Compile(query.SearchField("nope", query.Word("x")).At(0))
		var illegal *schema.IllegalFieldError
		require.ErrorAs(t, err, &illegal)
		assert.Equal(t, "nope", illegal.Name)
	})

	t.Run("undeclared relationship", func(t *testing.T) {
		_, err := b.Compile(query.SearchField("team.base.name", query.Word("x")).At(0))
		var illegal *schema.IllegalFieldError
		require.ErrorAs(t, err, &illegal)
		assert.Equal(t, "base", illegal.Name)
	})

	t.Run("coercion is fatal for explicit fields", func(t *testing.T) {
		_, err := b.Compile(query.SearchField("age", query.Word("abc")).At(0))
		var coercion *coerce.Error
		require.ErrorAs(t, err, &coercion)
		assert.Equal(t, coerce.KindInt, coercion.Kind)
	})

	t.Run("bare range is unsupported", func(t *testing.T) {
		_, err := b.Compile(query.Range("1", "2", true, true).At(5))
		var unsupported *UnsupportedNodeError
		require.ErrorAs(t, err, &unsupported)
		assert.Contains(t, unsupported.Error(), "position 5")
	})

	t.Run("max depth", func(t *testing.T) {
		model, rels := heroSchema()
		b := NewBuilder(model, WithRelationships(rels), WithMaxDepth(10))

		tree := query.Node(query.SearchField("name", query.Word("x")).At(0))
		for i := 0; i < 20; i++ {
			tree = query.Group(tree)
		}
		_, err := b.Compile(tree)
		var depth *MaxDepthError
		require.ErrorAs(t, err, &depth)
	})
}

func TestCompileRelationshipTraversal(t *testing.T) {
	b := newHeroBuilder(t)

	tree := query.SearchField("team.headquarter.name", query.Word("Sharp")).At(0)
	sql, params := compileSQL(t, b, tree)
	assert.Equal(t, "headquarters.name LIKE $1", sql)
	assert.Equal(t, []any{"%Sharp%"}, params)
}

func TestCompileSelect(t *testing.T) {
	b := newHeroBuilder(t)

	t.Run("joins and where", func(t *testing.T) {
		tree := query.SearchField("team.headquarter.name", query.Word("Sharp")).At(0)
		sel, err := b.CompileSelect(tree)
		require.NoError(t, err)

		assert.Equal(t,
			"SELECT heroes.* FROM heroes"+
				" JOIN teams ON heroes.team_id = teams.id"+
				" JOIN headquarters ON teams.headquarter_id = headquarters.id"+
				" WHERE headquarters.name LIKE $1",
			sel.SQL)
		assert.Equal(t, []any{"%Sharp%"}, sel.Params)
	})

	t.Run("empty query applies no filtering", func(t *testing.T) {
		sel, err := b.CompileSelect(query.Group())
		require.NoError(t, err)
		assert.NotContains(t, sel.SQL, "WHERE")
	})

	t.Run("projection", func(t *testing.T) {
		tree := query.SearchField("name", query.Word("Rusty")).At(0)
		sel, err := b.CompileSelect(tree, "heroes.name", "heroes.age")
		require.NoError(t, err)
		assert.Contains(t, sel.SQL, "SELECT heroes.name, heroes.age FROM heroes")
	})
}

func TestCompileBooleanAndUUIDFields(t *testing.T) {
	extra := schema.New("Extra", "extras").
		AddField("id", coerce.KindUUID).
		AddField("is_admin", coerce.KindBool)
	b := NewBuilder(extra)

	id := uuid.MustParse("8614b913-6f4f-4105-8616-761f55f31f44")
	row := predicate.MapContext{"extras.id": id, "extras.is_admin": true}
	evaluator := predicate.NewEvaluator(nil)

	match := func(t *testing.T, tree query.Node) bool {
		t.Helper()
		filter, err := b.Compile(tree)
		require.NoError(t, err)
		ok, err := evaluator.Match(filter.Predicate, row)
		require.NoError(t, err)
		return ok
	}

	t.Run("boolean is case-insensitive", func(t *testing.T) {
		assert.True(t, match(t, query.SearchField("is_admin", query.Word("true")).At(0)))
		assert.True(t, match(t, query.SearchField("is_admin", query.Word("True")).At(0)))
		assert.False(t, match(t, query.SearchField("is_admin", query.Word("False")).At(0)))
		assert.False(t, match(t, query.SearchField("is_admin", query.Word("false")).At(0)))
	})

	t.Run("uuid presence and equality", func(t *testing.T) {
		assert.True(t, match(t, query.SearchField("id", query.Word("*")).At(0)))
		assert.True(t, match(t, query.SearchField("id", query.Word(id.String())).At(0)))
		assert.False(t, match(t, query.SearchField("id", query.Word(uuid.NewString())).At(0)))
	})
}

func TestQToSelect(t *testing.T) {
	model, rels := heroSchema()
	name := faker.Name().FirstName()

	parse := func(q string) (query.Node, error) {
		assert.Equal(t, "name:"+name, q)
		return query.SearchField("name", query.Phrase(`"`+name+`"`)).At(0), nil
	}

	sel, err := QToSelect("name:"+name, parse, model, WithRelationships(rels))
	require.NoError(t, err)
	assert.Contains(t, sel.SQL, "WHERE heroes.name = $1")
	assert.Equal(t, []any{name}, sel.Params)

	t.Run("parse failure", func(t *testing.T) {
		failing := func(string) (query.Node, error) {
			return nil, errors.New("syntax error")
		}
		_, err := QToSelect("name:foo", failing, model)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse query")
	})
}
