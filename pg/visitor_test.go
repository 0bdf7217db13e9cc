package pg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ninoseki/sqlmodel-filters/predicate"
)

func TestCompilePrecedence(t *testing.T) {
	eq := func(column string, value any) predicate.Node {
		return predicate.Equal(predicate.Column(column), predicate.Value(value))
	}

	tests := []struct {
		name     string
		node     predicate.Node
		sql      string
		params   []any
		ordering string
	}{
		{
			name:   "comparison",
			node:   eq("heroes.age", int64(48)),
			sql:    "heroes.age = $1",
			params: []any{int64(48)},
		},
		{
			name:   "like",
			node:   predicate.Like(predicate.Column("heroes.name"), predicate.Value("%Spider%")),
			sql:    "heroes.name LIKE $1",
			params: []any{"%Spider%"},
		},
		{
			name:   "regex match",
			node:   predicate.Match(predicate.Column("heroes.name"), predicate.Value("Spi.*")),
			sql:    "heroes.name ~ $1",
			params: []any{"Spi.*"},
		},
		{
			name:   "and of comparisons needs no parens",
			node:   predicate.And(eq("a", int64(1)), eq("b", int64(2))),
			sql:    "a = $1 AND b = $2",
			params: []any{int64(1), int64(2)},
		},
		{
			name: "or inside and is parenthesized",
			node: predicate.And(
				predicate.Or(eq("a", int64(1)), eq("b", int64(2))),
				eq("c", int64(3)),
			),
			sql:    "(a = $1 OR b = $2) AND c = $3",
			params: []any{int64(1), int64(2), int64(3)},
		},
		{
			name: "and inside or needs no parens",
			node: predicate.Or(
				predicate.And(eq("a", int64(1)), eq("b", int64(2))),
				eq("c", int64(3)),
			),
			sql:    "a = $1 AND b = $2 OR c = $3",
			params: []any{int64(1), int64(2), int64(3)},
		},
		{
			name:   "not over comparison",
			node:   predicate.Not(eq("a", int64(1))),
			sql:    "NOT a = $1",
			params: []any{int64(1)},
		},
		{
			name:   "not over or is parenthesized",
			node:   predicate.Not(predicate.Or(eq("a", int64(1)), eq("b", int64(2)))),
			sql:    "NOT (a = $1 OR b = $2)",
			params: []any{int64(1), int64(2)},
		},
		{
			name: "is not null inside or",
			node: predicate.Or(
				predicate.IsNotNull(predicate.Column("a")),
				predicate.IsNull(predicate.Column("b")),
			),
			sql: "a IS NOT NULL OR b IS NULL",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := Compile(tt.node)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestPlaceholderOffset(t *testing.T) {
	node := predicate.And(
		predicate.Equal(predicate.Column("a"), predicate.Value(int64(1))),
		predicate.Equal(predicate.Column("b"), predicate.Value(int64(2))),
	)

	v := NewSQLVisitor(PlaceholderOffset(2))
	require.NoError(t, node.Accept(v))

	sql, params, err := v.Result()
	require.NoError(t, err)
	assert.Equal(t, "a = $3 AND b = $4", sql)
	assert.Equal(t, []any{int64(1), int64(2)}, params)
}
