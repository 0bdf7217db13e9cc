package predicate

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Operator is a predicate operator in its SQL spelling.
type Operator string

const (
	OpEq  Operator = "="
	OpNe  Operator = "!="
	OpGt  Operator = ">"
	OpGte Operator = ">="
	OpLt  Operator = "<"
	OpLte Operator = "<="

	OpLike  Operator = "LIKE"
	OpMatch Operator = "~"

	OpAnd Operator = "AND"
	OpOr  Operator = "OR"
	OpNot Operator = "NOT"

	OpIsNull    Operator = "IS NULL"
	OpIsNotNull Operator = "IS NOT NULL"
)

type BinaryOp func(left, right any) (any, error)

type binaryKey struct {
	left  reflect.Type
	op    Operator
	right reflect.Type
}

// OpRegistry executes operators over typed values for the in-memory
// evaluator, with SQL NULL semantics: comparisons against NULL are
// unknown, AND/OR follow three-valued logic.
type OpRegistry struct {
	binary map[binaryKey]BinaryOp
}

func NewOpRegistry() *OpRegistry {
	return &OpRegistry{binary: make(map[binaryKey]BinaryOp)}
}

func RegisterBinary[L, R any](reg *OpRegistry, op Operator, fn func(L, R) (any, error)) {
	var zeroL L
	var zeroR R
	key := binaryKey{
		left:  reflect.TypeOf(zeroL),
		op:    op,
		right: reflect.TypeOf(zeroR),
	}
	reg.binary[key] = func(left, right any) (any, error) {
		return fn(left.(L), right.(R))
	}
}

// ExecBinary executes a binary operator. A nil operand stands for SQL
// NULL and propagates as an unknown (nil) result, except through the
// three-valued AND/OR shortcuts.
func (r *OpRegistry) ExecBinary(left any, op Operator, right any) (any, error) {
	if op == OpAnd {
		return execAnd(left, right)
	}
	if op == OpOr {
		return execOr(left, right)
	}

	if left == nil || right == nil {
		return nil, nil
	}

	key := binaryKey{
		left:  reflect.TypeOf(left),
		op:    op,
		right: reflect.TypeOf(right),
	}
	fn, ok := r.binary[key]
	if !ok {
		return nil, fmt.Errorf("operator %q is not supported for %T and %T", op, left, right)
	}
	return fn(left, right)
}

// ExecNot negates a boolean, propagating unknown.
func (r *OpRegistry) ExecNot(operand any) (any, error) {
	if operand == nil {
		return nil, nil
	}
	b, ok := operand.(bool)
	if !ok {
		return nil, fmt.Errorf("operator %q requires bool, got %T", OpNot, operand)
	}
	return !b, nil
}

// NULL AND FALSE = FALSE, NULL AND TRUE = NULL.
func execAnd(left, right any) (any, error) {
	if left == nil {
		if val, ok := right.(bool); ok && !val {
			return false, nil
		}
		return nil, nil
	}
	if right == nil {
		if val, ok := left.(bool); ok && !val {
			return false, nil
		}
		return nil, nil
	}
	l, ok := left.(bool)
	if !ok {
		return nil, fmt.Errorf("operator %q requires bool, got %T", OpAnd, left)
	}
	r, ok := right.(bool)
	if !ok {
		return nil, fmt.Errorf("operator %q requires bool, got %T", OpAnd, right)
	}
	return l && r, nil
}

// NULL OR TRUE = TRUE, NULL OR FALSE = NULL.
func execOr(left, right any) (any, error) {
	if left == nil {
		if val, ok := right.(bool); ok && val {
			return true, nil
		}
		return nil, nil
	}
	if right == nil {
		if val, ok := left.(bool); ok && val {
			return true, nil
		}
		return nil, nil
	}
	l, ok := left.(bool)
	if !ok {
		return nil, fmt.Errorf("operator %q requires bool, got %T", OpOr, left)
	}
	r, ok := right.(bool)
	if !ok {
		return nil, fmt.Errorf("operator %q requires bool, got %T", OpOr, right)
	}
	return l || r, nil
}

func registerComparison[T int64 | float64 | string](reg *OpRegistry) {
	RegisterBinary[T, T](reg, OpEq, func(a, b T) (any, error) { return a == b, nil })
	RegisterBinary[T, T](reg, OpNe, func(a, b T) (any, error) { return a != b, nil })
	RegisterBinary[T, T](reg, OpGt, func(a, b T) (any, error) { return a > b, nil })
	RegisterBinary[T, T](reg, OpGte, func(a, b T) (any, error) { return a >= b, nil })
	RegisterBinary[T, T](reg, OpLt, func(a, b T) (any, error) { return a < b, nil })
	RegisterBinary[T, T](reg, OpLte, func(a, b T) (any, error) { return a <= b, nil })
}

// DefaultOpRegistry returns a registry covering every value type the
// default coercion registry can produce.
func DefaultOpRegistry() *OpRegistry {
	reg := NewOpRegistry()

	registerComparison[int64](reg)
	registerComparison[float64](reg)
	registerComparison[string](reg)

	RegisterBinary[bool, bool](reg, OpEq, func(a, b bool) (any, error) { return a == b, nil })
	RegisterBinary[bool, bool](reg, OpNe, func(a, b bool) (any, error) { return a != b, nil })

	RegisterBinary[time.Time, time.Time](reg, OpEq, func(a, b time.Time) (any, error) { return a.Equal(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OpNe, func(a, b time.Time) (any, error) { return !a.Equal(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OpGt, func(a, b time.Time) (any, error) { return a.After(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OpGte, func(a, b time.Time) (any, error) { return !a.Before(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OpLt, func(a, b time.Time) (any, error) { return a.Before(b), nil })
	RegisterBinary[time.Time, time.Time](reg, OpLte, func(a, b time.Time) (any, error) { return !a.After(b), nil })

	RegisterBinary[uuid.UUID, uuid.UUID](reg, OpEq, func(a, b uuid.UUID) (any, error) { return a == b, nil })
	RegisterBinary[uuid.UUID, uuid.UUID](reg, OpNe, func(a, b uuid.UUID) (any, error) { return a != b, nil })

	RegisterBinary[ulid.ULID, ulid.ULID](reg, OpEq, func(a, b ulid.ULID) (any, error) { return a.Compare(b) == 0, nil })
	RegisterBinary[ulid.ULID, ulid.ULID](reg, OpNe, func(a, b ulid.ULID) (any, error) { return a.Compare(b) != 0, nil })
	RegisterBinary[ulid.ULID, ulid.ULID](reg, OpGt, func(a, b ulid.ULID) (any, error) { return a.Compare(b) > 0, nil })
	RegisterBinary[ulid.ULID, ulid.ULID](reg, OpGte, func(a, b ulid.ULID) (any, error) { return a.Compare(b) >= 0, nil })
	RegisterBinary[ulid.ULID, ulid.ULID](reg, OpLt, func(a, b ulid.ULID) (any, error) { return a.Compare(b) < 0, nil })
	RegisterBinary[ulid.ULID, ulid.ULID](reg, OpLte, func(a, b ulid.ULID) (any, error) { return a.Compare(b) <= 0, nil })

	RegisterBinary[string, string](reg, OpLike, likeMatch)
	RegisterBinary[string, string](reg, OpMatch, regexMatch)

	return reg
}

// likeMatch interprets a SQL LIKE pattern: % matches any run of
// characters, _ matches exactly one.
func likeMatch(s, pattern string) (any, error) {
	var b strings.Builder
	b.WriteString(`(?s)\A`)
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`\z`)
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, err
	}
	return re.MatchString(s), nil
}

// regexMatch applies an unanchored regular expression, mirroring the
// backend's native ~ operator.
func regexMatch(s, pattern string) (any, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return re.MatchString(s), nil
}
