// Package coerce validates raw query tokens against a field's declared type.
//
// The declared-type set is closed; a Registry maps each kind to a parsing
// function. DefaultRegistry covers every kind and is what the compiler uses
// unless the caller supplies a replacement.
package coerce

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Kind is a declared field type tag.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindDateTime
	KindDate
	KindUUID
	KindULID
)

var kindNames = map[Kind]string{
	KindString:   "string",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindDateTime: "datetime",
	KindDate:     "date",
	KindUUID:     "uuid",
	KindULID:     "ulid",
}

func (k Kind) String() string {
	name, ok := kindNames[k]
	if !ok {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return name
}

// Error reports a token that failed validation against a declared kind.
// It is fatal when the field was explicitly named by the query and causes
// a silent field-skip during default-field expansion.
type Error struct {
	Kind  Kind
	Raw   string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot coerce %q to %s: %v", e.Raw, e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Func parses a raw token into a typed value.
type Func func(raw string) (any, error)

// Registry maps declared kinds to parsing functions. Build it once and
// share it; it is not mutated after construction.
type Registry struct {
	funcs map[Kind]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[Kind]Func)}
}

func (r *Registry) Register(kind Kind, fn Func) *Registry {
	r.funcs[kind] = fn
	return r
}

// Coerce validates raw against the declared kind. Failures are reported
// as *Error so callers can distinguish coercion from resolution failures.
func (r *Registry) Coerce(kind Kind, raw string) (any, error) {
	fn, ok := r.funcs[kind]
	if !ok {
		return nil, &Error{Kind: kind, Raw: raw, Cause: fmt.Errorf("no coercion registered")}
	}
	value, err := fn(raw)
	if err != nil {
		return nil, &Error{Kind: kind, Raw: raw, Cause: err}
	}
	return value, nil
}

// Accepted datetime layouts, most specific first. Date-only literals are
// valid for datetime fields so that range queries over timestamps can use
// calendar days as bounds.
var datetimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDateTime(raw string) (any, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("not an ISO-8601 datetime")
}

func parseBool(raw string) (any, error) {
	switch strings.ToLower(raw) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return nil, fmt.Errorf("not a boolean literal")
}

// DefaultRegistry returns a registry covering every declared kind.
func DefaultRegistry() *Registry {
	return NewRegistry().
		Register(KindString, func(raw string) (any, error) {
			return raw, nil
		}).
		Register(KindInt, func(raw string) (any, error) {
			return strconv.ParseInt(raw, 10, 64)
		}).
		Register(KindFloat, func(raw string) (any, error) {
			return strconv.ParseFloat(raw, 64)
		}).
		Register(KindBool, parseBool).
		Register(KindDateTime, parseDateTime).
		Register(KindDate, func(raw string) (any, error) {
			return time.Parse("2006-01-02", raw)
		}).
		Register(KindUUID, func(raw string) (any, error) {
			return uuid.Parse(raw)
		}).
		Register(KindULID, func(raw string) (any, error) {
			return ulid.ParseStrict(raw)
		})
}
