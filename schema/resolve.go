package schema

import (
	"fmt"
	"strings"
)

// IllegalFieldError reports a field or relationship segment that does not
// exist on the model being resolved. Always fatal.
type IllegalFieldError struct {
	Model string
	Name  string
}

func (e *IllegalFieldError) Error() string {
	return fmt.Sprintf("model %s has no field or relationship %q", e.Model, e.Name)
}

// FieldPath is a dotted field reference; length one addresses a direct
// field, longer paths traverse relationships segment by segment.
type FieldPath []string

func ParseFieldPath(s string) FieldPath {
	return strings.Split(s, ".")
}

func (p FieldPath) String() string {
	return strings.Join(p, ".")
}

// ResolvedField is the outcome of resolving a FieldPath: the owning model
// and the declared field on it.
type ResolvedField struct {
	Model *Model
	Field Field
}

// Column returns the qualified column reference for the resolved field.
func (f ResolvedField) Column() string {
	return f.Model.Column(f.Field.Name)
}

// Resolve walks all but the last path segment through the declared
// relationships and resolves the final segment as a field of the model
// reached. It has no side effects; any undeclared segment fails with
// *IllegalFieldError.
func Resolve(root *Model, rels *Relationships, path FieldPath) (ResolvedField, error) {
	if len(path) == 0 {
		return ResolvedField{}, &IllegalFieldError{Model: root.Name(), Name: ""}
	}

	model := root
	for _, segment := range path[:len(path)-1] {
		rel, ok := rels.Get(segment)
		if !ok {
			return ResolvedField{}, &IllegalFieldError{Model: model.Name(), Name: segment}
		}
		model = rel.Target()
	}

	name := path[len(path)-1]
	field, ok := model.Field(name)
	if !ok {
		return ResolvedField{}, &IllegalFieldError{Model: model.Name(), Name: name}
	}

	return ResolvedField{Model: model, Field: field}, nil
}
