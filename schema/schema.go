// Package schema describes the relational entities a query filters over:
// models, their typed fields, and the relationships between them.
package schema

import (
	"fmt"

	"github.com/jinzhu/inflection"

	"github.com/ninoseki/sqlmodel-filters/coerce"
)

// Field is a declared column of a model.
type Field struct {
	Name     string
	Kind     coerce.Kind
	Nullable bool
}

// Model is a named relational entity with typed fields.
type Model struct {
	name   string
	table  string
	fields map[string]Field
	order  []string
}

func New(name, table string) *Model {
	return &Model{
		name:   name,
		table:  table,
		fields: make(map[string]Field),
	}
}

func (m *Model) Name() string  { return m.name }
func (m *Model) Table() string { return m.table }

func (m *Model) AddField(name string, kind coerce.Kind) *Model {
	return m.add(Field{Name: name, Kind: kind})
}

func (m *Model) AddNullableField(name string, kind coerce.Kind) *Model {
	return m.add(Field{Name: name, Kind: kind, Nullable: true})
}

func (m *Model) add(f Field) *Model {
	if _, ok := m.fields[f.Name]; !ok {
		m.order = append(m.order, f.Name)
	}
	m.fields[f.Name] = f
	return m
}

func (m *Model) Field(name string) (Field, bool) {
	f, ok := m.fields[name]
	return f, ok
}

// Fields returns the declared fields in declaration order.
func (m *Model) Fields() []Field {
	fields := make([]Field, 0, len(m.order))
	for _, name := range m.order {
		fields = append(fields, m.fields[name])
	}
	return fields
}

// Column returns the qualified column reference for a declared field.
func (m *Model) Column(field string) string {
	return m.table + "." + field
}

// Relationship describes how a related model is reached and how the
// backend should join it.
type Relationship struct {
	target *Model
	on     string
	outer  bool
	full   bool
}

// Simple declares a relationship whose join condition is derived from the
// conventional foreign key: parent.<singular(target)>_id = target.id.
func Simple(target *Model) Relationship {
	return Relationship{target: target}
}

// Joined declares a relationship with an explicit join condition.
func Joined(target *Model, on string, outer, full bool) Relationship {
	return Relationship{target: target, on: on, outer: outer, full: full}
}

func (r Relationship) Target() *Model { return r.target }
func (r Relationship) On() string     { return r.on }
func (r Relationship) Outer() bool    { return r.outer }
func (r Relationship) Full() bool     { return r.full }

// JoinClause renders the SQL join for this relationship. parent is the
// model joined immediately before in the chain (the root for the first).
func (r Relationship) JoinClause(parent *Model) string {
	keyword := "JOIN"
	switch {
	case r.full:
		keyword = "FULL JOIN"
	case r.outer:
		keyword = "LEFT JOIN"
	}
	on := r.on
	if on == "" {
		on = fmt.Sprintf("%s.%s_id = %s.id",
			parent.Table(), inflection.Singular(r.target.Table()), r.target.Table())
	}
	return fmt.Sprintf("%s %s ON %s", keyword, r.target.Table(), on)
}

// NamedRelationship pairs a relationship with the name it was declared
// under; Relationships.All returns these in declaration order.
type NamedRelationship struct {
	Name string
	Relationship
}

// Relationships is an ordered registry of declared relationships.
// Registration order is the order joins are applied in.
type Relationships struct {
	names []string
	rels  map[string]Relationship
}

func NewRelationships() *Relationships {
	return &Relationships{rels: make(map[string]Relationship)}
}

func (r *Relationships) Register(name string, rel Relationship) *Relationships {
	if _, ok := r.rels[name]; !ok {
		r.names = append(r.names, name)
	}
	r.rels[name] = rel
	return r
}

func (r *Relationships) Get(name string) (Relationship, bool) {
	if r == nil {
		return Relationship{}, false
	}
	rel, ok := r.rels[name]
	return rel, ok
}

func (r *Relationships) All() []NamedRelationship {
	if r == nil {
		return nil
	}
	all := make([]NamedRelationship, 0, len(r.names))
	for _, name := range r.names {
		all = append(all, NamedRelationship{Name: name, Relationship: r.rels[name]})
	}
	return all
}
