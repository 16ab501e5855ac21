package models

// FieldType is the semantic type of an entity field.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDate     FieldType = "date"
	FieldTypeRelation FieldType = "relation"
)

// FieldDescriptor describes a single field of an entity.
// Queryable is false for derived/computed fields; only queryable fields
// may appear in a generated filter.
type FieldDescriptor struct {
	Name      string    `json:"name" yaml:"name"`
	Type      FieldType `json:"type" yaml:"type"`
	Label     string    `json:"label" yaml:"label"`
	Queryable bool      `json:"queryable" yaml:"queryable"`

	// RefEntity is the referenced entity name for relation fields.
	RefEntity string `json:"ref_entity,omitempty" yaml:"ref_entity,omitempty"`
}

// EntityDescriptor describes a named, schema-described collection of records.
// Immutable per process run; sourced from the store's schema introspection.
type EntityDescriptor struct {
	Name   string            `json:"name" yaml:"name"`
	Label  string            `json:"label" yaml:"label"`
	Table  string            `json:"table,omitempty" yaml:"table,omitempty"`
	Fields []FieldDescriptor `json:"fields" yaml:"fields"`
}

// Field returns the descriptor for the named field, or nil if absent.
func (e *EntityDescriptor) Field(name string) *FieldDescriptor {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i]
		}
	}
	return nil
}

// QueryableFields returns the subset of fields eligible for filters,
// in declaration order.
func (e *EntityDescriptor) QueryableFields() []FieldDescriptor {
	out := make([]FieldDescriptor, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Queryable {
			out = append(out, f)
		}
	}
	return out
}

// IsQueryable reports whether the named field exists and is queryable.
func (e *EntityDescriptor) IsQueryable(name string) bool {
	f := e.Field(name)
	return f != nil && f.Queryable
}

// Row is a single record returned from a store search.
type Row struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}
