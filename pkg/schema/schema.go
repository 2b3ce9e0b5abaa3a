// Package schema parses entity schemas that describe how logical record
// fields map onto a column-oriented storage layout.
//
// Schemas are authored as Avro record schemas in JSON, with an optional
// per-field "mapping" attribute classifying the field as a composite key
// part, a single stored column, or a keyAsColumn field whose map entries or
// nested record fields spread across many columns:
//
//	{
//	  "type": "record",
//	  "name": "example.User",
//	  "fields": [
//	    {"name": "region", "type": "string", "mapping": {"type": "key", "value": "0"}},
//	    {"name": "id", "type": "long", "mapping": {"type": "key", "value": "1"}},
//	    {"name": "email", "type": "string", "mapping": {"type": "column", "value": "meta.email"}},
//	    {"name": "tags", "type": {"type": "map", "values": "string"},
//	     "mapping": {"type": "keyAsColumn"}}
//	  ]
//	}
package schema

import (
	"strings"

	"github.com/eljefe6a/kite/pkg/errors"
)

// Kind identifies the declared value type of a field.
type Kind int

const (
	KindNull Kind = iota
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindBytes
	KindString
	KindMap
	KindRecord
)

// String returns the Avro name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindInt:
		return "int"
	case KindLong:
		return "long"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindBytes:
		return "bytes"
	case KindString:
		return "string"
	case KindMap:
		return "map"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Primitive reports whether the kind is a primitive scalar that has a
// canonical zero value: int, long, boolean, float and double. String and
// bytes are deliberately excluded; their absence is representable.
func (k Kind) Primitive() bool {
	switch k {
	case KindInt, KindLong, KindBoolean, KindFloat, KindDouble:
		return true
	default:
		return false
	}
}

// ValueType is the declared type of a field value. Exactly one of the
// composite members is set for map and record kinds.
type ValueType struct {
	Kind Kind
	// Values is the entry value type for map kinds
	Values *ValueType
	// Record is the nested record type for record kinds
	Record *RecordType
	// Nullable is true when the type was declared as a union with null
	Nullable bool
}

// RecordType describes a record value: an ordered list of named fields.
type RecordType struct {
	// Name is the full name of the record type, used to resolve a
	// registered Go type for the fixed-layout entity representation.
	Name   string
	Fields []Field
	index  map[string]int
}

// Field is a single named field of a record type.
type Field struct {
	Name string
	// Pos is the field's position in declaration order
	Pos  int
	Type *ValueType
	// Mapping is nil for fields of nested record types, which are always
	// addressed through their enclosing keyAsColumn field.
	Mapping *FieldMapping
}

// Field returns the field with the given name, if any.
func (rt *RecordType) Field(name string) (*Field, bool) {
	i, ok := rt.index[name]
	if !ok {
		return nil, false
	}
	return &rt.Fields[i], true
}

// FieldAt returns the field at the given declaration position.
func (rt *RecordType) FieldAt(pos int) *Field {
	return &rt.Fields[pos]
}

// Len returns the number of fields.
func (rt *RecordType) Len() int {
	return len(rt.Fields)
}

// MappingType classifies how a field is stored.
type MappingType string

const (
	// MappingKey marks a field as one part of the composite row key. The
	// mapping value is the part's 0-based ordinal within the key.
	MappingKey MappingType = "key"
	// MappingColumn maps a field to a single named column.
	MappingColumn MappingType = "column"
	// MappingKeyAsColumn spreads a map- or record-typed field across one
	// column per entry.
	MappingKeyAsColumn MappingType = "keyAsColumn"
)

// FieldMapping is the storage classification of one top-level field.
type FieldMapping struct {
	FieldName string
	Type      MappingType
	// Value is the raw mapping value: the ordinal digits for key mappings,
	// the column identifier for column mappings, unused for keyAsColumn.
	Value string
	// Ordinal is the parsed key-part position for key mappings.
	Ordinal int
}

// EntitySchema is an immutable, parsed entity schema: the record type plus
// the storage mapping of every top-level field.
type EntitySchema struct {
	raw         string
	record      *RecordType
	mappings    []*FieldMapping
	keyCount    int
	fingerprint string
}

// Record returns the entity's record type.
func (s *EntitySchema) Record() *RecordType {
	return s.record
}

// FieldMappings returns the storage mappings in field declaration order.
func (s *EntitySchema) FieldMappings() []*FieldMapping {
	return s.mappings
}

// Mapping returns the mapping for the named field, if any.
func (s *EntitySchema) Mapping(fieldName string) (*FieldMapping, bool) {
	for _, fm := range s.mappings {
		if fm.FieldName == fieldName {
			return fm, true
		}
	}
	return nil, false
}

// KeyFieldCount returns the number of key-mapped fields, which is also the
// length of the composite key.
func (s *EntitySchema) KeyFieldCount() int {
	return s.keyCount
}

// RawSchema returns the schema JSON this EntitySchema was parsed from.
func (s *EntitySchema) RawSchema() string {
	return s.raw
}

// Fingerprint returns a stable identifier for the schema's field layout.
func (s *EntitySchema) Fingerprint() string {
	return s.fingerprint
}

// fieldFingerprint builds the fingerprint from field names, types and
// mappings, mirroring the order they were declared in.
func fieldFingerprint(rt *RecordType) string {
	var b strings.Builder
	for i := range rt.Fields {
		f := &rt.Fields[i]
		b.WriteString(f.Name)
		b.WriteByte(':')
		b.WriteString(f.Type.Kind.String())
		if f.Mapping != nil {
			b.WriteByte('@')
			b.WriteString(string(f.Mapping.Type))
			b.WriteByte('=')
			b.WriteString(f.Mapping.Value)
		}
		b.WriteByte(';')
	}
	return b.String()
}

// validateKeyOrdinals checks that key ordinals densely cover 0..n-1.
// Sparse or duplicate ordinals would silently produce incomplete or
// overwritten key parts, so they are rejected at parse time.
func validateKeyOrdinals(mappings []*FieldMapping) error {
	seen := make(map[int]string)
	count := 0
	for _, fm := range mappings {
		if fm.Type != MappingKey {
			continue
		}
		count++
		if prev, dup := seen[fm.Ordinal]; dup {
			return errors.Newf(errors.ErrorTypeValidation,
				"duplicate key ordinal %d shared by fields %q and %q", fm.Ordinal, prev, fm.FieldName)
		}
		seen[fm.Ordinal] = fm.FieldName
	}
	for i := 0; i < count; i++ {
		if _, ok := seen[i]; !ok {
			return errors.Newf(errors.ErrorTypeValidation,
				"key ordinals must cover 0..%d with no gaps; ordinal %d is missing", count-1, i)
		}
	}
	return nil
}
