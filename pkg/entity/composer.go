package entity

import (
	"reflect"

	"github.com/eljefe6a/kite/pkg/errors"
	"github.com/eljefe6a/kite/pkg/schema"
)

// Composer assembles entities from named field values and decomposes built
// entities into key parts and column values, for one entity schema.
//
// A Composer is immutable after construction: the top-level builder factory,
// the composite key length and one cached factory per record-typed
// keyAsColumn field are all fixed up front. It is safe for concurrent use
// across build and extract operations. Individual builders are not.
type Composer struct {
	schema       *schema.EntitySchema
	specific     bool
	factory      RecordBuilderFactory
	kacFactories map[string]RecordBuilderFactory
	keyPartCount int
	resolver     Resolver
}

// NewComposer creates a Composer for the given schema. When specific is
// true, entities are instances of Go struct types resolved through the
// global type registry; otherwise entities are dynamic records.
func NewComposer(es *schema.EntitySchema, specific bool) (*Composer, error) {
	return NewComposerWithResolver(es, specific, DefaultRegistry())
}

// NewComposerWithResolver is NewComposer with an explicit type resolver.
// An unresolvable type aborts construction; there is no partially usable
// Composer.
func NewComposerWithResolver(es *schema.EntitySchema, specific bool, resolver Resolver) (*Composer, error) {
	c := &Composer{
		schema:       es,
		specific:     specific,
		kacFactories: make(map[string]RecordBuilderFactory),
		keyPartCount: es.KeyFieldCount(),
		resolver:     resolver,
	}

	factory, err := c.newFactory(es.Record())
	if err != nil {
		return nil, err
	}
	c.factory = factory

	// Record-typed keyAsColumn fields are reconstructed from their column
	// parts, so each needs its own builder factory. Map-typed ones are
	// assembled directly and need none.
	for _, fm := range es.FieldMappings() {
		if fm.Type != schema.MappingKeyAsColumn {
			continue
		}
		f, ok := es.Record().Field(fm.FieldName)
		if !ok {
			continue
		}
		if f.Type.Kind == schema.KindRecord {
			kacFactory, err := c.newFactory(f.Type.Record)
			if err != nil {
				return nil, err
			}
			c.kacFactories[fm.FieldName] = kacFactory
		}
	}

	return c, nil
}

func (c *Composer) newFactory(rt *schema.RecordType) (RecordBuilderFactory, error) {
	if c.specific {
		return NewSpecificRecordBuilderFactory(rt, c.resolver)
	}
	return NewGenericRecordBuilderFactory(rt), nil
}

// Schema returns the entity schema this Composer was built for.
func (c *Composer) Schema() *schema.EntitySchema {
	return c.schema
}

// EntityBuilder is a chainable wrapper around a fresh record builder. Put
// errors are latched and surfaced by Build. One EntityBuilder performs
// exactly one logical entity construction and is not safe for concurrent
// use.
type EntityBuilder struct {
	builder RecordBuilder
	err     error
}

// Builder returns a fresh EntityBuilder for one entity construction.
func (c *Composer) Builder() *EntityBuilder {
	return &EntityBuilder{builder: c.factory.NewBuilder()}
}

// Put records a named field value and returns the same builder.
func (b *EntityBuilder) Put(name string, value interface{}) *EntityBuilder {
	if b.err != nil {
		return b
	}
	b.err = b.builder.Put(name, value)
	return b
}

// Build finalizes the entity, or returns the first error any Put produced.
func (b *EntityBuilder) Build() (interface{}, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.builder.Build()
}

// ExtractField reads the named field's value from a built entity. An absent
// value of a primitive kind is replaced by that kind's zero value so the
// dynamic representation behaves exactly like the fixed-layout one, whose
// primitive fields can never be absent. Fields declared nullable opted into
// absence, so they pass through as nil, as do absent non-primitives.
func (c *Composer) ExtractField(e interface{}, fieldName string) (interface{}, error) {
	rt := c.schema.Record()
	f, ok := rt.Field(fieldName)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"no field named %q in schema %s", fieldName, rt.Name)
	}
	ir, err := asIndexedRecord(e, rt)
	if err != nil {
		return nil, err
	}
	v := ir.Get(f.Pos)
	if v == nil && !f.Type.Nullable {
		v = defaultPrimitive(f.Type.Kind)
	}
	return v, nil
}

// ExtractKeyAsColumnValues expands a keyAsColumn field value into its column
// parts: one entry per map key for map-typed fields, one entry per field for
// record-typed fields. Map results are shallow copies, never aliases.
func (c *Composer) ExtractKeyAsColumnValues(fieldName string, fieldValue interface{}) (map[string]interface{}, error) {
	rt := c.schema.Record()
	f, ok := rt.Field(fieldName)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"no field named %q in schema %s", fieldName, rt.Name)
	}

	switch f.Type.Kind {
	case schema.KindMap:
		return copyStringMap(fieldName, fieldValue)

	case schema.KindRecord:
		ir, err := asIndexedRecord(fieldValue, f.Type.Record)
		if err != nil {
			return nil, err
		}
		values := make(map[string]interface{}, ir.Type().Len())
		for i := 0; i < ir.Type().Len(); i++ {
			values[ir.Type().FieldAt(i).Name] = ir.Get(i)
		}
		return values, nil

	default:
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"only map or record types are valid for keyAsColumn fields; field %q is %s",
			fieldName, f.Type.Kind)
	}
}

// BuildKeyAsColumnField is the inverse of ExtractKeyAsColumnValues: it
// reassembles a keyAsColumn field value from its column parts. Record-typed
// fields go through the factory cached for the field at construction.
func (c *Composer) BuildKeyAsColumnField(fieldName string, values map[string]interface{}) (interface{}, error) {
	rt := c.schema.Record()
	f, ok := rt.Field(fieldName)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"no field named %q in schema %s", fieldName, rt.Name)
	}

	switch f.Type.Kind {
	case schema.KindMap:
		out := make(map[string]interface{}, len(values))
		for k, v := range values {
			out[k] = v
		}
		return out, nil

	case schema.KindRecord:
		factory, ok := c.kacFactories[fieldName]
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"field %q is not a keyAsColumn mapped record field", fieldName)
		}
		builder := factory.NewBuilder()
		for k, v := range values {
			if err := builder.Put(k, v); err != nil {
				return nil, err
			}
		}
		return builder.Build()

	default:
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"only map or record types are valid for keyAsColumn fields; field %q is %s",
			fieldName, f.Type.Kind)
	}
}

// PartitionKeyParts assembles the composite key parts of a built entity.
// Each key-mapped field's value lands at the index given by its declared
// ordinal, independent of field declaration order. The result is the
// canonical storage-facing key order.
func (c *Composer) PartitionKeyParts(e interface{}) ([]interface{}, error) {
	rt := c.schema.Record()
	ir, err := asIndexedRecord(e, rt)
	if err != nil {
		return nil, err
	}

	parts := make([]interface{}, c.keyPartCount)
	for _, fm := range c.schema.FieldMappings() {
		if fm.Type != schema.MappingKey {
			continue
		}
		f, ok := rt.Field(fm.FieldName)
		if !ok {
			continue
		}
		parts[fm.Ordinal] = ir.Get(f.Pos)
	}
	return parts, nil
}

// defaultPrimitive returns the canonical zero value for primitive scalar
// kinds and nil for everything else. The Go types match what goavro decodes
// each Avro primitive to.
func defaultPrimitive(k schema.Kind) interface{} {
	switch k {
	case schema.KindInt:
		return int32(0)
	case schema.KindLong:
		return int64(0)
	case schema.KindBoolean:
		return false
	case schema.KindFloat:
		return float32(0)
	case schema.KindDouble:
		return float64(0)
	default:
		return nil
	}
}

// copyStringMap shallow-copies a string-keyed map value of any element type.
func copyStringMap(fieldName string, v interface{}) (map[string]interface{}, error) {
	if m, ok := v.(map[string]interface{}); ok {
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, nil
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"keyAsColumn field %q holds %T, expected a string-keyed map", fieldName, v)
	}
	out := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, nil
}
