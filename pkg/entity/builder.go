package entity

import (
	"reflect"

	"github.com/eljefe6a/kite/pkg/errors"
	"github.com/eljefe6a/kite/pkg/schema"
)

// RecordBuilder accumulates named field values and produces one immutable
// record. Builders accept puts in any order, tolerate unset fields, and must
// not be reused after Build. They are not safe for concurrent use.
type RecordBuilder interface {
	Put(name string, value interface{}) error
	Build() (interface{}, error)
}

// RecordBuilderFactory produces fresh builders for one fixed record type.
// Factories are immutable and safe to share.
type RecordBuilderFactory interface {
	NewBuilder() RecordBuilder
}

// genericRecordBuilderFactory produces builders for the dynamic record
// representation.
type genericRecordBuilderFactory struct {
	typ *schema.RecordType
}

// NewGenericRecordBuilderFactory returns a factory producing dynamic record
// builders for the given record type.
func NewGenericRecordBuilderFactory(rt *schema.RecordType) RecordBuilderFactory {
	return &genericRecordBuilderFactory{typ: rt}
}

func (f *genericRecordBuilderFactory) NewBuilder() RecordBuilder {
	return &genericRecordBuilder{
		typ:    f.typ,
		values: make(map[string]interface{}, f.typ.Len()),
	}
}

type genericRecordBuilder struct {
	typ    *schema.RecordType
	values map[string]interface{}
	built  bool
}

func (b *genericRecordBuilder) Put(name string, value interface{}) error {
	if b.built {
		return errors.Newf(errors.ErrorTypeValidation,
			"builder for %s already built; builders are single use", b.typ.Name)
	}
	if _, ok := b.typ.Field(name); !ok {
		return errors.Newf(errors.ErrorTypeValidation,
			"no field named %q in record type %s", name, b.typ.Name)
	}
	b.values[name] = value
	return nil
}

func (b *genericRecordBuilder) Build() (interface{}, error) {
	if b.built {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"builder for %s already built; builders are single use", b.typ.Name)
	}
	b.built = true
	return &GenericRecord{typ: b.typ, values: b.values}, nil
}

// specificRecordBuilderFactory produces builders that instantiate a
// registered Go struct type. The concrete type is resolved once at factory
// construction; an unresolvable type aborts construction with a
// configuration error.
type specificRecordBuilderFactory struct {
	typ    *schema.RecordType
	goType reflect.Type
}

// NewSpecificRecordBuilderFactory resolves the record type's full name
// through the resolver and returns a factory producing builders for that Go
// struct type. Every schema field must have a corresponding struct field.
func NewSpecificRecordBuilderFactory(rt *schema.RecordType, resolver Resolver) (RecordBuilderFactory, error) {
	goType, err := resolver.Resolve(rt.Name)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig,
			"could not resolve entity type "+rt.Name)
	}
	for i := range rt.Fields {
		name := rt.Fields[i].Name
		if _, ok := structFieldIndex(goType, name); !ok {
			return nil, errors.Newf(errors.ErrorTypeConfig,
				"type %s has no struct field for schema field %q", goType, name)
		}
	}
	return &specificRecordBuilderFactory{typ: rt, goType: goType}, nil
}

func (f *specificRecordBuilderFactory) NewBuilder() RecordBuilder {
	return &specificRecordBuilder{
		typ:   f.typ,
		value: reflect.New(f.goType).Elem(),
	}
}

type specificRecordBuilder struct {
	typ   *schema.RecordType
	value reflect.Value
	built bool
}

func (b *specificRecordBuilder) Put(name string, value interface{}) error {
	if b.built {
		return errors.Newf(errors.ErrorTypeValidation,
			"builder for %s already built; builders are single use", b.typ.Name)
	}
	if _, ok := b.typ.Field(name); !ok {
		return errors.Newf(errors.ErrorTypeValidation,
			"no field named %q in record type %s", name, b.typ.Name)
	}
	idx, ok := structFieldIndex(b.value.Type(), name)
	if !ok {
		return errors.Newf(errors.ErrorTypeConfig,
			"type %s has no struct field for schema field %q", b.value.Type(), name)
	}
	return assignValue(b.value.FieldByIndex(idx), name, value)
}

func (b *specificRecordBuilder) Build() (interface{}, error) {
	if b.built {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"builder for %s already built; builders are single use", b.typ.Name)
	}
	b.built = true
	return b.value.Addr().Interface(), nil
}

// assignValue sets a struct field from a dynamically typed value, converting
// between numeric widths where the schema and struct disagree on exact width.
func assignValue(fv reflect.Value, name string, value interface{}) error {
	if value == nil {
		// unset fields keep the struct's zero value
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(fv.Type()) {
		fv.Set(rv)
		return nil
	}
	if numericKind(rv.Kind()) && numericKind(fv.Kind()) && rv.Type().ConvertibleTo(fv.Type()) {
		fv.Set(rv.Convert(fv.Type()))
		return nil
	}
	if fv.Kind() == reflect.Map && rv.Kind() == reflect.Map &&
		fv.Type().Key().Kind() == reflect.String && rv.Type().Key().Kind() == reflect.String {
		return assignMap(fv, name, rv)
	}
	return errors.Newf(errors.ErrorTypeValidation,
		"cannot assign value of type %T to field %q (%s)", value, name, fv.Type())
}

// assignMap rebuilds a string-keyed map into the struct field's map type,
// converting entry values where element types disagree on exact width.
func assignMap(fv reflect.Value, name string, rv reflect.Value) error {
	elemType := fv.Type().Elem()
	out := reflect.MakeMapWithSize(fv.Type(), rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		ev := iter.Value()
		if ev.Kind() == reflect.Interface {
			ev = ev.Elem()
		}
		if !ev.IsValid() {
			continue // nil entry
		}
		key := iter.Key().Convert(fv.Type().Key())
		switch {
		case ev.Type().AssignableTo(elemType):
			out.SetMapIndex(key, ev)
		case numericKind(ev.Kind()) && numericKind(elemType.Kind()) && ev.Type().ConvertibleTo(elemType):
			out.SetMapIndex(key, ev.Convert(elemType))
		default:
			return errors.Newf(errors.ErrorTypeValidation,
				"cannot assign map entry of type %s to field %q (%s)", ev.Type(), name, fv.Type())
		}
	}
	fv.Set(out)
	return nil
}

func numericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
