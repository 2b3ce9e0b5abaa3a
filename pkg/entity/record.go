// Package entity composes schema-described logical entities from named field
// values and decomposes them back into key parts and column values.
//
// Two entity representations are supported behind one capability contract:
// a dynamic record that carries its own record type, and a fixed-layout Go
// struct resolved by full name through a type registry. A Composer built for
// one schema handles either representation uniformly.
package entity

import (
	"reflect"
	"strings"
	"sync"

	"github.com/eljefe6a/kite/pkg/errors"
	"github.com/eljefe6a/kite/pkg/schema"
)

// IndexedRecord is the read-side contract an entity satisfies: get the value
// at a field position and expose the declared field list. A nil return from
// Get means the field holds no value.
type IndexedRecord interface {
	Get(pos int) interface{}
	Type() *schema.RecordType
}

// GenericRecord is the dynamic entity representation. It carries its record
// type and stores field values by name; fields that were never set read as
// nil.
type GenericRecord struct {
	typ    *schema.RecordType
	values map[string]interface{}
}

// Type returns the record type this record was built against.
func (r *GenericRecord) Type() *schema.RecordType {
	return r.typ
}

// Get returns the value at the given field position, or nil when the
// position is out of range or the field was never set.
func (r *GenericRecord) Get(pos int) interface{} {
	if pos < 0 || pos >= r.typ.Len() {
		return nil
	}
	return r.values[r.typ.FieldAt(pos).Name]
}

// Value returns the named field's value and whether it was set.
func (r *GenericRecord) Value(name string) (interface{}, bool) {
	v, ok := r.values[name]
	return v, ok
}

// structRecord adapts a Go struct value to the IndexedRecord contract using
// the record type's field names. Struct primitives can never be absent, so
// Get returns nil only for nil-able kinds that are actually nil.
type structRecord struct {
	typ *schema.RecordType
	val reflect.Value
}

func (r structRecord) Type() *schema.RecordType {
	return r.typ
}

func (r structRecord) Get(pos int) interface{} {
	if pos < 0 || pos >= r.typ.Len() {
		return nil
	}
	idx, ok := structFieldIndex(r.val.Type(), r.typ.FieldAt(pos).Name)
	if !ok {
		return nil
	}
	fv := r.val.FieldByIndex(idx)
	switch fv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		if fv.IsNil() {
			return nil
		}
	}
	return fv.Interface()
}

// asIndexedRecord views an arbitrary entity value through the IndexedRecord
// contract: dynamic records pass through, struct values and struct pointers
// are wrapped.
func asIndexedRecord(v interface{}, rt *schema.RecordType) (IndexedRecord, error) {
	if ir, ok := v.(IndexedRecord); ok {
		return ir, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"nil entity for record type %s", rt.Name)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"value of type %T cannot be read as record %s", v, rt.Name)
	}
	return structRecord{typ: rt, val: rv}, nil
}

// structIndexCache caches logical-name to struct-field resolutions per Go
// type. Resolution order: `avro` tag, exact name, case-insensitive name.
var structIndexCache sync.Map // reflect.Type -> map[string][]int

func structFieldIndex(t reflect.Type, name string) ([]int, bool) {
	var index map[string][]int
	if cached, ok := structIndexCache.Load(t); ok {
		index = cached.(map[string][]int)
	} else {
		index = buildStructIndex(t)
		structIndexCache.Store(t, index)
	}

	if idx, ok := index[name]; ok {
		return idx, true
	}
	idx, ok := index[strings.ToLower(name)]
	return idx, ok
}

func buildStructIndex(t reflect.Type) map[string][]int {
	index := make(map[string][]int)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue // unexported
		}
		if tag, ok := sf.Tag.Lookup("avro"); ok && tag != "" {
			index[tagName(tag)] = sf.Index
			continue
		}
		if _, taken := index[sf.Name]; !taken {
			index[sf.Name] = sf.Index
		}
		lower := strings.ToLower(sf.Name)
		if _, taken := index[lower]; !taken {
			index[lower] = sf.Index
		}
	}
	return index
}

func tagName(tag string) string {
	if i := strings.IndexByte(tag, ','); i >= 0 {
		return tag[:i]
	}
	return tag
}
