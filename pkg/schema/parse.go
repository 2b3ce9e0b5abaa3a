package schema

import (
	"strconv"

	"github.com/linkedin/goavro/v2"

	"github.com/eljefe6a/kite/pkg/errors"
	"github.com/eljefe6a/kite/pkg/json"
)

// Parse parses and validates an entity schema from Avro schema JSON.
// The schema must be a record type, every top-level field must carry a
// mapping annotation, and key ordinals must be dense starting at zero.
func Parse(schemaJSON string) (*EntitySchema, error) {
	// goavro validates Avro legality; mapping attributes are extra field
	// attributes which Avro permits and goavro ignores.
	if _, err := goavro.NewCodec(schemaJSON); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "invalid Avro schema")
	}

	var root map[string]interface{}
	if err := json.Unmarshal([]byte(schemaJSON), &root); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValidation, "schema is not a JSON object")
	}

	if t, _ := root["type"].(string); t != "record" {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"entity schema must be a record type, got %q", t)
	}

	record, err := parseRecord(root, "")
	if err != nil {
		return nil, err
	}

	mappings := make([]*FieldMapping, 0, len(record.Fields))
	keyCount := 0
	for i := range record.Fields {
		f := &record.Fields[i]
		if f.Mapping == nil {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"field %q has no mapping annotation", f.Name)
		}
		mappings = append(mappings, f.Mapping)
		if f.Mapping.Type == MappingKey {
			keyCount++
		}
	}

	if err := validateKeyOrdinals(mappings); err != nil {
		return nil, err
	}

	return &EntitySchema{
		raw:         schemaJSON,
		record:      record,
		mappings:    mappings,
		keyCount:    keyCount,
		fingerprint: fieldFingerprint(record),
	}, nil
}

// parseRecord parses a record type declaration. The namespace of the
// enclosing type is applied when the record's own name is unqualified.
func parseRecord(decl map[string]interface{}, namespace string) (*RecordType, error) {
	name, _ := decl["name"].(string)
	if name == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "record type has no name")
	}
	if ns, _ := decl["namespace"].(string); ns != "" {
		namespace = ns
	}
	fullName := name
	if namespace != "" && !containsDot(name) {
		fullName = namespace + "." + name
	}

	rawFields, ok := decl["fields"].([]interface{})
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeValidation, "record %q has no fields list", fullName)
	}

	rt := &RecordType{
		Name:   fullName,
		Fields: make([]Field, 0, len(rawFields)),
		index:  make(map[string]int, len(rawFields)),
	}

	for pos, rf := range rawFields {
		fieldDecl, ok := rf.(map[string]interface{})
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"record %q field %d is not an object", fullName, pos)
		}
		fieldName, _ := fieldDecl["name"].(string)
		if fieldName == "" {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"record %q field %d has no name", fullName, pos)
		}
		if _, dup := rt.index[fieldName]; dup {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"record %q declares field %q more than once", fullName, fieldName)
		}

		vt, err := parseType(fieldDecl["type"], namespace)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation,
				"field "+fieldName+" has an unusable type")
		}

		fm, err := parseMapping(fieldName, fieldDecl["mapping"])
		if err != nil {
			return nil, err
		}

		rt.index[fieldName] = len(rt.Fields)
		rt.Fields = append(rt.Fields, Field{
			Name:    fieldName,
			Pos:     pos,
			Type:    vt,
			Mapping: fm,
		})
	}

	return rt, nil
}

// parseType parses a field type declaration: a primitive name, a map or
// record object, or a two-branch union with null.
func parseType(decl interface{}, namespace string) (*ValueType, error) {
	switch t := decl.(type) {
	case string:
		kind, ok := primitiveKind(t)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported type %q", t)
		}
		return &ValueType{Kind: kind}, nil

	case map[string]interface{}:
		typeName, _ := t["type"].(string)
		switch typeName {
		case "map":
			values, err := parseType(t["values"], namespace)
			if err != nil {
				return nil, err
			}
			return &ValueType{Kind: KindMap, Values: values}, nil
		case "record":
			record, err := parseRecord(t, namespace)
			if err != nil {
				return nil, err
			}
			return &ValueType{Kind: KindRecord, Record: record}, nil
		default:
			return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported complex type %q", typeName)
		}

	case []interface{}:
		// Unions are supported only in the ["null", T] optional-field form.
		if len(t) != 2 {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"unions must have exactly two branches, got %d", len(t))
		}
		var branch interface{}
		nulls := 0
		for _, b := range t {
			if s, ok := b.(string); ok && s == "null" {
				nulls++
				continue
			}
			branch = b
		}
		if nulls != 1 {
			return nil, errors.New(errors.ErrorTypeValidation,
				"unions must pair null with exactly one concrete type")
		}
		vt, err := parseType(branch, namespace)
		if err != nil {
			return nil, err
		}
		vt.Nullable = true
		return vt, nil

	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported type declaration %T", decl)
	}
}

// parseMapping parses a field's mapping annotation. Returns nil when the
// field has none; only top-level fields are required to have one, and the
// caller enforces that.
func parseMapping(fieldName string, decl interface{}) (*FieldMapping, error) {
	if decl == nil {
		return nil, nil
	}
	m, ok := decl.(map[string]interface{})
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"field %q mapping must be an object", fieldName)
	}

	mappingType, _ := m["type"].(string)
	value, _ := m["value"].(string)

	fm := &FieldMapping{
		FieldName: fieldName,
		Type:      MappingType(mappingType),
		Value:     value,
	}

	switch fm.Type {
	case MappingKey:
		ordinal, err := strconv.Atoi(value)
		if err != nil || ordinal < 0 {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"field %q key mapping value %q is not a non-negative integer", fieldName, value)
		}
		fm.Ordinal = ordinal
	case MappingColumn:
		if value == "" {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"field %q column mapping has no column name", fieldName)
		}
	case MappingKeyAsColumn:
		// mapping value is unused for keyAsColumn fields
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"field %q has unknown mapping type %q", fieldName, mappingType)
	}

	return fm, nil
}

func primitiveKind(name string) (Kind, bool) {
	switch name {
	case "null":
		return KindNull, true
	case "boolean":
		return KindBoolean, true
	case "int":
		return KindInt, true
	case "long":
		return KindLong, true
	case "float":
		return KindFloat, true
	case "double":
		return KindDouble, true
	case "bytes":
		return KindBytes, true
	case "string":
		return KindString, true
	default:
		return KindNull, false
	}
}

func containsDot(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return true
		}
	}
	return false
}
