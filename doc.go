// Package kite maps schema-described logical entities onto a column-oriented
// storage layout and back.
//
// An entity schema classifies every field as part of the composite row key
// (with an explicit ordinal), as a single stored column, or as a keyAsColumn
// field whose map entries or nested record fields are spread across many
// individually named columns.
//
// # Architecture
//
// The module is organized bottom-up:
//
//   - pkg/schema parses Avro record schemas carrying per-field mapping
//     annotations into immutable EntitySchema values.
//
//   - pkg/entity holds the composition core: the Composer assembles and
//     decomposes entities, record builders accumulate named field values,
//     and builder factories produce builders for either a dynamic record
//     representation or a registered Go struct type.
//
//   - pkg/columnar is an in-memory column table addressed by encoded row
//     keys, with typed columns and per-column presence tracking.
//
//   - pkg/dataset binds a schema, a composer and a column table into a
//     put/get path that writes key parts, single columns and spread columns,
//     and reconstructs entities on read.
//
// # Quick Start
//
//	es, err := schema.Parse(schemaJSON)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	composer, err := entity.NewComposer(es, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	e, err := composer.Builder().
//	    Put("region", "us").
//	    Put("id", int64(42)).
//	    Build()
package kite
