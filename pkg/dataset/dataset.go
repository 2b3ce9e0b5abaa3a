// Package dataset binds an entity schema, a composer and a column table
// into a put/get path: entities decompose into a row key, single columns
// and spread columns on write, and are reassembled on read.
package dataset

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eljefe6a/kite/pkg/columnar"
	"github.com/eljefe6a/kite/pkg/entity"
	"github.com/eljefe6a/kite/pkg/errors"
	"github.com/eljefe6a/kite/pkg/logger"
	"github.com/eljefe6a/kite/pkg/metrics"
	"github.com/eljefe6a/kite/pkg/schema"
)

// keyAsColumnSeparator joins a spread field's name with the entry name to
// form the stored column identifier.
const keyAsColumnSeparator = "."

// Dataset is a column-store backed collection of entities of one schema.
type Dataset struct {
	name     string
	schema   *schema.EntitySchema
	composer *entity.Composer
	table    *columnar.Table
	log      *zap.Logger
	metrics  *metrics.Collector
	// columnIDs holds the identifiers claimed by column mappings, so the
	// keyAsColumn prefix scan never misattributes them to a spread field.
	columnIDs map[string]struct{}
}

// New creates a dataset for the given schema. When specific is true,
// entities are registered Go struct types; otherwise dynamic records.
func New(name string, es *schema.EntitySchema, specific bool, log *zap.Logger) (*Dataset, error) {
	composer, err := entity.NewComposer(es, specific)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Get()
	}
	columnIDs := make(map[string]struct{})
	for _, fm := range es.FieldMappings() {
		if fm.Type == schema.MappingColumn {
			columnIDs[fm.Value] = struct{}{}
		}
	}
	return &Dataset{
		name:      name,
		schema:    es,
		composer:  composer,
		table:     columnar.NewTable(),
		log:       log.With(zap.String("dataset", name)),
		metrics:   metrics.Default(),
		columnIDs: columnIDs,
	}, nil
}

// Composer returns the dataset's entity composer.
func (d *Dataset) Composer() *entity.Composer {
	return d.composer
}

// Put decomposes an entity and writes it under its composite key. The
// encoded row key is returned.
func (d *Dataset) Put(e interface{}) (string, error) {
	start := time.Now()
	parts, err := d.composer.PartitionKeyParts(e)
	if err != nil {
		return "", err
	}
	rowKey, err := EncodeRowKey(parts)
	if err != nil {
		return "", err
	}

	values := make(map[string]interface{})
	for _, fm := range d.schema.FieldMappings() {
		switch fm.Type {
		case schema.MappingKey:
			// carried by the row key

		case schema.MappingColumn:
			v, err := d.composer.ExtractField(e, fm.FieldName)
			if err != nil {
				return "", err
			}
			if v != nil {
				values[fm.Value] = v
			}

		case schema.MappingKeyAsColumn:
			v, err := d.composer.ExtractField(e, fm.FieldName)
			if err != nil {
				return "", err
			}
			if v == nil {
				continue
			}
			kac, err := d.composer.ExtractKeyAsColumnValues(fm.FieldName, v)
			if err != nil {
				return "", err
			}
			for k, kv := range kac {
				if kv != nil {
					values[fm.FieldName+keyAsColumnSeparator+k] = kv
				}
			}
		}
	}

	if err := d.table.Put(rowKey, values); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeData, "failed to write entity row")
	}

	d.metrics.RecordWrite(d.name, time.Since(start))
	d.metrics.SetTableMemory(d.name, d.table.MemoryUsage())
	d.log.Debug("entity written",
		zap.String("row_key", rowKey),
		zap.Int("columns", len(values)))
	return rowKey, nil
}

// Get reassembles the entity stored under the given key parts. Parts must
// be supplied in ordinal order with the types the schema declares.
func (d *Dataset) Get(keyParts ...interface{}) (interface{}, error) {
	start := time.Now()
	if len(keyParts) != d.schema.KeyFieldCount() {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"expected %d key parts, got %d", d.schema.KeyFieldCount(), len(keyParts))
	}
	rowKey, err := EncodeRowKey(keyParts)
	if err != nil {
		return nil, err
	}

	row, ok := d.table.Get(rowKey)
	if !ok {
		d.metrics.RecordRead(d.name, false, time.Since(start))
		return nil, errors.Newf(errors.ErrorTypeNotFound,
			"no entity stored under row key %q", rowKey)
	}

	b := d.composer.Builder()
	for _, fm := range d.schema.FieldMappings() {
		switch fm.Type {
		case schema.MappingKey:
			b.Put(fm.FieldName, keyParts[fm.Ordinal])

		case schema.MappingColumn:
			if v, present := row[fm.Value]; present {
				b.Put(fm.FieldName, v)
			}

		case schema.MappingKeyAsColumn:
			prefix := fm.FieldName + keyAsColumnSeparator
			sub := make(map[string]interface{})
			for col, v := range row {
				if _, claimed := d.columnIDs[col]; claimed {
					continue
				}
				if strings.HasPrefix(col, prefix) {
					sub[col[len(prefix):]] = v
				}
			}
			if len(sub) == 0 {
				continue
			}
			fv, err := d.composer.BuildKeyAsColumnField(fm.FieldName, sub)
			if err != nil {
				return nil, err
			}
			b.Put(fm.FieldName, fv)
		}
	}

	e, err := b.Build()
	if err != nil {
		return nil, err
	}

	d.metrics.RecordRead(d.name, true, time.Since(start))
	d.log.Debug("entity read", zap.String("row_key", rowKey))
	return e, nil
}

// Exists reports whether an entity is stored under the given key parts.
func (d *Dataset) Exists(keyParts ...interface{}) (bool, error) {
	rowKey, err := EncodeRowKey(keyParts)
	if err != nil {
		return false, err
	}
	return d.table.Contains(rowKey), nil
}

// Count returns the number of stored entities.
func (d *Dataset) Count() int {
	return d.table.RowCount()
}

// Name returns the dataset name.
func (d *Dataset) Name() string {
	return d.name
}

// MemoryUsage returns the approximate in-memory size of the backing table.
func (d *Dataset) MemoryUsage() int64 {
	return d.table.MemoryUsage()
}
