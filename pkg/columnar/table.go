package columnar

import (
	"fmt"
	"sync"
)

// Table stores rows addressed by row key in columnar form. Columns are
// created on first use with a type inferred from the first value; later
// values must match. Writing a row key again shadows the earlier row.
//
// Table is safe for concurrent use.
type Table struct {
	mu       sync.RWMutex
	columns  map[string]Column
	rowKeys  []string
	rowIndex map[string]int
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{
		columns:  make(map[string]Column),
		rowIndex: make(map[string]int),
	}
}

// createColumn creates a new column of the specified type
func createColumn(colType ColumnType) Column {
	switch colType {
	case ColumnTypeString:
		return NewStringColumn()
	case ColumnTypeInt:
		return NewIntColumn()
	case ColumnTypeLong:
		return NewLongColumn()
	case ColumnTypeFloat:
		return NewFloatColumn()
	case ColumnTypeDouble:
		return NewDoubleColumn()
	case ColumnTypeBool:
		return NewBoolColumn()
	case ColumnTypeBytes:
		return NewBytesColumn()
	default:
		return NewStringColumn()
	}
}

// inferColumnType determines the column type for a value
func inferColumnType(value interface{}) (ColumnType, error) {
	switch value.(type) {
	case string:
		return ColumnTypeString, nil
	case int32:
		return ColumnTypeInt, nil
	case int, int64:
		return ColumnTypeLong, nil
	case float32:
		return ColumnTypeFloat, nil
	case float64:
		return ColumnTypeDouble, nil
	case bool:
		return ColumnTypeBool, nil
	case []byte:
		return ColumnTypeBytes, nil
	default:
		return ColumnTypeString, fmt.Errorf("no column type for value of type %T", value)
	}
}

// Put writes one row under the given row key. Nil values are skipped;
// columns the row does not mention receive nulls. Put is all-or-nothing: a
// rejected value leaves every column at its prior length, so earlier rows
// never shift position.
func (t *Table) Put(rowKey string, values map[string]interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rowPos := len(t.rowKeys)

	// Auto-create columns, backfilling nulls for existing rows
	for name, value := range values {
		if value == nil {
			continue
		}
		if _, exists := t.columns[name]; exists {
			continue
		}
		colType, err := inferColumnType(value)
		if err != nil {
			return fmt.Errorf("column %q: %w", name, err)
		}
		col := createColumn(colType)
		for i := 0; i < rowPos; i++ {
			col.AppendNull()
		}
		t.columns[name] = col
	}

	for name, col := range t.columns {
		value, exists := values[name]
		if !exists || value == nil {
			col.AppendNull()
			continue
		}
		if err := col.Append(value); err != nil {
			// roll back columns already appended for this row
			for _, c := range t.columns {
				c.Truncate(rowPos)
			}
			return fmt.Errorf("error appending to column %q: %w", name, err)
		}
	}

	t.rowKeys = append(t.rowKeys, rowKey)
	t.rowIndex[rowKey] = rowPos
	return nil
}

// Get returns the present column values of the row stored under the key.
func (t *Table) Get(rowKey string) (map[string]interface{}, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pos, exists := t.rowIndex[rowKey]
	if !exists {
		return nil, false
	}

	row := make(map[string]interface{})
	for name, col := range t.columns {
		if v, ok := col.Get(pos); ok {
			row[name] = v
		}
	}
	return row, true
}

// Contains reports whether a row is stored under the key.
func (t *Table) Contains(rowKey string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, exists := t.rowIndex[rowKey]
	return exists
}

// RowCount returns the number of addressable rows
func (t *Table) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rowIndex)
}

// ColumnCount returns the number of columns
func (t *Table) ColumnCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.columns)
}

// ColumnNames returns all column names
func (t *Table) ColumnNames() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.columns))
	for name := range t.columns {
		names = append(names, name)
	}
	return names
}

// MemoryUsage returns total memory usage in bytes
func (t *Table) MemoryUsage() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total int64
	for name, col := range t.columns {
		total += int64(len(name))
		total += col.MemoryUsage()
	}
	for _, k := range t.rowKeys {
		total += int64(len(k)) + 16
	}
	return total
}

// Clear removes all data from the table
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, col := range t.columns {
		col.Clear()
	}
	t.rowKeys = t.rowKeys[:0]
	t.rowIndex = make(map[string]int)
}

// Iterator provides sequential access to live rows
type Iterator struct {
	table *Table
	keys  []string
	index int
}

// NewIterator creates an iterator over the table's current row keys.
// Rewritten keys appear once, in first-write order.
func (t *Table) NewIterator() *Iterator {
	t.mu.RLock()
	seen := make(map[string]struct{}, len(t.rowIndex))
	keys := make([]string, 0, len(t.rowIndex))
	for _, k := range t.rowKeys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	t.mu.RUnlock()
	return &Iterator{table: t, keys: keys, index: -1}
}

// Next advances to the next row
func (it *Iterator) Next() bool {
	it.index++
	return it.index < len(it.keys)
}

// Key returns the current row key
func (it *Iterator) Key() string {
	return it.keys[it.index]
}

// Row returns the current row's present values
func (it *Iterator) Row() map[string]interface{} {
	row, _ := it.table.Get(it.keys[it.index])
	return row
}
