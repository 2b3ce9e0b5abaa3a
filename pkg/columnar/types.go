// Package columnar provides an in-memory column table addressed by row keys,
// with typed columns and per-column presence tracking.
package columnar

import (
	"fmt"
)

// ColumnType represents the data type of a column
type ColumnType int

const (
	ColumnTypeString ColumnType = iota
	ColumnTypeInt
	ColumnTypeLong
	ColumnTypeFloat
	ColumnTypeDouble
	ColumnTypeBool
	ColumnTypeBytes
)

func (t ColumnType) String() string {
	switch t {
	case ColumnTypeString:
		return "string"
	case ColumnTypeInt:
		return "int"
	case ColumnTypeLong:
		return "long"
	case ColumnTypeFloat:
		return "float"
	case ColumnTypeDouble:
		return "double"
	case ColumnTypeBool:
		return "bool"
	case ColumnTypeBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Column is the base interface for all column types. Get reports false for
// positions holding no value.
type Column interface {
	Type() ColumnType
	Len() int
	Get(i int) (interface{}, bool)
	Append(value interface{}) error
	AppendNull()
	// Truncate discards values at positions >= n.
	Truncate(n int)
	Clear()
	MemoryUsage() int64
}

// presence is a bit-packed validity mask: 64 positions per uint64.
type presence struct {
	bits []uint64
}

func (p *presence) set(i int) {
	word := i / 64
	for word >= len(p.bits) {
		p.bits = append(p.bits, 0)
	}
	p.bits[word] |= 1 << (i % 64)
}

func (p *presence) get(i int) bool {
	word := i / 64
	if word >= len(p.bits) {
		return false
	}
	return p.bits[word]&(1<<(i%64)) != 0
}

func (p *presence) clear() {
	p.bits = p.bits[:0]
}

// truncate clears validity for positions >= n.
func (p *presence) truncate(n int) {
	words := (n + 63) / 64
	if words > len(p.bits) {
		return
	}
	p.bits = p.bits[:words]
	if words > 0 && n%64 != 0 {
		p.bits[words-1] &= (1 << (n % 64)) - 1
	}
}

// scalarColumn stores values of one element type with a validity mask.
// Absent positions keep the zero value and are masked out.
type scalarColumn[T any] struct {
	kind     ColumnType
	values   []T
	valid    presence
	convert  func(interface{}) (T, error)
	elemSize int64
}

func (c *scalarColumn[T]) Type() ColumnType { return c.kind }
func (c *scalarColumn[T]) Len() int         { return len(c.values) }

func (c *scalarColumn[T]) Get(i int) (interface{}, bool) {
	if i < 0 || i >= len(c.values) || !c.valid.get(i) {
		return nil, false
	}
	return c.values[i], true
}

func (c *scalarColumn[T]) Append(value interface{}) error {
	v, err := c.convert(value)
	if err != nil {
		return err
	}
	c.valid.set(len(c.values))
	c.values = append(c.values, v)
	return nil
}

func (c *scalarColumn[T]) AppendNull() {
	var zero T
	c.values = append(c.values, zero)
}

func (c *scalarColumn[T]) Truncate(n int) {
	if n < 0 || n >= len(c.values) {
		return
	}
	c.values = c.values[:n]
	c.valid.truncate(n)
}

func (c *scalarColumn[T]) Clear() {
	c.values = c.values[:0]
	c.valid.clear()
}

func (c *scalarColumn[T]) MemoryUsage() int64 {
	return int64(len(c.values))*c.elemSize + int64(len(c.valid.bits)*8)
}

// NewStringColumn creates a new string column
func NewStringColumn() Column {
	return &scalarColumn[string]{
		kind:     ColumnTypeString,
		elemSize: 16,
		convert: func(v interface{}) (string, error) {
			s, ok := v.(string)
			if !ok {
				return "", fmt.Errorf("expected string, got %T", v)
			}
			return s, nil
		},
	}
}

// NewIntColumn creates a new 32-bit integer column
func NewIntColumn() Column {
	return &scalarColumn[int32]{
		kind:     ColumnTypeInt,
		elemSize: 4,
		convert: func(v interface{}) (int32, error) {
			switch n := v.(type) {
			case int32:
				return n, nil
			case int:
				return int32(n), nil
			default:
				return 0, fmt.Errorf("expected int, got %T", v)
			}
		},
	}
}

// NewLongColumn creates a new 64-bit integer column
func NewLongColumn() Column {
	return &scalarColumn[int64]{
		kind:     ColumnTypeLong,
		elemSize: 8,
		convert: func(v interface{}) (int64, error) {
			switch n := v.(type) {
			case int64:
				return n, nil
			case int:
				return int64(n), nil
			case int32:
				return int64(n), nil
			default:
				return 0, fmt.Errorf("expected long, got %T", v)
			}
		},
	}
}

// NewFloatColumn creates a new single-precision float column
func NewFloatColumn() Column {
	return &scalarColumn[float32]{
		kind:     ColumnTypeFloat,
		elemSize: 4,
		convert: func(v interface{}) (float32, error) {
			f, ok := v.(float32)
			if !ok {
				return 0, fmt.Errorf("expected float, got %T", v)
			}
			return f, nil
		},
	}
}

// NewDoubleColumn creates a new double-precision float column
func NewDoubleColumn() Column {
	return &scalarColumn[float64]{
		kind:     ColumnTypeDouble,
		elemSize: 8,
		convert: func(v interface{}) (float64, error) {
			switch f := v.(type) {
			case float64:
				return f, nil
			case float32:
				return float64(f), nil
			default:
				return 0, fmt.Errorf("expected double, got %T", v)
			}
		},
	}
}

// NewBoolColumn creates a new boolean column
func NewBoolColumn() Column {
	return &scalarColumn[bool]{
		kind:     ColumnTypeBool,
		elemSize: 1,
		convert: func(v interface{}) (bool, error) {
			b, ok := v.(bool)
			if !ok {
				return false, fmt.Errorf("expected bool, got %T", v)
			}
			return b, nil
		},
	}
}

// NewBytesColumn creates a new byte-slice column. Appended slices are copied
// so callers may reuse their buffers.
func NewBytesColumn() Column {
	return &scalarColumn[[]byte]{
		kind:     ColumnTypeBytes,
		elemSize: 24,
		convert: func(v interface{}) ([]byte, error) {
			b, ok := v.([]byte)
			if !ok {
				return nil, fmt.Errorf("expected bytes, got %T", v)
			}
			out := make([]byte, len(b))
			copy(out, b)
			return out, nil
		},
	}
}
