package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eljefe6a/kite/pkg/errors"
	"github.com/eljefe6a/kite/pkg/schema"
)

type specificUser struct {
	ID      int64 `avro:"id"`
	Region  string
	Email   string
	Visits  int32
	Active  bool
	Score   float32
	Balance float64
	Tags    map[string]int64
	Address *specificAddress
}

type specificAddress struct {
	City string
	Zip  string
}

func newSpecificComposer(t *testing.T) *Composer {
	t.Helper()
	registry := NewTypeRegistry()
	require.NoError(t, registry.Register("example.User", specificUser{}))
	require.NoError(t, registry.Register("example.Address", specificAddress{}))

	es, err := schema.Parse(userSchema)
	require.NoError(t, err)
	c, err := NewComposerWithResolver(es, true, registry)
	require.NoError(t, err)
	return c
}

func TestSpecificBuilderProducesStruct(t *testing.T) {
	c := newSpecificComposer(t)

	e, err := c.Builder().
		Put("region", "eu").
		Put("id", int64(7)).
		Put("email", "e@example.com").
		Put("visits", int32(3)).
		Build()
	require.NoError(t, err)

	user, ok := e.(*specificUser)
	require.True(t, ok)
	assert.Equal(t, "eu", user.Region)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "e@example.com", user.Email)
	assert.Equal(t, int32(3), user.Visits)
}

func TestSpecificPartitionKeyParts(t *testing.T) {
	c := newSpecificComposer(t)

	parts, err := c.PartitionKeyParts(&specificUser{Region: "eu", ID: 7})
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "eu", parts[0])
	assert.Equal(t, int64(7), parts[1])
}

func TestSpecificPrimitivesAreNeverAbsent(t *testing.T) {
	c := newSpecificComposer(t)

	// a zero-valued struct reads back exactly like an empty dynamic record
	e := &specificUser{}
	for field, want := range map[string]interface{}{
		"visits":  int32(0),
		"id":      int64(0),
		"active":  false,
		"score":   float32(0),
		"balance": float64(0),
	} {
		got, err := c.ExtractField(e, field)
		require.NoError(t, err, field)
		assert.Equal(t, want, got, field)
	}

	tags, err := c.ExtractField(e, "tags")
	require.NoError(t, err)
	assert.Nil(t, tags)

	address, err := c.ExtractField(e, "address")
	require.NoError(t, err)
	assert.Nil(t, address)
}

func TestSpecificKeyAsColumnRecordRoundTrip(t *testing.T) {
	c := newSpecificComposer(t)

	built, err := c.BuildKeyAsColumnField("address", map[string]interface{}{
		"city": "Lisbon",
		"zip":  "1100",
	})
	require.NoError(t, err)

	address, ok := built.(*specificAddress)
	require.True(t, ok)
	assert.Equal(t, "Lisbon", address.City)
	assert.Equal(t, "1100", address.Zip)

	values, err := c.ExtractKeyAsColumnValues("address", address)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"city": "Lisbon", "zip": "1100"}, values)
}

func TestSpecificKeyAsColumnMap(t *testing.T) {
	c := newSpecificComposer(t)

	user := &specificUser{Tags: map[string]int64{"a": 1, "b": 2}}
	values, err := c.ExtractKeyAsColumnValues("tags", user.Tags)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"a": int64(1), "b": int64(2)}, values)
}

func TestSpecificBuilderAssignsTypedMap(t *testing.T) {
	c := newSpecificComposer(t)

	e, err := c.Builder().
		Put("tags", map[string]interface{}{"a": int64(1)}).
		Build()
	require.NoError(t, err)

	user := e.(*specificUser)
	assert.Equal(t, map[string]int64{"a": 1}, user.Tags)
}

func TestSpecificUnresolvableTypeAbortsConstruction(t *testing.T) {
	es, err := schema.Parse(`{
	  "type": "record", "name": "ghost.Unknown",
	  "fields": [{"name": "k", "type": "string", "mapping": {"type": "key", "value": "0"}}]
	}`)
	require.NoError(t, err)

	_, err = NewComposerWithResolver(es, true, NewTypeRegistry())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSpecificMissingStructFieldIsConfigError(t *testing.T) {
	registry := NewTypeRegistry()
	type incomplete struct {
		K string
	}
	require.NoError(t, registry.Register("example.Incomplete", incomplete{}))

	es, err := schema.Parse(`{
	  "type": "record", "name": "example.Incomplete",
	  "fields": [
	    {"name": "k", "type": "string", "mapping": {"type": "key", "value": "0"}},
	    {"name": "missing", "type": "string", "mapping": {"type": "column", "value": "c.m"}}
	  ]
	}`)
	require.NoError(t, err)

	_, err = NewComposerWithResolver(es, true, registry)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestSpecificAssignmentTypeMismatch(t *testing.T) {
	c := newSpecificComposer(t)

	_, err := c.Builder().
		Put("email", 12345).
		Build()
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestRegistryRejectsNonStruct(t *testing.T) {
	registry := NewTypeRegistry()
	err := registry.Register("bad", 42)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestRegistryRejectsConflictingRegistration(t *testing.T) {
	registry := NewTypeRegistry()
	require.NoError(t, registry.Register("example.Dup", specificUser{}))
	// same type again is fine
	require.NoError(t, registry.Register("example.Dup", &specificUser{}))
	// a different type is not
	err := registry.Register("example.Dup", specificAddress{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestResolveUnknownName(t *testing.T) {
	registry := NewTypeRegistry()
	_, err := registry.Resolve("never.Registered")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
