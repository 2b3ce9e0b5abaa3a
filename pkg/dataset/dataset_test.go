package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eljefe6a/kite/pkg/entity"
	"github.com/eljefe6a/kite/pkg/errors"
	"github.com/eljefe6a/kite/pkg/testutil"
)

const userSchema = `{
  "type": "record",
  "name": "User",
  "namespace": "store",
  "fields": [
    {"name": "id", "type": "long", "mapping": {"type": "key", "value": "1"}},
    {"name": "region", "type": "string", "mapping": {"type": "key", "value": "0"}},
    {"name": "email", "type": "string", "mapping": {"type": "column", "value": "meta.email"}},
    {"name": "visits", "type": "int", "mapping": {"type": "column", "value": "meta.visits"}},
    {"name": "tags", "type": {"type": "map", "values": "string"},
     "mapping": {"type": "keyAsColumn"}},
    {"name": "address",
     "type": {"type": "record", "name": "Address", "fields": [
       {"name": "city", "type": "string"},
       {"name": "zip", "type": "string"}
     ]},
     "mapping": {"type": "keyAsColumn"}}
  ]
}`

type storeUser struct {
	ID      int64
	Region  string
	Email   string
	Visits  int32
	Tags    map[string]string
	Address *storeAddress
}

type storeAddress struct {
	City string
	Zip  string
}

func newGenericDataset(t *testing.T) *Dataset {
	t.Helper()
	es := testutil.MustParseSchema(t, userSchema)
	ds, err := New("users", es, false, testutil.TestLogger(t))
	require.NoError(t, err)
	return ds
}

func putGenericUser(t *testing.T, ds *Dataset) string {
	t.Helper()
	e, err := ds.Composer().Builder().
		Put("region", "us").
		Put("id", int64(42)).
		Put("email", "a@example.com").
		Put("visits", int32(9)).
		Put("tags", map[string]interface{}{"plan": "pro", "tier": "gold"}).
		Put("address", mustBuildAddress(t, ds, "Lisbon", "1100")).
		Build()
	require.NoError(t, err)

	rowKey, err := ds.Put(e)
	require.NoError(t, err)
	return rowKey
}

func mustBuildAddress(t *testing.T, ds *Dataset, city, zip string) interface{} {
	t.Helper()
	a, err := ds.Composer().BuildKeyAsColumnField("address", map[string]interface{}{
		"city": city, "zip": zip,
	})
	require.NoError(t, err)
	return a
}

func TestDatasetGenericRoundTrip(t *testing.T) {
	ds := newGenericDataset(t)
	putGenericUser(t, ds)

	e, err := ds.Get("us", int64(42))
	require.NoError(t, err)

	rec, ok := e.(*entity.GenericRecord)
	require.True(t, ok)

	for field, want := range map[string]interface{}{
		"region": "us",
		"id":     int64(42),
		"email":  "a@example.com",
		"visits": int32(9),
	} {
		got, present := rec.Value(field)
		require.True(t, present, field)
		assert.Equal(t, want, got, field)
	}

	tags, present := rec.Value("tags")
	require.True(t, present)
	assert.Equal(t, map[string]interface{}{"plan": "pro", "tier": "gold"}, tags)

	address, present := rec.Value("address")
	require.True(t, present)
	addrRec, ok := address.(*entity.GenericRecord)
	require.True(t, ok)
	city, _ := addrRec.Value("city")
	assert.Equal(t, "Lisbon", city)
}

func TestDatasetGetNotFound(t *testing.T) {
	ds := newGenericDataset(t)

	_, err := ds.Get("us", int64(404))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestDatasetGetKeyPartCountMismatch(t *testing.T) {
	ds := newGenericDataset(t)

	_, err := ds.Get("us")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestDatasetExistsAndCount(t *testing.T) {
	ds := newGenericDataset(t)
	assert.Equal(t, 0, ds.Count())

	putGenericUser(t, ds)
	assert.Equal(t, 1, ds.Count())

	ok, err := ds.Exists("us", int64(42))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ds.Exists("eu", int64(42))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDatasetPutRewriteShadows(t *testing.T) {
	ds := newGenericDataset(t)
	putGenericUser(t, ds)

	e, err := ds.Composer().Builder().
		Put("region", "us").
		Put("id", int64(42)).
		Put("email", "new@example.com").
		Build()
	require.NoError(t, err)
	_, err = ds.Put(e)
	require.NoError(t, err)

	assert.Equal(t, 1, ds.Count())

	got, err := ds.Get("us", int64(42))
	require.NoError(t, err)
	email, _ := got.(*entity.GenericRecord).Value("email")
	assert.Equal(t, "new@example.com", email)
}

func TestDatasetAbsentFieldsStayAbsent(t *testing.T) {
	ds := newGenericDataset(t)

	e, err := ds.Composer().Builder().
		Put("region", "eu").
		Put("id", int64(1)).
		Build()
	require.NoError(t, err)
	_, err = ds.Put(e)
	require.NoError(t, err)

	got, err := ds.Get("eu", int64(1))
	require.NoError(t, err)

	rec := got.(*entity.GenericRecord)
	_, present := rec.Value("email")
	assert.False(t, present)
	_, present = rec.Value("tags")
	assert.False(t, present)
	_, present = rec.Value("address")
	assert.False(t, present)
}

func TestDatasetSpecificRoundTrip(t *testing.T) {
	require.NoError(t, entity.Register("store.User", storeUser{}))
	require.NoError(t, entity.Register("store.Address", storeAddress{}))

	es := testutil.MustParseSchema(t, userSchema)
	ds, err := New("users-specific", es, true, testutil.TestLogger(t))
	require.NoError(t, err)

	in := &storeUser{
		ID:      int64(7),
		Region:  "eu",
		Email:   "e@example.com",
		Visits:  3,
		Tags:    map[string]string{"plan": "free"},
		Address: &storeAddress{City: "Porto", Zip: "4000"},
	}
	_, err = ds.Put(in)
	require.NoError(t, err)

	out, err := ds.Get("eu", int64(7))
	require.NoError(t, err)

	user, ok := out.(*storeUser)
	require.True(t, ok)
	assert.Equal(t, in.ID, user.ID)
	assert.Equal(t, in.Region, user.Region)
	assert.Equal(t, in.Email, user.Email)
	assert.Equal(t, in.Visits, user.Visits)
	assert.Equal(t, in.Tags, user.Tags)
	require.NotNil(t, user.Address)
	assert.Equal(t, "Porto", user.Address.City)
	assert.Equal(t, "4000", user.Address.Zip)
}

func TestDatasetColumnMappingNotAbsorbedBySpreadField(t *testing.T) {
	// spread field "meta" alongside a column mapped to "meta.email": the
	// column identifier shares the spread field's prefix but belongs to the
	// email field on reassembly
	es := testutil.MustParseSchema(t, `{
	  "type": "record", "name": "store.Profile",
	  "fields": [
	    {"name": "id", "type": "long", "mapping": {"type": "key", "value": "0"}},
	    {"name": "email", "type": "string", "mapping": {"type": "column", "value": "meta.email"}},
	    {"name": "meta", "type": {"type": "map", "values": "string"},
	     "mapping": {"type": "keyAsColumn"}}
	  ]
	}`)
	ds, err := New("profiles", es, false, testutil.TestLogger(t))
	require.NoError(t, err)

	e, err := ds.Composer().Builder().
		Put("id", int64(1)).
		Put("email", "a@example.com").
		Put("meta", map[string]interface{}{"locale": "pt"}).
		Build()
	require.NoError(t, err)
	_, err = ds.Put(e)
	require.NoError(t, err)

	got, err := ds.Get(int64(1))
	require.NoError(t, err)

	rec := got.(*entity.GenericRecord)
	email, present := rec.Value("email")
	require.True(t, present)
	assert.Equal(t, "a@example.com", email)

	meta, present := rec.Value("meta")
	require.True(t, present)
	assert.Equal(t, map[string]interface{}{"locale": "pt"}, meta)
}

func TestDatasetRowKeyStableAcrossPuts(t *testing.T) {
	ds := newGenericDataset(t)
	key1 := putGenericUser(t, ds)
	key2 := putGenericUser(t, ds)
	assert.Equal(t, key1, key2)
}

func TestDatasetMemoryUsage(t *testing.T) {
	ds := newGenericDataset(t)
	putGenericUser(t, ds)
	assert.Greater(t, ds.MemoryUsage(), int64(0))
	assert.Equal(t, "users", ds.Name())
}
