package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordWrite(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordWrite("users", 5*time.Microsecond)
	c.RecordWrite("users", 7*time.Microsecond)
	c.RecordWrite("events", time.Microsecond)

	assert.Equal(t, float64(2), promtestutil.ToFloat64(c.entitiesWritten.WithLabelValues("users")))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(c.entitiesWritten.WithLabelValues("events")))
}

func TestRecordReadSplitsHitsAndMisses(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordRead("users", true, time.Microsecond)
	c.RecordRead("users", true, time.Microsecond)
	c.RecordRead("users", false, time.Microsecond)

	assert.Equal(t, float64(2), promtestutil.ToFloat64(c.entitiesRead.WithLabelValues("users", "hit")))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(c.entitiesRead.WithLabelValues("users", "miss")))
}

func TestSetTableMemory(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.SetTableMemory("users", 4096)
	assert.Equal(t, float64(4096), promtestutil.ToFloat64(c.tableMemory.WithLabelValues("users")))

	c.SetTableMemory("users", 1024)
	assert.Equal(t, float64(1024), promtestutil.ToFloat64(c.tableMemory.WithLabelValues("users")))
}

func TestDefaultCollectorIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}
