package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorderCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.PageRead("bbt")
	m.PageRead("bbt")
	m.PageRead("nbt")
	m.BlockRead("internal")
	m.Lookup("nbt", true, time.Millisecond)
	m.Lookup("nbt", false, time.Millisecond)
	m.Lookup("nbt", false, time.Millisecond)
	m.Corruption("signature")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesReadTotal.WithLabelValues("bbt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PagesReadTotal.WithLabelValues("nbt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BlocksReadTotal.WithLabelValues("internal")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LookupsTotal.WithLabelValues("nbt", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CorruptionsTotal.WithLabelValues("signature")))
}

func TestSeparateRegistries(t *testing.T) {
	// each registry gets its own collectors, so two readers can coexist
	a := NewMetrics(prometheus.NewRegistry())
	b := NewMetrics(prometheus.NewRegistry())

	a.RecordVerify(10, time.Second)
	assert.Equal(t, 10.0, testutil.ToFloat64(a.VerifyNodesTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.VerifyNodesTotal))
}
