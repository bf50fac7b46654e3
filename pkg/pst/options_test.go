package pst_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbridges/pasta/internal/metrics"
	"github.com/sbridges/pasta/pkg/ndb"
	"github.com/sbridges/pasta/pkg/pst"
)

var _ pst.ReaderRecorder = (*metrics.Metrics)(nil)

// countingRecorder implements only ndb.Recorder
type countingRecorder struct {
	mu          sync.Mutex
	pages       int
	blocks      int
	corruptions []string
}

func (c *countingRecorder) PageRead(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages++
}

func (c *countingRecorder) BlockRead(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks++
}

func (c *countingRecorder) Lookup(string, bool, time.Duration) {}

func (c *countingRecorder) Corruption(cause string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.corruptions = append(c.corruptions, cause)
}

type fileRecorder struct {
	countingRecorder
	open     int
	verifies int
}

func (f *fileRecorder) FileOpened() { f.open++ }
func (f *fileRecorder) FileClosed() { f.open-- }

func (f *fileRecorder) RecordVerify(nodes int, _ time.Duration) {
	f.verifies += nodes
}

func TestWithPlainZerolog(t *testing.T) {
	_, img := store(t)
	var buf bytes.Buffer
	zl := zerolog.New(&buf).Level(zerolog.DebugLevel)

	r, err := pst.OpenBytes(img, pst.WithLogger(zl))
	require.NoError(t, err)
	defer r.Close()
	_, err = r.TC(hierarchyNID)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"event":"open"`)
	assert.Contains(t, out, `"operation":"tc"`)
	assert.NotContains(t, out, `"service"`)
}

func TestWithMetricsRecorderOnly(t *testing.T) {
	b, img := store(t)
	data := b.Node(ndb.NIDMessageStore).Data
	img[b.Entry(data).Ref.IB+20] ^= 0xFF

	rec := &countingRecorder{}
	r, err := pst.OpenBytes(img, pst.WithMetrics(rec))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.TC(hierarchyNID)
	require.NoError(t, err)
	_, err = r.PC(ndb.NIDMessageStore)
	require.ErrorIs(t, err, ndb.ErrCorrupt)

	assert.Positive(t, rec.pages)
	assert.Positive(t, rec.blocks)
	assert.Equal(t, []string{"crc"}, rec.corruptions)
}

func TestWithMetricsReaderRecorder(t *testing.T) {
	_, img := store(t)
	rec := &fileRecorder{}

	r, err := pst.OpenBytes(img, pst.WithMetrics(rec), pst.WithVerifyWorkers(1))
	require.NoError(t, err)
	assert.Equal(t, 1, rec.open)

	_, err = r.Verify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, rec.verifies)

	require.NoError(t, r.Close())
	assert.Equal(t, 0, rec.open)
}
