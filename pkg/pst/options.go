// ABOUTME: Functional options for opening a Reader
// ABOUTME: Logger, metrics, walk depth, verify parallelism and catalog

package pst

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/sbridges/pasta/internal/logger"
	"github.com/sbridges/pasta/pkg/ndb"
	"github.com/sbridges/pasta/pkg/props"
)

// DefaultVerifyWorkers is the parallelism of Verify when none is set
const DefaultVerifyWorkers = 4

type options struct {
	log           *logger.Logger
	metrics       ndb.Recorder
	maxDepth      int
	verifyWorkers int
	catalog       *props.Catalog
}

func defaultOptions() options {
	return options{
		log:           logger.Nop(),
		maxDepth:      ndb.DefaultMaxDepth,
		verifyWorkers: DefaultVerifyWorkers,
		catalog:       props.Default(),
	}
}

// ReaderRecorder is a Recorder that also tracks open files and verify
// runs. Recorders passed to WithMetrics may implement it.
type ReaderRecorder interface {
	ndb.Recorder
	FileOpened()
	FileClosed()
	RecordVerify(nodes int, d time.Duration)
}

func (o *options) recorder() ndb.Recorder {
	if o.metrics == nil {
		return ndb.NopRecorder
	}
	return o.metrics
}

func (o *options) readerRecorder() (ReaderRecorder, bool) {
	rr, ok := o.metrics.(ReaderRecorder)
	return rr, ok
}

// Option configures a Reader
type Option func(*options)

// WithLogger sets the logger used for open, corruption and verify events
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = logger.Wrap(l) }
}

// WithMetrics records page, block, lookup and corruption activity. A
// recorder that implements ReaderRecorder also sees open files and
// verify runs.
func WithMetrics(rec ndb.Recorder) Option {
	return func(o *options) { o.metrics = rec }
}

// WithMaxDepth bounds every tree walk
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithVerifyWorkers sets the parallelism of Verify
func WithVerifyWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.verifyWorkers = n
		}
	}
}

// WithCatalog replaces the property catalog
func WithCatalog(c *props.Catalog) Option {
	return func(o *options) {
		if c != nil {
			o.catalog = c
		}
	}
}
