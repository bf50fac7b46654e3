// ABOUTME: Integrity scan over every block and node of a file
// ABOUTME: Runs node checks in parallel with a bounded errgroup

package pst

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sbridges/pasta/pkg/ltp"
	"github.com/sbridges/pasta/pkg/ndb"
)

// VerifyReport counts the structures visited by Verify
type VerifyReport struct {
	Blocks     int
	Nodes      int
	Subnodes   int
	Heaps      int
	PCs        int
	TCs        int
	BTHs       int
	Properties int
	Rows       int
	Duration   time.Duration
}

type verifyCounters struct {
	blocks     atomic.Int64
	nodes      atomic.Int64
	subnodes   atomic.Int64
	heaps      atomic.Int64
	pcs        atomic.Int64
	tcs        atomic.Int64
	bths       atomic.Int64
	properties atomic.Int64
	rows       atomic.Int64
}

func (c *verifyCounters) report(d time.Duration) *VerifyReport {
	return &VerifyReport{
		Blocks:     int(c.blocks.Load()),
		Nodes:      int(c.nodes.Load()),
		Subnodes:   int(c.subnodes.Load()),
		Heaps:      int(c.heaps.Load()),
		PCs:        int(c.pcs.Load()),
		TCs:        int(c.tcs.Load()),
		BTHs:       int(c.bths.Load()),
		Properties: int(c.properties.Load()),
		Rows:       int(c.rows.Load()),
		Duration:   d,
	}
}

// Verify reads and validates every block in the BBT and every node in
// the NBT. It stops at the first corruption and returns it.
func (r *Reader) Verify(ctx context.Context) (*VerifyReport, error) {
	start := time.Now()
	var c verifyCounters

	err := r.verify(ctx, &c)
	d := time.Since(start)
	rep := c.report(d)
	if err != nil {
		r.opts.record("verify", err)
		r.log.LogOperation("verify", d, rep.Nodes, err)
		return rep, err
	}

	if rr, ok := r.opts.readerRecorder(); ok {
		rr.RecordVerify(rep.Nodes, d)
	}
	r.log.LogScanComplete(rep.Blocks, rep.Nodes, rep.Heaps, d)
	return rep, nil
}

func (r *Reader) verify(ctx context.Context, c *verifyCounters) error {
	blocks, err := r.bbt.Entries()
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.verifyWorkers)
	for _, e := range blocks {
		e := e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := r.verifyBlock(e); err != nil {
				return err
			}
			c.blocks.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	r.log.NDBLogger("verify").WithFields(map[string]interface{}{
		"blocks": len(blocks),
	}).Debug("Block scan complete")

	nodes, err := r.nbt.Entries()
	if err != nil {
		return err
	}
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(r.opts.verifyWorkers)
	for _, e := range nodes {
		e := e
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := r.verifyNode(e, c); err != nil {
				return fmt.Errorf("node %s: %w", e.NID, err)
			}
			c.nodes.Add(1)
			return nil
		})
	}
	return g.Wait()
}

// verifyBlock looks the entry up again by its own key and decodes it
func (r *Reader) verifyBlock(e ndb.BBTEntry) error {
	got, found, err := r.bbt.Lookup(e.Ref.BID)
	if err != nil {
		return err
	}
	if !found || got != e {
		return ndb.Corruptf(ndb.CauseMismatch, int64(e.Ref.IB), "BBT lookup of %s returned %+v", e.Ref.BID, got)
	}
	_, err = r.dec.ReadEntry(e)
	return err
}

func (r *Reader) verifyNode(e ndb.NBTEntry, c *verifyCounters) error {
	if _, found, err := r.bbt.Lookup(e.Data); err != nil {
		return err
	} else if !found {
		return ndb.Corruptf(ndb.CauseMissing, -1, "data block %s not in BBT", e.Data)
	}

	n, err := r.dec.BlockCount(e.Data)
	if err != nil {
		return err
	}
	var first *ndb.Block
	for i := 0; i < n; i++ {
		b, err := r.dec.BlockAt(e.Data, i)
		if err != nil {
			return err
		}
		if i == 0 {
			first = b
		}
	}

	if e.HasSub() {
		subs, err := r.dec.Subnodes(e.Sub).Entries()
		if err != nil {
			return err
		}
		c.subnodes.Add(int64(len(subs)))
	}

	if first == nil || !ltp.IsHeap(first.Data) {
		return nil
	}
	return r.verifyHeap(e, c)
}

func (r *Reader) verifyHeap(e ndb.NBTEntry, c *verifyCounters) error {
	hn, err := ltp.OpenHeap(r.dec, e.Data)
	if err != nil {
		return err
	}
	c.heaps.Add(1)

	switch hn.ClientSig() {
	case ltp.ClientSigPC:
		pc, err := ltp.OpenPC(r.dec, e, r.opts.catalog)
		if err != nil {
			return err
		}
		vals, err := pc.All()
		if err != nil {
			return err
		}
		c.pcs.Add(1)
		c.properties.Add(int64(len(vals)))

	case ltp.ClientSigTC:
		tc, err := ltp.OpenTC(r.dec, e, r.opts.catalog)
		if err != nil {
			return err
		}
		ids, err := tc.RowIDs()
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, err := tc.Row(id); err != nil {
				return err
			}
		}
		c.tcs.Add(1)
		c.rows.Add(int64(len(ids)))

	case ltp.ClientSigBTH:
		bth, err := ltp.OpenBTH(hn, hn.UserRoot())
		if err != nil {
			return err
		}
		if _, err := bth.Records(); err != nil {
			return err
		}
		c.bths.Add(1)
	}
	return nil
}
