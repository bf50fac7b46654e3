// ABOUTME: Reader over one PST file: header, node and block trees
// ABOUTME: Opens Heap-on-Node, PC and TC structures by NID

// Package pst opens PST files and answers block, node, property and
// table queries over them
package pst

import (
	"errors"
	"fmt"

	"github.com/sbridges/pasta/internal/logger"
	"github.com/sbridges/pasta/pkg/ltp"
	"github.com/sbridges/pasta/pkg/ndb"
	"github.com/sbridges/pasta/pkg/props"
	"github.com/sbridges/pasta/pkg/pstio"
)

// ErrNodeNotFound is returned when a PC or TC is opened for a NID that is
// not in the node tree
var ErrNodeNotFound = errors.New("pst: node not found")

// Reader is an open PST file. It is safe for concurrent use; the PC and
// TC values it returns are not.
type Reader struct {
	src    pstio.Source
	cur    *pstio.Cursor
	header *ndb.Header
	bbt    *ndb.BBT
	nbt    *ndb.NBT
	dec    *ndb.Decoder
	opts   options
	log    *logger.Logger
}

// Open maps the file at path and validates its header
func Open(path string, opt ...Option) (*Reader, error) {
	src, err := pstio.OpenFile(path)
	if err != nil {
		return nil, err
	}
	r, err := New(src, opt...)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("pst: open %s: %w", path, err)
	}
	r.log.LogOpen(path, src.Size(), r.header.Version, r.header.Cipher.String())
	return r, nil
}

// OpenBytes reads a PST image held in memory
func OpenBytes(buf []byte, opt ...Option) (*Reader, error) {
	r, err := New(pstio.NewMemory(buf), opt...)
	if err != nil {
		return nil, err
	}
	r.log.LogOpen("<memory>", int64(len(buf)), r.header.Version, r.header.Cipher.String())
	return r, nil
}

// New reads the header of src and prepares both B+Trees. The reader
// takes ownership of src.
func New(src pstio.Source, opt ...Option) (*Reader, error) {
	o := defaultOptions()
	for _, fn := range opt {
		fn(&o)
	}

	cur := pstio.NewCursor(src)
	h, err := ndb.ParseHeader(cur)
	if err != nil {
		o.record("open", err)
		return nil, err
	}

	r := &Reader{
		src:    src,
		cur:    cur,
		header: h,
		opts:   o,
		log:    o.log,
	}
	rec := o.recorder()
	r.bbt = ndb.NewBBT(cur, h.Root.BBT, o.maxDepth, rec)
	r.nbt = ndb.NewNBT(cur, h.Root.NBT, o.maxDepth, rec)
	r.dec = ndb.NewDecoder(cur, r.bbt, h.Cipher, ndb.DecoderConfig{
		MaxDepth: o.maxDepth,
		Recorder: rec,
		Logger:   o.log.GetZerolog(),
	})
	if rr, ok := o.readerRecorder(); ok {
		rr.FileOpened()
	}

	return r, nil
}

// record reports corruption errors to the recorder and the log
func (o *options) record(op string, err error) {
	if cause := ndb.CauseOf(err); cause != "" {
		o.recorder().Corruption(string(cause))
		o.log.LogCorruption(op, string(cause), err)
	}
}

// Close releases the underlying source
func (r *Reader) Close() error {
	if rr, ok := r.opts.readerRecorder(); ok {
		rr.FileClosed()
	}
	return r.src.Close()
}

// Header returns the decoded file header
func (r *Reader) Header() *ndb.Header {
	return r.header
}

// BBT returns the block B+Tree
func (r *Reader) BBT() *ndb.BBT {
	return r.bbt
}

// NBT returns the node B+Tree
func (r *Reader) NBT() *ndb.NBT {
	return r.nbt
}

// Decoder returns the block decoder
func (r *Reader) Decoder() *ndb.Decoder {
	return r.dec
}

// Catalog returns the property catalog in use
func (r *Reader) Catalog() *props.Catalog {
	return r.opts.catalog
}

// Block returns the verified block bid
func (r *Reader) Block(bid ndb.BID) (*ndb.Block, error) {
	b, err := r.dec.ReadBlock(bid)
	r.opts.record("block", err)
	return b, err
}

// Node looks up nid in the node tree
func (r *Reader) Node(nid ndb.NID) (ndb.NBTEntry, bool, error) {
	e, found, err := r.nbt.Lookup(nid)
	r.opts.record("node", err)
	return e, found, err
}

func (r *Reader) mustNode(nid ndb.NID) (ndb.NBTEntry, error) {
	e, found, err := r.Node(nid)
	if err != nil {
		return e, err
	}
	if !found {
		return e, fmt.Errorf("%w: %s", ErrNodeNotFound, nid)
	}
	return e, nil
}

// Heap opens the Heap-on-Node stored in nid
func (r *Reader) Heap(nid ndb.NID) (*ltp.HeapOnNode, error) {
	e, err := r.mustNode(nid)
	if err != nil {
		return nil, err
	}
	hn, err := ltp.OpenHeap(r.dec, e.Data)
	r.opts.record("heap", err)
	return hn, err
}

// PC opens the Property Context stored in nid
func (r *Reader) PC(nid ndb.NID) (*ltp.PC, error) {
	e, err := r.mustNode(nid)
	if err != nil {
		return nil, err
	}
	pc, err := ltp.OpenPC(r.dec, e, r.opts.catalog)
	r.opts.record("pc", err)
	if err == nil {
		r.log.LTPLogger("pc").WithFields(map[string]interface{}{
			"nid": nid.String(),
		}).Debug("Property context opened")
	}
	return pc, err
}

// TC opens the Table Context stored in nid
func (r *Reader) TC(nid ndb.NID) (*ltp.TC, error) {
	e, err := r.mustNode(nid)
	if err != nil {
		return nil, err
	}
	tc, err := ltp.OpenTC(r.dec, e, r.opts.catalog)
	r.opts.record("tc", err)
	if err == nil {
		r.log.LTPLogger("tc").WithFields(map[string]interface{}{
			"nid":     nid.String(),
			"columns": len(tc.Columns()),
		}).Debug("Table context opened")
	}
	return tc, err
}

// Subnodes returns the subnode tree of nid
func (r *Reader) Subnodes(nid ndb.NID) (*ndb.SubnodeTree, error) {
	e, err := r.mustNode(nid)
	if err != nil {
		return nil, err
	}
	return r.dec.Subnodes(e.Sub), nil
}
