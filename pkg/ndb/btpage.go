// ABOUTME: Generic paged B+Tree engine shared by the block and node trees
// ABOUTME: Point lookup retains the last key <= target; walks use an explicit stack

package ndb

import (
	"encoding/binary"
	"time"

	"github.com/sbridges/pasta/pkg/pstio"
)

const (
	btMetaOffset = 488 // cEnt, cEntMax, cbEnt, cLevel, dwPadding
	btEntrySpace = 488

	// BTEntrySize is the size of an intermediate (key, BRef) entry
	BTEntrySize = 24

	// DefaultMaxDepth bounds every walk over on-disk trees
	DefaultMaxDepth = 16
)

// BTPage is a validated B+Tree page
type BTPage struct {
	Ref      BRef
	Trailer  PageTrailer
	Count    int // cEnt
	MaxCount int // cEntMax
	EntSize  int // cbEnt
	Level    int // cLevel, 0 at leaves
	raw      []byte
}

// Leaf reports whether the page holds leaf entries
func (p *BTPage) Leaf() bool {
	return p.Level == 0
}

// Entry returns the raw bytes of entry i
func (p *BTPage) Entry(i int) []byte {
	off := i * p.EntSize
	return p.raw[off : off+p.EntSize]
}

// BTEntry is an intermediate page entry
type BTEntry struct {
	Key   uint64
	Child BRef
}

// Intermediate decodes entry i of an intermediate page
func (p *BTPage) Intermediate(i int) BTEntry {
	e := p.Entry(i)
	return BTEntry{Key: binary.LittleEndian.Uint64(e[0:8]), Child: parseBRef(e[8:24])}
}

// btree is the engine behind BBT and NBT. leafKey extracts the search
// key from a raw leaf entry.
type btree struct {
	name     string
	src      *pstio.Cursor
	root     BRef
	ptype    PageType
	leafSize int
	leafKey  func([]byte) uint64
	maxDepth int
	rec      Recorder
}

func (t *btree) readPage(ref BRef) (*BTPage, error) {
	raw, err := t.src.ReadAt(int64(ref.IB), PageSize)
	if err != nil {
		return nil, Corruptf(CauseBounds, int64(ref.IB), "%s page: %v", t.name, err)
	}
	t.rec.PageRead(t.name)

	tr, err := ParsePageTrailer(raw, ref.IB)
	if err != nil {
		return nil, err
	}
	if tr.Type != t.ptype {
		return nil, Corruptf(CauseTypeCode, int64(ref.IB), "expected %s page, found %s", t.ptype, tr.Type)
	}
	if tr.BID != ref.BID {
		return nil, Corruptf(CauseMismatch, int64(ref.IB), "page bid %s, referenced as %s", tr.BID, ref.BID)
	}

	meta := raw[btMetaOffset:]
	p := &BTPage{
		Ref:      ref,
		Trailer:  tr,
		Count:    int(meta[0]),
		MaxCount: int(meta[1]),
		EntSize:  int(meta[2]),
		Level:    int(meta[3]),
		raw:      raw[:btEntrySpace],
	}
	if binary.LittleEndian.Uint32(meta[4:8]) != 0 {
		return nil, Corruptf(CauseReserved, int64(ref.IB), "%s page padding is nonzero", t.name)
	}

	want := BTEntrySize
	if p.Leaf() {
		want = t.leafSize
	}
	if p.EntSize != want {
		return nil, Corruptf(CauseSize, int64(ref.IB), "%s page level %d has cbEnt %d, expected %d", t.name, p.Level, p.EntSize, want)
	}
	if p.MaxCount != btEntrySpace/p.EntSize {
		return nil, Corruptf(CauseSize, int64(ref.IB), "%s page cEntMax %d, expected %d", t.name, p.MaxCount, btEntrySpace/p.EntSize)
	}
	if p.Count > p.MaxCount {
		return nil, Corruptf(CauseSize, int64(ref.IB), "%s page cEnt %d exceeds cEntMax %d", t.name, p.Count, p.MaxCount)
	}

	if !p.Leaf() {
		for i := 1; i < p.Count; i++ {
			if p.Intermediate(i-1).Key >= p.Intermediate(i).Key {
				return nil, Corruptf(CauseOrder, int64(ref.IB), "%s page keys out of order at entry %d", t.name, i)
			}
		}
	}

	return p, nil
}

// readRoot reads the root page and checks its level against the depth bound
func (t *btree) readRoot() (*BTPage, error) {
	p, err := t.readPage(t.root)
	if err != nil {
		return nil, err
	}
	if p.Level > t.maxDepth {
		return nil, Corruptf(CauseDepth, int64(t.root.IB), "%s root level %d exceeds %d", t.name, p.Level, t.maxDepth)
	}
	return p, nil
}

// descend reads the child of parent at entry i and checks its level
func (t *btree) descend(parent *BTPage, i int) (*BTPage, error) {
	child, err := t.readPage(parent.Intermediate(i).Child)
	if err != nil {
		return nil, err
	}
	if child.Level != parent.Level-1 {
		return nil, Corruptf(CauseMismatch, int64(child.Ref.IB), "%s page level %d under level %d", t.name, child.Level, parent.Level)
	}
	return child, nil
}

// find returns the raw leaf entry whose key equals key
func (t *btree) find(key uint64) (entry []byte, found bool, err error) {
	start := time.Now()
	defer func() {
		t.rec.Lookup(t.name, found, time.Since(start))
	}()

	page, err := t.readRoot()
	if err != nil {
		return nil, false, err
	}

	for !page.Leaf() {
		idx := -1
		for i := 0; i < page.Count; i++ {
			if page.Intermediate(i).Key > key {
				break
			}
			idx = i
		}
		if idx < 0 {
			return nil, false, nil
		}
		if page, err = t.descend(page, idx); err != nil {
			return nil, false, err
		}
	}

	for i := 0; i < page.Count; i++ {
		e := page.Entry(i)
		if t.leafKey(e) == key {
			return e, true, nil
		}
	}
	return nil, false, nil
}

// walkFrame is one level of the explicit walk stack
type walkFrame struct {
	page  *BTPage
	depth int
	next  int
}

// walk visits every page in pre-order and every leaf entry in key order
func (t *btree) walk(visitPage func(depth int, p *BTPage) error, visitLeaf func(e []byte) error) error {
	root, err := t.readRoot()
	if err != nil {
		return err
	}
	if visitPage != nil {
		if err := visitPage(0, root); err != nil {
			return err
		}
	}

	stack := []walkFrame{{page: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.page.Leaf() {
			if visitLeaf != nil {
				for i := 0; i < top.page.Count; i++ {
					if err := visitLeaf(top.page.Entry(i)); err != nil {
						return err
					}
				}
			}
			stack = stack[:len(stack)-1]
			continue
		}

		if top.next >= top.page.Count {
			stack = stack[:len(stack)-1]
			continue
		}

		i := top.next
		top.next++
		child, err := t.descend(top.page, i)
		if err != nil {
			return err
		}
		depth := top.depth + 1
		if visitPage != nil {
			if err := visitPage(depth, child); err != nil {
				return err
			}
		}
		stack = append(stack, walkFrame{page: child, depth: depth})
	}
	return nil
}
