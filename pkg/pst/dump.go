// ABOUTME: Indented text rendering of the header and both B+Trees
// ABOUTME: Used by the pstdump CLI and for debugging corrupt files

package pst

import (
	"fmt"
	"io"
	"strings"

	"github.com/sbridges/pasta/pkg/ndb"
)

// printer stops writing after the first error
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) linef(depth int, format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, strings.Repeat("  ", depth)+format+"\n", args...)
}

// DumpHeader writes a summary of the file header
func (r *Reader) DumpHeader(w io.Writer) error {
	p := &printer{w: w}
	r.dumpHeader(p)
	return p.err
}

func (r *Reader) dumpHeader(p *printer) {
	h := r.header
	p.linef(0, "header")
	p.linef(1, "version %d client %d", h.Version, h.ClientVersion)
	p.linef(1, "cipher %s", h.Cipher)
	p.linef(1, "bidNextB %s bidNextP %s unique %d", h.BIDNextB, h.BIDNextP, h.Unique)
	p.linef(1, "fileEOF 0x%x amapLast 0x%x amapFree %d amapValid %d",
		h.Root.FileEOF, h.Root.AMapLast, h.Root.AMapFree, h.Root.AMapValid)
	p.linef(1, "nbt %s", h.Root.NBT)
	p.linef(1, "bbt %s", h.Root.BBT)
}

// Dump writes the header and an indented rendering of every page and
// leaf entry of the NBT and the BBT
func (r *Reader) Dump(w io.Writer) error {
	p := &printer{w: w}
	r.dumpHeader(p)

	depth := 0
	page := func(d int, pg *ndb.BTPage) error {
		depth = d + 1
		p.linef(depth, "page %s level %d entries %d/%d", pg.Ref, pg.Level, pg.Count, pg.MaxCount)
		return p.err
	}

	p.linef(0, "nbt")
	err := r.nbt.Walk(page, func(e ndb.NBTEntry) error {
		p.linef(depth+1, "nid %s data %s sub %s parent %s", e.NID, e.Data, e.Sub, e.Parent)
		return p.err
	})
	if err != nil {
		return err
	}

	p.linef(0, "bbt")
	err = r.bbt.Walk(page, func(e ndb.BBTEntry) error {
		p.linef(depth+1, "block %s size %d refs %d", e.Ref, e.Size, e.RefCount)
		return p.err
	})
	if err != nil {
		return err
	}
	return p.err
}

// DumpNode writes the subnode tree of nid, one line per subnode
func (r *Reader) DumpNode(w io.Writer, nid ndb.NID) error {
	e, err := r.mustNode(nid)
	if err != nil {
		return err
	}
	p := &printer{w: w}
	p.linef(0, "nid %s data %s sub %s parent %s", e.NID, e.Data, e.Sub, e.Parent)

	n, err := r.dec.BlockCount(e.Data)
	if err != nil {
		return err
	}
	p.linef(1, "blocks %d", n)

	if e.HasSub() {
		subs, err := r.dec.Subnodes(e.Sub).Entries()
		if err != nil {
			return err
		}
		for _, s := range subs {
			p.linef(1, "subnode %s data %s sub %s", s.NID, s.Data, s.Sub)
		}
	}
	return p.err
}
