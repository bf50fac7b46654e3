package ndb

// SLEntry is a subnode leaf entry
type SLEntry struct {
	NID  NID
	Data BID
	Sub  BID // zero when the subnode has no nested subnode tree
}

// SubnodeTree is the per-node B+Tree of SLBLOCK and SIBLOCK pages.
// NIDs are local to the owning node.
type SubnodeTree struct {
	d    *Decoder
	root BID
}

// Subnodes returns the subnode tree rooted at root. A zero root is an
// empty tree.
func (d *Decoder) Subnodes(root BID) *SubnodeTree {
	return &SubnodeTree{d: d, root: root}
}

// Root returns the root BID
func (s *SubnodeTree) Root() BID {
	return s.root
}

func (s *SubnodeTree) readRoot() (*internalBlock, error) {
	b, err := s.d.ReadBlock(s.root)
	if err != nil {
		return nil, err
	}
	if !s.root.Internal() {
		return nil, Corruptf(CauseMismatch, int64(b.Ref.IB), "subnode root %s is external", s.root)
	}
	ib, err := parseInternal(b)
	if err != nil {
		return nil, err
	}
	if ib.kind != chainSL && ib.kind != chainSI {
		return nil, Corruptf(CauseMismatch, ib.ib, "subnode root %s is %s", s.root, ib.kind)
	}
	return ib, nil
}

// Lookup finds the leaf entry for nid
func (s *SubnodeTree) Lookup(nid NID) (SLEntry, bool, error) {
	if s.root == 0 {
		return SLEntry{}, false, nil
	}
	blk, err := s.readRoot()
	if err != nil {
		return SLEntry{}, false, err
	}

	for depth := 0; blk.kind == chainSI; depth++ {
		if depth >= s.d.maxDepth {
			return SLEntry{}, false, Corruptf(CauseDepth, blk.ib, "subnode tree deeper than %d", s.d.maxDepth)
		}
		idx := -1
		for i, key := range blk.nids {
			if key > nid {
				break
			}
			idx = i
		}
		if idx < 0 {
			return SLEntry{}, false, nil
		}
		next, err := s.readChild(blk.bids[idx])
		if err != nil {
			return SLEntry{}, false, err
		}
		blk = next
	}

	for i, key := range blk.nids {
		if key == nid {
			return SLEntry{NID: key, Data: blk.bids[i], Sub: blk.subs[i]}, true, nil
		}
	}
	return SLEntry{}, false, nil
}

// readChild reads an SIBLOCK child, which may be another SIBLOCK or an SLBLOCK
func (s *SubnodeTree) readChild(bid BID) (*internalBlock, error) {
	if !bid.Internal() {
		return nil, Corruptf(CauseMismatch, -1, "subnode child %s is external", bid)
	}
	b, err := s.d.ReadBlock(bid)
	if err != nil {
		return nil, err
	}
	ib, err := parseInternal(b)
	if err != nil {
		return nil, err
	}
	if ib.kind != chainSL && ib.kind != chainSI {
		return nil, Corruptf(CauseMismatch, ib.ib, "subnode child %s is %s", bid, ib.kind)
	}
	return ib, nil
}

// Entries returns every leaf entry in traversal order, keeping the first
// occurrence of each NID
func (s *SubnodeTree) Entries() ([]SLEntry, error) {
	if s.root == 0 {
		return nil, nil
	}
	root, err := s.readRoot()
	if err != nil {
		return nil, err
	}

	type frame struct {
		blk   *internalBlock
		depth int
		next  int
	}

	var out []SLEntry
	seen := make(map[NID]bool)
	stack := []frame{{blk: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.blk.kind == chainSL {
			for i, nid := range top.blk.nids {
				if seen[nid] {
					continue
				}
				seen[nid] = true
				out = append(out, SLEntry{NID: nid, Data: top.blk.bids[i], Sub: top.blk.subs[i]})
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if top.next >= len(top.blk.bids) {
			stack = stack[:len(stack)-1]
			continue
		}
		if top.depth >= s.d.maxDepth {
			return nil, Corruptf(CauseDepth, top.blk.ib, "subnode tree deeper than %d", s.d.maxDepth)
		}
		child, err := s.readChild(top.blk.bids[top.next])
		if err != nil {
			return nil, err
		}
		depth := top.depth + 1
		top.next++
		stack = append(stack, frame{blk: child, depth: depth})
	}
	return out, nil
}
