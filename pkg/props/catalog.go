package props

import "fmt"

// Property is a catalog entry
type Property struct {
	ID   uint16
	Type Type
	Name string
}

// Tag returns the 32-bit property tag (id << 16 | type)
func (p Property) Tag() uint32 {
	return uint32(p.ID)<<16 | uint32(p.Type)
}

func (p Property) String() string {
	return fmt.Sprintf("%s(0x%04x,%s)", p.Name, p.ID, p.Type)
}

// Catalog is an immutable lookup table of known properties
type Catalog struct {
	byID map[uint16]Property
	list []Property
}

// NewCatalog builds a catalog, rejecting duplicate ids and unknown types
func NewCatalog(props []Property) (*Catalog, error) {
	c := &Catalog{
		byID: make(map[uint16]Property, len(props)),
		list: make([]Property, 0, len(props)),
	}
	for _, p := range props {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("props: duplicate property id 0x%04x", p.ID)
		}
		if !p.Type.Known() {
			return nil, fmt.Errorf("props: property %s has unknown type", p.Name)
		}
		c.byID[p.ID] = p
		c.list = append(c.list, p)
	}
	return c, nil
}

var defaultCatalog = mustCatalog(knownProperties)

func mustCatalog(props []Property) *Catalog {
	c, err := NewCatalog(props)
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns the catalog of well-known properties
func Default() *Catalog {
	return defaultCatalog
}

// Lookup returns the entry for id
func (c *Catalog) Lookup(id uint16) (Property, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return len(c.list)
}

// All returns the entries in declaration order
func (c *Catalog) All() []Property {
	out := make([]Property, len(c.list))
	copy(out, c.list)
	return out
}

// Name returns the property name, or a hex id for unknown properties
func (c *Catalog) Name(id uint16) string {
	if p, ok := c.byID[id]; ok {
		return p.Name
	}
	return fmt.Sprintf("0x%04x", id)
}
