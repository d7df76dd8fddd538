package partition

import "github.com/phylokit/supermatrix/internal/alphabet"

// Region mirrors one retained subpartition in the final matrix.
type Region struct {
	Origin string
	Size   int
	Type   alphabet.CharType
	States int
}

// Collection is the append-only, ordered record of every retained
// subpartition of a run.
type Collection struct {
	regions []Region
}

// Add records every subpartition of p in order.
func (c *Collection) Add(p *Partition) {
	for _, s := range p.Subpartitions {
		c.regions = append(c.regions, Region{Origin: p.Origin, Size: s.Size, Type: s.Type, States: s.States})
	}
}

// Append records a single region.
func (c *Collection) Append(r Region) {
	c.regions = append(c.regions, r)
}

// Regions returns the recorded regions in registration order.
func (c *Collection) Regions() []Region {
	return c.regions
}

// Len returns the number of regions.
func (c *Collection) Len() int {
	return len(c.regions)
}

// TotalSize returns the summed width of all regions.
func (c *Collection) TotalSize() int {
	n := 0
	for _, r := range c.regions {
		n += r.Size
	}
	return n
}

// SizeOf returns the summed width of the regions of one type.
func (c *Collection) SizeOf(t alphabet.CharType) int {
	n := 0
	for _, r := range c.regions {
		if r.Type == t {
			n += r.Size
		}
	}
	return n
}

// Types returns the distinct region types in order of first appearance.
func (c *Collection) Types() []alphabet.CharType {
	seen := make(map[alphabet.CharType]bool)
	var out []alphabet.CharType
	for _, r := range c.regions {
		if !seen[r.Type] {
			seen[r.Type] = true
			out = append(out, r.Type)
		}
	}
	return out
}
