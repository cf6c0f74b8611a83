package palette

import "math/bits"

// BitsFunc maps a palette size to the packed index width for one value kind.
type BitsFunc func(paletteLen int) uint

// BlockBits is the width policy for block state palettes: zero for a single
// entry, otherwise at least 4 bits.
func BlockBits(paletteLen int) uint {
	if paletteLen <= 1 {
		return 0
	}

	b := uint(bits.Len(uint(paletteLen - 1)))
	if b < 4 {
		b = 4
	}

	return b
}

// BiomeBits is the width policy for biome palettes: exactly the bits the
// palette size requires, zero for a single entry.
func BiomeBits(paletteLen int) uint {
	if paletteLen <= 1 {
		return 0
	}

	return uint(bits.Len(uint(paletteLen - 1)))
}

// Container pairs a palette with its packed index array and keeps the two
// consistent: interning past the current width repacks the array wider, and
// Compact drops unreferenced entries and narrows it back down.
type Container[E Entry] struct {
	pal   *Palette[E]
	idx   *IndexArray
	width BitsFunc
}

// NewContainer creates a container whose every slot holds the fill entry.
func NewContainer[E Entry](fill E, slots int, width BitsFunc) *Container[E] {
	return &Container[E]{
		pal:   New(fill),
		idx:   NewIndexArray(width(1), slots),
		width: width,
	}
}

// Assemble wires a decoded palette and index array into a container. The
// caller guarantees the array width matches what it was decoded at.
func Assemble[E Entry](pal *Palette[E], idx *IndexArray, width BitsFunc) *Container[E] {
	return &Container[E]{pal: pal, idx: idx, width: width}
}

// Palette exposes the underlying palette.
func (c *Container[E]) Palette() *Palette[E] { return c.pal }

// Index exposes the underlying packed array.
func (c *Container[E]) Index() *IndexArray { return c.idx }

// Get returns the entry at the given slot.
func (c *Container[E]) Get(slot int) E {
	return c.pal.Get(c.idx.Get(slot))
}

// Set interns e and stores its index at the given slot, widening the packed
// array first when the index does not fit the current width.
func (c *Container[E]) Set(slot int, e E) {
	i := c.pal.Intern(e)
	if i > 0 && !c.idx.Fits(i) {
		c.idx.Repack(c.width(c.pal.Len()))
	}
	c.idx.Set(slot, i)
}

// Uniform reports whether the container can hold only one distinct value,
// returning it when so.
func (c *Container[E]) Uniform() (E, bool) {
	if c.pal.Len() == 1 {
		return c.pal.Get(0), true
	}

	var zero E

	return zero, false
}

// Fill resets the container so every slot holds e and the palette holds
// only e.
func (c *Container[E]) Fill(e E) {
	c.pal = New(e)
	c.idx = NewIndexArray(c.width(1), c.idx.Slots())
}

// Compact drops palette entries no slot references and repacks the index
// array at the width the surviving palette requires. Slots are untouched
// semantically: every slot resolves to the same entry before and after.
func (c *Container[E]) Compact() {
	used := make([]bool, c.pal.Len())
	for i := 0; i < c.idx.Slots(); i++ {
		used[c.idx.Get(i)] = true
	}

	all := true
	for _, u := range used {
		if !u {
			all = false

			break
		}
	}
	if all {
		return
	}

	remap := c.pal.Compact(used)
	c.idx.Remap(remap, c.width(c.pal.Len()))
}
