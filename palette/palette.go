package palette

import (
	"github.com/anvilmc/anvil/internal/hash"
)

// Entry is any value a palette can intern. PaletteKey must be canonical:
// equal values return byte-identical keys.
type Entry interface {
	PaletteKey() string
}

// Palette interns distinct entries and hands out stable dense indices.
// Index 0 is always the fill value the palette was created with.
//
// Lookups go through a hash index keyed by xxhash of the canonical key; a
// colliding key falls back to a linear scan, so behavior stays correct for
// any input.
type Palette[E Entry] struct {
	entries []E
	index   map[uint64]uint32
}

// New creates a palette seeded with the fill entry at index 0.
func New[E Entry](fill E) *Palette[E] {
	p := &Palette[E]{
		entries: make([]E, 0, 8),
		index:   make(map[uint64]uint32, 8),
	}
	p.Intern(fill)

	return p
}

// FromEntries builds a palette from a decoded entry list, preserving order.
// Later duplicates keep their positions in the entry list but lookups
// resolve to the first occurrence.
func FromEntries[E Entry](entries []E) *Palette[E] {
	p := &Palette[E]{
		entries: make([]E, 0, len(entries)),
		index:   make(map[uint64]uint32, len(entries)),
	}
	for _, e := range entries {
		id := hash.Key(e.PaletteKey())
		p.entries = append(p.entries, e)
		if _, ok := p.index[id]; !ok {
			p.index[id] = uint32(len(p.entries) - 1)
		}
	}

	return p
}

// Len returns the number of entries, duplicates included.
func (p *Palette[E]) Len() int {
	return len(p.entries)
}

// Get returns the entry at index i. The index must be in range.
func (p *Palette[E]) Get(i uint32) E {
	return p.entries[i]
}

// Entries returns a copy of the entry list in index order.
func (p *Palette[E]) Entries() []E {
	out := make([]E, len(p.entries))
	copy(out, p.entries)

	return out
}

// IndexOf returns the index of an already-interned entry, or false when the
// entry is not present.
func (p *Palette[E]) IndexOf(e E) (uint32, bool) {
	key := e.PaletteKey()
	if i, ok := p.index[hash.Key(key)]; ok {
		if p.entries[i].PaletteKey() == key {
			return i, true
		}
		// Hash collision, resolve by scan.
		for j, cand := range p.entries {
			if cand.PaletteKey() == key {
				return uint32(j), true
			}
		}
	}

	return 0, false
}

// Intern returns the index of e, appending it first if it was not present.
func (p *Palette[E]) Intern(e E) uint32 {
	if i, ok := p.IndexOf(e); ok {
		return i
	}

	i := uint32(len(p.entries))
	p.entries = append(p.entries, e)
	id := hash.Key(e.PaletteKey())
	if _, ok := p.index[id]; !ok {
		p.index[id] = i
	}

	return i
}

// Compact rebuilds the palette keeping only entries marked used, returning
// the old-index to new-index remap table. Unused entries map to 0. At least
// one entry must be marked used.
func (p *Palette[E]) Compact(used []bool) []uint32 {
	remap := make([]uint32, len(p.entries))
	kept := make([]E, 0, len(p.entries))
	index := make(map[uint64]uint32, len(p.entries))

	for i, e := range p.entries {
		if i >= len(used) || !used[i] {
			continue
		}
		remap[i] = uint32(len(kept))
		kept = append(kept, e)
		id := hash.Key(e.PaletteKey())
		if _, ok := index[id]; !ok {
			index[id] = remap[i]
		}
	}

	p.entries = kept
	p.index = index

	return remap
}
