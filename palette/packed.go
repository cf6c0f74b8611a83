package palette

import (
	"fmt"

	"github.com/anvilmc/anvil/errs"
)

// IndexArray is a fixed-slot array of palette indices packed into 64-bit
// words. Each word holds floor(64/bits) indices; an index never straddles a
// word boundary, so any bits left over at the top of a word stay unused.
//
// A zero-bit array is valid and stores nothing: every slot reads as 0. It is
// the representation of a section whose palette has a single entry.
type IndexArray struct {
	bits  uint
	slots int
	words []uint64
}

// NewIndexArray creates an array of the given slot count at the given width,
// all slots zero.
func NewIndexArray(bits uint, slots int) *IndexArray {
	a := &IndexArray{bits: bits, slots: slots}
	if bits > 0 {
		a.words = make([]uint64, wordsFor(bits, slots))
	}

	return a
}

// FromWords wraps a decoded packed word slice. The word count must match
// what the width and slot count require.
//
// Returns:
//   - *IndexArray: The wrapped array
//   - error: ErrSerialization when the word count does not match
func FromWords(bits uint, slots int, words []uint64) (*IndexArray, error) {
	want := 0
	if bits > 0 {
		want = wordsFor(bits, slots)
	}
	if len(words) != want {
		return nil, fmt.Errorf("%w: packed array has %d words, want %d for %d slots at %d bits",
			errs.ErrSerialization, len(words), want, slots, bits)
	}

	return &IndexArray{bits: bits, slots: slots, words: words}, nil
}

// Bits returns the current index width.
func (a *IndexArray) Bits() uint { return a.bits }

// Slots returns the slot count.
func (a *IndexArray) Slots() int { return a.slots }

// Words returns the backing packed words. Nil at zero width.
func (a *IndexArray) Words() []uint64 { return a.words }

// Get returns the index stored at slot i.
func (a *IndexArray) Get(i int) uint32 {
	if a.bits == 0 {
		return 0
	}

	per := 64 / a.bits
	word := a.words[uint(i)/per]
	shift := (uint(i) % per) * a.bits

	return uint32(word >> shift & (1<<a.bits - 1))
}

// Set stores index v at slot i. The value must fit the current width; grow
// the array with Repack first when it does not.
func (a *IndexArray) Set(i int, v uint32) {
	per := 64 / a.bits
	w := uint(i) / per
	shift := (uint(i) % per) * a.bits
	mask := uint64(1<<a.bits-1) << shift
	a.words[w] = a.words[w]&^mask | uint64(v)<<shift
}

// Fits reports whether index v is representable at the current width.
func (a *IndexArray) Fits(v uint32) bool {
	return a.bits > 0 && uint64(v) < 1<<a.bits
}

// Repack rewrites the array at a new width, preserving every slot value.
// Widening to fit a growing palette and narrowing after compaction both go
// through here.
func (a *IndexArray) Repack(bits uint) {
	if bits == a.bits {
		return
	}
	if bits == 0 {
		a.bits = 0
		a.words = nil

		return
	}

	words := make([]uint64, wordsFor(bits, a.slots))
	per := 64 / bits
	for i := 0; i < a.slots; i++ {
		v := uint64(a.Get(i))
		shift := (uint(i) % per) * bits
		words[uint(i)/per] |= v << shift
	}

	a.bits = bits
	a.words = words
}

// Remap rewrites every slot through the given old-to-new index table, then
// repacks at the new width. Used after palette compaction.
func (a *IndexArray) Remap(table []uint32, bits uint) {
	vals := make([]uint32, a.slots)
	for i := range vals {
		v := a.Get(i)
		if int(v) < len(table) {
			v = table[v]
		} else {
			v = 0
		}
		vals[i] = v
	}

	a.bits = bits
	a.words = nil
	if bits == 0 {
		return
	}

	a.words = make([]uint64, wordsFor(bits, a.slots))
	per := 64 / bits
	for i, v := range vals {
		shift := (uint(i) % per) * bits
		a.words[uint(i)/per] |= uint64(v) << shift
	}
}

func wordsFor(bits uint, slots int) int {
	per := int(64 / bits)

	return (slots + per - 1) / per
}
