// Package palette implements per-section value interning and the packed
// index arrays that reference interned entries.
//
// A section never stores its values directly. Instead a Palette holds each
// distinct value once, and an IndexArray stores one small palette index per
// slot, packed into 64-bit words at the minimum width the palette size
// requires. Widths never straddle a word boundary: indices that do not fit
// evenly leave the top bits of each word unused.
//
// The Container type pairs the two and keeps them consistent: interning a new
// entry that no longer fits the current width transparently repacks the index
// array one bit wider.
package palette
