// Package coord provides the pure coordinate transforms between the global,
// region-local, chunk, section and cell coordinate spaces of a Minecraft
// world.
//
// All functions are allocation-free integer arithmetic. Floor semantics are
// used throughout: the relevant strides (512, 16, 4) are powers of two, so
// masking and arithmetic shifts give correct results for negative global
// coordinates, unlike truncating division.
package coord

import (
	"fmt"

	"github.com/anvilmc/anvil/errs"
)

const (
	// RegionBlocks is the width of a region in blocks along X and Z.
	RegionBlocks = 512
	// RegionChunks is the width of a region in chunks along X and Z.
	RegionChunks = 32
	// ChunkBlocks is the width of a chunk (and the height of a section) in
	// blocks.
	ChunkBlocks = 16
	// BiomeCellBlocks is the width of a biome cell in blocks; biome state is
	// stored at 4x4x4 granularity.
	BiomeCellBlocks = 4

	// BlocksPerSection is the number of block slots in one section.
	BlocksPerSection = ChunkBlocks * ChunkBlocks * ChunkBlocks
	// BiomesPerSection is the number of biome cells in one section.
	BiomesPerSection = BiomeCellBlocks * BiomeCellBlocks * BiomeCellBlocks
)

// Pos is a region-local block position. X and Z are always within
// [0, RegionBlocks); Y is the only signed axis.
type Pos struct {
	X int32
	Y int32
	Z int32
}

func (p Pos) String() string {
	return fmt.Sprintf("%d, %d, %d", p.X, p.Y, p.Z)
}

// ToRegionLocal reduces global block coordinates into the region that
// contains them. X and Z are floor-reduced modulo RegionBlocks, so negative
// global coordinates map into [0, 512): x=-1 becomes 511. Y is unchanged.
func ToRegionLocal(x, y, z int32) Pos {
	return Pos{X: x & (RegionBlocks - 1), Y: y, Z: z & (RegionBlocks - 1)}
}

// RegionAt returns the coordinates of the region containing the global block
// position, using floor division.
func RegionAt(x, z int32) (rx, rz int32) {
	return x >> 9, z >> 9
}

// Chunk returns the region-local chunk coordinates holding p, each within
// [0, RegionChunks).
func (p Pos) Chunk() (cx, cz uint8) {
	return uint8(p.X >> 4), uint8(p.Z >> 4)
}

// SectionY returns the section index holding block height y. Arithmetic
// shift keeps floor semantics for negative heights: y=-1 maps to section -1.
func SectionY(y int32) int8 {
	return int8(y >> 4)
}

// BlockSlot returns the in-section slot index of p, in [0, BlocksPerSection).
// Slots are ordered x, then z, then y, matching the on-disk packed layout.
func BlockSlot(p Pos) int {
	return int(p.X&15) | int(p.Z&15)<<4 | int(p.Y&15)<<8
}

// BiomeSlot returns the in-section biome cell index of p, in
// [0, BiomesPerSection). Cells are ordered x, then z, then y.
func BiomeSlot(p Pos) int {
	bx := (p.X & 15) >> 2
	by := (p.Y & 15) >> 2
	bz := (p.Z & 15) >> 2
	return int(bx) | int(bz)<<2 | int(by)<<4
}

// Cell reduces a region-local block position to biome cell coordinates:
// X and Z within [0, 128), Y in absolute cell units. Arithmetic shifts keep
// floor semantics on the signed axis.
func Cell(p Pos) Pos {
	return Pos{X: p.X >> 2, Y: p.Y >> 2, Z: p.Z >> 2}
}

// CellSlot returns the in-section biome cell index for cell coordinates, in
// [0, BiomesPerSection).
func CellSlot(cell Pos) int {
	return int(cell.X&3) | int(cell.Z&3)<<2 | int(cell.Y&3)<<4
}

// CellChunk returns the region-local chunk coordinates holding a cell.
func CellChunk(cell Pos) (cx, cz uint8) {
	return uint8(cell.X >> 2), uint8(cell.Z >> 2)
}

// CellSectionY returns the section index holding a cell's Y.
func CellSectionY(cellY int32) int8 {
	return int8(cellY >> 2)
}

// WorldRange is the supported vertical block range of the world, half-open:
// Min is the lowest valid block Y, Max is one past the highest. Both bounds
// must be multiples of ChunkBlocks.
type WorldRange struct {
	Min int32
	Max int32
}

// DefaultWorldRange matches the vanilla overworld since the 1.18 world
// height expansion: blocks -64..319, sections -4..19.
var DefaultWorldRange = WorldRange{Min: -64, Max: 320}

// Contains reports whether block height y lies inside the range.
func (r WorldRange) Contains(y int32) bool {
	return y >= r.Min && y < r.Max
}

// Height returns the range's extent in blocks.
func (r WorldRange) Height() int {
	return int(r.Max - r.Min)
}

// Sections returns the number of sections spanned by the range.
func (r WorldRange) Sections() int {
	return r.Height() / ChunkBlocks
}

// MinSection returns the lowest section index of the range.
func (r WorldRange) MinSection() int8 {
	return SectionY(r.Min)
}

// MaxSection returns one past the highest section index of the range.
func (r WorldRange) MaxSection() int8 {
	return SectionY(r.Max)
}

// ContainsSection reports whether the section index lies inside the range.
func (r WorldRange) ContainsSection(sy int8) bool {
	return sy >= r.MinSection() && sy < r.MaxSection()
}

// CheckY validates that block height y lies inside the range, returning an
// ErrOutOfBounds error otherwise. Callers are expected to run this before a
// coordinate ever enters an edit buffer.
func (r WorldRange) CheckY(y int32) error {
	if !r.Contains(y) {
		return fmt.Errorf("%w: y=%d outside world range [%d, %d)", errs.ErrOutOfBounds, y, r.Min, r.Max)
	}

	return nil
}
