package region

import (
	"fmt"

	"github.com/anvilmc/anvil/block"
	"github.com/anvilmc/anvil/coord"
	"github.com/anvilmc/anvil/errs"
)

// BlockWrite is one element of a batched SetBlocks call.
type BlockWrite struct {
	X, Y, Z int32
	Block   block.Block
}

// BiomeWrite is one element of a batched SetBiomes call.
type BiomeWrite struct {
	X, Y, Z int32
	Biome   block.Biome
}

// SetBlock buffers a block write at region-local x/z and absolute y. The
// write takes effect on the next WriteBlocks.
//
// Returns:
//   - bool: true when buffered, false when the coordinate already holds a
//     pending write and this one was dropped
//   - error: ErrOutOfBounds when the position lies outside the region or
//     the vertical range
func (r *Region) SetBlock(x, y, z int32, b block.Block) (bool, error) {
	p := coord.Pos{X: x, Y: y, Z: z}
	if err := r.checkBlockPos(p); err != nil {
		return false, err
	}

	return r.blocks.Put(p, b), nil
}

// SetBlocks buffers a batch of block writes, stopping at the first invalid
// position.
//
// Returns:
//   - int: Number of writes buffered, duplicates excluded
//   - error: ErrOutOfBounds from the write that stopped the batch
func (r *Region) SetBlocks(writes []BlockWrite) (int, error) {
	accepted := 0
	for _, w := range writes {
		ok, err := r.SetBlock(w.X, w.Y, w.Z, w.Block)
		if err != nil {
			return accepted, err
		}
		if ok {
			accepted++
		}
	}

	return accepted, nil
}

// SetBiome buffers a biome write for the 4x4x4 cell containing the given
// block position. The write takes effect on the next WriteBiomes.
//
// Returns:
//   - bool: true when buffered, false when the cell already holds a pending
//     write
//   - error: ErrOutOfBounds when the position lies outside the region or
//     the vertical range
func (r *Region) SetBiome(x, y, z int32, bio block.Biome) (bool, error) {
	p := coord.Pos{X: x, Y: y, Z: z}
	if err := r.checkBlockPos(p); err != nil {
		return false, err
	}

	return r.biomes.Put(coord.Cell(p), bio), nil
}

// SetBiomes buffers a batch of biome writes, stopping at the first invalid
// position. Writes landing in the same cell collapse to the first one.
func (r *Region) SetBiomes(writes []BiomeWrite) (int, error) {
	accepted := 0
	for _, w := range writes {
		ok, err := r.SetBiome(w.X, w.Y, w.Z, w.Biome)
		if err != nil {
			return accepted, err
		}
		if ok {
			accepted++
		}
	}

	return accepted, nil
}

// SetSection fills an entire 16x16x16 section of one chunk with a single
// block, bypassing the edit buffer. The section's palette collapses to one
// entry, block entities within the section are dropped and the chunk's
// lighting is invalidated immediately.
func (r *Region) SetSection(cx, cz uint8, sy int8, b block.Block) error {
	if cx >= coord.RegionChunks || cz >= coord.RegionChunks {
		return fmt.Errorf("%w: chunk (%d, %d) outside region", errs.ErrOutOfBounds, cx, cz)
	}
	if !r.cfg.WorldRange.ContainsSection(sy) {
		return fmt.Errorf("%w: section y=%d outside world range", errs.ErrOutOfBounds, sy)
	}

	c, ok := r.Chunk(cx, cz)
	if !ok {
		return fmt.Errorf("%w: chunk (%d, %d)", errs.ErrChunkMissing, cx, cz)
	}
	if err := c.checkEditable(); err != nil {
		return err
	}

	c.ensureSection(sy).FillBlocks(b)

	minY := int32(sy) * coord.ChunkBlocks
	c.removeBlockEntities(func(p coord.Pos) bool {
		return p.Y >= minY && p.Y < minY+coord.ChunkBlocks
	})
	if r.cfg.UpdateLighting {
		c.invalidateLight([]int8{sy})
	}
	c.dirty = true

	return nil
}

// SetSections fills the same block into several sections of one chunk.
func (r *Region) SetSections(cx, cz uint8, sys []int8, b block.Block) error {
	for _, sy := range sys {
		if err := r.SetSection(cx, cz, sy, b); err != nil {
			return err
		}
	}

	return nil
}

// SetBiomeSection fills every biome cell of one 16x16x16 section with a
// single biome, bypassing the edit buffer. The section's biome palette
// collapses to one entry. Lighting is unaffected.
func (r *Region) SetBiomeSection(cx, cz uint8, sy int8, bio block.Biome) error {
	if cx >= coord.RegionChunks || cz >= coord.RegionChunks {
		return fmt.Errorf("%w: chunk (%d, %d) outside region", errs.ErrOutOfBounds, cx, cz)
	}
	if !r.cfg.WorldRange.ContainsSection(sy) {
		return fmt.Errorf("%w: section y=%d outside world range", errs.ErrOutOfBounds, sy)
	}

	c, ok := r.Chunk(cx, cz)
	if !ok {
		return fmt.Errorf("%w: chunk (%d, %d)", errs.ErrChunkMissing, cx, cz)
	}
	if err := c.checkEditable(); err != nil {
		return err
	}

	c.ensureSection(sy).FillBiomes(bio)
	c.dirty = true

	return nil
}

// ReserveBlocks hints the block buffer about an upcoming write volume.
func (r *Region) ReserveBlocks(n int) {
	r.blocks.Reserve(n)
}

// BlockBuffer exposes the region's pending block buffer.
func (r *Region) BlockBuffer() *BlockBuffer { return r.blocks }

// BiomeBuffer exposes the region's pending biome buffer.
func (r *Region) BiomeBuffer() *BiomeBuffer { return r.biomes }

// SwapBlockBuffer replaces the pending block buffer, returning the old one.
// The replacement must have been created for the same vertical range.
// Intended for callers that stage edits off-region and attach them later.
func (r *Region) SwapBlockBuffer(buf *BlockBuffer) (*BlockBuffer, error) {
	if buf.wr != r.cfg.WorldRange {
		return nil, fmt.Errorf("%w: buffer range [%d, %d) does not match region range [%d, %d)",
			errs.ErrOutOfBounds, buf.wr.Min, buf.wr.Max, r.cfg.WorldRange.Min, r.cfg.WorldRange.Max)
	}

	old := r.blocks
	r.blocks = buf

	return old, nil
}

// SwapBiomeBuffer replaces the pending biome buffer, returning the old one.
func (r *Region) SwapBiomeBuffer(buf *BiomeBuffer) (*BiomeBuffer, error) {
	if buf.wr != r.cfg.WorldRange {
		return nil, fmt.Errorf("%w: buffer range [%d, %d) does not match region range [%d, %d)",
			errs.ErrOutOfBounds, buf.wr.Min, buf.wr.Max, r.cfg.WorldRange.Min, r.cfg.WorldRange.Max)
	}

	old := r.biomes
	r.biomes = buf

	return old, nil
}
