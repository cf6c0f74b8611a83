package region

import (
	"fmt"

	"github.com/anvilmc/anvil/block"
	"github.com/anvilmc/anvil/coord"
	"github.com/anvilmc/anvil/errs"
)

// GetBlock reads the flushed block at region-local x/z and absolute y.
// Pending buffered writes are not visible.
//
// Returns:
//   - block.Block: The stored block; air when the chunk stores no section
//     at that height
//   - error: ErrOutOfBounds or ErrChunkMissing
func (r *Region) GetBlock(x, y, z int32) (block.Block, error) {
	p := coord.Pos{X: x, Y: y, Z: z}
	if err := r.checkBlockPos(p); err != nil {
		return block.Block{}, err
	}

	cx, cz := p.Chunk()
	c, ok := r.Chunk(cx, cz)
	if !ok {
		return block.Block{}, fmt.Errorf("%w: chunk (%d, %d)", errs.ErrChunkMissing, cx, cz)
	}

	s, ok := c.Section(coord.SectionY(p.Y))
	if !ok {
		return blockAir, nil
	}

	return s.blocks.Get(coord.BlockSlot(p)), nil
}

// GetBlocks reads a batch of flushed blocks, returning results in input
// order. Positions are grouped by chunk and section internally so each
// container is resolved once per group.
//
// Returns:
//   - []block.Block: One result per input position, in input order
//   - error: The first validation or missing-chunk error; no partial
//     results are returned
func (r *Region) GetBlocks(positions []coord.Pos) ([]block.Block, error) {
	for _, p := range positions {
		if err := r.checkBlockPos(p); err != nil {
			return nil, err
		}
	}

	bySection := groupBySection(positions)

	out := make([]block.Block, len(positions))
	for g, idxs := range bySection {
		c, ok := r.Chunk(g.key.cx, g.key.cz)
		if !ok {
			return nil, fmt.Errorf("%w: chunk (%d, %d)", errs.ErrChunkMissing, g.key.cx, g.key.cz)
		}
		s, ok := c.Section(g.sy)
		if !ok {
			for _, i := range idxs {
				out[i] = blockAir
			}

			continue
		}
		for _, i := range idxs {
			out[i] = s.blocks.Get(coord.BlockSlot(positions[i]))
		}
	}

	return out, nil
}

// sectionGroup addresses one section of one chunk within the region.
type sectionGroup struct {
	key chunkKey
	sy  int8
}

// groupBySection buckets position indices so each batched read resolves
// every chunk and section once per group.
func groupBySection(positions []coord.Pos) map[sectionGroup][]int {
	groups := make(map[sectionGroup][]int)
	for i, p := range positions {
		cx, cz := p.Chunk()
		g := sectionGroup{key: chunkKey{cx: cx, cz: cz}, sy: coord.SectionY(p.Y)}
		groups[g] = append(groups[g], i)
	}

	return groups
}

// GetBiome reads the flushed biome of the cell containing the given block
// position.
//
// Returns:
//   - block.Biome: The stored biome; plains when the chunk stores no
//     section at that height
//   - error: ErrOutOfBounds or ErrChunkMissing
func (r *Region) GetBiome(x, y, z int32) (block.Biome, error) {
	p := coord.Pos{X: x, Y: y, Z: z}
	if err := r.checkBlockPos(p); err != nil {
		return block.Biome{}, err
	}

	cx, cz := p.Chunk()
	c, ok := r.Chunk(cx, cz)
	if !ok {
		return block.Biome{}, fmt.Errorf("%w: chunk (%d, %d)", errs.ErrChunkMissing, cx, cz)
	}

	s, ok := c.Section(coord.SectionY(p.Y))
	if !ok {
		return biomePlains, nil
	}

	return s.biomes.Get(coord.BiomeSlot(p)), nil
}

// GetBiomes reads a batch of flushed biomes, one per input position, in
// input order.
func (r *Region) GetBiomes(positions []coord.Pos) ([]block.Biome, error) {
	for _, p := range positions {
		if err := r.checkBlockPos(p); err != nil {
			return nil, err
		}
	}

	bySection := groupBySection(positions)

	out := make([]block.Biome, len(positions))
	for g, idxs := range bySection {
		c, ok := r.Chunk(g.key.cx, g.key.cz)
		if !ok {
			return nil, fmt.Errorf("%w: chunk (%d, %d)", errs.ErrChunkMissing, g.key.cx, g.key.cz)
		}
		s, ok := c.Section(g.sy)
		if !ok {
			for _, i := range idxs {
				out[i] = biomePlains
			}

			continue
		}
		for _, i := range idxs {
			out[i] = s.biomes.Get(coord.BiomeSlot(positions[i]))
		}
	}

	return out, nil
}
