package region

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/anvilmc/anvil/coord"
	"github.com/anvilmc/anvil/errs"
)

// ChunkFailure records why one chunk rejected its buffered writes during a
// flush. The chunk's writes stay buffered for a retry.
type ChunkFailure struct {
	X, Z uint8 // region-local chunk coordinates
	Err  error
}

// FlushResult aggregates the outcome of one WriteBlocks or WriteBiomes
// call. A flush is never all-or-nothing: healthy chunks commit even when
// others fail.
type FlushResult struct {
	// Applied is the number of buffered writes folded into chunk data.
	Applied int

	// Failures lists the chunks that rejected their writes, ordered by
	// chunk z then x.
	Failures []ChunkFailure
}

// Err returns nil when every chunk committed, otherwise an error naming
// the failed chunks that wraps the first chunk error.
func (fr *FlushResult) Err() error {
	if len(fr.Failures) == 0 {
		return nil
	}

	return fmt.Errorf("%d chunk(s) failed to flush: %w", len(fr.Failures), fr.Failures[0].Err)
}

// WriteBlocks folds every buffered block write into chunk data. Chunks are
// processed in parallel; within one chunk writes apply in buffer order.
//
// Each touched chunk has its palette indices resolved through the section
// containers, overwritten block entities dropped, palettes compacted and
// lighting invalidated. Committed chunks release their buffered writes;
// failed chunks keep them.
//
// Returns:
//   - *FlushResult: Applied count and per-chunk failures
//   - error: Always nil today; reserved for systemic failures
func (r *Region) WriteBlocks() (*FlushResult, error) {
	keys := r.blocks.chunks()
	r.materializeMissing(keys)
	res := &FlushResult{}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.workers())

	for _, key := range keys {
		key := key
		g.Go(func() error {
			applied, err := r.flushChunkBlocks(key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failures = append(res.Failures, ChunkFailure{X: key.cx, Z: key.cz, Err: err})

				return nil
			}
			res.Applied += applied
			r.blocks.commit(key)

			return nil
		})
	}
	_ = g.Wait()

	sortFailures(res.Failures)

	return res, nil
}

// WriteBiomes folds every buffered biome write into chunk data. Biome
// writes do not invalidate lighting.
func (r *Region) WriteBiomes() (*FlushResult, error) {
	keys := r.biomes.chunks()
	r.materializeMissing(keys)
	res := &FlushResult{}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(r.workers())

	for _, key := range keys {
		key := key
		g.Go(func() error {
			applied, err := r.flushChunkBiomes(key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				res.Failures = append(res.Failures, ChunkFailure{X: key.cx, Z: key.cz, Err: err})

				return nil
			}
			res.Applied += applied
			r.biomes.commit(key)

			return nil
		})
	}
	_ = g.Wait()

	sortFailures(res.Failures)

	return res, nil
}

// Flush runs WriteBlocks then WriteBiomes and merges the results.
func (r *Region) Flush() (*FlushResult, error) {
	blocks, err := r.WriteBlocks()
	if err != nil {
		return nil, err
	}
	biomes, err := r.WriteBiomes()
	if err != nil {
		return nil, err
	}

	merged := &FlushResult{
		Applied:  blocks.Applied + biomes.Applied,
		Failures: append(blocks.Failures, biomes.Failures...),
	}
	sortFailures(merged.Failures)

	return merged, nil
}

// materializeMissing creates empty chunks at missing flush targets when the
// region is configured to. Runs before the fan-out; chunk installation is
// not safe to race.
func (r *Region) materializeMissing(keys []chunkKey) {
	if !r.cfg.CreateChunkIfMissing {
		return
	}
	for _, key := range keys {
		key := key
		if _, ok := r.Chunk(key.cx, key.cz); ok {
			continue
		}
		c := NewChunk(r.chunkX(key.cx), r.chunkZ(key.cz), r.cfg.WorldRange)
		c.fresh = true
		r.PutChunk(key.cx, key.cz, c)
	}
}

func (r *Region) workers() int {
	if r.cfg.Workers > 0 {
		return r.cfg.Workers
	}

	return 1
}

func sortFailures(failures []ChunkFailure) {
	sort.Slice(failures, func(i, j int) bool {
		if failures[i].Z != failures[j].Z {
			return failures[i].Z < failures[j].Z
		}

		return failures[i].X < failures[j].X
	})
}

// flushChunkBlocks applies one chunk's buffered block writes. Runs on one
// worker per chunk; distinct chunks share no mutable state.
func (r *Region) flushChunkBlocks(key chunkKey) (int, error) {
	c, ok := r.Chunk(key.cx, key.cz)
	if !ok {
		return 0, fmt.Errorf("%w: chunk (%d, %d)", errs.ErrChunkMissing, key.cx, key.cz)
	}
	if err := c.checkEditable(); err != nil {
		return 0, err
	}

	edits := r.blocks.peek(key)
	applied := 0
	overwritten := make(map[coord.Pos]struct{})

	for sy, list := range edits {
		s := c.ensureSection(sy)
		for _, e := range list {
			s.blocks.Set(coord.BlockSlot(e.pos), e.b)
			overwritten[coord.Pos{
				X: r.x*coord.RegionBlocks + e.pos.X,
				Y: e.pos.Y,
				Z: r.z*coord.RegionBlocks + e.pos.Z,
			}] = struct{}{}
			applied++
		}
	}

	c.removeBlockEntities(func(p coord.Pos) bool {
		_, hit := overwritten[p]

		return hit
	})

	touched := make([]int8, 0, len(edits))
	for sy := range edits {
		c.sections[sy].blocks.Compact()
		touched = append(touched, sy)
	}
	if r.cfg.UpdateLighting && !c.fresh {
		c.invalidateLight(touched)
	}
	c.dirty = true

	return applied, nil
}

func (r *Region) flushChunkBiomes(key chunkKey) (int, error) {
	c, ok := r.Chunk(key.cx, key.cz)
	if !ok {
		return 0, fmt.Errorf("%w: chunk (%d, %d)", errs.ErrChunkMissing, key.cx, key.cz)
	}
	if err := c.checkEditable(); err != nil {
		return 0, err
	}

	edits := r.biomes.peek(key)
	applied := 0

	for sy, list := range edits {
		s := c.ensureSection(sy)
		for _, e := range list {
			s.biomes.Set(coord.CellSlot(e.cell), e.b)
			applied++
		}
	}

	for sy := range edits {
		c.sections[sy].biomes.Compact()
	}
	c.dirty = true

	return applied, nil
}
