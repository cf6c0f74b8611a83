package region

import (
	"sync"

	"github.com/willf/bitset"

	"github.com/anvilmc/anvil/block"
	"github.com/anvilmc/anvil/coord"
)

// chunkKey addresses one chunk position within the region grid.
type chunkKey struct {
	cx, cz uint8
}

type blockEdit struct {
	pos coord.Pos // region-local x/z, absolute y
	b   block.Block
}

type biomeEdit struct {
	cell coord.Pos // cell coordinates
	b    block.Biome
}

// BlockBuffer accumulates pending block writes, grouped by chunk and
// section so a flush never re-sorts them. A region-wide bitset keeps at
// most one pending write per coordinate: the first write to a coordinate
// wins, later ones are reported as duplicates and dropped.
//
// Safe for concurrent use.
type BlockBuffer struct {
	mu      sync.Mutex
	wr      coord.WorldRange
	seen    *bitset.BitSet
	pending map[chunkKey]map[int8][]blockEdit
	hint    int
	count   int
}

// NewBlockBuffer creates an empty buffer for the given vertical range.
func NewBlockBuffer(wr coord.WorldRange) *BlockBuffer {
	return &BlockBuffer{
		wr:      wr,
		seen:    bitset.New(uint(coord.RegionBlocks * coord.RegionBlocks * wr.Height())),
		pending: make(map[chunkKey]map[int8][]blockEdit),
	}
}

// Reserve sizes upcoming per-section edit lists for roughly n writes spread
// over the chunks they land in. A hint only; the buffer grows regardless.
func (b *BlockBuffer) Reserve(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hint = n / (coord.RegionChunks * coord.RegionChunks)
	if b.hint < 16 {
		b.hint = 16
	}
}

// allocate discards every pending write and pre-builds the grouping map
// for the given half-open chunk and section ranges, giving each targeted
// section an edit list of capacity perSection.
func (b *BlockBuffer) allocate(cx0, cx1, cz0, cz1 uint8, sy0, sy1 int8, perSection int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seen.ClearAll()
	b.count = 0
	if perSection > 0 {
		b.hint = perSection
	}
	b.pending = make(map[chunkKey]map[int8][]blockEdit, int(cx1-cx0)*int(cz1-cz0))
	for cz := cz0; cz < cz1; cz++ {
		for cx := cx0; cx < cx1; cx++ {
			sections := make(map[int8][]blockEdit, int(sy1-sy0))
			for sy := sy0; sy < sy1; sy++ {
				sections[sy] = make([]blockEdit, 0, perSection)
			}
			b.pending[chunkKey{cx: cx, cz: cz}] = sections
		}
	}
}

func (b *BlockBuffer) bit(p coord.Pos) uint {
	return uint(p.Y-b.wr.Min)*coord.RegionBlocks*coord.RegionBlocks +
		uint(p.Z)*coord.RegionBlocks + uint(p.X)
}

// Put records a pending write. The position must be pre-validated.
//
// Returns:
//   - bool: true when recorded, false when the coordinate already holds a
//     pending write and the new one was dropped
func (b *BlockBuffer) Put(p coord.Pos, bl block.Block) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	bit := b.bit(p)
	if b.seen.Test(bit) {
		return false
	}
	b.seen.Set(bit)

	cx, cz := p.Chunk()
	key := chunkKey{cx: cx, cz: cz}
	sections := b.pending[key]
	if sections == nil {
		sections = make(map[int8][]blockEdit, 4)
		b.pending[key] = sections
	}
	sy := coord.SectionY(p.Y)
	if sections[sy] == nil && b.hint > 0 {
		sections[sy] = make([]blockEdit, 0, b.hint)
	}
	sections[sy] = append(sections[sy], blockEdit{pos: p, b: bl})
	b.count++

	return true
}

// Len returns the number of pending writes.
func (b *BlockBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count
}

// chunks returns the keys of every chunk with pending writes. Chunks only
// pre-sized by allocate are skipped until something lands in them.
func (b *BlockBuffer) chunks() []chunkKey {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]chunkKey, 0, len(b.pending))
	for k, sections := range b.pending {
		n := 0
		for _, edits := range sections {
			n += len(edits)
		}
		if n > 0 {
			keys = append(keys, k)
		}
	}

	return keys
}

// peek returns the pending writes for one chunk without removing them.
// Flush workers for distinct chunks never touch the same entry.
func (b *BlockBuffer) peek(k chunkKey) map[int8][]blockEdit {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.pending[k]
}

// commit discards a chunk's pending writes after they were applied,
// releasing their coordinates for future writes. Failed chunks are not
// committed: their writes and coordinate claims stay pending for a retry.
func (b *BlockBuffer) commit(k chunkKey) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, edits := range b.pending[k] {
		for _, e := range edits {
			b.seen.Clear(b.bit(e.pos))
		}
		b.count -= len(edits)
	}
	delete(b.pending, k)
}

// BiomeBuffer is the biome counterpart of BlockBuffer, deduplicating at
// 4x4x4 cell granularity.
//
// Safe for concurrent use.
type BiomeBuffer struct {
	mu      sync.Mutex
	wr      coord.WorldRange
	seen    *bitset.BitSet
	pending map[chunkKey]map[int8][]biomeEdit
	count   int
}

// NewBiomeBuffer creates an empty buffer for the given vertical range.
func NewBiomeBuffer(wr coord.WorldRange) *BiomeBuffer {
	cells := coord.RegionBlocks / coord.BiomeCellBlocks

	return &BiomeBuffer{
		wr:      wr,
		seen:    bitset.New(uint(cells * cells * (wr.Height() / coord.BiomeCellBlocks))),
		pending: make(map[chunkKey]map[int8][]biomeEdit),
	}
}

// allocate mirrors BlockBuffer.allocate at cell granularity. A section
// holds at most 64 biome cells, so the per-section capacity is capped
// there.
func (b *BiomeBuffer) allocate(cx0, cx1, cz0, cz1 uint8, sy0, sy1 int8, perSection int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seen.ClearAll()
	b.count = 0
	if perSection > coord.BiomesPerSection {
		perSection = coord.BiomesPerSection
	}
	b.pending = make(map[chunkKey]map[int8][]biomeEdit, int(cx1-cx0)*int(cz1-cz0))
	for cz := cz0; cz < cz1; cz++ {
		for cx := cx0; cx < cx1; cx++ {
			sections := make(map[int8][]biomeEdit, int(sy1-sy0))
			for sy := sy0; sy < sy1; sy++ {
				sections[sy] = make([]biomeEdit, 0, perSection)
			}
			b.pending[chunkKey{cx: cx, cz: cz}] = sections
		}
	}
}

func (b *BiomeBuffer) bit(cell coord.Pos) uint {
	const cells = coord.RegionBlocks / coord.BiomeCellBlocks
	minCell := b.wr.Min / coord.BiomeCellBlocks

	return uint(cell.Y-minCell)*cells*cells + uint(cell.Z)*cells + uint(cell.X)
}

// Put records a pending biome write for the cell. The cell must be
// pre-validated.
func (b *BiomeBuffer) Put(cell coord.Pos, bio block.Biome) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	bit := b.bit(cell)
	if b.seen.Test(bit) {
		return false
	}
	b.seen.Set(bit)

	cx, cz := coord.CellChunk(cell)
	key := chunkKey{cx: cx, cz: cz}
	sections := b.pending[key]
	if sections == nil {
		sections = make(map[int8][]biomeEdit, 4)
		b.pending[key] = sections
	}
	sy := coord.CellSectionY(cell.Y)
	sections[sy] = append(sections[sy], biomeEdit{cell: cell, b: bio})
	b.count++

	return true
}

// Len returns the number of pending writes.
func (b *BiomeBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count
}

func (b *BiomeBuffer) chunks() []chunkKey {
	b.mu.Lock()
	defer b.mu.Unlock()

	keys := make([]chunkKey, 0, len(b.pending))
	for k, sections := range b.pending {
		n := 0
		for _, edits := range sections {
			n += len(edits)
		}
		if n > 0 {
			keys = append(keys, k)
		}
	}

	return keys
}

func (b *BiomeBuffer) peek(k chunkKey) map[int8][]biomeEdit {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.pending[k]
}

func (b *BiomeBuffer) commit(k chunkKey) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, edits := range b.pending[k] {
		for _, e := range edits {
			b.seen.Clear(b.bit(e.cell))
		}
		b.count -= len(edits)
	}
	delete(b.pending, k)
}
