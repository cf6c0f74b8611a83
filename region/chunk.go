package region

import (
	"fmt"

	"github.com/Tnze/go-mc/nbt"

	"github.com/anvilmc/anvil/block"
	"github.com/anvilmc/anvil/coord"
	"github.com/anvilmc/anvil/errs"
	"github.com/anvilmc/anvil/palette"
)

const (
	// MinDataVersion is the oldest chunk data version the editor accepts;
	// older chunks predate the palettized biome format.
	MinDataVersion = 2860

	// DefaultDataVersion is stamped on chunks this library generates.
	DefaultDataVersion = 3465

	// StatusFull marks a chunk whose generation has finished. Only full
	// chunks accept edits.
	StatusFull = "minecraft:full"
)

var (
	blockAir    = block.Must("minecraft:air")
	biomePlains = block.MustName("minecraft:plains")
)

// Section is one 16x16x16 cube of a chunk: a block state container over
// 4096 slots and a biome container over 64 cells, plus any NBT fields the
// chunk carried that this library does not model.
type Section struct {
	y      int8
	blocks *palette.Container[block.Block]
	biomes *palette.Container[block.Biome]
	extra  map[string]nbt.RawMessage
}

// NewSection creates an all-air, all-plains section at the given section y.
func NewSection(y int8) *Section {
	return &Section{
		y:      y,
		blocks: palette.NewContainer(blockAir, coord.BlocksPerSection, palette.BlockBits),
		biomes: palette.NewContainer(biomePlains, coord.BiomesPerSection, palette.BiomeBits),
	}
}

// Y returns the section y coordinate.
func (s *Section) Y() int8 { return s.y }

// Blocks exposes the block state container.
func (s *Section) Blocks() *palette.Container[block.Block] { return s.blocks }

// Biomes exposes the biome container.
func (s *Section) Biomes() *palette.Container[block.Biome] { return s.biomes }

// FillBlocks resets every block slot to b with a single-entry palette.
func (s *Section) FillBlocks(b block.Block) {
	s.blocks.Fill(b)
}

// FillBiomes resets every biome cell to bio with a single-entry palette.
func (s *Section) FillBiomes(bio block.Biome) {
	s.biomes.Fill(bio)
}

// dropLight removes stored light arrays; they are recomputed by the game
// once isLightOn is cleared.
func (s *Section) dropLight() {
	delete(s.extra, "BlockLight")
	delete(s.extra, "SkyLight")
}

// blockEntity is a block entity compound with its position lifted out so
// overwritten entities can be dropped during a flush.
type blockEntity struct {
	pos coord.Pos // absolute block coordinates
	raw nbt.RawMessage
}

// Chunk is one 16x512x16 column of a region.
type Chunk struct {
	x, z        int32 // absolute chunk coordinates
	dataVersion int32
	status      string
	lightOn     bool
	sections    map[int8]*Section
	entities    []blockEntity
	heightmaps  map[string]nbt.RawMessage
	extra       map[string]nbt.RawMessage

	// rawPayload holds the chunk's original serialized NBT; untouched
	// chunks are stored back byte for byte.
	rawPayload []byte
	dirty      bool

	// fresh marks a chunk materialized during a flush. Fresh chunks carry
	// no stored lighting, so there is nothing to invalidate.
	fresh bool
}

// NewChunk creates a freshly generated empty chunk: no sections stored, all
// air and plains implied, full status, current data version.
func NewChunk(x, z int32, wr coord.WorldRange) *Chunk {
	c := &Chunk{
		x:           x,
		z:           z,
		dataVersion: DefaultDataVersion,
		status:      StatusFull,
		sections:    make(map[int8]*Section, wr.Sections()),
	}
	for sy := wr.MinSection(); sy < wr.MaxSection(); sy++ {
		c.sections[sy] = NewSection(sy)
	}

	return c
}

// X returns the absolute chunk x coordinate.
func (c *Chunk) X() int32 { return c.x }

// Z returns the absolute chunk z coordinate.
func (c *Chunk) Z() int32 { return c.z }

// DataVersion returns the chunk's data version.
func (c *Chunk) DataVersion() int32 { return c.dataVersion }

// Status returns the chunk's generation status.
func (c *Chunk) Status() string { return c.status }

// LightOn reports whether the chunk's stored lighting is valid.
func (c *Chunk) LightOn() bool { return c.lightOn }

// BlockEntities returns the chunk's block entity compounds.
func (c *Chunk) BlockEntities() []nbt.RawMessage {
	out := make([]nbt.RawMessage, 0, len(c.entities))
	for _, e := range c.entities {
		out = append(out, e.raw)
	}

	return out
}

// Section returns the section at the given section y, or false when the
// chunk stores none there.
func (c *Chunk) Section(sy int8) (*Section, bool) {
	s, ok := c.sections[sy]

	return s, ok
}

// ensureSection returns the section at sy, creating an empty one when the
// chunk stores none there.
func (c *Chunk) ensureSection(sy int8) *Section {
	if s, ok := c.sections[sy]; ok {
		return s
	}

	s := NewSection(sy)
	c.sections[sy] = s

	return s
}

// checkEditable gates edits on generation status and data version.
func (c *Chunk) checkEditable() error {
	if c.dataVersion < MinDataVersion {
		return fmt.Errorf("%w: chunk (%d, %d) has data version %d, need at least %d",
			errs.ErrUnsupportedVersion, c.x, c.z, c.dataVersion, MinDataVersion)
	}
	if c.status != StatusFull {
		return fmt.Errorf("%w: chunk (%d, %d) has status %q",
			errs.ErrChunkNotGenerated, c.x, c.z, c.status)
	}

	return nil
}

// invalidateLight marks stored lighting stale after an edit: the light flag
// is cleared and heightmaps are emptied chunk-wide, while light arrays are
// dropped only from the sections that received writes. Untouched sections
// keep theirs; the game recomputes everything on load anyway.
func (c *Chunk) invalidateLight(touched []int8) {
	c.lightOn = false
	c.heightmaps = nil
	for _, sy := range touched {
		if s, ok := c.sections[sy]; ok {
			s.dropLight()
		}
	}
}

// removeBlockEntities drops block entities whose position satisfies hit.
func (c *Chunk) removeBlockEntities(hit func(coord.Pos) bool) {
	kept := c.entities[:0]
	for _, e := range c.entities {
		if !hit(e.pos) {
			kept = append(kept, e)
		}
	}
	c.entities = kept
}
