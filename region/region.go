package region

import (
	"fmt"
	"runtime"

	"github.com/anvilmc/anvil/coord"
	"github.com/anvilmc/anvil/errs"
	"github.com/anvilmc/anvil/format"
	"github.com/anvilmc/anvil/internal/options"
)

// Config carries the tunables a Region is created with.
type Config struct {
	// WorldRange is the half-open vertical block range chunks span.
	WorldRange coord.WorldRange

	// Compression selects the payload codec used when storing the region
	// back into a container.
	Compression format.CompressionType

	// Workers bounds the flush fan-out. Zero means one worker per CPU.
	Workers int

	// CreateChunkIfMissing makes a flush materialize an empty chunk at any
	// missing position it touches instead of failing that chunk.
	CreateChunkIfMissing bool

	// UpdateLighting controls whether block flushes and section fills mark
	// stored lighting stale. Leave it on unless something else relights.
	UpdateLighting bool
}

// DefaultConfig returns the config a plain New uses: the overworld vertical
// range, zlib payloads and per-CPU flush workers.
func DefaultConfig() Config {
	return Config{
		WorldRange:     coord.DefaultWorldRange,
		Compression:    format.CompressionZlib,
		Workers:        runtime.GOMAXPROCS(0),
		UpdateLighting: true,
	}
}

// Region is a 32x32 chunk grid with buffered block and biome edits.
//
// A Region is safe for concurrent buffered writes (SetBlock, SetBiome and
// friends). Reads, flushes and serialization must not race each other or
// the buffered writes.
type Region struct {
	x, z   int32
	cfg    Config
	chunks [coord.RegionChunks][coord.RegionChunks]*Chunk

	blocks *BlockBuffer
	biomes *BiomeBuffer
}

// Option configures a Region during construction.
type Option = options.Option[*Region]

// WithWorldRange sets the vertical block range. Both bounds must be section
// aligned.
func WithWorldRange(wr coord.WorldRange) Option {
	return options.New(func(r *Region) error {
		if wr.Min%coord.ChunkBlocks != 0 || wr.Max%coord.ChunkBlocks != 0 || wr.Min >= wr.Max {
			return fmt.Errorf("%w: world range [%d, %d) is not section aligned", errs.ErrOutOfBounds, wr.Min, wr.Max)
		}
		r.cfg.WorldRange = wr

		return nil
	})
}

// WithCompression selects the payload codec used by Store.
func WithCompression(ct format.CompressionType) Option {
	return options.New(func(r *Region) error {
		if _, err := formatCodec(ct); err != nil {
			return err
		}
		r.cfg.Compression = ct

		return nil
	})
}

// WithWorkers bounds the flush fan-out.
func WithWorkers(n int) Option {
	return options.NoError(func(r *Region) {
		if n > 0 {
			r.cfg.Workers = n
		}
	})
}

// WithChunkCreation makes flushes materialize empty chunks at missing
// positions instead of reporting them as per-chunk failures.
func WithChunkCreation(enabled bool) Option {
	return options.NoError(func(r *Region) {
		r.cfg.CreateChunkIfMissing = enabled
	})
}

// WithLightingUpdates controls lighting invalidation after edits.
func WithLightingUpdates(enabled bool) Option {
	return options.NoError(func(r *Region) {
		r.cfg.UpdateLighting = enabled
	})
}

// New creates a region at the given region coordinates with no chunks.
// Every chunk position starts missing; buffered edits that land on a
// missing chunk surface as per-chunk flush failures.
func New(x, z int32, opts ...Option) (*Region, error) {
	r := &Region{x: x, z: z, cfg: DefaultConfig()}
	if err := options.Apply(r, opts...); err != nil {
		return nil, err
	}

	r.blocks = NewBlockBuffer(r.cfg.WorldRange)
	r.biomes = NewBiomeBuffer(r.cfg.WorldRange)

	return r, nil
}

// NewFilled creates a region whose every chunk position holds a freshly
// generated empty chunk: all air, plains biomes, full status, current data
// version.
func NewFilled(x, z int32, opts ...Option) (*Region, error) {
	r, err := New(x, z, opts...)
	if err != nil {
		return nil, err
	}

	for cz := range r.chunks {
		for cx := range r.chunks[cz] {
			r.chunks[cz][cx] = NewChunk(r.chunkX(uint8(cx)), r.chunkZ(uint8(cz)), r.cfg.WorldRange)
		}
	}

	return r, nil
}

// X returns the region x coordinate.
func (r *Region) X() int32 { return r.x }

// Z returns the region z coordinate.
func (r *Region) Z() int32 { return r.z }

// Config returns the region's config.
func (r *Region) Config() Config { return r.cfg }

// SetConfig replaces the region's config; the change takes effect at the
// next flush or store. The world range is fixed at construction because the
// edit buffers are sized by it.
//
// Returns:
//   - error: ErrOutOfBounds when the world range differs, or an invalid
//     compression type
func (r *Region) SetConfig(cfg Config) error {
	if cfg.WorldRange != r.cfg.WorldRange {
		return fmt.Errorf("%w: world range [%d, %d) cannot change after construction",
			errs.ErrOutOfBounds, cfg.WorldRange.Min, cfg.WorldRange.Max)
	}
	if _, err := formatCodec(cfg.Compression); err != nil {
		return err
	}
	r.cfg = cfg

	return nil
}

// WorldRange returns the vertical block range.
func (r *Region) WorldRange() coord.WorldRange { return r.cfg.WorldRange }

// Chunk returns the chunk at region-local chunk coordinates, or false when
// the position holds no chunk.
func (r *Region) Chunk(cx, cz uint8) (*Chunk, bool) {
	c := r.chunks[cz][cx]

	return c, c != nil
}

// PutChunk installs a chunk at region-local chunk coordinates, replacing
// whatever was there.
func (r *Region) PutChunk(cx, cz uint8, c *Chunk) {
	r.chunks[cz][cx] = c
}

// RemoveChunk clears the chunk position back to missing.
func (r *Region) RemoveChunk(cx, cz uint8) {
	r.chunks[cz][cx] = nil
}

// chunkX returns the absolute chunk x coordinate for a region-local one.
func (r *Region) chunkX(cx uint8) int32 {
	return r.x*coord.RegionChunks + int32(cx)
}

func (r *Region) chunkZ(cz uint8) int32 {
	return r.z*coord.RegionChunks + int32(cz)
}

// Allocate discards every pending write and pre-builds both edit buffers'
// grouping maps for a planned edit pass over the half-open chunk ranges
// [cx0, cx1) x [cz0, cz1) and section range [sy0, sy1), giving every
// targeted section an edit list of capacity perSection. Writes outside the
// ranges still work; they just allocate on first use.
//
// Returns:
//   - error: ErrOutOfBounds when a range is empty, exceeds the chunk grid
//     or leaves the vertical range
func (r *Region) Allocate(cx0, cx1, cz0, cz1 uint8, sy0, sy1 int8, perSection int) error {
	if cx0 >= cx1 || cz0 >= cz1 || cx1 > coord.RegionChunks || cz1 > coord.RegionChunks {
		return fmt.Errorf("%w: chunk range [%d, %d) x [%d, %d)", errs.ErrOutOfBounds, cx0, cx1, cz0, cz1)
	}
	if sy0 >= sy1 || !r.cfg.WorldRange.ContainsSection(sy0) || !r.cfg.WorldRange.ContainsSection(sy1-1) {
		return fmt.Errorf("%w: section range [%d, %d)", errs.ErrOutOfBounds, sy0, sy1)
	}

	r.blocks.allocate(cx0, cx1, cz0, cz1, sy0, sy1, perSection)
	r.biomes.allocate(cx0, cx1, cz0, cz1, sy0, sy1, perSection)

	return nil
}

// checkBlockPos validates a region-local block position.
func (r *Region) checkBlockPos(p coord.Pos) error {
	if p.X < 0 || p.X >= coord.RegionBlocks || p.Z < 0 || p.Z >= coord.RegionBlocks {
		return fmt.Errorf("%w: block (%d, %d) outside region", errs.ErrOutOfBounds, p.X, p.Z)
	}

	return r.cfg.WorldRange.CheckY(p.Y)
}
