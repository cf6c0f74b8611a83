// Package anvil provides buffered, palette-aware editing of Minecraft
// save regions.
//
// A region is a 512x512-block square of the world stored as 32x32 chunks in
// one container file. This package parses those containers, buffers block
// and biome writes with region-wide deduplication, folds them into
// per-section palettes in parallel, and serializes the result back with
// untouched chunks preserved byte for byte.
//
// # Basic Usage
//
// Editing a region file:
//
//	import "github.com/anvilmc/anvil"
//
//	// Region coordinates are parsed from the r.<x>.<z>.mca name.
//	r, _ := anvil.OpenRegionFile("world/region/r.0.0.mca")
//
//	stone := anvil.MustBlock("stone")
//	r.SetBlock(10, 64, 10, stone)       // region-local x/z, absolute y
//	r.SetBiome(10, 64, 10, anvil.MustBiome("desert"))
//
//	res, _ := r.Flush()
//	if err := res.Err(); err != nil {
//	    // failed chunks keep their writes buffered
//	}
//
//	_ = anvil.SaveRegionFile("world/region/r.0.0.mca", r)
//
// Creating a region from nothing:
//
//	r, _ := anvil.NewFilledRegion(0, 0)
//	_ = r.SetSection(0, 0, 4, anvil.MustBlock("deepslate"))
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the region
// package, simplifying the most common use cases. For advanced usage and
// fine-grained control, use the region, block, palette and coord packages
// directly.
package anvil

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/anvilmc/anvil/block"
	"github.com/anvilmc/anvil/errs"
	"github.com/anvilmc/anvil/region"
)

// Aliases for the core types so simple callers need only this package.
type (
	Region      = region.Region
	Chunk       = region.Chunk
	FlushResult = region.FlushResult
	Block       = block.Block
	Biome       = block.Biome
)

// NewBlock builds a block state from a bare or namespaced identifier.
func NewBlock(id string) (Block, error) {
	return block.New(id)
}

// MustBlock is NewBlock for identifiers known to be valid; it panics
// otherwise.
func MustBlock(id string) Block {
	return block.Must(id)
}

// NewBiome builds a biome from a bare or namespaced identifier.
func NewBiome(id string) (Biome, error) {
	return block.MakeName(id)
}

// MustBiome is NewBiome for identifiers known to be valid; it panics
// otherwise.
func MustBiome(id string) Biome {
	return block.MustName(id)
}

// NewRegion creates an empty region with no chunks at the given region
// coordinates.
func NewRegion(x, z int32, opts ...region.Option) (*Region, error) {
	return region.New(x, z, opts...)
}

// NewFilledRegion creates a region whose every chunk is a freshly generated
// empty chunk.
func NewFilledRegion(x, z int32, opts ...region.Option) (*Region, error) {
	return region.NewFilled(x, z, opts...)
}

// ParseRegionName extracts the region coordinates from a container file
// name of the conventional r.<x>.<z>.mca form.
//
// Returns:
//   - int32: Region x coordinate
//   - int32: Region z coordinate
//   - error: ErrInvalidIdentifier when the name has a different shape
func ParseRegionName(name string) (int32, int32, error) {
	parts := strings.Split(filepath.Base(name), ".")
	if len(parts) != 4 || parts[0] != "r" || parts[3] != "mca" {
		return 0, 0, fmt.Errorf("%w: region file name %q", errs.ErrInvalidIdentifier, name)
	}

	x, err := strconv.ParseInt(parts[1], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: region file name %q", errs.ErrInvalidIdentifier, name)
	}
	z, err := strconv.ParseInt(parts[2], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: region file name %q", errs.ErrInvalidIdentifier, name)
	}

	return int32(x), int32(z), nil
}

// OpenRegion parses a region container file at explicit region coordinates.
func OpenRegion(path string, x, z int32, opts ...region.Option) (*Region, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return region.Load(data, x, z, opts...)
}

// OpenRegionFile parses a region container file, taking the region
// coordinates from its r.<x>.<z>.mca name.
func OpenRegionFile(path string, opts ...region.Option) (*Region, error) {
	x, z, err := ParseRegionName(path)
	if err != nil {
		return nil, err
	}

	return OpenRegion(path, x, z, opts...)
}

// SaveRegionFile serializes the region and writes it to path.
func SaveRegionFile(path string, r *Region) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := r.StoreTo(f); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}
