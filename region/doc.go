// Package region implements editing of 512x512-block save regions: the
// Region aggregate with its 32x32 chunk grid, buffered block and biome
// writes, the flush engine that folds buffered edits into per-section
// palettes, and the serialization bridge to NBT chunk trees and region
// containers.
//
// Block and biome coordinates are region-local on the horizontal axes
// (0..511 for blocks, cell coordinates for biomes) and absolute on the
// vertical axis. Writes accumulate in deduplicating buffers and take effect
// only when WriteBlocks or WriteBiomes folds them into chunk data; reads
// always see flushed state only.
package region
