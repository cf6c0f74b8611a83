// Package errs defines the sentinel error values shared across the anvil
// packages.
//
// Call sites wrap these with fmt.Errorf("%w: detail", ...) so callers can
// match on the kind with errors.Is while still seeing the specific context.
package errs

import "errors"

var (
	// ErrOutOfBounds indicates a coordinate outside the supported world
	// volume, a slot index outside its array, or a malformed biome cell
	// address.
	ErrOutOfBounds = errors.New("coordinate out of bounds")

	// ErrChunkMissing indicates the target chunk position holds no chunk.
	ErrChunkMissing = errors.New("chunk missing")

	// ErrInvalidIdentifier indicates an empty or malformed resource name,
	// or an empty block property key/value.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrChunkNotGenerated indicates the chunk has not reached the
	// "minecraft:full" generation status and cannot be safely edited.
	ErrChunkNotGenerated = errors.New("chunk not fully generated")

	// ErrUnsupportedVersion indicates the chunk's DataVersion predates the
	// palette-based chunk layout this library targets.
	ErrUnsupportedVersion = errors.New("unsupported chunk data version")

	// ErrSerialization indicates a malformed tag tree or a truncated or
	// corrupt region container.
	ErrSerialization = errors.New("serialization failure")
)
