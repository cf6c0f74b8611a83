package region

import (
	"fmt"
	"io"

	mca "github.com/Tnze/go-mc/save/region"

	"github.com/anvilmc/anvil/compress"
	"github.com/anvilmc/anvil/coord"
	"github.com/anvilmc/anvil/errs"
	"github.com/anvilmc/anvil/format"
	"github.com/anvilmc/anvil/internal/pool"
)

// headerSize is the region container's offset and timestamp tables.
const headerSize = 8192

func formatCodec(ct format.CompressionType) (compress.Codec, error) {
	return compress.CreateCodec(ct, "region payload")
}

// memFile adapts a byte slice to the seekable file interface the container
// reader wants, growing on writes past the end.
type memFile struct {
	buf []byte
	off int64
}

func newMemFile(data []byte) *memFile {
	return &memFile{buf: data}
}

func (f *memFile) Read(p []byte) (int, error) {
	if f.off >= int64(len(f.buf)) {
		return 0, io.EOF
	}
	n := copy(p, f.buf[f.off:])
	f.off += int64(n)

	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	if end := f.off + int64(len(p)); end > int64(len(f.buf)) {
		if end <= int64(cap(f.buf)) {
			// Reused capacity may hold bytes from an earlier image; the
			// container writer seeks over sector padding expecting it to
			// read back as zeros.
			old := len(f.buf)
			f.buf = f.buf[:end]
			clear(f.buf[old:])
		} else {
			grown := make([]byte, end, end+end/4)
			copy(grown, f.buf)
			f.buf = grown
		}
	}
	n := copy(f.buf[f.off:], p)
	f.off += int64(n)

	return n, nil
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		f.off = offset
	case io.SeekCurrent:
		f.off += offset
	case io.SeekEnd:
		f.off = int64(len(f.buf)) + offset
	}
	if f.off < 0 {
		return 0, fmt.Errorf("%w: negative seek offset", errs.ErrSerialization)
	}

	return f.off, nil
}

func (f *memFile) Close() error { return nil }

// Load parses a serialized region container at the given region
// coordinates. Chunk payloads keep their original bytes, so chunks never
// edited serialize back untouched.
//
// Returns:
//   - *Region: The parsed region
//   - error: ErrSerialization wrapping container or NBT failures
func Load(data []byte, x, z int32, opts ...Option) (*Region, error) {
	r, err := New(x, z, opts...)
	if err != nil {
		return nil, err
	}

	f := newMemFile(data)
	container, err := mca.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%w: container: %w", errs.ErrSerialization, err)
	}
	defer container.Close()

	for cz := 0; cz < coord.RegionChunks; cz++ {
		for cx := 0; cx < coord.RegionChunks; cx++ {
			if !container.ExistSector(cx, cz) {
				continue
			}
			payload, err := container.ReadSector(cx, cz)
			if err != nil {
				return nil, fmt.Errorf("%w: chunk (%d, %d): %w", errs.ErrSerialization, cx, cz, err)
			}
			c, err := decodeChunkPayload(payload)
			if err != nil {
				return nil, fmt.Errorf("chunk (%d, %d): %w", cx, cz, err)
			}
			r.chunks[cz][cx] = c
		}
	}

	return r, nil
}

// ChunkPos is a region-local chunk position.
type ChunkPos struct {
	X, Z uint8
}

// FromChunkData builds a region from uncompressed chunk NBT payloads keyed
// by region-local chunk position. Positions absent from the map start
// missing, as with New.
func FromChunkData(x, z int32, payloads map[ChunkPos][]byte, opts ...Option) (*Region, error) {
	r, err := New(x, z, opts...)
	if err != nil {
		return nil, err
	}

	for p, payload := range payloads {
		if p.X >= coord.RegionChunks || p.Z >= coord.RegionChunks {
			return nil, fmt.Errorf("%w: chunk (%d, %d) outside region", errs.ErrOutOfBounds, p.X, p.Z)
		}
		c, err := chunkFromTree(payload)
		if err != nil {
			return nil, fmt.Errorf("chunk (%d, %d): %w", p.X, p.Z, err)
		}
		r.chunks[p.Z][p.X] = c
	}

	return r, nil
}

// decodeChunkPayload strips the compression id byte, decompresses and
// decodes one chunk.
func decodeChunkPayload(payload []byte) (*Chunk, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("%w: truncated chunk payload", errs.ErrSerialization)
	}

	ct := format.CompressionType(payload[0])
	codec, err := compress.GetCodec(ct)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrSerialization, err)
	}

	raw, err := codec.Decompress(payload[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrSerialization, err)
	}

	return chunkFromTree(raw)
}

// Store serializes the region into container bytes. Dirty chunks are
// re-encoded and compressed with the configured codec; untouched chunks
// keep their loaded payload bytes.
func (r *Region) Store() ([]byte, error) {
	f := newMemFile(make([]byte, 0, headerSize))
	if err := r.storeInto(f); err != nil {
		return nil, err
	}

	return f.buf, nil
}

// StoreTo serializes the region and writes the container image to w,
// keeping the scratch image in a pooled buffer.
//
// Returns:
//   - int64: Bytes written to w
//   - error: Serialization or write failure
func (r *Region) StoreTo(w io.Writer) (int64, error) {
	scratch := pool.GetRegionBuffer()
	defer func() { pool.PutRegionBuffer(scratch) }()

	f := newMemFile(scratch.B[:0])
	if err := r.storeInto(f); err != nil {
		return 0, err
	}
	scratch.B = f.buf

	n, err := w.Write(f.buf)

	return int64(n), err
}

func (r *Region) storeInto(f *memFile) error {
	codec, err := formatCodec(r.cfg.Compression)
	if err != nil {
		return err
	}

	container, err := mca.CreateWriter(f)
	if err != nil {
		return fmt.Errorf("%w: container: %w", errs.ErrSerialization, err)
	}
	defer container.Close()

	payload := pool.GetChunkBuffer()
	defer pool.PutChunkBuffer(payload)

	for cz := 0; cz < coord.RegionChunks; cz++ {
		for cx := 0; cx < coord.RegionChunks; cx++ {
			c := r.chunks[cz][cx]
			if c == nil {
				continue
			}

			raw := c.rawPayload
			if c.dirty || raw == nil {
				if raw, err = c.chunkToTree(r.cfg.WorldRange); err != nil {
					return fmt.Errorf("chunk (%d, %d): %w", cx, cz, err)
				}
			}

			compressed, err := codec.Compress(raw)
			if err != nil {
				return fmt.Errorf("%w: chunk (%d, %d): %w", errs.ErrSerialization, cx, cz, err)
			}

			payload.Reset()
			payload.MustWrite([]byte{byte(r.cfg.Compression)})
			payload.MustWrite(compressed)
			if err := container.WriteSector(cx, cz, payload.Bytes()); err != nil {
				return fmt.Errorf("%w: chunk (%d, %d): %w", errs.ErrSerialization, cx, cz, err)
			}
		}
	}

	if err := container.PadToFullSector(); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrSerialization, err)
	}

	return nil
}
