package region

import (
	"bytes"
	"io"
	"testing"

	"github.com/Tnze/go-mc/nbt"
	"github.com/stretchr/testify/require"

	"github.com/anvilmc/anvil/block"
	"github.com/anvilmc/anvil/coord"
	"github.com/anvilmc/anvil/errs"
	"github.com/anvilmc/anvil/format"
)

func TestChunkTreeRoundTrip(t *testing.T) {
	r, err := NewFilled(0, 0)
	require.NoError(t, err)
	require.NoError(t, r.SetSection(0, 0, 4, block.MustProps("oak_stairs", map[string]string{"facing": "east"})))

	c, _ := r.Chunk(0, 0)
	payload, err := c.chunkToTree(r.WorldRange())
	require.NoError(t, err)

	decoded, err := chunkFromTree(payload)
	require.NoError(t, err)

	require.Equal(t, c.X(), decoded.X())
	require.Equal(t, c.Z(), decoded.Z())
	require.Equal(t, c.DataVersion(), decoded.DataVersion())
	require.Equal(t, c.Status(), decoded.Status())
	require.False(t, decoded.LightOn())
	require.Len(t, decoded.sections, len(c.sections))

	s, ok := decoded.Section(4)
	require.True(t, ok)
	fill, uniform := s.Blocks().Uniform()
	require.True(t, uniform)
	require.True(t, fill.Equal(block.MustProps("oak_stairs", map[string]string{"facing": "east"})))
}

func TestChunkTreeKeepsUnknownFields(t *testing.T) {
	r, err := NewFilled(0, 0)
	require.NoError(t, err)
	c, _ := r.Chunk(0, 0)

	custom, err := rawEncode("hello")
	require.NoError(t, err)
	c.extra = map[string]nbt.RawMessage{"CustomField": custom}

	payload, err := c.chunkToTree(r.WorldRange())
	require.NoError(t, err)

	decoded, err := chunkFromTree(payload)
	require.NoError(t, err)

	got, ok := decoded.extra["CustomField"]
	require.True(t, ok)
	var s string
	require.NoError(t, rawDecode(got, &s))
	require.Equal(t, "hello", s)
}

func TestChunkTreeMultiEntryPalette(t *testing.T) {
	r, err := NewFilled(0, 0)
	require.NoError(t, err)

	blocks := []block.Block{
		block.Must("stone"),
		block.Must("dirt"),
		block.MustProps("furnace", map[string]string{"lit": "true", "facing": "north"}),
	}
	for i, b := range blocks {
		_, err := r.SetBlock(int32(i), 0, 0, b)
		require.NoError(t, err)
	}
	res, err := r.WriteBlocks()
	require.NoError(t, err)
	require.NoError(t, res.Err())

	c, _ := r.Chunk(0, 0)
	payload, err := c.chunkToTree(r.WorldRange())
	require.NoError(t, err)

	decoded, err := chunkFromTree(payload)
	require.NoError(t, err)

	for i, b := range blocks {
		s, ok := decoded.Section(0)
		require.True(t, ok)
		got := s.Blocks().Get(coord.BlockSlot(coord.Pos{X: int32(i), Y: 0, Z: 0}))
		require.True(t, got.Equal(b), "slot %d", i)
	}
}

func TestBlockEntityRemoval(t *testing.T) {
	r, err := NewFilled(0, 0)
	require.NoError(t, err)
	c, _ := r.Chunk(0, 0)

	chest, err := rawEncode(map[string]nbt.RawMessage{})
	require.NoError(t, err)
	c.entities = []blockEntity{
		{pos: coord.Pos{X: 5, Y: 64, Z: 5}, raw: chest},
		{pos: coord.Pos{X: 6, Y: 64, Z: 5}, raw: chest},
	}

	// Overwriting (5, 64, 5) must drop its block entity and keep the other.
	_, err = r.SetBlock(5, 64, 5, block.Must("stone"))
	require.NoError(t, err)
	res, err := r.WriteBlocks()
	require.NoError(t, err)
	require.NoError(t, res.Err())

	require.Len(t, c.BlockEntities(), 1)
	require.Equal(t, coord.Pos{X: 6, Y: 64, Z: 5}, c.entities[0].pos)
}

func TestBlockEntityRemovalSetSection(t *testing.T) {
	r, err := NewFilled(0, 0)
	require.NoError(t, err)
	c, _ := r.Chunk(0, 0)

	chest, err := rawEncode(map[string]nbt.RawMessage{})
	require.NoError(t, err)
	c.entities = []blockEntity{
		{pos: coord.Pos{X: 5, Y: 64, Z: 5}, raw: chest},  // section 4
		{pos: coord.Pos{X: 5, Y: 100, Z: 5}, raw: chest}, // section 6
	}

	require.NoError(t, r.SetSection(0, 0, 4, block.Must("stone")))
	require.Len(t, c.BlockEntities(), 1)
}

func TestStoreLoadRoundTrip(t *testing.T) {
	r, err := NewFilled(1, -1)
	require.NoError(t, err)

	_, err = r.SetBlock(10, 64, 10, block.Must("stone"))
	require.NoError(t, err)
	_, err = r.SetBiome(10, 64, 10, block.MustName("desert"))
	require.NoError(t, err)
	res, err := r.Flush()
	require.NoError(t, err)
	require.NoError(t, res.Err())

	data, err := r.Store()
	require.NoError(t, err)
	require.NotEmpty(t, data)
	// Container data is sector aligned.
	require.Zero(t, len(data)%4096)

	loaded, err := Load(data, 1, -1)
	require.NoError(t, err)

	got, err := loaded.GetBlock(10, 64, 10)
	require.NoError(t, err)
	require.True(t, got.Equal(block.Must("stone")))

	bio, err := loaded.GetBiome(10, 64, 10)
	require.NoError(t, err)
	require.Equal(t, block.MustName("desert"), bio)

	c, ok := loaded.Chunk(0, 0)
	require.True(t, ok)
	require.Equal(t, int32(32), c.X())
	require.Equal(t, int32(-32), c.Z())
}

func TestStoreCompressionTypes(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionGzip,
		format.CompressionZlib,
		format.CompressionNone,
		format.CompressionLZ4,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			r, err := NewFilled(0, 0, WithCompression(ct))
			require.NoError(t, err)
			_, err = r.SetBlock(0, 0, 0, block.Must("stone"))
			require.NoError(t, err)
			res, err := r.WriteBlocks()
			require.NoError(t, err)
			require.NoError(t, res.Err())

			data, err := r.Store()
			require.NoError(t, err)

			loaded, err := Load(data, 0, 0)
			require.NoError(t, err)
			got, err := loaded.GetBlock(0, 0, 0)
			require.NoError(t, err)
			require.True(t, got.Equal(block.Must("stone")))
		})
	}
}

func TestStoreToMatchesStore(t *testing.T) {
	r, err := NewFilled(0, 0)
	require.NoError(t, err)
	_, err = r.SetBlock(0, 0, 0, block.Must("stone"))
	require.NoError(t, err)
	res, err := r.WriteBlocks()
	require.NoError(t, err)
	require.NoError(t, res.Err())

	direct, err := r.Store()
	require.NoError(t, err)

	var streamed bytes.Buffer
	n, err := r.StoreTo(&streamed)
	require.NoError(t, err)
	require.Equal(t, int64(streamed.Len()), n)
	require.Equal(t, len(direct), streamed.Len())
}

func TestLoadGarbage(t *testing.T) {
	_, err := Load([]byte{1, 2, 3}, 0, 0)
	require.Error(t, err)
}

// badBlockStates builds a block_states compound whose packed data stores an
// index the two-entry palette cannot resolve.
func badBlockStates(t *testing.T) nbt.RawMessage {
	t.Helper()

	air, err := rawEncode(blockStateEntryBare{Name: "minecraft:air"})
	require.NoError(t, err)
	stone, err := rawEncode(blockStateEntryBare{Name: "minecraft:stone"})
	require.NoError(t, err)

	// Two entries pack at 4 bits: 256 words for 4096 slots. Slot 0 holds
	// index 15.
	data := make([]int64, 256)
	data[0] = 0xF
	dataRaw, err := rawEncode(data)
	require.NoError(t, err)

	m, err := rawEncode(map[string]nbt.RawMessage{
		"palette": rawList(nbt.TagCompound, []nbt.RawMessage{air, stone}),
		"data":    dataRaw,
	})
	require.NoError(t, err)

	return m
}

func TestDecodeRejectsOutOfRangeIndices(t *testing.T) {
	t.Run("Blocks", func(t *testing.T) {
		_, err := blockContainerFromRaw(badBlockStates(t))
		require.ErrorIs(t, err, errs.ErrSerialization)
	})

	t.Run("Biomes", func(t *testing.T) {
		names, err := rawEncode([]string{"minecraft:plains", "minecraft:desert", "minecraft:taiga"})
		require.NoError(t, err)

		// Three entries pack at 2 bits: 2 words for 64 cells. Cell 0 holds
		// index 3.
		data := make([]int64, 2)
		data[0] = 0x3
		dataRaw, err := rawEncode(data)
		require.NoError(t, err)

		m, err := rawEncode(map[string]nbt.RawMessage{
			"palette": names,
			"data":    dataRaw,
		})
		require.NoError(t, err)

		_, err = biomeContainerFromRaw(m)
		require.ErrorIs(t, err, errs.ErrSerialization)
	})

	t.Run("WholeChunkPayload", func(t *testing.T) {
		yRaw, err := rawEncode(int8(0))
		require.NoError(t, err)
		sec, err := rawEncode(map[string]nbt.RawMessage{
			"Y":            yRaw,
			"block_states": badBlockStates(t),
		})
		require.NoError(t, err)

		tree := map[string]nbt.RawMessage{}
		for k, v := range map[string]any{
			"DataVersion": int32(DefaultDataVersion),
			"xPos":        int32(0),
			"zPos":        int32(0),
			"Status":      StatusFull,
		} {
			raw, err := rawEncode(v)
			require.NoError(t, err)
			tree[k] = raw
		}
		tree["sections"] = rawList(nbt.TagCompound, []nbt.RawMessage{sec})

		payload, err := nbt.Marshal(tree)
		require.NoError(t, err)

		_, err = FromChunkData(0, 0, map[ChunkPos][]byte{{X: 0, Z: 0}: payload})
		require.ErrorIs(t, err, errs.ErrSerialization)
	})
}

func TestMemFileReusedCapacityReadsZero(t *testing.T) {
	// The container writer seeks over sector padding without writing it,
	// so capacity reused from an earlier image must come back zeroed.
	backing := bytes.Repeat([]byte{0xAB}, 64)
	f := newMemFile(backing[:0])

	_, err := f.Seek(16, io.SeekStart)
	require.NoError(t, err)
	n, err := f.Write([]byte{0xCC})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.Len(t, f.buf, 17)
	for i := 0; i < 16; i++ {
		require.Zero(t, f.buf[i], "padding byte %d", i)
	}
	require.Equal(t, byte(0xCC), f.buf[16])
}
