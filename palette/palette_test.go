package palette

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type key string

func (k key) PaletteKey() string { return string(k) }

func TestPaletteIntern(t *testing.T) {
	t.Run("FillAtZero", func(t *testing.T) {
		p := New[key]("air")
		require.Equal(t, 1, p.Len())
		require.Equal(t, key("air"), p.Get(0))
	})

	t.Run("DeduplicatesByKey", func(t *testing.T) {
		p := New[key]("air")
		a := p.Intern("stone")
		b := p.Intern("stone")
		require.Equal(t, a, b)
		require.Equal(t, 2, p.Len())
	})

	t.Run("StableIndices", func(t *testing.T) {
		p := New[key]("air")
		stone := p.Intern("stone")
		dirt := p.Intern("dirt")
		require.Equal(t, uint32(1), stone)
		require.Equal(t, uint32(2), dirt)

		again, ok := p.IndexOf("stone")
		require.True(t, ok)
		require.Equal(t, stone, again)
	})

	t.Run("IndexOfMissing", func(t *testing.T) {
		p := New[key]("air")
		_, ok := p.IndexOf("stone")
		require.False(t, ok)
	})
}

func TestPaletteCompact(t *testing.T) {
	p := New[key]("air")
	p.Intern("stone")
	p.Intern("dirt")
	p.Intern("gravel")

	// Only air and dirt survive.
	remap := p.Compact([]bool{true, false, true, false})
	require.Equal(t, 2, p.Len())
	require.Equal(t, key("air"), p.Get(remap[0]))
	require.Equal(t, key("dirt"), p.Get(remap[2]))
}

func TestIndexArrayPacking(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		a := NewIndexArray(4, 4096)
		for i := 0; i < 4096; i++ {
			a.Set(i, uint32(i%16))
		}
		for i := 0; i < 4096; i++ {
			require.Equal(t, uint32(i%16), a.Get(i))
		}
	})

	t.Run("WordCount", func(t *testing.T) {
		// 4 bits: 16 per word, 4096 slots -> 256 words.
		require.Len(t, NewIndexArray(4, 4096).Words(), 256)
		// 5 bits: 12 per word with 4 spare bits, 4096 slots -> 342 words.
		require.Len(t, NewIndexArray(5, 4096).Words(), 342)
		// 3 bits: 21 per word, 64 slots -> 4 words.
		require.Len(t, NewIndexArray(3, 64).Words(), 4)
	})

	t.Run("NoStraddle", func(t *testing.T) {
		// At 5 bits the 12th index occupies bits 55..59; bits 60..63 stay
		// unused and the 13th index starts a fresh word.
		a := NewIndexArray(5, 24)
		a.Set(11, 31)
		a.Set(12, 31)
		require.Equal(t, uint64(31)<<55, a.Words()[0])
		require.Equal(t, uint64(31), a.Words()[1])
	})

	t.Run("ZeroBits", func(t *testing.T) {
		a := NewIndexArray(0, 4096)
		require.Nil(t, a.Words())
		require.Equal(t, uint32(0), a.Get(123))
	})

	t.Run("Repack", func(t *testing.T) {
		a := NewIndexArray(4, 64)
		for i := 0; i < 64; i++ {
			a.Set(i, uint32(i%16))
		}
		a.Repack(7)
		require.Equal(t, uint(7), a.Bits())
		for i := 0; i < 64; i++ {
			require.Equal(t, uint32(i%16), a.Get(i))
		}
	})

	t.Run("FromWordsLengthMismatch", func(t *testing.T) {
		_, err := FromWords(4, 4096, make([]uint64, 255))
		require.Error(t, err)
	})
}

func TestBitsPolicies(t *testing.T) {
	t.Run("Blocks", func(t *testing.T) {
		require.Equal(t, uint(0), BlockBits(1))
		require.Equal(t, uint(4), BlockBits(2))
		require.Equal(t, uint(4), BlockBits(16))
		require.Equal(t, uint(5), BlockBits(17))
		require.Equal(t, uint(6), BlockBits(33))
	})

	t.Run("Biomes", func(t *testing.T) {
		require.Equal(t, uint(0), BiomeBits(1))
		require.Equal(t, uint(1), BiomeBits(2))
		require.Equal(t, uint(2), BiomeBits(3))
		require.Equal(t, uint(3), BiomeBits(8))
		require.Equal(t, uint(4), BiomeBits(9))
	})
}

func TestContainer(t *testing.T) {
	t.Run("UniformStart", func(t *testing.T) {
		c := NewContainer[key]("air", 4096, BlockBits)
		fill, ok := c.Uniform()
		require.True(t, ok)
		require.Equal(t, key("air"), fill)
		require.Equal(t, uint(0), c.Index().Bits())
	})

	t.Run("GrowOnSeventeenthEntry", func(t *testing.T) {
		c := NewContainer[key]("air", 4096, BlockBits)
		for i := 0; i < 16; i++ {
			c.Set(i, key(fmt.Sprintf("block_%d", i)))
		}
		// 17 palette entries now, width must be 5.
		require.Equal(t, 17, c.Palette().Len())
		require.Equal(t, uint(5), c.Index().Bits())
		for i := 0; i < 16; i++ {
			require.Equal(t, key(fmt.Sprintf("block_%d", i)), c.Get(i))
		}
	})

	t.Run("CompactNarrows", func(t *testing.T) {
		c := NewContainer[key]("air", 64, BiomeBits)
		for i := 0; i < 8; i++ {
			c.Set(i, key(fmt.Sprintf("biome_%d", i)))
		}
		// Overwrite everything with one biome; only it should survive.
		for i := 0; i < 64; i++ {
			c.Set(i, key("plains"))
		}
		c.Compact()
		require.Equal(t, 1, c.Palette().Len())
		require.Equal(t, uint(0), c.Index().Bits())
		require.Equal(t, key("plains"), c.Get(0))
	})

	t.Run("Fill", func(t *testing.T) {
		c := NewContainer[key]("air", 64, BiomeBits)
		c.Set(3, key("stone"))
		c.Fill(key("plains"))
		require.Equal(t, 1, c.Palette().Len())
		require.Equal(t, key("plains"), c.Get(3))
	})
}
