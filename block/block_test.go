package block

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anvilmc/anvil/errs"
)

func TestMakeName(t *testing.T) {
	t.Run("BareIdentifier", func(t *testing.T) {
		n, err := MakeName("stone")
		require.NoError(t, err)
		require.Equal(t, "minecraft", n.Namespace)
		require.Equal(t, "stone", n.Path)
		require.Equal(t, "minecraft:stone", n.String())
	})

	t.Run("NamespacedIdentifier", func(t *testing.T) {
		n, err := MakeName("mymod:custom_ore")
		require.NoError(t, err)
		require.Equal(t, "mymod", n.Namespace)
		require.Equal(t, "custom_ore", n.Path)
	})

	t.Run("NormalizationEquality", func(t *testing.T) {
		a, err := MakeName("stone")
		require.NoError(t, err)
		b, err := MakeName("minecraft:stone")
		require.NoError(t, err)
		require.Equal(t, a, b)
	})

	t.Run("PathAllowsSlash", func(t *testing.T) {
		n, err := MakeName("minecraft:block/stone")
		require.NoError(t, err)
		require.Equal(t, "block/stone", n.Path)
	})

	t.Run("Invalid", func(t *testing.T) {
		cases := []string{
			"",
			":",
			"minecraft:",
			":stone",
			"Minecraft:stone",
			"minecraft:Stone",
			"minecraft:sto ne",
			"my/mod:stone",
		}
		for _, id := range cases {
			_, err := MakeName(id)
			require.ErrorIs(t, err, errs.ErrInvalidIdentifier, "id=%q", id)
		}
	})
}

func TestBlockEqual(t *testing.T) {
	t.Run("NoProperties", func(t *testing.T) {
		require.True(t, Must("stone").Equal(Must("minecraft:stone")))
		require.False(t, Must("stone").Equal(Must("dirt")))
	})

	t.Run("Properties", func(t *testing.T) {
		a := MustProps("furnace", map[string]string{"lit": "true", "facing": "north"})
		b := MustProps("minecraft:furnace", map[string]string{"facing": "north", "lit": "true"})
		require.True(t, a.Equal(b))

		c := MustProps("furnace", map[string]string{"lit": "false", "facing": "north"})
		require.False(t, a.Equal(c))
	})

	t.Run("PropertyCount", func(t *testing.T) {
		a := MustProps("furnace", map[string]string{"lit": "true"})
		b := Must("furnace")
		require.False(t, a.Equal(b))
		require.False(t, b.Equal(a))
	})
}

func TestPaletteKey(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		b := MustProps("furnace", map[string]string{"lit": "true", "facing": "north"})
		require.Equal(t, "minecraft:furnace[facing=north,lit=true]", b.PaletteKey())
	})

	t.Run("NoProperties", func(t *testing.T) {
		require.Equal(t, "minecraft:stone", Must("stone").PaletteKey())
	})

	t.Run("EqualStatesShareKeys", func(t *testing.T) {
		a := MustProps("oak_stairs", map[string]string{"half": "top", "facing": "east", "shape": "straight"})
		b := MustProps("minecraft:oak_stairs", map[string]string{"shape": "straight", "half": "top", "facing": "east"})
		require.Equal(t, a.PaletteKey(), b.PaletteKey())
	})
}

func TestNewProps(t *testing.T) {
	t.Run("EmptyKeyRejected", func(t *testing.T) {
		_, err := NewProps("furnace", map[string]string{"": "true"})
		require.ErrorIs(t, err, errs.ErrInvalidIdentifier)
	})

	t.Run("EmptyValueRejected", func(t *testing.T) {
		_, err := NewProps("furnace", map[string]string{"lit": ""})
		require.ErrorIs(t, err, errs.ErrInvalidIdentifier)
	})

	t.Run("CopiesInput", func(t *testing.T) {
		props := map[string]string{"lit": "true"}
		b, err := NewProps("furnace", props)
		require.NoError(t, err)

		props["lit"] = "false"
		require.Equal(t, "true", b.Properties["lit"])
	})
}
