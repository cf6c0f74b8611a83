package anvil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anvilmc/anvil/errs"
)

func TestParseRegionName(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		cases := []struct {
			name string
			x, z int32
		}{
			{"r.0.0.mca", 0, 0},
			{"r.-1.2.mca", -1, 2},
			{"world/region/r.12.-34.mca", 12, -34},
		}
		for _, c := range cases {
			x, z, err := ParseRegionName(c.name)
			require.NoError(t, err, c.name)
			require.Equal(t, c.x, x)
			require.Equal(t, c.z, z)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, name := range []string{"r.0.0.mcr", "region.mca", "r.a.b.mca", "r.0.mca"} {
			_, _, err := ParseRegionName(name)
			require.ErrorIs(t, err, errs.ErrInvalidIdentifier, name)
		}
	})
}

func TestRegionFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "r.1.-1.mca")

	r, err := NewFilledRegion(1, -1)
	require.NoError(t, err)

	ok, err := r.SetBlock(100, 70, 100, MustBlock("diamond_block"))
	require.NoError(t, err)
	require.True(t, ok)

	res, err := r.Flush()
	require.NoError(t, err)
	require.NoError(t, res.Err())

	require.NoError(t, SaveRegionFile(path, r))

	loaded, err := OpenRegionFile(path)
	require.NoError(t, err)
	require.Equal(t, int32(1), loaded.X())
	require.Equal(t, int32(-1), loaded.Z())

	got, err := loaded.GetBlock(100, 70, 100)
	require.NoError(t, err)
	require.True(t, got.Equal(MustBlock("diamond_block")))
}

func TestOpenRegionMissingFile(t *testing.T) {
	_, err := OpenRegion(filepath.Join(t.TempDir(), "r.0.0.mca"), 0, 0)
	require.Error(t, err)
}
