package region

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/Tnze/go-mc/nbt"

	"github.com/anvilmc/anvil/block"
	"github.com/anvilmc/anvil/coord"
	"github.com/anvilmc/anvil/errs"
	"github.com/anvilmc/anvil/internal/pool"
	"github.com/anvilmc/anvil/palette"
)

// The chunk tree is decoded into a compound of raw messages and only the
// keys this library models are lifted out. Everything else stays raw and is
// stored back byte for byte, so fields newer than this library survive a
// load/edit/store cycle.

// rawEncode marshals a Go value and strips the root tag header, leaving a
// bare raw message.
func rawEncode(v any) (nbt.RawMessage, error) {
	data, err := nbt.Marshal(v)
	if err != nil {
		return nbt.RawMessage{}, fmt.Errorf("%w: %w", errs.ErrSerialization, err)
	}

	// Root header is the tag type and an empty two-byte name.
	return nbt.RawMessage{Type: data[0], Data: data[3:]}, nil
}

// rawDecode unmarshals a raw message into v by re-attaching a root header.
func rawDecode(m nbt.RawMessage, v any) error {
	buf := make([]byte, 0, len(m.Data)+3)
	buf = append(buf, m.Type, 0, 0)
	buf = append(buf, m.Data...)
	if err := nbt.Unmarshal(buf, v); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrSerialization, err)
	}

	return nil
}

// rawList assembles a list tag from pre-encoded elements of one tag type.
// An empty list carries the end tag as its element type, matching vanilla
// output.
func rawList(elemType byte, elems []nbt.RawMessage) nbt.RawMessage {
	var buf bytes.Buffer
	if len(elems) == 0 {
		elemType = nbt.TagEnd
	}
	buf.WriteByte(elemType)

	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(elems)))
	buf.Write(n[:])

	for _, e := range elems {
		buf.Write(e.Data)
	}

	return nbt.RawMessage{Type: nbt.TagList, Data: buf.Bytes()}
}

// decodeInt reads any integral tag as int32. Chunk trees in the wild store
// section Y as a byte but some tools write ints.
func decodeInt(m nbt.RawMessage) (int32, error) {
	switch m.Type {
	case nbt.TagByte:
		var v int8
		if err := rawDecode(m, &v); err != nil {
			return 0, err
		}

		return int32(v), nil
	case nbt.TagShort:
		var v int16
		if err := rawDecode(m, &v); err != nil {
			return 0, err
		}

		return int32(v), nil
	case nbt.TagInt:
		var v int32
		if err := rawDecode(m, &v); err != nil {
			return 0, err
		}

		return v, nil
	case nbt.TagLong:
		var v int64
		if err := rawDecode(m, &v); err != nil {
			return 0, err
		}

		return int32(v), nil
	default:
		return 0, fmt.Errorf("%w: tag type %d is not integral", errs.ErrSerialization, m.Type)
	}
}

type blockStateEntry struct {
	Name       string            `nbt:"Name"`
	Properties map[string]string `nbt:"Properties"`
}

type blockStateEntryBare struct {
	Name string `nbt:"Name"`
}

type palettedData struct {
	Palette nbt.RawMessage `nbt:"palette"`
	Data    []int64        `nbt:"data"`
}

type blockEntityPos struct {
	X int32 `nbt:"x"`
	Y int32 `nbt:"y"`
	Z int32 `nbt:"z"`
}

// chunkFromTree decodes a serialized chunk NBT tree.
func chunkFromTree(payload []byte) (*Chunk, error) {
	var tree map[string]nbt.RawMessage
	if err := nbt.Unmarshal(payload, &tree); err != nil {
		return nil, fmt.Errorf("%w: chunk tree: %w", errs.ErrSerialization, err)
	}

	c := &Chunk{
		sections: make(map[int8]*Section),
		extra:    tree,
	}
	c.rawPayload = payload

	if m, ok := tree["DataVersion"]; ok {
		v, err := decodeInt(m)
		if err != nil {
			return nil, err
		}
		c.dataVersion = v
		delete(tree, "DataVersion")
	}
	if m, ok := tree["xPos"]; ok {
		v, err := decodeInt(m)
		if err != nil {
			return nil, err
		}
		c.x = v
		delete(tree, "xPos")
	}
	if m, ok := tree["zPos"]; ok {
		v, err := decodeInt(m)
		if err != nil {
			return nil, err
		}
		c.z = v
		delete(tree, "zPos")
	}
	if m, ok := tree["Status"]; ok {
		if err := rawDecode(m, &c.status); err != nil {
			return nil, err
		}
		delete(tree, "Status")
	}
	if m, ok := tree["isLightOn"]; ok {
		v, err := decodeInt(m)
		if err != nil {
			return nil, err
		}
		c.lightOn = v != 0
		delete(tree, "isLightOn")
	}
	if m, ok := tree["Heightmaps"]; ok {
		if err := rawDecode(m, &c.heightmaps); err != nil {
			return nil, err
		}
		delete(tree, "Heightmaps")
	}
	if m, ok := tree["block_entities"]; ok {
		var raws []nbt.RawMessage
		if err := rawDecode(m, &raws); err != nil {
			return nil, err
		}
		c.entities = make([]blockEntity, 0, len(raws))
		for _, raw := range raws {
			var bp blockEntityPos
			if err := rawDecode(raw, &bp); err != nil {
				return nil, err
			}
			c.entities = append(c.entities, blockEntity{
				pos: coord.Pos{X: bp.X, Y: bp.Y, Z: bp.Z},
				raw: raw,
			})
		}
		delete(tree, "block_entities")
	}
	if m, ok := tree["sections"]; ok {
		var raws []nbt.RawMessage
		if err := rawDecode(m, &raws); err != nil {
			return nil, err
		}
		for _, raw := range raws {
			s, err := sectionFromRaw(raw)
			if err != nil {
				return nil, err
			}
			c.sections[s.y] = s
		}
		delete(tree, "sections")
	}

	return c, nil
}

func sectionFromRaw(raw nbt.RawMessage) (*Section, error) {
	var tree map[string]nbt.RawMessage
	if err := rawDecode(raw, &tree); err != nil {
		return nil, err
	}

	s := &Section{extra: tree}

	m, ok := tree["Y"]
	if !ok {
		return nil, fmt.Errorf("%w: section without Y", errs.ErrSerialization)
	}
	y, err := decodeInt(m)
	if err != nil {
		return nil, err
	}
	s.y = int8(y)
	delete(tree, "Y")

	s.blocks = palette.NewContainer(blockAir, coord.BlocksPerSection, palette.BlockBits)
	if m, ok := tree["block_states"]; ok {
		s.blocks, err = blockContainerFromRaw(m)
		if err != nil {
			return nil, fmt.Errorf("section y=%d: %w", s.y, err)
		}
		delete(tree, "block_states")
	}

	s.biomes = palette.NewContainer(biomePlains, coord.BiomesPerSection, palette.BiomeBits)
	if m, ok := tree["biomes"]; ok {
		s.biomes, err = biomeContainerFromRaw(m)
		if err != nil {
			return nil, fmt.Errorf("section y=%d: %w", s.y, err)
		}
		delete(tree, "biomes")
	}

	return s, nil
}

func blockContainerFromRaw(m nbt.RawMessage) (*palette.Container[block.Block], error) {
	var pd palettedData
	if err := rawDecode(m, &pd); err != nil {
		return nil, err
	}

	var rawEntries []blockStateEntry
	if err := rawDecode(pd.Palette, &rawEntries); err != nil {
		return nil, err
	}
	if len(rawEntries) == 0 {
		return nil, fmt.Errorf("%w: empty block palette", errs.ErrSerialization)
	}

	entries := make([]block.Block, 0, len(rawEntries))
	for _, e := range rawEntries {
		b, err := block.NewProps(e.Name, e.Properties)
		if err != nil {
			return nil, err
		}
		entries = append(entries, b)
	}

	pal := palette.FromEntries(entries)
	idx, err := indexArrayFromData(pd.Data, palette.BlockBits(pal.Len()), coord.BlocksPerSection)
	if err != nil {
		return nil, err
	}
	if err := checkIndexRange(idx, pal.Len()); err != nil {
		return nil, err
	}

	return palette.Assemble(pal, idx, palette.BlockBits), nil
}

func biomeContainerFromRaw(m nbt.RawMessage) (*palette.Container[block.Biome], error) {
	var pd palettedData
	if err := rawDecode(m, &pd); err != nil {
		return nil, err
	}

	var names []string
	if err := rawDecode(pd.Palette, &names); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: empty biome palette", errs.ErrSerialization)
	}

	entries := make([]block.Biome, 0, len(names))
	for _, n := range names {
		bio, err := block.MakeName(n)
		if err != nil {
			return nil, err
		}
		entries = append(entries, bio)
	}

	pal := palette.FromEntries(entries)
	idx, err := indexArrayFromData(pd.Data, palette.BiomeBits(pal.Len()), coord.BiomesPerSection)
	if err != nil {
		return nil, err
	}
	if err := checkIndexRange(idx, pal.Len()); err != nil {
		return nil, err
	}

	return palette.Assemble(pal, idx, palette.BiomeBits), nil
}

func indexArrayFromData(data []int64, bits uint, slots int) (*palette.IndexArray, error) {
	words := make([]uint64, len(data))
	for i, w := range data {
		words[i] = uint64(w)
	}

	return palette.FromWords(bits, slots, words)
}

// checkIndexRange rejects decoded packed values pointing outside the
// palette. Slot values come straight from the container, so they cannot be
// trusted to resolve.
func checkIndexRange(idx *palette.IndexArray, paletteLen int) error {
	for i := 0; i < idx.Slots(); i++ {
		if v := idx.Get(i); int(v) >= paletteLen {
			return fmt.Errorf("%w: packed index %d out of range for palette of %d entries",
				errs.ErrSerialization, v, paletteLen)
		}
	}

	return nil
}

// chunkToTree encodes the chunk back into a serialized NBT tree.
func (c *Chunk) chunkToTree(wr coord.WorldRange) ([]byte, error) {
	tree := make(map[string]nbt.RawMessage, len(c.extra)+8)
	for k, v := range c.extra {
		tree[k] = v
	}

	var err error
	if tree["DataVersion"], err = rawEncode(c.dataVersion); err != nil {
		return nil, err
	}
	if tree["xPos"], err = rawEncode(c.x); err != nil {
		return nil, err
	}
	if tree["zPos"], err = rawEncode(c.z); err != nil {
		return nil, err
	}
	if _, ok := tree["yPos"]; !ok {
		if tree["yPos"], err = rawEncode(int32(wr.MinSection())); err != nil {
			return nil, err
		}
	}
	if tree["Status"], err = rawEncode(c.status); err != nil {
		return nil, err
	}

	lightOn := int8(0)
	if c.lightOn {
		lightOn = 1
	}
	if tree["isLightOn"], err = rawEncode(lightOn); err != nil {
		return nil, err
	}

	heightmaps := c.heightmaps
	if heightmaps == nil {
		heightmaps = map[string]nbt.RawMessage{}
	}
	if tree["Heightmaps"], err = rawEncode(heightmaps); err != nil {
		return nil, err
	}

	entityRaws := make([]nbt.RawMessage, 0, len(c.entities))
	for _, e := range c.entities {
		entityRaws = append(entityRaws, e.raw)
	}
	tree["block_entities"] = rawList(nbt.TagCompound, entityRaws)

	sectionYs := make([]int, 0, len(c.sections))
	for sy := range c.sections {
		sectionYs = append(sectionYs, int(sy))
	}
	sort.Ints(sectionYs)

	sectionRaws := make([]nbt.RawMessage, 0, len(sectionYs))
	for _, sy := range sectionYs {
		raw, err := c.sections[int8(sy)].toRaw()
		if err != nil {
			return nil, err
		}
		sectionRaws = append(sectionRaws, raw)
	}
	tree["sections"] = rawList(nbt.TagCompound, sectionRaws)

	payload, err := nbt.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: chunk tree: %w", errs.ErrSerialization, err)
	}

	return payload, nil
}

func (s *Section) toRaw() (nbt.RawMessage, error) {
	tree := make(map[string]nbt.RawMessage, len(s.extra)+3)
	for k, v := range s.extra {
		tree[k] = v
	}

	var err error
	if tree["Y"], err = rawEncode(s.y); err != nil {
		return nbt.RawMessage{}, err
	}

	if tree["block_states"], err = blockContainerToRaw(s.blocks); err != nil {
		return nbt.RawMessage{}, err
	}
	if tree["biomes"], err = biomeContainerToRaw(s.biomes); err != nil {
		return nbt.RawMessage{}, err
	}

	return rawEncode(tree)
}

func blockContainerToRaw(c *palette.Container[block.Block]) (nbt.RawMessage, error) {
	entries := c.Palette().Entries()
	entryRaws := make([]nbt.RawMessage, 0, len(entries))
	for _, b := range entries {
		var raw nbt.RawMessage
		var err error
		if len(b.Properties) == 0 {
			raw, err = rawEncode(blockStateEntryBare{Name: b.Name.String()})
		} else {
			raw, err = rawEncode(blockStateEntry{Name: b.Name.String(), Properties: b.Properties})
		}
		if err != nil {
			return nbt.RawMessage{}, err
		}
		entryRaws = append(entryRaws, raw)
	}

	tree := map[string]nbt.RawMessage{
		"palette": rawList(nbt.TagCompound, entryRaws),
	}
	if err := putIndexData(tree, c.Index()); err != nil {
		return nbt.RawMessage{}, err
	}

	return rawEncode(tree)
}

func biomeContainerToRaw(c *palette.Container[block.Biome]) (nbt.RawMessage, error) {
	entries := c.Palette().Entries()
	names, release := pool.GetStringSlice(len(entries))
	defer release()
	for i, bio := range entries {
		names[i] = bio.String()
	}

	paletteRaw, err := rawEncode(names)
	if err != nil {
		return nbt.RawMessage{}, err
	}

	tree := map[string]nbt.RawMessage{"palette": paletteRaw}
	if err := putIndexData(tree, c.Index()); err != nil {
		return nbt.RawMessage{}, err
	}

	return rawEncode(tree)
}

// putIndexData adds the packed "data" field, omitted entirely at zero width.
func putIndexData(tree map[string]nbt.RawMessage, idx *palette.IndexArray) error {
	words := idx.Words()
	if words == nil {
		return nil
	}

	data, release := pool.GetInt64Slice(len(words))
	defer release()
	for i, w := range words {
		data[i] = int64(w)
	}

	raw, err := rawEncode(data)
	if err != nil {
		return err
	}
	tree["data"] = raw

	return nil
}
