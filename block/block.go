// Package block provides the normalized value types stored in section
// palettes: resource names, block states and biomes.
//
// Names follow the Minecraft resource location form "namespace:path". A bare
// path ("stone") is rewritten to the "minecraft" namespace at construction,
// so palette interning, equality and serialization all operate on one
// canonical shape and "stone" and "minecraft:stone" intern to the same entry.
package block

import (
	"fmt"
	"sort"
	"strings"

	"github.com/anvilmc/anvil/errs"
)

// DefaultNamespace is applied to bare identifiers at construction.
const DefaultNamespace = "minecraft"

// Name is a normalized resource location.
type Name struct {
	Namespace string
	Path      string
}

// MakeName builds a normalized Name from either a bare path or a
// "namespace:path" identifier, validating both pieces.
//
// Returns:
//   - Name: The normalized name
//   - error: ErrInvalidIdentifier if either piece is empty or holds
//     characters outside the resource-location charset
func MakeName(id string) (Name, error) {
	ns, path := DefaultNamespace, id
	if i := strings.IndexByte(id, ':'); i >= 0 {
		ns, path = id[:i], id[i+1:]
	}

	if ns == "" || path == "" {
		return Name{}, fmt.Errorf("%w: %q", errs.ErrInvalidIdentifier, id)
	}
	if !validNamespace(ns) {
		return Name{}, fmt.Errorf("%w: bad namespace in %q", errs.ErrInvalidIdentifier, id)
	}
	if !validPath(path) {
		return Name{}, fmt.Errorf("%w: bad path in %q", errs.ErrInvalidIdentifier, id)
	}

	return Name{Namespace: ns, Path: path}, nil
}

// MustName is MakeName for identifiers known to be valid at compile time.
// It panics on invalid input.
func MustName(id string) Name {
	n, err := MakeName(id)
	if err != nil {
		panic(err)
	}

	return n
}

// String returns the canonical "namespace:path" form.
func (n Name) String() string {
	return n.Namespace + ":" + n.Path
}

// IsZero reports whether the name is the zero value.
func (n Name) IsZero() bool {
	return n.Namespace == "" && n.Path == ""
}

// PaletteKey returns the canonical interning key for the name.
func (n Name) PaletteKey() string {
	return n.String()
}

// Biome identifies a biome; biomes are plain names with no properties.
type Biome = Name

func validNamespace(s string) bool {
	for i := 0; i < len(s); i++ {
		if !validChar(s[i]) {
			return false
		}
	}

	return true
}

func validPath(s string) bool {
	for i := 0; i < len(s); i++ {
		if !validChar(s[i]) && s[i] != '/' {
			return false
		}
	}

	return true
}

func validChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' || c == '-' || c == '.'
}

// Block is a block state: a normalized Name plus an optional set of
// property key/value pairs. Two Blocks are the same palette entry iff the
// name and the full property set match exactly.
type Block struct {
	Name       Name
	Properties map[string]string
}

// New builds a Block with no properties from a bare or namespaced
// identifier.
func New(id string) (Block, error) {
	n, err := MakeName(id)
	if err != nil {
		return Block{}, err
	}

	return Block{Name: n}, nil
}

// NewProps builds a Block with the given property map. Property keys and
// values must be non-empty.
func NewProps(id string, props map[string]string) (Block, error) {
	b, err := New(id)
	if err != nil {
		return Block{}, err
	}

	if len(props) == 0 {
		return b, nil
	}

	b.Properties = make(map[string]string, len(props))
	for k, v := range props {
		if k == "" || v == "" {
			return Block{}, fmt.Errorf("%w: empty property key or value on %q", errs.ErrInvalidIdentifier, id)
		}
		b.Properties[k] = v
	}

	return b, nil
}

// Must builds a Block from an identifier known to be valid, panicking
// otherwise. Intended for literals in callers and tests.
func Must(id string) Block {
	b, err := New(id)
	if err != nil {
		panic(err)
	}

	return b
}

// MustProps is NewProps for inputs known to be valid.
func MustProps(id string, props map[string]string) Block {
	b, err := NewProps(id, props)
	if err != nil {
		panic(err)
	}

	return b
}

// Equal reports structural equality over the normalized name and the full
// property set.
func (b Block) Equal(other Block) bool {
	if b.Name != other.Name || len(b.Properties) != len(other.Properties) {
		return false
	}
	for k, v := range b.Properties {
		if ov, ok := other.Properties[k]; !ok || ov != v {
			return false
		}
	}

	return true
}

// PaletteKey returns the canonical interning key: the name followed by the
// properties in sorted key order. Identical states always produce identical
// keys regardless of map iteration order.
func (b Block) PaletteKey() string {
	if len(b.Properties) == 0 {
		return b.Name.String()
	}

	keys := make([]string, 0, len(b.Properties))
	for k := range b.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(b.Name.String())
	sb.WriteByte('[')
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(b.Properties[k])
	}
	sb.WriteByte(']')

	return sb.String()
}

// String returns the palette key form, e.g. "minecraft:furnace[lit=true]".
func (b Block) String() string {
	return b.PaletteKey()
}
