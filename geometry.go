package ground

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidKey is returned when a square identifier cannot be parsed or lies
// outside the board geometry.
var ErrInvalidKey = errors.New("invalid square key")

// Key identifies one square: a file letter followed by a rank number,
// e.g. "a1" or "l12". Keys are the join key for all diffing.
type Key string

// Pos is a zero-based (file, rank) coordinate.
type Pos [2]int

// Dimensions is the number of files (Width) and ranks (Height) of a board.
type Dimensions struct {
	Width, Height int
}

// Geometry selects one of the supported grid sizes.
type Geometry uint8

const (
	Dim8x8 Geometry = iota
	Dim9x9
	Dim10x8
	Dim9x10
	Dim10x10
	Dim12x12
)

const (
	fileLetters = "abcdefghijkl"
	maxRanks    = 12
)

var geometryDims = [...]Dimensions{
	Dim8x8:   {8, 8},
	Dim9x9:   {9, 9},
	Dim10x8:  {10, 8},
	Dim9x10:  {9, 10},
	Dim10x10: {10, 10},
	Dim12x12: {12, 12},
}

var geometryNames = [...]string{
	Dim8x8:   "8x8",
	Dim9x9:   "9x9",
	Dim10x8:  "10x8",
	Dim9x10:  "9x10",
	Dim10x10: "10x10",
	Dim12x12: "12x12",
}

// allKeysCache holds the enumerated keys per geometry; geometries are fixed so
// the slices are built once and shared read-only.
var allKeysCache [len(geometryDims)][]Key

// Dimensions returns the grid size of g. Unknown values fall back to 8x8.
func (g Geometry) Dimensions() Dimensions {
	if int(g) < len(geometryDims) {
		return geometryDims[g]
	}
	return geometryDims[Dim8x8]
}

func (g Geometry) String() string {
	if int(g) < len(geometryNames) {
		return geometryNames[g]
	}
	return fmt.Sprintf("Geometry(%d)", uint8(g))
}

// ParseGeometry converts "8x8", "12x12", ... into a Geometry.
func ParseGeometry(s string) (Geometry, error) {
	for i, name := range geometryNames {
		if name == s {
			return Geometry(i), nil
		}
	}
	return Dim8x8, fmt.Errorf("ground: unknown geometry %q", s)
}

// AllKeys enumerates every square of g, file-major: a1, a2, ..., b1, b2, ...
// The order is stable and is the enumeration order used by the differ.
// The returned slice MUST NOT be mutated.
func (g Geometry) AllKeys() []Key {
	if int(g) >= len(geometryDims) {
		g = Dim8x8
	}
	if keys := allKeysCache[g]; keys != nil {
		return keys
	}
	bd := geometryDims[g]
	keys := make([]Key, 0, bd.Width*bd.Height)
	for x := 0; x < bd.Width; x++ {
		for y := 0; y < bd.Height; y++ {
			keys = append(keys, PosToKey(Pos{x, y}))
		}
	}
	allKeysCache[g] = keys
	return keys
}

// Contains reports whether p lies on the board.
func (g Geometry) Contains(p Pos) bool {
	bd := g.Dimensions()
	return p[0] >= 0 && p[0] < bd.Width && p[1] >= 0 && p[1] < bd.Height
}

// PosToKey converts a position into its square key. The position must be
// within the largest supported board.
func PosToKey(p Pos) Key {
	return Key(string(fileLetters[p[0]]) + strconv.Itoa(p[1]+1))
}

// KeyToPos converts a key into its zero-based position. The key is assumed to
// be well formed; use ParseKey for untrusted input.
func KeyToPos(k Key) Pos {
	if len(k) < 2 {
		return Pos{-1, -1}
	}
	rank := int(k[1] - '0')
	if len(k) == 3 {
		rank = rank*10 + int(k[2]-'0')
	}
	return Pos{int(k[0] - 'a'), rank - 1}
}

// ParseKey validates s against geometry g and returns it as a Key.
func ParseKey(s string, g Geometry) (Key, error) {
	if len(s) < 2 || len(s) > 3 || s[0] < 'a' || s[0] > 'l' {
		return "", fmt.Errorf("ground: %q: %w", s, ErrInvalidKey)
	}
	rank, err := strconv.Atoi(s[1:])
	if err != nil || rank < 1 || rank > maxRanks || s[1] == '0' {
		return "", fmt.Errorf("ground: %q: %w", s, ErrInvalidKey)
	}
	p := Pos{int(s[0] - 'a'), rank - 1}
	if !g.Contains(p) {
		return "", fmt.Errorf("ground: %q outside %s board: %w", s, g, ErrInvalidKey)
	}
	return Key(s), nil
}

// DistanceSq is the squared Euclidean distance between two positions.
func DistanceSq(a, b Pos) int {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}

// PosToTranslate maps a (possibly fractional) board position to the offset of
// the square's top-left corner inside a board of the given size. With asWhite
// the first rank is drawn at the bottom.
func PosToTranslate(x, y float64, size Vec2, bd Dimensions, asWhite bool) Vec2 {
	if !asWhite {
		x = float64(bd.Width-1) - x
	} else {
		y = float64(bd.Height-1) - y
	}
	return Vec2{
		X: x * size.X / float64(bd.Width),
		Y: y * size.Y / float64(bd.Height),
	}
}

// SquareCenter returns the absolute center of key k within bounds.
func SquareCenter(k Key, asWhite bool, bounds Rect, bd Dimensions) Vec2 {
	p := KeyToPos(k)
	if !asWhite {
		p[0] = bd.Width - 1 - p[0]
		p[1] = bd.Height - 1 - p[1]
	}
	return Vec2{
		X: bounds.X + bounds.Width*(float64(p[0])+0.5)/float64(bd.Width),
		Y: bounds.Y + bounds.Height*(float64(bd.Height-p[1])-0.5)/float64(bd.Height),
	}
}

// KeyAtPos returns the key under point pt, or false when pt is off the board.
func KeyAtPos(pt Vec2, asWhite bool, bounds Rect, g Geometry) (Key, bool) {
	if bounds.Empty() {
		return "", false
	}
	bd := g.Dimensions()
	file := int(math.Floor(float64(bd.Width) * (pt.X - bounds.X) / bounds.Width))
	if !asWhite {
		file = bd.Width - 1 - file
	}
	rank := bd.Height - 1 - int(math.Floor(float64(bd.Height)*(pt.Y-bounds.Y)/bounds.Height))
	if !asWhite {
		rank = bd.Height - 1 - rank
	}
	p := Pos{file, rank}
	if !g.Contains(p) {
		return "", false
	}
	return PosToKey(p), true
}
