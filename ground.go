package ground

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at render submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(c.R*c.A*255 + 0.5),
		G: uint8(c.G*c.A*255 + 0.5),
		B: uint8(c.B*c.A*255 + 0.5),
		A: uint8(c.A*255 + 0.5),
	}
}

// Vec2 is a 2D vector used for positions, offsets and sizes throughout the API.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// whitePixel is a 1x1 white image used for solid color squares and for pieces
// that have no atlas region. Created lazily so that packages importing ground
// never touch the graphics driver unless they draw.
var whitePixel *ebiten.Image

func ensureWhitePixel() *ebiten.Image {
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(ColorWhite.toRGBA())
	}
	return whitePixel
}

// NodeType distinguishes the role of a Node in the board tree.
type NodeType uint8

const (
	NodeTypeContainer NodeType = iota // group node with no visual output
	NodeTypeSquare                    // highlighted square (last move, check, dests)
	NodeTypePiece                     // a piece bound to a square
)

// Side is one of the two players.
type Side uint8

const (
	White Side = iota
	Black
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) String() string {
	if s == Black {
		return "black"
	}
	return "white"
}

// ParseSide converts "white" / "black" into a Side. Anything else is white.
func ParseSide(s string) Side {
	if s == "black" {
		return Black
	}
	return White
}

// MovableSide selects which side may move pieces on the board.
type MovableSide uint8

const (
	MovableBoth MovableSide = iota
	MovableWhite
	MovableBlack
	MovableNone
)

// Allows reports whether pieces of side s may be moved.
func (m MovableSide) Allows(s Side) bool {
	switch m {
	case MovableBoth:
		return true
	case MovableWhite:
		return s == White
	case MovableBlack:
		return s == Black
	}
	return false
}

// ParseMovableSide converts "both" / "white" / "black" / "none".
func ParseMovableSide(s string) MovableSide {
	switch s {
	case "white":
		return MovableWhite
	case "black":
		return MovableBlack
	case "none":
		return MovableNone
	}
	return MovableBoth
}
