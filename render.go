package ground

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// pieceInset is the margin, as a fraction of the square, around pieces drawn
// without an atlas image.
const pieceInset = 0.15

// RenderCommand is a single draw instruction emitted during scene traversal.
type RenderCommand struct {
	Transform [6]float32
	Image     *ebiten.Image
	Width     float64 // destination size in local units
	Height    float64
	Color     color32
	treeOrder int
}

// color32 is a compact RGBA color using float32, for render commands only.
type color32 struct {
	R, G, B, A float32
}

// affine32 converts a [6]float64 affine matrix to [6]float32.
func affine32(m [6]float64) [6]float32 {
	return [6]float32{float32(m[0]), float32(m[1]), float32(m[2]), float32(m[3]), float32(m[4]), float32(m[5])}
}

// traverse walks the node tree depth-first in ZIndex order, updating
// transforms and emitting render commands for visible square and piece
// nodes. The emission order is the draw order.
func (s *Scene) traverse(n *Node, parentTransform [6]float64, parentAlpha float64, parentRecomputed bool, treeOrder *int) {
	if !n.Visible {
		return
	}

	recompute := n.transformDirty || parentRecomputed
	if recompute {
		local := computeLocalTransform(n)
		n.worldTransform = multiplyAffine(parentTransform, local)
		n.worldAlpha = parentAlpha * n.Alpha
		n.transformDirty = false
	}

	if n.Type != NodeTypeContainer && n.worldAlpha > 0 {
		*treeOrder++
		cmd := RenderCommand{
			Transform: affine32(n.worldTransform),
			Image:     n.Image,
			Width:     n.Width,
			Height:    n.Height,
			Color:     color32{float32(n.Color.R), float32(n.Color.G), float32(n.Color.B), float32(n.Color.A * n.worldAlpha)},
			treeOrder: *treeOrder,
		}
		if cmd.Image == nil && n.Type == NodeTypePiece {
			cmd.inset(pieceInset)
		}
		s.commands = append(s.commands, cmd)
	}

	if len(n.children) == 0 {
		return
	}
	children := n.children
	if !n.childrenSorted {
		rebuildSortedChildren(n)
	}
	if n.sortedChildren != nil {
		children = n.sortedChildren
	}
	for _, child := range children {
		s.traverse(child, n.worldTransform, n.worldAlpha, recompute, treeOrder)
	}
}

// inset shrinks the command's destination rectangle by frac on every side.
func (cmd *RenderCommand) inset(frac float64) {
	dx, dy := cmd.Width*frac, cmd.Height*frac
	t := cmd.Transform
	cmd.Transform[4] = t[0]*float32(dx) + t[2]*float32(dy) + t[4]
	cmd.Transform[5] = t[1]*float32(dx) + t[3]*float32(dy) + t[5]
	cmd.Width -= 2 * dx
	cmd.Height -= 2 * dy
}

// rebuildSortedChildren rebuilds the ZIndex-sorted traversal order for a node.
// Uses insertion sort: zero allocations, stable, and optimal for the typical
// case of few children that are nearly sorted (O(n) when already sorted).
func rebuildSortedChildren(n *Node) {
	nc := len(n.children)
	if cap(n.sortedChildren) < nc {
		n.sortedChildren = make([]*Node, nc)
	}
	n.sortedChildren = n.sortedChildren[:nc]
	copy(n.sortedChildren, n.children)
	for i := 1; i < nc; i++ {
		key := n.sortedChildren[i]
		j := i - 1
		for j >= 0 && n.sortedChildren[j].ZIndex > key.ZIndex {
			n.sortedChildren[j+1] = n.sortedChildren[j]
			j--
		}
		n.sortedChildren[j+1] = key
	}
	n.childrenSorted = true
}

// submit draws every command in emission order.
func (s *Scene) submit(target *ebiten.Image) {
	var op ebiten.DrawImageOptions
	for i := range s.commands {
		s.submitCommand(target, &s.commands[i], &op)
	}
}

// submitCommand draws one command with DrawImage, stretching the source image
// (or the shared white pixel) over the destination rectangle.
func (s *Scene) submitCommand(target *ebiten.Image, cmd *RenderCommand, op *ebiten.DrawImageOptions) {
	img := cmd.Image
	if img == nil {
		img = ensureWhitePixel()
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || cmd.Width <= 0 || cmd.Height <= 0 {
		return
	}

	op.GeoM.Reset()
	op.GeoM.Scale(cmd.Width/float64(b.Dx()), cmd.Height/float64(b.Dy()))
	op.GeoM.Concat(commandGeoM(cmd))

	// Premultiplied color scale.
	op.ColorScale.Reset()
	a := cmd.Color.A
	op.ColorScale.Scale(cmd.Color.R*a, cmd.Color.G*a, cmd.Color.B*a, a)

	target.DrawImage(img, op)
}

// commandGeoM converts a command's transform into an ebiten.GeoM.
func commandGeoM(cmd *RenderCommand) ebiten.GeoM {
	var m ebiten.GeoM
	m.SetElement(0, 0, float64(cmd.Transform[0]))
	m.SetElement(1, 0, float64(cmd.Transform[1]))
	m.SetElement(0, 1, float64(cmd.Transform[2]))
	m.SetElement(1, 1, float64(cmd.Transform[3]))
	m.SetElement(0, 2, float64(cmd.Transform[4]))
	m.SetElement(1, 2, float64(cmd.Transform[5]))
	return m
}
