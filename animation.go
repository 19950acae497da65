package ground

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Easing is the cubic in-out curve applied to the remaining fraction of a run.
// It is 4t³ below one half and (t-1)(2t-2)²+1 above.
func Easing(t float64) float64 {
	return float64(ease.InOutCubic(float32(t), 0, 1, 1))
}

// TweenGroup animates one float64 field of a Node. Create one via TweenAlpha
// and call Update(dt) each frame. If the target node is disposed, the group
// stops immediately.
//
// The host (Scene or term.View) advances the fades of a board; the animation
// scheduler never does.
type TweenGroup struct {
	tween  *gween.Tween
	field  *float64
	target *Node
	Done   bool
}

// Update advances the tween by dt seconds, writes the value to the target
// field and marks the node dirty.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target.IsDisposed() {
		g.Done = true
		return
	}
	val, finished := g.tween.Update(dt)
	*g.field = float64(val)
	g.Done = finished
	g.target.MarkDirty()
}

// TweenAlpha creates a TweenGroup that animates node.Alpha to the target value
// over duration seconds using fn.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	return &TweenGroup{
		tween:  gween.New(float32(node.Alpha), float32(to), duration, fn),
		field:  &node.Alpha,
		target: node,
	}
}

// startFade begins fading the node out over d seconds. A node that is already
// fading keeps its tween.
func (n *Node) startFade(d float32) {
	if n.fade != nil && !n.fade.Done {
		return
	}
	n.fade = TweenAlpha(n, 0, d, ease.OutQuad)
}

// stopFade restores the node to full opacity.
func (n *Node) stopFade() {
	n.fade = nil
	n.SetAlpha(1)
}

// updateFades advances the fade tweens of root's direct children by dt seconds.
func updateFades(root *Node, dt float32) {
	for _, c := range root.children {
		if c.fade != nil {
			c.fade.Update(dt)
		}
	}
}
