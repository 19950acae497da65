package ground

import (
	"math"
	"testing"

	"github.com/tanema/gween/ease"
)

func TestTweenAlphaInterpolates(t *testing.T) {
	node := NewContainer("alpha")
	tw := TweenAlpha(node, 0.0, 1.0, ease.Linear)

	tw.Update(0.5)
	if tw.Done {
		t.Fatal("should not be done at halfway")
	}
	if math.Abs(node.Alpha-0.5) > 0.05 {
		t.Errorf("Alpha = %f, want ~0.5 at halfway", node.Alpha)
	}

	tw.Update(0.5)
	if !tw.Done {
		t.Fatal("should be done after full duration")
	}
	if math.Abs(node.Alpha) > 0.01 {
		t.Errorf("Alpha = %f, want ~0.0", node.Alpha)
	}

	// Update after done is a no-op.
	tw.Update(0.1)
	if !tw.Done {
		t.Fatal("should remain Done")
	}
}

func TestTweenGroupMarksDirty(t *testing.T) {
	node := NewContainer("dirty")
	node.transformDirty = false
	TweenAlpha(node, 0, 1.0, ease.Linear).Update(0.1)
	if !node.transformDirty {
		t.Fatal("expected node to be marked dirty after update")
	}
}

func TestTweenGroupDisposedMidAnimation(t *testing.T) {
	node := NewContainer("mid-dispose")
	g := TweenAlpha(node, 0, 1.0, ease.Linear)
	g.Update(0.1)
	if g.Done {
		t.Fatal("should not be Done yet")
	}

	node.Dispose()
	saved := node.Alpha
	g.Update(0.1)
	if !g.Done {
		t.Fatal("expected Done after node disposed mid-animation")
	}
	if node.Alpha != saved {
		t.Error("alpha should not change after disposal")
	}
}

func TestTweenGroupUpdateZeroAlloc(t *testing.T) {
	node := NewContainer("alloc")
	g := TweenAlpha(node, 0, 1.0, ease.Linear)
	g.Update(0.01)

	result := testing.AllocsPerRun(100, func() {
		g.Update(0.001)
	})
	if result > 0 {
		t.Errorf("TweenGroup.Update allocated %f times per run, want 0", result)
	}
}

// --- Fades ---

func TestStartFadeKeepsRunningTween(t *testing.T) {
	n := newPieceNode("a2", blackPawn, "black enemy p-piece")
	n.startFade(0.2)
	first := n.fade
	n.startFade(0.2)
	if n.fade != first {
		t.Error("a running fade should not restart")
	}
}

func TestStopFadeRestoresAlpha(t *testing.T) {
	n := newPieceNode("a2", blackPawn, "black enemy p-piece")
	n.startFade(0.2)
	n.fade.Update(0.1)
	n.stopFade()
	if n.fade != nil || n.Alpha != 1 {
		t.Errorf("fade = %v, alpha = %v; want nil, 1", n.fade, n.Alpha)
	}
}

func TestUpdateFadesAdvancesChildren(t *testing.T) {
	root := NewContainer("layer")
	fading := newPieceNode("a2", blackPawn, "pawn")
	still := newPieceNode("a1", whiteRook, "rook")
	root.AddChild(fading)
	root.AddChild(still)
	fading.startFade(0.2)

	updateFades(root, 0.3)
	if fading.Alpha > 0.01 {
		t.Errorf("fading alpha = %v, want ~0", fading.Alpha)
	}
	if still.Alpha != 1 {
		t.Errorf("still alpha = %v, want 1", still.Alpha)
	}
}
