package ground

import (
	"time"

	"go.uber.org/zap"
)

// DragCurrent is the drag in progress. Points are in the board's parent
// coordinate space, the same space as Board.Bounds.
type DragCurrent struct {
	Orig               Key
	Piece              Piece
	OrigPos            Vec2
	Pos                Vec2
	Started            bool // the pointer travelled past Draggable.Distance
	PreviouslySelected Key
	KeyHasChanged      bool // the pointer left the origin square at least once
}

// DragStart presses the pointer at pt. It selects or plays through the
// clicked square and picks up the piece when it may be dragged. It reports
// whether a drag began.
func (b *Board) DragStart(pt Vec2) bool {
	if b.destroyed {
		return false
	}
	s := b.state
	orig, ok := b.KeyAtPos(pt)
	if !ok {
		return false
	}
	piece, hasPiece := s.Pieces[orig]
	previouslySelected := s.Selected

	if s.Selected != "" && s.CanMove(s.Selected, orig) {
		Anim(b, func(s *State) struct{} {
			s.SelectSquare(orig, false)
			return struct{}{}
		})
	} else {
		s.SelectSquare(orig, false)
	}

	started := false
	node := b.pieceNodeAt(orig)
	if hasPiece && node != nil && s.Selected == orig && s.IsDraggable(orig) {
		s.Draggable.Current = &DragCurrent{
			Orig:               orig,
			Piece:              piece,
			OrigPos:            pt,
			Pos:                pt,
			Started:            s.dragged,
			PreviouslySelected: previouslySelected,
		}
		node.dragging = true
		node.SetZIndex(dragZIndex)
		b.log.Debug("drag started", zap.String("key", string(orig)))
		b.processDrag(b.clock.Now())
		started = true
	}
	b.Redraw()
	return started
}

// DragMove moves the pointer to pt.
func (b *Board) DragMove(pt Vec2) {
	if cur := b.state.Draggable.Current; cur != nil {
		cur.Pos = pt
	}
}

// DragEnd releases the pointer at pt and plays the move if it lands on
// another square.
func (b *Board) DragEnd(pt Vec2) {
	s := b.state
	cur := s.Draggable.Current
	if cur == nil {
		return
	}
	dest, onBoard := b.KeyAtPos(pt)
	switch {
	case onBoard && cur.Started && cur.Orig != dest:
		if s.UserMove(cur.Orig, dest) {
			s.dragged = true
		}
	case s.Draggable.DeleteOnDropOff && !onBoard:
		delete(s.Pieces, cur.Orig)
		s.emitChange()
	}
	if (cur.Orig == cur.PreviouslySelected || cur.KeyHasChanged) && (cur.Orig == dest || !onBoard) {
		s.Unselect()
	} else if !s.Selectable.Enabled {
		s.Unselect()
	}
	s.Draggable.Current = nil
	b.log.Debug("drag ended",
		zap.String("orig", string(cur.Orig)),
		zap.String("dest", string(dest)),
		zap.Bool("started", cur.Started))
	b.Redraw()
}

// DragCancel aborts the drag in progress and clears the selection.
func (b *Board) DragCancel() {
	if b.state.Draggable.Current == nil {
		return
	}
	b.cancelDrag()
	b.Redraw()
}

func (b *Board) cancelDrag() {
	if b.state.Draggable.Current == nil {
		return
	}
	b.state.Draggable.Current = nil
	b.state.Unselect()
}

// processDrag follows the pointer once per frame while a drag lasts. Any
// motion vector of the dragged square is dropped so the animation never
// fights the pointer.
func (b *Board) processDrag(time.Duration) {
	cur := b.state.Draggable.Current
	if cur == nil || b.destroyed {
		return
	}
	b.anim.DropVector(cur.Orig)

	if p, ok := b.state.Pieces[cur.Orig]; !ok || !p.Same(cur.Piece) {
		b.DragCancel()
		return
	}
	if !cur.Started {
		d := b.state.Draggable.Distance
		dx, dy := cur.Pos.X-cur.OrigPos.X, cur.Pos.Y-cur.OrigPos.Y
		if dx*dx+dy*dy >= d*d {
			cur.Started = true
		}
	}
	if cur.Started {
		if k, ok := b.KeyAtPos(cur.Pos); !ok || k != cur.Orig {
			cur.KeyHasChanged = true
		}
		if n := b.pieceNodeAt(cur.Orig); n != nil {
			sq := b.squareSize()
			n.dragging = true
			n.animating = false
			n.SetZIndex(dragZIndex)
			n.SetPosition(cur.Pos.X-b.bounds.X-sq.X/2, cur.Pos.Y-b.bounds.Y-sq.Y/2)
		}
	}
	if b.dragLooping {
		return
	}
	b.dragLooping = true
	b.frames.RequestFrame(b.continueDrag)
}

// continueDrag is the scheduled half of processDrag; it owns the loop flag.
func (b *Board) continueDrag(now time.Duration) {
	b.dragLooping = false
	b.processDrag(now)
}
