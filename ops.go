package ground

import "slices"

// KingRole is the role SetCheck looks for.
const KingRole Role = "k-piece"

func (s *State) emitChange() {
	if s.Events.Change != nil {
		s.Events.Change()
	}
}

// ToggleOrientation flips the board.
func (s *State) ToggleOrientation() {
	s.Orientation = s.Orientation.Opposite()
}

// SetPieces applies diff: nil entries remove the square, others place the piece.
func (s *State) SetPieces(diff PiecesDiff) {
	for k, p := range diff {
		if p == nil {
			delete(s.Pieces, k)
			continue
		}
		s.Pieces[k] = *p
	}
}

// SetCheck marks the king of side as being in check.
func (s *State) SetCheck(side Side) {
	s.Check = ""
	for _, k := range s.Geometry.AllKeys() {
		if p, ok := s.Pieces[k]; ok && p.Role == KingRole && p.Side == side {
			s.Check = k
		}
	}
}

// ClearCheck removes the check highlight.
func (s *State) ClearCheck() {
	s.Check = ""
}

// Move moves the piece on orig to dest, capturing whatever enemy stands
// there. It reports the captured piece (nil if none) and whether a move
// happened at all.
func (s *State) Move(orig, dest Key) (*Piece, bool) {
	origPiece, ok := s.Pieces[orig]
	if orig == dest || !ok {
		return nil, false
	}
	var captured *Piece
	if destPiece, ok := s.Pieces[dest]; ok && destPiece.Side != origPiece.Side {
		captured = &destPiece
	}
	if dest == s.Selected {
		s.Unselect()
	}
	if s.Events.Move != nil {
		s.Events.Move(orig, dest, captured)
	}
	s.Pieces[dest] = origPiece
	delete(s.Pieces, orig)
	s.LastMove = []Key{orig, dest}
	s.Check = ""
	s.emitChange()
	return captured, true
}

// NewPiece places p on k. An occupied square is only overwritten when force
// is set. The turn passes to the other side.
func (s *State) NewPiece(p Piece, k Key, force bool) bool {
	if _, ok := s.Pieces[k]; ok {
		if !force {
			return false
		}
		delete(s.Pieces, k)
	}
	if s.Events.DropNewPiece != nil {
		s.Events.DropNewPiece(p, k)
	}
	s.Pieces[k] = p
	s.LastMove = []Key{k}
	s.Check = ""
	s.emitChange()
	s.Movable.Dests = nil
	s.TurnColor = s.TurnColor.Opposite()
	return true
}

// IsMovable reports whether the piece on orig may be moved now.
func (s *State) IsMovable(orig Key) bool {
	p, ok := s.Pieces[orig]
	if !ok {
		return false
	}
	if s.Movable.Color == MovableBoth {
		return true
	}
	return s.Movable.Color.Allows(p.Side) && s.TurnColor == p.Side
}

// CanMove reports whether orig -> dest is accepted: free mode accepts any
// destination, otherwise dest must be listed in Movable.Dests.
func (s *State) CanMove(orig, dest Key) bool {
	if orig == dest || !s.IsMovable(orig) {
		return false
	}
	return s.Movable.Free || slices.Contains(s.Movable.Dests[orig], dest)
}

// IsDraggable reports whether the piece on orig may be picked up.
func (s *State) IsDraggable(orig Key) bool {
	return s.Draggable.Enabled && s.IsMovable(orig)
}

// UserMove plays orig -> dest if allowed. Otherwise it moves the selection to
// dest when dest holds a movable piece, or clears it.
func (s *State) UserMove(orig, dest Key) bool {
	if s.CanMove(orig, dest) {
		if _, ok := s.Move(orig, dest); ok {
			s.Movable.Dests = nil
			s.TurnColor = s.TurnColor.Opposite()
			s.Unselect()
			return true
		}
	} else if s.IsMovable(dest) {
		s.setSelected(dest)
	} else {
		s.Unselect()
	}
	return false
}

// SelectSquare handles a click on k: with a selection pending it tries the
// move, otherwise it selects k when k holds a movable piece.
func (s *State) SelectSquare(k Key, force bool) {
	if s.Events.Select != nil {
		s.Events.Select(k)
	}
	if s.Selected != "" {
		if s.Selected == k && !s.Draggable.Enabled {
			s.Unselect()
			return
		}
		if (s.Selectable.Enabled || force) && s.Selected != k {
			if s.UserMove(s.Selected, k) {
				s.dragged = false
				return
			}
		}
	}
	if (s.Selectable.Enabled || s.Draggable.Enabled) && s.IsMovable(k) {
		s.setSelected(k)
	}
}

func (s *State) setSelected(k Key) {
	s.Selected = k
}

// Unselect clears the selection.
func (s *State) Unselect() {
	s.Selected = ""
}

// CancelMove drops the selection.
func (s *State) CancelMove() {
	s.Unselect()
}

// Stop forbids any further moves and clears the selection.
func (s *State) Stop() {
	s.Movable.Color = MovableNone
	s.Movable.Dests = nil
	s.CancelMove()
}
