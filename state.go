package ground

import "time"

// Dests maps an origin square to the destinations the caller allows from it.
// Legality is never computed here.
type Dests map[Key][]Key

// AnimationConfig controls move animation. A Duration below 70ms disables
// animation outright.
type AnimationConfig struct {
	Enabled  bool
	Duration time.Duration
}

// Highlight selects which square highlights are drawn.
type Highlight struct {
	LastMove bool
	Check    bool
}

// Movable describes who may move and where.
type Movable struct {
	Free      bool // any destination is accepted
	Color     MovableSide
	Dests     Dests
	ShowDests bool
}

// Draggable configures pointer dragging. Distance is in board-space units.
type Draggable struct {
	Enabled         bool
	Distance        float64
	DeleteOnDropOff bool
	Current         *DragCurrent
}

// Selectable enables click-click moves.
type Selectable struct {
	Enabled bool
}

// Events are invoked synchronously from within mutations. Any of them may be
// nil.
type Events struct {
	Change       func()
	Move         func(orig, dest Key, captured *Piece)
	DropNewPiece func(p Piece, k Key)
	Select       func(k Key)
}

// State is the mutable board state handed to every mutation.
type State struct {
	Pieces         Pieces
	Orientation    Side
	TurnColor      Side
	Check          Key   // square in check, "" for none
	LastMove       []Key // squares of the last move
	Selected       Key   // selected square, "" for none
	Geometry       Geometry
	AddPieceZIndex bool
	Highlight      Highlight
	Animation      AnimationConfig
	Movable        Movable
	Draggable      Draggable
	Selectable     Selectable
	Events         Events

	// dragged records whether the last completed move was a drag.
	dragged bool
}

// DefaultState returns the state of a fresh board: empty 8x8, white at the
// bottom, free movement for both sides, 200ms animations.
func DefaultState() *State {
	return &State{
		Pieces:      make(Pieces),
		Orientation: White,
		TurnColor:   White,
		Geometry:    Dim8x8,
		Highlight:   Highlight{LastMove: true, Check: true},
		Animation:   AnimationConfig{Enabled: true, Duration: 200 * time.Millisecond},
		Movable:     Movable{Free: true, Color: MovableBoth, ShowDests: true},
		Draggable:   Draggable{Enabled: true, Distance: 3},
		Selectable:  Selectable{Enabled: true},
	}
}

// normalizeAnimation disables sub-threshold and non-positive durations.
// It reports whether the config was changed.
func (s *State) normalizeAnimation() bool {
	if s.Animation.Enabled && s.Animation.Duration < minAnimDuration {
		s.Animation.Enabled = false
		return true
	}
	return false
}
