package ground

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Palette colors squares and, when no atlas is set, pieces.
type Palette struct {
	Light, Dark            Color
	LastMove, Check        Color
	Selected, MoveDest     Color
	WhitePiece, BlackPiece Color
}

// DefaultPalette is a brown wooden board.
var DefaultPalette = Palette{
	Light:      Color{0.94, 0.85, 0.71, 1},
	Dark:       Color{0.71, 0.53, 0.39, 1},
	LastMove:   Color{0.61, 0.78, 0.0, 0.41},
	Check:      Color{1, 0, 0, 0.5},
	Selected:   Color{0.08, 0.47, 0.11, 0.5},
	MoveDest:   Color{0.08, 0.33, 0.11, 0.3},
	WhitePiece: Color{0.98, 0.98, 0.96, 1},
	BlackPiece: Color{0.12, 0.12, 0.12, 1},
}

// BoardOptions carries the collaborators of a board. Every field is optional.
type BoardOptions struct {
	// Logger receives lifecycle and animation logs. Defaults to a no-op logger.
	Logger *zap.Logger
	// Frames drives animation and coalesced redraws. Defaults to a FrameQueue
	// that the host flushes once per frame (see Board.Frames).
	Frames FrameSource
	// Clock timestamps animation runs. Defaults to a SystemClock.
	Clock Clock
	// Atlas provides piece images. Without one pieces are drawn as discs of
	// the palette's piece colors.
	Atlas *Atlas
	// Palette overrides DefaultPalette.
	Palette *Palette
	// Overlay runs after every reconciliation that does not skip overlays.
	Overlay func(*Board)
	// Bounds places the board in its parent's coordinate space.
	Bounds Rect
}

// dragZIndex lifts a dragged piece above every other node.
const dragZIndex = 1 << 20

// Board is one interactive board instance. It owns its state, its animation
// slot and its retained node tree. A Board is not safe for concurrent use;
// every call must come from the host's frame loop.
type Board struct {
	id     string
	state  *State
	anim   *Animator
	frames FrameSource
	clock  Clock
	log    *zap.Logger

	root       *Node // positioned at bounds.X, bounds.Y
	background *Node // checkered squares, never reconciled
	layer      *Node // highlights and pieces, owned by the reconciler

	bounds  Rect
	atlas   *Atlas
	palette Palette
	overlay func(*Board)

	redrawPending bool
	dragLooping   bool
	destroyed     bool
	lastStats     ReconcileStats
}

// NewBoard creates a board from cfg and renders it once.
func NewBoard(cfg Config, opts BoardOptions) (*Board, error) {
	state := DefaultState()
	pieces, err := parseConfigFEN(state, cfg)
	if err != nil {
		return nil, err
	}
	configure(state, cfg, pieces)

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	b := &Board{
		id:      uuid.New().String(),
		state:   state,
		frames:  opts.Frames,
		clock:   opts.Clock,
		atlas:   opts.Atlas,
		palette: DefaultPalette,
		overlay: opts.Overlay,
	}
	if b.frames == nil {
		b.frames = &FrameQueue{}
	}
	if b.clock == nil {
		b.clock = NewSystemClock()
	}
	if opts.Palette != nil {
		b.palette = *opts.Palette
	}
	b.log = log.With(zap.String("board", b.id))
	b.anim = NewAnimator(b.frames, b.clock, b, b.Destroyed, b.log)

	b.root = NewContainer("board")
	b.background = NewContainer("background")
	b.background.SetZIndex(-1)
	b.layer = NewContainer("layer")
	b.root.AddChild(b.background)
	b.root.AddChild(b.layer)
	b.SetBounds(opts.Bounds)

	b.log.Info("board created",
		zap.Stringer("geometry", state.Geometry),
		zap.Int("pieces", len(state.Pieces)))
	b.RedrawNow(false)
	return b, nil
}

// parseConfigFEN reads cfg.FEN against the geometry cfg will leave s in.
func parseConfigFEN(s *State, cfg Config) (Pieces, error) {
	if cfg.FEN == nil {
		return nil, nil
	}
	g := s.Geometry
	if cfg.Geometry != nil {
		g = *cfg.Geometry
	}
	return ReadFEN(*cfg.FEN, g)
}

// ID returns the board's unique instance id.
func (b *Board) ID() string { return b.id }

// State returns the live state. Writes outside a Mutation are not rendered
// until the next redraw.
func (b *Board) State() *State { return b.state }

// Root returns the board's container node; attach it to a scene tree.
func (b *Board) Root() *Node { return b.root }

// Animator returns the board's animation slot.
func (b *Board) Animator() *Animator { return b.anim }

// Frames returns the frame source driving the board.
func (b *Board) Frames() FrameSource { return b.frames }

// Bounds returns the board rectangle in its parent's coordinate space.
func (b *Board) Bounds() Rect { return b.bounds }

// LastStats returns the statistics of the most recent reconciliation.
func (b *Board) LastStats() ReconcileStats { return b.lastStats }

// Nodes returns the reconciled highlight and piece nodes. The returned slice
// MUST NOT be mutated.
func (b *Board) Nodes() []*Node { return b.layer.children }

// Destroyed reports whether Destroy has been called.
func (b *Board) Destroyed() bool { return b.destroyed }

// FEN returns the current placement in FEN notation.
func (b *Board) FEN() string {
	return WriteFEN(b.state.Pieces, b.state.Geometry)
}

// --- Imperative API ---

// Set reconfigures the board. When cfg carries a FEN the placement change is
// animated.
func (b *Board) Set(cfg Config) error {
	pieces, err := parseConfigFEN(b.state, cfg)
	if err != nil {
		return err
	}
	if cfg.Orientation != nil && *cfg.Orientation != b.state.Orientation {
		b.ToggleOrientation()
	}
	if applyAnimation(b.state, cfg) {
		b.log.Debug("animation disabled", zap.Duration("duration", b.state.Animation.Duration))
	}
	geometryChanged := cfg.Geometry != nil && *cfg.Geometry != b.state.Geometry
	mutation := func(s *State) struct{} {
		configure(s, cfg, pieces)
		return struct{}{}
	}
	if geometryChanged {
		mutation(b.state)
		b.RedrawAll()
		return nil
	}
	if pieces != nil {
		Anim(b, mutation)
	} else {
		Render(b, mutation)
	}
	return nil
}

// ToggleOrientation flips the board and rebuilds every node.
func (b *Board) ToggleOrientation() {
	b.state.ToggleOrientation()
	b.RedrawAll()
}

// Move moves the piece on orig to dest.
func (b *Board) Move(orig, dest Key) {
	Anim(b, func(s *State) bool {
		_, ok := s.Move(orig, dest)
		return ok
	})
}

// SetPieces adds and removes arbitrary pieces.
func (b *Board) SetPieces(diff PiecesDiff) {
	Anim(b, func(s *State) struct{} {
		s.SetPieces(diff)
		return struct{}{}
	})
}

// SetLastMove highlights from and to as the last move.
func (b *Board) SetLastMove(from, to Key) {
	Anim(b, func(s *State) struct{} {
		s.LastMove = []Key{from, to}
		return struct{}{}
	})
}

// SelectSquare clicks k. An empty key clears the selection.
func (b *Board) SelectSquare(k Key, force bool) {
	if k != "" {
		Anim(b, func(s *State) struct{} {
			s.SelectSquare(k, force)
			return struct{}{}
		})
		return
	}
	if b.state.Selected != "" {
		b.state.Unselect()
		b.Redraw()
	}
}

// NewPiece places p on k unless k is occupied.
func (b *Board) NewPiece(p Piece, k Key) bool {
	return Anim(b, func(s *State) bool {
		return s.NewPiece(p, k, false)
	})
}

// CancelMove drops the selection and any drag in progress.
func (b *Board) CancelMove() {
	Render(b, func(s *State) struct{} {
		s.CancelMove()
		b.cancelDrag()
		return struct{}{}
	})
}

// Stop cancels the current move and prevents further ones.
func (b *Board) Stop() {
	Render(b, func(s *State) struct{} {
		s.Stop()
		b.anim.Cancel()
		b.cancelDrag()
		return struct{}{}
	})
}

// Destroy stops the board and detaches it from its parent. A pending
// animation frame still fires once and renders the board at rest; no further
// frames are scheduled.
func (b *Board) Destroy() {
	if b.destroyed {
		return
	}
	b.state.Stop()
	b.anim.Cancel()
	b.state.Draggable.Current = nil
	b.destroyed = true
	b.root.RemoveFromParent()
	b.log.Info("board destroyed")
}

// KeyAtPos returns the square under pt, given in the parent's coordinate
// space.
func (b *Board) KeyAtPos(pt Vec2) (Key, bool) {
	return KeyAtPos(pt, b.state.Orientation == White, b.bounds, b.state.Geometry)
}

// --- Rendering ---

// Redraw schedules one reconciliation on the next frame. Repeated calls
// before that frame are coalesced.
func (b *Board) Redraw() {
	if b.redrawPending || b.destroyed {
		return
	}
	b.redrawPending = true
	b.frames.RequestFrame(func(time.Duration) {
		b.redrawPending = false
		if b.destroyed {
			return
		}
		b.RedrawNow(false)
	})
}

// RedrawNow reconciles the node tree synchronously. The overlay hook runs
// unless skipOverlay is set.
func (b *Board) RedrawNow(skipOverlay bool) {
	stats := b.render()
	b.lastStats = stats
	if stats.changed() {
		b.log.Debug("reconciled",
			zap.Int("kept", stats.Kept),
			zap.Int("moved", stats.Moved),
			zap.Int("created", stats.Created),
			zap.Int("removed", stats.Removed),
			zap.Int("fading", stats.Fading))
	}
	if !skipOverlay && b.overlay != nil {
		b.overlay(b)
	}
}

// RedrawAll discards every reconciled node, relays the background and
// renders from scratch.
func (b *Board) RedrawAll() {
	nodes := append([]*Node(nil), b.layer.children...)
	for _, n := range nodes {
		n.Dispose()
	}
	b.layoutBackground()
	b.RedrawNow(false)
}

// SetBounds moves and resizes the board. Nodes at rest are repositioned
// immediately; animating nodes pick up the new size on their next frame.
func (b *Board) SetBounds(r Rect) {
	b.bounds = r
	b.root.SetPosition(r.X, r.Y)
	b.layoutBackground()
	sq := b.squareSize()
	for _, n := range b.layer.children {
		n.Width, n.Height = sq.X, sq.Y
		if n.Type == NodeTypePiece && (n.animating || n.dragging) {
			continue
		}
		b.placeAtKey(n, n.Key)
	}
}

// UpdateFades advances the fade-out of captured pieces by dt seconds. Hosts
// call it once per frame.
func (b *Board) UpdateFades(dt float32) {
	updateFades(b.layer, dt)
}

// squareSize returns the size of one square in board space.
func (b *Board) squareSize() Vec2 {
	bd := b.state.Geometry.Dimensions()
	return Vec2{b.bounds.Width / float64(bd.Width), b.bounds.Height / float64(bd.Height)}
}

// place positions n at the fractional board position (x, y).
func (b *Board) place(n *Node, x, y float64) {
	t := PosToTranslate(x, y, Vec2{b.bounds.Width, b.bounds.Height}, b.state.Geometry.Dimensions(), b.state.Orientation == White)
	n.SetPosition(t.X, t.Y)
}

func (b *Board) placeAtKey(n *Node, k Key) {
	p := KeyToPos(k)
	b.place(n, float64(p[0]), float64(p[1]))
}

// layoutBackground rebuilds the checkered squares for the current geometry.
func (b *Board) layoutBackground() {
	bd := b.state.Geometry.Dimensions()
	want := bd.Width * bd.Height
	if b.background.NumChildren() != want {
		for b.background.NumChildren() > 0 {
			b.background.RemoveChildAt(b.background.NumChildren() - 1).Dispose()
		}
		for _, k := range b.state.Geometry.AllKeys() {
			b.background.AddChild(newSquareNode(k, ""))
		}
	}
	sq := b.squareSize()
	for _, n := range b.background.children {
		p := KeyToPos(n.Key)
		n.Color = b.palette.Dark
		if (p[0]+p[1])%2 == 1 {
			n.Color = b.palette.Light
		}
		n.Width, n.Height = sq.X, sq.Y
		b.placeAtKey(n, n.Key)
	}
}

// styleSquare colors a highlight node after the last class of its list.
func (b *Board) styleSquare(n *Node) {
	sq := b.squareSize()
	n.Width, n.Height = sq.X, sq.Y
	n.Color = ColorWhite
	for _, class := range strings.Fields(n.Tag) {
		switch class {
		case ClassLastMove:
			n.Color = b.palette.LastMove
		case ClassCheck:
			n.Color = b.palette.Check
		case ClassSelected:
			n.Color = b.palette.Selected
		case ClassMoveDest:
			n.Color = b.palette.MoveDest
		}
	}
}

// stylePiece binds the piece image or color to n.
func (b *Board) stylePiece(n *Node) {
	sq := b.squareSize()
	n.Width, n.Height = sq.X, sq.Y
	if b.atlas != nil {
		n.Image = b.atlas.Image(PieceRegionName(n.Piece))
		n.Color = ColorWhite
		return
	}
	n.Image = nil
	if n.Piece.Side == White {
		n.Color = b.palette.WhitePiece
	} else {
		n.Color = b.palette.BlackPiece
	}
}

// pieceNodeAt returns the non-fading piece node bound to k.
func (b *Board) pieceNodeAt(k Key) *Node {
	for _, n := range b.layer.children {
		if n.Type == NodeTypePiece && n.Key == k && !n.fading {
			return n
		}
	}
	return nil
}

// pieceZIndex is the layering key of a piece resting on k.
func (b *Board) pieceZIndex(k Key) int {
	if !b.state.AddPieceZIndex {
		return 1
	}
	return posZIndex(KeyToPos(k), b.state.Orientation == White, b.state.Geometry.Dimensions())
}

// posZIndex orders pieces so that ranks nearer the viewer draw on top.
func posZIndex(p Pos, asWhite bool, bd Dimensions) int {
	z := 3 + p[1]*bd.Width + (bd.Width - 1 - p[0])
	if asWhite {
		z = bd.Width*bd.Height + 5 - z
	}
	return z
}

func (b *Board) String() string {
	return fmt.Sprintf("Board(%s, %s, %d pieces)", b.id, b.state.Geometry, len(b.state.Pieces))
}
