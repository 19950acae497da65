package ground

import (
	"math"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// --- Harness ---

const testBoardSize = 800

type boardHarness struct {
	board  *Board
	frames *FrameQueue
	clock  *fakeClock
}

func newTestBoard(t *testing.T, fen string, cfg Config) *boardHarness {
	t.Helper()
	h := &boardHarness{frames: &FrameQueue{}, clock: &fakeClock{}}
	if fen != "" {
		cfg.FEN = &fen
	}
	b, err := NewBoard(cfg, BoardOptions{
		Logger: zaptest.NewLogger(t),
		Frames: h.frames,
		Clock:  h.clock,
		Bounds: Rect{Width: testBoardSize, Height: testBoardSize},
	})
	if err != nil {
		t.Fatalf("NewBoard: %v", err)
	}
	h.board = b
	return h
}

// tick advances the clock by d and fires the pending frame callbacks.
func (h *boardHarness) tick(d time.Duration) {
	h.clock.advance(d)
	h.frames.Flush(h.clock.Now())
}

// settle ticks until no frame callback is pending.
func (h *boardHarness) settle(t *testing.T) {
	t.Helper()
	for i := 0; i < 200 && h.frames.Len() > 0; i++ {
		h.tick(16 * time.Millisecond)
	}
	if h.frames.Len() > 0 {
		t.Fatal("board did not settle")
	}
}

func (h *boardHarness) pieceNodes() []*Node {
	var out []*Node
	for _, n := range h.board.Nodes() {
		if n.Type == NodeTypePiece {
			out = append(out, n)
		}
	}
	return out
}

func (h *boardHarness) squareNodes() map[Key]string {
	out := make(map[Key]string)
	for _, n := range h.board.Nodes() {
		if n.Type == NodeTypeSquare {
			out[n.Key] = n.Tag
		}
	}
	return out
}

func noAnimation() Config {
	off := false
	return Config{Animation: &AnimationPatch{Enabled: &off}}
}

// restPos is where a piece on k rests on an 800x800 board seen by white.
func restPos(k Key) Vec2 {
	p := KeyToPos(k)
	return PosToTranslate(float64(p[0]), float64(p[1]), Vec2{testBoardSize, testBoardSize}, Dim8x8.Dimensions(), true)
}

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// --- Construction ---

func TestNewBoardRendersPlacement(t *testing.T) {
	h := newTestBoard(t, initialFEN, Config{})
	nodes := h.pieceNodes()
	if len(nodes) != 32 {
		t.Fatalf("piece nodes = %d, want 32", len(nodes))
	}
	if got := h.board.LastStats().Created; got != 32 {
		t.Errorf("Created = %d, want 32", got)
	}
	for _, n := range nodes {
		want := restPos(n.Key)
		if n.X != want.X || n.Y != want.Y {
			t.Errorf("%s at (%v, %v), want %v", n.Key, n.X, n.Y, want)
		}
		if n.Width != 100 || n.Height != 100 {
			t.Errorf("%s size = %vx%v, want 100x100", n.Key, n.Width, n.Height)
		}
	}
	if h.board.ID() == "" {
		t.Error("board should have an id")
	}
	if got := h.board.FEN(); got != initialFEN {
		t.Errorf("FEN = %q, want %q", got, initialFEN)
	}
}

func TestNewBoardInvalidFEN(t *testing.T) {
	fen := "not a fen"
	_, err := NewBoard(Config{FEN: &fen}, BoardOptions{})
	if err == nil {
		t.Fatal("expected error")
	}
}

// --- Node identity ---

func TestReconcileKeepsNodeIdentityAcrossMoves(t *testing.T) {
	h := newTestBoard(t, initialFEN, noAnimation())
	b := h.board
	knight := b.pieceNodeAt("g1")

	b.Move("g1", "f3")
	h.settle(t)
	if got := b.pieceNodeAt("f3"); got != knight {
		t.Fatal("the g1 node should be rebound to f3")
	}
	// Two last-move highlights are created; no piece node is.
	stats := b.LastStats()
	if stats.Moved != 1 || stats.Created != 2 {
		t.Errorf("stats = %+v, want 1 moved, 2 created", stats)
	}

	b.Move("f3", "g1")
	h.settle(t)
	if got := b.pieceNodeAt("g1"); got != knight {
		t.Fatal("the node should come back to g1")
	}
	if knight.IsDisposed() {
		t.Error("knight node should never be disposed")
	}
	if len(h.pieceNodes()) != 32 {
		t.Errorf("piece nodes = %d, want 32", len(h.pieceNodes()))
	}
}

func TestReconcileUnchangedNodesKept(t *testing.T) {
	h := newTestBoard(t, initialFEN, noAnimation())
	before := make(map[Key]*Node)
	for _, n := range h.pieceNodes() {
		before[n.Key] = n
	}
	h.board.Move("e2", "e4")
	h.settle(t)
	for k, n := range before {
		if k == "e2" {
			continue
		}
		if h.board.pieceNodeAt(k) != n {
			t.Errorf("node on %s replaced", k)
		}
	}
}

func TestOneSourceFeedsTwoArrivals(t *testing.T) {
	h := newTestBoard(t, "8/8/8/8/8/8/3P4/8", Config{})
	h.board.SetPieces(PiecesDiff{"d2": nil, "d3": &whitePawn, "d4": &whitePawn})

	for _, k := range []Key{"d3", "d4"} {
		if _, ok := h.board.Animator().Vector(k); !ok {
			t.Errorf("%s should slide in from d2", k)
		}
		n := h.board.pieceNodeAt(k)
		if n == nil || !n.Animating() {
			t.Fatalf("%s node = %v, want an animating pawn", k, n)
		}
		start := restPos("d2")
		assertNear(t, string(k)+" x", n.X, start.X)
		assertNear(t, string(k)+" y", n.Y, start.Y)
	}
	if stats := h.board.LastStats(); stats.Moved != 1 || stats.Created != 1 {
		t.Errorf("stats = %+v, want the d2 node reused once and one created", stats)
	}

	h.settle(t)
	for _, k := range []Key{"d3", "d4"} {
		n := h.board.pieceNodeAt(k)
		want := restPos(k)
		if n == nil || n.X != want.X || n.Y != want.Y {
			t.Errorf("%s should rest at %v", k, want)
		}
	}
}

func TestReconcileRemovesAndCreates(t *testing.T) {
	h := newTestBoard(t, "8/8/8/8/8/8/8/R7", noAnimation())
	queen := Piece{Role: "q-piece", Side: Black}
	h.board.SetPieces(PiecesDiff{"a1": nil, "d5": &queen})
	h.settle(t)

	nodes := h.pieceNodes()
	if len(nodes) != 1 || nodes[0].Key != "d5" || !nodes[0].Piece.Same(queen) {
		t.Fatalf("nodes = %v, want a single queen on d5", nodes)
	}
	stats := h.board.LastStats()
	if stats.Created != 1 || stats.Removed != 1 {
		t.Errorf("stats = %+v, want 1 created, 1 removed", stats)
	}
}

// --- Animation through the reconciler ---

func TestAnimatedMoveStartsAtOrigin(t *testing.T) {
	h := newTestBoard(t, initialFEN, Config{})
	b := h.board
	pawn := b.pieceNodeAt("e2")

	b.Move("e2", "e4")
	if !b.Animator().Running() {
		t.Fatal("move should start an animation")
	}
	if b.pieceNodeAt("e4") != pawn {
		t.Fatal("the e2 node should be rebound to e4")
	}
	if !pawn.Animating() {
		t.Error("node should be animating")
	}
	origin := restPos("e2")
	assertNear(t, "x", pawn.X, origin.X)
	assertNear(t, "y", pawn.Y, origin.Y)

	h.tick(100 * time.Millisecond)
	dest := restPos("e4")
	if !(pawn.Y < origin.Y && pawn.Y > dest.Y) {
		t.Errorf("mid-run y = %v, want between %v and %v", pawn.Y, dest.Y, origin.Y)
	}

	h.settle(t)
	if pawn.Animating() {
		t.Error("node should be at rest")
	}
	assertNear(t, "x", pawn.X, dest.X)
	assertNear(t, "y", pawn.Y, dest.Y)
}

func TestCaptureFadesInPlace(t *testing.T) {
	h := newTestBoard(t, "8/8/8/8/8/8/p7/R7", Config{})
	b := h.board
	pawn := b.pieceNodeAt("a2")

	b.Move("a1", "a2")
	if !pawn.Fading() {
		t.Fatal("captured pawn should fade")
	}
	if b.LastStats().Fading != 1 {
		t.Errorf("Fading = %d, want 1", b.LastStats().Fading)
	}
	if len(h.pieceNodes()) != 2 {
		t.Fatalf("piece nodes = %d, want rook and fading pawn", len(h.pieceNodes()))
	}
	if b.pieceNodeAt("a2") == pawn {
		t.Error("pieceNodeAt should skip the fading node")
	}

	b.UpdateFades(0.1)
	if pawn.Alpha >= 1 {
		t.Errorf("alpha = %v, want < 1 while fading", pawn.Alpha)
	}

	h.settle(t)
	if !pawn.IsDisposed() {
		t.Error("pawn node should be disposed once the run ends")
	}
	if len(h.pieceNodes()) != 1 {
		t.Errorf("piece nodes = %d, want 1", len(h.pieceNodes()))
	}
}

func TestAnimDisabledRendersOnNextFrame(t *testing.T) {
	h := newTestBoard(t, initialFEN, noAnimation())
	h.board.Move("e2", "e4")
	if h.board.Animator().Running() {
		t.Fatal("animation is disabled")
	}
	if h.board.pieceNodeAt("e2") == nil {
		t.Fatal("the tree should not change before the frame")
	}
	h.tick(16 * time.Millisecond)
	if h.board.pieceNodeAt("e4") == nil {
		t.Error("the tree should change on the frame")
	}
}

func TestMutationResults(t *testing.T) {
	h := newTestBoard(t, initialFEN, Config{})
	got := Anim(h.board, func(s *State) int { return len(s.Pieces) })
	if got != 32 {
		t.Errorf("Anim result = %d, want 32", got)
	}
	if h.board.Animator().Running() {
		t.Error("a mutation without placement change should not animate")
	}
	if h.frames.Len() != 1 {
		t.Errorf("pending frames = %d, want one redraw", h.frames.Len())
	}

	ok := Render(h.board, func(s *State) bool {
		_, moved := s.Move("b1", "c3")
		return moved
	})
	if !ok {
		t.Error("Render should return the mutation result")
	}
	if h.board.Animator().Running() {
		t.Error("Render never animates")
	}
}

// --- Redraw ---

func TestRedrawCoalesces(t *testing.T) {
	h := newTestBoard(t, initialFEN, Config{})
	h.board.Redraw()
	h.board.Redraw()
	h.board.Redraw()
	if h.frames.Len() != 1 {
		t.Errorf("pending frames = %d, want 1", h.frames.Len())
	}
	h.tick(16 * time.Millisecond)
	h.board.Redraw()
	if h.frames.Len() != 1 {
		t.Errorf("pending frames = %d, want 1 after flush", h.frames.Len())
	}
}

func TestOverlayHook(t *testing.T) {
	calls := 0
	fen := initialFEN
	b, err := NewBoard(Config{FEN: &fen}, BoardOptions{
		Frames:  &FrameQueue{},
		Clock:   &fakeClock{},
		Bounds:  Rect{Width: 80, Height: 80},
		Overlay: func(*Board) { calls++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("overlay calls = %d, want 1 after creation", calls)
	}
	b.RedrawNow(true)
	if calls != 1 {
		t.Error("skipOverlay should suppress the hook")
	}
	b.RedrawNow(false)
	if calls != 2 {
		t.Errorf("overlay calls = %d, want 2", calls)
	}
}

// --- Highlights ---

func TestSquareHighlights(t *testing.T) {
	h := newTestBoard(t, initialFEN, noAnimation())
	b := h.board
	b.Move("e2", "e4")
	h.settle(t)

	sq := h.squareNodes()
	if sq["e2"] != ClassLastMove || sq["e4"] != ClassLastMove {
		t.Errorf("squares = %v, want last-move on e2 and e4", sq)
	}

	b.State().Movable.Dests = Dests{"d7": {"d6", "d5", "e6"}}
	b.State().Movable.Free = false
	b.SelectSquare("d7", false)
	h.settle(t)

	sq = h.squareNodes()
	if sq["d7"] != ClassSelected {
		t.Errorf("d7 = %q, want selected", sq["d7"])
	}
	if sq["d6"] != ClassMoveDest || sq["d5"] != ClassMoveDest {
		t.Errorf("dests = %q %q, want move-dest", sq["d6"], sq["d5"])
	}
	if sq["e6"] != ClassMoveDest {
		t.Errorf("e6 = %q, want move-dest", sq["e6"])
	}

	b.SelectSquare("", false)
	h.settle(t)
	sq = h.squareNodes()
	if _, ok := sq["d7"]; ok {
		t.Error("selection highlight should be gone")
	}
	if len(sq) != 2 {
		t.Errorf("squares = %v, want only the last move", sq)
	}
}

func TestSquareClassesAccumulate(t *testing.T) {
	s := DefaultState()
	s.Pieces, _ = ReadFEN(initialFEN, Dim8x8)
	s.LastMove = []Key{"e2", "e4"}
	s.Selected = "e4"
	s.Movable.Dests = Dests{"e4": {"d7", "e5"}}

	sc := computeSquareClasses(s)
	if got := sc.get("e4"); got != ClassLastMove+" "+ClassSelected {
		t.Errorf("e4 = %q", got)
	}
	if got := sc.get("d7"); got != ClassMoveDest+" "+ClassOccupied {
		t.Errorf("d7 = %q", got)
	}
	if got := sc.get("e5"); got != ClassMoveDest {
		t.Errorf("e5 = %q", got)
	}
	if len(sc.list) != 4 {
		t.Errorf("highlighted squares = %d, want 4", len(sc.list))
	}
}

// --- Ordering ---

func TestPosZIndexNearerRanksOnTop(t *testing.T) {
	bd := Dim8x8.Dimensions()
	a1 := posZIndex(KeyToPos("a1"), true, bd)
	a8 := posZIndex(KeyToPos("a8"), true, bd)
	if a1 <= a8 {
		t.Errorf("as white a1 (%d) should draw above a8 (%d)", a1, a8)
	}
	a1 = posZIndex(KeyToPos("a1"), false, bd)
	a8 = posZIndex(KeyToPos("a8"), false, bd)
	if a8 <= a1 {
		t.Errorf("as black a8 (%d) should draw above a1 (%d)", a8, a1)
	}
}

func TestPieceZIndexOnlyWhenEnabled(t *testing.T) {
	h := newTestBoard(t, initialFEN, Config{})
	if z := h.board.pieceNodeAt("a1").ZIndex; z != 1 {
		t.Errorf("ZIndex = %d, want 1 without AddPieceZIndex", z)
	}
	on := true
	h2 := newTestBoard(t, initialFEN, Config{AddPieceZIndex: &on})
	a1 := h2.board.pieceNodeAt("a1").ZIndex
	a8 := h2.board.pieceNodeAt("a8").ZIndex
	if a1 <= a8 {
		t.Errorf("a1 z = %d, a8 z = %d; nearer rank should be higher", a1, a8)
	}
}

// --- Configuration ---

func TestSetFENAnimates(t *testing.T) {
	h := newTestBoard(t, initialFEN, Config{})
	fen := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR"
	if err := h.board.Set(Config{FEN: &fen}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := h.board.Animator().Vector("e4"); !ok {
		t.Error("Set with a FEN should animate the change")
	}
	h.settle(t)
	if got := h.board.FEN(); got != fen {
		t.Errorf("FEN = %q, want %q", got, fen)
	}
}

func TestSetInvalidFENLeavesState(t *testing.T) {
	h := newTestBoard(t, initialFEN, Config{})
	bad := "8/8"
	if err := h.board.Set(Config{FEN: &bad}); err == nil {
		t.Fatal("expected error")
	}
	if got := h.board.FEN(); got != initialFEN {
		t.Errorf("FEN = %q, want unchanged", got)
	}
}

func TestSetOrientationRebuilds(t *testing.T) {
	h := newTestBoard(t, initialFEN, Config{})
	old := h.board.pieceNodeAt("a1")
	black := Black
	if err := h.board.Set(Config{Orientation: &black}); err != nil {
		t.Fatal(err)
	}
	h.settle(t)
	if !old.IsDisposed() {
		t.Error("orientation change should rebuild every node")
	}
	n := h.board.pieceNodeAt("a1")
	if n.X != 700 || n.Y != 0 {
		t.Errorf("a1 as black at (%v, %v), want (700, 0)", n.X, n.Y)
	}
	if !strings.Contains(n.Tag, "enemy") {
		t.Errorf("tag = %q, white pieces are enemies seen from black", n.Tag)
	}
}

func TestSetGeometry(t *testing.T) {
	h := newTestBoard(t, initialFEN, Config{})
	g := Dim10x10
	fen := "10/10/10/10/10/10/10/10/10/K9"
	if err := h.board.Set(Config{Geometry: &g, FEN: &fen}); err != nil {
		t.Fatal(err)
	}
	nodes := h.pieceNodes()
	if len(nodes) != 1 || nodes[0].Key != "a1" {
		t.Fatalf("nodes = %v, want a single king", nodes)
	}
	if nodes[0].Width != 80 {
		t.Errorf("square width = %v, want 80", nodes[0].Width)
	}
}

func TestSetBoundsRepositions(t *testing.T) {
	h := newTestBoard(t, initialFEN, Config{})
	h.board.SetBounds(Rect{X: 10, Y: 20, Width: 400, Height: 400})
	n := h.board.pieceNodeAt("a1")
	if n.X != 0 || n.Y != 350 || n.Width != 50 {
		t.Errorf("a1 = (%v, %v) w=%v, want (0, 350) w=50", n.X, n.Y, n.Width)
	}
	if r := h.board.Root(); r.X != 10 || r.Y != 20 {
		t.Errorf("root at (%v, %v), want (10, 20)", r.X, r.Y)
	}
	if k, ok := h.board.KeyAtPos(Vec2{15, 25}); !ok || k != "a8" {
		t.Errorf("KeyAtPos = %s, %v; want a8", k, ok)
	}
}

// --- Lifecycle ---

func TestDestroy(t *testing.T) {
	h := newTestBoard(t, initialFEN, Config{})
	parent := NewContainer("parent")
	parent.AddChild(h.board.Root())

	h.board.Move("e2", "e4")
	h.board.Destroy()
	if !h.board.Destroyed() {
		t.Fatal("board should be destroyed")
	}
	if h.board.Animator().Running() {
		t.Error("destroy should cancel the run")
	}
	if parent.NumChildren() != 0 {
		t.Error("destroy should detach the board root")
	}

	h.tick(16 * time.Millisecond)
	if h.frames.Len() != 0 {
		t.Errorf("pending frames = %d, want none after destroy", h.frames.Len())
	}
	h.board.Redraw()
	if h.frames.Len() != 0 {
		t.Error("Redraw after destroy should be ignored")
	}
	h.board.Move("d2", "d4")
	if h.board.Animator().Running() {
		t.Error("a destroyed board never animates")
	}
	h.board.Destroy() // idempotent
}

func TestStop(t *testing.T) {
	h := newTestBoard(t, initialFEN, Config{})
	h.board.Move("e2", "e4")
	h.board.Stop()
	if h.board.Animator().Running() {
		t.Error("Stop should cancel the run")
	}
	if h.board.State().Movable.Color != MovableNone {
		t.Error("Stop should forbid moves")
	}
	if h.board.DragStart(Vec2{450, 650}) {
		t.Error("no drag should start on a stopped board")
	}
}

func TestNewPieceAnimatesNothing(t *testing.T) {
	h := newTestBoard(t, "8/8/8/8/8/8/8/8", Config{})
	if !h.board.NewPiece(whitePawn, "e4") {
		t.Fatal("NewPiece should succeed on an empty square")
	}
	if h.board.NewPiece(blackPawn, "e4") {
		t.Error("NewPiece should refuse an occupied square")
	}
	h.settle(t)
	if n := h.board.pieceNodeAt("e4"); n == nil || !n.Piece.Same(whitePawn) {
		t.Error("pawn node missing on e4")
	}
}
