// Package term renders a ground board into a terminal with tcell.
//
// Each square is CellsPerSquare cells wide and one cell tall, so board
// coordinates are cell coordinates: a View hands its boards bounds in cells
// and reads node positions back as cells.
package term

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/phanxgames/ground"
	"go.uber.org/zap"
)

// CellsPerSquare is the width of one square in terminal cells.
const CellsPerSquare = 3

const frameInterval = 16 * time.Millisecond

// View is a terminal host for one board. It implements ground.FrameSource
// and ground.Clock; frame callbacks run on every tick of Run or on Tick.
type View struct {
	screen  tcell.Screen
	board   *ground.Board
	frames  ground.FrameQueue
	start   time.Time
	log     *zap.Logger
	palette ground.Palette

	// Origin is the top-left cell of the board.
	OriginX, OriginY int

	pressed bool
}

// NewView wraps an initialized screen. log may be nil.
func NewView(screen tcell.Screen, log *zap.Logger) *View {
	if log == nil {
		log = zap.NewNop()
	}
	return &View{
		screen:  screen,
		start:   time.Now(),
		log:     log,
		palette: ground.DefaultPalette,
		OriginX: 1,
		OriginY: 1,
	}
}

// RequestFrame queues fn for the next tick.
func (v *View) RequestFrame(fn func(now time.Duration)) {
	v.frames.RequestFrame(fn)
}

// Now returns the time since the view was created.
func (v *View) Now() time.Duration {
	return time.Since(v.start)
}

// BoardOptions returns options that bind a board of geometry g to the view.
func (v *View) BoardOptions(g ground.Geometry) ground.BoardOptions {
	bd := g.Dimensions()
	return ground.BoardOptions{
		Logger: v.log,
		Frames: v,
		Clock:  v,
		Bounds: ground.Rect{
			X:      float64(v.OriginX),
			Y:      float64(v.OriginY),
			Width:  float64(bd.Width * CellsPerSquare),
			Height: float64(bd.Height),
		},
	}
}

// NewBoard creates a board driven by the view and attaches it.
func (v *View) NewBoard(cfg ground.Config) (*ground.Board, error) {
	g := ground.Dim8x8
	if cfg.Geometry != nil {
		g = *cfg.Geometry
	}
	b, err := ground.NewBoard(cfg, v.BoardOptions(g))
	if err != nil {
		return nil, err
	}
	v.board = b
	return b, nil
}

// Board returns the attached board, or nil.
func (v *View) Board() *ground.Board {
	return v.board
}

// Tick fires pending frame callbacks, advances fades by dt and draws.
func (v *View) Tick(dt time.Duration) {
	v.frames.Flush(v.Now())
	if v.board != nil {
		v.board.UpdateFades(float32(dt.Seconds()))
	}
	v.Draw()
	v.screen.Show()
}

// Draw paints the board: the checkered background, then highlighted squares,
// then pieces in ZIndex order.
func (v *View) Draw() {
	v.screen.Clear()
	b := v.board
	if b == nil || b.Destroyed() {
		return
	}
	s := b.State()
	bounds := b.Bounds()
	bd := s.Geometry.Dimensions()
	asWhite := s.Orientation == ground.White

	for _, k := range s.Geometry.AllKeys() {
		c := ground.SquareCenter(k, asWhite, bounds, bd)
		p := ground.KeyToPos(k)
		col := v.palette.Dark
		if (p[0]+p[1])%2 == 1 {
			col = v.palette.Light
		}
		v.fillSquare(int(c.X)-CellsPerSquare/2, int(c.Y), col)
	}

	nodes := b.Nodes()
	var pieces []*ground.Node
	for _, n := range nodes {
		switch n.Type {
		case ground.NodeTypeSquare:
			x, y := v.cell(bounds, n)
			v.fillSquare(x, y, v.squareColor(x, y, n))
		case ground.NodeTypePiece:
			if n.Visible && n.Alpha > 0 {
				pieces = append(pieces, n)
			}
		}
	}
	slices.SortStableFunc(pieces, func(a, b *ground.Node) int { return a.ZIndex - b.ZIndex })
	for _, n := range pieces {
		x, y := v.cell(bounds, n)
		x += CellsPerSquare / 2
		letter := ground.LetterOf(n.Piece.Role, n.Piece.Side == ground.White)
		if n.Piece.Promoted {
			letter = "+" + letter
		}
		_, bg, _ := v.cellStyle(x, y)
		fg := v.palette.BlackPiece
		if n.Piece.Side == ground.White {
			fg = v.palette.WhitePiece
		}
		fg.A = n.Alpha
		style := tcell.StyleDefault.Background(bg).Foreground(termColor(blend(colorOf(bg), fg))).Bold(true)
		for i, r := range letter {
			v.screen.SetContent(x+i-len(letter)/2, y, r, nil, style)
		}
	}
}

// cell returns the top-left cell of node n.
func (v *View) cell(bounds ground.Rect, n *ground.Node) (int, int) {
	return int(math.Round(bounds.X + n.X)), int(math.Round(bounds.Y + n.Y))
}

// squareColor blends the highlight color of n over the cell already drawn.
func (v *View) squareColor(x, y int, n *ground.Node) ground.Color {
	_, bg, _ := v.cellStyle(x, y)
	return blend(colorOf(bg), n.Color)
}

func (v *View) cellStyle(x, y int) (tcell.Color, tcell.Color, tcell.AttrMask) {
	_, _, style, _ := v.screen.GetContent(x, y)
	return style.Decompose()
}

func (v *View) fillSquare(x, y int, c ground.Color) {
	style := tcell.StyleDefault.Background(termColor(c))
	for i := 0; i < CellsPerSquare; i++ {
		v.screen.SetContent(x+i, y, ' ', nil, style)
	}
}

// HandleEvent routes a tcell event to the board. It reports false when the
// user asked to quit.
func (v *View) HandleEvent(ev tcell.Event) bool {
	b := v.board
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune && b != nil {
			switch ev.Rune() {
			case 'q':
				return false
			case 'f':
				b.ToggleOrientation()
			}
		}
	case *tcell.EventMouse:
		if b == nil {
			return true
		}
		x, y := ev.Position()
		pt := ground.Vec2{X: float64(x) + 0.5, Y: float64(y) + 0.5}
		down := ev.Buttons()&tcell.Button1 != 0
		switch {
		case down && !v.pressed:
			v.pressed = true
			b.DragStart(pt)
		case down && v.pressed:
			b.DragMove(pt)
		case !down && v.pressed:
			v.pressed = false
			b.DragEnd(pt)
		}
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

// Run polls screen events and ticks the view every frame until ctx is done
// or the user quits. The caller owns the screen and calls Fini.
func (v *View) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	go v.screen.ChannelEvents(events, quit)
	defer close(quit)

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	last := time.Now()

	v.log.Info("terminal view running")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !v.HandleEvent(ev) {
				return nil
			}
		case now := <-ticker.C:
			v.Tick(now.Sub(last))
			last = now
		}
	}
}

// termColor converts an opaque board color to a terminal color.
func termColor(c ground.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R*255+0.5), int32(c.G*255+0.5), int32(c.B*255+0.5))
}

// colorOf converts a terminal color back to an opaque board color.
func colorOf(c tcell.Color) ground.Color {
	if c == tcell.ColorDefault {
		return ground.Color{A: 1}
	}
	r, g, b := c.RGB()
	return ground.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255, A: 1}
}

// blend composites src over the opaque dst.
func blend(dst, src ground.Color) ground.Color {
	a := src.A
	return ground.Color{
		R: src.R*a + dst.R*(1-a),
		G: src.G*a + dst.G*(1-a),
		B: src.B*a + dst.B*(1-a),
		A: 1,
	}
}
