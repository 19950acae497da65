package ground

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

const defaultCommandCap = 256

// Scene is the ebiten host of one or more boards. It owns the node tree,
// drives board frames and fades from Update, turns pointer input into board
// drags, and draws the tree in Draw.
//
// Scene implements FrameSource and Clock: callbacks requested during a frame
// run at the start of the next Update.
type Scene struct {
	root   *Node
	boards []*Board
	frames FrameQueue
	clock  *SystemClock
	log    *zap.Logger
	debug  bool

	// ClearColor fills the screen before drawing when its alpha is non-zero.
	ClearColor Color

	updateFunc func() error

	// Render state
	commands []RenderCommand

	// Input state
	pointer     pointerState
	injectQueue []syntheticPointerEvent
	script      *ScriptRunner
}

// NewScene creates a new scene with a pre-created root container. log may be
// nil.
func NewScene(log *zap.Logger) *Scene {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scene{
		root:     NewContainer("root"),
		clock:    NewSystemClock(),
		log:      log,
		commands: make([]RenderCommand, 0, defaultCommandCap),
	}
}

// Root returns the scene's root container node.
func (s *Scene) Root() *Node {
	return s.root
}

// RequestFrame queues fn for the next Update.
func (s *Scene) RequestFrame(fn func(now time.Duration)) {
	s.frames.RequestFrame(fn)
}

// Now returns the scene clock.
func (s *Scene) Now() time.Duration {
	return s.clock.Now()
}

// NewBoard creates a board driven by this scene and attaches it to the root.
// Unset frame source, clock and logger in opts default to the scene's.
func (s *Scene) NewBoard(cfg Config, opts BoardOptions) (*Board, error) {
	if opts.Frames == nil {
		opts.Frames = s
	}
	if opts.Clock == nil {
		opts.Clock = s
	}
	if opts.Logger == nil {
		opts.Logger = s.log
	}
	b, err := NewBoard(cfg, opts)
	if err != nil {
		return nil, err
	}
	s.root.AddChild(b.Root())
	s.boards = append(s.boards, b)
	return b, nil
}

// Boards returns the live boards of the scene. The returned slice MUST NOT be
// mutated.
func (s *Scene) Boards() []*Board {
	return s.boards
}

// SetUpdateFunc sets a callback that runs at the end of every Update.
func (s *Scene) SetUpdateFunc(fn func() error) {
	s.updateFunc = fn
}

// SetScript attaches a script runner stepped once per Update.
func (s *Scene) SetScript(r *ScriptRunner) {
	s.script = r
}

// Update runs scripted actions, processes input, fires frame callbacks and
// advances fades.
func (s *Scene) Update() error {
	dt := float32(1.0 / float64(ebiten.TPS()))
	return s.update(dt)
}

func (s *Scene) update(dt float32) error {
	s.pruneBoards()

	updateWorldTransform(s.root, identityTransform, 1.0, false)

	if s.script != nil {
		if err := s.script.step(s); err != nil {
			return err
		}
	}
	s.processInput()
	s.frames.Flush(s.clock.Now())
	for _, b := range s.boards {
		b.UpdateFades(dt)
	}
	if s.updateFunc != nil {
		return s.updateFunc()
	}
	return nil
}

// pruneBoards forgets destroyed boards once their last frame has fired.
func (s *Scene) pruneBoards() {
	live := s.boards[:0]
	for _, b := range s.boards {
		if !b.Destroyed() {
			live = append(live, b)
		}
	}
	for i := len(live); i < len(s.boards); i++ {
		s.boards[i] = nil
	}
	s.boards = live
}

// Draw traverses the scene tree, emits render commands and submits them to
// screen.
func (s *Scene) Draw(screen *ebiten.Image) {
	if s.ClearColor.A > 0 {
		screen.Fill(s.ClearColor.toRGBA())
	}
	s.commands = s.commands[:0]

	var stats debugStats
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	treeOrder := 0
	s.traverse(s.root, identityTransform, 1.0, false, &treeOrder)

	if s.debug {
		stats.traverseTime = time.Since(t0)
		stats.commandCount = len(s.commands)
		t0 = time.Now()
	}

	s.submit(screen)

	if s.debug {
		stats.submitTime = time.Since(t0)
		s.debugLog(stats)
	}
}

// SetDebugMode enables or disables debug mode. When enabled, tree operations
// on disposed nodes panic and per-frame timing stats are logged.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which lack a Scene pointer) can check it cheaply.
var globalDebug bool
