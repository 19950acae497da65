package ground

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// --- Per-pointer state ---

// pointerState tracks the primary pointer. A press captures the board under
// it; moves and the release go to that board even when they leave its bounds.
type pointerState struct {
	down    bool
	lastX   float64
	lastY   float64
	board   *Board
	touch   ebiten.TouchID
	touched bool
}

// --- Injected input ---

// syntheticPointerEvent represents a single injected pointer event in scene
// coordinates.
type syntheticPointerEvent struct {
	x, y    float64
	pressed bool
}

// InjectPress queues a pointer press at the given scene coordinates. The
// event is consumed on the next frame's processInput call.
func (s *Scene) InjectPress(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticPointerEvent{x: x, y: y, pressed: true})
}

// InjectMove queues a pointer move with the button held down. Use this
// between InjectPress and InjectRelease to simulate a drag.
func (s *Scene) InjectMove(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticPointerEvent{x: x, y: y, pressed: true})
}

// InjectRelease queues a pointer release at the given scene coordinates.
func (s *Scene) InjectRelease(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticPointerEvent{x: x, y: y})
}

// InjectClick queues a press followed by a release at the same point.
// Consumes two frames.
func (s *Scene) InjectClick(x, y float64) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectDrag queues a full drag sequence: press at (fromX, fromY), linearly
// interpolated moves over frames-2 intermediate frames, and release at
// (toX, toY). The total sequence consumes `frames` frames. Minimum frames is
// 2 (press + release).
func (s *Scene) InjectDrag(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	s.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		s.InjectMove(fromX+(toX-fromX)*t, fromY+(toY-fromY)*t)
	}
	s.InjectRelease(toX, toY)
}

// Pending reports the number of injected events not yet consumed.
func (s *Scene) Pending() int {
	return len(s.injectQueue)
}

// --- Processing ---

// processInput is called from Scene.Update() to handle injected, mouse and
// touch input. Injected events take precedence over the real devices.
func (s *Scene) processInput() {
	if s.processInjectedInput() {
		return
	}
	if !s.pointer.touched {
		if s.processMousePointer() {
			return
		}
	}
	s.processTouchPointer()
}

// processInjectedInput pops one event from the inject queue and feeds it
// through processPointer. Returns true if an event was consumed.
func (s *Scene) processInjectedInput() bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	evt := s.injectQueue[0]
	copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]

	s.processPointer(evt.x, evt.y, evt.pressed)
	return true
}

// processMousePointer handles the mouse. A right click while a drag is held
// cancels it. Returns true when the mouse owns the pointer this frame.
func (s *Scene) processMousePointer() bool {
	mx, my := ebiten.CursorPosition()
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	if left && s.pointer.down && ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight) {
		if b := s.pointer.board; b != nil {
			b.DragCancel()
		}
		s.pointer = pointerState{lastX: float64(mx), lastY: float64(my)}
		return true
	}
	if !left && !s.pointer.down {
		s.pointer.lastX, s.pointer.lastY = float64(mx), float64(my)
		return false
	}
	s.processPointer(float64(mx), float64(my), left)
	return true
}

// processTouchPointer follows the first touch only.
func (s *Scene) processTouchPointer() {
	ps := &s.pointer
	ids := ebiten.AppendTouchIDs(nil)
	if ps.touched {
		for _, id := range ids {
			if id == ps.touch {
				tx, ty := ebiten.TouchPosition(id)
				s.processPointer(float64(tx), float64(ty), true)
				return
			}
		}
		s.processPointer(ps.lastX, ps.lastY, false)
		ps.touched = false
		return
	}
	if len(ids) == 0 {
		return
	}
	tx, ty := ebiten.TouchPosition(ids[0])
	s.processPointer(float64(tx), float64(ty), true)
	ps.touch = ids[0]
	ps.touched = true
}

// processPointer runs the pointer state machine.
func (s *Scene) processPointer(x, y float64, pressed bool) {
	ps := &s.pointer
	pt := Vec2{X: x, Y: y}

	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.lastX, ps.lastY = x, y
		ps.board = s.boardAt(pt)
		if ps.board != nil {
			ps.board.DragStart(pt)
		}
	case !pressed && ps.down:
		if ps.board != nil && !ps.board.Destroyed() {
			ps.board.DragEnd(pt)
		}
		ps.down = false
		ps.board = nil
		ps.lastX, ps.lastY = x, y
	case pressed && ps.down:
		if x != ps.lastX || y != ps.lastY {
			if ps.board != nil {
				ps.board.DragMove(pt)
			}
		}
		ps.lastX, ps.lastY = x, y
	default:
		ps.lastX, ps.lastY = x, y
	}
}

// boardAt returns the topmost live board whose bounds contain pt.
func (s *Scene) boardAt(pt Vec2) *Board {
	for i := len(s.boards) - 1; i >= 0; i-- {
		b := s.boards[i]
		if !b.Destroyed() && b.Bounds().Contains(pt.X, pt.Y) {
			return b
		}
	}
	return nil
}
