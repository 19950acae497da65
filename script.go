package ground

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidScript is returned when a script cannot be parsed.
var ErrInvalidScript = errors.New("invalid script")

// scriptStep represents a single action in a script. Pointer actions take
// scene coordinates (x/y, fromX/fromY/toX/toY) or square keys (from/to),
// which resolve to the square centers of the target board.
type scriptStep struct {
	Action string  `json:"action"`
	Board  int     `json:"board,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	From   Key     `json:"from,omitempty"`
	To     Key     `json:"to,omitempty"`
	FEN    string  `json:"fen,omitempty"`
	Frames int     `json:"frames,omitempty"`
}

// script is the top-level JSON structure for a script.
type script struct {
	Steps []scriptStep `json:"steps"`
}

var scriptActions = map[string]bool{
	"click": true, "drag": true, "wait": true,
	"move": true, "fen": true, "select": true, "toggle": true,
}

// ScriptRunner sequences board calls and injected input across frames, one
// step per frame. Attach to a Scene via SetScript.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a JSON script and returns a ScriptRunner ready to be
// attached to a Scene via SetScript.
func LoadScript(data []byte) (*ScriptRunner, error) {
	var sc script
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("ground: parse script: %w: %w", ErrInvalidScript, err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("ground: parse script: %w: no steps", ErrInvalidScript)
	}
	for i, st := range sc.Steps {
		if !scriptActions[st.Action] {
			return nil, fmt.Errorf("ground: parse script: %w: step %d: unknown action %q", ErrInvalidScript, i, st.Action)
		}
	}
	return &ScriptRunner{steps: sc.Steps}, nil
}

// Done reports whether all steps of the script have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the runner by one frame. Called from Scene.Update.
func (r *ScriptRunner) step(s *Scene) error {
	if r.done {
		return nil
	}
	// Wait for pending injections to drain before advancing.
	if len(s.injectQueue) > 0 {
		return nil
	}
	if r.waitCount > 0 {
		r.waitCount--
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	st := r.steps[r.cursor]
	r.cursor++

	if err := r.exec(s, st); err != nil {
		return fmt.Errorf("ground: script step %d (%s): %w", r.cursor-1, st.Action, err)
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(s.injectQueue) == 0 {
		r.done = true
	}
	return nil
}

func (r *ScriptRunner) exec(s *Scene, st scriptStep) error {
	if st.Action == "wait" {
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
		return nil
	}
	if st.Board < 0 || st.Board >= len(s.boards) {
		return fmt.Errorf("no board %d", st.Board)
	}
	b := s.boards[st.Board]

	switch st.Action {
	case "click":
		x, y := st.X, st.Y
		if st.From != "" {
			c := b.squareCenter(st.From)
			x, y = c.X, c.Y
		}
		s.InjectClick(x, y)
	case "drag":
		fx, fy, tx, ty := st.FromX, st.FromY, st.ToX, st.ToY
		if st.From != "" && st.To != "" {
			from, to := b.squareCenter(st.From), b.squareCenter(st.To)
			fx, fy, tx, ty = from.X, from.Y, to.X, to.Y
		}
		s.InjectDrag(fx, fy, tx, ty, st.Frames)
	case "move":
		b.Move(st.From, st.To)
	case "fen":
		fen := st.FEN
		return b.Set(Config{FEN: &fen})
	case "select":
		b.SelectSquare(st.From, false)
	case "toggle":
		b.ToggleOrientation()
	}
	return nil
}

// squareCenter returns the center of k in the board's parent space.
func (b *Board) squareCenter(k Key) Vec2 {
	return SquareCenter(k, b.state.Orientation == White, b.bounds, b.state.Geometry.Dimensions())
}
