package ground

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// CheckState selects the check highlight set through Config.
type CheckState uint8

const (
	CheckNone  CheckState = iota // clear the highlight
	CheckTurn                    // the king of the side to move
	CheckWhite                   // the white king
	CheckBlack                   // the black king
)

// ParseCheckState converts "true" / "false" / "white" / "black".
func ParseCheckState(s string) (CheckState, error) {
	switch strings.ToLower(s) {
	case "", "false", "none":
		return CheckNone, nil
	case "true", "turn":
		return CheckTurn, nil
	case "white":
		return CheckWhite, nil
	case "black":
		return CheckBlack, nil
	}
	return CheckNone, fmt.Errorf("ground: unknown check state %q", s)
}

// HighlightConfig toggles square highlights.
type HighlightConfig struct {
	LastMove *bool
	Check    *bool
}

// AnimationPatch updates animation settings.
type AnimationPatch struct {
	Enabled  *bool
	Duration *time.Duration
}

// MovableConfig updates move permissions. A non-nil Dests replaces the
// current destinations wholesale.
type MovableConfig struct {
	Free      *bool
	Color     *MovableSide
	Dests     Dests
	ShowDests *bool
}

// DraggableConfig updates drag settings.
type DraggableConfig struct {
	Enabled         *bool
	Distance        *float64
	DeleteOnDropOff *bool
}

// SelectableConfig updates click selection.
type SelectableConfig struct {
	Enabled *bool
}

// Config is a partial update of board state. Nil fields are left untouched.
type Config struct {
	FEN            *string
	Orientation    *Side
	TurnColor      *Side
	Check          *CheckState
	LastMove       *[]Key // pointer to an empty slice clears the last move
	Selected       *Key
	AddPieceZIndex *bool
	Geometry       *Geometry
	Highlight      *HighlightConfig
	Animation      *AnimationPatch
	Movable        *MovableConfig
	Draggable      *DraggableConfig
	Selectable     *SelectableConfig
	Events         *Events // non-nil callbacks replace the current ones
}

// applyAnimation merges the animation patch and normalizes the result. It
// reports whether normalization disabled animation.
func applyAnimation(s *State, cfg Config) bool {
	if cfg.Animation == nil {
		return false
	}
	if cfg.Animation.Enabled != nil {
		s.Animation.Enabled = *cfg.Animation.Enabled
	}
	if cfg.Animation.Duration != nil {
		s.Animation.Duration = *cfg.Animation.Duration
	}
	return s.normalizeAnimation()
}

// configure merges cfg into s. pieces, when non-nil, is the already parsed
// FEN placement and replaces the current one.
func configure(s *State, cfg Config, pieces Pieces) {
	if cfg.TurnColor != nil {
		s.TurnColor = *cfg.TurnColor
	}
	if cfg.Orientation != nil {
		s.Orientation = *cfg.Orientation
	}
	if cfg.Selected != nil {
		s.Selected = *cfg.Selected
	}
	if cfg.AddPieceZIndex != nil {
		s.AddPieceZIndex = *cfg.AddPieceZIndex
	}
	if cfg.Geometry != nil {
		s.Geometry = *cfg.Geometry
	}
	if h := cfg.Highlight; h != nil {
		if h.LastMove != nil {
			s.Highlight.LastMove = *h.LastMove
		}
		if h.Check != nil {
			s.Highlight.Check = *h.Check
		}
	}
	if m := cfg.Movable; m != nil {
		if m.Free != nil {
			s.Movable.Free = *m.Free
		}
		if m.Color != nil {
			s.Movable.Color = *m.Color
		}
		if m.Dests != nil {
			s.Movable.Dests = m.Dests
		}
		if m.ShowDests != nil {
			s.Movable.ShowDests = *m.ShowDests
		}
	}
	if d := cfg.Draggable; d != nil {
		if d.Enabled != nil {
			s.Draggable.Enabled = *d.Enabled
		}
		if d.Distance != nil {
			s.Draggable.Distance = *d.Distance
		}
		if d.DeleteOnDropOff != nil {
			s.Draggable.DeleteOnDropOff = *d.DeleteOnDropOff
		}
	}
	if cfg.Selectable != nil && cfg.Selectable.Enabled != nil {
		s.Selectable.Enabled = *cfg.Selectable.Enabled
	}
	if e := cfg.Events; e != nil {
		if e.Change != nil {
			s.Events.Change = e.Change
		}
		if e.Move != nil {
			s.Events.Move = e.Move
		}
		if e.DropNewPiece != nil {
			s.Events.DropNewPiece = e.DropNewPiece
		}
		if e.Select != nil {
			s.Events.Select = e.Select
		}
	}

	if pieces != nil {
		s.Pieces = pieces
	}

	if cfg.Check != nil {
		switch *cfg.Check {
		case CheckNone:
			s.ClearCheck()
		case CheckTurn:
			s.SetCheck(s.TurnColor)
		case CheckWhite:
			s.SetCheck(White)
		case CheckBlack:
			s.SetCheck(Black)
		}
	}
	if cfg.LastMove != nil {
		if len(*cfg.LastMove) == 0 {
			s.LastMove = nil
		} else {
			s.LastMove = append([]Key(nil), (*cfg.LastMove)...)
		}
	}

	applyAnimation(s, cfg)
}

// --- File configuration ---

// fileConfig is the on-disk shape decoded by viper.
type fileConfig struct {
	FEN            string         `mapstructure:"fen"`
	Orientation    string         `mapstructure:"orientation"`
	TurnColor      string         `mapstructure:"turn_color"`
	Check          string         `mapstructure:"check"`
	LastMove       []string       `mapstructure:"last_move"`
	Geometry       string         `mapstructure:"geometry"`
	AddPieceZIndex bool           `mapstructure:"add_piece_z_index"`
	Highlight      fileHighlight  `mapstructure:"highlight"`
	Animation      fileAnimation  `mapstructure:"animation"`
	Movable        fileMovable    `mapstructure:"movable"`
	Draggable      fileDraggable  `mapstructure:"draggable"`
	Selectable     fileSelectable `mapstructure:"selectable"`
}

type fileHighlight struct {
	LastMove bool `mapstructure:"last_move"`
	Check    bool `mapstructure:"check"`
}

type fileAnimation struct {
	Enabled  bool          `mapstructure:"enabled"`
	Duration time.Duration `mapstructure:"duration"`
}

type fileMovable struct {
	Free      bool                `mapstructure:"free"`
	Color     string              `mapstructure:"color"`
	ShowDests bool                `mapstructure:"show_dests"`
	Dests     map[string][]string `mapstructure:"dests"`
}

type fileDraggable struct {
	Enabled         bool    `mapstructure:"enabled"`
	Distance        float64 `mapstructure:"distance"`
	DeleteOnDropOff bool    `mapstructure:"delete_on_drop_off"`
}

type fileSelectable struct {
	Enabled bool `mapstructure:"enabled"`
}

// setConfigDefaults registers every key so that GROUND_* environment
// variables are honoured even when the file omits them.
func setConfigDefaults(v *viper.Viper) {
	d := DefaultState()
	v.SetDefault("fen", "")
	v.SetDefault("orientation", d.Orientation.String())
	v.SetDefault("turn_color", d.TurnColor.String())
	v.SetDefault("check", "")
	v.SetDefault("last_move", []string{})
	v.SetDefault("geometry", d.Geometry.String())
	v.SetDefault("add_piece_z_index", d.AddPieceZIndex)
	v.SetDefault("highlight.last_move", d.Highlight.LastMove)
	v.SetDefault("highlight.check", d.Highlight.Check)
	v.SetDefault("animation.enabled", d.Animation.Enabled)
	v.SetDefault("animation.duration", d.Animation.Duration)
	v.SetDefault("movable.free", d.Movable.Free)
	v.SetDefault("movable.color", "both")
	v.SetDefault("movable.show_dests", d.Movable.ShowDests)
	v.SetDefault("draggable.enabled", d.Draggable.Enabled)
	v.SetDefault("draggable.distance", d.Draggable.Distance)
	v.SetDefault("draggable.delete_on_drop_off", d.Draggable.DeleteOnDropOff)
	v.SetDefault("selectable.enabled", d.Selectable.Enabled)
}

// LoadConfig reads a board configuration from a yaml, toml or json file.
// Every key may be overridden by a GROUND_ prefixed environment variable,
// e.g. GROUND_ANIMATION_DURATION=300ms. An empty path reads only defaults and
// environment.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	setConfigDefaults(v)
	v.SetEnvPrefix("GROUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("ground: read config %s: %w", path, err)
		}
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return Config{}, fmt.Errorf("ground: decode config: %w", err)
	}
	return fc.toConfig()
}

func (fc fileConfig) toConfig() (Config, error) {
	g, err := ParseGeometry(fc.Geometry)
	if err != nil {
		return Config{}, err
	}
	check, err := ParseCheckState(fc.Check)
	if err != nil {
		return Config{}, err
	}

	orientation := ParseSide(fc.Orientation)
	turn := ParseSide(fc.TurnColor)
	movableColor := ParseMovableSide(fc.Movable.Color)

	lastMove := make([]Key, 0, len(fc.LastMove))
	for _, s := range fc.LastMove {
		k, err := ParseKey(s, g)
		if err != nil {
			return Config{}, err
		}
		lastMove = append(lastMove, k)
	}

	var dests Dests
	if len(fc.Movable.Dests) > 0 {
		dests = make(Dests, len(fc.Movable.Dests))
		for orig, ds := range fc.Movable.Dests {
			ok, err := ParseKey(orig, g)
			if err != nil {
				return Config{}, err
			}
			for _, d := range ds {
				dk, err := ParseKey(d, g)
				if err != nil {
					return Config{}, err
				}
				dests[ok] = append(dests[ok], dk)
			}
		}
	}

	cfg := Config{
		Orientation:    &orientation,
		TurnColor:      &turn,
		Check:          &check,
		LastMove:       &lastMove,
		AddPieceZIndex: &fc.AddPieceZIndex,
		Geometry:       &g,
		Highlight: &HighlightConfig{
			LastMove: &fc.Highlight.LastMove,
			Check:    &fc.Highlight.Check,
		},
		Animation: &AnimationPatch{
			Enabled:  &fc.Animation.Enabled,
			Duration: &fc.Animation.Duration,
		},
		Movable: &MovableConfig{
			Free:      &fc.Movable.Free,
			Color:     &movableColor,
			Dests:     dests,
			ShowDests: &fc.Movable.ShowDests,
		},
		Draggable: &DraggableConfig{
			Enabled:         &fc.Draggable.Enabled,
			Distance:        &fc.Draggable.Distance,
			DeleteOnDropOff: &fc.Draggable.DeleteOnDropOff,
		},
		Selectable: &SelectableConfig{Enabled: &fc.Selectable.Enabled},
	}
	if fc.FEN != "" {
		if _, err := ReadFEN(fc.FEN, g); err != nil {
			return Config{}, err
		}
		cfg.FEN = &fc.FEN
	}
	return cfg, nil
}
