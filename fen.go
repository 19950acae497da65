package ground

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFEN indicates a malformed piece-placement string.
var ErrInvalidFEN = errors.New("invalid FEN placement")

// ReadFEN parses the piece-placement field of a FEN string for geometry g.
// Ranks are listed from the highest to the first, separated by '/'. Empty
// runs may span several digits ("12" on a 12x12 board) and a '+' prefix marks
// a promoted piece. Trailing FEN fields are ignored.
func ReadFEN(fen string, g Geometry) (Pieces, error) {
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return nil, fmt.Errorf("ground: empty placement: %w", ErrInvalidFEN)
	}
	placement := fields[0]
	// Pocket suffixes ("[...]") belong to a hand, not the board.
	if i := strings.IndexByte(placement, '['); i >= 0 {
		placement = placement[:i]
	}

	bd := g.Dimensions()
	ranks := strings.Split(placement, "/")
	if len(ranks) != bd.Height {
		return nil, fmt.Errorf("ground: %d ranks for a %s board: %w", len(ranks), g, ErrInvalidFEN)
	}

	pieces := make(Pieces)
	for i, rankStr := range ranks {
		y := bd.Height - 1 - i
		x := 0
		promoted := false
		for j := 0; j < len(rankStr); j++ {
			c := rankStr[j]
			switch {
			case c == '+':
				promoted = true
			case c >= '0' && c <= '9':
				end := j + 1
				for end < len(rankStr) && rankStr[end] >= '0' && rankStr[end] <= '9' {
					end++
				}
				n, err := strconv.Atoi(rankStr[j:end])
				if err != nil || n > bd.Width-x {
					return nil, fmt.Errorf("ground: rank %d overflows: %w", y+1, ErrInvalidFEN)
				}
				x += n
				j = end - 1
			case isFENLetter(c):
				if x >= bd.Width {
					return nil, fmt.Errorf("ground: rank %d overflows: %w", y+1, ErrInvalidFEN)
				}
				side := White
				if c >= 'a' {
					side = Black
				}
				pieces[PosToKey(Pos{x, y})] = Piece{
					Role:     RoleOf(string(c)),
					Side:     side,
					Promoted: promoted,
				}
				promoted = false
				x++
			default:
				return nil, fmt.Errorf("ground: unexpected %q in rank %d: %w", c, y+1, ErrInvalidFEN)
			}
		}
		if x != bd.Width {
			return nil, fmt.Errorf("ground: rank %d has %d files, want %d: %w", y+1, x, bd.Width, ErrInvalidFEN)
		}
	}
	return pieces, nil
}

// WriteFEN renders the placement of pieces on geometry g.
func WriteFEN(pieces Pieces, g Geometry) string {
	bd := g.Dimensions()
	var sb strings.Builder
	for y := bd.Height - 1; y >= 0; y-- {
		empty := 0
		for x := 0; x < bd.Width; x++ {
			p, ok := pieces[PosToKey(Pos{x, y})]
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			if p.Promoted {
				sb.WriteByte('+')
			}
			sb.WriteString(LetterOf(p.Role, p.Side == White))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if y > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

func isFENLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
