package ground

import "strings"

// Role is a discrete piece role identifier such as "r-piece" or "rook".
// The core never interprets roles; it only compares them.
type Role string

// Piece is an occupant of a square. Two pieces are the same kind iff all three
// fields are equal. Identity is positional, never carried by the piece.
type Piece struct {
	Role     Role
	Side     Side
	Promoted bool
}

// Same reports whether p and o are the same kind of piece.
func (p Piece) Same(o Piece) bool {
	return p.Role == o.Role && p.Side == o.Side && p.Promoted == o.Promoted
}

// Name returns the visual tag of p as seen from orientation, e.g.
// "white ally promoted r-piece". Nodes are recycled by this tag.
func (p Piece) Name(orientation Side) string {
	var sb strings.Builder
	sb.WriteString(p.Side.String())
	if p.Side == orientation {
		sb.WriteString(" ally ")
	} else {
		sb.WriteString(" enemy ")
	}
	if p.Promoted {
		sb.WriteString("promoted ")
	}
	sb.WriteString(string(p.Role))
	return sb.String()
}

// Pieces is a placement snapshot: square -> occupant.
type Pieces map[Key]Piece

// Clone returns an independent copy of ps.
func (ps Pieces) Clone() Pieces {
	out := make(Pieces, len(ps))
	for k, p := range ps {
		out[k] = p
	}
	return out
}

// PiecesDiff describes additions and removals: a nil value removes the square.
type PiecesDiff map[Key]*Piece

// RoleOf converts a piece letter ("r", "N", "+b") into its role ("r-piece").
// The promotion prefix is not part of the role.
func RoleOf(letter string) Role {
	letter = strings.TrimPrefix(letter, "+")
	return Role(strings.ToLower(letter) + "-piece")
}

// LetterOf converts a role back into its letter; uppercase selects white.
// Roles that do not follow the "<letter>-piece" convention return the
// role's first byte.
func LetterOf(r Role, uppercase bool) string {
	s := string(r)
	if i := strings.IndexByte(s, '-'); i > 0 {
		s = s[:i]
	} else if len(s) > 1 {
		s = s[:1]
	}
	if uppercase {
		return strings.ToUpper(s)
	}
	return s
}
