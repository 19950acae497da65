package ground

// Square highlight classes.
const (
	ClassLastMove = "last-move"
	ClassCheck    = "check"
	ClassSelected = "selected"
	ClassMoveDest = "move-dest"
	ClassOccupied = "oc"
)

// squareClass is one highlighted square and its space-separated class list.
type squareClass struct {
	key   Key
	class string
}

// squareClasses keeps highlights in insertion order; a square highlighted
// twice accumulates both classes.
type squareClasses struct {
	list  []squareClass
	index map[Key]int
}

func (sc *squareClasses) add(k Key, class string) {
	if i, ok := sc.index[k]; ok {
		sc.list[i].class += " " + class
		return
	}
	sc.index[k] = len(sc.list)
	sc.list = append(sc.list, squareClass{k, class})
}

// get returns the class list of k, or "" when k is not highlighted.
func (sc *squareClasses) get(k Key) string {
	if i, ok := sc.index[k]; ok {
		return sc.list[i].class
	}
	return ""
}

// computeSquareClasses derives every square highlight from s.
func computeSquareClasses(s *State) *squareClasses {
	sc := &squareClasses{index: make(map[Key]int)}
	if s.Highlight.LastMove {
		for _, k := range s.LastMove {
			if s.Geometry.Contains(KeyToPos(k)) {
				sc.add(k, ClassLastMove)
			}
		}
	}
	if s.Check != "" && s.Highlight.Check {
		sc.add(s.Check, ClassCheck)
	}
	if s.Selected != "" {
		sc.add(s.Selected, ClassSelected)
		if s.Movable.ShowDests {
			for _, k := range s.Movable.Dests[s.Selected] {
				class := ClassMoveDest
				if _, ok := s.Pieces[k]; ok {
					class += " " + ClassOccupied
				}
				sc.add(k, class)
			}
		}
	}
	return sc
}
