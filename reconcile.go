package ground

// ReconcileStats counts what one reconciliation pass did.
type ReconcileStats struct {
	Kept    int // nodes left on their square
	Moved   int // nodes rebound to another square
	Created int
	Removed int
	Fading  int // captured pieces kept while they fade out
}

func (s ReconcileStats) changed() bool {
	return s.Moved+s.Created+s.Removed+s.Fading > 0
}

// popNode removes and returns the last node recorded under tag.
func popNode(m map[string][]*Node, tag string) *Node {
	nodes := m[tag]
	if len(nodes) == 0 {
		return nil
	}
	n := nodes[len(nodes)-1]
	m[tag] = nodes[:len(nodes)-1]
	return n
}

// render reconciles the layer's nodes with the current state in two passes.
//
// Pass one classifies existing nodes. A drag owning a square takes precedence
// over any motion vector for it: the dragged node is never displaced by the
// animation. Pieces still matching their square are kept, captured pieces
// listed in the fade set are kept while fading, everything else is recycled
// by tag.
//
// Pass two walks highlights, then pieces in Geometry.AllKeys order, rebinding
// a recycled node of the same tag or creating one. Recycled nodes left over
// are disposed.
func (b *Board) render() ReconcileStats {
	s := b.state
	var anims AnimVectors
	var fadings AnimFadings
	if run := b.anim.Current(); run != nil {
		anims, fadings = run.Plan.Anims, run.Plan.Fadings
	}
	curDrag := s.Draggable.Current
	squares := computeSquareClasses(s)

	samePieces := make(map[Key]bool)
	sameSquares := make(map[Key]bool)
	movedPieces := make(map[string][]*Node)
	movedSquares := make(map[string][]*Node)
	var stats ReconcileStats

	for _, n := range b.layer.children {
		k := n.Key
		switch n.Type {
		case NodeTypePiece:
			pieceAtKey, occupied := s.Pieces[k]
			anim := anims[k]
			fading, isFading := fadings[k]
			dragOwned := curDrag != nil && curDrag.Orig == k

			if n.dragging && !dragOwned {
				n.dragging = false
				b.placeAtKey(n, k)
				n.SetZIndex(b.pieceZIndex(k))
			}
			if !isFading && n.fading {
				n.fading = false
				n.stopFade()
			}
			if !occupied {
				movedPieces[n.Tag] = append(movedPieces[n.Tag], n)
				continue
			}

			name := pieceAtKey.Name(s.Orientation)
			switch {
			case dragOwned && n.dragging:
				if n.animating {
					n.animating = false
					if !curDrag.Started {
						b.placeAtKey(n, k)
					}
				}
			case anim != nil && n.animating && n.Tag == name:
				p := KeyToPos(k)
				b.place(n, float64(p[0])+anim[2], float64(p[1])+anim[3])
			case n.animating:
				n.animating = false
				b.placeAtKey(n, k)
				n.SetZIndex(b.pieceZIndex(k))
			}

			if n.Tag == name && (!isFading || !n.fading) {
				samePieces[k] = true
				stats.Kept++
			} else if isFading && n.Tag == fading.Name(s.Orientation) {
				if !n.fading {
					n.fading = true
					n.startFade(float32(s.Animation.Duration.Seconds()))
					stats.Fading++
				}
			} else {
				movedPieces[n.Tag] = append(movedPieces[n.Tag], n)
			}

		case NodeTypeSquare:
			if squares.get(k) == n.Tag {
				sameSquares[k] = true
				stats.Kept++
			} else {
				movedSquares[n.Tag] = append(movedSquares[n.Tag], n)
			}
		}
	}

	for _, sq := range squares.list {
		if sameSquares[sq.key] {
			continue
		}
		if n := popNode(movedSquares, sq.class); n != nil {
			n.Key = sq.key
			b.placeAtKey(n, sq.key)
			stats.Moved++
			continue
		}
		n := newSquareNode(sq.key, sq.class)
		b.styleSquare(n)
		b.placeAtKey(n, sq.key)
		b.layer.AddChild(n)
		stats.Created++
	}

	for _, k := range s.Geometry.AllKeys() {
		p, ok := s.Pieces[k]
		if !ok || samePieces[k] {
			continue
		}
		name := p.Name(s.Orientation)
		anim := anims[k]
		pos := KeyToPos(k)
		x, y := float64(pos[0]), float64(pos[1])

		n := popNode(movedPieces, name)
		if n != nil {
			n.Key = k
			n.Piece = p
			if n.fading {
				n.fading = false
				n.stopFade()
			}
			stats.Moved++
		} else {
			n = newPieceNode(k, p, name)
			b.stylePiece(n)
			b.layer.AddChild(n)
			stats.Created++
		}
		n.SetZIndex(b.pieceZIndex(k))
		if anim != nil {
			n.animating = true
			x += anim[2]
			y += anim[3]
		}
		b.place(n, x, y)
	}

	for _, nodes := range movedPieces {
		for _, n := range nodes {
			n.Dispose()
			stats.Removed++
		}
	}
	for _, nodes := range movedSquares {
		for _, n := range nodes {
			n.Dispose()
			stats.Removed++
		}
	}
	return stats
}
