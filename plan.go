package ground

import "sort"

// AnimVector is the motion of one piece during a run:
// [targetDx, targetDy, currentDx, currentDy] in board squares.
// The target (0, 1) is fixed when the plan is computed; the current offset
// (2, 3) is rewritten by the scheduler every frame and decays toward zero.
type AnimVector [4]float64

// AnimVectors holds live vectors keyed by destination square.
type AnimVectors map[Key]*AnimVector

// AnimFadings maps a vanished square to the piece fading out of it.
type AnimFadings map[Key]Piece

// AnimPlan is the result of diffing two placement snapshots.
type AnimPlan struct {
	Anims   AnimVectors
	Fadings AnimFadings
}

// Empty reports whether the plan has nothing to animate.
func (p AnimPlan) Empty() bool {
	return len(p.Anims) == 0 && len(p.Fadings) == 0
}

type animPiece struct {
	key   Key
	pos   Pos
	piece Piece
}

// ComputePlan diffs prev against cur over every square of g and pairs each
// appearing piece with the nearest vanished piece of the same kind.
//
// Candidates are stably sorted by squared distance, so equidistant ties go to
// the candidate enumerated first in g.AllKeys order (file-major). A source may
// feed several appearances of its kind. Vanished pieces that fed none fade.
func ComputePlan(prev, cur Pieces, g Geometry) AnimPlan {
	plan := AnimPlan{
		Anims:   make(AnimVectors),
		Fadings: make(AnimFadings),
	}
	var missings, news []animPiece

	for _, k := range g.AllKeys() {
		curP, hasCur := cur[k]
		preP, hasPre := prev[k]
		switch {
		case hasCur && hasPre:
			if !curP.Same(preP) {
				missings = append(missings, animPiece{k, KeyToPos(k), preP})
				news = append(news, animPiece{k, KeyToPos(k), curP})
			}
		case hasCur:
			news = append(news, animPiece{k, KeyToPos(k), curP})
		case hasPre:
			missings = append(missings, animPiece{k, KeyToPos(k), preP})
		}
	}

	consumed := make(map[Key]bool, len(missings))
	candidates := make([]animPiece, 0, len(missings))
	for _, np := range news {
		candidates = candidates[:0]
		for _, mp := range missings {
			if mp.piece.Same(np.piece) {
				candidates = append(candidates, mp)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return DistanceSq(np.pos, candidates[i].pos) < DistanceSq(np.pos, candidates[j].pos)
		})
		src := candidates[0]
		dx := float64(src.pos[0] - np.pos[0])
		dy := float64(src.pos[1] - np.pos[1])
		plan.Anims[np.key] = &AnimVector{dx, dy, dx, dy}
		consumed[src.key] = true
	}

	for _, mp := range missings {
		if !consumed[mp.key] {
			plan.Fadings[mp.key] = mp.piece
		}
	}
	return plan
}
