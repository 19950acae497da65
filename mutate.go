package ground

// Mutation is an arbitrary change to board state. Every state change of a
// board goes through Anim or Render.
type Mutation[A any] func(*State) A

// Anim applies m and animates the resulting placement change when animation
// is enabled; otherwise it behaves like Render.
func Anim[A any](b *Board, m Mutation[A]) A {
	if b.state.Animation.Enabled {
		return animate(b, m)
	}
	return Render(b, m)
}

// Render applies m and requests a coalesced redraw.
func Render[A any](b *Board, m Mutation[A]) A {
	result := m(b.state)
	b.Redraw()
	return result
}

func animate[A any](b *Board, m Mutation[A]) A {
	prev := b.state.Pieces.Clone()
	result := m(b.state)
	plan := ComputePlan(prev, b.state.Pieces, b.state.Geometry)
	if plan.Empty() {
		b.Redraw()
		return result
	}
	b.anim.Start(plan, b.state.Animation.Duration)
	return result
}
