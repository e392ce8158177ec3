package ai

// Game is the view of a two-or-more player game that Search needs.
type Game[S, M any] interface {
	// Moves lists the moves available in s. An empty list makes s a leaf.
	Moves(s S) []M
	// Apply plays m in s. It reports false for moves that turn out illegal.
	Apply(s S, m M) (S, bool)
	// Mover returns the player to move in s.
	Mover(s S) int
	// Evaluate scores s for player.
	Evaluate(s S, player int) float64
	// Terminal reports whether the game is decided in s.
	Terminal(s S) bool
}

type node[S, M any] struct {
	parent   *node[S, M]
	state    S
	move     M // move that led here from parent
	depth    int
	untried  []M
	best     float64
	bestMove M
	hasBest  bool
}

// Search is an incremental minimax search. Each call to Step advances the
// traversal by a bounded number of node operations so the caller decides
// when to yield and when to stop.
type Search[S, M any] struct {
	game   Game[S, M]
	player int
	root   *node[S, M]
	cur    *node[S, M]
	done   bool
	steps  int
}

// NewSearch prepares a search from root for player, looking depth moves
// ahead (at least one).
func NewSearch[S, M any](g Game[S, M], root S, player, depth int) *Search[S, M] {
	n := &node[S, M]{state: root, depth: max(depth, 1)}
	n.untried = g.Moves(root)
	return &Search[S, M]{game: g, player: player, root: n, cur: n}
}

// Step performs up to n node operations and reports whether work remains.
func (s *Search[S, M]) Step(n int) bool {
	for i := 0; i < n && !s.done; i++ {
		s.step()
	}
	return !s.done
}

// Done reports whether the traversal has finished.
func (s *Search[S, M]) Done() bool {
	return s.done
}

// Steps returns the number of node operations performed so far.
func (s *Search[S, M]) Steps() int {
	return s.steps
}

// Truncate finishes the search at once, treating every open node as
// exhausted. Open nodes that have not scored a child yet contribute nothing.
func (s *Search[S, M]) Truncate() {
	for !s.done {
		n := s.cur
		n.untried = nil
		if n.parent == nil {
			s.done = true
			return
		}
		if n.hasBest {
			s.offer(n.parent, n.move, n.best)
		}
		s.cur = n.parent
	}
}

// Best returns the best root move found and its value. ok is false when no
// root move has been scored yet.
func (s *Search[S, M]) Best() (move M, value float64, ok bool) {
	return s.root.bestMove, s.root.best, s.root.hasBest
}

func (s *Search[S, M]) step() {
	s.steps++
	n := s.cur
	if len(n.untried) == 0 {
		s.finish(n)
		return
	}

	m := n.untried[0]
	n.untried = n.untried[1:]
	next, ok := s.game.Apply(n.state, m)
	if !ok {
		return
	}

	if n.depth <= 1 || s.game.Terminal(next) {
		s.offer(n, m, s.game.Evaluate(next, s.player))
		return
	}
	child := &node[S, M]{parent: n, state: next, move: m, depth: n.depth - 1}
	child.untried = s.game.Moves(next)
	s.cur = child
}

// finish closes n and hands its value to the parent.
func (s *Search[S, M]) finish(n *node[S, M]) {
	value := n.best
	if !n.hasBest {
		value = s.game.Evaluate(n.state, s.player)
	}
	if n.parent == nil {
		s.done = true
		return
	}
	s.offer(n.parent, n.move, value)
	s.cur = n.parent
}

// offer records value for move m at n. Nodes where the searching player
// moves keep the maximum, others the minimum; ties keep the earlier move.
func (s *Search[S, M]) offer(n *node[S, M], m M, value float64) {
	maximizing := s.game.Mover(n.state) == s.player
	if !n.hasBest || (maximizing && value > n.best) || (!maximizing && value < n.best) {
		n.best, n.bestMove, n.hasBest = value, m, true
	}
}
