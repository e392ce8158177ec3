package maps

import "math"

const unbounded = math.MaxInt

// Distance returns the number of borders crossed on the shortest path from a
// to b, or -1 if b cannot be reached. Results are memoized on both regions.
func (m *Map) Distance(a, b int) int {
	if a == b {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ra, rb := m.Regions[a], m.Regions[b]
	if d, ok := ra.distances[b]; ok {
		return d
	}
	return m.search(ra, b, m.upperBound(ra, rb))
}

// upperBound combines memoized legs a->c and c->b. The memo may be partial,
// so this only limits how far the search has to go.
func (m *Map) upperBound(ra, rb *Region) int {
	best := unbounded
	for via, d1 := range ra.distances {
		if d2, ok := rb.distances[via]; ok && d1+d2 < best {
			best = d1 + d2
		}
	}
	return best
}

// search runs a breadth-first search from "from", recording every distance it
// settles, and stops once the frontier reaches bound.
func (m *Map) search(from *Region, target, bound int) int {
	visited := make([]bool, len(m.Regions))
	visited[from.Index] = true
	frontier := []int{from.Index}

	for dist := 1; len(frontier) > 0 && dist < bound; dist++ {
		var next []int
		for _, r := range frontier {
			for _, n := range m.Regions[r].Neighbors {
				if visited[n] {
					continue
				}
				visited[n] = true
				m.remember(from, n, dist)
				if n == target {
					return dist
				}
				next = append(next, n)
			}
		}
		frontier = next
	}

	if bound == unbounded {
		return -1
	}
	// Nothing shorter than the bound exists, so the bound is exact.
	m.remember(from, target, bound)
	return bound
}

func (m *Map) remember(from *Region, to, dist int) {
	other := m.Regions[to]
	if from.distances == nil {
		from.distances = make(map[int]int)
	}
	if other.distances == nil {
		other.distances = make(map[int]int)
	}
	from.distances[to] = dist
	other.distances[from.Index] = dist
}

// Connected reports whether every region can reach every other region.
func (m *Map) Connected() bool {
	if len(m.Regions) == 0 {
		return true
	}
	seen := make([]bool, len(m.Regions))
	seen[0] = true
	queue := []int{0}
	reached := 1
	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		for _, n := range m.Regions[r].Neighbors {
			if !seen[n] {
				seen[n] = true
				reached++
				queue = append(queue, n)
			}
		}
	}
	return reached == len(m.Regions)
}
