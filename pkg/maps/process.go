package maps

// computeNeighbors connects every region to each distinct region that is
// orthogonally adjacent to one of its cells.
func computeNeighbors(m *Map) {
	for y := 0; y < len(m.Grid); y++ {
		for x := 0; x < len(m.Grid[y]); x++ {
			here := m.Grid[y][x]
			if here == Empty {
				continue
			}
			if x+1 < len(m.Grid[y]) {
				if right := m.Grid[y][x+1]; right != Empty && right != here {
					link(m.Regions[here], m.Regions[right])
				}
			}
			if y+1 < len(m.Grid) {
				if below := m.Grid[y+1][x]; below != Empty && below != here {
					link(m.Regions[here], m.Regions[below])
				}
			}
		}
	}
}

// traceBorder walks the rectangle outline clockwise, one point per grid
// unit, so that edges shared with neighbors pass through the same corners.
func traceBorder(r Rect, corner func(x, y int) Point) []Point {
	points := make([]Point, 0, 2*(r.Width+r.Height))
	for x := r.Left; x < r.Right(); x++ {
		points = append(points, corner(x, r.Top))
	}
	for y := r.Top; y < r.Bottom(); y++ {
		points = append(points, corner(r.Right(), y))
	}
	for x := r.Right(); x > r.Left; x-- {
		points = append(points, corner(x, r.Bottom()))
	}
	for y := r.Bottom(); y > r.Top; y-- {
		points = append(points, corner(r.Left, y))
	}
	return points
}
