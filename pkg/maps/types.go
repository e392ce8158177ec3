// Package maps handles region graph generation and graph queries.
package maps

import (
	"errors"
	"sync"
)

// Empty marks a grid cell that belongs to no region.
const Empty = -1

// ErrInvalidPlayerCount is returned when a map is requested for an
// unsupported number of players.
var ErrInvalidPlayerCount = errors.New("invalid player count")

// Point is a 2D point in grid units. Borders are made of these.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle of grid cells.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Right returns the first column past the rectangle.
func (r Rect) Right() int { return r.Left + r.Width }

// Bottom returns the first row past the rectangle.
func (r Rect) Bottom() int { return r.Top + r.Height }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: float64(r.Left) + float64(r.Width)/2, Y: float64(r.Top) + float64(r.Height)/2}
}

// Region is a single territory of the map. Everything except the distance
// memo is fixed once the generator returns.
type Region struct {
	Index     int     `json:"index"`
	Bounds    Rect    `json:"bounds"`
	Border    []Point `json:"border"`
	Neighbors []int   `json:"neighbors"`

	// distances is filled lazily by Map.Distance and never invalidated.
	distances map[int]int
}

// IsNeighbor reports whether other shares a border with r.
func (r *Region) IsNeighbor(other int) bool {
	for _, n := range r.Neighbors {
		if n == other {
			return true
		}
	}
	return false
}

// Map is the processed region graph.
type Map struct {
	Width   int
	Height  int
	Seed    int64
	Regions []*Region

	// Grid of region indexes, Empty where no region was placed.
	Grid [][]int

	mu sync.Mutex
}

// New builds a map directly from an adjacency list. Regions get no geometry;
// this is meant for hand-built boards and restored snapshots.
func New(neighbors [][]int) *Map {
	m := &Map{Regions: make([]*Region, len(neighbors))}
	for i := range neighbors {
		m.Regions[i] = &Region{Index: i, distances: make(map[int]int)}
	}
	for i, ns := range neighbors {
		for _, n := range ns {
			link(m.Regions[i], m.Regions[n])
		}
	}
	return m
}

// Region returns the region at index i, or nil if i is out of range.
func (m *Map) Region(i int) *Region {
	if i < 0 || i >= len(m.Regions) {
		return nil
	}
	return m.Regions[i]
}

// Len returns the number of regions.
func (m *Map) Len() int {
	return len(m.Regions)
}

// Valid reports whether i names a region of this map.
func (m *Map) Valid(i int) bool {
	return i >= 0 && i < len(m.Regions)
}

// RegionAt returns the region index at the given cell, Empty if none.
func (m *Map) RegionAt(x, y int) int {
	if y < 0 || y >= len(m.Grid) || x < 0 || x >= len(m.Grid[y]) {
		return Empty
	}
	return m.Grid[y][x]
}

// link records a and b as neighbors of each other, once.
func link(a, b *Region) {
	if a == b || a.IsNeighbor(b.Index) {
		return
	}
	a.Neighbors = append(a.Neighbors, b.Index)
	b.Neighbors = append(b.Neighbors, a.Index)
}
