package maps

import (
	"fmt"
	"math/rand"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
)

const (
	// BaseRegions is the region count every map starts from.
	BaseRegions = 13
	// RegionsPerPlayer is added to BaseRegions for each player.
	RegionsPerPlayer = 3
	// MaxPlayers is the largest supported player count.
	MaxPlayers = 4

	minRegionSide = 2
)

// RegionCount returns how many regions a map for playerCount players has.
func RegionCount(playerCount int) int {
	return BaseRegions + playerCount*RegionsPerPlayer
}

// MaxRegionSize returns the largest side a region may have. More players
// means smaller, more numerous territories.
func MaxRegionSize(playerCount int) int {
	return 11 - playerCount
}

// GeneratorOptions contains settings for map generation.
type GeneratorOptions struct {
	Width       int   // Grid width in cells
	Height      int   // Grid height in cells
	Seed        int64 // 0 picks a time-based seed
	MaxAttempts int   // Placement attempts before the grid is thrown away
}

// DefaultOptions returns default generator options.
func DefaultOptions() GeneratorOptions {
	return GeneratorOptions{
		Width:       30,
		Height:      20,
		MaxAttempts: 2500,
	}
}

// Generator handles procedural map generation.
type Generator struct {
	options  GeneratorOptions
	seed     int64
	rng      *rand.Rand
	noise    opensimplex.Noise
	grid     [][]int
	rects    []Rect
	restarts int
}

// NewGenerator creates a new map generator.
func NewGenerator(opts GeneratorOptions) *Generator {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.Height <= 0 {
		opts.Height = def.Height
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		options: opts,
		seed:    seed,
		rng:     rand.New(rand.NewSource(seed)),
		noise:   opensimplex.New(seed),
	}
}

// Restarts returns how many times the grid had to be thrown away.
func (g *Generator) Restarts() int {
	return g.restarts
}

// Generate creates a connected map for playerCount players.
func (g *Generator) Generate(playerCount int) (*Map, error) {
	if playerCount < 1 || playerCount > MaxPlayers {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlayerCount, playerCount)
	}

	count := RegionCount(playerCount)
	maxSize := MaxRegionSize(playerCount)

	// Greedy stamping can paint itself into a corner, so a stalled grid is
	// discarded and placement starts over.
	for {
		g.reset()
		for attempt := 0; attempt < g.options.MaxAttempts && len(g.rects) < count; attempt++ {
			g.tryPlace(maxSize)
		}
		if len(g.rects) == count {
			break
		}
		g.restarts++
	}

	return g.buildMap(), nil
}

// Generate is a shortcut for NewGenerator with default options and a seed.
func Generate(playerCount int, seed int64) (*Map, error) {
	opts := DefaultOptions()
	opts.Seed = seed
	return NewGenerator(opts).Generate(playerCount)
}

func (g *Generator) reset() {
	g.grid = make([][]int, g.options.Height)
	for y := range g.grid {
		g.grid[y] = make([]int, g.options.Width)
		for x := range g.grid[y] {
			g.grid[y][x] = Empty
		}
	}
	g.rects = g.rects[:0]
}

// tryPlace attempts to add one region. A candidate has to overlap an existing
// region; it is then shrunk from random sides until it only touches.
func (g *Generator) tryPlace(maxSize int) bool {
	w := minRegionSide + g.rng.Intn(maxSize-minRegionSide+1)
	h := minRegionSide + g.rng.Intn(maxSize-minRegionSide+1)
	if w > g.options.Width {
		w = g.options.Width
	}
	if h > g.options.Height {
		h = g.options.Height
	}
	r := Rect{
		Left:   g.rng.Intn(g.options.Width - w + 1),
		Top:    g.rng.Intn(g.options.Height - h + 1),
		Width:  w,
		Height: h,
	}

	if len(g.rects) > 0 && !g.overlaps(r) {
		return false
	}

	for g.overlaps(r) {
		switch g.rng.Intn(4) {
		case 0:
			r.Left++
			r.Width--
		case 1:
			r.Width--
		case 2:
			r.Top++
			r.Height--
		default:
			r.Height--
		}
		if r.Width < minRegionSide || r.Height < minRegionSide {
			return false
		}
	}

	g.stamp(r, len(g.rects))
	g.rects = append(g.rects, r)
	return true
}

func (g *Generator) overlaps(r Rect) bool {
	for y := r.Top; y < r.Bottom(); y++ {
		for x := r.Left; x < r.Right(); x++ {
			if g.grid[y][x] != Empty {
				return true
			}
		}
	}
	return false
}

func (g *Generator) stamp(r Rect, index int) {
	for y := r.Top; y < r.Bottom(); y++ {
		for x := r.Left; x < r.Right(); x++ {
			g.grid[y][x] = index
		}
	}
}

func (g *Generator) buildMap() *Map {
	m := &Map{
		Width:   g.options.Width,
		Height:  g.options.Height,
		Seed:    g.seed,
		Regions: make([]*Region, len(g.rects)),
		Grid:    g.grid,
	}
	for i, r := range g.rects {
		m.Regions[i] = &Region{
			Index:     i,
			Bounds:    r,
			Border:    traceBorder(r, g.perturb),
			distances: make(map[int]int),
		}
	}
	computeNeighbors(m)

	// The grid is handed over to the map; the generator must not reuse it.
	g.grid = nil
	g.rects = nil
	return m
}

// perturb displaces a grid corner by a noise offset that depends only on the
// corner coordinates and the map seed, so shared corners move together.
func (g *Generator) perturb(x, y int) Point {
	const (
		scale     = 0.37
		amplitude = 0.3
	)
	fx, fy := float64(x)*scale, float64(y)*scale
	return Point{
		X: float64(x) + amplitude*g.noise.Eval2(fx, fy),
		Y: float64(y) + amplitude*g.noise.Eval2(fx+101.3, fy-57.1),
	}
}
