package maps

import (
	"fmt"
	"strings"
)

// Debug returns a string visualization of the map.
func (m *Map) Debug() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %dx%d (seed %d)\n", m.Width, m.Height, m.Seed))
	sb.WriteString(fmt.Sprintf("Regions: %d\n\n", len(m.Regions)))

	if len(m.Grid) > 0 {
		sb.WriteString("Region Grid:\n")
		for y := range m.Grid {
			for _, r := range m.Grid[y] {
				if r == Empty {
					sb.WriteString("  .")
				} else {
					sb.WriteString(fmt.Sprintf("%3d", r))
				}
			}
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Neighbors:\n")
	for _, r := range m.Regions {
		sb.WriteString(fmt.Sprintf("  %2d: %v\n", r.Index, r.Neighbors))
	}

	return sb.String()
}
