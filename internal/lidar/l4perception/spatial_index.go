package l4perception

import "math"

// EstimatedPointsPerCell is used for initial spatial index capacity estimation.
const EstimatedPointsPerCell = 4

// cellKey identifies one cube of the grid.
type cellKey struct {
	X, Y, Z int64
}

// SpatialIndex provides efficient radius queries using a regular 3D grid.
// Cell size should match the DBSCAN eps parameter so that every neighbour of
// a point lies in the 27 cells surrounding it.
type SpatialIndex struct {
	CellSize float64
	Grid     map[cellKey][]int // Cell → point indices
}

// NewSpatialIndex creates a spatial index with the specified cell size.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[cellKey][]int),
	}
}

// Build populates the spatial index from a set of points.
func (si *SpatialIndex) Build(points []WorldPoint) {
	si.Grid = make(map[cellKey][]int, len(points)/EstimatedPointsPerCell+1)

	for i, p := range points {
		key := si.cellOf(p)
		si.Grid[key] = append(si.Grid[key], i)
	}
}

func (si *SpatialIndex) cellOf(p WorldPoint) cellKey {
	return cellKey{
		X: int64(math.Floor(p.X / si.CellSize)),
		Y: int64(math.Floor(p.Y / si.CellSize)),
		Z: int64(math.Floor(p.Z / si.CellSize)),
	}
}

// RegionQuery returns indices of all points within eps (3D Euclidean) of
// points[idx], including idx itself. eps must not exceed the cell size.
func (si *SpatialIndex) RegionQuery(points []WorldPoint, idx int, eps float64) []int {
	p := points[idx]
	base := si.cellOf(p)
	eps2 := eps * eps

	neighbors := []int{}
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				key := cellKey{X: base.X + dx, Y: base.Y + dy, Z: base.Z + dz}
				for _, candidateIdx := range si.Grid[key] {
					c := points[candidateIdx]
					ddx := c.X - p.X
					ddy := c.Y - p.Y
					ddz := c.Z - p.Z
					if ddx*ddx+ddy*ddy+ddz*ddz <= eps2 {
						neighbors = append(neighbors, candidateIdx)
					}
				}
			}
		}
	}

	return neighbors
}
