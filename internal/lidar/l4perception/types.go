package l4perception

// WorldPoint represents a point in Cartesian sensor coordinates (metres).
type WorldPoint struct {
	X, Y, Z   float64
	Intensity float32
	Index     int // position in the source frame
}

// Cluster is one group of points produced by a Clusterer.
type Cluster struct {
	ID     int
	Points []WorldPoint
}

// Size returns the number of member points.
func (c Cluster) Size() int {
	return len(c.Points)
}
