package l4perception

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmptyCluster is returned when a box is requested for no points.
	ErrEmptyCluster = errors.New("cannot fit a bounding box to an empty cluster")
	// ErrDecomposition is returned when the covariance eigen decomposition fails.
	ErrDecomposition = errors.New("covariance eigen decomposition failed")
)

// BoxColor is the display colour attached to every fitted box (RGB, 0-1).
var BoxColor = [3]float64{1, 0, 0}

// OrientedBoundingBox is a box aligned to a cluster's principal axes.
//
//   - Center: box centre (metres)
//   - Axes: orthonormal box axes, Axes[0] along the largest variance;
//     together they form a right-handed rotation
//   - Extent: full side length along each axis (metres)
//   - Color: display colour (RGB, 0-1)
type OrientedBoundingBox struct {
	Center [3]float64
	Axes   [3][3]float64
	Extent [3]float64
	Color  [3]float64
}

// EstimateOBB computes an oriented bounding box for a cluster using PCA
// (Principal Component Analysis) in 3D.
//
// Algorithm:
//  1. Compute the centroid
//  2. Build the 3x3 covariance matrix
//  3. Eigen-decompose it; eigenvectors become the box axes, ordered by
//     descending eigenvalue
//  4. Project points onto the axes to find the extents
//  5. Centre = midpoint of the projected extents mapped back to world
//
// Every input point lies inside the returned box. Degenerate clusters
// (a single point, collinear or coplanar points) yield zero extents along
// the missing dimensions.
func EstimateOBB(points []WorldPoint) (OrientedBoundingBox, error) {
	n := len(points)
	if n == 0 {
		return OrientedBoundingBox{}, ErrEmptyCluster
	}

	var mean [3]float64
	for _, p := range points {
		mean[0] += p.X
		mean[1] += p.Y
		mean[2] += p.Z
	}
	nf := float64(n)
	for i := range mean {
		mean[i] /= nf
	}

	var c [3][3]float64
	for _, p := range points {
		d := [3]float64{p.X - mean[0], p.Y - mean[1], p.Z - mean[2]}
		for i := 0; i < 3; i++ {
			for j := i; j < 3; j++ {
				c[i][j] += d[i] * d[j]
			}
		}
	}
	cov := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			cov.SetSym(i, j, c[i][j]/nf)
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return OrientedBoundingBox{}, ErrDecomposition
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues come back in ascending order; column 2 is the principal axis.
	var axes [3][3]float64
	for k := 0; k < 3; k++ {
		col := 2 - k
		axes[k] = normalize([3]float64{vecs.At(0, col), vecs.At(1, col), vecs.At(2, col)})
	}
	axes[2] = cross(axes[0], axes[1])

	var lo, hi [3]float64
	for k := range lo {
		lo[k], hi[k] = math.MaxFloat64, -math.MaxFloat64
	}
	for _, p := range points {
		d := [3]float64{p.X - mean[0], p.Y - mean[1], p.Z - mean[2]}
		for k := 0; k < 3; k++ {
			proj := dot(d, axes[k])
			lo[k] = math.Min(lo[k], proj)
			hi[k] = math.Max(hi[k], proj)
		}
	}

	box := OrientedBoundingBox{
		Center: mean,
		Axes:   axes,
		Color:  BoxColor,
	}
	for k := 0; k < 3; k++ {
		box.Extent[k] = hi[k] - lo[k]
		mid := (hi[k] + lo[k]) / 2
		for i := 0; i < 3; i++ {
			box.Center[i] += mid * axes[k][i]
		}
	}
	return box, nil
}

// Contains reports whether p lies inside the box, allowing tol metres of slack
// on every face.
func (b OrientedBoundingBox) Contains(p WorldPoint, tol float64) bool {
	d := [3]float64{p.X - b.Center[0], p.Y - b.Center[1], p.Z - b.Center[2]}
	for k := 0; k < 3; k++ {
		if math.Abs(dot(d, b.Axes[k])) > b.Extent[k]/2+tol {
			return false
		}
	}
	return true
}

// Volume returns the box volume in cubic metres.
func (b OrientedBoundingBox) Volume() float64 {
	return b.Extent[0] * b.Extent[1] * b.Extent[2]
}

// Corners returns the eight box corners. Bit k of the corner index selects
// the positive (1) or negative (0) face along Axes[k].
func (b OrientedBoundingBox) Corners() [8][3]float64 {
	var out [8][3]float64
	for idx := range out {
		c := b.Center
		for k := 0; k < 3; k++ {
			s := -0.5
			if idx&(1<<k) != 0 {
				s = 0.5
			}
			for i := 0; i < 3; i++ {
				c[i] += s * b.Extent[k] * b.Axes[k][i]
			}
		}
		out[idx] = c
	}
	return out
}

// boxEdges pairs corner indices that differ in exactly one bit.
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // along Axes[0]
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // along Axes[1]
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // along Axes[2]
}

// Edges returns the twelve box edges as pairs of Corners indices.
func (b OrientedBoundingBox) Edges() [12][2]int {
	return boxEdges
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float64) [3]float64 {
	mag := math.Sqrt(dot(v, v))
	if mag == 0 {
		return v
	}
	return [3]float64{v[0] / mag, v[1] / mag, v[2] / mag}
}
