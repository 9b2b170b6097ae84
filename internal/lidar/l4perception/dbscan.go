package l4perception

import (
	"errors"
	"fmt"
)

const (
	// DefaultDBSCANEps is the default neighbourhood radius in metres.
	DefaultDBSCANEps = 0.75
	// DefaultDBSCANMinPts is the default minimum neighbourhood size.
	DefaultDBSCANMinPts = 15

	// Noise is the cluster label of points that belong to no cluster.
	Noise = -1
)

// ErrInvalidParams is returned for a non-positive radius or minimum size.
var ErrInvalidParams = errors.New("invalid DBSCAN parameters")

// DBSCANParams contains parameters for the DBSCAN clustering algorithm.
type DBSCANParams struct {
	Eps    float64 // Neighbourhood radius in metres
	MinPts int     // Minimum neighbourhood size, the point itself included
}

// DefaultDBSCANParams returns the default DBSCAN parameters.
func DefaultDBSCANParams() DBSCANParams {
	return DBSCANParams{
		Eps:    DefaultDBSCANEps,
		MinPts: DefaultDBSCANMinPts,
	}
}

// Validate checks that the parameters can drive a clustering run.
func (p DBSCANParams) Validate() error {
	if !(p.Eps > 0) {
		return fmt.Errorf("%w: eps must be positive, got %v", ErrInvalidParams, p.Eps)
	}
	if p.MinPts < 1 {
		return fmt.Errorf("%w: min points must be at least 1, got %d", ErrInvalidParams, p.MinPts)
	}
	return nil
}

// DBSCAN performs density-based clustering on points using 3D Euclidean
// distance. It returns one label per point: Noise for points that are
// neither core points nor within eps of one, otherwise a cluster id.
// Cluster ids run from 0 in discovery order. A border point reachable from
// more than one cluster keeps the first cluster that reached it.
func DBSCAN(points []WorldPoint, params DBSCANParams) []int {
	if len(points) == 0 {
		return nil
	}

	n := len(points)
	state := make([]int, n) // 0=unvisited, -1=noise, >0=clusterID+1
	clusterID := 0

	spatialIndex := NewSpatialIndex(params.Eps)
	spatialIndex.Build(points)

	for i := 0; i < n; i++ {
		if state[i] != 0 {
			continue
		}

		neighbors := spatialIndex.RegionQuery(points, i, params.Eps)
		if len(neighbors) < params.MinPts {
			state[i] = Noise
			continue
		}

		clusterID++
		expandCluster(points, spatialIndex, state, i, neighbors, clusterID, params.Eps, params.MinPts)
	}

	labels := make([]int, n)
	for i, s := range state {
		if s == Noise {
			labels[i] = Noise
		} else {
			labels[i] = s - 1
		}
	}
	return labels
}

// expandCluster grows a cluster from a core point using a work queue.
// Points are claimed for the cluster as they are queued, so each point is
// queued at most once.
func expandCluster(points []WorldPoint, si *SpatialIndex, state []int,
	seedIdx int, neighbors []int, clusterID int, eps float64, minPts int) {

	state[seedIdx] = clusterID
	queue := claim(nil, neighbors, state, clusterID)

	for j := 0; j < len(queue); j++ {
		newNeighbors := si.RegionQuery(points, queue[j], eps)
		if len(newNeighbors) >= minPts {
			queue = claim(queue, newNeighbors, state, clusterID)
		}
	}
}

// claim assigns unvisited and noise candidates to clusterID. Unvisited ones
// are appended to queue for expansion; noise points were already found not
// to be core points and join as border points only.
func claim(queue, candidates, state []int, clusterID int) []int {
	for _, c := range candidates {
		switch state[c] {
		case 0:
			state[c] = clusterID
			queue = append(queue, c)
		case Noise:
			state[c] = clusterID
		}
	}
	return queue
}

// GroupClusters collects the members of every cluster id in labels, skipping
// noise. The result is ordered by cluster id.
func GroupClusters(points []WorldPoint, labels []int) []Cluster {
	maxID := Noise
	for _, l := range labels {
		if l > maxID {
			maxID = l
		}
	}
	if maxID == Noise {
		return nil
	}

	clusters := make([]Cluster, maxID+1)
	for id := range clusters {
		clusters[id].ID = id
	}
	for i, l := range labels {
		if l == Noise {
			continue
		}
		clusters[l].Points = append(clusters[l].Points, points[i])
	}
	return clusters
}

// NoiseCount returns how many of total input points ended up in no cluster.
func NoiseCount(total int, clusters []Cluster) int {
	for _, c := range clusters {
		total -= c.Size()
	}
	return total
}
