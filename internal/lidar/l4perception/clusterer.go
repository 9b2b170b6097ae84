package l4perception

// Clusterer abstracts the clustering implementation so the pipeline can be
// driven by a different algorithm, or a test double, without change.
type Clusterer interface {
	// Cluster partitions points into clusters. Noise points are dropped.
	Cluster(points []WorldPoint) ([]Cluster, error)
}

// DBSCANClusterer implements Clusterer using the DBSCAN algorithm.
type DBSCANClusterer struct {
	params DBSCANParams
}

// NewDBSCANClusterer creates a new DBSCAN clusterer with the specified parameters.
func NewDBSCANClusterer(eps float64, minPts int) *DBSCANClusterer {
	return &DBSCANClusterer{
		params: DBSCANParams{
			Eps:    eps,
			MinPts: minPts,
		},
	}
}

// NewDefaultDBSCANClusterer creates a DBSCAN clusterer with default parameters.
func NewDefaultDBSCANClusterer() *DBSCANClusterer {
	params := DefaultDBSCANParams()
	return NewDBSCANClusterer(params.Eps, params.MinPts)
}

// Cluster validates the parameters and runs DBSCAN. Clusters are returned in
// discovery order, which is stable for a given input order.
func (c *DBSCANClusterer) Cluster(points []WorldPoint) ([]Cluster, error) {
	if err := c.params.Validate(); err != nil {
		return nil, err
	}
	labels := DBSCAN(points, c.params)
	return GroupClusters(points, labels), nil
}

// Params returns the current clustering parameters.
func (c *DBSCANClusterer) Params() DBSCANParams {
	return c.params
}

// Verify at compile time that *DBSCANClusterer implements Clusterer.
var _ Clusterer = (*DBSCANClusterer)(nil)
