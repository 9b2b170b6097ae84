// Package l4perception owns Layer 4 (Perception) for semantic-class boxing.
//
// Responsibilities: density-based clustering of the selected points and
// oriented bounding box estimation per cluster.
// Key types: WorldPoint, Cluster, OrientedBoundingBox.
//
// Dependency rule: L4 knows nothing about file formats or rendering.
package l4perception
