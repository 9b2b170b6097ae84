// Package semantic loads a LiDAR frame together with its per-point semantic
// labels and selects the points of one semantic class.
//
// Point files are flat little-endian float32 arrays of x, y, z, intensity
// records with no header (the KITTI velodyne layout); PCD files are also
// accepted. Label files are flat little-endian uint32 arrays with one value
// per point: the lower 16 bits carry the semantic class and the upper 16
// bits an instance id.
package semantic
