// Package visualiser renders a semantic-class detection scene: the full
// point cloud in a neutral colour, a coordinate frame at the sensor origin
// and one wireframe per fitted box in the accent colour.
//
// Two renderers are provided. HTMLViewer serves an interactive go-echarts 3D
// page and blocks until its context is cancelled, which is how the user
// closes the viewer. SnapshotRenderer writes a bird's-eye PNG with
// gonum/plot for machines without a browser.
package visualiser
