// Command bbox-viewer boxes every object of one semantic class in a LiDAR
// frame and shows the result.
//
// It reads a point cloud (.bin, or .pcd) and its per-point label file,
// keeps the points of the target class (traffic-sign by default), groups
// them with DBSCAN and fits one oriented bounding box per group. The cloud,
// a coordinate frame and the boxes are then served as an interactive 3D page
// until Ctrl-C, or written to a PNG with --render png.
//
// Usage:
//
//	bbox-viewer [flags]
//
// Flags:
//
//	--pcd_file     Point cloud file
//	--label_file   Label file aligned with the point cloud
//	--eps          DBSCAN neighbourhood radius in metres (default: 0.75)
//	--min_samples  DBSCAN minimum neighbourhood size (default: 15)
//	--config       Optional JSON tuning file
//	--render       html or png (default: html)
//	--listen       Viewer listen address (default: localhost:8090)
//	--snapshot     PNG output path for --render png (default: bbox.png)
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
