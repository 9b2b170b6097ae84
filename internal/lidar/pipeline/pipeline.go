package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/semantic-bbox/internal/fsutil"
	"github.com/banshee-data/semantic-bbox/internal/lidar/l4perception"
	"github.com/banshee-data/semantic-bbox/internal/lidar/semantic"
	"github.com/banshee-data/semantic-bbox/internal/lidar/visualiser"
	"github.com/banshee-data/semantic-bbox/internal/monitoring"
)

// StageLoad names the input loading stage.
const StageLoad = "load"

// StageError reports a failure that ends a run early with a diagnostic.
// Callers treat it as a reported condition rather than a crash.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options configures a run.
type Options struct {
	FileSystem  fsutil.FileSystem
	PointsPath  string
	LabelsPath  string
	TargetClass uint16

	// Clusterer groups the target points. Defaults to DBSCAN with
	// eps 0.75 and min_samples 15.
	Clusterer l4perception.Clusterer
	// Renderer draws the final scene. Required.
	Renderer visualiser.Renderer
	// AxisSize overrides the coordinate frame size when positive.
	AxisSize float64
}

// Result summarises a run.
type Result struct {
	PointCount  int
	TargetCount int
	NoiseCount  int
	Clusters    []l4perception.Cluster
	Boxes       []l4perception.OrientedBoundingBox
	// Empty is set when no point carried the target class; the raw cloud
	// was rendered and no clustering took place.
	Empty bool
	Scene *visualiser.Scene
}

// Run executes load, select, cluster, fit and render in order.
func Run(ctx context.Context, o Options) (*Result, error) {
	if o.Renderer == nil {
		return nil, errors.New("pipeline: renderer is required")
	}
	fsys := o.FileSystem
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	clusterer := o.Clusterer
	if clusterer == nil {
		clusterer = l4perception.NewDefaultDBSCANClusterer()
	}
	name := semantic.ClassName(o.TargetClass)

	frame, err := semantic.LoadFrame(fsys, o.PointsPath, o.LabelsPath)
	if err != nil {
		var missing *semantic.MissingFileError
		if errors.As(err, &missing) {
			monitoring.Logf("Error: %v", missing)
		} else {
			monitoring.Logf("Error while loading files: %v", err)
		}
		return nil, &StageError{Stage: StageLoad, Err: err}
	}

	cloud := toWorld(frame.Points, nil)
	res := &Result{PointCount: frame.Len()}

	sel, ok := frame.Select(o.TargetClass)
	if !ok {
		monitoring.Logf("No points predicted as '%s' (ID: %d)", name, o.TargetClass)
		res.Empty = true
		res.Scene = newScene(emptyTitle(o.TargetClass), cloud, nil, o.AxisSize)
		monitoring.Logf("Rendering raw point cloud...")
		if err := o.Renderer.Render(ctx, res.Scene); err != nil {
			return res, fmt.Errorf("render: %w", err)
		}
		return res, nil
	}
	res.TargetCount = sel.Len()
	monitoring.Logf("%d '%s' points found", sel.Len(), name)

	monitoring.Logf("Running DBSCAN clustering...")
	clusters, err := clusterer.Cluster(toWorld(sel.Points, sel.Indices))
	if err != nil {
		return res, fmt.Errorf("clustering: %w", err)
	}
	res.Clusters = clusters
	res.NoiseCount = l4perception.NoiseCount(sel.Len(), clusters)
	monitoring.Logf("Detected %d '%s' objects", len(clusters), name)
	monitoring.Logf("%d '%s' points left as noise", res.NoiseCount, name)

	res.Boxes = make([]l4perception.OrientedBoundingBox, 0, len(clusters))
	for _, c := range clusters {
		box, err := l4perception.EstimateOBB(c.Points)
		if err != nil {
			return res, fmt.Errorf("bounding box for cluster %d: %w", c.ID, err)
		}
		res.Boxes = append(res.Boxes, box)
	}

	res.Scene = newScene(detectionTitle(o.TargetClass), cloud, res.Boxes, o.AxisSize)
	monitoring.Logf("Rendering result...")
	if err := o.Renderer.Render(ctx, res.Scene); err != nil {
		return res, fmt.Errorf("render: %w", err)
	}
	return res, nil
}

func newScene(title string, cloud []l4perception.WorldPoint, boxes []l4perception.OrientedBoundingBox, axis float64) *visualiser.Scene {
	s := visualiser.NewScene(title, cloud, boxes)
	if axis > 0 {
		s.AxisSize = axis
	}
	return s
}

// toWorld converts decoded points. indices, when set, gives each point's
// position in the source frame.
func toWorld(points []semantic.Point, indices []int) []l4perception.WorldPoint {
	out := make([]l4perception.WorldPoint, len(points))
	for i, p := range points {
		idx := i
		if indices != nil {
			idx = indices[i]
		}
		out[i] = l4perception.WorldPoint{
			X:         float64(p.X),
			Y:         float64(p.Y),
			Z:         float64(p.Z),
			Intensity: p.Intensity,
			Index:     idx,
		}
	}
	return out
}

func detectionTitle(class uint16) string {
	if class == semantic.TrafficSign {
		return "Traffic Sign Detection from Semantic Labels"
	}
	return fmt.Sprintf("%s Detection from Semantic Labels", semantic.DisplayName(class))
}

func emptyTitle(class uint16) string {
	if class == semantic.TrafficSign {
		return "No Traffic Signs Detected"
	}
	return fmt.Sprintf("No %ss Detected", semantic.DisplayName(class))
}
