package visualiser

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/banshee-data/semantic-bbox/internal/lidar/l4perception"
)

// Color is an RGB triple with components in [0, 1].
type Color [3]float64

// Hex returns the colour as a CSS hex string.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c[0]), channel(c[1]), channel(c[2]))
}

func channel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

var (
	// CloudColor is the neutral grey used for the full point cloud.
	CloudColor = Color{0.8, 0.8, 0.8}
	// AxisColors colours the X (forward), Y (left) and Z (up) axes.
	AxisColors = [3]Color{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
)

const (
	// DefaultAxisSize is the length of each coordinate frame axis in metres.
	DefaultAxisSize = 2.0
	// DefaultWidth and DefaultHeight size the viewer in pixels.
	DefaultWidth  = 1280
	DefaultHeight = 720
)

// Scene is everything drawn in one view. It is built once per run and
// discarded after rendering.
type Scene struct {
	ID       string
	Title    string
	Cloud    []l4perception.WorldPoint
	Boxes    []l4perception.OrientedBoundingBox
	AxisSize float64
	Width    int
	Height   int
}

// NewScene creates a scene with a fresh ID and default sizing.
func NewScene(title string, cloud []l4perception.WorldPoint, boxes []l4perception.OrientedBoundingBox) *Scene {
	return &Scene{
		ID:       uuid.NewString(),
		Title:    title,
		Cloud:    cloud,
		Boxes:    boxes,
		AxisSize: DefaultAxisSize,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
	}
}

// AxisSegments returns the coordinate frame as three origin-anchored
// segments, X first.
func (s *Scene) AxisSegments() [3][2][3]float64 {
	var out [3][2][3]float64
	for k := 0; k < 3; k++ {
		out[k][1][k] = s.AxisSize
	}
	return out
}

// Cube is an axis-aligned cube in metres.
type Cube struct {
	Center [3]float64
	Half   float64
}

// Min returns the lower bound along axis k.
func (c Cube) Min(k int) float64 { return c.Center[k] - c.Half }

// Max returns the upper bound along axis k.
func (c Cube) Max(k int) float64 { return c.Center[k] + c.Half }

// boundsMargin pads the cube so edge points are not drawn on the frame.
const boundsMargin = 1.05

// Bounds returns the smallest cube, padded slightly, that holds the cloud,
// every box corner and the coordinate frame. Using one span for all axes
// keeps metric proportions when rendered.
func (s *Scene) Bounds() Cube {
	lo := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	grow := func(p [3]float64) {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], p[k])
			hi[k] = math.Max(hi[k], p[k])
		}
	}

	for _, seg := range s.AxisSegments() {
		grow(seg[0])
		grow(seg[1])
	}
	for _, p := range s.Cloud {
		grow([3]float64{p.X, p.Y, p.Z})
	}
	for _, b := range s.Boxes {
		for _, c := range b.Corners() {
			grow(c)
		}
	}

	var c Cube
	for k := 0; k < 3; k++ {
		c.Center[k] = (lo[k] + hi[k]) / 2
		c.Half = math.Max(c.Half, (hi[k]-lo[k])/2)
	}
	if c.Half == 0 {
		c.Half = 1
	}
	c.Half *= boundsMargin
	return c
}

// BoxSummary describes one fitted box for JSON consumers.
type BoxSummary struct {
	Center [3]float64    `json:"center"`
	Axes   [3][3]float64 `json:"axes"`
	Extent [3]float64    `json:"extent"`
	Volume float64       `json:"volume"`
	Color  string        `json:"color"`
}

// SceneSummary is the JSON view of a scene without its point cloud.
type SceneSummary struct {
	ID         string       `json:"id"`
	Title      string       `json:"title"`
	PointCount int          `json:"point_count"`
	AxisSize   float64      `json:"axis_size"`
	Boxes      []BoxSummary `json:"boxes"`
}

// Summary returns the scene metadata and boxes.
func (s *Scene) Summary() SceneSummary {
	out := SceneSummary{
		ID:         s.ID,
		Title:      s.Title,
		PointCount: len(s.Cloud),
		AxisSize:   s.AxisSize,
		Boxes:      make([]BoxSummary, 0, len(s.Boxes)),
	}
	for _, b := range s.Boxes {
		out.Boxes = append(out.Boxes, BoxSummary{
			Center: b.Center,
			Axes:   b.Axes,
			Extent: b.Extent,
			Volume: b.Volume(),
			Color:  Color(b.Color).Hex(),
		})
	}
	return out
}

// Renderer draws a scene. Implementations may block until the user is done
// with the view.
type Renderer interface {
	Render(ctx context.Context, scene *Scene) error
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, scene *Scene) error

// Render calls f(ctx, scene).
func (f RendererFunc) Render(ctx context.Context, scene *Scene) error {
	return f(ctx, scene)
}

// decimate returns every stride-th point so that at most maxPoints remain.
// A maxPoints of zero keeps every point.
func decimate(points []l4perception.WorldPoint, maxPoints int) ([]l4perception.WorldPoint, int) {
	if maxPoints <= 0 || len(points) <= maxPoints {
		return points, 1
	}
	stride := (len(points) + maxPoints - 1) / maxPoints
	out := make([]l4perception.WorldPoint, 0, len(points)/stride+1)
	for i := 0; i < len(points); i += stride {
		out = append(out, points[i])
	}
	return out, stride
}
