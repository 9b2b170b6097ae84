package visualiser

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/semantic-bbox/internal/fsutil"
	"github.com/banshee-data/semantic-bbox/internal/monitoring"
)

// SnapshotRenderer writes a square bird's-eye (XY) PNG of the scene and returns
// immediately.
type SnapshotRenderer struct {
	fs        fsutil.FileSystem
	path      string
	maxPoints int
}

// NewSnapshotRenderer creates a renderer writing to path on fsys.
func NewSnapshotRenderer(fsys fsutil.FileSystem, path string, maxPoints int) *SnapshotRenderer {
	return &SnapshotRenderer{fs: fsys, path: path, maxPoints: maxPoints}
}

// Path returns the output file path.
func (s *SnapshotRenderer) Path() string { return s.path }

// Render draws the scene and writes it as PNG.
func (s *SnapshotRenderer) Render(ctx context.Context, scene *Scene) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.plot(scene)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := s.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create snapshot dir: %w", err)
		}
	}

	// Square canvas so equal X and Y ranges keep metric proportions.
	side := scene.Height
	if side <= 0 {
		side = DefaultHeight
	}
	size := vg.Length(side) * vg.Inch / 96
	wt, err := p.WriterTo(size, size, "png")
	if err != nil {
		return fmt.Errorf("prepare snapshot: %w", err)
	}

	f, err := s.fs.Create(s.path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	monitoring.Logf("Snapshot for scene %s written to %s", scene.ID, s.path)
	return nil
}

func (s *SnapshotRenderer) plot(scene *Scene) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = scene.Title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	cloud, _ := decimate(scene.Cloud, s.maxPoints)
	if len(cloud) > 0 {
		pts := make(plotter.XYs, len(cloud))
		for i, pt := range cloud {
			pts[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("cloud scatter: %w", err)
		}
		sc.GlyphStyle.Color = rgba(CloudColor)
		sc.GlyphStyle.Radius = vg.Points(0.6)
		p.Add(sc)
	}

	for k, seg := range scene.AxisSegments() {
		l, err := plotter.NewLine(plotter.XYs{
			{X: seg[0][0], Y: seg[0][1]},
			{X: seg[1][0], Y: seg[1][1]},
		})
		if err != nil {
			return nil, fmt.Errorf("axis line: %w", err)
		}
		l.Color = rgba(AxisColors[k])
		l.Width = vg.Points(1.5)
		p.Add(l)
	}

	for i, box := range scene.Boxes {
		corners := box.Corners()
		for _, e := range box.Edges() {
			a, b := corners[e[0]], corners[e[1]]
			l, err := plotter.NewLine(plotter.XYs{{X: a[0], Y: a[1]}, {X: b[0], Y: b[1]}})
			if err != nil {
				return nil, fmt.Errorf("box %d edge: %w", i, err)
			}
			l.Color = rgba(Color(box.Color))
			l.Width = vg.Points(1)
			p.Add(l)
		}
	}
	bounds := scene.Bounds()
	p.X.Min, p.X.Max = bounds.Min(0), bounds.Max(0)
	p.Y.Min, p.Y.Max = bounds.Min(1), bounds.Max(1)
	return p, nil
}

func rgba(c Color) color.Color {
	return color.RGBA{R: channel(c[0]), G: channel(c[1]), B: channel(c[2]), A: 255}
}
