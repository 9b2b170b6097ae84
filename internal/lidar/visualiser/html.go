package visualiser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/banshee-data/semantic-bbox/internal/httputil"
	"github.com/banshee-data/semantic-bbox/internal/lidar/l4perception"
	"github.com/banshee-data/semantic-bbox/internal/monitoring"
)

// Config holds HTMLViewer configuration.
type Config struct {
	// ListenAddr is the address the viewer page is served on.
	ListenAddr string
	// MaxPoints caps the cloud points sent to the browser; zero keeps all.
	MaxPoints int
	// ShutdownTimeout bounds the graceful server shutdown after cancel.
	ShutdownTimeout time.Duration
	// AssetsHost overrides the echarts asset location (empty = CDN).
	AssetsHost string
}

// DefaultConfig returns the default viewer configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      "localhost:8090",
		MaxPoints:       60000,
		ShutdownTimeout: 5 * time.Second,
	}
}

// HTMLViewer serves a scene as an interactive 3D page.
type HTMLViewer struct {
	config Config

	// ready, when set, receives the bound address once the server listens.
	ready func(addr string)
}

// NewHTMLViewer creates a viewer with the given configuration.
func NewHTMLViewer(cfg Config) *HTMLViewer {
	return &HTMLViewer{config: cfg}
}

// OnReady registers a callback invoked with the bound address once the
// viewer is listening.
func (v *HTMLViewer) OnReady(fn func(addr string)) {
	v.ready = fn
}

// Render serves the scene and blocks until ctx is cancelled, then shuts the
// server down.
func (v *HTMLViewer) Render(ctx context.Context, scene *Scene) error {
	handler, err := v.Handler(scene)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", v.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("viewer listen on %s: %w", v.config.ListenAddr, err)
	}
	addr := ln.Addr().String()

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	monitoring.Logf("Viewer for scene %s at http://%s/ (Ctrl-C to close)", scene.ID, addr)
	if v.ready != nil {
		v.ready(addr)
	}

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("viewer serve: %w", err)
		}
		return nil
	}

	timeout := v.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("viewer shutdown: %w", err)
	}
	monitoring.Logf("Viewer closed")
	return nil
}

// Handler renders the scene page once and returns a handler serving it.
func (v *HTMLViewer) Handler(scene *Scene) (http.Handler, error) {
	var buf bytes.Buffer
	if err := v.WritePage(&buf, scene); err != nil {
		return nil, err
	}
	page := buf.Bytes()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			httputil.NotFound(w, "not found")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page)
	})
	mux.HandleFunc("/scene.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w, http.MethodGet)
			return
		}
		httputil.WriteJSONOK(w, scene.Summary())
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprintf(w, "ok %s\n", scene.ID)
	})
	return mux, nil
}

// WritePage renders the scene as a standalone HTML page.
func (v *HTMLViewer) WritePage(buf *bytes.Buffer, scene *Scene) error {
	if scene == nil {
		return errors.New("nil scene")
	}
	cloud, stride := decimate(scene.Cloud, v.config.MaxPoints)

	data := make([]opts.Chart3DData, 0, len(cloud))
	for _, p := range cloud {
		data = append(data, opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z}})
	}

	width, height := scene.Width, scene.Height
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}

	// Equal spans on a cubic grid keep boxes unsheared.
	bounds := scene.Bounds()

	chart := charts.NewScatter3D()
	chart.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:  scene.Title,
			Theme:      "dark",
			Width:      fmt.Sprintf("%dpx", width),
			Height:     fmt.Sprintf("%dpx", height),
			AssetsHost: v.config.AssetsHost,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    scene.Title,
			Subtitle: fmt.Sprintf("scene=%s points=%d stride=%d boxes=%d", scene.ID, len(data), stride, len(scene.Boxes)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X (m)", Min: bounds.Min(0), Max: bounds.Max(0)}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y (m)", Min: bounds.Min(1), Max: bounds.Max(1)}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z (m)", Min: bounds.Min(2), Max: bounds.Max(2)}),
	)
	chart.AddSeries("cloud", data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: CloudColor.Hex()}),
	)

	names := [3]string{"axis-x", "axis-y", "axis-z"}
	for k, seg := range scene.AxisSegments() {
		chart.MultiSeries = append(chart.MultiSeries, lineSeries(names[k], AxisColors[k], seg[:]))
	}
	for i, box := range scene.Boxes {
		chart.MultiSeries = append(chart.MultiSeries, lineSeries(fmt.Sprintf("box-%d", i), Color(box.Color), boxPolyline(box)))
	}

	if err := chart.Render(buf); err != nil {
		return fmt.Errorf("render scene page: %w", err)
	}
	return nil
}

// wireframeOrder visits every box edge once, walking the bottom face, the
// top face and then the remaining verticals.
var wireframeOrder = [...]int{0, 1, 3, 2, 0, 4, 5, 7, 6, 4, 5, 1, 3, 7, 6, 2}

func boxPolyline(box l4perception.OrientedBoundingBox) [][3]float64 {
	corners := box.Corners()
	out := make([][3]float64, len(wireframeOrder))
	for i, idx := range wireframeOrder {
		out[i] = corners[idx]
	}
	return out
}

func lineSeries(name string, color Color, path [][3]float64) charts.SingleSeries {
	data := make([]opts.Chart3DData, len(path))
	for i, p := range path {
		data[i] = opts.Chart3DData{Value: []interface{}{p[0], p[1], p[2]}}
	}
	return charts.SingleSeries{
		Name:        name,
		Type:        types.ChartLine3D,
		CoordSystem: types.ChartCartesian3D,
		Data:        data,
		LineStyle:   &opts.LineStyle{Color: color.Hex(), Width: 2},
	}
}
