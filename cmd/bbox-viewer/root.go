package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/semantic-bbox/internal/config"
	"github.com/banshee-data/semantic-bbox/internal/fsutil"
	"github.com/banshee-data/semantic-bbox/internal/lidar/l4perception"
	"github.com/banshee-data/semantic-bbox/internal/lidar/pipeline"
	"github.com/banshee-data/semantic-bbox/internal/lidar/visualiser"
	"github.com/banshee-data/semantic-bbox/internal/version"
)

const (
	defaultPointsPath = "./semantickitti/dataset/sequences/11/velodyne/000327.bin"
	defaultLabelsPath = "./subproblem2_lidar_camera/2DPASS/checkpoints/submit_2025_08_26/sequences/11/predictions/000327.label"
)

type rootOptions struct {
	pointsPath string
	labelsPath string
	eps        float64
	minSamples int
	configPath string
	render     string
	listen     string
	snapshot   string

	fs fsutil.FileSystem
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{fs: fsutil.OSFileSystem{}}

	cmd := &cobra.Command{
		Use:          "bbox-viewer",
		Short:        "Fit and show bounding boxes around one semantic class in a LiDAR frame",
		Version:      version.String(),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.pointsPath, "pcd_file", defaultPointsPath, "point cloud file (.bin or .pcd)")
	flags.StringVar(&o.labelsPath, "label_file", defaultLabelsPath, "label file aligned with the point cloud")
	flags.Float64Var(&o.eps, "eps", l4perception.DefaultDBSCANEps, "DBSCAN neighbourhood radius in metres")
	flags.IntVar(&o.minSamples, "min_samples", l4perception.DefaultDBSCANMinPts, "DBSCAN minimum neighbourhood size")
	flags.StringVar(&o.configPath, "config", "", "optional JSON tuning file")
	flags.StringVar(&o.render, "render", config.RenderHTML, "output mode: html or png")
	flags.StringVar(&o.listen, "listen", "localhost:8090", "viewer listen address")
	flags.StringVar(&o.snapshot, "snapshot", "bbox.png", "PNG output path for --render png")

	return cmd
}

// tuning loads the config file, if any, and applies explicitly set flags
// on top of it.
func (o *rootOptions) tuning(cmd *cobra.Command) (*config.TuningConfig, error) {
	cfg := config.DefaultTuningConfig()
	if o.configPath != "" {
		loaded, err := config.LoadTuningConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("eps") {
		cfg.DBSCANEps = &o.eps
	}
	if flags.Changed("min_samples") {
		cfg.DBSCANMinSamples = &o.minSamples
	}
	if flags.Changed("render") {
		cfg.Render = &o.render
	}
	if flags.Changed("listen") {
		cfg.ViewerListenAddr = &o.listen
	}
	if flags.Changed("snapshot") {
		cfg.SnapshotPath = &o.snapshot
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func (o *rootOptions) renderer(cfg *config.TuningConfig) visualiser.Renderer {
	if cfg.GetRender() == config.RenderPNG {
		return visualiser.NewSnapshotRenderer(o.fs, cfg.GetSnapshotPath(), cfg.GetViewerMaxPoints())
	}
	vc := visualiser.DefaultConfig()
	vc.ListenAddr = cfg.GetViewerListenAddr()
	vc.MaxPoints = cfg.GetViewerMaxPoints()
	vc.ShutdownTimeout = cfg.GetViewerShutdownTimeout()
	return visualiser.NewHTMLViewer(vc)
}

func (o *rootOptions) run(cmd *cobra.Command) error {
	cfg, err := o.tuning(cmd)
	if err != nil {
		return err
	}

	_, err = pipeline.Run(cmd.Context(), pipeline.Options{
		FileSystem:  o.fs,
		PointsPath:  o.pointsPath,
		LabelsPath:  o.labelsPath,
		TargetClass: cfg.GetTargetLabel(),
		Clusterer:   l4perception.NewDBSCANClusterer(cfg.GetDBSCANEps(), cfg.GetDBSCANMinSamples()),
		Renderer:    o.renderer(cfg),
		AxisSize:    cfg.GetAxisSize(),
	})

	// Input problems were already reported; they end the run normally.
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return nil
	}
	return err
}
