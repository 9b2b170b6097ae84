package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/semantic-bbox/internal/fsutil"
	"github.com/banshee-data/semantic-bbox/internal/lidar/l4perception"
	"github.com/banshee-data/semantic-bbox/internal/lidar/semantic"
	"github.com/banshee-data/semantic-bbox/internal/lidar/visualiser"
	"github.com/banshee-data/semantic-bbox/internal/monitoring"
	"github.com/banshee-data/semantic-bbox/internal/testutil"
)

const (
	pointsPath = "/seq/11/velodyne/000327.bin"
	labelsPath = "/seq/11/predictions/000327.label"
)

// fakeRenderer records every scene it is asked to draw.
type fakeRenderer struct {
	scenes []*visualiser.Scene
	err    error
}

func (f *fakeRenderer) Render(_ context.Context, s *visualiser.Scene) error {
	f.scenes = append(f.scenes, s)
	return f.err
}

// spyClusterer counts invocations and delegates to DBSCAN unless err is set.
type spyClusterer struct {
	calls int
	err   error
}

func (s *spyClusterer) Cluster(points []l4perception.WorldPoint) ([]l4perception.Cluster, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return l4perception.NewDefaultDBSCANClusterer().Cluster(points)
}

func writeFrame(t *testing.T, records []testutil.Record, labels []uint32) *fsutil.MemoryFileSystem {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile(pointsPath, testutil.PointBytes(records...)))
	require.NoError(t, mfs.WriteFile(labelsPath, testutil.LabelBytes(labels...)))
	return mfs
}

// scatter returns n isolated records far from each other and from the blobs.
func scatter(n int) []testutil.Record {
	out := make([]testutil.Record, n)
	for i := range out {
		out[i] = testutil.Record{float32(-50 - 5*i), float32(40 + 3*i), 0, 0.1}
	}
	return out
}

func captureLogs(t *testing.T) *testutil.LogRecorder {
	t.Helper()
	rec := &testutil.LogRecorder{}
	t.Cleanup(monitoring.SetLogger(rec.Logf))
	return rec
}

func TestRun_SingleTightCluster(t *testing.T) {
	logs := captureLogs(t)

	var records []testutil.Record
	var labels []uint32
	for _, r := range testutil.Blob([3]float32{12, -3, 1}, 20, 0.1) {
		records = append(records, r)
		labels = append(labels, testutil.Label(81, 3))
	}
	for _, r := range scatter(20) {
		records = append(records, r)
		labels = append(labels, testutil.Label(40, 0))
	}
	require.Len(t, records, 40)

	renderer := &fakeRenderer{}
	res, err := Run(context.Background(), Options{
		FileSystem:  writeFrame(t, records, labels),
		PointsPath:  pointsPath,
		LabelsPath:  labelsPath,
		TargetClass: semantic.TrafficSign,
		Renderer:    renderer,
	})
	require.NoError(t, err)

	assert.Equal(t, 40, res.PointCount)
	assert.Equal(t, 20, res.TargetCount)
	assert.False(t, res.Empty)
	require.Len(t, res.Boxes, 1)
	require.Len(t, res.Clusters, 1)
	for _, p := range res.Clusters[0].Points {
		assert.True(t, res.Boxes[0].Contains(p, 1e-6), "point %+v outside box", p)
		assert.Less(t, p.Index, 20)
	}

	require.Len(t, renderer.scenes, 1)
	scene := renderer.scenes[0]
	assert.Equal(t, "Traffic Sign Detection from Semantic Labels", scene.Title)
	assert.Len(t, scene.Cloud, 40)
	assert.Len(t, scene.Boxes, 1)
	assert.Same(t, scene, res.Scene)

	assert.True(t, logs.Contains("20 'traffic-sign' points found"))
	assert.True(t, logs.Contains("Running DBSCAN clustering..."))
	assert.True(t, logs.Contains("Detected 1 'traffic-sign' objects"))
	assert.True(t, logs.Contains("0 'traffic-sign' points left as noise"))
	assert.True(t, logs.Contains("Rendering result..."))
}

func TestRun_TwoBlobsAndSingletons(t *testing.T) {
	defer monitoring.Quiet()()

	var records []testutil.Record
	records = append(records, testutil.Blob([3]float32{10, 0, 1}, 20, 0.1)...)
	records = append(records, testutil.Blob([3]float32{30, 5, 1.5}, 18, 0.15)...)
	records = append(records, scatter(3)...)
	labels := make([]uint32, len(records))
	for i := range labels {
		labels[i] = testutil.Label(81, uint16(i%4))
	}

	renderer := &fakeRenderer{}
	res, err := Run(context.Background(), Options{
		FileSystem:  writeFrame(t, records, labels),
		PointsPath:  pointsPath,
		LabelsPath:  labelsPath,
		TargetClass: semantic.TrafficSign,
		Renderer:    renderer,
	})
	require.NoError(t, err)

	assert.Equal(t, len(records), res.TargetCount)
	require.Len(t, res.Clusters, 2)
	require.Len(t, res.Boxes, 2)
	assert.Equal(t, 20, res.Clusters[0].Size())
	assert.Equal(t, 18, res.Clusters[1].Size())
	assert.Equal(t, 3, res.NoiseCount)
	for i, c := range res.Clusters {
		for _, p := range c.Points {
			assert.True(t, res.Boxes[i].Contains(p, 1e-6), "cluster %d point %+v outside box", i, p)
		}
		assert.Equal(t, l4perception.BoxColor, res.Boxes[i].Color)
	}
	require.Len(t, renderer.scenes, 1)
}

func TestRun_CustomClustererParams(t *testing.T) {
	defer monitoring.Quiet()()

	records := testutil.Blob([3]float32{0, 0, 0}, 8, 0.1)
	labels := make([]uint32, len(records))
	for i := range labels {
		labels[i] = testutil.Label(81, 0)
	}

	mfs := writeFrame(t, records, labels)
	opts := Options{
		FileSystem:  mfs,
		PointsPath:  pointsPath,
		LabelsPath:  labelsPath,
		TargetClass: semantic.TrafficSign,
		Renderer:    &fakeRenderer{},
	}

	// Eight points never reach the default min_samples of 15.
	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Empty(t, res.Boxes)
	assert.False(t, res.Empty)

	opts.Clusterer = l4perception.NewDBSCANClusterer(0.5, 4)
	opts.AxisSize = 5
	res, err = Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Len(t, res.Boxes, 1)
	assert.Equal(t, 5.0, res.Scene.AxisSize)
}

func TestRun_NoTargetPoints(t *testing.T) {
	logs := captureLogs(t)

	records := scatter(5)
	labels := []uint32{40, 40, testutil.Label(44, 2), 0, 72}
	renderer := &fakeRenderer{}
	spy := &spyClusterer{}

	res, err := Run(context.Background(), Options{
		FileSystem:  writeFrame(t, records, labels),
		PointsPath:  pointsPath,
		LabelsPath:  labelsPath,
		TargetClass: semantic.TrafficSign,
		Clusterer:   spy,
		Renderer:    renderer,
	})
	require.NoError(t, err)

	assert.True(t, res.Empty)
	assert.Zero(t, res.TargetCount)
	assert.Empty(t, res.Boxes)
	assert.Zero(t, spy.calls, "clusterer must not run without target points")

	require.Len(t, renderer.scenes, 1)
	assert.Equal(t, "No Traffic Signs Detected", renderer.scenes[0].Title)
	assert.Len(t, renderer.scenes[0].Cloud, 5)
	assert.Empty(t, renderer.scenes[0].Boxes)
	assert.True(t, logs.Contains("No points predicted as 'traffic-sign' (ID: 81)"))
}

func TestRun_InstanceBitsIgnored(t *testing.T) {
	defer monitoring.Quiet()()

	records := testutil.Blob([3]float32{5, 5, 0}, 16, 0.1)
	labels := make([]uint32, len(records))
	for i := range labels {
		// 81 with a non-zero instance id in the upper half.
		labels[i] = testutil.Label(81, 0xABCD)
	}

	res, err := Run(context.Background(), Options{
		FileSystem:  writeFrame(t, records, labels),
		PointsPath:  pointsPath,
		LabelsPath:  labelsPath,
		TargetClass: semantic.TrafficSign,
		Renderer:    &fakeRenderer{},
	})
	require.NoError(t, err)
	assert.Equal(t, 16, res.TargetCount)
	assert.Len(t, res.Boxes, 1)
}

func TestRun_OtherClassTitles(t *testing.T) {
	defer monitoring.Quiet()()

	records := scatter(2)
	labels := []uint32{81, 81}
	renderer := &fakeRenderer{}

	res, err := Run(context.Background(), Options{
		FileSystem:  writeFrame(t, records, labels),
		PointsPath:  pointsPath,
		LabelsPath:  labelsPath,
		TargetClass: 80,
		Renderer:    renderer,
	})
	require.NoError(t, err)
	assert.True(t, res.Empty)
	assert.Equal(t, "No Poles Detected", renderer.scenes[0].Title)
}

func TestRun_MissingPointFile(t *testing.T) {
	logs := captureLogs(t)

	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile(labelsPath, testutil.LabelBytes(81)))
	renderer := &fakeRenderer{}

	res, err := Run(context.Background(), Options{
		FileSystem:  mfs,
		PointsPath:  pointsPath,
		LabelsPath:  labelsPath,
		TargetClass: semantic.TrafficSign,
		Renderer:    renderer,
	})
	assert.Nil(t, res)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageLoad, stageErr.Stage)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Empty(t, renderer.scenes)
	assert.True(t, logs.Contains("Error: point cloud file not found - "+pointsPath))
}

func TestRun_MissingLabelFile(t *testing.T) {
	logs := captureLogs(t)

	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile(pointsPath, testutil.PointBytes(testutil.Record{1, 2, 3, 0})))
	spy := &spyClusterer{}

	_, err := Run(context.Background(), Options{
		FileSystem:  mfs,
		PointsPath:  pointsPath,
		LabelsPath:  labelsPath,
		TargetClass: semantic.TrafficSign,
		Clusterer:   spy,
		Renderer:    &fakeRenderer{},
	})

	var missing *semantic.MissingFileError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, semantic.KindLabel, missing.Kind)
	assert.Zero(t, spy.calls)
	assert.True(t, logs.Contains("Error: label file not found - "+labelsPath))
}

func TestRun_ParseError(t *testing.T) {
	logs := captureLogs(t)

	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.WriteFile(pointsPath, []byte{1, 2, 3, 4, 5}))
	require.NoError(t, mfs.WriteFile(labelsPath, testutil.LabelBytes(81)))

	_, err := Run(context.Background(), Options{
		FileSystem:  mfs,
		PointsPath:  pointsPath,
		LabelsPath:  labelsPath,
		TargetClass: semantic.TrafficSign,
		Renderer:    &fakeRenderer{},
	})

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.ErrorIs(t, err, semantic.ErrParse)
	assert.True(t, logs.Contains("Error while loading files:"))
}

func TestRun_CountMismatch(t *testing.T) {
	defer monitoring.Quiet()()

	records := scatter(3)
	_, err := Run(context.Background(), Options{
		FileSystem:  writeFrame(t, records, []uint32{81, 81}),
		PointsPath:  pointsPath,
		LabelsPath:  labelsPath,
		TargetClass: semantic.TrafficSign,
		Renderer:    &fakeRenderer{},
	})
	assert.ErrorIs(t, err, semantic.ErrCountMismatch)
}

func TestRun_ClusteringErrorPropagates(t *testing.T) {
	defer monitoring.Quiet()()

	boom := errors.New("boom")
	records := testutil.Blob([3]float32{0, 0, 0}, 4, 0.1)
	labels := []uint32{81, 81, 81, 81}
	renderer := &fakeRenderer{}

	res, err := Run(context.Background(), Options{
		FileSystem:  writeFrame(t, records, labels),
		PointsPath:  pointsPath,
		LabelsPath:  labelsPath,
		TargetClass: semantic.TrafficSign,
		Clusterer:   &spyClusterer{err: boom},
		Renderer:    renderer,
	})
	require.ErrorIs(t, err, boom)
	var stageErr *StageError
	assert.False(t, errors.As(err, &stageErr))
	assert.Equal(t, 4, res.TargetCount)
	assert.Empty(t, renderer.scenes)
}

func TestRun_InvalidDBSCANParams(t *testing.T) {
	defer monitoring.Quiet()()

	records := scatter(1)
	_, err := Run(context.Background(), Options{
		FileSystem:  writeFrame(t, records, []uint32{81}),
		PointsPath:  pointsPath,
		LabelsPath:  labelsPath,
		TargetClass: semantic.TrafficSign,
		Clusterer:   l4perception.NewDBSCANClusterer(-1, 15),
		Renderer:    &fakeRenderer{},
	})
	assert.ErrorIs(t, err, l4perception.ErrInvalidParams)
}

func TestRun_RenderErrorPropagates(t *testing.T) {
	defer monitoring.Quiet()()

	boom := errors.New("display unavailable")
	_, err := Run(context.Background(), Options{
		FileSystem:  writeFrame(t, scatter(1), []uint32{40}),
		PointsPath:  pointsPath,
		LabelsPath:  labelsPath,
		TargetClass: semantic.TrafficSign,
		Renderer:    &fakeRenderer{err: boom},
	})
	assert.ErrorIs(t, err, boom)
}

func TestRun_RequiresRenderer(t *testing.T) {
	_, err := Run(context.Background(), Options{PointsPath: pointsPath, LabelsPath: labelsPath})
	assert.Error(t, err)
}

func TestStageError(t *testing.T) {
	inner := &semantic.MissingFileError{Kind: semantic.KindPointCloud, Path: "a.bin"}
	err := &StageError{Stage: StageLoad, Err: inner}
	assert.Equal(t, "load: point cloud file not found - a.bin", err.Error())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
