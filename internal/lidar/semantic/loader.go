package semantic

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/semantic-bbox/internal/fsutil"
	"github.com/banshee-data/semantic-bbox/internal/monitoring"
)

// Frame is one point cloud together with its positionally aligned labels.
type Frame struct {
	PointsPath string
	LabelsPath string
	Points     []Point
	Labels     []uint32
}

// Len returns the number of points in the frame.
func (f *Frame) Len() int {
	return len(f.Points)
}

// Select returns the points of the frame labelled with class target.
func (f *Frame) Select(target uint16) (Selection, bool) {
	return FilterClass(f.Points, f.Labels, target)
}

// LoadFrame validates that both paths exist, then decodes the point and label
// files. Both paths are checked before either file is read. Missing files are
// reported as *MissingFileError; any decoding failure, including a point and
// label count mismatch, wraps ErrParse.
func LoadFrame(fsys fsutil.FileSystem, pointsPath, labelsPath string) (*Frame, error) {
	if !fsys.Exists(pointsPath) {
		return nil, &MissingFileError{Kind: KindPointCloud, Path: pointsPath}
	}
	if !fsys.Exists(labelsPath) {
		return nil, &MissingFileError{Kind: KindLabel, Path: labelsPath}
	}

	points, err := readPoints(fsys, pointsPath)
	if err != nil {
		return nil, err
	}

	data, err := fsys.ReadFile(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrParse, labelsPath, err)
	}
	labels, err := DecodeLabels(data)
	if err != nil {
		return nil, err
	}

	if len(points) != len(labels) {
		return nil, fmt.Errorf("%w: %d points in %s, %d labels in %s",
			ErrCountMismatch, len(points), filepath.Base(pointsPath), len(labels), filepath.Base(labelsPath))
	}

	monitoring.Logf("Loaded '%s' (%d points)", filepath.Base(pointsPath), len(points))
	monitoring.Logf("Loaded '%s' (%d labels)", filepath.Base(labelsPath), len(labels))

	return &Frame{
		PointsPath: pointsPath,
		LabelsPath: labelsPath,
		Points:     points,
		Labels:     labels,
	}, nil
}

func readPoints(fsys fsutil.FileSystem, path string) ([]Point, error) {
	if strings.EqualFold(filepath.Ext(path), ".pcd") {
		f, err := fsys.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", ErrParse, path, err)
		}
		defer f.Close()
		return DecodePCD(f)
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrParse, path, err)
	}
	return DecodePoints(data)
}
