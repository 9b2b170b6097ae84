package semantic

import (
	"fmt"
	"io/fs"
)

// File kinds reported by MissingFileError.
const (
	KindPointCloud = "point cloud"
	KindLabel      = "label"
)

// MissingFileError reports an input path that does not exist.
type MissingFileError struct {
	Kind string // KindPointCloud or KindLabel
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s file not found - %s", e.Kind, e.Path)
}

// Unwrap lets errors.Is(err, fs.ErrNotExist) match.
func (e *MissingFileError) Unwrap() error {
	return fs.ErrNotExist
}
