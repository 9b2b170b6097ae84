package semantic

import (
	"fmt"
	"io"
	"slices"

	"github.com/seqsense/pcgol/pc"
)

// pcdIntensityField is the PCD field name carrying return intensity.
const pcdIntensityField = "intensity"

// DecodePCD reads the x, y, z coordinates of a PCD file, plus intensity when
// the file has a float32 "intensity" field. Otherwise Intensity stays zero.
func DecodePCD(r io.Reader) ([]Point, error) {
	pp, err := pc.Unmarshal(r)
	if err != nil {
		return nil, fmt.Errorf("%w: pcd: %w", ErrParse, err)
	}

	it, err := pp.Vec3Iterator()
	if err != nil {
		return nil, fmt.Errorf("%w: pcd: %w", ErrParse, err)
	}

	var intensity pc.Float32Iterator
	// Non-float32 intensity layouts are left at zero.
	if i := slices.Index(pp.Fields, pcdIntensityField); i >= 0 && i < len(pp.Type) && i < len(pp.Size) &&
		pp.Type[i] == "F" && pp.Size[i] == 4 {
		if fit, err := pp.Float32Iterator(pcdIntensityField); err == nil {
			intensity = fit
		}
	}

	points := make([]Point, 0, pp.Points)
	for ; it.IsValid(); it.Incr() {
		v := it.Vec3()
		p := Point{X: v[0], Y: v[1], Z: v[2]}
		if intensity != nil && intensity.IsValid() {
			p.Intensity = intensity.Float32()
			intensity.Incr()
		}
		points = append(points, p)
	}
	return points, nil
}
