package semantic

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// PointFields is the number of float32 values per point record.
	PointFields = 4
	// PointRecordSize is the size in bytes of one point record.
	PointRecordSize = PointFields * 4
	// LabelRecordSize is the size in bytes of one label value.
	LabelRecordSize = 4
)

var (
	// ErrParse marks every failure to decode point or label data.
	ErrParse = errors.New("parse error")
	// ErrCountMismatch is returned when the point and label files describe a
	// different number of points.
	ErrCountMismatch = fmt.Errorf("%w: point and label counts differ", ErrParse)
)

// Point is one LiDAR return.
type Point struct {
	X, Y, Z   float32
	Intensity float32
}

// DecodePoints decodes a flat x, y, z, intensity float32 array.
func DecodePoints(data []byte) ([]Point, error) {
	if len(data)%PointRecordSize != 0 {
		return nil, fmt.Errorf("%w: point data length %d is not a multiple of %d", ErrParse, len(data), PointRecordSize)
	}

	n := len(data) / PointRecordSize
	points := make([]Point, n)
	for i := range points {
		rec := data[i*PointRecordSize : (i+1)*PointRecordSize]
		points[i] = Point{
			X:         math.Float32frombits(binary.LittleEndian.Uint32(rec[0:4])),
			Y:         math.Float32frombits(binary.LittleEndian.Uint32(rec[4:8])),
			Z:         math.Float32frombits(binary.LittleEndian.Uint32(rec[8:12])),
			Intensity: math.Float32frombits(binary.LittleEndian.Uint32(rec[12:16])),
		}
	}
	return points, nil
}

// DecodeLabels decodes a flat uint32 label array.
func DecodeLabels(data []byte) ([]uint32, error) {
	if len(data)%LabelRecordSize != 0 {
		return nil, fmt.Errorf("%w: label data length %d is not a multiple of %d", ErrParse, len(data), LabelRecordSize)
	}

	labels := make([]uint32, len(data)/LabelRecordSize)
	for i := range labels {
		labels[i] = binary.LittleEndian.Uint32(data[i*LabelRecordSize:])
	}
	return labels, nil
}
