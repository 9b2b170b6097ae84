package semantic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/semantic-bbox/internal/testutil"
)

func TestDecodePoints(t *testing.T) {
	t.Parallel()

	data := testutil.PointBytes(
		testutil.Record{1.5, -2, 0.25, 0.9},
		testutil.Record{10, 20, 30, 0},
	)

	points, err := DecodePoints(data)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, Point{X: 1.5, Y: -2, Z: 0.25, Intensity: 0.9}, points[0])
	assert.Equal(t, Point{X: 10, Y: 20, Z: 30, Intensity: 0}, points[1])
}

func TestDecodePoints_Empty(t *testing.T) {
	t.Parallel()

	points, err := DecodePoints(nil)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestDecodePoints_TruncatedRecord(t *testing.T) {
	t.Parallel()

	data := testutil.PointBytes(testutil.Record{1, 2, 3, 4})
	_, err := DecodePoints(data[:len(data)-3])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParse))
	assert.Contains(t, err.Error(), "not a multiple of 16")
}

func TestDecodeLabels(t *testing.T) {
	t.Parallel()

	labels, err := DecodeLabels(testutil.LabelBytes(81, 0xFFFFFFFF, 0))
	require.NoError(t, err)
	assert.Equal(t, []uint32{81, 0xFFFFFFFF, 0}, labels)

	_, err = DecodeLabels([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrParse)
}
