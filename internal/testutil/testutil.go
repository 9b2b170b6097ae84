// Package testutil provides shared test utilities and fixtures.
//
// It builds raw point and label byte streams in the on-disk layout
// (little-endian float32 x/y/z/intensity records, little-endian uint32
// labels) and captures diagnostic log lines, so package tests do not each
// reimplement the format.
package testutil

import (
	"encoding/binary"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Record is one x, y, z, intensity point as stored on disk.
type Record [4]float32

// PointBytes encodes records as a flat little-endian float32 array.
func PointBytes(records ...Record) []byte {
	buf := make([]byte, 0, len(records)*16)
	for _, r := range records {
		for _, v := range r {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	return buf
}

// LabelBytes encodes labels as a flat little-endian uint32 array.
func LabelBytes(labels ...uint32) []byte {
	buf := make([]byte, 0, len(labels)*4)
	for _, l := range labels {
		buf = binary.LittleEndian.AppendUint32(buf, l)
	}
	return buf
}

// Label packs an instance id and semantic class the way the label files do.
func Label(semantic, instance uint16) uint32 {
	return uint32(instance)<<16 | uint32(semantic)
}

// Blob returns n records laid out on a cubic lattice with the given spacing,
// starting at origin. Neighbouring records are exactly spacing apart.
func Blob(origin [3]float32, n int, spacing float32) []Record {
	side := int(math.Ceil(math.Cbrt(float64(n))))
	out := make([]Record, 0, n)
	for i := 0; len(out) < n; i++ {
		x := i % side
		y := (i / side) % side
		z := i / (side * side)
		out = append(out, Record{
			origin[0] + float32(x)*spacing,
			origin[1] + float32(y)*spacing,
			origin[2] + float32(z)*spacing,
			0.5,
		})
	}
	return out
}

// LogRecorder collects formatted log lines. Install it with
// monitoring.SetLogger(rec.Logf).
type LogRecorder struct {
	mu    sync.Mutex
	lines []string
}

// Logf records one formatted line.
func (r *LogRecorder) Logf(format string, v ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

// Lines returns a copy of the recorded lines.
func (r *LogRecorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Contains reports whether any recorded line contains substr.
func (r *LogRecorder) Contains(substr string) bool {
	for _, l := range r.Lines() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// NewTestRequest creates a test HTTP request.
func NewTestRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

// NewTestRecorder creates a test response recorder.
func NewTestRecorder() *httptest.ResponseRecorder {
	return httptest.NewRecorder()
}
