package semantic

// semanticMask selects the semantic class bits of a label.
const semanticMask = 0xFFFF

// SemanticClass returns the semantic class stored in the lower 16 bits.
func SemanticClass(label uint32) uint16 {
	return uint16(label & semanticMask)
}

// InstanceID returns the instance id stored in the upper 16 bits.
func InstanceID(label uint32) uint16 {
	return uint16(label >> 16)
}

// DecodeSemantic returns the semantic class of every label, in order.
func DecodeSemantic(labels []uint32) []uint16 {
	out := make([]uint16, len(labels))
	for i, l := range labels {
		out[i] = SemanticClass(l)
	}
	return out
}

// Selection is the subset of a frame's points belonging to one class.
// Indices[i] is the position of Points[i] in the source frame.
type Selection struct {
	Class   uint16
	Indices []int
	Points  []Point
}

// Len returns the number of selected points.
func (s Selection) Len() int {
	return len(s.Points)
}

// FilterClass selects the points whose semantic class equals target.
// The boolean is false when no point matches. Only positions present in
// both slices are considered.
func FilterClass(points []Point, labels []uint32, target uint16) (Selection, bool) {
	sel := Selection{Class: target}
	n := min(len(points), len(labels))
	for i := 0; i < n; i++ {
		if SemanticClass(labels[i]) != target {
			continue
		}
		sel.Indices = append(sel.Indices, i)
		sel.Points = append(sel.Points, points[i])
	}
	return sel, len(sel.Points) > 0
}
