package semantic

import (
	"fmt"
	"strings"
)

// TrafficSign is the SemanticKITTI class id for traffic signs.
const TrafficSign uint16 = 81

// classNames is the SemanticKITTI label taxonomy.
var classNames = map[uint16]string{
	0:   "unlabeled",
	1:   "outlier",
	10:  "car",
	11:  "bicycle",
	13:  "bus",
	15:  "motorcycle",
	16:  "on-rails",
	18:  "truck",
	20:  "other-vehicle",
	30:  "person",
	31:  "bicyclist",
	32:  "motorcyclist",
	40:  "road",
	44:  "parking",
	48:  "sidewalk",
	49:  "other-ground",
	50:  "building",
	51:  "fence",
	52:  "other-structure",
	60:  "lane-marking",
	70:  "vegetation",
	71:  "trunk",
	72:  "terrain",
	80:  "pole",
	81:  "traffic-sign",
	99:  "other-object",
	252: "moving-car",
	253: "moving-bicyclist",
	254: "moving-person",
	255: "moving-motorcyclist",
	256: "moving-on-rails",
	257: "moving-bus",
	258: "moving-truck",
	259: "moving-other-vehicle",
}

// ClassName returns the taxonomy name of a semantic class, or "class-<id>"
// for ids outside the taxonomy.
func ClassName(id uint16) string {
	if name, ok := classNames[id]; ok {
		return name
	}
	return fmt.Sprintf("class-%d", id)
}

// DisplayName returns ClassName in title case with spaces,
// e.g. "traffic-sign" becomes "Traffic Sign".
func DisplayName(id uint16) string {
	words := strings.Fields(strings.ReplaceAll(ClassName(id), "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
