// Package pipeline runs one semantic-class detection pass over a frame:
// load points and labels, select the target class, cluster, fit boxes and
// render.
//
// This package is the composition root: it imports semantic, l4perception
// and visualiser, and none of those import pipeline/.
package pipeline
