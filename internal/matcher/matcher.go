// Package matcher decides whether a query face embedding belongs to a
// known person in a gallery.
package matcher

import (
	"gonum.org/v1/gonum/floats"
)

// Unknown is the label reported for faces that match no gallery entry.
const Unknown = "Unknown"

// Entry is one known person in a gallery: a label and the averaged
// embedding representing that person.
type Entry struct {
	Label  string    `json:"label"`
	Vector []float64 `json:"vector"`
}

// Gallery is the set of known people an active dataset provides for matching.
type Gallery []Entry

// Labels returns the labels of all gallery entries.
func (g Gallery) Labels() []string {
	labels := make([]string, len(g))
	for i, e := range g {
		labels[i] = e.Label
	}
	return labels
}

// Result is the outcome of matching one query embedding against a gallery.
type Result struct {
	Label    string
	Distance float64
	Known    bool
}

// Distance computes the Euclidean distance between two embeddings.
// Mismatched or empty vectors are treated as infinitely far apart.
func Distance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return maxDistance
	}
	return floats.Distance(a, b, 2)
}

const maxDistance = 1e9

// Match finds the gallery entry nearest to query. The result is Unknown
// when the gallery is empty or the nearest distance exceeds threshold;
// a distance exactly equal to the threshold is accepted. Equidistant
// entries resolve to the lexicographically smallest label so results
// are reproducible.
func Match(g Gallery, query []float64, threshold float64) Result {
	best := Result{Label: Unknown, Distance: maxDistance}

	for _, e := range g {
		d := Distance(e.Vector, query)
		if d < best.Distance || (d == best.Distance && e.Label < best.Label) {
			best.Label = e.Label
			best.Distance = d
			best.Known = true
		}
	}

	if !best.Known || best.Distance > threshold {
		return Result{Label: Unknown, Distance: best.Distance}
	}
	return best
}
