package matcher

import (
	"fmt"
	"testing"
)

func TestIndex_AgreesWithLinearMatch(t *testing.T) {
	var gallery Gallery
	for i := 0; i < 50; i++ {
		gallery = append(gallery, Entry{
			Label:  fmt.Sprintf("person-%02d", i),
			Vector: []float64{float64(i), float64(i % 7), float64(i % 3)},
		})
	}

	index := NewIndex(gallery)

	queries := [][]float64{
		{0.1, 0, 0},
		{25.2, 4.1, 1.0},
		{49, 0, 1},
		{1000, 1000, 1000},
	}

	for _, q := range queries {
		linear := Match(gallery, q, 0.5)
		approx := index.Match(q, 0.5)

		if linear.Known != approx.Known {
			t.Errorf("query %v: linear known=%v, index known=%v", q, linear.Known, approx.Known)
		}
		if linear.Known && linear.Label != approx.Label {
			t.Errorf("query %v: linear label=%s, index label=%s", q, linear.Label, approx.Label)
		}
	}
}

func TestIndex_EmptyGallery(t *testing.T) {
	index := NewIndex(Gallery{})

	result := index.Match([]float64{1, 2, 3}, 0.45)
	if result.Known {
		t.Error("expected unknown result for empty index")
	}
}

func TestIndex_SkipsEmptyVectors(t *testing.T) {
	index := NewIndex(Gallery{
		{Label: "empty", Vector: nil},
		{Label: "alice", Vector: []float64{1, 2}},
	})

	if index.Len() != 1 {
		t.Errorf("expected 1 indexed entry, got %d", index.Len())
	}
}
