// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

import "time"

// Recognition constants
const (
	// DefaultMatchThreshold is the default maximum Euclidean distance for a
	// face to be accepted as a known person. Lower values = stricter matching.
	DefaultMatchThreshold = 0.45

	// DefaultFrameInterval is the pause between camera captures
	DefaultFrameInterval = 200 * time.Millisecond

	// FrameDownscale is the factor applied to captured frames before face
	// detection. Detection runs on the smaller frame, bounding boxes are
	// scaled back up for display.
	FrameDownscale = 0.5

	// SightingQueueSize is the capacity of the sighting event channel.
	// Sends block when full; identity events are never dropped.
	SightingQueueSize = 64
)

// Attendance constants
const (
	// DefaultDedupWindow is the minimum elapsed time before a repeat
	// sighting of the same person is recorded again
	DefaultDedupWindow = 30 * time.Second
)

// Encoding constants
const (
	// EmbeddingDim is the expected face embedding dimension
	EmbeddingDim = 128
)

// HNSW index parameters for face embedding galleries
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// IndexMinGallerySize is the gallery size above which the recognition
	// loop builds an HNSW index instead of scanning linearly
	IndexMinGallerySize = 256
)
