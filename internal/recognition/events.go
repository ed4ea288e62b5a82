package recognition

import (
	"image"
	"time"

	"github.com/google/uuid"
)

// Sighting is one identity decision: a known person seen in a frame.
// Sightings are delivered on a bounded channel with blocking sends, so
// a slow consumer delays the loop instead of losing check-ins.
type Sighting struct {
	SessionID uuid.UUID `json:"session_id"`
	Label     string    `json:"label"`
	Distance  float64   `json:"distance"`
	At        time.Time `json:"at"`
	FrameID   uint64    `json:"frame_id"`
}

// Box is a face bounding box in full-frame pixel coordinates.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// Annotation pairs a detected face box with its decided label. Unknown
// faces are annotated too; only known ones produce sightings.
type Annotation struct {
	Box   Box
	Label string
}

// Frame is an annotated camera frame for display. Frames are best-effort:
// when the consumer lags, frames are dropped, never sightings.
type Frame struct {
	ID          uint64
	Image       image.Image
	Annotations []Annotation
	At          time.Time
}

// Events are the output streams of one recognition session. Both channels
// are closed when the session ends.
type Events struct {
	Sightings <-chan Sighting
	Frames    <-chan Frame
}
