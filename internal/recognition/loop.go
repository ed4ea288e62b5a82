// Package recognition runs the continuous capture/match loop that turns
// camera frames into identity decisions.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-attendance/internal/camera"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/extractor"
	"github.com/kozaktomas/face-attendance/internal/matcher"
)

var (
	// ErrAlreadyRunning is returned by Start while a session is active.
	// The active gallery is owned by the running session; swapping
	// datasets requires a stop first.
	ErrAlreadyRunning = errors.New("recognition already running")

	// ErrNotRunning is returned by Stop when no session is active
	ErrNotRunning = errors.New("recognition not running")
)

// State is the lifecycle state of the loop.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	}
	return "unknown"
}

// FaceDetector extracts face embeddings from frame bytes.
type FaceDetector interface {
	DetectFaces(ctx context.Context, imageData []byte) ([]extractor.Face, error)
}

// Session bundles everything one recognition run owns: the gallery it
// matches against (read-only for the session's lifetime), the camera,
// the detector, and the tuning values.
type Session struct {
	ID        uuid.UUID
	Gallery   matcher.Gallery
	Threshold float64
	Source    camera.Source
	Detector  FaceDetector
	Interval  time.Duration // pause between captures
	Downscale float64       // frame scale factor for detection
}

// Loop is the cancellable background task running recognition sessions.
// Lifecycle: Idle -> Running -> Stopping -> Idle.
type Loop struct {
	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// NewLoop creates an idle recognition loop.
func NewLoop() *Loop {
	return &Loop{}
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start acquires the camera and launches the capture/match goroutine.
// A camera that cannot be opened fails the start with
// camera.ErrDeviceUnavailable and the loop stays idle. The returned
// event channels are closed when the session ends.
func (l *Loop) Start(ctx context.Context, session Session) (*Events, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateIdle {
		return nil, ErrAlreadyRunning
	}

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.Interval <= 0 {
		session.Interval = constants.DefaultFrameInterval
	}
	if session.Downscale <= 0 || session.Downscale > 1 {
		session.Downscale = constants.FrameDownscale
	}

	if err := session.Source.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to start session %s: %w", session.ID, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	sightings := make(chan Sighting, constants.SightingQueueSize)
	frames := make(chan Frame, 1)
	done := make(chan struct{})

	l.state = StateRunning
	l.cancel = cancel
	l.done = done

	go l.run(runCtx, session, sightings, frames, done)

	log.Printf("recognition session %s started (%d gallery entries, threshold %.2f)",
		session.ID, len(session.Gallery), session.Threshold)

	return &Events{Sightings: sightings, Frames: frames}, nil
}

// Stop cancels the running session and waits for full teardown: after
// Stop returns, the camera is released and no further events are
// emitted.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if l.state != StateRunning {
		l.mu.Unlock()
		return ErrNotRunning
	}
	l.state = StateStopping
	cancel := l.cancel
	done := l.done
	l.mu.Unlock()

	cancel()
	<-done

	l.mu.Lock()
	l.state = StateIdle
	l.cancel = nil
	l.done = nil
	l.mu.Unlock()

	return nil
}

// match is the per-face decision. Large galleries go through the HNSW
// index; both paths share accept/reject semantics.
type matchFunc func(query []float64, threshold float64) matcher.Result

func newMatchFunc(gallery matcher.Gallery) matchFunc {
	if len(gallery) >= constants.IndexMinGallerySize {
		index := matcher.NewIndex(gallery)
		return index.Match
	}
	return func(query []float64, threshold float64) matcher.Result {
		return matcher.Match(gallery, query, threshold)
	}
}

func (l *Loop) run(ctx context.Context, session Session, sightings chan<- Sighting, frames chan<- Frame, done chan struct{}) {
	defer close(done)
	defer close(frames)
	defer close(sightings)
	// The camera is released exactly once, on every exit path.
	defer func() {
		if err := session.Source.Close(); err != nil {
			log.Printf("session %s: failed to release camera: %v", session.ID, err)
		}
	}()

	match := newMatchFunc(session.Gallery)
	var frameID uint64

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		img, err := session.Source.Capture(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Dropped frames are expected; retry at loop cadence.
			if camera.IsTransient(err) {
				log.Printf("session %s: %v", session.ID, err)
				sleepCtx(ctx, session.Interval)
				continue
			}
			log.Printf("session %s: capture error: %v", session.ID, err)
			sleepCtx(ctx, session.Interval)
			continue
		}

		frameID++
		l.processFrame(ctx, session, match, frameID, img, sightings, frames)

		sleepCtx(ctx, session.Interval)
	}
}

// processFrame contains one frame's detect/match/emit work. A panic in
// here is a bug in frame handling, not a reason to kill the session.
func (l *Loop) processFrame(ctx context.Context, session Session, match matchFunc, frameID uint64,
	img image.Image, sightings chan<- Sighting, frames chan<- Frame) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session %s: recovered from frame %d panic: %v", session.ID, frameID, r)
		}
	}()

	small := camera.Downscale(img, session.Downscale)
	data, err := camera.EncodeJPEG(small)
	if err != nil {
		log.Printf("session %s: frame %d: %v", session.ID, frameID, err)
		return
	}

	faces, err := session.Detector.DetectFaces(ctx, data)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("session %s: frame %d: detection failed: %v", session.ID, frameID, err)
		}
		return
	}

	now := time.Now()
	annotations := make([]Annotation, 0, len(faces))
	scale := 1 / session.Downscale

	for _, face := range faces {
		result := match(face.Embedding, session.Threshold)
		annotations = append(annotations, Annotation{
			Box:   scaleBox(face.BBox, scale),
			Label: result.Label,
		})

		if !result.Known {
			continue
		}

		// Identity events are never dropped; block until delivered or
		// the session is cancelled.
		select {
		case sightings <- Sighting{
			SessionID: session.ID,
			Label:     result.Label,
			Distance:  result.Distance,
			At:        now,
			FrameID:   frameID,
		}:
		case <-ctx.Done():
			return
		}
	}

	// Display is best-effort: drop the frame when the consumer lags.
	select {
	case frames <- Frame{ID: frameID, Image: img, Annotations: annotations, At: now}:
	default:
	}
}

func scaleBox(bbox []float64, scale float64) Box {
	if len(bbox) != 4 {
		return Box{}
	}
	return Box{
		X1: bbox[0] * scale,
		Y1: bbox[1] * scale,
		X2: bbox[2] * scale,
		Y2: bbox[3] * scale,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
