// Package camera abstracts the frame source for the recognition loop.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
)

// ErrDeviceUnavailable is returned when the camera cannot be opened.
// It is fatal to a recognition session; the loop stays idle.
var ErrDeviceUnavailable = errors.New("camera device unavailable")

// CaptureError marks a transient single-frame failure. The recognition
// loop logs it and retries at loop cadence; it never terminates the run.
type CaptureError struct {
	Err error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("frame capture failed: %v", e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a dropped-frame error the caller
// should retry.
func IsTransient(err error) bool {
	var ce *CaptureError
	return errors.As(err, &ce)
}

// Source produces frames for the recognition loop. Implementations must
// tolerate Close being called at most once after a successful Open.
type Source interface {
	// Open acquires the camera resource. Fails fast with
	// ErrDeviceUnavailable when the device cannot be reached.
	Open(ctx context.Context) error

	// Capture grabs one frame. Transient failures are reported as
	// *CaptureError.
	Capture(ctx context.Context) (image.Image, error)

	// Close releases the camera resource.
	Close() error
}
