// pkg/camera/camera.go
// Package camera owns the capture side of the application: enumerating
// video devices and reading frames through the single open device handle.
package camera

import "fmt"

// Device describes one enumerated capture device.
type Device struct {
	// ID is the identifier accepted by Source.Open, e.g. "/dev/video0"
	// on Linux or a numeric index elsewhere.
	ID          string
	Name        string
	IsAvailable bool
}

// OpenError reports a device that could not be opened. The user has to
// pick another device; nothing is retried automatically.
type OpenError struct {
	Device string
	Err    error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open camera %s: %v", e.Device, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// ReadError reports a failed frame read. Reads are retryable; the
// capture loop escalates after a run of consecutive failures.
type ReadError struct {
	Device string
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read frame from %s: %v", e.Device, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }
