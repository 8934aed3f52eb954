package camera

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// StreamConfig holds the capture parameters requested when a device is
// opened. Zero fields leave the driver default in place.
type StreamConfig struct {
	Width     int
	Height    int
	Framerate int
}

// Source is the owner of the one open capture handle. Open replaces the
// current handle, Close is idempotent, and the mutex guarantees no two
// concurrent reads of the same handle.
type Source struct {
	mu       sync.Mutex
	deviceID string
	cap      *gocv.VideoCapture
}

func NewSource() *Source {
	return &Source{}
}

// Open opens deviceID for capture, first closing any handle already
// held so at most one device is open at a time.
func (s *Source) Open(deviceID string, cfg StreamConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()

	cap, err := gocv.OpenVideoCapture(captureTarget(deviceID))
	if err != nil {
		return &OpenError{Device: deviceID, Err: err}
	}
	if !cap.IsOpened() {
		cap.Close()
		return &OpenError{Device: deviceID, Err: errors.New("device did not open")}
	}

	if cfg.Width > 0 {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.Framerate > 0 {
		cap.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}

	s.cap = cap
	s.deviceID = deviceID
	return nil
}

// Read captures one frame into dst. A failed or empty read yields a
// ReadError; the device stays open so the caller can retry.
func (s *Source) Read(dst *gocv.Mat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cap == nil {
		return &ReadError{Device: s.deviceID, Err: errors.New("no device open")}
	}
	if ok := s.cap.Read(dst); !ok {
		return &ReadError{Device: s.deviceID, Err: errors.New("capture returned no frame")}
	}
	if dst.Empty() {
		return &ReadError{Device: s.deviceID, Err: errors.New("capture returned empty frame")}
	}
	return nil
}

// Close releases the native capture resource. Safe to call repeatedly.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Source) closeLocked() error {
	if s.cap == nil {
		return nil
	}
	err := s.cap.Close()
	s.cap = nil
	s.deviceID = ""
	return err
}

// DeviceID returns the identifier of the open device, or "" when closed.
func (s *Source) DeviceID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceID
}

func (s *Source) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cap != nil
}

// captureTarget converts a device identifier into the value OpenCV
// expects: V4L paths and bare numbers become indexes, anything else is
// passed through as-is.
func captureTarget(deviceID string) interface{} {
	if strings.HasPrefix(deviceID, "/dev/video") {
		if n, err := strconv.Atoi(strings.TrimPrefix(deviceID, "/dev/video")); err == nil {
			return n
		}
	}
	if n, err := strconv.Atoi(deviceID); err == nil {
		return n
	}
	return deviceID
}
