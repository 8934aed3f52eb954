// Package capture drives the frame pipeline: it reads frames from the
// camera source on a dedicated goroutine, applies the effect pipeline
// with a per-tick config snapshot, and hands results to the display
// side through a latest-frame-wins slot.
package capture

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/arnavpadwal/FluxCam/pkg/camera"
	"github.com/arnavpadwal/FluxCam/pkg/effects"
	"github.com/arnavpadwal/FluxCam/pkg/v4l2ctl"
)

// State of the capture loop.
type State int32

const (
	Stopped State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Paused:
		return "paused"
	}
	return "unknown"
}

// EventType tags loop notifications delivered to the UI.
type EventType int

const (
	EventStarted EventType = iota
	EventStopped
	EventDeviceLost
)

// Event is one user-visible notification from the loop.
type Event struct {
	Type     EventType
	Device   string
	Message  string
	Controls []v4l2ctl.Control
}

// FrameSource is the camera contract the loop drives. *camera.Source
// satisfies it; tests substitute fakes.
type FrameSource interface {
	Open(deviceID string, cfg camera.StreamConfig) error
	Read(dst *gocv.Mat) error
	Close() error
}

// ControlLister refreshes hardware control descriptors on device open.
type ControlLister interface {
	ListControls(ctx context.Context, device string) ([]v4l2ctl.Control, error)
}

// Publisher receives encoded frames on the display side of the slot.
type Publisher interface {
	BroadcastFrame(frame []byte)
}

// Options tune the loop. Zero values select the defaults.
type Options struct {
	Stream   camera.StreamConfig
	Interval time.Duration
	// MaxReadFailures is the run of consecutive ReadErrors that
	// escalates to device-lost.
	MaxReadFailures int
}

// Loop owns the capture goroutine and its state machine:
// Stopped -> Running -> (Paused | Stopped).
type Loop struct {
	source FrameSource
	bridge ControlLister
	log    *logrus.Logger
	opts   Options

	cfg   atomic.Pointer[effects.Config]
	state atomic.Int32
	slot  *Slot

	events chan Event

	mu       sync.Mutex // guards start/stop transitions and controls
	stop     chan struct{}
	done     chan struct{}
	gen      uint64 // session counter, bumped whenever a session ends or begins
	deviceID string
	controls []v4l2ctl.Control
}

// New builds a stopped loop. If pub is non-nil a consumer goroutine
// forwards slot frames to it, so slow display writes never touch the
// capture goroutine.
func New(source FrameSource, bridge ControlLister, pub Publisher, log *logrus.Logger, opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = 33 * time.Millisecond
	}
	if opts.MaxReadFailures <= 0 {
		opts.MaxReadFailures = 5
	}

	l := &Loop{
		source: source,
		bridge: bridge,
		log:    log,
		opts:   opts,
		slot:   NewSlot(),
		events: make(chan Event, 16),
	}
	l.cfg.Store(&effects.Config{})

	if pub != nil {
		go func() {
			for frame := range l.slot.Frames() {
				pub.BroadcastFrame(frame)
			}
		}()
	}
	return l
}

// State returns the current loop state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// DeviceID returns the device the loop was last started on.
func (l *Loop) DeviceID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.deviceID
}

// Events delivers loop notifications. The channel is buffered; the
// loop never blocks on a slow listener.
func (l *Loop) Events() <-chan Event {
	return l.events
}

// Frames exposes the display side of the frame slot.
func (l *Loop) Frames() <-chan []byte {
	return l.slot.Frames()
}

// Config returns the pipeline snapshot the next tick will observe.
func (l *Loop) Config() effects.Config {
	return *l.cfg.Load()
}

// SetConfig publishes a new pipeline snapshot. The running tick keeps
// the snapshot it already loaded; staleness is at most one tick.
func (l *Loop) SetConfig(cfg effects.Config) {
	l.cfg.Store(&cfg)
}

// Controls returns the descriptors captured at the last device open.
func (l *Loop) Controls() []v4l2ctl.Control {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]v4l2ctl.Control, len(l.controls))
	copy(out, l.controls)
	return out
}

// Start opens deviceID, refreshes control descriptors and enters
// Running. A failed open leaves the loop Stopped.
func (l *Loop) Start(deviceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.State() != Stopped {
		return fmt.Errorf("capture loop already %s", l.State())
	}

	if err := l.source.Open(deviceID, l.opts.Stream); err != nil {
		return err
	}
	l.deviceID = deviceID

	// Control listing failure degrades to zero controls, never fatal.
	l.controls = nil
	if l.bridge != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		controls, err := l.bridge.ListControls(ctx, deviceID)
		cancel()
		if err != nil {
			l.log.WithError(err).WithField("device", deviceID).Warn("control listing unavailable")
		} else {
			l.controls = controls
		}
	}

	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	l.state.Store(int32(Running))
	l.gen++
	gen := l.gen
	stop, done := l.stop, l.done
	go func() {
		lost, failures := l.run(stop)
		close(done)
		if lost {
			l.deviceLost(gen, deviceID, failures)
		}
	}()

	controls := make([]v4l2ctl.Control, len(l.controls))
	copy(controls, l.controls)

	l.log.WithField("device", deviceID).Info("capture started")
	l.emit(Event{Type: EventStarted, Device: deviceID, Controls: controls})
	return nil
}

// Stop halts the capture goroutine and releases the device. Safe to
// call in any state.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

func (l *Loop) stopLocked() {
	if l.stop == nil {
		return
	}
	close(l.stop)
	<-l.done
	l.stop = nil
	l.done = nil
	l.gen++

	wasRunning := l.State() != Stopped
	l.state.Store(int32(Stopped))
	l.source.Close()
	if wasRunning {
		l.log.WithField("device", l.deviceID).Info("capture stopped")
		l.emit(Event{Type: EventStopped, Device: l.deviceID})
	}
}

// SwitchDevice stops capture on the current device, guaranteeing the
// old handle is closed before the new one opens, then starts on newID.
// On open failure the loop stays Stopped.
func (l *Loop) SwitchDevice(newID string) error {
	l.mu.Lock()
	l.stopLocked()
	l.mu.Unlock()
	return l.Start(newID)
}

// Pause keeps the device open but skips reads until Resume.
func (l *Loop) Pause() {
	l.state.CompareAndSwap(int32(Running), int32(Paused))
}

// Resume continues capture after Pause.
func (l *Loop) Resume() {
	l.state.CompareAndSwap(int32(Paused), int32(Running))
}

// run is the capture goroutine: one read, one pipeline pass and one
// slot publish per tick. It only reports a lost device; the cleanup
// itself happens in deviceLost, under the mutex.
func (l *Loop) run(stop <-chan struct{}) (lost bool, failures int) {
	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	img := gocv.NewMat()
	defer img.Close()

	for {
		select {
		case <-stop:
			return false, 0
		case <-ticker.C:
		}

		if l.State() == Paused {
			continue
		}

		if err := l.source.Read(&img); err != nil {
			failures++
			l.log.WithError(err).WithField("failures", failures).Debug("frame read failed")
			if failures >= l.opts.MaxReadFailures {
				return true, failures
			}
			continue
		}
		failures = 0

		out, err := effects.Apply(img, *l.cfg.Load())
		if err != nil {
			// Malformed frame: drop this tick and carry on.
			l.log.WithError(err).Debug("frame dropped by pipeline")
			continue
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, out)
		out.Close()
		if err != nil {
			l.log.WithError(err).Debug("frame encode failed")
			continue
		}
		frame := make([]byte, len(buf.GetBytes()))
		copy(frame, buf.GetBytes())
		buf.Close()

		l.slot.Put(frame)
	}
}

// deviceLost finalizes a session whose reads kept failing. It runs
// after the capture goroutine has exited. The generation check turns
// stale cleanup into a no-op when Stop or a newer Start already took
// over the source, so the handle of a live session is never closed
// out from under it.
func (l *Loop) deviceLost(gen uint64, deviceID string, failures int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return
	}
	l.gen++
	l.stop = nil
	l.done = nil
	l.state.Store(int32(Stopped))
	l.source.Close()
	l.log.WithField("device", deviceID).Error("device lost after repeated read failures")
	l.emit(Event{
		Type:    EventDeviceLost,
		Device:  deviceID,
		Message: fmt.Sprintf("device lost after %d consecutive read failures", failures),
	})
}

func (l *Loop) emit(event Event) {
	select {
	case l.events <- event:
	default:
		l.log.WithField("type", event.Type).Warn("event dropped, listener behind")
	}
}
