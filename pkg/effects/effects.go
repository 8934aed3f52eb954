// Package effects implements the frame transform pipeline: geometric
// transforms (mirror, flip, rotate) followed by one of a fixed set of
// image filters. Apply is pure per call; all tuning lives in Config.
package effects

import "fmt"

// Effect selects one of the built-in image filters.
type Effect int

const (
	None Effect = iota
	Blur
	Edges
	Cartoon
	Sepia
	Negative
	Grayscale
	Emboss
	Sharpen
)

// All lists every effect in menu order.
var All = []Effect{None, Blur, Edges, Cartoon, Sepia, Negative, Grayscale, Emboss, Sharpen}

func (e Effect) String() string {
	switch e {
	case None:
		return "none"
	case Blur:
		return "blur"
	case Edges:
		return "edges"
	case Cartoon:
		return "cartoon"
	case Sepia:
		return "sepia"
	case Negative:
		return "negative"
	case Grayscale:
		return "grayscale"
	case Emboss:
		return "emboss"
	case Sharpen:
		return "sharpen"
	}
	return "unknown"
}

// DisplayName is the human-facing label used by selector UIs.
func (e Effect) DisplayName() string {
	switch e {
	case None:
		return "None"
	case Blur:
		return "Blur"
	case Edges:
		return "Edge Detection"
	case Cartoon:
		return "Cartoon"
	case Sepia:
		return "Sepia"
	case Negative:
		return "Negative"
	case Grayscale:
		return "Grayscale"
	case Emboss:
		return "Emboss"
	case Sharpen:
		return "Sharpen"
	}
	return "Unknown"
}

// ParseEffect maps a name produced by Effect.String back to its Effect.
func ParseEffect(name string) (Effect, error) {
	for _, e := range All {
		if e.String() == name {
			return e, nil
		}
	}
	return None, fmt.Errorf("unknown effect %q", name)
}

// Rotation is a clockwise rotation in degrees, restricted to quarter turns.
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

func (r Rotation) String() string {
	return fmt.Sprintf("%ddeg", int(r))
}

// Next returns the rotation one quarter turn further clockwise.
func (r Rotation) Next() Rotation {
	return Rotation((int(r) + 90) % 360)
}

// Valid reports whether r is one of the four supported quarter turns.
func (r Rotation) Valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

// Config is one immutable snapshot of the pipeline settings. The capture
// loop reads a whole snapshot per tick; writers publish a replacement
// rather than mutating a shared value.
type Config struct {
	Mirror   bool
	Flip     bool
	Rotation Rotation
	Effect   Effect
}

// PipelineError reports a frame the pipeline could not process. The
// capture loop treats it as a dropped frame.
type PipelineError struct {
	Reason string
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline: %s", e.Reason)
}
