// Package v4l2ctl is the bridge to camera hardware controls. It shells
// out to the v4l2-ctl utility and translates its textual output into
// structured control descriptors, keeping every assumption about that
// format inside this package.
package v4l2ctl

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Control describes one hardware-exposed camera control.
type Control struct {
	// Name is the machine identifier understood by --set-ctrl.
	Name    string
	Label   string
	Type    string // "int" or "bool"
	Min     int
	Max     int
	Step    int
	Default int
	Value   int
}

// ControlQueryError reports that the control listing is unavailable.
// Callers degrade to zero controls; the application stays usable.
type ControlQueryError struct {
	Device string
	Err    error
}

func (e *ControlQueryError) Error() string {
	return fmt.Sprintf("query controls on %s: %v", e.Device, e.Err)
}

func (e *ControlQueryError) Unwrap() error { return e.Err }

// ControlSetError reports a control value the device rejected.
type ControlSetError struct {
	Device  string
	Control string
	Value   int
	Err     error
}

func (e *ControlSetError) Error() string {
	return fmt.Sprintf("set %s=%d on %s: %v", e.Control, e.Value, e.Device, e.Err)
}

func (e *ControlSetError) Unwrap() error { return e.Err }

// runner executes the external utility, split out so tests can swap in
// canned output.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Bridge invokes v4l2-ctl. It keeps no state between calls; it is a
// stateless translator between structured requests and process runs.
type Bridge struct {
	binary  string
	timeout time.Duration
	run     runner
}

func New() *Bridge {
	return &Bridge{
		binary:  "v4l2-ctl",
		timeout: 2 * time.Second,
		run:     execRunner,
	}
}

// headerRe matches the descriptor prefix of a control line, e.g.
// "brightness 0x00980900 (int)    : min=0 max=255 ...".
var headerRe = regexp.MustCompile(`^\s*([a-z0-9_]+)\s+0x[0-9a-f]+\s+\((int|bool)\)\s*:\s*(.*)$`)

// fieldRe matches the key=value fields after the colon.
var fieldRe = regexp.MustCompile(`([a-z]+)=(-?\d+)`)

// ListControls runs the listing form of the utility and parses every
// usable integer and boolean control. Controls flagged inactive or
// carrying payloads are omitted, as are lines missing required fields.
func (b *Bridge) ListControls(ctx context.Context, device string) ([]Control, error) {
	out, err := b.invoke(ctx, "-d", device, "--list-ctrls")
	if err != nil {
		return nil, &ControlQueryError{Device: device, Err: err}
	}
	return parseControls(string(out)), nil
}

func parseControls(output string) []Control {
	var controls []Control
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "flags=inactive") || strings.Contains(line, "flags=has-payload") {
			continue
		}
		match := headerRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		name, ctrlType, rest := match[1], match[2], match[3]

		fields := map[string]int{}
		for _, kv := range fieldRe.FindAllStringSubmatch(rest, -1) {
			n, _ := strconv.Atoi(kv[2])
			fields[kv[1]] = n
		}

		ctrl := Control{
			Name:  name,
			Label: labelFor(name),
			Type:  ctrlType,
		}
		switch ctrlType {
		case "int":
			min, okMin := fields["min"]
			max, okMax := fields["max"]
			def, okDef := fields["default"]
			val, okVal := fields["value"]
			if !okMin || !okMax || !okDef || !okVal {
				continue
			}
			ctrl.Min, ctrl.Max, ctrl.Default, ctrl.Value = min, max, def, val
			ctrl.Step = 1
			if step, ok := fields["step"]; ok && step > 0 {
				ctrl.Step = step
			}
		case "bool":
			def, okDef := fields["default"]
			val, okVal := fields["value"]
			if !okDef || !okVal {
				continue
			}
			ctrl.Min, ctrl.Max, ctrl.Step = 0, 1, 1
			ctrl.Default, ctrl.Value = def, val
		}
		controls = append(controls, ctrl)
	}
	return controls
}

// SetControl applies one named control value. The device may clamp or
// reject out-of-range values; rejection surfaces as ControlSetError.
func (b *Bridge) SetControl(ctx context.Context, device, name string, value int) error {
	_, err := b.invoke(ctx, "-d", device, "--set-ctrl", fmt.Sprintf("%s=%d", name, value))
	if err != nil {
		return &ControlSetError{Device: device, Control: name, Value: value, Err: err}
	}
	return nil
}

// GetControl reads back the current value of one control, used to seed
// slider positions and to resync after a rejected set.
func (b *Bridge) GetControl(ctx context.Context, device, name string) (int, error) {
	out, err := b.invoke(ctx, "-d", device, "--get-ctrl", name)
	if err != nil {
		return 0, &ControlQueryError{Device: device, Err: err}
	}
	value, err := parseGetControl(string(out), name)
	if err != nil {
		return 0, &ControlQueryError{Device: device, Err: err}
	}
	return value, nil
}

func parseGetControl(output, name string) (int, error) {
	for _, line := range strings.Split(output, "\n") {
		prefix, rest, found := strings.Cut(line, ":")
		if !found || strings.TrimSpace(prefix) != name {
			continue
		}
		return strconv.Atoi(strings.TrimSpace(rest))
	}
	return 0, fmt.Errorf("control %q not in output", name)
}

// DeviceInfo returns the card name reported by the driver, or "" when
// the utility cannot say.
func (b *Bridge) DeviceInfo(ctx context.Context, device string) (string, error) {
	out, err := b.invoke(ctx, "-d", device, "--info")
	if err != nil {
		return "", &ControlQueryError{Device: device, Err: err}
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, "Card type") {
			continue
		}
		if _, rest, found := strings.Cut(line, ":"); found {
			return strings.TrimSpace(rest), nil
		}
	}
	return "", nil
}

func (b *Bridge) invoke(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.run(ctx, b.binary, args...)
}

// labelFor turns a machine identifier into a display label, e.g.
// "white_balance_temperature" -> "White Balance Temperature".
func labelFor(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
