package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/arnavpadwal/FluxCam/internal/capture"
	"github.com/arnavpadwal/FluxCam/internal/config"
	"github.com/arnavpadwal/FluxCam/internal/logging"
	"github.com/arnavpadwal/FluxCam/internal/server"
	"github.com/arnavpadwal/FluxCam/pkg/camera"
	"github.com/arnavpadwal/FluxCam/pkg/v4l2ctl"
)

type stubSource struct{}

func (stubSource) Open(string, camera.StreamConfig) error { return nil }
func (stubSource) Read(*gocv.Mat) error                   { return nil }
func (stubSource) Close() error                           { return nil }

type busySource struct{ stubSource }

func (busySource) Open(device string, _ camera.StreamConfig) error {
	return &camera.OpenError{Device: device, Err: errors.New("device busy")}
}

func testModel(t *testing.T) Model {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	log := logging.Discard()
	loop := capture.New(stubSource{}, nil, nil, log, capture.Options{})
	srv := server.New("0", log, nil)
	return New(cfg, loop, srv, v4l2ctl.New(), log)
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestEmptyDeviceScanNeverStartsCapture(t *testing.T) {
	m := testModel(t)

	updated, cmd := m.Update(devicesScannedMsg{devices: nil})
	model := updated.(Model)

	assert.Equal(t, "No cameras found", model.status)
	assert.Nil(t, cmd)
	assert.Equal(t, capture.Stopped, model.loop.State())
}

func TestScanResumesPersistedDevice(t *testing.T) {
	m := testModel(t)
	m.config.CameraConfig.DeviceID = "/dev/video1"

	devices := []camera.Device{
		{ID: "/dev/video0", Name: "Internal", IsAvailable: true},
		{ID: "/dev/video1", Name: "External", IsAvailable: true},
	}
	updated, cmd := m.Update(devicesScannedMsg{devices: devices})
	model := updated.(Model)

	assert.Equal(t, 1, model.deviceIndex)
	assert.NotNil(t, cmd, "configured device should trigger a start command")
}

func TestScanWithoutConfiguredDeviceDoesNotAutoStart(t *testing.T) {
	m := testModel(t)

	devices := []camera.Device{{ID: "/dev/video0", Name: "Internal", IsAvailable: true}}
	updated, cmd := m.Update(devicesScannedMsg{devices: devices})
	model := updated.(Model)

	assert.Nil(t, cmd)
	assert.Equal(t, capture.Stopped, model.loop.State())
}

func TestControlResultKeepsSliderInSync(t *testing.T) {
	m := testModel(t)
	m.controls = []v4l2ctl.Control{
		{Name: "brightness", Label: "Brightness", Min: 0, Max: 255, Step: 1, Default: 128, Value: 128},
	}

	rejected := &v4l2ctl.ControlSetError{Device: "/dev/video0", Control: "brightness", Value: 500}
	updated, _ := m.Update(controlResultMsg{index: 0, applied: 255, err: rejected})
	model := updated.(Model)

	assert.Equal(t, 255, model.controls[0].Value, "slider must match the actually-applied value")
	assert.Contains(t, model.status, "rejected")
}

func TestEffectKeysUpdatePipelineSnapshot(t *testing.T) {
	m := testModel(t)
	m.activeTab = effectsTab

	updated, _ := m.Update(keyMsg('m'))
	model := updated.(Model)
	assert.True(t, model.loop.Config().Mirror)

	updated, _ = model.Update(keyMsg('r'))
	model = updated.(Model)
	assert.Equal(t, 90, int(model.loop.Config().Rotation))
	assert.Equal(t, 90, model.config.PipelineConfig.Rotation)

	updated, _ = model.Update(keyMsg('r'))
	model = updated.(Model)
	assert.Equal(t, 180, int(model.loop.Config().Rotation))
}

func TestCaptureOpenFailureSetsStatusWithoutNewListener(t *testing.T) {
	m := testModel(t)
	m.loop = capture.New(busySource{}, nil, nil, logging.Discard(), capture.Options{})

	cmd := m.startCaptureCmd("/dev/video7")
	msg := cmd()
	failed, ok := msg.(captureFailedMsg)
	require.True(t, ok, "open failure must surface as captureFailedMsg")

	updated, next := m.Update(failed)
	model := updated.(Model)

	assert.Contains(t, model.status, "/dev/video7")
	assert.NotEmpty(t, model.logs)
	// Only channel-delivered log lines re-arm the log listener.
	assert.Nil(t, next)
}

func TestDeviceLostEventClearsControls(t *testing.T) {
	m := testModel(t)
	m.controls = []v4l2ctl.Control{{Name: "brightness"}}

	updated, cmd := m.Update(captureEventMsg(capture.Event{
		Type:   capture.EventDeviceLost,
		Device: "/dev/video0",
	}))
	model := updated.(Model)

	assert.Empty(t, model.controls)
	assert.Contains(t, model.status, "Device lost")
	assert.NotNil(t, cmd, "must keep listening for capture events")
}
