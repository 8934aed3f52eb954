package v4l2ctl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listOutput = `User Controls

                     brightness 0x00980900 (int)    : min=0 max=255 step=1 default=128 value=128
                       contrast 0x00980901 (int)    : min=0 max=255 step=1 default=32 value=40
                     saturation 0x00980902 (int)    : min=0 max=255 step=1 default=64 value=64
        white_balance_automatic 0x0098090c (bool)   : default=1 value=1
                           gain 0x00980913 (int)    : min=0 max=255 step=1 default=64 value=64 flags=inactive
                   extra_data 0x0098091f (int)    : min=0 max=7 step=1 default=0 value=0 flags=has-payload

Camera Controls

                  auto_exposure 0x009a0901 (int)    : min=0 max=3 step=1 default=3 value=3
         exposure_time_absolute 0x009a0902 (int)    : min=3 max=2047 step=1 default=250 value=250 flags=inactive
`

func fakeBridge(run runner) *Bridge {
	return &Bridge{binary: "v4l2-ctl", timeout: time.Second, run: run}
}

func TestListControlsParsesUsableControls(t *testing.T) {
	bridge := fakeBridge(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		assert.Equal(t, "v4l2-ctl", name)
		assert.Equal(t, []string{"-d", "/dev/video0", "--list-ctrls"}, args)
		return []byte(listOutput), nil
	})

	controls, err := bridge.ListControls(context.Background(), "/dev/video0")
	require.NoError(t, err)

	names := make([]string, len(controls))
	for i, c := range controls {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"brightness", "contrast", "saturation", "white_balance_automatic", "auto_exposure"}, names)

	brightness := controls[0]
	assert.Equal(t, "Brightness", brightness.Label)
	assert.Equal(t, "int", brightness.Type)
	assert.Equal(t, 0, brightness.Min)
	assert.Equal(t, 255, brightness.Max)
	assert.Equal(t, 1, brightness.Step)
	assert.Equal(t, 128, brightness.Default)
	assert.Equal(t, 128, brightness.Value)

	wb := controls[3]
	assert.Equal(t, "bool", wb.Type)
	assert.Equal(t, "White Balance Automatic", wb.Label)
	assert.Equal(t, 0, wb.Min)
	assert.Equal(t, 1, wb.Max)
	assert.Equal(t, 1, wb.Value)
}

func TestListControlsToleratesGarbage(t *testing.T) {
	bridge := fakeBridge(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("not v4l2 output at all\nbrightness broken line\n"), nil
	})

	controls, err := bridge.ListControls(context.Background(), "/dev/video0")
	require.NoError(t, err)
	assert.Empty(t, controls)
}

func TestListControlsUtilityMissing(t *testing.T) {
	bridge := fakeBridge(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("executable file not found in $PATH")
	})

	_, err := bridge.ListControls(context.Background(), "/dev/video0")
	var qerr *ControlQueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, "/dev/video0", qerr.Device)
}

func TestSetControl(t *testing.T) {
	var gotArgs []string
	bridge := fakeBridge(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		return nil, nil
	})

	require.NoError(t, bridge.SetControl(context.Background(), "/dev/video0", "brightness", 200))
	assert.Equal(t, []string{"-d", "/dev/video0", "--set-ctrl", "brightness=200"}, gotArgs)
}

func TestSetControlRejected(t *testing.T) {
	bridge := fakeBridge(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})

	err := bridge.SetControl(context.Background(), "/dev/video0", "brightness", 9999)
	var serr *ControlSetError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "brightness", serr.Control)
	assert.Equal(t, 9999, serr.Value)
}

func TestGetControl(t *testing.T) {
	bridge := fakeBridge(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("brightness: 142\n"), nil
	})

	value, err := bridge.GetControl(context.Background(), "/dev/video0", "brightness")
	require.NoError(t, err)
	assert.Equal(t, 142, value)
}

func TestGetControlMissingFromOutput(t *testing.T) {
	bridge := fakeBridge(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("contrast: 32\n"), nil
	})

	_, err := bridge.GetControl(context.Background(), "/dev/video0", "brightness")
	var qerr *ControlQueryError
	require.ErrorAs(t, err, &qerr)
}

func TestDeviceInfo(t *testing.T) {
	bridge := fakeBridge(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(`Driver Info:
	Driver name      : uvcvideo
	Card type        : HD WebCam: HD WebCam
	Bus info         : usb-0000:00:14.0-7
`), nil
	})

	info, err := bridge.DeviceInfo(context.Background(), "/dev/video0")
	require.NoError(t, err)
	assert.Equal(t, "HD WebCam: HD WebCam", info)
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, "Brightness", labelFor("brightness"))
	assert.Equal(t, "White Balance Temperature", labelFor("white_balance_temperature"))
}
