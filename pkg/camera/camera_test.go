package camera

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestCaptureTarget(t *testing.T) {
	tests := []struct {
		deviceID string
		want     interface{}
	}{
		{"/dev/video0", 0},
		{"/dev/video12", 12},
		{"3", 3},
		{"rtsp://host/stream", "rtsp://host/stream"},
		{"/dev/videoX", "/dev/videoX"},
	}

	for _, tt := range tests {
		t.Run(tt.deviceID, func(t *testing.T) {
			assert.Equal(t, tt.want, captureTarget(tt.deviceID))
		})
	}
}

func TestReadWithoutOpenDevice(t *testing.T) {
	src := NewSource()
	img := gocv.NewMat()
	defer img.Close()

	err := src.Read(&img)
	var rerr *ReadError
	require.ErrorAs(t, err, &rerr)
}

func TestCloseIsIdempotent(t *testing.T) {
	src := NewSource()
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	assert.False(t, src.IsOpen())
	assert.Empty(t, src.DeviceID())
}

func TestOpenErrorWraps(t *testing.T) {
	cause := errors.New("device busy")
	err := &OpenError{Device: "/dev/video1", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "/dev/video1")
}

func TestScanDevicesNeverErrors(t *testing.T) {
	// Machines without cameras must yield an empty list, not a failure.
	devices, err := ScanDevices()
	require.NoError(t, err)
	for _, d := range devices {
		assert.NotEmpty(t, d.ID)
		assert.NotEmpty(t, d.Name)
	}
}
