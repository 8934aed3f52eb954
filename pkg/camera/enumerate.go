package camera

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gocv.io/x/gocv"
)

// maxProbeIndex bounds the index probe used where /dev/video* nodes do
// not exist (macOS, Windows).
const maxProbeIndex = 5

// ScanDevices enumerates capture devices, best effort. An empty result
// means no camera is attached; it is not an error.
func ScanDevices() ([]Device, error) {
	if devices := scanVideoNodes(); len(devices) > 0 {
		return devices, nil
	}
	return probeIndexes(), nil
}

// scanVideoNodes lists V4L device nodes, taking the friendly name from
// sysfs when present.
func scanVideoNodes() []Device {
	paths, err := filepath.Glob("/dev/video*")
	if err != nil || len(paths) == 0 {
		return nil
	}
	sort.Strings(paths)

	var devices []Device
	for _, path := range paths {
		base := filepath.Base(path)
		if !strings.HasPrefix(base, "video") {
			continue
		}
		name := sysfsName(base)
		if name == "" {
			name = path
		}
		devices = append(devices, Device{
			ID:          path,
			Name:        name,
			IsAvailable: true,
		})
	}
	return devices
}

func sysfsName(base string) string {
	raw, err := os.ReadFile(filepath.Join("/sys/class/video4linux", base, "name"))
	if err != nil {
		return ""
	}
	name := string(raw)
	if idx := strings.IndexByte(name, '\n'); idx >= 0 {
		name = name[:idx]
	}
	return strings.TrimSpace(name)
}

// probeIndexes opens camera indexes sequentially to find working ones,
// the only portable discovery OpenCV offers.
func probeIndexes() []Device {
	var devices []Device
	for i := 0; i < maxProbeIndex; i++ {
		cap, err := gocv.OpenVideoCapture(i)
		if err != nil {
			continue
		}
		opened := cap.IsOpened()
		cap.Close()
		if !opened {
			continue
		}
		name := fmt.Sprintf("Camera %d", i)
		if i == 0 {
			name = "Built-in Camera"
		}
		devices = append(devices, Device{
			ID:          fmt.Sprintf("%d", i),
			Name:        name,
			IsAvailable: true,
		})
	}
	return devices
}
