// internal/tui/update.go
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arnavpadwal/FluxCam/internal/capture"
	"github.com/arnavpadwal/FluxCam/pkg/effects"
	"github.com/arnavpadwal/FluxCam/pkg/v4l2ctl"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.logViewport.Width = msg.Width
		m.logViewport.Height = max(4, msg.Height-10)

	case tickMsg:
		m.currentTime = time.Time(msg)
		return m, timeTickCmd()

	case devicesScannedMsg:
		return m.handleDevicesScanned(msg)

	case captureEventMsg:
		return m.handleCaptureEvent(capture.Event(msg))

	case logLineMsg:
		m.appendLog(msg.level, msg.message)
		if msg.level == "error" {
			m.status = msg.message
		}
		return m, waitForLogLine(m.logCh)

	case captureFailedMsg:
		m.status = fmt.Sprintf("Cannot open %s: %v", msg.device, msg.err)
		m.appendLog("error", m.status)
		return m, nil

	case controlResultMsg:
		return m.handleControlResult(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleDevicesScanned(msg devicesScannedMsg) (tea.Model, tea.Cmd) {
	m.scanning = false
	if msg.err != nil {
		m.status = fmt.Sprintf("Error scanning for cameras: %v", msg.err)
		return m, nil
	}
	m.devices = msg.devices
	if len(m.devices) == 0 {
		// No camera attached is a valid state; capture is never
		// started automatically from an empty list.
		m.status = "No cameras found"
		return m, nil
	}
	m.status = fmt.Sprintf("Found %d camera(s)", len(m.devices))

	// Resume the persisted device selection, if it is still attached.
	if m.loop.State() == capture.Stopped && m.config.IsCameraConfigured() {
		for i, d := range m.devices {
			if d.ID == m.config.CameraConfig.DeviceID {
				m.deviceIndex = i
				return m, m.startCaptureCmd(d.ID)
			}
		}
	}
	return m, nil
}

func (m Model) handleCaptureEvent(event capture.Event) (tea.Model, tea.Cmd) {
	switch event.Type {
	case capture.EventStarted:
		m.controls = event.Controls
		m.controlIndex = 0
		m.status = fmt.Sprintf("Capturing from %s", event.Device)
	case capture.EventStopped:
		m.status = "Capture stopped"
	case capture.EventDeviceLost:
		m.controls = nil
		m.status = fmt.Sprintf("Device lost: %s, select another camera", event.Device)
	}
	return m, waitForCaptureEvent(m.loop)
}

func (m Model) handleControlResult(msg controlResultMsg) (tea.Model, tea.Cmd) {
	if msg.index < 0 || msg.index >= len(m.controls) {
		return m, nil
	}
	ctrl := &m.controls[msg.index]
	if msg.err != nil {
		m.status = fmt.Sprintf("Control %s rejected: %v", ctrl.Name, msg.err)
	}
	// Either way the slider tracks what the device reports.
	ctrl.Value = msg.applied
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.loop.Stop()
		if m.server.IsRunning() {
			m.server.Stop()
		}
		return m, tea.Quit
	case "1":
		m.activeTab = cameraTab
	case "2":
		m.activeTab = effectsTab
	case "3":
		m.activeTab = controlsTab
	case "4":
		m.activeTab = serverTab
	case "tab":
		m.activeTab = (m.activeTab + 1) % tabType(len(m.tabs))
	default:
		switch m.activeTab {
		case cameraTab:
			return m.handleCameraKey(msg)
		case effectsTab:
			return m.handleEffectsKey(msg)
		case controlsTab:
			return m.handleControlsKey(msg)
		case serverTab:
			return m.handleServerKey(msg)
		}
	}
	return m, nil
}

func (m Model) handleCameraKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "c":
		if !m.scanning {
			m.scanning = true
			m.status = "Scanning for cameras..."
			return m, scanDevicesCmd()
		}
	case "up", "k":
		if len(m.devices) > 0 {
			m.deviceIndex = (m.deviceIndex - 1 + len(m.devices)) % len(m.devices)
		}
	case "down", "j":
		if len(m.devices) > 0 {
			m.deviceIndex = (m.deviceIndex + 1) % len(m.devices)
		}
	case "enter":
		device, ok := m.selectedDevice()
		if !ok {
			m.status = "No camera selected"
			return m, nil
		}
		m.config.CameraConfig.DeviceID = device.ID
		m.config.CameraConfig.DeviceName = device.Name
		return m, m.startCaptureCmd(device.ID)
	case "x":
		if m.loop.State() != capture.Stopped {
			m.loop.Stop()
		}
	}
	return m, nil
}

func (m Model) handleEffectsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cfg := m.loop.Config()
	switch msg.String() {
	case "up", "k":
		cfg.Effect = prevEffect(cfg.Effect)
	case "down", "j", "e":
		cfg.Effect = nextEffect(cfg.Effect)
	case "m":
		cfg.Mirror = !cfg.Mirror
	case "f":
		cfg.Flip = !cfg.Flip
	case "r":
		cfg.Rotation = cfg.Rotation.Next()
	case "p":
		switch m.loop.State() {
		case capture.Running:
			m.loop.Pause()
			m.status = "Preview paused"
		case capture.Paused:
			m.loop.Resume()
			m.status = "Preview resumed"
		}
		return m, nil
	default:
		return m, nil
	}
	m.loop.SetConfig(cfg)
	m.config.PipelineConfig.Effect = cfg.Effect.String()
	m.config.PipelineConfig.Mirror = cfg.Mirror
	m.config.PipelineConfig.Flip = cfg.Flip
	m.config.PipelineConfig.Rotation = int(cfg.Rotation)
	return m, nil
}

func (m Model) handleControlsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if len(m.controls) == 0 {
		return m, nil
	}
	switch msg.String() {
	case "up", "k":
		m.controlIndex = (m.controlIndex - 1 + len(m.controls)) % len(m.controls)
	case "down", "j":
		m.controlIndex = (m.controlIndex + 1) % len(m.controls)
	case "left", "h":
		return m.adjustControl(-1)
	case "right", "l":
		return m.adjustControl(+1)
	case "0":
		ctrl := m.controls[m.controlIndex]
		return m, m.setControlCmd(m.controlIndex, ctrl.Default)
	}
	return m, nil
}

func (m Model) handleServerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "s":
		if m.server.IsRunning() {
			if err := m.server.Stop(); err != nil {
				m.status = fmt.Sprintf("Error stopping server: %v", err)
			} else {
				m.status = "Server stopped"
			}
		} else {
			if err := m.server.Start(); err != nil {
				m.status = fmt.Sprintf("Error starting server: %v", err)
			} else {
				m.status = fmt.Sprintf("Server started on port %s", m.server.Port())
			}
		}
	}
	return m, nil
}

// adjustControl nudges the selected control by steps of its step size,
// clamped to the descriptor range.
func (m Model) adjustControl(direction int) (tea.Model, tea.Cmd) {
	ctrl := m.controls[m.controlIndex]
	value := ctrl.Value + direction*ctrl.Step
	if value < ctrl.Min {
		value = ctrl.Min
	}
	if value > ctrl.Max {
		value = ctrl.Max
	}
	if value == ctrl.Value {
		return m, nil
	}
	return m, m.setControlCmd(m.controlIndex, value)
}

// setControlCmd applies a control value and reads back what the device
// actually holds, so the UI reflects clamping or rejection.
func (m Model) setControlCmd(index, value int) tea.Cmd {
	device := m.loop.DeviceID()
	name := m.controls[index].Name
	current := m.controls[index].Value
	bridge := m.bridge
	return func() tea.Msg {
		ctx := context.Background()
		setErr := bridge.SetControl(ctx, device, name, value)

		applied, getErr := bridge.GetControl(ctx, device, name)
		if getErr != nil {
			// Cannot confirm; keep the last-known value.
			applied = current
			if setErr == nil {
				applied = value
			}
		}

		var serr *v4l2ctl.ControlSetError
		if setErr != nil && !errors.As(setErr, &serr) {
			setErr = &v4l2ctl.ControlSetError{Device: device, Control: name, Value: value, Err: setErr}
		}
		return controlResultMsg{index: index, applied: applied, err: setErr}
	}
}

func (m Model) startCaptureCmd(deviceID string) tea.Cmd {
	loop := m.loop
	return func() tea.Msg {
		var err error
		if loop.State() == capture.Stopped {
			err = loop.Start(deviceID)
		} else {
			err = loop.SwitchDevice(deviceID)
		}
		if err != nil {
			return captureFailedMsg{device: deviceID, err: err}
		}
		return nil
	}
}

func nextEffect(e effects.Effect) effects.Effect {
	return effects.All[(int(e)+1)%len(effects.All)]
}

func prevEffect(e effects.Effect) effects.Effect {
	return effects.All[(int(e)-1+len(effects.All))%len(effects.All)]
}
