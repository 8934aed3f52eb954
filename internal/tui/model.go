// internal/tui/model.go
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/arnavpadwal/FluxCam/internal/capture"
	"github.com/arnavpadwal/FluxCam/internal/config"
	"github.com/arnavpadwal/FluxCam/internal/server"
	"github.com/arnavpadwal/FluxCam/pkg/camera"
	"github.com/arnavpadwal/FluxCam/pkg/v4l2ctl"
)

type tabType int

const (
	cameraTab tabType = iota
	effectsTab
	controlsTab
	serverTab
)

type tab struct {
	title string
	id    tabType
}

// Msg types
type tickMsg time.Time

type devicesScannedMsg struct {
	devices []camera.Device
	err     error
}

type captureEventMsg capture.Event

type logLineMsg struct {
	level   string
	message string
}

// captureFailedMsg reports a Start/SwitchDevice error from a command.
// It is a separate type from logLineMsg so handling it never re-arms
// the log channel listener.
type captureFailedMsg struct {
	device string
	err    error
}

// controlResultMsg reports the value the device actually holds after a
// set attempt, so the slider can never desync from the hardware.
type controlResultMsg struct {
	index   int
	applied int
	err     error
}

// Model holds our application state
type Model struct {
	config      *config.AppConfig
	width       int
	height      int
	status      string
	startTime   time.Time
	currentTime time.Time
	activeTab   tabType
	tabs        []tab

	loop   *capture.Loop
	bridge *v4l2ctl.Bridge
	server *server.Server
	log    *logrus.Logger

	devices     []camera.Device
	deviceIndex int
	scanning    bool

	controls     []v4l2ctl.Control
	controlIndex int

	logViewport viewport.Model
	logs        []string
	logCh       chan logLineMsg
}

// New returns a Model with initial state
func New(cfg *config.AppConfig, loop *capture.Loop, srv *server.Server, bridge *v4l2ctl.Bridge, log *logrus.Logger) Model {
	now := time.Now()

	m := Model{
		config:      cfg,
		status:      "Starting up...",
		startTime:   now,
		currentTime: now,
		activeTab:   cameraTab,
		loop:        loop,
		bridge:      bridge,
		server:      srv,
		log:         log,
		tabs: []tab{
			{title: "Camera", id: cameraTab},
			{title: "Effects", id: effectsTab},
			{title: "Controls", id: controlsTab},
			{title: "Server", id: serverTab},
		},
		logViewport: func() viewport.Model {
			vp := viewport.New(0, 10)
			vp.MouseWheelEnabled = true
			vp.YPosition = 0
			return vp
		}(),
		logs:  make([]string, 0),
		logCh: make(chan logLineMsg, 64),
	}

	return m
}

// LogSink returns the forwarding function wired into the logrus hook.
// It never blocks; bursts beyond the buffer are dropped.
func (m Model) LogSink() func(level, message string) {
	ch := m.logCh
	return func(level, message string) {
		select {
		case ch <- logLineMsg{level: level, message: message}:
		default:
		}
	}
}

// Init runs any initial IO
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		timeTickCmd(),
		scanDevicesCmd(),
		waitForCaptureEvent(m.loop),
		waitForLogLine(m.logCh),
	)
}

func (m *Model) appendLog(level, message string) {
	entry := fmt.Sprintf("[%s] %s", strings.ToUpper(level), message)
	m.logs = append(m.logs, entry)
	if len(m.logs) > 1000 {
		m.logs = m.logs[1:]
	}
	m.logViewport.SetContent(strings.Join(m.logs, "\n"))
	m.logViewport.GotoBottom()
}

// selectedDevice returns the device under the cursor, if any.
func (m *Model) selectedDevice() (camera.Device, bool) {
	if m.deviceIndex < 0 || m.deviceIndex >= len(m.devices) {
		return camera.Device{}, false
	}
	return m.devices[m.deviceIndex], true
}

// Helper command for time updates
func timeTickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func scanDevicesCmd() tea.Cmd {
	return func() tea.Msg {
		devices, err := camera.ScanDevices()
		return devicesScannedMsg{devices: devices, err: err}
	}
}

func waitForCaptureEvent(loop *capture.Loop) tea.Cmd {
	return func() tea.Msg {
		return captureEventMsg(<-loop.Events())
	}
}

func waitForLogLine(ch chan logLineMsg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
