// internal/tui/view.go
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/arnavpadwal/FluxCam/pkg/effects"
)

// Style definitions
var (
	headerStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("250")).
			Padding(0, 1)

	mainContentStyle = lipgloss.NewStyle().
				Padding(1, 0)

	tabStyle = lipgloss.NewStyle().
			Padding(0, 1)

	activeTabStyle = tabStyle.
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("0"))

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	onStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))
)

// View renders the UI
func (m Model) View() string {
	timeStr := m.currentTime.Format("Mon Jan 2 15:04:05 2006")

	headerContent := lipgloss.JoinHorizontal(
		lipgloss.Center,
		"📷 FluxCam",
		lipgloss.NewStyle().
			Width(max(0, m.width-14)).
			Align(lipgloss.Right).
			Render(timeStr),
	)

	header := headerStyle.Width(m.width).Render(headerContent)
	tabs := m.renderTabs()
	mainContent := mainContentStyle.Render(m.renderActiveTabContent())
	statusBar := statusBarStyle.Width(m.width).Render(
		fmt.Sprintf("Status: %s | Tab or 1-4: Switch Views | q: Quit", m.status),
	)

	return fmt.Sprintf("%s\n%s\n%s\n%s", header, tabs, mainContent, statusBar)
}

// Helper function to render tabs
func (m Model) renderTabs() string {
	var renderedTabs []string

	for _, t := range m.tabs {
		style := tabStyle
		if t.id == m.activeTab {
			style = activeTabStyle
		}
		renderedTabs = append(renderedTabs, style.Render(t.title))
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		renderedTabs...,
	)
}

// Helper function to render active tab content
func (m Model) renderActiveTabContent() string {
	switch m.activeTab {
	case cameraTab:
		return m.renderCameraTab()
	case effectsTab:
		return m.renderEffectsTab()
	case controlsTab:
		return m.renderControlsTab()
	case serverTab:
		return m.renderServerTab()
	}
	return ""
}

func (m Model) renderCameraTab() string {
	var content strings.Builder

	content.WriteString(fmt.Sprintf("Capture: %s", m.loop.State()))
	if device := m.loop.DeviceID(); device != "" {
		content.WriteString(fmt.Sprintf(" (%s)", device))
	}
	content.WriteString("\n\n")

	if len(m.devices) == 0 {
		content.WriteString("No cameras detected.\n\n")
		content.WriteString(dimStyle.Render("Press 'c' to scan for cameras"))
		return content.String()
	}

	content.WriteString("Available cameras:\n")
	for i, device := range m.devices {
		line := fmt.Sprintf("  %s (%s)", device.Name, device.ID)
		if device.ID == m.loop.DeviceID() {
			line += " [active]"
		}
		if i == m.deviceIndex {
			line = cursorStyle.Render("▸" + line[1:])
		}
		content.WriteString(line + "\n")
	}

	content.WriteString("\n")
	content.WriteString(dimStyle.Render("↑/↓: select • enter: open • x: stop • c: rescan"))
	return content.String()
}

func (m Model) renderEffectsTab() string {
	cfg := m.loop.Config()
	var content strings.Builder

	content.WriteString("Effect:\n")
	for _, e := range effects.All {
		marker := "  "
		if e == cfg.Effect {
			marker = cursorStyle.Render("▸ ")
		}
		content.WriteString(fmt.Sprintf("%s%s\n", marker, e.DisplayName()))
	}

	content.WriteString("\nTransform:\n")
	content.WriteString(fmt.Sprintf("  Mirror: %s    Flip: %s    Rotation: %d°\n",
		onOff(cfg.Mirror), onOff(cfg.Flip), int(cfg.Rotation)))

	content.WriteString("\n")
	content.WriteString(dimStyle.Render("↑/↓: effect • m: mirror • f: flip • r: rotate 90° • p: pause/resume"))
	return content.String()
}

func (m Model) renderControlsTab() string {
	var content strings.Builder

	if len(m.controls) == 0 {
		content.WriteString("No camera controls available.\n\n")
		content.WriteString(dimStyle.Render("Controls appear once a camera with a control interface is open"))
		return content.String()
	}

	content.WriteString("Camera controls:\n\n")
	for i, ctrl := range m.controls {
		cursor := "  "
		if i == m.controlIndex {
			cursor = cursorStyle.Render("▸ ")
		}
		content.WriteString(fmt.Sprintf("%s%s: %d\n", cursor, ctrl.Label, ctrl.Value))
		content.WriteString(fmt.Sprintf("    %s %d..%d\n", renderSlider(ctrl.Min, ctrl.Max, ctrl.Value, 24), ctrl.Min, ctrl.Max))
	}

	content.WriteString("\n")
	content.WriteString(dimStyle.Render("↑/↓: select • ←/→: adjust • 0: reset to default"))
	return content.String()
}

func (m Model) renderServerTab() string {
	var content strings.Builder

	status := "Stopped"
	if m.server.IsRunning() {
		status = fmt.Sprintf("Running on port %s", m.server.Port())
	}
	content.WriteString(fmt.Sprintf("Web Preview Server:\n"+
		"• Status: %s\n"+
		"• Clients: %d\n"+
		"• Open http://localhost:%s/ for the live preview\n"+
		"• Press 's' to start/stop the server\n\n",
		status, m.server.ClientCount(), m.server.Port()))

	content.WriteString("Recent Logs:\n")
	content.WriteString("------------\n")
	content.WriteString(m.logViewport.View())
	return content.String()
}

// renderSlider draws a fixed-width bar with the thumb at value's
// position within [min,max].
func renderSlider(min, max, value, width int) string {
	if max <= min {
		return strings.Repeat("─", width)
	}
	pos := (value - min) * (width - 1) / (max - min)
	var b strings.Builder
	for i := 0; i < width; i++ {
		if i == pos {
			b.WriteString("●")
		} else if i < pos {
			b.WriteString("━")
		} else {
			b.WriteString("─")
		}
	}
	return b.String()
}

func onOff(v bool) string {
	if v {
		return onStyle.Render("on")
	}
	return dimStyle.Render("off")
}
