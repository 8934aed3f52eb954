// cmd/fluxcam/main.go
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/arnavpadwal/FluxCam/internal/capture"
	"github.com/arnavpadwal/FluxCam/internal/config"
	"github.com/arnavpadwal/FluxCam/internal/logging"
	"github.com/arnavpadwal/FluxCam/internal/server"
	"github.com/arnavpadwal/FluxCam/internal/tui"
	"github.com/arnavpadwal/FluxCam/pkg/camera"
	"github.com/arnavpadwal/FluxCam/pkg/effects"
	"github.com/arnavpadwal/FluxCam/pkg/v4l2ctl"
)

func main() {
	// Load existing config or fall back to defaults
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New("fluxcam.log")

	source := camera.NewSource()
	bridge := v4l2ctl.New()
	srv := server.New(cfg.ServerPort, logger, nil)

	width, height := cfg.CameraConfig.StreamConfig.Size()
	loop := capture.New(source, bridge, srv, logger, capture.Options{
		Stream: camera.StreamConfig{
			Width:     width,
			Height:    height,
			Framerate: cfg.CameraConfig.StreamConfig.FPS,
		},
	})
	loop.SetConfig(pipelineFromConfig(cfg.PipelineConfig))

	if err := srv.Start(); err != nil {
		logger.WithError(err).Error("preview server failed to start")
	}

	m := tui.New(cfg, loop, srv, bridge, logger)
	logging.Forward(logger, m.LogSink())

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}

	loop.Stop()
	if srv.IsRunning() {
		srv.Stop()
	}
	if err := config.Save(cfg); err != nil {
		logger.WithError(err).Warn("could not persist config")
	}
}

// pipelineFromConfig rebuilds the startup pipeline snapshot from the
// persisted settings, ignoring anything malformed.
func pipelineFromConfig(pc config.PipelineConfig) effects.Config {
	out := effects.Config{
		Mirror: pc.Mirror,
		Flip:   pc.Flip,
	}
	if effect, err := effects.ParseEffect(pc.Effect); err == nil {
		out.Effect = effect
	}
	if rotation := effects.Rotation(pc.Rotation); rotation.Valid() {
		out.Rotation = rotation
	}
	return out
}
