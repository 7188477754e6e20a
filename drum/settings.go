package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/godrum/pkg/beat"
	"github.com/itohio/godrum/pkg/piezo"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	// Create tabs
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createSensorTab(state),
		createBeatTab(state),
		createMockTab(state),
	)

	// Create dialog with tabs as content
	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	// Get available serial ports
	ports, err := piezo.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
		currentDisplay = currentPort
	}

	portSelect := widget.NewSelect(portOptions, func(selected string) {
		// Selection handler - will be called on submit
	})
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
		},
		OnSubmit: func() {
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected // Fallback to selected text
				}

				// Check if port changed and device is connected
				portChanged := state.cfg.Serial.Port != selectedPort
				wasConnected := state.device != nil && state.device.IsConnected()

				state.cfg.Serial.Port = selectedPort
				if err := state.cfg.Save("config.yaml"); err != nil {
					dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
					return
				}

				// If port changed and device was connected, restart the measurement chain
				if portChanged && wasConnected {
					// Gracefully close old chain
					closeMeasurementChain(state.chain)
					state.chain = nil

					// Close old device
					if state.device != nil {
						state.device.Close()
						state.device = nil
					}

					// Reconnect with new port
					handleConnect(state)
				}
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createSensorTab creates the Sensor configuration tab.
func createSensorTab(state *appState) *container.TabItem {
	fullScaleEntry := widget.NewEntry()
	fullScaleEntry.SetText(fmt.Sprintf("%d", state.cfg.Sensor.FullScale))

	averageSamplesEntry := widget.NewEntry()
	averageSamplesEntry.SetText(fmt.Sprintf("%d", state.cfg.Sensor.AverageSamples))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Full Scale (raw)", Widget: fullScaleEntry},
			{Text: "Average Samples (0=disabled)", Widget: averageSamplesEntry},
		},
		OnSubmit: func() {
			if fs, err := strconv.Atoi(fullScaleEntry.Text); err == nil {
				state.cfg.Sensor.FullScale = fs
			}
			if avg, err := strconv.Atoi(averageSamplesEntry.Text); err == nil {
				state.cfg.Sensor.AverageSamples = avg
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Sensor", form)
}

// createBeatTab creates the Beat detection configuration tab.
func createBeatTab(state *appState) *container.TabItem {
	windowSecondsEntry := widget.NewEntry()
	windowSecondsEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Beat.WindowSeconds))

	hitThresholdEntry := widget.NewEntry()
	hitThresholdEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Beat.HitThreshold))

	minHitGapEntry := widget.NewEntry()
	minHitGapEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Beat.MinHitGap))

	envelopeDecayEntry := widget.NewEntry()
	envelopeDecayEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Beat.EnvelopeDecay))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowSecondsEntry},
			{Text: "Hit Threshold (0-1)", Widget: hitThresholdEntry},
			{Text: "Min Hit Gap (s)", Widget: minHitGapEntry},
			{Text: "Envelope Decay (s)", Widget: envelopeDecayEntry},
		},
		OnSubmit: func() {
			if ws, err := strconv.ParseFloat(windowSecondsEntry.Text, 64); err == nil {
				state.cfg.Beat.WindowSeconds = ws
			}
			if ht, err := strconv.ParseFloat(hitThresholdEntry.Text, 64); err == nil {
				state.cfg.Beat.HitThreshold = ht
			}
			if mhg, err := strconv.ParseFloat(minHitGapEntry.Text, 64); err == nil {
				state.cfg.Beat.MinHitGap = mhg
			}
			if ed, err := strconv.ParseFloat(envelopeDecayEntry.Text, 64); err == nil {
				state.cfg.Beat.EnvelopeDecay = ed
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
			// Recreate beat tracker with new config
			state.tracker = beat.New(state.cfg)
		},
	}

	return container.NewTabItem("Beat", form)
}

// createMockTab creates the Mock device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.Noise))

	strikePeakEntry := widget.NewEntry()
	strikePeakEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.StrikePeak))

	strikeDecayEntry := widget.NewEntry()
	strikeDecayEntry.SetText(state.cfg.Mock.StrikeDecay.String())

	strikePeriodEntry := widget.NewEntry()
	strikePeriodEntry.SetText(state.cfg.Mock.StrikePeriod.String())

	sampleRateEntry := widget.NewEntry()
	sampleRateEntry.SetText(state.cfg.Mock.SampleRate.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Noise (0-1)", Widget: noiseEntry},
			{Text: "Strike Peak (0-1)", Widget: strikePeakEntry},
			{Text: "Strike Decay", Widget: strikeDecayEntry},
			{Text: "Strike Period", Widget: strikePeriodEntry},
			{Text: "Sample Rate", Widget: sampleRateEntry},
		},
		OnSubmit: func() {
			if noise, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
				state.cfg.Mock.Noise = noise
			}
			if sp, err := strconv.ParseFloat(strikePeakEntry.Text, 64); err == nil {
				state.cfg.Mock.StrikePeak = sp
			}
			if sd, err := time.ParseDuration(strikeDecayEntry.Text); err == nil {
				state.cfg.Mock.StrikeDecay = sd
			}
			if sper, err := time.ParseDuration(strikePeriodEntry.Text); err == nil {
				state.cfg.Mock.StrikePeriod = sper
			}
			if sr, err := time.ParseDuration(sampleRateEntry.Text); err == nil {
				state.cfg.Mock.SampleRate = sr
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}
