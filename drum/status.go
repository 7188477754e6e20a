package main

import (
	"fmt"

	"fyne.io/fyne/v2"
	"github.com/itohio/godrum/pkg/beat"
)

// updateStatus refreshes the toolbar readout with the current tempo and hit
// count. Must be called on the main Fyne thread.
func updateStatus(state *appState, hits []beat.Hit, bpm float64) {
	if state.statusLabel == nil {
		return
	}

	var text string
	switch {
	case len(hits) == 0:
		text = "listening"
	case bpm > 0:
		text = fmt.Sprintf("%d hits  %.1f BPM", len(hits), bpm)
	default:
		text = fmt.Sprintf("%d hits", len(hits))
	}

	if state.statusLabel.Text != text {
		state.statusLabel.SetText(text)
	}
}

// setStatusText sets the toolbar readout from any goroutine.
func setStatusText(state *appState, text string) {
	if state.statusLabel == nil {
		return
	}
	fyne.Do(func() {
		state.statusLabel.SetText(text)
	})
}
