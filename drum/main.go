package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/godrum/pkg/beat"
	"github.com/itohio/godrum/pkg/config"
	"github.com/itohio/godrum/pkg/piezo"
	"github.com/itohio/godrum/pkg/sample"
	"github.com/itohio/godrum/pkg/scope"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use mocked device instead of serial port")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of samples to average (0 = disabled, overrides config)")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	// Override average samples if provided via command line
	if *averageSamplesFlag >= 0 {
		cfg.Sensor.AverageSamples = *averageSamplesFlag
	}

	// Create Fyne application
	application := app.NewWithID("com.itohio.godrum")

	// Create main window
	window := application.NewWindow("Drum Vibration Monitor")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	// Create beat tracker
	tracker := beat.New(cfg)

	// Create application state
	appState := &appState{
		cfg:     cfg,
		device:  nil,
		tracker: tracker,
		window:  window,
		useMock: *mockFlag,
	}

	// Create toolbar
	toolbar := createToolbar(appState)

	// Create scope widget for graph display
	scopeWidget := scope.New(cfg)
	appState.scopeWidget = scopeWidget

	// Create border layout with toolbar at top and scope widget as content
	container := container.NewBorder(
		toolbar,
		nil,
		nil,
		nil,
		scopeWidget,
	)

	window.SetContent(container)
	window.ShowAndRun()
}

// measurementChain tracks the components of the measurement chain for graceful shutdown.
type measurementChain struct {
	device           piezo.Device
	rawSamples       <-chan piezo.RawSample
	samplesStream    <-chan sample.Sample
	trackerGoroutine chan struct{} // Closed when tracker goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	device      piezo.Device
	tracker     *beat.Tracker
	scopeWidget *scope.ScopeWidget
	window      fyne.Window
	connectBtn  *widget.Button
	statusLabel *widget.Label
	useMock     bool
	chain       *measurementChain // Current measurement chain (nil if not connected)

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the application toolbar with Connect and Settings buttons
// and a tempo readout on the right.
func createToolbar(state *appState) fyne.CanvasObject {
	// Connect button with icon
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	// Settings button with icon
	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	// Tempo and hit readout, updated from the tracker callback
	statusLabel := widget.NewLabel("not connected")
	state.statusLabel = statusLabel

	// Create toolbar with buttons on left and status aligned to the right
	return container.NewBorder(
		nil, // top
		nil, // bottom
		container.NewHBox(connectBtn, settingsBtn), // left
		statusLabel, // right
		nil,         // center (spacer)
	)
}

// closeMeasurementChain gracefully closes the measurement chain.
// Waits for all goroutines to finish and channels to drain.
func closeMeasurementChain(chain *measurementChain) {
	if chain == nil {
		return
	}

	// Close device - this will close the rawSamples channel
	if chain.device != nil {
		chain.device.Close()
	}

	// Wait for tracker goroutine to finish
	// The tracker goroutine will exit when samplesStream closes
	// The samplesStream will close when converters finish draining
	if chain.trackerGoroutine != nil {
		<-chain.trackerGoroutine
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		// Disconnect - gracefully close measurement chain
		closeMeasurementChain(state.chain)
		state.chain = nil
		state.device = nil
		setStatusText(state, "not connected")
		if state.useMock {
			fmt.Println("Disconnected from mocked device")
		} else {
			fmt.Println("Disconnected from serial port")
		}
	} else {
		// Connect
		var device piezo.Device
		if state.useMock {
			device = piezo.NewMock(&state.cfg.Mock)
			fmt.Println("Using mocked device")
		} else {
			device = piezo.New(state.cfg.Serial.Port, piezo.DefaultBaudRate, piezo.DefaultBufferSize)
		}

		if err := device.Connect(); err != nil {
			if state.useMock {
				dialog.ShowError(fmt.Errorf("failed to connect to mocked device: %w", err), state.window)
			} else {
				dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
			}
			return
		}
		state.device = device
		if state.useMock {
			fmt.Printf("Connected to mocked device\n")
		} else {
			fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
		}
		setStatusText(state, "listening")

		// Reset tracker shutdown flag for new chain
		state.tracker.ResetShutdown()

		// Register callback with beat tracker to update scope widget
		// This must be done before starting the measurement chain
		// Throttle updates to ~60 FPS (16.67ms between updates) to ensure smooth UI
		const updateInterval = 16 * time.Millisecond // ~60 FPS
		state.tracker.OnUpdate(func(samples []sample.Sample, envelope []float64, hits []beat.Hit, bpm float64) {
			// Throttle updates to prevent UI from being overwhelmed
			state.updateMu.Lock()
			now := time.Now()
			timeSinceLastUpdate := now.Sub(state.lastUpdateTime)
			state.updateMu.Unlock()

			// Skip update if too soon since last update
			if timeSinceLastUpdate < updateInterval {
				return
			}

			// Update timestamp
			state.updateMu.Lock()
			state.lastUpdateTime = now
			state.updateMu.Unlock()

			// Update scope widget and status on main thread
			// Scope widget handles downsampling internally, so pass full data
			fyne.Do(func() {
				state.scopeWidget.UpdateData(samples, envelope, hits, bpm)
				updateStatus(state, hits, bpm)
			})
		})

		// Chain converters: base converter always used, averaging converter conditionally
		// If average_samples is 0, skip averaging; if > 0, chain averaging converter
		// Increase buffer size to prevent channel full errors
		rawSamples := device.Samples()
		baseStream := sample.NewConverter(state.cfg, 500)(rawSamples)

		var samplesStream <-chan sample.Sample
		if state.cfg.Sensor.AverageSamples > 0 {
			// Chain averaging converter when enabled (for already-converted samples)
			samplesStream = sample.NewAveragingConverterForSamples(state.cfg.Sensor.AverageSamples, 500)(baseStream)
		} else {
			// No averaging, use base stream directly
			samplesStream = baseStream
		}

		// Process samples through beat tracker (starts measurement automatically)
		trackerDone := make(chan struct{})
		go func() {
			defer close(trackerDone)
			state.tracker.ProcessSamples(samplesStream)
		}()

		// Store chain for graceful shutdown
		state.chain = &measurementChain{
			device:           device,
			rawSamples:       rawSamples,
			samplesStream:    samplesStream,
			trackerGoroutine: trackerDone,
		}
	}
}
