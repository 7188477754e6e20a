package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/godrum/pkg/config"
	"github.com/itohio/godrum/pkg/output"
	"github.com/itohio/godrum/pkg/output/console"
	"github.com/itohio/godrum/pkg/output/mqtt"
	"github.com/itohio/godrum/pkg/piezo"
	"github.com/itohio/godrum/pkg/sample"
)

// drumlog streams vibration levels from the sensor to stdout as timestamped
// lines, and optionally to an MQTT broker.
func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
		mqttFlag   = flag.Bool("mqtt", false, "Publish samples to the MQTT broker from the config")
		topicFlag  = flag.String("topic", "", "MQTT topic override")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *topicFlag != "" {
		cfg.MQTT.Topic = *topicFlag
	}

	// Build outputs: console always, MQTT when requested
	outputs := []output.Output{console.NewConsole()}
	if *mqttFlag {
		m, err := mqtt.NewMQTT(cfg.MQTT)
		if err != nil {
			log.Fatalf("Failed to connect to MQTT broker: %v", err)
		}
		outputs = append(outputs, m)
	}

	// Open the device
	var device piezo.Device
	if *mockFlag {
		device = piezo.NewMock(&cfg.Mock)
	} else {
		device = piezo.New(cfg.Serial.Port, cfg.Serial.BaudRate, piezo.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		log.Fatalf("Failed to connect to %s: %v", cfg.Serial.Port, err)
	}
	if *mockFlag {
		log.Println("Connected to mocked device")
	} else {
		log.Printf("Connected to serial port: %s", cfg.Serial.Port)
	}

	// Convert raw readings to normalized samples
	samplesStream := sample.NewConverter(cfg, 500)(device.Samples())

	// Publish until the stream ends
	done := make(chan struct{})
	go func() {
		defer close(done)
		for s := range samplesStream {
			for _, out := range outputs {
				if err := out.Publish(s); err != nil {
					log.Printf("Publish error: %v", err)
				}
			}
		}
	}()

	// Close the device on interrupt, which drains and closes the chain
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sig:
		log.Println("Shutting down")
		device.Close()
		<-done
	case <-done:
		// Device closed on its own (e.g. serial port disappeared)
	}

	for _, out := range outputs {
		if err := out.Close(); err != nil {
			log.Printf("Close error: %v", err)
		}
	}
}
