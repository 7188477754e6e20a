//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	LOOP_DELAY_MS = 10 // Delay between samples in milliseconds (~100 samples/sec)

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 10   // ADC resolution in bits (10-bit = 0-1023)

	// Piezo sensor pin
	PIN_PIEZO = machine.A0

	// Serial configuration
	// Baud rate calculation: each line is one decimal sample plus newline
	// Worst case "1023\n" = 5 bytes per line
	// 100 lines/sec * 5 bytes/line = 500 bytes/sec
	// UART 8N1: 10 bits/byte = 5,000 baud minimum
	// 9600 provides ~1.9x headroom (960 bytes/sec max / 500 bytes/sec required)
	// and matches the rate the host-side tools open the port at.
	UART_BAUD_RATE = 9600

	// STARTUP_BANNER is emitted once before the sample stream. It must stay
	// non-numeric so a consumer can tell it apart from data lines.
	STARTUP_BANNER = "piezo vibration sensor ready"
)
