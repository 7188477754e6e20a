//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"
)

var (
	adcPiezo machine.ADC
	uart     = machine.UART0
)

func main() {
	// Configure the piezo ADC pin
	PIN_PIEZO.Configure(machine.PinConfig{Mode: machine.PinInput})

	adcPiezo = machine.ADC{Pin: PIN_PIEZO}
	adcPiezo.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	// Configure UART for sample output
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	println(STARTUP_BANNER)

	// Main loop: one sample per line, forever. No buffering, no filtering,
	// no exit condition - the only way out is reset or power off.
	for {
		value := readPiezo()
		println(value)
		time.Sleep(LOOP_DELAY_MS * time.Millisecond)
	}
}

// readPiezo reads the piezo channel and scales it to the 10-bit range 0-1023.
// machine.ADC.Get returns a left-aligned 16-bit value regardless of the
// configured resolution, so drop the low 6 bits.
func readPiezo() uint16 {
	return adcPiezo.Get() >> 6
}
