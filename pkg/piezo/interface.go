package piezo

// Device defines the interface for piezo sensor devices (real or mocked).
// The sensor stream is one-way: the MCU only emits samples, there is no
// command channel back to it.
type Device interface {
	Connect() error
	Close() error
	Samples() <-chan RawSample
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
