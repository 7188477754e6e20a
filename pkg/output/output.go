package output

import "github.com/itohio/godrum/pkg/sample"

// Output publishes processed vibration samples to a sink.
type Output interface {
	Publish(s sample.Sample) error
	Close() error
}

// constructors live in the console and mqtt subpackages
