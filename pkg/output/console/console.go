package console

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/itohio/godrum/pkg/output"
	"github.com/itohio/godrum/pkg/sample"
)

// ConsoleOutput writes samples as timestamped lines. Timestamps are relative
// to the first published sample, formatted as [MM:SS.cc].
type ConsoleOutput struct {
	w     io.Writer
	start time.Time
}

func NewConsole() output.Output { return NewConsoleWriter(os.Stdout) }

// NewConsoleWriter returns a console output writing to w.
func NewConsoleWriter(w io.Writer) output.Output { return &ConsoleOutput{w: w} }

func (c *ConsoleOutput) Publish(s sample.Sample) error {
	if c.start.IsZero() {
		c.start = s.Timestamp
	}
	elapsed := s.Timestamp.Sub(c.start)
	minutes := int(elapsed.Minutes())
	seconds := elapsed.Seconds() - float64(minutes)*60
	_, err := fmt.Fprintf(c.w, "[%02d:%05.2f] : %.3f\n", minutes, seconds, s.Level)
	return err
}

func (c *ConsoleOutput) Close() error { return nil }
