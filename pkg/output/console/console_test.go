package console

import (
	"bytes"
	"testing"
	"time"

	"github.com/itohio/godrum/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsolePublish(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)

	start := time.Date(2025, 9, 19, 14, 41, 54, 0, time.UTC)
	require.NoError(t, c.Publish(sample.Sample{Timestamp: start, Level: 0.123}))
	require.NoError(t, c.Publish(sample.Sample{Timestamp: start.Add(1500 * time.Millisecond), Level: 0.8}))
	require.NoError(t, c.Publish(sample.Sample{Timestamp: start.Add(75 * time.Second), Level: 0.05}))

	want := "[00:00.00] : 0.123\n" +
		"[00:01.50] : 0.800\n" +
		"[01:15.00] : 0.050\n"
	assert.Equal(t, want, buf.String())
}

func TestConsoleClose(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleWriter(&buf)
	assert.NoError(t, c.Close())
}
