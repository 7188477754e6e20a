package scope

import (
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/chewxy/math32"
	"github.com/itohio/godrum/pkg/beat"
	"github.com/itohio/godrum/pkg/sample"
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	// Background
	grid *canvas.Rectangle

	// Lines for the raw trace and the envelope
	sampleLine   *canvas.Line
	envelopeLine *canvas.Line

	// Hit markers (vertical lines)
	hitLines []*canvas.Line

	// Peak labels
	peakLabels []*canvas.Text

	// Tempo readout
	bpmLabel *canvas.Text

	// Grid lines
	gridLines []*canvas.Line
	gridTexts []*canvas.Text

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	// Background fills entire widget
	r.grid.Resize(size)

	// Check if size changed
	if r.lastSize.Width != size.Width || r.lastSize.Height != size.Height {
		r.lastSize = size
		// Size changed, trigger widget refresh to redraw with new dimensions
		// Use BaseWidget.Refresh() to properly trigger Fyne's refresh cycle
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh updates the widget display.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	envelope := r.scope.displayEnvelope
	hits := r.scope.hits
	bpm := r.scope.bpm
	yMin := r.scope.yMin
	yMax := r.scope.yMax
	xMin := r.scope.xMin
	xMax := r.scope.xMax
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	// Clear old objects (but keep grid)
	r.objects = []fyne.CanvasObject{r.grid}
	r.gridLines = r.gridLines[:0]
	r.gridTexts = r.gridTexts[:0]
	r.hitLines = r.hitLines[:0]
	r.peakLabels = r.peakLabels[:0]
	r.bpmLabel = nil

	// Calculate margins
	marginLeft := float32(60.0)
	marginRight := float32(20.0)
	marginTop := float32(20.0)
	marginBottom := float32(40.0)

	plotWidth := size.Width - marginLeft - marginRight
	plotHeight := size.Height - marginTop - marginBottom
	plotX := marginLeft
	plotY := marginTop

	// Draw grid
	r.drawGrid(plotX, plotY, plotWidth, plotHeight, yMin, yMax, xMin, xMax)

	// Draw raw vibration trace (orange line)
	if len(samples) > 1 {
		r.drawSampleLine(plotX, plotY, plotWidth, plotHeight, samples, yMin, yMax, xMin, xMax)
	}

	// Draw envelope (light blue, thicker line)
	if len(envelope) > 0 && len(samples) > 1 {
		r.drawEnvelopeLine(plotX, plotY, plotWidth, plotHeight, envelope, samples, yMin, yMax, xMin, xMax)
	}

	// Draw hits (dark blue vertical lines)
	r.drawHits(plotX, plotY, plotWidth, plotHeight, hits, samples, xMin, xMax)

	// Draw peak labels
	r.drawPeakLabels(plotX, plotY, plotWidth, plotHeight, hits, samples, yMin, yMax, xMin, xMax)

	// Draw tempo readout
	if bpm > 0 {
		r.drawBPM(plotX, plotY, bpm)
	}
}

// drawGrid draws the oscilloscope-style grid.
func (r *scopeRenderer) drawGrid(plotX, plotY, plotWidth, plotHeight float32, yMin, yMax float64, xMin, xMax time.Time) {
	// Horizontal grid lines (level)
	numHLines := 8
	for i := 0; i < numHLines+1; i++ {
		y := plotY + float32(i)*plotHeight/float32(numHLines)
		line := canvas.NewLine(color.RGBA{R: 40, G: 40, B: 40, A: 255})
		line.Position1 = fyne.NewPos(plotX, y)
		line.Position2 = fyne.NewPos(plotX+plotWidth, y)
		line.StrokeWidth = 1
		r.gridLines = append(r.gridLines, line)
		r.objects = append(r.objects, line)

		// Y-axis label
		value := yMax - float64(i)*(yMax-yMin)/float64(numHLines)
		text := canvas.NewText(formatLevel(value), color.RGBA{R: 150, G: 150, B: 150, A: 255})
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(plotX-5, y-6))
		r.gridTexts = append(r.gridTexts, text)
		r.objects = append(r.objects, text)
	}

	// Vertical grid lines (time)
	numVLines := 10
	for i := 0; i < numVLines+1; i++ {
		x := plotX + float32(i)*plotWidth/float32(numVLines)
		line := canvas.NewLine(color.RGBA{R: 40, G: 40, B: 40, A: 255})
		line.Position1 = fyne.NewPos(x, plotY)
		line.Position2 = fyne.NewPos(x, plotY+plotHeight)
		line.StrokeWidth = 1
		r.gridLines = append(r.gridLines, line)
		r.objects = append(r.objects, line)

		// X-axis label
		timeOffset := float64(i) * xMax.Sub(xMin).Seconds() / float64(numVLines)
		timeVal := xMin.Add(time.Duration(timeOffset * float64(time.Second)))
		text := canvas.NewText(formatTime(timeVal.Sub(xMin)), color.RGBA{R: 150, G: 150, B: 150, A: 255})
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, plotY+plotHeight+5))
		r.gridTexts = append(r.gridTexts, text)
		r.objects = append(r.objects, text)
	}
}

// drawSampleLine draws the raw vibration trace (orange).
func (r *scopeRenderer) drawSampleLine(plotX, plotY, plotWidth, plotHeight float32, samples []sample.Sample, yMin, yMax float64, xMin, xMax time.Time) {
	if len(samples) < 2 {
		return
	}

	points := make([]fyne.Position, 0, len(samples))
	for _, s := range samples {
		x := plotX + float32(s.Timestamp.Sub(xMin).Seconds()/xMax.Sub(xMin).Seconds())*plotWidth
		y := plotY + plotHeight - float32((s.Level-yMin)/(yMax-yMin))*plotHeight
		points = append(points, fyne.NewPos(x, y))
	}

	// Draw connected line segments
	for i := 0; i < len(points)-1; i++ {
		line := canvas.NewLine(color.RGBA{R: 255, G: 165, B: 0, A: 255}) // Orange
		line.Position1 = points[i]
		line.Position2 = points[i+1]
		line.StrokeWidth = 1.5
		r.objects = append(r.objects, line)
	}
}

// drawEnvelopeLine draws the peak-follower envelope (light blue, thicker).
func (r *scopeRenderer) drawEnvelopeLine(plotX, plotY, plotWidth, plotHeight float32, envelope []float64, samples []sample.Sample, yMin, yMax float64, xMin, xMax time.Time) {
	if len(envelope) == 0 || len(samples) < 2 {
		return
	}

	// Envelope values correspond 1:1 with samples, so use sample timestamps
	points := make([]fyne.Position, 0, len(envelope))
	for i, env := range envelope {
		if i >= len(samples) {
			break
		}
		x := plotX + float32(samples[i].Timestamp.Sub(xMin).Seconds()/xMax.Sub(xMin).Seconds())*plotWidth
		y := plotY + plotHeight - float32((env-yMin)/(yMax-yMin))*plotHeight
		points = append(points, fyne.NewPos(x, y))
	}

	// Draw connected line segments
	for i := 0; i < len(points)-1; i++ {
		line := canvas.NewLine(color.RGBA{R: 100, G: 200, B: 255, A: 255}) // Light blue
		line.Position1 = points[i]
		line.Position2 = points[i+1]
		line.StrokeWidth = 2.5
		r.objects = append(r.objects, line)
	}
}

// drawHits draws vertical lines for detected hits (dark blue).
func (r *scopeRenderer) drawHits(plotX, plotY, plotWidth, plotHeight float32, hits []beat.Hit, samples []sample.Sample, xMin, xMax time.Time) {
	if len(samples) == 0 {
		return
	}

	for _, hit := range hits {
		// Indices refer to the full buffer, use the hit's own timestamps
		if hit.StartTime.Before(xMin) || hit.StartTime.After(xMax) {
			continue
		}

		xStart := plotX + float32(hit.StartTime.Sub(xMin).Seconds()/xMax.Sub(xMin).Seconds())*plotWidth
		lineStart := canvas.NewLine(color.RGBA{R: 0, G: 100, B: 200, A: 255}) // Dark blue
		lineStart.Position1 = fyne.NewPos(xStart, plotY)
		lineStart.Position2 = fyne.NewPos(xStart, plotY+plotHeight)
		lineStart.StrokeWidth = 1
		r.hitLines = append(r.hitLines, lineStart)
		r.objects = append(r.objects, lineStart)
	}
}

// drawPeakLabels draws peak level labels over each detected hit.
func (r *scopeRenderer) drawPeakLabels(plotX, plotY, plotWidth, plotHeight float32, hits []beat.Hit, samples []sample.Sample, yMin, yMax float64, xMin, xMax time.Time) {
	if len(samples) == 0 {
		return
	}

	for _, hit := range hits {
		if hit.StartTime.Before(xMin) || hit.StartTime.After(xMax) {
			continue
		}

		centerTime := hit.StartTime.Add(hit.EndTime.Sub(hit.StartTime) / 2)
		x := plotX + float32(centerTime.Sub(xMin).Seconds()/xMax.Sub(xMin).Seconds())*plotWidth
		y := plotY + plotHeight - float32((hit.Peak-yMin)/(yMax-yMin))*plotHeight - 15

		text := canvas.NewText(formatLevel(hit.Peak), color.RGBA{R: 255, G: 165, B: 0, A: 255}) // Orange
		text.TextSize = 12
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-30, y))
		r.peakLabels = append(r.peakLabels, text)
		r.objects = append(r.objects, text)
	}
}

// drawBPM draws the tempo readout in the top-left corner of the plot.
func (r *scopeRenderer) drawBPM(plotX, plotY float32, bpm float64) {
	text := canvas.NewText(formatBPM(bpm), color.RGBA{R: 200, G: 200, B: 200, A: 255}) // Light gray
	text.TextSize = 11
	text.Alignment = fyne.TextAlignLeading
	text.Move(fyne.NewPos(plotX+10, plotY+10))
	r.bpmLabel = text
	r.objects = append(r.objects, text)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {
	// Cleanup handled by Fyne
}

// Helper functions for formatting

func formatLevel(v float64) string {
	if math32.Abs(float32(v)) < 0.001 {
		return "0.000"
	}
	return formatFloat(float32(v), 3)
}

func formatTime(d time.Duration) string {
	if d < time.Second {
		return formatFloat(float32(d.Seconds()), 2) + "s"
	}
	return formatFloat(float32(d.Seconds()), 1) + "s"
}

func formatBPM(bpm float64) string {
	return formatFloat(float32(bpm), 1) + " BPM"
}

func formatFloat(v float32, decimals int) string {
	str := ""
	if v < 0 {
		str = "-"
		v = -v
	}
	intPart := int64(v)
	str += formatInt(intPart)
	if decimals > 0 {
		frac := v - float32(intPart)
		fracStr := formatInt(int64(math32.Round(frac * math32.Pow(10, float32(decimals)))))
		// Pad with zeros
		for len(fracStr) < decimals {
			fracStr = "0" + fracStr
		}
		str += "." + fracStr
	}
	return str
}

func formatInt(v int64) string {
	if v == 0 {
		return "0"
	}
	str := ""
	neg := v < 0
	if neg {
		v = -v
	}
	for v > 0 {
		str = string(rune('0'+v%10)) + str
		v /= 10
	}
	if neg {
		str = "-" + str
	}
	return str
}
