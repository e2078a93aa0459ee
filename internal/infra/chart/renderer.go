// internal/infra/chart/renderer.go
package chart

import (
	"fmt"
	"math"
	"os"
	"time"

	"deadline_bot/internal/domain/progress"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

const (
	defaultWidth  = 6.4 * vg.Inch
	defaultHeight = 4.8 * vg.Inch
)

// Renderer draws the progress chart into a temporary PNG file.
type Renderer struct {
	dir    string
	width  vg.Length
	height vg.Length
}

// NewRenderer returns a renderer writing into dir. An empty dir means os.TempDir().
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir, width: defaultWidth, height: defaultHeight}
}

// Render writes the chart to a new temporary file and returns its path.
// The caller owns the file and must remove it. On error no file is left behind.
func (r *Renderer) Render(record progress.Record, goal progress.Goal, today time.Time) (string, error) {
	p, err := NewPlot(record, goal, today)
	if err != nil {
		return "", err
	}

	w, err := p.WriterTo(r.width, r.height, "png")
	if err != nil {
		return "", fmt.Errorf("failed to prepare chart canvas: %w", err)
	}

	f, err := os.CreateTemp(r.dir, "progress-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create chart file: %w", err)
	}
	path := f.Name()

	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write chart file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close chart file: %w", err)
	}

	return path, nil
}

// NewPlot builds the chart: the pace needed from the start, the pace needed from today,
// and the recorded series. The y axis always starts at zero.
func NewPlot(record progress.Record, goal progress.Goal, today time.Time) (*plot.Plot, error) {
	if len(record.Entries) == 0 {
		return nil, fmt.Errorf("cannot plot an empty record: %w", progress.ErrDataUnavailable)
	}

	start := record.Start()
	current := record.Current()
	deadlineX := unix(goal.Deadline)
	goalY := float64(goal.Pages)

	p := plot.New()
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Pages"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02", Time: plot.UTCUnixTime}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
	p.Legend.Top = true
	p.Legend.Left = true

	p.Add(plotter.NewGrid())

	fromStart, err := plotter.NewLine(plotter.XYs{
		{X: unix(start.Date), Y: float64(start.Pages)},
		{X: deadlineX, Y: goalY},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build start pace line: %w", err)
	}
	fromStart.LineStyle.Color = plotutil.Color(0)
	fromStart.LineStyle.Width = vg.Points(1.5)
	fromStart.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}

	fromToday, err := plotter.NewLine(plotter.XYs{
		{X: unix(today), Y: float64(current.Pages)},
		{X: deadlineX, Y: goalY},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build today pace line: %w", err)
	}
	fromToday.LineStyle.Color = plotutil.Color(1)
	fromToday.LineStyle.Width = vg.Points(1.5)
	fromToday.LineStyle.Dashes = []vg.Length{vg.Points(1.5), vg.Points(2.5)}

	data := make(plotter.XYs, len(record.Entries))
	for i, e := range record.Entries {
		data[i].X = unix(e.Date)
		data[i].Y = float64(e.Pages)
	}
	recorded, err := plotter.NewLine(data)
	if err != nil {
		return nil, fmt.Errorf("failed to build data line: %w", err)
	}
	recorded.LineStyle.Color = plotutil.Color(2)
	recorded.LineStyle.Width = vg.Points(1.5)

	p.Add(fromStart, fromToday, recorded)
	p.Legend.Add("From start", fromStart)
	p.Legend.Add("From today", fromToday)
	p.Legend.Add("Data", recorded)

	// Add has grown the axes to the data; only now is the upper bound known.
	p.Y.Min = 0
	if p.Y.Max <= 0 {
		p.Y.Max = 1
	}

	return p, nil
}

func unix(t time.Time) float64 {
	return float64(progress.DateOf(t).Unix())
}
