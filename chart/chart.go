// Package chart renders production profiles as PNG images: a per-month
// page with the full hourly trace plus the average daily shape, and an
// overlay that compares the daily shapes of several months or runs.
package chart

import (
	"fmt"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/pvtools/pvprofiler/pvmodel"
)

// hourTicks places a labelled tick on every hour of the day.
type hourTicks struct{}

func (hourTicks) Ticks(min, max float64) []plot.Tick {
	ticks := make([]plot.Tick, 0, 24)
	for h := 0; h < 24; h++ {
		v := float64(h)
		if v < min || v > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%02d", h)})
	}
	return ticks
}

// monthTrace plots the full month of AC power against elapsed hours.
func monthTrace(result pvmodel.Result, title string) (*plot.Plot, error) {
	pts := make(plotter.XYs, len(result.Times))
	for i := range result.Times {
		pts[i].X = float64(i)
		pts[i].Y = result.ACPower[i]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Hour of Month"
	p.Y.Label.Text = "AC Power (W)"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build month trace: %w", err)
	}
	p.Add(line)
	return p, nil
}

// profileTrace plots one average daily shape on an hour-of-day axis.
func profileTrace(profile [24]float64, title string) (*plot.Plot, error) {
	pts := make(plotter.XYs, 24)
	for h := 0; h < 24; h++ {
		pts[h].X = float64(h)
		pts[h].Y = profile[h]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Hour of Day"
	p.Y.Label.Text = "AC Power (W)"
	p.X.Tick.Marker = hourTicks{}
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build profile trace: %w", err)
	}
	p.Add(line)
	return p, nil
}

// SaveMonthPNG writes a two-panel PNG for one simulated month: the full
// hourly trace on top, the average daily profile below.
func SaveMonthPNG(path, monthName string, result pvmodel.Result) error {
	const rows, cols = 2, 1

	trace, err := monthTrace(result, fmt.Sprintf("%s - AC Power", monthName))
	if err != nil {
		return err
	}
	profile, err := profileTrace(result.AverageDailyProfile(),
		fmt.Sprintf("%s - Average Daily Profile", monthName))
	if err != nil {
		return err
	}

	plots := make([][]*plot.Plot, rows)
	plots[0] = []*plot.Plot{trace}
	plots[1] = []*plot.Plot{profile}

	img := vgimg.New(vg.Points(600), vg.Points(rows*300))
	dc := draw.New(img)
	canvases := plot.Align(plots, draw.Tiles{Rows: rows, Cols: cols}, dc)

	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			if plots[j][i] != nil {
				plots[j][i].Draw(canvases[j][i])
			}
		}
	}

	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	defer w.Close()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write PNG: %w", err)
	}
	return nil
}

// NamedProfile is one average daily shape in an overlay. Dashed profiles
// are drawn with a dashed stroke so two runs can be told apart.
type NamedProfile struct {
	Name    string
	Profile [24]float64
	Dashed  bool
}

// SaveOverlayPNG writes a single plot comparing several daily profiles,
// one line per entry, with a legend.
func SaveOverlayPNG(path, title string, profiles []NamedProfile) error {
	if len(profiles) == 0 {
		return fmt.Errorf("no profiles to overlay")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Hour of Day"
	p.Y.Label.Text = "AC Power (W)"
	p.X.Tick.Marker = hourTicks{}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	for i, np := range profiles {
		pts := make(plotter.XYs, 24)
		for h := 0; h < 24; h++ {
			pts[h].X = float64(h)
			pts[h].Y = np.Profile[h]
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("failed to build overlay line %q: %w", np.Name, err)
		}
		line.Color = plotutil.Color(i)
		if np.Dashed {
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		}
		p.Add(line)
		p.Legend.Add(np.Name, line)
	}

	if err := p.Save(30*vg.Centimeter, 20*vg.Centimeter, path); err != nil {
		return fmt.Errorf("failed to save overlay: %w", err)
	}
	return nil
}
