package field

import (
	"io"

	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/decbot-sim/fieldsim/spatialmath"
)

// Trajectory is a labelled sequence of field points.
type Trajectory struct {
	Label  string
	Points []r2.Point
}

// PlotTrajectories draws each trajectory as a line over the waypoints and writes the plot as PNG.
func PlotTrajectories(w io.Writer, trajectories []Trajectory, waypoints []spatialmath.Pose) error {
	p := plot.New()
	p.Title.Text = "Trajectories"
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.X.Min, p.X.Max = 0, Units
	p.Y.Min, p.Y.Max = 0, Units
	p.Add(plotter.NewGrid())

	palette := colorful.FastHappyPalette(max(len(trajectories), 1))
	for i, tr := range trajectories {
		if len(tr.Points) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(tr.Points))
		for j, pt := range tr.Points {
			pts[j] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "trajectory %q", tr.Label)
		}
		line.Width = vg.Points(1)
		line.Color = palette[i]
		p.Add(line)
		if tr.Label != "" {
			p.Legend.Add(tr.Label, line)
		}
	}

	if len(waypoints) > 0 {
		pts := make(plotter.XYs, len(waypoints))
		for i, wp := range waypoints {
			pts[i] = plotter.XY{X: wp.X, Y: wp.Y}
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return errors.Wrap(err, "waypoints")
		}
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(3)
		scatter.GlyphStyle.Color = Pending
		p.Add(scatter)
		p.Legend.Add("waypoints", scatter)
	}

	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return errors.Wrap(err, "cannot render plot")
	}
	_, err = wt.WriteTo(w)
	return err
}
