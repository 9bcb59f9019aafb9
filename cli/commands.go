package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"

	"github.com/decbot-sim/fieldsim/components/base/mecanum"
	"github.com/decbot-sim/fieldsim/config"
	"github.com/decbot-sim/fieldsim/field"
	"github.com/decbot-sim/fieldsim/logging"
	"github.com/decbot-sim/fieldsim/robot/sim"
	"github.com/decbot-sim/fieldsim/web/server"
)

func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// newLogger builds the command logger. Debug wins over the configured level.
func newLogger(c *cli.Context, cfg *config.Config) logging.Logger {
	logger := logging.NewLogger("fieldsim")
	switch {
	case c.Bool(generalFlagDebug):
		logger.SetLevel(logging.DEBUG)
	case cfg != nil:
		logger.SetLevel(cfg.LogLevel)
	}
	return logger
}

// loadConfig reads the --config file, or returns the defaults without one.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.Path(generalFlagConfig)
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	cfg, err := config.Read(path, newLogger(c, nil))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load config %q", path)
	}
	return cfg, nil
}

// RunAction is the corresponding Action for 'run'.
func RunAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet(runFlagAddress) {
		cfg.Web.Address = c.String(runFlagAddress)
	}
	if c.IsSet(runFlagSeed) {
		cfg.Seed = c.Int64(runFlagSeed)
	}
	if c.Bool(runFlagStopWhenDone) {
		cfg.StopWhenDone = true
	}
	logger := newLogger(c, cfg)
	defer func() {
		//nolint:errcheck
		logger.Sync()
	}()

	runner, err := sim.NewRunner(*cfg, nil, logger.Sublogger("runner"))
	if err != nil {
		return err
	}

	if interval := c.Duration(runFlagConsole); interval > 0 {
		every := max(int64(interval.Seconds()/cfg.DT), 1)
		console := runner.Console()
		runner.AddObserver(func(snap sim.Snapshot) {
			if snap.Tick%every == 0 {
				printf(c.App.Writer, "%s", console.Table())
			}
		})
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	if cfg.Web.Address != "" {
		srv := server.New(runner, logger.Sublogger("web"))
		if err := srv.Start(ctx, cfg.Web.Address); err != nil {
			return err
		}
		defer srv.Close()
		printf(c.App.Writer, "observing on http://%s", srv.Addr().String())
	}

	runErr := runner.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	snap := runner.Snapshot()
	printf(c.App.Writer, "run %s: %s after %d ticks, %d arrivals", snap.RunID, snap.Mission, snap.Tick, snap.Arrivals)
	printf(c.App.Writer, "%s", runner.Console().String())

	if out := c.Path(runFlagSnapshot); out != "" {
		runErr = multierr.Combine(runErr, writeFile(out, func(f *os.File) error {
			return field.WritePNG(f, runner.Scene())
		}))
	}
	return runErr
}

// TrialAction is the corresponding Action for 'trial'.
func TrialAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger := newLogger(c, cfg)

	start := time.Now()
	report, err := sim.RunTrials(c.Context, *cfg, c.Int(trialFlagRuns), c.Duration(trialFlagLimit), logger.Sublogger("trials"))
	if err != nil {
		return err
	}
	logger.Debugw("trials finished", "runs", len(report.Results), "wall_time", time.Since(start))

	if c.Bool(trialFlagJSON) {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		printf(c.App.Writer, "%s", data)
	} else {
		printf(c.App.Writer, "%s", report.Table())
	}

	if out := c.Path(trialFlagPlot); out != "" {
		waypoints, err := cfg.Waypoints()
		if err != nil {
			return err
		}
		return writeFile(out, func(f *os.File) error {
			return field.PlotTrajectories(f, report.Trajectories(), waypoints)
		})
	}
	return nil
}

// RenderAction is the corresponding Action for 'render'.
func RenderAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	waypoints, err := cfg.Waypoints()
	if err != nil {
		return err
	}
	robot := waypoints[0]
	if name := c.String(renderFlagPose); name != "" {
		pose, ok := field.Lookup(name)
		if !ok {
			return errors.Errorf("unknown field pose %q", name)
		}
		robot = pose
	}

	board := field.NewMarkerBoard()
	for _, wp := range waypoints {
		board.MarkPose(wp, field.Pending)
	}
	scene := field.Scene{
		Robot:     robot,
		Footprint: cfg.Calibration.Footprint,
		Marks:     board.Marks(),
	}
	out := c.Path(renderFlagOut)
	if err := writeFile(out, func(f *os.File) error { return field.WritePNG(f, scene) }); err != nil {
		return err
	}
	printf(c.App.Writer, "wrote %s", out)
	return nil
}

// PosesAction is the corresponding Action for 'poses'.
func PosesAction(c *cli.Context) error {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Name", "X", "Y", "Heading"})
	for _, p := range field.All() {
		t.AppendRow(table.Row{p.Name, p.Pose.X, p.Pose.Y, fmt.Sprintf("%.0f°", p.Pose.HeadingDegrees())})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

// MixingAction is the corresponding Action for 'mixing'.
func MixingAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	forward := mecanum.ForwardMatrix(cfg.Calibration)
	pinv, err := mecanum.PseudoInverse(cfg.Calibration)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "forward (wheels fl fr bl br -> forward lateral angular):\n%v\n",
		mat.Formatted(forward, mat.Squeeze()))
	printf(c.App.Writer, "inverse (forward lateral angular -> wheels fl fr bl br):\n%.4v",
		mat.Formatted(pinv, mat.Squeeze()))
	return nil
}

// SchemaAction is the corresponding Action for 'schema'.
func SchemaAction(c *cli.Context) error {
	data, err := json.MarshalIndent(config.Schema(), "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", data)
	return nil
}

func writeFile(path string, write func(f *os.File) error) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create %q", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return write(f)
}
