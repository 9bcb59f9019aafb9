// Package cli contains the fieldsim command line.
package cli

import (
	"io"
	"time"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	generalFlagConfig = "config"
	generalFlagDebug  = "debug"

	runFlagAddress      = "address"
	runFlagSeed         = "seed"
	runFlagStopWhenDone = "stop-when-done"
	runFlagConsole      = "console"
	runFlagSnapshot     = "snapshot"

	trialFlagRuns  = "runs"
	trialFlagLimit = "limit"
	trialFlagPlot  = "plot"
	trialFlagJSON  = "json"

	renderFlagOut  = "out"
	renderFlagPose = "pose"
)

var app = &cli.App{
	Name:            "fieldsim",
	Usage:           "simulate a mecanum robot flying a waypoint mission",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.PathFlag{
			Name:    generalFlagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Commands: []*cli.Command{
		{
			Name:  "run",
			Usage: "run the mission in real time",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  runFlagAddress,
					Usage: "serve the read-only observer on `ADDRESS`, overriding the config",
				},
				&cli.Int64Flag{
					Name:  runFlagSeed,
					Usage: "noise seed, overriding the config",
				},
				&cli.BoolFlag{
					Name:  runFlagStopWhenDone,
					Usage: "exit once the mission is done",
				},
				&cli.DurationFlag{
					Name:  runFlagConsole,
					Usage: "print the telemetry console every `INTERVAL` of simulated time",
				},
				&cli.PathFlag{
					Name:  runFlagSnapshot,
					Usage: "write the final field image to `FILE`",
				},
			},
			Action: RunAction,
		},
		{
			Name:  "trial",
			Usage: "fly the mission repeatedly without waiting and report statistics",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  trialFlagRuns,
					Value: 10,
					Usage: "number of runs",
				},
				&cli.DurationFlag{
					Name:  trialFlagLimit,
					Value: 5 * time.Minute,
					Usage: "simulated time after which a run is abandoned",
				},
				&cli.PathFlag{
					Name:  trialFlagPlot,
					Usage: "plot every trajectory to `FILE` as PNG",
				},
				&cli.BoolFlag{
					Name:  trialFlagJSON,
					Usage: "print the report as JSON",
				},
			},
			Action: TrialAction,
		},
		{
			Name:  "render",
			Usage: "draw the field with the mission waypoints",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     renderFlagOut,
					Required: true,
					Usage:    "write the image to `FILE`",
				},
				&cli.StringFlag{
					Name:  renderFlagPose,
					Usage: "place the robot at the named field pose instead of the first waypoint",
				},
			},
			Action: RenderAction,
		},
		{
			Name:   "poses",
			Usage:  "list the named field poses",
			Action: PosesAction,
		},
		{
			Name:   "mixing",
			Usage:  "print the wheel mixing matrices for the configured calibration",
			Action: MixingAction,
		},
		{
			Name:   "schema",
			Usage:  "print the JSON schema of the config file",
			Action: SchemaAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
