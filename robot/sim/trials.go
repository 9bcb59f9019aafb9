package sim

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/decbot-sim/fieldsim/config"
	"github.com/decbot-sim/fieldsim/field"
	"github.com/decbot-sim/fieldsim/logging"
	"github.com/decbot-sim/fieldsim/utils"
)

// DefaultTrialLimit is the simulated time after which a trial is abandoned.
const DefaultTrialLimit = 5 * time.Minute

// TrialResult is the outcome of one headless run.
type TrialResult struct {
	Run        int           `json:"run"`
	RunID      string        `json:"run_id"`
	Seed       int64         `json:"seed"`
	Completed  bool          `json:"completed"`
	Ticks      int64         `json:"ticks"`
	SimTime    time.Duration `json:"sim_time"`
	FinalError float64       `json:"final_error"`
	Trajectory []r2.Point    `json:"-"`
}

// TrialSummary aggregates completion time in seconds and final position error over completed runs.
type TrialSummary struct {
	Runs      int     `json:"runs"`
	Completed int     `json:"completed"`
	MeanTime  float64 `json:"mean_time"`
	P95Time   float64 `json:"p95_time"`
	MaxTime   float64 `json:"max_time"`
	MeanError float64 `json:"mean_error"`
	P95Error  float64 `json:"p95_error"`
	MaxError  float64 `json:"max_error"`
}

// TrialReport holds every result and their summary.
type TrialReport struct {
	Results []TrialResult `json:"results"`
	Summary TrialSummary  `json:"summary"`
}

// TrialSeed returns the noise seed of run i. A zero base seed numbers runs from 1 so that every
// trial stays reproducible.
func TrialSeed(base int64, i int) int64 {
	if base == 0 {
		return int64(i) + 1
	}
	return base + int64(i)
}

// RunTrials flies the configured mission n times with consecutive seeds and no wall-clock waiting.
// A non-positive limit selects DefaultTrialLimit.
func RunTrials(ctx context.Context, cfg config.Config, n int, limit time.Duration, logger logging.Logger) (*TrialReport, error) {
	if n <= 0 {
		return nil, errors.Errorf("trial count must be positive, got %d", n)
	}
	if limit <= 0 {
		limit = DefaultTrialLimit
	}
	waypoints, err := cfg.Waypoints()
	if err != nil {
		return nil, err
	}
	final := waypoints[len(waypoints)-1].Point()
	half := cfg.Calibration.HalfFootprint()

	defer utils.SlowLogger(ctx, clock.New(), "trials still running", "runs", n, logger)()

	report := &TrialReport{}
	for i := 0; i < n; i++ {
		trialCfg := cfg
		trialCfg.Seed = TrialSeed(cfg.Seed, i)
		trialCfg.StopWhenDone = true

		r, err := NewRunner(trialCfg, clock.NewMock(), logger.Sublogger(fmt.Sprintf("trial%d", i+1)))
		if err != nil {
			return nil, err
		}
		completed, err := r.RunFor(ctx, limit)
		if err != nil {
			return nil, err
		}
		pose := r.Base().Pose()
		result := TrialResult{
			Run:        i + 1,
			RunID:      r.RunID(),
			Seed:       trialCfg.Seed,
			Completed:  completed,
			Ticks:      r.Ticks(),
			SimTime:    r.Base().State().Elapsed,
			FinalError: math.Hypot(final.X-(pose.X+half), final.Y-(pose.Y+half)),
			Trajectory: r.Trail(),
		}
		logger.Debugw("trial finished", "run", result.Run, "seed", result.Seed, "completed", completed,
			"sim_time", result.SimTime, "final_error", result.FinalError)
		report.Results = append(report.Results, result)
	}
	report.Summary = summarize(report.Results)
	return report, nil
}

func summarize(results []TrialResult) TrialSummary {
	done := lo.Filter(results, func(r TrialResult, _ int) bool { return r.Completed })
	summary := TrialSummary{Runs: len(results), Completed: len(done)}
	if len(done) == 0 {
		return summary
	}
	times := stats.Float64Data(lo.Map(done, func(r TrialResult, _ int) float64 { return r.SimTime.Seconds() }))
	errs := stats.Float64Data(lo.Map(done, func(r TrialResult, _ int) float64 { return r.FinalError }))

	// the inputs are non-empty so stats cannot fail
	summary.MeanTime, _ = times.Mean()
	summary.P95Time, _ = times.Percentile(95)
	summary.MaxTime, _ = times.Max()
	summary.MeanError, _ = errs.Mean()
	summary.P95Error, _ = errs.Percentile(95)
	summary.MaxError, _ = errs.Max()
	return summary
}

// Trajectories returns the path of every run for plotting.
func (tr *TrialReport) Trajectories() []field.Trajectory {
	return lo.Map(tr.Results, func(r TrialResult, _ int) field.Trajectory {
		return field.Trajectory{Label: fmt.Sprintf("seed %d", r.Seed), Points: r.Trajectory}
	})
}

// Table renders the report for a terminal.
func (tr *TrialReport) Table() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Run", "Seed", "Completed", "Ticks", "Sim time", "Final error"})
	for _, r := range tr.Results {
		t.AppendRow(table.Row{
			r.Run, r.Seed, r.Completed, r.Ticks,
			fmt.Sprintf("%.2fs", r.SimTime.Seconds()), fmt.Sprintf("%.2f", r.FinalError),
		})
	}
	s := tr.Summary
	t.AppendFooter(table.Row{"", "", fmt.Sprintf("%d/%d", s.Completed, s.Runs), "",
		fmt.Sprintf("mean %.2fs p95 %.2fs max %.2fs", s.MeanTime, s.P95Time, s.MaxTime),
		fmt.Sprintf("mean %.2f max %.2f", s.MeanError, s.MaxError)})
	return t.Render()
}
