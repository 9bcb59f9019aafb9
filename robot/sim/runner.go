// Package sim hosts a simulated robot: it wires the base, follower and mission together from a
// config and drives them on a clock, either in real time or as fast as possible.
package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"go.uber.org/atomic"

	basesim "github.com/decbot-sim/fieldsim/components/base/sim"
	"github.com/decbot-sim/fieldsim/config"
	"github.com/decbot-sim/fieldsim/control"
	"github.com/decbot-sim/fieldsim/field"
	"github.com/decbot-sim/fieldsim/logging"
	"github.com/decbot-sim/fieldsim/services/mission"
	"github.com/decbot-sim/fieldsim/spatialmath"
	"github.com/decbot-sim/fieldsim/telemetry"
	"github.com/decbot-sim/fieldsim/utils"
)

// maxTrail bounds the number of trail points kept for rendering.
const maxTrail = 4096

// Snapshot is a consistent view of the simulation after a tick.
type Snapshot struct {
	RunID     string            `json:"run_id"`
	Tick      int64             `json:"tick"`
	Mission   string            `json:"mission_state"`
	Done      bool              `json:"done"`
	Arrivals  int               `json:"arrivals"`
	Base      basesim.State     `json:"base"`
	Busy      bool              `json:"follower_busy"`
	Target    *spatialmath.Pose `json:"target,omitempty"`
	Telemetry []telemetry.Line  `json:"telemetry"`
}

// Observer is notified after every tick. Observers run on the tick goroutine and must not block.
type Observer func(Snapshot)

// Runner owns one simulation.
type Runner struct {
	cfg    config.Config
	clk    clock.Clock
	logger logging.Logger
	runID  uuid.UUID

	base      *basesim.Base
	follower  *control.PoseFollower
	sequencer *mission.Sequencer
	console   *telemetry.Console
	board     *field.MarkerBoard

	ticks    atomic.Int64
	done     atomic.Bool
	doneOnce sync.Once
	doneCh   chan struct{}

	mu        sync.Mutex
	observers []Observer
	trail     []r2.Point
	last      Snapshot

	workersMu sync.Mutex
	workers   *utils.Workers
}

// NewRunner builds a simulation from cfg. A nil clock selects the wall clock.
func NewRunner(cfg config.Config, clk clock.Clock, logger logging.Logger) (*Runner, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	waypoints, err := cfg.Waypoints()
	if err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	r := &Runner{
		cfg:    cfg,
		clk:    clk,
		logger: logger,
		runID:  uuid.New(),
		doneCh: make(chan struct{}),
	}
	var rng *rand.Rand
	if cfg.Inconsistency > 0 {
		rng = basesim.NewRand(cfg.Seed)
	}
	r.base = basesim.NewBase(cfg.Calibration, cfg.Response, cfg.Inconsistency, rng, logger.Sublogger("sim"))
	r.console = telemetry.NewConsole(clk, cfg.Telemetry.StaleAfter)
	r.board = field.NewMarkerBoard()
	r.follower = control.NewPoseFollower(r.base, cfg.Calibration, cfg.Gains, r.console, logger.Sublogger("follower"))
	r.sequencer, err = mission.NewSequencer(waypoints, cfg.Dwell, mission.Deps{
		Base:     r.base,
		Follower: r.follower,
		Marker:   r.board,
		Sink:     r.console,
		Clock:    clk,
	}, logger.Sublogger("mission"))
	if err != nil {
		return nil, err
	}
	r.last = r.snapshot()
	logger.Infow("simulation ready", "run_id", r.runID.String(), "seed", cfg.Seed, "waypoints", len(waypoints))
	return r, nil
}

// RunID identifies this run in logs and reports.
func (r *Runner) RunID() string {
	return r.runID.String()
}

// Base returns the simulated base.
func (r *Runner) Base() *basesim.Base {
	return r.base
}

// Sequencer returns the mission sequencer.
func (r *Runner) Sequencer() *mission.Sequencer {
	return r.sequencer
}

// Console returns the telemetry console.
func (r *Runner) Console() *telemetry.Console {
	return r.console
}

// AddObserver registers fn to be called after every tick.
func (r *Runner) AddObserver(fn Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Step advances the simulation by one tick of cfg.DT seconds.
func (r *Runner) Step() {
	r.sequencer.Tick(r.cfg.DT)
	r.console.RemoveStale()
	n := r.ticks.Inc()

	snap := r.snapshot()
	snap.Tick = n
	half := r.cfg.Calibration.HalfFootprint()

	r.mu.Lock()
	r.trail = append(r.trail, r2.Point{X: snap.Base.Pose.X + half, Y: snap.Base.Pose.Y + half})
	if len(r.trail) > maxTrail {
		r.trail = r.trail[len(r.trail)-maxTrail:]
	}
	r.last = snap
	observers := append([]Observer(nil), r.observers...)
	r.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}

	if snap.Done && r.done.CompareAndSwap(false, true) {
		r.logger.Infow("mission complete", "run_id", r.RunID(), "ticks", n, "arrivals", snap.Arrivals)
		r.doneOnce.Do(func() { close(r.doneCh) })
	}
}

func (r *Runner) snapshot() Snapshot {
	snap := Snapshot{
		RunID:     r.RunID(),
		Tick:      r.ticks.Load(),
		Mission:   r.sequencer.State().String(),
		Done:      r.sequencer.Done(),
		Arrivals:  r.sequencer.Arrivals(),
		Base:      r.base.State(),
		Busy:      r.follower.Busy(),
		Telemetry: r.console.Lines(),
	}
	if target, ok := r.follower.Target(); ok {
		snap.Target = &target
	}
	return snap
}

// Snapshot returns the state after the most recent tick.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Ticks returns the number of ticks run so far.
func (r *Runner) Ticks() int64 {
	return r.ticks.Load()
}

// Done reports whether the mission has finished.
func (r *Runner) Done() bool {
	return r.done.Load()
}

// Trail returns the recent path of the robot center.
func (r *Runner) Trail() []r2.Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]r2.Point(nil), r.trail...)
}

// Scene returns everything needed to draw the field as of the most recent tick.
func (r *Runner) Scene() field.Scene {
	snap := r.Snapshot()
	return field.Scene{
		Robot:     snap.Base.Pose,
		Powers:    snap.Base.Powers,
		Footprint: r.cfg.Calibration.Footprint,
		Marks:     r.board.Marks(),
		Trail:     r.Trail(),
	}
}

// Start runs the tick loop in the background until ctx is cancelled or Stop is called.
func (r *Runner) Start(ctx context.Context) {
	r.workersMu.Lock()
	defer r.workersMu.Unlock()
	if r.workers != nil {
		return
	}
	r.workers = utils.GoWorkers(ctx, r.tickLoop)
}

func (r *Runner) tickLoop(ctx context.Context) {
	ticker := r.clk.Ticker(r.cfg.TickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if r.cfg.StopWhenDone && r.Done() {
			return
		}
		r.Step()
	}
}

// Stop stops the tick loop and waits for it to exit.
func (r *Runner) Stop() {
	r.workersMu.Lock()
	workers := r.workers
	r.workersMu.Unlock()
	if workers != nil {
		workers.Stop()
	}
	r.base.Stop()
}

// Run ticks in real time until ctx is cancelled or, with stop_when_done, the mission finishes.
func (r *Runner) Run(ctx context.Context) error {
	r.Start(ctx)
	defer r.Stop()

	var doneCh <-chan struct{}
	if r.cfg.StopWhenDone {
		doneCh = r.doneCh
	}
	select {
	case <-ctx.Done():
		if r.Done() {
			return nil
		}
		return ctx.Err()
	case <-doneCh:
		return nil
	}
}

// RunFor steps the simulation without waiting on the clock until the mission is done or limit
// simulated time has passed. A mock clock is advanced by one timestep per tick so dwell timers
// follow simulated time. It reports whether the mission finished.
func (r *Runner) RunFor(ctx context.Context, limit time.Duration) (bool, error) {
	step := time.Duration(r.cfg.DT * float64(time.Second))
	mock, _ := r.clk.(*clock.Mock)
	for elapsed := time.Duration(0); elapsed < limit; elapsed += step {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		r.Step()
		if mock != nil {
			mock.Add(step)
		}
		if r.Done() {
			return true, nil
		}
	}
	return r.Done(), nil
}
