// Package mission sequences a pose follower through an ordered list of waypoints, dwelling at each
// arrival, and owns the per-tick order of control and simulation.
package mission

import (
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/decbot-sim/fieldsim/components/base"
	"github.com/decbot-sim/fieldsim/control"
	"github.com/decbot-sim/fieldsim/field"
	"github.com/decbot-sim/fieldsim/logging"
	"github.com/decbot-sim/fieldsim/spatialmath"
	"github.com/decbot-sim/fieldsim/telemetry"
)

// DefaultDwell is how long the robot waits at each waypoint before the next leg.
const DefaultDwell = time.Second

// State is the sequencer state: StateStart, a leg number in [1, N-1], or StateDone.
type State int

// The fixed states. Leg states are the positive integers in between.
const (
	StateDone  State = -1
	StateStart State = 0
)

// Leg returns the state that drives toward waypoint i.
func Leg(i int) State {
	return State(i)
}

func (s State) String() string {
	switch {
	case s == StateStart:
		return "Start"
	case s == StateDone:
		return "Done"
	case s > 0:
		return fmt.Sprintf("Leg(%d)", int(s))
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Deps are the collaborators a Sequencer drives.
type Deps struct {
	Base     base.Base
	Follower control.Follower
	Marker   field.Marker
	Sink     telemetry.Sink
	Clock    clock.Clock
}

// Sequencer is the mission state machine. Tick must be called from a single goroutine; the
// accessors may be called from anywhere.
type Sequencer struct {
	mu        sync.Mutex
	deps      Deps
	logger    logging.Logger
	waypoints []spatialmath.Pose
	dwell     time.Duration

	state      State
	dwelling   bool
	dwellStart time.Time
	arrivals   int

	unknownWarn rate.Sometimes
}

// NewSequencer starts a mission: it places the base at the first waypoint and marks every waypoint
// as pending. The waypoint list is copied and fixed from here on. A non-positive dwell selects
// DefaultDwell.
func NewSequencer(waypoints []spatialmath.Pose, dwell time.Duration, deps Deps, logger logging.Logger) (*Sequencer, error) {
	if len(waypoints) == 0 {
		return nil, errors.New("mission needs at least one waypoint")
	}
	if deps.Base == nil || deps.Follower == nil {
		return nil, errors.New("mission needs a base and a follower")
	}
	if deps.Sink == nil {
		deps.Sink = telemetry.Discard
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if dwell <= 0 {
		dwell = DefaultDwell
	}

	s := &Sequencer{
		deps:        deps,
		logger:      logger,
		waypoints:   append([]spatialmath.Pose(nil), waypoints...),
		dwell:       dwell,
		state:       StateStart,
		unknownWarn: rate.Sometimes{Interval: 5 * time.Second},
	}

	deps.Base.SetPose(s.waypoints[0])
	if deps.Marker != nil {
		for _, wp := range s.waypoints {
			deps.Marker.MarkPose(wp, field.Pending)
		}
	}
	logger.Infow("mission started", "waypoints", len(s.waypoints), "dwell", dwell)
	return s, nil
}

// Tick runs one cycle: the state machine, then the follower, then the base.
func (s *Sequencer) Tick(dt float64) {
	s.mu.Lock()
	s.step()
	state := s.state
	s.mu.Unlock()

	s.deps.Follower.Update()
	s.deps.Base.Update(dt)

	pose := s.deps.Base.Pose()
	s.deps.Sink.AddLine(telemetry.LabelMissionState, state.String())
	s.deps.Sink.AddLine(telemetry.LabelRobotX, pose.X)
	s.deps.Sink.AddLine(telemetry.LabelRobotY, pose.Y)
	s.deps.Sink.AddLine(telemetry.LabelRobotHeading, pose.Heading)
}

// step must be called with mu held.
func (s *Sequencer) step() {
	n := len(s.waypoints)
	switch {
	case s.state == StateStart:
		if n < 2 {
			s.finish()
			return
		}
		s.deps.Follower.Follow(s.waypoints[0], s.waypoints[1])
		s.state = Leg(1)
		s.logger.Debugw("commanded leg", "from", 0, "to", 1)

	case s.state > 0 && int(s.state) < n:
		if s.deps.Follower.Busy() {
			s.deps.Sink.AddLine(telemetry.LabelPauseRemaining, 0)
			return
		}
		if !s.dwelling {
			s.dwelling = true
			s.dwellStart = s.deps.Clock.Now()
			s.logger.Debugw("arrived, dwelling", "waypoint", int(s.state))
		}
		elapsed := s.deps.Clock.Since(s.dwellStart)
		if elapsed < s.dwell {
			s.deps.Sink.AddLine(telemetry.LabelPauseRemaining, (s.dwell - elapsed).Milliseconds())
			return
		}

		s.dwelling = false
		s.arrivals++
		arrived := int(s.state)
		if s.deps.Marker != nil {
			s.deps.Marker.MarkPose(s.waypoints[arrived], field.Arrived)
		}
		next := arrived + 1
		if next >= n {
			s.finish()
			return
		}
		s.deps.Follower.Follow(s.waypoints[arrived], s.waypoints[next])
		s.state = Leg(next)
		s.logger.Debugw("commanded leg", "from", arrived, "to", next)

	case s.state == StateDone:
		s.deps.Base.Stop()

	default:
		bad := s.state
		s.unknownWarn.Do(func() {
			s.logger.Warnw("unknown mission state, finishing", "state", bad.String())
		})
		s.finish()
	}
}

// finish must be called with mu held.
func (s *Sequencer) finish() {
	if s.state != StateDone {
		s.logger.Infow("mission done", "arrivals", s.arrivals)
	}
	s.state = StateDone
	s.dwelling = false
	// a busy follower would otherwise drive the base again in this tick
	if s.deps.Follower.Busy() {
		s.deps.Follower.Stop()
	}
	s.deps.Base.Stop()
}

// State returns the current state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done reports whether the mission has finished.
func (s *Sequencer) Done() bool {
	return s.State() == StateDone
}

// Arrivals returns the number of waypoints reached so far, not counting the start.
func (s *Sequencer) Arrivals() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.arrivals
}

// Waypoints returns a copy of the mission waypoints.
func (s *Sequencer) Waypoints() []spatialmath.Pose {
	return append([]spatialmath.Pose(nil), s.waypoints...)
}

// PauseRemaining returns the time left in the current dwell, or zero when not dwelling.
func (s *Sequencer) PauseRemaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dwelling {
		return 0
	}
	return max(0, s.dwell-s.deps.Clock.Since(s.dwellStart))
}
