package control

import (
	"math"
	"sync"
	"time"

	"github.com/golang/geo/r2"
	"golang.org/x/time/rate"

	"github.com/decbot-sim/fieldsim/components/base"
	"github.com/decbot-sim/fieldsim/components/base/mecanum"
	"github.com/decbot-sim/fieldsim/logging"
	"github.com/decbot-sim/fieldsim/spatialmath"
	"github.com/decbot-sim/fieldsim/telemetry"
	"github.com/decbot-sim/fieldsim/utils"
)

const (
	// direction vectors shorter than this are treated as zero.
	minDirectionNorm = 1e-8
	// floor on the slowdown scale inside the slowdown radius.
	minSlowdownScale = 0.25
	// fraction of the heading command shed at full translation speed.
	rotationShedAtFullSpeed = 0.3
)

// Follower drives a base toward a target pose one tick at a time.
type Follower interface {
	Follow(start, target spatialmath.Pose)
	Update()
	Stop()
	Busy() bool
}

// Command is the last velocity command computed by a PoseFollower.
type Command struct {
	DistToTarget float64             `json:"dist_to_target"`
	HeadingErr   float64             `json:"heading_err"`
	Twist        mecanum.Twist       `json:"twist"`
	Powers       mecanum.MotorPowers `json:"powers"`
}

// PoseFollower is a reactive proportional controller that steers the center of a mecanum base onto
// a target position while turning it to the target heading. Arrival is decided on position only.
type PoseFollower struct {
	mu     sync.Mutex
	driver base.MotorDriver
	calib  mecanum.Calibration
	gains  Gains
	sink   telemetry.Sink
	logger logging.Logger

	busy      bool
	hasTarget bool
	start     spatialmath.Pose
	target    spatialmath.Pose
	last      Command

	degenerateWarn rate.Sometimes
}

// NewPoseFollower returns an idle follower. calib must be the calibration the driven base was built with.
func NewPoseFollower(
	driver base.MotorDriver,
	calib mecanum.Calibration,
	gains Gains,
	sink telemetry.Sink,
	logger logging.Logger,
) *PoseFollower {
	if sink == nil {
		sink = telemetry.Discard
	}
	return &PoseFollower{
		driver:         driver,
		calib:          calib,
		gains:          gains,
		sink:           sink,
		logger:         logger,
		degenerateWarn: rate.Sometimes{Interval: 5 * time.Second},
	}
}

// Follow starts a leg from start to target. While already busy only the target is replaced, so a
// caller can retarget mid-leg without resetting the recorded start.
func (pf *PoseFollower) Follow(start, target spatialmath.Pose) {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	if !pf.busy {
		pf.start = start
		pf.busy = true
	}
	pf.target = target
	pf.hasTarget = true
	pf.logger.Debugw("following", "start", start.String(), "target", target.String())
}

// Stop abandons the current leg and zeroes the motors.
func (pf *PoseFollower) Stop() {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	pf.busy = false
	pf.idle()
}

// Busy reports whether a leg is in progress.
func (pf *PoseFollower) Busy() bool {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.busy
}

// Target returns the current target and whether one was ever set.
func (pf *PoseFollower) Target() (spatialmath.Pose, bool) {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.target, pf.hasTarget
}

// Start returns the start pose recorded when the current leg began.
func (pf *PoseFollower) Start() spatialmath.Pose {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.start
}

// LastCommand returns the most recent command written to the base.
func (pf *PoseFollower) LastCommand() Command {
	pf.mu.Lock()
	defer pf.mu.Unlock()
	return pf.last
}

// Update computes one tick of motor powers and writes them to the base. An idle follower holds the
// motors at zero.
func (pf *PoseFollower) Update() {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if !pf.busy || !pf.hasTarget {
		pf.idle()
		return
	}

	pose := pf.driver.Pose()
	half := pf.calib.HalfFootprint()
	center := r2.Point{X: pose.X + half, Y: pose.Y + half}
	errWorld := pf.target.Point().Sub(center)
	dist := errWorld.Norm()

	if dist <= pf.gains.PositionTolerance {
		pf.busy = false
		pf.idle()
		pf.last.DistToTarget = dist
		pf.sink.AddLine(telemetry.LabelDistToTarget, dist)
		pf.logger.Debugw("arrived", "target", pf.target.String(), "dist", dist)
		return
	}

	rel := spatialmath.WorldToFrame(errWorld, pose.Heading)
	var dir r2.Point
	if mag := rel.Norm(); mag > minDirectionNorm {
		dir = rel.Mul(1 / mag)
	} else {
		pf.degenerateWarn.Do(func() {
			pf.logger.Warnw("direction to target is degenerate, holding translation", "dist", dist)
		})
	}

	speed := pf.speedFor(dist)
	vx := speed * dir.X
	vy := speed*dir.Y + pf.gains.KPLateral*rel.Y

	headingErr := spatialmath.NormalizeAngle(pf.target.Heading - pose.Heading)
	transScale := math.Min(1, math.Hypot(vx, vy)/pf.gains.MaxLinearSpeed)
	omega := pf.gains.KPHeading * headingErr * (1 - rotationShedAtFullSpeed*transScale)
	omega = utils.Clamp(omega, -pf.gains.MaxAngularSpeed, pf.gains.MaxAngularSpeed)

	twist := mecanum.Twist{Forward: vx, Lateral: vy, Angular: omega}
	powers := mecanum.Inverse(pf.calib, twist).Normalize().Deadband(pf.gains.MotorDeadband)
	pf.driver.SetMotorPowers(powers)

	pf.last = Command{DistToTarget: dist, HeadingErr: headingErr, Twist: twist, Powers: powers}
	pf.sink.AddLine(telemetry.LabelDistToTarget, dist)
	pf.sink.AddLine(telemetry.LabelHeadingErr, headingErr)
	pf.sink.AddLine(telemetry.LabelOmegaCmd, omega)
	pf.sink.AddLine(telemetry.LabelTargetX, pf.target.X)
	pf.sink.AddLine(telemetry.LabelTargetY, pf.target.Y)
	pf.sink.AddLine(telemetry.LabelFollowerBusy, pf.busy)
}

// speedFor returns the commanded translation speed at distance dist from the target.
func (pf *PoseFollower) speedFor(dist float64) float64 {
	g := pf.gains
	speed := math.Min(g.KPTranslation*dist, g.MaxLinearSpeed)
	if dist < g.SlowdownRadius {
		scale := math.Max(minSlowdownScale, dist/g.SlowdownRadius)
		speed = math.Min(math.Max(g.MinApproachSpeed, g.KPTranslation*dist*scale), g.MaxLinearSpeed)
	}
	return speed
}

// idle must be called with mu held.
func (pf *PoseFollower) idle() {
	pf.driver.SetMotorPowers(mecanum.MotorPowers{})
	pf.last.Twist = mecanum.Twist{}
	pf.last.Powers = mecanum.MotorPowers{}
	pf.sink.AddLine(telemetry.LabelFollowerBusy, pf.busy)
}
