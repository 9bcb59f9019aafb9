// Package sim implements a simulated mecanum base: wheel powers in, pose out, advanced by an
// explicit timestep.
package sim

import (
	"math/rand"
	"sync"
	"time"

	"github.com/golang/geo/r2"
	"golang.org/x/time/rate"

	"github.com/decbot-sim/fieldsim/components/base"
	"github.com/decbot-sim/fieldsim/components/base/mecanum"
	"github.com/decbot-sim/fieldsim/control"
	"github.com/decbot-sim/fieldsim/logging"
	"github.com/decbot-sim/fieldsim/spatialmath"
	"github.com/decbot-sim/fieldsim/utils"
)

var _ base.Base = (*Base)(nil)

// State is a consistent snapshot of a Base.
type State struct {
	Pose     spatialmath.Pose    `json:"pose"`
	Velocity mecanum.Twist       `json:"velocity"`
	Powers   mecanum.MotorPowers `json:"powers"`
	Elapsed  time.Duration       `json:"elapsed"`
}

// Base is the simulated robot. Wheel powers persist until replaced and are never clamped or decayed
// here. Velocity is robot-frame and lags the mixed wheel command through asymmetric first-order
// filters. All methods are safe for concurrent use, but Update is expected to be driven from a
// single tick goroutine.
type Base struct {
	mu     sync.RWMutex
	calib  mecanum.Calibration
	rng    *rand.Rand
	logger logging.Logger

	inconsistency float64
	pose          spatialmath.Pose
	powers        mecanum.MotorPowers
	vx, vy, omega *control.AsymmetricLag
	elapsed       time.Duration

	badDtWarn    rate.Sometimes
	badPowerWarn rate.Sometimes
}

// NewBase returns a base at rest at the origin. rng is the actuation noise source; a nil rng
// disables noise regardless of inconsistency.
func NewBase(
	calib mecanum.Calibration,
	response control.Response,
	inconsistency float64,
	rng *rand.Rand,
	logger logging.Logger,
) *Base {
	if !(inconsistency > 0) {
		inconsistency = 0
	}
	return &Base{
		calib:         calib,
		rng:           rng,
		logger:        logger,
		inconsistency: inconsistency,
		vx:            control.NewAsymmetricLag(response.LinearAccel, response.LinearDecel),
		vy:            control.NewAsymmetricLag(response.LinearAccel, response.LinearDecel),
		omega:         control.NewAsymmetricLag(response.AngularAccel, response.AngularDecel),
		badDtWarn:     rate.Sometimes{Interval: 5 * time.Second},
		badPowerWarn:  rate.Sometimes{Interval: 5 * time.Second},
	}
}

// Update advances the base by dt seconds. A non-positive or non-finite dt leaves the state unchanged.
func (b *Base) Update(dt float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !(dt > 0) || !utils.IsFinite(dt) {
		b.badDtWarn.Do(func() {
			b.logger.Warnw("ignoring update with invalid timestep", "dt", dt)
		})
		return
	}

	effective := b.powers.Map(b.actuate)
	target := mecanum.Forward(b.calib, effective)

	vx := b.vx.Next(target.Forward, dt)
	vy := b.vy.Next(target.Lateral, dt)
	omega := b.omega.Next(target.Angular, dt)

	heading := spatialmath.NormalizeAngle(b.pose.Heading + omega*dt)
	step := spatialmath.FrameToWorld(r2.Point{X: vx, Y: vy}, heading).Mul(dt)
	b.pose = spatialmath.NewPose(b.pose.X+step.X, b.pose.Y+step.Y, heading)
	b.elapsed += time.Duration(dt * float64(time.Second))
}

// actuate applies per-tick actuation noise to one wheel. Must be called with mu held.
func (b *Base) actuate(power float64) float64 {
	if !utils.IsFinite(power) {
		b.badPowerWarn.Do(func() {
			b.logger.Warnw("treating non-finite motor power as zero", "power", power)
		})
		return 0
	}
	if power == 0 || b.inconsistency == 0 || b.rng == nil {
		return power
	}
	return power + (b.rng.Float64()*2-1)*b.inconsistency
}

// Pose returns the current pose.
func (b *Base) Pose() spatialmath.Pose {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pose
}

// SetPose teleports the base and brings it to rest. Wheel powers are left untouched.
func (b *Base) SetPose(pose spatialmath.Pose) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pose = spatialmath.NewPose(pose.X, pose.Y, spatialmath.NormalizeAngle(pose.Heading))
	b.vx.Reset(0)
	b.vy.Reset(0)
	b.omega.Reset(0)
}

// SetMotorPowers replaces all four wheel powers.
func (b *Base) SetMotorPowers(powers mecanum.MotorPowers) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.powers = powers
}

// MotorPowers returns the commanded wheel powers, before noise.
func (b *Base) MotorPowers() mecanum.MotorPowers {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.powers
}

// Stop zeroes all four wheel powers. The base coasts down through its response filters.
func (b *Base) Stop() {
	b.SetMotorPowers(mecanum.MotorPowers{})
}

// Velocity returns the current robot-frame velocity.
func (b *Base) Velocity() mecanum.Twist {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.velocity()
}

func (b *Base) velocity() mecanum.Twist {
	return mecanum.Twist{Forward: b.vx.Value(), Lateral: b.vy.Value(), Angular: b.omega.Value()}
}

// SetInconsistency sets the actuation noise amplitude. Negative values are treated as zero.
func (b *Base) SetInconsistency(inconsistency float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !(inconsistency > 0) {
		inconsistency = 0
	}
	b.inconsistency = inconsistency
}

// Inconsistency returns the actuation noise amplitude.
func (b *Base) Inconsistency() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.inconsistency
}

// RelativeX projects a world point onto the robot's forward axis, measured from the pose reference point.
func (b *Base) RelativeX(worldX, worldY float64) float64 {
	return b.Pose().RelativePoint(r2.Point{X: worldX, Y: worldY}).X
}

// RelativeY projects a world point onto the robot's rightward axis, measured from the pose reference point.
func (b *Base) RelativeY(worldX, worldY float64) float64 {
	return b.Pose().RelativePoint(r2.Point{X: worldX, Y: worldY}).Y
}

// State returns a snapshot of pose, velocity and powers taken under a single lock.
func (b *Base) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return State{
		Pose:     b.pose,
		Velocity: b.velocity(),
		Powers:   b.powers,
		Elapsed:  b.elapsed,
	}
}

// NewRand returns a noise source for NewBase. A zero seed seeds from the wall clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
