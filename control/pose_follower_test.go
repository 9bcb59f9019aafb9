package control_test

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/decbot-sim/fieldsim/components/base/mecanum"
	"github.com/decbot-sim/fieldsim/components/base/sim"
	"github.com/decbot-sim/fieldsim/control"
	"github.com/decbot-sim/fieldsim/logging"
	"github.com/decbot-sim/fieldsim/spatialmath"
	"github.com/decbot-sim/fieldsim/telemetry"
	"github.com/decbot-sim/fieldsim/testutils/inject"
)

const dt = 0.02

func newSimFollower(t *testing.T) (*sim.Base, *control.PoseFollower, *inject.TelemetrySink) {
	t.Helper()
	logger := logging.NewTestLogger(t)
	calib := mecanum.DefaultCalibration()
	b := sim.NewBase(calib, control.DefaultResponse(), 0, nil, logger)
	sink := &inject.TelemetrySink{}
	return b, control.NewPoseFollower(b, calib, control.DefaultGains(), sink, logger), sink
}

// fixedBase reports a constant pose and records the last powers written.
func fixedBase(pose spatialmath.Pose, written *mecanum.MotorPowers) *inject.Base {
	return &inject.Base{
		PoseFunc: func() spatialmath.Pose { return pose },
		SetMotorPowersFunc: func(powers mecanum.MotorPowers) {
			*written = powers
		},
	}
}

func centerDistance(pose, target spatialmath.Pose) float64 {
	half := mecanum.DefaultCalibration().HalfFootprint()
	return math.Hypot(target.X-(pose.X+half), target.Y-(pose.Y+half))
}

func TestFollowConverges(t *testing.T) {
	for _, tc := range []struct {
		name   string
		target spatialmath.Pose
	}{
		{"diagonal", spatialmath.NewPose(20, 20, 0)},
		{"behind", spatialmath.NewPose(-15, 5, 0)},
		{"with turn", spatialmath.NewPose(30, 10, math.Pi/2)},
		{"turn across pi", spatialmath.NewPose(10, 40, math.Pi)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b, pf, _ := newSimFollower(t)
			pf.Follow(spatialmath.NewPose(0, 0, 0), tc.target)
			test.That(t, pf.Busy(), test.ShouldBeTrue)

			ticks := 0
			for ; ticks < 2000 && pf.Busy(); ticks++ {
				pf.Update()
				powers := b.MotorPowers()
				test.That(t, powers.MaxAbs(), test.ShouldBeLessThanOrEqualTo, 1)
				for _, p := range powers.Slice() {
					if p != 0 {
						test.That(t, math.Abs(p), test.ShouldBeGreaterThanOrEqualTo, control.DefaultGains().MotorDeadband)
					}
				}
				b.Update(dt)
				heading := b.Pose().Heading
				test.That(t, heading, test.ShouldBeGreaterThan, -math.Pi)
				test.That(t, heading, test.ShouldBeLessThanOrEqualTo, math.Pi)
			}
			test.That(t, pf.Busy(), test.ShouldBeFalse)
			test.That(t, ticks, test.ShouldBeLessThan, 2000)
			test.That(t, b.MotorPowers().IsZero(), test.ShouldBeTrue)

			// the robot coasts a little after the motors stop, so allow some slack past the tolerance
			for i := 0; i < 50; i++ {
				pf.Update()
				b.Update(dt)
				test.That(t, pf.Busy(), test.ShouldBeFalse)
				test.That(t, b.MotorPowers().IsZero(), test.ShouldBeTrue)
			}
			test.That(t, centerDistance(b.Pose(), tc.target), test.ShouldBeLessThan, 1.5)
		})
	}
}

func TestFollowWithNoise(t *testing.T) {
	logger := logging.NewTestLogger(t)
	calib := mecanum.DefaultCalibration()
	b := sim.NewBase(calib, control.DefaultResponse(), 0.05, sim.NewRand(7), logger)
	pf := control.NewPoseFollower(b, calib, control.DefaultGains(), telemetry.Discard, logger)
	pf.Follow(spatialmath.NewPose(0, 0, 0), spatialmath.NewPose(40, 25, -math.Pi/4))

	for i := 0; i < 2000 && pf.Busy(); i++ {
		pf.Update()
		b.Update(dt)
		test.That(t, b.Pose().IsFinite(), test.ShouldBeTrue)
	}
	test.That(t, pf.Busy(), test.ShouldBeFalse)
}

func TestIdleFollowerZeroesMotors(t *testing.T) {
	written := mecanum.MotorPowers{FL: 1, FR: 1, BL: 1, BR: 1}
	b := fixedBase(spatialmath.NewPose(0, 0, 0), &written)
	pf := control.NewPoseFollower(b, mecanum.DefaultCalibration(), control.DefaultGains(), nil, logging.NewTestLogger(t))

	test.That(t, pf.Busy(), test.ShouldBeFalse)
	_, ok := pf.Target()
	test.That(t, ok, test.ShouldBeFalse)

	pf.Update()
	test.That(t, written.IsZero(), test.ShouldBeTrue)
}

func TestArrivalIsPositionOnly(t *testing.T) {
	var written mecanum.MotorPowers
	// center is at (7.5, 7.5); heading is wildly off but position is inside tolerance
	b := fixedBase(spatialmath.NewPose(0, 0, 0), &written)
	sink := &inject.TelemetrySink{}
	pf := control.NewPoseFollower(b, mecanum.DefaultCalibration(), control.DefaultGains(), sink, logging.NewTestLogger(t))

	pf.Follow(spatialmath.NewPose(0, 0, 0), spatialmath.NewPose(7.8, 7.5, math.Pi))
	written = mecanum.MotorPowers{FL: 0.3}
	pf.Update()
	test.That(t, pf.Busy(), test.ShouldBeFalse)
	test.That(t, written.IsZero(), test.ShouldBeTrue)

	dist, ok := sink.Line(telemetry.LabelDistToTarget)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, dist, test.ShouldAlmostEqual, 0.3)

	// idempotent once idle
	pf.Update()
	pf.Stop()
	pf.Update()
	test.That(t, pf.Busy(), test.ShouldBeFalse)
	test.That(t, written.IsZero(), test.ShouldBeTrue)
}

func TestUpdateNormalizesAndReports(t *testing.T) {
	var written mecanum.MotorPowers
	b := fixedBase(spatialmath.NewPose(0, 0, 0), &written)
	sink := &inject.TelemetrySink{}
	pf := control.NewPoseFollower(b, mecanum.DefaultCalibration(), control.DefaultGains(), sink, logging.NewTestLogger(t))

	pf.Follow(spatialmath.NewPose(0, 0, 0), spatialmath.NewPose(100, 0, math.Pi))
	pf.Update()
	test.That(t, pf.Busy(), test.ShouldBeTrue)
	test.That(t, written.MaxAbs(), test.ShouldAlmostEqual, 1)
	test.That(t, written, test.ShouldResemble, pf.LastCommand().Powers)

	cmd := pf.LastCommand()
	test.That(t, cmd.HeadingErr, test.ShouldAlmostEqual, math.Pi)
	test.That(t, math.Abs(cmd.Twist.Angular), test.ShouldBeLessThanOrEqualTo, control.DefaultGains().MaxAngularSpeed)
	// forward speed is capped before the lateral correction is added
	test.That(t, cmd.Twist.Forward, test.ShouldBeLessThanOrEqualTo, control.DefaultGains().MaxLinearSpeed)

	for _, label := range []string{
		telemetry.LabelDistToTarget,
		telemetry.LabelHeadingErr,
		telemetry.LabelOmegaCmd,
		telemetry.LabelFollowerBusy,
	} {
		_, ok := sink.Line(label)
		test.That(t, ok, test.ShouldBeTrue)
	}
	busy, _ := sink.Line(telemetry.LabelFollowerBusy)
	test.That(t, busy, test.ShouldEqual, true)
}

func TestSlowdownKeepsMinimumSpeed(t *testing.T) {
	var written mecanum.MotorPowers
	// center at (7.5, 7.5), target 0.8 ahead along +X with no lateral error
	b := fixedBase(spatialmath.NewPose(0, 0, 0), &written)
	pf := control.NewPoseFollower(b, mecanum.DefaultCalibration(), control.DefaultGains(), nil, logging.NewTestLogger(t))
	pf.Follow(spatialmath.NewPose(0, 0, 0), spatialmath.NewPose(8.3, 7.5, 0))
	pf.Update()

	cmd := pf.LastCommand()
	test.That(t, cmd.Twist.Forward, test.ShouldAlmostEqual, 1)
	test.That(t, cmd.Twist.Lateral, test.ShouldAlmostEqual, 0)
	test.That(t, written.FL, test.ShouldAlmostEqual, 1.0/45)
	test.That(t, written.FL, test.ShouldAlmostEqual, written.BR)
}

func TestDeadbandZeroesSmallPowers(t *testing.T) {
	var written mecanum.MotorPowers
	b := fixedBase(spatialmath.NewPose(0, 0, 0), &written)
	gains := control.DefaultGains()
	gains.MotorDeadband = 0.05
	pf := control.NewPoseFollower(b, mecanum.DefaultCalibration(), gains, nil, logging.NewTestLogger(t))
	pf.Follow(spatialmath.NewPose(0, 0, 0), spatialmath.NewPose(8.3, 7.5, 0))
	pf.Update()

	// every wheel wants 1/45 which is under the deadband
	test.That(t, pf.Busy(), test.ShouldBeTrue)
	test.That(t, written.FL, test.ShouldEqual, 0.0)
	test.That(t, written.IsZero(), test.ShouldBeTrue)
}

func TestFollowWhileBusyRetargets(t *testing.T) {
	var written mecanum.MotorPowers
	b := fixedBase(spatialmath.NewPose(0, 0, 0), &written)
	pf := control.NewPoseFollower(b, mecanum.DefaultCalibration(), control.DefaultGains(), nil, logging.NewTestLogger(t))

	first := spatialmath.NewPose(1, 1, 0)
	pf.Follow(first, spatialmath.NewPose(50, 50, 0))
	pf.Follow(spatialmath.NewPose(2, 2, 0), spatialmath.NewPose(60, 10, 1))

	test.That(t, pf.Start(), test.ShouldResemble, first)
	target, ok := pf.Target()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, target, test.ShouldResemble, spatialmath.NewPose(60, 10, 1))

	pf.Stop()
	test.That(t, pf.Busy(), test.ShouldBeFalse)
	second := spatialmath.NewPose(3, 3, 0)
	pf.Follow(second, spatialmath.NewPose(70, 10, 0))
	test.That(t, pf.Start(), test.ShouldResemble, second)
}
