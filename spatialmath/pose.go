// Package spatialmath defines the planar pose shared by the simulated base, the pose follower and the
// mission sequencer, plus the world/robot frame conversions between them.
//
// The world frame is the fixed field frame. The robot frame is centered on the robot's reference
// point and rotates with it: +X is forward and +Y is to the robot's right, following the mixing
// convention of the mecanum base.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/decbot-sim/fieldsim/utils"
)

// Pose is an immutable planar pose. Heading is in radians and is conceptually in (-pi, pi], but
// construction does not enforce the range.
type Pose struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// NewPose returns a pose with a heading in radians.
func NewPose(x, y, heading float64) Pose {
	return Pose{X: x, Y: y, Heading: heading}
}

// NewPoseFromDegrees returns a pose with a heading given in degrees.
func NewPoseFromDegrees(x, y, headingDeg float64) Pose {
	return Pose{X: x, Y: y, Heading: utils.DegToRad(headingDeg)}
}

// Point returns the position of the pose.
func (p Pose) Point() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// HeadingDegrees returns the heading in degrees.
func (p Pose) HeadingDegrees() float64 {
	return utils.RadToDeg(p.Heading)
}

// DistanceTo returns the euclidean distance between the positions of two poses.
func (p Pose) DistanceTo(o Pose) float64 {
	return p.Point().Sub(o.Point()).Norm()
}

// RelativePoint projects a world point into the frame of this pose.
func (p Pose) RelativePoint(world r2.Point) r2.Point {
	return WorldToFrame(world.Sub(p.Point()), p.Heading)
}

// AlmostEqual compares positions and the wrapped heading difference against tol.
func (p Pose) AlmostEqual(o Pose, tol float64) bool {
	return math.Abs(p.X-o.X) <= tol &&
		math.Abs(p.Y-o.Y) <= tol &&
		math.Abs(NormalizeAngle(p.Heading-o.Heading)) <= tol
}

// IsFinite reports whether every component is a finite number.
func (p Pose) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y) && isFinite(p.Heading)
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.1f°)", p.X, p.Y, p.HeadingDegrees())
}

// NormalizeAngle wraps an angle in radians into (-pi, pi]. Non-finite input is returned unchanged.
func NormalizeAngle(a float64) float64 {
	if !isFinite(a) {
		return a
	}
	if a > -math.Pi && a <= math.Pi {
		return a
	}
	a = math.Mod(a+math.Pi, 2*math.Pi)
	if a <= 0 {
		a += 2 * math.Pi
	}
	a -= math.Pi
	// a tiny remainder can round onto -pi
	if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// WorldToFrame rotates a world-frame vector into a frame with the given heading (rotation by -heading).
func WorldToFrame(v r2.Point, heading float64) r2.Point {
	sin, cos := math.Sincos(heading)
	return r2.Point{
		X: v.X*cos + v.Y*sin,
		Y: -v.X*sin + v.Y*cos,
	}
}

// FrameToWorld rotates a vector expressed in a frame with the given heading back into the world frame.
func FrameToWorld(v r2.Point, heading float64) r2.Point {
	sin, cos := math.Sincos(heading)
	return r2.Point{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
