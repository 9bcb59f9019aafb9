// Package telemetry carries labelled status lines from the simulation to whatever displays them.
package telemetry

// Labels published by the simulation.
const (
	LabelDistToTarget   = "dist_to_target"
	LabelHeadingErr     = "heading_err"
	LabelOmegaCmd       = "omega_cmd"
	LabelFollowerBusy   = "follower_busy"
	LabelMissionState   = "mission_state"
	LabelPauseRemaining = "pause_remaining_ms"
	LabelRobotX         = "robot_x"
	LabelRobotY         = "robot_y"
	LabelRobotHeading   = "robot_heading"
	LabelTargetX        = "target_x"
	LabelTargetY        = "target_y"
)

// Sink receives telemetry lines. AddLine replaces any previous value for the label. RemoveStale
// drops lines that have not been updated recently. Implementations must be safe to call from the
// tick goroutine while being read elsewhere.
type Sink interface {
	AddLine(label string, value interface{})
	RemoveStale()
}

// Discard is a Sink that drops every line.
var Discard Sink = discard{}

type discard struct{}

func (discard) AddLine(string, interface{}) {}

func (discard) RemoveStale() {}
