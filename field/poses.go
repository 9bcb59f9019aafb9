// Package field describes the 144 unit square playing field: its named poses, the annotations
// drawn on it and its rendering.
package field

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/decbot-sim/fieldsim/spatialmath"
)

// Units is the side length of the field.
const Units = 144

// Named poses. Headings are given in degrees. Spike A is closest to the human player, spike C farthest.
var poses = map[string]spatialmath.Pose{
	"BlueGoalStart":     spatialmath.NewPoseFromDegrees(22, 122, 135),
	"BlueNearPark":      spatialmath.NewPoseFromDegrees(50, 130, 270),
	"BlueFarStart":      spatialmath.NewPoseFromDegrees(44, 8, 90),
	"BlueMidShoot":      spatialmath.NewPoseFromDegrees(57, 83, 133),
	"BlueFarShoot":      spatialmath.NewPoseFromDegrees(60, 20, 110),
	"BlueFarPark":       spatialmath.NewPoseFromDegrees(43, 12, 90),
	"BlueSpikeAInside":  spatialmath.NewPoseFromDegrees(48, 31, 180),
	"BlueSpikeAOutside": spatialmath.NewPoseFromDegrees(17, 31, 180),
	"BlueSpikeBInside":  spatialmath.NewPoseFromDegrees(48, 57, 180),
	"BlueSpikeBOutside": spatialmath.NewPoseFromDegrees(17, 57, 180),
	"BlueSpikeCInside":  spatialmath.NewPoseFromDegrees(48, 81, 180),
	"BlueSpikeCOutside": spatialmath.NewPoseFromDegrees(17, 81, 180),

	"RedFarStart":      spatialmath.NewPoseFromDegrees(100, 8, 90),
	"RedMidShoot":      spatialmath.NewPoseFromDegrees(85, 81, 45),
	"RedFarShoot":      spatialmath.NewPoseFromDegrees(84, 20, 64),
	"RedFarPark":       spatialmath.NewPoseFromDegrees(101, 12, 90),
	"RedSpikeAInside":  spatialmath.NewPoseFromDegrees(105, 32, 0),
	"RedSpikeAOutside": spatialmath.NewPoseFromDegrees(124, 32, 0),
	"RedSpikeBInside":  spatialmath.NewPoseFromDegrees(105, 57, 0),
	"RedSpikeBOutside": spatialmath.NewPoseFromDegrees(124, 57, 0),
	"RedSpikeCInside":  spatialmath.NewPoseFromDegrees(105, 81, 0),
	"RedSpikeCOutside": spatialmath.NewPoseFromDegrees(124, 81, 0),
}

// DefaultRoute is the blue far-side mission: score the preload, cycle spikes A and B, then park.
var DefaultRoute = []string{
	"BlueFarStart",
	"BlueFarShoot",
	"BlueSpikeAInside",
	"BlueSpikeAOutside",
	"BlueFarShoot",
	"BlueSpikeBInside",
	"BlueSpikeBOutside",
	"BlueFarShoot",
	"BlueFarPark",
}

// NamedPose is a pose with its table name.
type NamedPose struct {
	Name string           `json:"name"`
	Pose spatialmath.Pose `json:"pose"`
}

// Lookup returns the named pose.
func Lookup(name string) (spatialmath.Pose, bool) {
	p, ok := poses[name]
	return p, ok
}

// Names returns every pose name in sorted order.
func Names() []string {
	names := lo.Keys(poses)
	slices.Sort(names)
	return names
}

// All returns every named pose sorted by name.
func All() []NamedPose {
	return lo.Map(Names(), func(name string, _ int) NamedPose {
		return NamedPose{Name: name, Pose: poses[name]}
	})
}

// Route resolves names to poses in order. Every unknown name is reported in one error.
func Route(names ...string) ([]spatialmath.Pose, error) {
	unknown := lo.Uniq(lo.Reject(names, func(name string, _ int) bool {
		_, ok := poses[name]
		return ok
	}))
	if len(unknown) > 0 {
		return nil, errors.Errorf("unknown field poses %q", unknown)
	}
	return lo.Map(names, func(name string, _ int) spatialmath.Pose {
		return poses[name]
	}), nil
}

// DefaultMission returns the poses of DefaultRoute.
func DefaultMission() []spatialmath.Pose {
	route, err := Route(DefaultRoute...)
	if err != nil {
		panic(err)
	}
	return route
}
