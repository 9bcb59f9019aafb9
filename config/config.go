// Package config defines the on-disk configuration of a simulation run.
package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/decbot-sim/fieldsim/components/base/mecanum"
	"github.com/decbot-sim/fieldsim/control"
	"github.com/decbot-sim/fieldsim/field"
	"github.com/decbot-sim/fieldsim/logging"
	"github.com/decbot-sim/fieldsim/spatialmath"
	"github.com/decbot-sim/fieldsim/telemetry"
	"github.com/decbot-sim/fieldsim/utils"
)

// Config describes one simulation: the robot, its controller, the mission and the surfaces around it.
// The calibration block is shared by the simulated base and the pose follower.
type Config struct {
	TickPeriod    time.Duration       `json:"tick_period"`
	DT            float64             `json:"dt" jsonschema:"minimum=0,exclusiveMinimum=true"`
	Dwell         time.Duration       `json:"dwell"`
	Inconsistency float64             `json:"inconsistency" jsonschema:"minimum=0"`
	Seed          int64               `json:"seed"`
	StopWhenDone  bool                `json:"stop_when_done"`
	Calibration   mecanum.Calibration `json:"calibration"`
	Gains         control.Gains       `json:"gains"`
	Response      control.Response    `json:"response"`
	Mission       MissionConfig       `json:"mission"`
	Telemetry     TelemetryConfig     `json:"telemetry"`
	Web           WebConfig           `json:"web"`
	LogLevel      logging.Level       `json:"log_level"`

	ConfigFilePath string `json:"-"`
}

// MissionConfig selects the waypoints. Poses take precedence over Route; with neither the
// default mission is flown.
type MissionConfig struct {
	Route []string     `json:"route,omitempty"`
	Poses []PoseConfig `json:"poses,omitempty"`
}

// PoseConfig is a waypoint given inline.
type PoseConfig struct {
	Name       string  `json:"name,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	HeadingDeg float64 `json:"heading_deg"`
}

// Pose converts to a field pose.
func (p PoseConfig) Pose() spatialmath.Pose {
	return spatialmath.NewPoseFromDegrees(p.X, p.Y, p.HeadingDeg)
}

// TelemetryConfig configures the telemetry console.
type TelemetryConfig struct {
	StaleAfter time.Duration `json:"stale_after"`
}

// WebConfig configures the read-only observer server. An empty address disables it.
type WebConfig struct {
	Address string `json:"address,omitempty"`
}

// Default returns the configuration of the reference robot flying the default mission.
func Default() Config {
	return Config{
		TickPeriod:    20 * time.Millisecond,
		DT:            0.02,
		Dwell:         time.Second,
		Inconsistency: 0.05,
		Calibration:   mecanum.DefaultCalibration(),
		Gains:         control.DefaultGains(),
		Response:      control.DefaultResponse(),
		Telemetry:     TelemetryConfig{StaleAfter: telemetry.DefaultStaleAfter},
		LogLevel:      logging.INFO,
	}
}

// Waypoints resolves the mission to field poses.
func (c Config) Waypoints() ([]spatialmath.Pose, error) {
	switch {
	case len(c.Mission.Poses) > 0:
		out := make([]spatialmath.Pose, 0, len(c.Mission.Poses))
		for _, p := range c.Mission.Poses {
			out = append(out, p.Pose())
		}
		return out, nil
	case len(c.Mission.Route) > 0:
		return field.Route(c.Mission.Route...)
	default:
		return field.DefaultMission(), nil
	}
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	var err error
	if c.TickPeriod <= 0 {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			utils.NewMustBePositiveError("tick_period", c.TickPeriod)))
	}
	if !(c.DT > 0) || !utils.IsFinite(c.DT) {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			utils.NewMustBePositiveError("dt", c.DT)))
	}
	if c.Dwell < 0 {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			errors.Errorf("dwell must be non-negative, got %v", c.Dwell)))
	}
	if c.Inconsistency < 0 || !utils.IsFinite(c.Inconsistency) {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			errors.Errorf("inconsistency must be a non-negative number, got %v", c.Inconsistency)))
	}
	if c.Telemetry.StaleAfter < 0 {
		err = multierr.Append(err, goutils.NewConfigValidationError(joinPath(path, "telemetry"),
			errors.Errorf("stale_after must be non-negative, got %v", c.Telemetry.StaleAfter)))
	}
	if c.LogLevel < logging.DEBUG || c.LogLevel > logging.ERROR {
		err = multierr.Append(err, goutils.NewConfigValidationError(path,
			errors.Errorf("unknown log_level %d", c.LogLevel)))
	}

	err = multierr.Combine(
		err,
		c.Calibration.Validate(joinPath(path, "calibration")),
		c.Gains.Validate(joinPath(path, "gains")),
		c.Response.Validate(joinPath(path, "response")),
		c.validateMission(joinPath(path, "mission")),
	)
	return err
}

func (c *Config) validateMission(path string) error {
	if len(c.Mission.Poses) > 0 && len(c.Mission.Route) > 0 {
		return goutils.NewConfigValidationError(path, errors.New("set either route or poses, not both"))
	}
	var err error
	for idx, p := range c.Mission.Poses {
		if !p.Pose().IsFinite() {
			err = multierr.Append(err, goutils.NewConfigValidationError(fmt.Sprintf("%s.poses.%d", path, idx),
				errors.New("pose must be finite")))
		}
	}
	if _, rErr := c.Waypoints(); rErr != nil {
		err = multierr.Append(err, goutils.NewConfigValidationError(path, rErr))
	}
	return err
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

var (
	durationType = reflect.TypeOf(time.Duration(0))
	levelType    = reflect.TypeOf(logging.Level(0))
)

// Schema returns the JSON schema of Config. Durations are strings such as "20ms" and the log level
// is one of its names.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			switch t {
			case durationType:
				return &jsonschema.Schema{Type: "string", Pattern: `^([0-9.]+(ns|us|µs|ms|s|m|h))+$`}
			case levelType:
				return &jsonschema.Schema{
					Type: "string",
					Enum: []interface{}{"debug", "info", "warn", "error"},
				}
			default:
				return nil
			}
		},
	}
	return r.Reflect(&Config{})
}
