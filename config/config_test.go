package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/decbot-sim/fieldsim/field"
	"github.com/decbot-sim/fieldsim/logging"
	"github.com/decbot-sim/fieldsim/spatialmath"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	test.That(t, cfg.Validate(""), test.ShouldBeNil)
	wps, err := cfg.Waypoints()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, wps, test.ShouldResemble, field.DefaultMission())
}

func TestFromReaderKeepsDefaults(t *testing.T) {
	logger := logging.NewTestLogger(t)
	cfg, err := FromReader("inline", strings.NewReader(`{
		"tick_period": "10ms",
		"dwell": "250ms",
		"seed": 42,
		"gains": {"kp_heading": 3},
		"log_level": "debug",
		"mission": {"route": ["RedFarStart", "RedFarShoot", "RedFarPark"]}
	}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.TickPeriod, test.ShouldEqual, 10*time.Millisecond)
	test.That(t, cfg.Dwell, test.ShouldEqual, 250*time.Millisecond)
	test.That(t, cfg.Seed, test.ShouldEqual, int64(42))
	test.That(t, cfg.Gains.KPHeading, test.ShouldEqual, 3.0)
	test.That(t, cfg.Gains.KPTranslation, test.ShouldEqual, 2.0)
	test.That(t, cfg.Calibration, test.ShouldResemble, Default().Calibration)
	test.That(t, cfg.LogLevel, test.ShouldEqual, logging.DEBUG)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "inline")

	wps, err := cfg.Waypoints()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, wps, test.ShouldHaveLength, 3)
	test.That(t, wps[0].X, test.ShouldEqual, 100.0)

	cfg, err = FromReader("empty", strings.NewReader(""), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.TickPeriod, test.ShouldEqual, Default().TickPeriod)
}

func TestFromReaderErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, tc := range []struct {
		name     string
		input    string
		contains []string
	}{
		{"bad json", `{`, []string{"cannot parse config"}},
		{"unknown key", `{"tick_rate": "5ms"}`, []string{"tick_rate"}},
		{"bad duration", `{"dwell": "soon"}`, []string{"dwell"}},
		{"bad level", `{"log_level": "loud"}`, []string{"unknown log level"}},
		{"unknown route", `{"mission": {"route": ["BlueFarStart", "Moon"]}}`, []string{`"Moon"`}},
		{
			"invalid numbers",
			`{"dt": 0, "inconsistency": -1, "calibration": {"motor_to_linear": -3}, "gains": {"position_tolerance": 0}}`,
			[]string{"dt must be positive", "inconsistency", "motor_to_linear", "position_tolerance"},
		},
		{
			"route and poses",
			`{"mission": {"route": ["BlueFarStart"], "poses": [{"x": 1, "y": 2, "heading_deg": 0}]}}`,
			[]string{"not both"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromReader(tc.name, strings.NewReader(tc.input), logger)
			test.That(t, err, test.ShouldNotBeNil)
			for _, s := range tc.contains {
				test.That(t, err.Error(), test.ShouldContainSubstring, s)
			}
		})
	}
}

func TestReadSubstitutesEnvironment(t *testing.T) {
	t.Setenv("FIELDSIM_TEST_SEED", "7")
	t.Setenv("FIELDSIM_TEST_ADDR", "localhost:8099")
	path := filepath.Join(t.TempDir(), "sim.json")
	err := os.WriteFile(path, []byte(`{
		"seed": ${FIELDSIM_TEST_SEED},
		"web": {"address": "${FIELDSIM_TEST_ADDR}"},
		"mission": {"poses": [
			{"name": "a", "x": 10, "y": 10, "heading_deg": 90},
			{"name": "b", "x": 30, "y": 10, "heading_deg": 0}
		]}
	}`), 0o600)
	test.That(t, err, test.ShouldBeNil)

	cfg, err := Read(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Seed, test.ShouldEqual, int64(7))
	test.That(t, cfg.Web.Address, test.ShouldEqual, "localhost:8099")
	wps, err := cfg.Waypoints()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, wps, test.ShouldResemble, []spatialmath.Pose{
		spatialmath.NewPoseFromDegrees(10, 10, 90),
		spatialmath.NewPoseFromDegrees(30, 10, 0),
	})

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValidateCollectsPaths(t *testing.T) {
	cfg := Default()
	cfg.Gains.MotorDeadband = 1
	cfg.Response.LinearDecel = -1
	err := cfg.Validate("sim")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "sim.gains")
	test.That(t, err.Error(), test.ShouldContainSubstring, "sim.response")
}

func TestSchema(t *testing.T) {
	data, err := json.Marshal(Schema())
	test.That(t, err, test.ShouldBeNil)
	out := string(data)
	for _, s := range []string{`"tick_period"`, `"motor_to_linear"`, `"kp_heading"`, `"stale_after"`, `"heading_deg"`} {
		test.That(t, out, test.ShouldContainSubstring, s)
	}
	test.That(t, out, test.ShouldContainSubstring, `"enum":["debug","info","warn","error"]`)
	test.That(t, out, test.ShouldNotContainSubstring, `"ConfigFilePath"`)
}
