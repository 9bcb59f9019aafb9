package config

import (
	"bytes"
	"encoding/json"
	"io"
	"reflect"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"github.com/decbot-sim/fieldsim/logging"
	"github.com/decbot-sim/fieldsim/utils"
)

// Read reads a config from the given file, expanding environment variables first.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
// Fields missing from the input keep their Default values.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			raw = map[string]interface{}{}
		} else {
			return nil, errors.Wrap(err, "cannot parse config")
		}
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			stringToLevelHook,
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		TagName:          "json",
		Result:           &cfg,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, errors.Wrapf(err, "cannot decode config %q", originalPath)
	}
	cfg.ConfigFilePath = originalPath

	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debugw("config loaded", "path", originalPath, "seed", cfg.Seed, "tick_period", cfg.TickPeriod)
	}
	return &cfg, nil
}

func stringToLevelHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != levelType {
		return data, nil
	}
	s, ok := data.(string)
	if !ok {
		return nil, utils.NewUnexpectedTypeError(s, data)
	}
	return logging.LevelFromString(s)
}
