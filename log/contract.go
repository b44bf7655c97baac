// SPDX-License-Identifier: ice License 1.0

package log

import (
	"github.com/rs/zerolog"
)

// Private API.

const (
	stackFramesToSkip = 2
	jsonEncoder       = "json"
	defaultLevel      = "info"
)

// .
var (
	//nolint:gochecknoglobals // There's one logger for the whole application.
	logger *zerolog.Logger
)

type (
	config struct {
		Encoder string `yaml:"encoder" mapstructure:"encoder"`
		Level   string `yaml:"level" mapstructure:"level"`
	}
)
