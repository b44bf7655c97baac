// SPDX-License-Identifier: ice License 1.0

package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	appCfg "github.com/bid-agri/console/config"
)

//nolint:gochecknoinits // The logger is global, so it's initialized once, in init.
func init() {
	var cfg config
	appCfg.MustLoadFromKey("logger", &cfg, &config{Encoder: "console", Level: defaultLevel})
	Setup(os.Stderr, strings.EqualFold(cfg.Encoder, jsonEncoder), cfg.Level)
}

// Setup rebuilds the global logger, writing into w. The standard library logger is redirected into it as well.
func Setup(w io.Writer, isJSON bool, level string) { //nolint:revive // Control coupling is intended here.
	zerolog.DisableSampling(true)
	zerolog.ErrorStackMarshaler = errorStackMarshaller //nolint:reassign // It's the documented way.
	zerolog.InterfaceMarshalFunc = json.Marshal
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}
	lgr, err := buildLogger(w, isJSON, level)
	if err != nil {
		panic(errors.Wrap(err, "failed to build logger"))
	}
	logger = lgr
	stdlog.SetFlags(0)
	stdlog.SetOutput(lgr)
}

func buildLogger(w io.Writer, isJSON bool, level string) (*zerolog.Logger, error) { //nolint:revive // .
	if !isJSON {
		w = &zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339Nano,
			PartsOrder: []string{
				zerolog.LevelFieldName,
				zerolog.TimestampFieldName,
				zerolog.MessageFieldName,
			},
			PartsExclude: []string{
				zerolog.ErrorStackFieldName,
				zerolog.CallerFieldName,
			},
		}
	}
	if level == "" {
		level = defaultLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid logger level %q", level)
	}
	lgr := zerolog.New(w).With().Timestamp().Stack().Logger().Level(lvl)

	return &lgr, nil
}

func errorStackMarshaller(err error) any {
	m := pkgerrors.MarshalStack(err)
	if m == nil {
		return nil
	}
	frames, ok := m.([]map[string]string)
	if !ok || len(frames) <= stackFramesToSkip {
		return nil
	}
	stacks := make([]string, 0, len(frames)-stackFramesToSkip)
	for _, frame := range frames[:len(frames)-stackFramesToSkip] {
		stacks = append(stacks, fmt.Sprintf("%s:%s:%s",
			frame[pkgerrors.StackSourceFileName],
			frame[pkgerrors.StackSourceLineName],
			frame[pkgerrors.StackSourceFunctionName]))
	}

	return strings.Join(stacks, "<<")
}

func Error(err error, fields ...any) {
	if err == nil {
		return
	}
	event := logger.Err(err)
	if len(fields) > 0 {
		event = event.Fields(fields)
	}
	event.Send()
}

func Debug(msg string, fields ...any) {
	event := logger.Debug()
	if len(fields) > 0 {
		event = event.Fields(fields)
	}
	event.Msg(msg)
}

func Info(msg string, fields ...any) {
	event := logger.Info()
	if len(fields) > 0 {
		event = event.Fields(fields)
	}
	event.Msg(msg)
}

func Warn(msg string, fields ...any) {
	event := logger.Warn()
	if len(fields) > 0 {
		event = event.Fields(fields)
	}
	event.Msg(msg)
}

func Fatal(anything any, fields ...any) {
	if anything == nil {
		return
	}
	event := logger.Fatal()
	if len(fields) > 0 {
		event = event.Fields(fields)
	}
	switch obj := anything.(type) {
	case error:
		event.Err(obj).Send()
	case string:
		event.Msg(obj)
	default:
		event.Err(errors.Errorf("%#v", obj)).Send()
	}
}

// Panic logs and then panics, if anything is not nil. It's used for unrecoverable startup failures.
func Panic(anything any, fields ...any) {
	if anything == nil {
		return
	}
	event := logger.Panic()
	if len(fields) > 0 {
		event = event.Fields(fields)
	}
	switch obj := anything.(type) {
	case error:
		event.Err(obj).Send()
	case string:
		event.Err(errors.New(obj)).Send()
	default:
		event.Err(errors.Errorf("%#v", obj)).Send()
	}
}

// Request logs one served http request.
func Request(method, path string, status int, latency time.Duration, clientIP string) {
	event := logger.Info()
	if status >= 500 { //nolint:mnd,gomnd // Server errors.
		event = logger.Error()
	}
	event.
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("latency", latency).
		Str("clientIp", clientIP).
		Msg("request served")
}

func Level() string {
	return logger.GetLevel().String()
}
