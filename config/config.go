// SPDX-License-Identifier: ice License 1.0

package config

import (
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

//nolint:gochecknoinits // The configuration is loaded once, for the whole runtime.
func init() {
	loadFirstApplicationConfigFile()
	dotEnvPath := `.env`
	for range 5 {
		if err := godotenv.Load(dotEnvPath); err == nil {
			break
		}
		dotEnvPath = fmt.Sprintf(`../%v`, dotEnvPath)
	}
}

// MustLoadFromKey unmarshals the subtree under key into cfg.
// Zero valued fields are then filled from the first non nil defaults value, if any.
func MustLoadFromKey[T any](key string, cfg *T, defaults ...*T) {
	if err := viper.UnmarshalKey(key, cfg); err != nil {
		log.Panic(errors.Wrapf(err, "failed to load config by key %q", key))
	}
	for _, def := range defaults {
		if def == nil {
			continue
		}
		if err := mergo.Merge(cfg, def); err != nil {
			log.Panic(errors.Wrapf(err, "failed to merge defaults for config key %q", key))
		}

		break
	}
}

// Env returns the first non empty environment variable out of `<MODULE>_<suffix>` and `<suffix>`,
// where MODULE is the upper-cased applicationYAMLKey.
func Env(applicationYAMLKey, suffix string) string {
	module := strings.ToUpper(strings.NewReplacer("-", "_", "/", "_", ".", "_").Replace(applicationYAMLKey))
	if val := os.Getenv(fmt.Sprintf("%s_%s", module, suffix)); val != "" {
		return val
	}

	return os.Getenv(suffix)
}

func loadFirstApplicationConfigFile() {
	for _, f := range findAllApplicationConfigFiles() {
		viper.SetConfigFile(f)
		if err := viper.ReadInConfig(); err == nil {
			return
		} else if !errors.Is(err, os.ErrNotExist) {
			log.Panic(err)
		}
	}

	log.Panic(errors.New("could not find any application.yaml files"))
}

func findAllApplicationConfigFiles() []string {
	var files []string
	var hints []string

	if p, err := os.Getwd(); err == nil {
		hints = append(hints, p)
	}
	if p, err := os.Executable(); err == nil {
		hints = append(hints, path.Dir(filepath.Join(p, "..")))
	}

	for _, dir := range hints {
		files = append(files, glob(filepath.Join(dir, ".testdata", "application.yaml"))...)
		files = append(files, glob(filepath.Join(dir, "application.yaml"))...)
	}
	//nolint:dogsled // Only the file is needed.
	_, callerFile, _, _ := runtime.Caller(0)
	files = append(files, glob(filepath.Join(filepath.Dir(callerFile), "..", "application.yaml"))...)

	return append(files, glob(filepath.Join(filepath.Dir(callerFile), "..", "..", "application.yaml"))...)
}

func glob(pattern string) []string {
	f, err := filepath.Glob(pattern)
	if err != nil {
		log.Println(errors.Wrapf(err, "glob failed for [%v]", pattern))

		return nil
	}

	return f
}
