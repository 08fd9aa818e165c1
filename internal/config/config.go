// Package config resolves the shell's environment contract and discovers
// its on-disk configuration files (spec.md §6, "Environment contract" and
// "Config discovery").
package config

import (
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Env is the subset of the process environment the shell contract reads
// at startup, loaded with envconfig so every field's source variable is
// declared in one place instead of scattered os.Getenv calls. No field has
// a default value.
type Env struct {
	Path      string `envconfig:"PATH"`
	Home      string `envconfig:"HOME"`
	HistFile  string `envconfig:"HISTFILE"`
	Shell     string `envconfig:"SHELL"`
	XDGConfig string `envconfig:"XDG_CONFIG_HOME"`
}

// LoadEnv populates an Env from the current process environment.
func LoadEnv() (Env, error) {
	var e Env
	err := envconfig.Process("", &e)
	return e, err
}

// Paths is the resolved set of config file locations (spec.md §6,
// "config discovery: base dir prefix `ion`, files `initrc`/`history`").
type Paths struct {
	BaseDir  string
	InitRC   string
	History  string
}

// Discover resolves Paths from env, preferring XDG_CONFIG_HOME/ion when
// set and falling back to $HOME/.config/ion.
func Discover(env Env) Paths {
	base := env.XDGConfig
	if base == "" && env.Home != "" {
		base = filepath.Join(env.Home, ".config")
	}
	dir := filepath.Join(base, "ion")
	histFile := env.HistFile
	if histFile == "" {
		histFile = filepath.Join(dir, "history")
	}
	return Paths{
		BaseDir: dir,
		InitRC:  filepath.Join(dir, "initrc"),
		History: histFile,
	}
}

// EnsureBaseDir creates the config base directory if it does not already
// exist, returning any error other than "already exists".
func EnsureBaseDir(p Paths) error {
	if p.BaseDir == "" {
		return nil
	}
	if _, err := os.Stat(p.BaseDir); err == nil {
		return nil
	}
	return os.MkdirAll(p.BaseDir, 0o755)
}
