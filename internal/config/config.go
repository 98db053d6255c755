// Package config loads the optional settings file and merges it with
// command-line flags. Precedence: explicit flag > config file > flag
// default.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// File is the on-disk configuration. Keys mirror the command-line flag
// names. Pointer fields distinguish "absent" from zero values.
type File struct {
	Input       *string `json:"input" yaml:"input"`
	Mapping     *string `json:"mapping" yaml:"mapping"`
	Token       *string `json:"token" yaml:"token"`
	FormID      *string `json:"form-id" yaml:"form-id"`
	Server      *string `json:"server" yaml:"server"`
	KCServer    *string `json:"kc-server" yaml:"kc-server"`
	KFServer    *string `json:"kf-server" yaml:"kf-server"`
	FormhubUUID *string `json:"formhub-uuid" yaml:"formhub-uuid"`
	VersionID   *string `json:"version-id" yaml:"version-id"`
	FormVersion *string `json:"form-version" yaml:"form-version"`
	Output      *string `json:"output" yaml:"output"`
	MainTable   *string `json:"main-table" yaml:"main-table"`
	UseLabels   *bool   `json:"use-labels" yaml:"use-labels"`
	ChoiceMode  *string `json:"choice-mode" yaml:"choice-mode"`
	Concurrency *int    `json:"concurrency" yaml:"concurrency"`
	Record      *string `json:"record" yaml:"record"`
	DryRun      *bool   `json:"dry-run" yaml:"dry-run"`
	StopOnError *bool   `json:"stop-on-error" yaml:"stop-on-error"`
}

// Load reads a config file, parsed as YAML for .yaml/.yml paths and as
// JSON otherwise.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var f File

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &f)
	default:
		err = json.Unmarshal(data, &f)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &f, nil
}

// Apply copies config values onto the flags the command line left
// untouched. Keys without a matching flag are skipped, so one file can
// serve every subcommand.
func (f *File) Apply(flags *pflag.FlagSet) error {
	for name, value := range f.values() {
		flag := flags.Lookup(name)
		if flag == nil || flag.Changed {
			continue
		}

		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("config key %s: %w", name, err)
		}
	}

	return nil
}

func (f *File) values() map[string]string {
	vals := make(map[string]string)

	putString := func(name string, v *string) {
		if v != nil {
			vals[name] = *v
		}
	}

	putBool := func(name string, v *bool) {
		if v != nil {
			vals[name] = strconv.FormatBool(*v)
		}
	}

	putString("input", f.Input)
	putString("mapping", f.Mapping)
	putString("token", f.Token)
	putString("form-id", f.FormID)
	putString("server", f.Server)
	putString("kc-server", f.KCServer)
	putString("kf-server", f.KFServer)
	putString("formhub-uuid", f.FormhubUUID)
	putString("version-id", f.VersionID)
	putString("form-version", f.FormVersion)
	putString("output", f.Output)
	putString("main-table", f.MainTable)
	putString("choice-mode", f.ChoiceMode)
	putString("record", f.Record)

	putBool("use-labels", f.UseLabels)
	putBool("dry-run", f.DryRun)
	putBool("stop-on-error", f.StopOnError)

	if f.Concurrency != nil {
		vals["concurrency"] = strconv.Itoa(*f.Concurrency)
	}

	return vals
}
