package git

import (
	"path/filepath"

	"github.com/Nivl/git-go/internal/env"
	"github.com/Nivl/git-go/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
	ini "gopkg.in/ini.v1"
)

// Config is a read-only view of a repository's local ".git/config"
// file. This module only reads the repository-local tier: it has no
// notion of a global (~/.gitconfig) or system tier to merge on top of
// it.
type Config struct {
	file *ini.File
}

// GetString returns the string value at section.key, or def if unset.
func (c *Config) GetString(section, key, def string) string {
	if c == nil {
		return def
	}
	return c.file.Section(section).Key(key).MustString(def)
}

// GetBool returns the boolean value at section.key, or def if unset
// or unparseable.
func (c *Config) GetBool(section, key string, def bool) bool {
	if c == nil {
		return def
	}
	return c.file.Section(section).Key(key).MustBool(def)
}

// loadConfig reads gitDirPath's "config" file. $GIT_CONFIG, when set,
// overrides which file is read. A missing config file isn't an
// error, it's the normal state for a repository that has never had
// anything configured. loadConfig returns (nil, nil) for it,
// letting Get*/IsBareOverride fall through to their defaults.
func loadConfig(fs afero.Fs, gitDirPath string) (*Config, error) {
	path := filepath.Join(gitDirPath, gitpath.ConfigPath)
	if override := env.NewFromOs().Get("GIT_CONFIG"); override != "" {
		path = override
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, nil //nolint:nilerr // absent config is a valid, empty state
	}

	file, err := ini.Load(data)
	if err != nil {
		return nil, xerrors.Errorf("could not parse %s: %w", path, err)
	}
	return &Config{file: file}, nil
}

// IsBareOverride reports whether "core.bare" is set in the config,
// and what it's set to. Layout resolution already decides bare-ness
// from on-disk shape; this lets that decision be overridden the way a
// real checkout's config can contradict its directory layout (e.g. a
// non-bare clone pointed at by $GIT_DIR with core.bare=true).
func (c *Config) IsBareOverride() (value bool, isSet bool) {
	if c == nil {
		return false, false
	}
	key := c.file.Section("core").Key("bare")
	if key.String() == "" {
		return false, false
	}
	b, err := key.Bool()
	if err != nil {
		return false, false
	}
	return b, true
}
