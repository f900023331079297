package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/SHG-Insights/pkg/errors"
)

// Every key can be overridden by SHG_<SECTION>_<FIELD>, e.g. SHG_DATABASE_PATH
// or SHG_CACHE_ENABLED.
const envPrefix = "SHG"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, val := range defaultValues() {
		v.SetDefault(key, val)
	}
	return v
}

// SearchPaths lists the files Discover tries, in order.
func SearchPaths() []string {
	paths := []string{"shg.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".shg", "config.yaml"))
	}
	return append(paths, filepath.Join(string(filepath.Separator), "etc", "shg", "config.yaml"))
}

// Discover loads explicit when it is set and otherwise the first existing
// file in SearchPaths.  It returns the path it read, or "" when the result
// came from the environment and defaults alone.
func Discover(explicit string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		return cfg, explicit, err
	}
	for _, p := range SearchPaths() {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	cfg, err := LoadFromEnv()
	return cfg, "", err
}

// Load reads the YAML file at path under SHG_* overrides and defaults.  An
// empty path is LoadFromEnv.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromEnv()
	}
	v, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// LoadFromEnv builds a Config from SHG_* variables and defaults.
func LoadFromEnv() (*Config, error) {
	return decode(newViper())
}

func readFile(path string) (*viper.Viper, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read config file").
			WithDetail(path + ": " + err.Error())
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to decode configuration").
			WithDetail(err.Error())
	}
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid configuration").
			WithDetail(err.Error())
	}
	return &cfg, nil
}

// Watch calls onChange with the re-read Config after each write to path.
// Edits that fail validation are skipped, so the caller keeps its last good
// configuration.  It returns once the watcher is running.
func Watch(path string, onChange func(*Config)) error {
	v, err := readFile(path)
	if err != nil {
		return err
	}
	v.OnConfigChange(func(ev fsnotify.Event) {
		if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
			return
		}
		if cfg, err := decode(v); err == nil {
			onChange(cfg)
		}
	})
	v.WatchConfig()
	return nil
}
