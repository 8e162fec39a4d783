// Package config loads the launcher configuration from the YAML config file,
// S2KLAUNCH_* environment variables, and bound command-line flags (in
// increasing precedence). Only non-secret settings are kept here; the bridge
// token and the journal DSN go to the OS keychain.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"s2klaunch/cli/internal/launcher"
	"s2klaunch/cli/internal/project"
	"s2klaunch/cli/internal/transport"
	"s2klaunch/cli/internal/xdg"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "S2KLAUNCH"

// Config holds the non-sensitive launcher settings.
type Config struct {
	// Client selects the API binding: "com" (default) or "net".
	Client string `mapstructure:"client"`
	// Attach connects to a running instance instead of spawning one.
	Attach bool `mapstructure:"attach"`
	// ProgramPath is an explicit SAP2000.exe to spawn. Ignored when attaching.
	ProgramPath string `mapstructure:"program_path"`
	// RemoteComputer spawns on a remote host through CSiAPIService.
	// Only used when neither Attach nor ProgramPath is set.
	RemoteComputer string `mapstructure:"remote_computer"`
	// Path is the destination directory for saved models.
	Path string `mapstructure:"path"`
	// Filename is the model file name; ".sdb" is appended when missing.
	Filename string `mapstructure:"filename"`
	// Units is the unit preset name applied on setup (default "kN_m_C").
	Units string `mapstructure:"units"`
	// Groups are defined after setup, in order.
	Groups []string `mapstructure:"groups"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`

	Bridge  BridgeConfig  `mapstructure:"bridge"`
	Journal JournalConfig `mapstructure:"journal"`

	// ProjectInfo keeps the key order of the project_info mapping, so it is
	// decoded from the file with yaml.v3 rather than through viper.
	ProjectInfo project.ProjectInfo `mapstructure:"-"`
}

// BridgeConfig configures the managed-runtime bridge host.
type BridgeConfig struct {
	// Address is the host:port of the bridge gRPC endpoint.
	Address string `mapstructure:"address"`
	// Insecure disables TLS even for non-loopback addresses.
	Insecure bool `mapstructure:"insecure"`
}

// JournalConfig configures the launch journal.
type JournalConfig struct {
	// Enabled records every launch cycle to PostgreSQL.
	Enabled bool `mapstructure:"enabled"`
}

// DefaultFilename is used when no filename is configured.
const DefaultFilename = "default.sdb"

// Extension is the SAP2000 model file extension, without the dot.
const Extension = "sdb"

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Client:   string(transport.ModeCOM),
		Filename: DefaultFilename,
		Units:    project.Default.String(),
		LogLevel: "info",
		Bridge: BridgeConfig{
			Address: "localhost:50851",
		},
	}
}

// SetDefaults registers default values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("client", d.Client)
	v.SetDefault("attach", d.Attach)
	v.SetDefault("program_path", d.ProgramPath)
	v.SetDefault("remote_computer", d.RemoteComputer)
	v.SetDefault("path", d.Path)
	v.SetDefault("filename", d.Filename)
	v.SetDefault("units", d.Units)
	v.SetDefault("groups", []string{})
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("bridge.address", d.Bridge.Address)
	v.SetDefault("bridge.insecure", d.Bridge.Insecure)
	v.SetDefault("journal.enabled", d.Journal.Enabled)
}

// File returns the default config file path.
func File() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads configuration into c using v. When file is empty the default
// config file is used if it exists; a missing default file yields defaults.
// An explicitly named file must exist.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := file != ""
	if !explicit {
		f, err := File()
		if err != nil {
			return Config{}, err
		}
		file = f
	}
	v.SetConfigFile(file)

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if used := v.ConfigFileUsed(); used != "" {
		info, err := readProjectInfo(used)
		if err != nil {
			return Config{}, err
		}
		c.ProjectInfo = info
	}

	c.Filename = NormalizeFilename(c.Filename)
	return c, c.Validate()
}

// readProjectInfo decodes the project_info section of a YAML file in order.
// A missing file yields no entries.
func readProjectInfo(path string) (project.ProjectInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var doc struct {
		ProjectInfo project.ProjectInfo `yaml:"project_info"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc.ProjectInfo, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	if _, err := transport.ParseMode(c.Client); err != nil {
		return err
	}
	if _, err := project.ParseUnits(c.Units); err != nil {
		return err
	}
	return nil
}

// NormalizeFilename returns DefaultFilename for an empty name and appends
// ".sdb" to a name whose last dot-separated part is not "sdb". It is idempotent.
func NormalizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultFilename
	}
	parts := strings.Split(name, ".")
	if parts[len(parts)-1] != Extension {
		return name + "." + Extension
	}
	return name
}

// Connection returns the immutable connection settings of the launcher.
func (c Config) Connection() (launcher.Config, error) {
	mode, err := transport.ParseMode(c.Client)
	if err != nil {
		return launcher.Config{}, err
	}
	return launcher.Config{
		Mode:        mode,
		Attach:      c.Attach,
		ProgramPath: c.ProgramPath,
		RemoteHost:  c.RemoteComputer,
		Dir:         c.Path,
		Filename:    NormalizeFilename(c.Filename),
	}, nil
}

// Setup returns the project defaults applied to every fresh model.
func (c Config) Setup() (project.Setup, error) {
	units, err := project.ParseUnits(c.Units)
	if err != nil {
		return project.Setup{}, err
	}
	return project.Setup{Units: units, Info: c.ProjectInfo}, nil
}
