package config

import (
	"reflect"
	"strings"

	"keymaster/core/fetch"
	"keymaster/core/logger"
	"keymaster/core/server"
	"keymaster/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Run holds defaults for a sync run. CLI flags override them.
	Run RunConfig `mapstructure:"run"`
	// Fetch holds configuration for HTTP document downloads.
	Fetch fetch.Config `mapstructure:"fetch"`
	// Storage holds credentials for an S3-compatible keystore.
	Storage storage.Config `mapstructure:"storage"`
	// Server holds configuration for the HTTP control surface.
	Server server.Config `mapstructure:"server"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
}

// RunConfig holds the inputs of a sync run.
type RunConfig struct {
	// SettingsURL is the location of the settings document.
	SettingsURL string `mapstructure:"settings_url" default:""`
	// Config is the name of the server config to deploy.
	Config string `mapstructure:"config" default:""`
	// Verbose enables debug lines in the run transcript.
	Verbose bool `mapstructure:"verbose" default:"false"`
	// DryRun reports remote mutations instead of executing them.
	DryRun bool `mapstructure:"dry_run" default:"false"`
	// StagingDir is the local scratch directory. Empty uses the OS temp dir.
	StagingDir string `mapstructure:"staging_dir" default:""`
	// RemoteTimeoutSeconds bounds the remote store connection and commands.
	RemoteTimeoutSeconds int `mapstructure:"remote_timeout_seconds" default:"30"`
	// KnownHostsFile pins SFTP host keys.
	KnownHostsFile string `mapstructure:"known_hosts_file" default:""`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. RUN_SETTINGS_URL -> run.settings_url)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues walks the config struct and registers every `mapstructure` key
// with its `default` tag, so AutomaticEnv can resolve RUN_*, FETCH_* and the
// other section variables. Fields tagged "-" are not configurable.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" || !field.IsExported() {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// Sections recurse; their keys become "section.key"
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// An empty default still registers the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
