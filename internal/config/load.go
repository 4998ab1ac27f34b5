package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Defaults for settings that may also come from the config file.
const (
	DefaultTimeout   = 60 * time.Second
	DefaultFormat    = "text"
	DefaultOutputDir = "."
	DefaultLogLevel  = "warn"
	EnvPrefix        = "PICKNFETCH"
)

// Load merges defaults, the YAML config file, PICKNFETCH_* environment
// variables and explicitly set flags (highest priority) into opts.
//
// The config file is opts.ConfigFile when set (and must exist), otherwise
// ~/.config/picknfetch/config.yaml when present.
func Load(flags *pflag.FlagSet, opts *Options) error {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setViperDefaults(v)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("binding flags: %w", err)
		}
	}

	explicit := opts.ConfigFile != ""
	if explicit {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "picknfetch"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	opts.ServiceURL = strings.TrimRight(v.GetString("service"), "/")
	opts.Cookies = v.GetString("cookies")
	opts.Impersonate = v.GetBool("impersonate")
	opts.UserAgent = v.GetString("user-agent")
	opts.Timeout = v.GetDuration("timeout")
	opts.Rate = v.GetInt("rate")
	opts.Proxy = v.GetString("proxy")
	opts.OutputDir = v.GetString("output-dir")
	opts.OutputFormat = v.GetString("format")
	opts.NoColor = v.GetBool("no-color")
	opts.LogFile = v.GetString("log-file")
	opts.LogLevel = v.GetString("log-level")

	return Validate(opts)
}

func setViperDefaults(v *viper.Viper) {
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("rate", 0)
	v.SetDefault("output-dir", DefaultOutputDir)
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("log-level", DefaultLogLevel)
}

// Validate checks option combinations that cannot be expressed by flag types.
func Validate(opts *Options) error {
	if opts.ServiceURL == "" {
		return fmt.Errorf("service URL required: use --service, %s_SERVICE or the config file", EnvPrefix)
	}
	if !strings.HasPrefix(opts.ServiceURL, "http://") && !strings.HasPrefix(opts.ServiceURL, "https://") {
		return fmt.Errorf("service URL %q must start with http:// or https://", opts.ServiceURL)
	}
	switch opts.OutputFormat {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("--format must be one of: text, json, csv")
	}
	switch opts.SortBy {
	case "", "index", "name", "size", "offset":
	default:
		return fmt.Errorf("--sort must be one of: index, name, size, offset")
	}
	if opts.Rate < 0 {
		return fmt.Errorf("--rate must not be negative")
	}
	if opts.MaxSize < 0 {
		return fmt.Errorf("--max-size must not be negative")
	}
	if opts.Timeout <= 0 {
		return fmt.Errorf("--timeout must be positive")
	}
	if opts.List && opts.HasSelection() {
		return fmt.Errorf("--list cannot be combined with selection flags")
	}
	if opts.All && len(opts.Select) > 0 {
		return fmt.Errorf("--all and --select are mutually exclusive")
	}
	return nil
}
