package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags(opts *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringVar(&opts.ServiceURL, "service", "", "")
	fs.DurationVar(&opts.Timeout, "timeout", DefaultTimeout, "")
	fs.IntVar(&opts.Rate, "rate", 0, "")
	fs.StringVar(&opts.OutputFormat, "format", DefaultFormat, "")
	fs.StringVar(&opts.OutputDir, "output-dir", DefaultOutputDir, "")
	fs.BoolVar(&opts.Impersonate, "impersonate", false, "")
	return fs
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	opts := &Options{}
	fs := testFlags(opts)
	require.NoError(t, fs.Parse(nil))

	opts.ConfigFile = writeConfig(t, "service: https://svc.example.com/\nrate: 2\noutput-dir: /tmp/out\nimpersonate: true\n")
	require.NoError(t, Load(fs, opts))

	assert.Equal(t, "https://svc.example.com", opts.ServiceURL)
	assert.Equal(t, 2, opts.Rate)
	assert.Equal(t, "/tmp/out", opts.OutputDir)
	assert.True(t, opts.Impersonate)
	assert.Equal(t, DefaultTimeout, opts.Timeout)
	assert.Equal(t, "text", opts.OutputFormat)
}

func TestLoadFlagsOverrideFile(t *testing.T) {
	opts := &Options{}
	fs := testFlags(opts)
	require.NoError(t, fs.Parse([]string{"--service", "http://localhost:5000", "--timeout", "5s"}))

	opts.ConfigFile = writeConfig(t, "service: https://svc.example.com\ntimeout: 90s\n")
	require.NoError(t, Load(fs, opts))

	assert.Equal(t, "http://localhost:5000", opts.ServiceURL)
	assert.Equal(t, 5*time.Second, opts.Timeout)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("PICKNFETCH_SERVICE", "https://env.example.com")
	t.Setenv("HOME", t.TempDir())

	opts := &Options{}
	fs := testFlags(opts)
	require.NoError(t, fs.Parse(nil))
	require.NoError(t, Load(fs, opts))

	assert.Equal(t, "https://env.example.com", opts.ServiceURL)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	opts := &Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")}
	fs := testFlags(opts)
	require.NoError(t, fs.Parse([]string{"--service", "http://localhost:5000"}))

	assert.Error(t, Load(fs, opts))
}

func TestValidate(t *testing.T) {
	base := func() *Options {
		return &Options{
			ServiceURL:   "http://localhost:5000",
			OutputFormat: "text",
			Timeout:      time.Second,
		}
	}

	require.NoError(t, Validate(base()))

	tests := []struct {
		name   string
		mutate func(o *Options)
	}{
		{"missing service", func(o *Options) { o.ServiceURL = "" }},
		{"service without scheme", func(o *Options) { o.ServiceURL = "localhost:5000" }},
		{"bad format", func(o *Options) { o.OutputFormat = "xml" }},
		{"bad sort", func(o *Options) { o.SortBy = "date" }},
		{"negative rate", func(o *Options) { o.Rate = -1 }},
		{"zero timeout", func(o *Options) { o.Timeout = 0 }},
		{"list with selection", func(o *Options) { o.List = true; o.All = true }},
		{"all with select", func(o *Options) { o.All = true; o.Select = []int{1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := base()
			tt.mutate(o)
			assert.Error(t, Validate(o))
		})
	}
}

func TestHasSelection(t *testing.T) {
	assert.False(t, (&Options{}).HasSelection())
	assert.True(t, (&Options{All: true}).HasSelection())
	assert.True(t, (&Options{Select: []int{0}}).HasSelection())
	assert.True(t, (&Options{Match: []string{"*.txt"}}).HasSelection())
	assert.True(t, (&Options{RetryFrom: "r.json"}).HasSelection())
}
