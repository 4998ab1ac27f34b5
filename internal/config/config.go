package config

import "time"

// Options holds all configuration for a picknfetch run.
type Options struct {
	// Target
	URL         string
	RequestFile string // path to raw HTTP request file (e.g. Burp export)
	ServiceURL  string // base URL of the inspection/extraction service

	// Identity
	Cookies     string
	Impersonate bool
	UserAgent   string // custom impersonation string; implies Impersonate

	// Selection
	List      bool
	All       bool
	Select    []int
	Match     []string // glob patterns on entry names
	Exclude   []string
	MaxSize   int64 // 0 = no limit
	NamesFile string
	RetryFrom string // report file from a previous run

	// Performance
	Timeout time.Duration
	Rate    int // extraction requests per second, 0 = unlimited

	// HTTP
	Proxy string

	// Output
	OutputDir      string
	ReportFile     string
	OutputFormat   string // "text", "json", "csv"
	Quiet          bool
	NoColor        bool
	SortBy         string // listing order: index, name, size, offset
	Tree           bool
	OnDeliveredCmd string

	// Logging
	ConfigFile string
	LogFile    string
	LogLevel   string
	Verbose    bool
}

// HasSelection reports whether any flag that narrows the entry list to a
// download batch was given. Without one, a run only lists entries.
func (o *Options) HasSelection() bool {
	return o.All || len(o.Select) > 0 || len(o.Match) > 0 ||
		o.NamesFile != "" || o.RetryFrom != ""
}
