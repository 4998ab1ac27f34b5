package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/maxvaer/picknfetch/internal/config"
	"github.com/maxvaer/picknfetch/internal/logger"
	"github.com/maxvaer/picknfetch/internal/runner"
	"github.com/maxvaer/picknfetch/internal/session"
	"github.com/maxvaer/picknfetch/internal/updater"
	"github.com/maxvaer/picknfetch/pkg/version"
)

var (
	opts       config.Options
	updateFlag bool
)

type flagGroup struct {
	title string
	flags []string
}

var helpGroups = []flagGroup{
	{"TARGET", []string{"url", "request-file", "service"}},
	{"IDENTITY", []string{"cookies", "impersonate", "user-agent"}},
	{"SELECTION", []string{"list", "all", "select", "match", "exclude", "max-size", "names-file", "retry-from"}},
	{"RATE-LIMIT", []string{"timeout", "rate"}},
	{"HTTP", []string{"proxy"}},
	{"OUTPUT", []string{"output-dir", "report", "format", "quiet", "no-color", "sort", "tree", "on-delivered"}},
	{"CONFIGURATION", []string{"config", "log-file", "log-level", "verbose"}},
	{"UPDATE", []string{"update"}},
}

var rootCmd = &cobra.Command{
	Use:     "picknfetch -u <zip-url> -s <service> [flags]",
	Short:   "Download selected files from a remote ZIP without fetching the whole archive",
	Version: version.Version,
	Long: `picknfetch lists the members of a remote ZIP archive through an
inspection service and downloads only the entries you pick. Each entry is
extracted by the service from its byte range and saved as soon as it
arrives; a failed entry never stops the rest of the batch.`,
	Example: `  picknfetch -s http://localhost:5000 -u https://example.com/dataset.zip
  picknfetch -s http://localhost:5000 -u https://example.com/dataset.zip -i 0,4,7 -o out
  picknfetch -u https://example.com/dataset.zip -m '*.csv' -x 'tmp/*' --max-size 10485760
  picknfetch -r browser.req --impersonate --all -o out --report batch.json
  picknfetch -u https://example.com/dataset.zip --retry-from batch.json -o out
  picknfetch -u https://example.com/dataset.zip --sort size --format json
  picknfetch -u https://example.com/dataset.zip --all --on-delivered "sha256sum {path}"`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if updateFlag {
			return nil
		}
		if err := config.Load(cmd.Flags(), &opts); err != nil {
			return err
		}
		if opts.URL == "" && opts.RequestFile == "" {
			_ = cmd.Help()
			fmt.Fprintln(os.Stderr)
			return fmt.Errorf("archive URL required: use -u or --request-file")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if updateFlag {
			return updater.Update(ctx)
		}
		defer logger.Close()
		return runner.Run(ctx, &opts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()

	// Target
	f.StringVarP(&opts.URL, "url", "u", "", "Archive URL")
	f.StringVarP(&opts.RequestFile, "request-file", "r", "", "Raw HTTP request file for the archive (e.g. Burp Suite export)")
	f.StringVarP(&opts.ServiceURL, "service", "s", "", "Inspection service base URL")

	// Identity
	f.StringVarP(&opts.Cookies, "cookies", "c", "", "Cookie header value forwarded to the archive host")
	f.BoolVar(&opts.Impersonate, "impersonate", false, "Present a browser User-Agent to the archive host")
	f.StringVar(&opts.UserAgent, "user-agent", "", "Custom impersonation User-Agent (implies --impersonate)")

	// Selection
	f.BoolVar(&opts.List, "list", false, "Only list archive entries (default without selection flags)")
	f.BoolVar(&opts.All, "all", false, "Select every file entry")
	f.VarP(&intSliceValue{target: &opts.Select}, "select", "i", "Entry indices to download (comma-separated)")
	f.StringSliceVarP(&opts.Match, "match", "m", nil, "Select entries matching these globs")
	f.StringSliceVarP(&opts.Exclude, "exclude", "x", nil, "Leave out entries matching these globs")
	f.Int64Var(&opts.MaxSize, "max-size", 0, "Leave out entries larger than this many bytes")
	f.StringVar(&opts.NamesFile, "names-file", "", "File with one entry name per line (- for stdin)")
	f.StringVar(&opts.RetryFrom, "retry-from", "", "Select the failed entries of a previous --report")

	// Performance
	f.DurationVar(&opts.Timeout, "timeout", config.DefaultTimeout, "Per-request timeout")
	f.IntVar(&opts.Rate, "rate", 0, "Maximum extraction requests per second (0 = unlimited)")

	// HTTP
	f.StringVar(&opts.Proxy, "proxy", "", "HTTP/SOCKS proxy URL for service requests")

	// Output
	f.StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "Directory to save entries in")
	f.StringVar(&opts.ReportFile, "report", "", "Write a JSON batch report (usable with --retry-from)")
	f.StringVar(&opts.OutputFormat, "format", config.DefaultFormat, "Output format: text, json, csv")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "Minimal output")
	f.BoolVar(&opts.NoColor, "no-color", false, "Disable colored output")
	f.StringVar(&opts.SortBy, "sort", "", "Sort the listing: index, name, size, offset")
	f.BoolVar(&opts.Tree, "tree", false, "Print the archive directory tree")
	f.StringVar(&opts.OnDeliveredCmd, "on-delivered", "", "Shell command to run for each delivered entry (receives JSON on stdin)")

	// Configuration
	f.StringVar(&opts.ConfigFile, "config", "", "Config file (default ~/.config/picknfetch/config.yaml)")
	f.StringVar(&opts.LogFile, "log-file", "", "Write JSON logs to this file (rotated)")
	f.StringVar(&opts.LogLevel, "log-level", config.DefaultLogLevel, "Log level: trace, debug, info, warn, error")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Shorthand for --log-level debug")

	// Update
	f.BoolVar(&updateFlag, "update", false, "Update picknfetch to the latest version")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := os.Stderr
		fmt.Fprint(w, helpBanner(cmd.Version))
		fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", cmd.Long, cmd.UseLine())
		fmt.Fprintf(w, "\nExamples:\n%s\n", cmd.Example)
		fmt.Fprintf(w, "\nFlags:\n")
		for _, g := range helpGroups {
			fmt.Fprintf(w, "\n%s:\n", g.title)
			for _, name := range g.flags {
				if f := cmd.Flags().Lookup(name); f != nil {
					fmt.Fprintln(w, formatFlag(f))
				}
			}
		}
		fmt.Fprintln(w)
	})

	// Logging is configured once the config file and env are merged.
	rootCmd.PreRunE = chainPreRun(rootCmd.PreRunE, func(cmd *cobra.Command, args []string) error {
		if updateFlag {
			return nil
		}
		level := opts.LogLevel
		if opts.Verbose {
			level = "debug"
		}
		return logger.Setup(level, opts.LogFile)
	})
}

// Execute runs the root command. Validation errors exit with status 2,
// everything else (including an incomplete batch) with status 1.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ve *session.ValidationError
		if errors.As(err, &ve) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// chainPreRun combines two PreRunE functions.
func chainPreRun(first, second func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if first != nil {
			if err := first(cmd, args); err != nil {
				return err
			}
		}
		return second(cmd, args)
	}
}

// intSliceValue implements pflag.Value for comma-separated int slices.
type intSliceValue struct {
	target *[]int
}

func (v *intSliceValue) String() string {
	if v.target == nil || len(*v.target) == 0 {
		return ""
	}
	parts := make([]string, len(*v.target))
	for i, val := range *v.target {
		parts[i] = strconv.Itoa(val)
	}
	return strings.Join(parts, ",")
}

func (v *intSliceValue) Set(s string) error {
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// Ranges like 3-7 select every index in between.
		if lo, hi, ok := strings.Cut(p, "-"); ok && lo != "" {
			start, err1 := strconv.Atoi(lo)
			end, err2 := strconv.Atoi(hi)
			if err1 != nil || err2 != nil || end < start {
				return fmt.Errorf("invalid index range %q", p)
			}
			for n := start; n <= end; n++ {
				*v.target = append(*v.target, n)
			}
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid index %q: %w", p, err)
		}
		*v.target = append(*v.target, n)
	}
	return nil
}

func (v *intSliceValue) Type() string { return "ints" }

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	const col = 36
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}

func helpBanner(ver string) string {
	if ver != "dev" && ver != "" && !strings.HasPrefix(ver, "v") {
		ver = "v" + ver
	}
	return fmt.Sprintf(`
        _      __         ____     __      __
   ___ (_)____/ /__ ___  / __/__  / /_____/ /
  / _ \/ / __/  '_// _ \/ _// -_)/ __/ __/ _ \
 / .__/_/\__/_/\_\/_//_/_/  \__/ \__/\__/_//_/
/_/                                           %s

`, ver)
}
