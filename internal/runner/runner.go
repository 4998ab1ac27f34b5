package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/maxvaer/picknfetch/internal/api"
	"github.com/maxvaer/picknfetch/internal/config"
	"github.com/maxvaer/picknfetch/internal/deliver"
	"github.com/maxvaer/picknfetch/internal/fetch"
	"github.com/maxvaer/picknfetch/internal/filter"
	"github.com/maxvaer/picknfetch/internal/hook"
	"github.com/maxvaer/picknfetch/internal/identity"
	"github.com/maxvaer/picknfetch/internal/logger"
	"github.com/maxvaer/picknfetch/internal/namelist"
	"github.com/maxvaer/picknfetch/internal/output"
	"github.com/maxvaer/picknfetch/internal/reqparse"
	"github.com/maxvaer/picknfetch/internal/resume"
	"github.com/maxvaer/picknfetch/internal/selection"
	"github.com/maxvaer/picknfetch/internal/session"
	"github.com/maxvaer/picknfetch/pkg/version"
)

// ErrIncomplete is returned when a batch finished but not every selected
// entry was delivered.
var ErrIncomplete = errors.New("batch did not complete")

// Run inspects the archive and either lists its entries or downloads the
// selected ones, depending on the selection flags in opts.
func Run(ctx context.Context, opts *config.Options) error {
	log := logger.New("runner")

	// 1. Resolve archive URL and identity.
	id, err := resolveIdentity(opts)
	if err != nil {
		return err
	}

	// 2. Service client.
	client, err := api.NewClient(opts)
	if err != nil {
		return fmt.Errorf("creating service client: %w", err)
	}

	if !opts.Quiet {
		printBanner(opts, id)
	}

	if !opts.HasSelection() {
		return list(ctx, opts, client, id)
	}

	// 3. Delivery target and batch orchestration.
	dir, err := deliver.NewDir(opts.OutputDir)
	if err != nil {
		return err
	}

	pauser, restore := startStdinToggle(opts.Quiet)
	defer restore()

	var progress *output.Progress
	var hookRunner *hook.Runner
	if opts.OnDeliveredCmd != "" {
		hookRunner = hook.NewRunner(opts.OnDeliveredCmd, opts.Quiet)
	}

	orch := fetch.New(client, dir, fetch.Config{
		Rate:   opts.Rate,
		Pauser: pauser,
		OnStart: func(pos, total int, entry api.Entry) {
			if progress != nil {
				progress.Begin(pos, total, entry)
			}
		},
		OnOutcome: func(o fetch.Outcome) {
			if progress != nil {
				progress.Record(o)
			}
			if hookRunner != nil {
				hookRunner.Run(id.SourceURL, o)
			}
		},
	})
	sess := session.New(client, orch)

	// 4. Inspect.
	if err := sess.Inspect(ctx, id); err != nil {
		return err
	}
	entries := sess.Entries()
	if !opts.Quiet {
		fmt.Fprintf(os.Stderr, "[+] %s\n", sess.Status())
	}
	if opts.Tree && !opts.Quiet {
		output.PrintTree(os.Stderr, entries)
	}

	// 5. Build the selection.
	indices, err := buildSelection(opts, id, entries, log)
	if err != nil {
		return err
	}
	for _, i := range indices {
		if err := sess.Toggle(i, true); err != nil {
			if errors.Is(err, selection.ErrOutOfRange) {
				return &session.ValidationError{Msg: fmt.Sprintf("selecting entry %d: %v", i, err), Err: err}
			}
			return fmt.Errorf("selecting entry %d: %w", i, err)
		}
	}
	selected := sess.Selection()
	if len(selected) == 0 {
		return &session.ValidationError{Msg: "no entries matched the selection, please select files to download"}
	}
	if !opts.Quiet {
		fmt.Fprintf(os.Stderr, "[*] Fetching %d of %d entries into %s\n", len(selected), len(entries), dir.Root())
	}

	// 6. Run the batch.
	progress = output.NewProgress(len(selected), opts.Quiet)
	progress.Start()
	report, err := sess.Download(ctx)
	progress.Stop()
	if err != nil {
		return err
	}
	if pauser != nil && pauser.PausedDuration() > 0 {
		log.Debug().Dur("paused", pauser.PausedDuration()).Msg("batch was paused")
	}

	// 7. Report.
	if err := writeOutcomes(opts, report); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}
	if opts.ReportFile != "" {
		if err := resume.FromReport(report).Save(opts.ReportFile); err != nil {
			return err
		}
		if !opts.Quiet && report.Status() != fetch.Completed {
			fmt.Fprintf(os.Stderr, "[*] Retry failed entries with --retry-from %s\n", opts.ReportFile)
		}
	}
	if !opts.Quiet {
		fmt.Fprintf(os.Stderr, "[*] %s\n", sess.Status())
	}

	if report.Status() != fetch.Completed {
		return fmt.Errorf("%w: %d of %d entries failed", ErrIncomplete, len(report.Failed()), len(report.Outcomes))
	}
	return nil
}

// list inspects the archive and writes its entry listing.
func list(ctx context.Context, opts *config.Options, client *api.Client, id identity.Identity) error {
	sess := session.New(client, nil)
	if err := sess.Inspect(ctx, id); err != nil {
		return err
	}
	entries := sess.Entries()

	lw, err := output.NewListWriter(opts.OutputFormat, "", opts.NoColor)
	if err != nil {
		return fmt.Errorf("creating output writer: %w", err)
	}
	defer lw.Close()
	if opts.SortBy != "" && opts.SortBy != "index" {
		lw = output.NewSortedWriter(lw, opts.SortBy)
	}

	if err := lw.WriteHeader(); err != nil {
		return err
	}
	for _, e := range entries {
		if err := lw.WriteEntry(e); err != nil {
			return err
		}
	}
	if err := lw.WriteFooter(len(entries)); err != nil {
		return err
	}

	if opts.Tree && opts.OutputFormat == "text" {
		output.PrintTree(os.Stdout, entries)
	}
	return nil
}

// buildSelection turns the selection flags into entry indices. Explicit
// indices are kept as given; pattern, names and retry selections skip
// directory entries. Exclude and size limits narrow both.
func buildSelection(opts *config.Options, id identity.Identity, entries []api.Entry, log zerolog.Logger) ([]int, error) {
	narrow := filter.NewChain()
	addNarrowing(narrow, opts)

	var indices []int
	for _, i := range opts.Select {
		if i >= 0 && i < len(entries) {
			if filtered, reason := narrow.Apply(&entries[i]); filtered {
				log.Debug().Int("index", i).Str("filter", reason).Msg("explicit index dropped")
				continue
			}
		}
		// Out-of-range indices are passed through so the session rejects them.
		indices = append(indices, i)
	}

	if !opts.All && len(opts.Match) == 0 && opts.NamesFile == "" && opts.RetryFrom == "" {
		return indices, nil
	}

	names, err := selectionNames(opts, id, entries)
	if err != nil {
		return nil, err
	}
	if names != nil && len(names) == 0 {
		return indices, nil
	}

	chain := filter.NewChain()
	chain.Add(filter.DirFilter{})
	if len(opts.Match) > 0 {
		chain.Add(filter.NewMatchFilter(opts.Match))
	}
	if names != nil {
		chain.Add(filter.NewNameFilter(names))
	}
	addNarrowing(chain, opts)

	matched := chain.Select(entries)
	log.Debug().Int("matched", len(matched)).Int("filters", chain.Len()).Msg("filters applied")
	return append(indices, matched...), nil
}

// addNarrowing appends the filters that also apply to explicit indices.
func addNarrowing(c *filter.Chain, opts *config.Options) {
	if len(opts.Exclude) > 0 {
		c.Add(filter.NewExcludeFilter(opts.Exclude))
	}
	if opts.MaxSize > 0 {
		c.Add(filter.NewSizeFilter(opts.MaxSize))
	}
}

// selectionNames collects names from --names-file and --retry-from. It
// returns nil when neither flag is set.
func selectionNames(opts *config.Options, id identity.Identity, entries []api.Entry) ([]string, error) {
	if opts.NamesFile == "" && opts.RetryFrom == "" {
		return nil, nil
	}
	names := []string{}

	if opts.NamesFile != "" {
		fromFile, err := namelist.Load(opts.NamesFile)
		if err != nil {
			return nil, err
		}
		names = append(names, fromFile...)
	}

	if opts.RetryFrom != "" {
		state, err := resume.Load(opts.RetryFrom)
		if err != nil {
			return nil, err
		}
		failed, err := state.FailedNames(id.SourceURL)
		if err != nil {
			return nil, err
		}
		if missing := state.Missing(entries); len(missing) > 0 && !opts.Quiet {
			fmt.Fprintf(os.Stderr, "[!] %d previously failed entries are no longer in the archive: %s\n",
				len(missing), strings.Join(missing, ", "))
		}
		if len(failed) == 0 && !opts.Quiet {
			fmt.Fprintf(os.Stderr, "[+] Previous batch had no failures\n")
		}
		names = append(names, failed...)
	}
	return names, nil
}

// resolveIdentity merges the explicit flags with a raw request file.
// Flags win over values parsed from the file.
func resolveIdentity(opts *config.Options) (identity.Identity, error) {
	archiveURL, cookies, agent := opts.URL, opts.Cookies, opts.UserAgent
	if opts.RequestFile != "" {
		req, err := reqparse.ParseFile(opts.RequestFile)
		if err != nil {
			return identity.Identity{}, err
		}
		if archiveURL == "" {
			archiveURL = req.URL
		}
		if cookies == "" {
			cookies = req.Cookie
		}
		if agent == "" && opts.Impersonate {
			agent = req.UserAgent
		}
	}

	id := identity.New(archiveURL, cookies, opts.Impersonate, agent)
	if err := id.Validate(); err != nil {
		return identity.Identity{}, err
	}
	return id, nil
}

func writeOutcomes(opts *config.Options, report *fetch.Report) error {
	out, err := output.NewWriter(opts.OutputFormat, "", opts.NoColor, opts.Quiet)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := out.WriteHeader(); err != nil {
		return err
	}
	for _, o := range report.Outcomes {
		if err := out.WriteOutcome(o); err != nil {
			return err
		}
	}
	return out.WriteFooter(output.StatsFromReport(report))
}

func printBanner(opts *config.Options, id identity.Identity) {
	c := color.New(color.FgCyan)
	d := color.New(color.Faint)
	w := color.New(color.FgHiWhite)
	if opts.NoColor {
		for _, col := range []*color.Color{c, d, w} {
			col.DisableColor()
		}
	}

	fmt.Fprintf(os.Stderr, "\n  %s %s\n", c.Sprint("picknfetch"), d.Sprintf("v%s", version.Version))
	fmt.Fprintf(os.Stderr, "  %s\n", d.Sprint("Selective remote ZIP extraction"))
	fmt.Fprintf(os.Stderr, "%s\n", d.Sprint("  ──────────────────────────────────────"))
	fmt.Fprintf(os.Stderr, "  %s      %s\n", d.Sprint("Archive:"), w.Sprint(id.SourceURL))
	fmt.Fprintf(os.Stderr, "  %s      %s\n", d.Sprint("Service:"), w.Sprint(opts.ServiceURL))
	fmt.Fprintf(os.Stderr, "  %s     %s\n", d.Sprint("Identity:"), w.Sprint(id.Agent.String()))
	if id.Cookies != "" {
		fmt.Fprintf(os.Stderr, "  %s      %s\n", d.Sprint("Cookies:"), w.Sprint("yes"))
	}
	if opts.HasSelection() {
		fmt.Fprintf(os.Stderr, "  %s       %s\n", d.Sprint("Output:"), w.Sprint(opts.OutputDir))
	}
	if opts.Rate > 0 {
		fmt.Fprintf(os.Stderr, "  %s         %s\n", d.Sprint("Rate:"), w.Sprintf("%d/s", opts.Rate))
	}
	fmt.Fprintf(os.Stderr, "%s\n\n", d.Sprint("  ──────────────────────────────────────"))
}
