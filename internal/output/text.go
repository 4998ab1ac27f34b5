package output

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/maxvaer/picknfetch/internal/api"
	"github.com/maxvaer/picknfetch/internal/fetch"
)

type palette struct {
	ok   *color.Color
	fail *color.Color
	dir  *color.Color
	dim  *color.Color
}

func newPalette(noColor bool) palette {
	p := palette{
		ok:   color.New(color.FgGreen),
		fail: color.New(color.FgRed),
		dir:  color.New(color.FgCyan),
		dim:  color.New(color.Faint),
	}
	if noColor {
		for _, c := range []*color.Color{p.ok, p.fail, p.dir, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

// TextWriter writes coloured per-entry outcome lines.
type TextWriter struct {
	w      io.Writer
	closer io.Closer
	quiet  bool
	colors palette
}

func newTextWriter(w io.Writer, closer io.Closer, noColor, quiet bool) *TextWriter {
	return &TextWriter{w: w, closer: closer, quiet: quiet, colors: newPalette(noColor)}
}

func (t *TextWriter) WriteHeader() error {
	if t.quiet {
		return nil
	}
	_, err := fmt.Fprintln(t.w, t.colors.dim.Sprint("      Index        Size  File"))
	return err
}

func (t *TextWriter) WriteOutcome(o fetch.Outcome) error {
	if o.Delivered() {
		_, err := fmt.Fprintf(t.w, "%s  %5d  %10s  %s -> %s\n",
			t.colors.ok.Sprint("[ok]"), o.Index, HumanSize(o.Bytes), o.Entry.Filename, o.Path)
		return err
	}
	_, err := fmt.Fprintf(t.w, "%s  %5d  %10s  %s: %s\n",
		t.colors.fail.Sprint("[!!]"), o.Index, "-", o.Entry.Filename, o.Reason())
	return err
}

func (t *TextWriter) WriteFooter(stats Stats) error {
	if t.quiet {
		return nil
	}
	_, err := fmt.Fprintf(t.w,
		"\nBatch %s: %d selected | %d delivered | %d failed | %s | %s\n",
		stats.Status,
		stats.Selected,
		stats.Delivered,
		stats.Failed,
		HumanSize(stats.Bytes),
		stats.Duration.Round(time.Millisecond),
	)
	return err
}

func (t *TextWriter) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// TextListWriter prints the archive listing as an aligned table.
type TextListWriter struct {
	w      io.Writer
	closer io.Closer
	colors palette
}

func newTextListWriter(w io.Writer, closer io.Closer, noColor bool) *TextListWriter {
	return &TextListWriter{w: w, closer: closer, colors: newPalette(noColor)}
}

func (t *TextListWriter) WriteHeader() error {
	_, err := fmt.Fprintln(t.w, t.colors.dim.Sprint("Index        Size  Compressed  Method      Offset  Name"))
	return err
}

func (t *TextListWriter) WriteEntry(e api.Entry) error {
	name := e.Filename
	if e.IsDir() {
		name = t.colors.dir.Sprint(name)
	}
	_, err := fmt.Fprintf(t.w, "%5d  %10s  %10s  %-8s  %8d  %s\n",
		e.Index, HumanSize(e.DisplaySize()), HumanSize(e.CompressedSize), e.MethodName(), e.LocalHeaderOffset, name)
	return err
}

func (t *TextListWriter) WriteFooter(total int) error {
	_, err := fmt.Fprintf(t.w, "\n%d entries\n", total)
	return err
}

func (t *TextListWriter) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}
