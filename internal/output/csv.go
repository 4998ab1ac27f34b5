package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/maxvaer/picknfetch/internal/api"
	"github.com/maxvaer/picknfetch/internal/fetch"
)

// CSVWriter writes one row per outcome.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

func newCSVWriter(w io.Writer, closer io.Closer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w), closer: closer}
}

func (c *CSVWriter) WriteHeader() error {
	return c.w.Write([]string{"index", "filename", "delivered", "path", "bytes", "error"})
}

func (c *CSVWriter) WriteOutcome(o fetch.Outcome) error {
	return c.w.Write([]string{
		strconv.Itoa(o.Index),
		o.Entry.Filename,
		strconv.FormatBool(o.Delivered()),
		o.Path,
		strconv.FormatInt(o.Bytes, 10),
		o.Reason(),
	})
}

func (c *CSVWriter) WriteFooter(_ Stats) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVWriter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// CSVListWriter writes one row per archive entry.
type CSVListWriter struct {
	w      *csv.Writer
	closer io.Closer
}

func newCSVListWriter(w io.Writer, closer io.Closer) *CSVListWriter {
	return &CSVListWriter{w: csv.NewWriter(w), closer: closer}
}

func (c *CSVListWriter) WriteHeader() error {
	return c.w.Write([]string{"index", "filename", "size", "compressed_size", "compression", "local_header_offset"})
}

func (c *CSVListWriter) WriteEntry(e api.Entry) error {
	size := ""
	if e.Size != nil {
		size = strconv.FormatInt(*e.Size, 10)
	}
	return c.w.Write([]string{
		strconv.Itoa(e.Index),
		e.Filename,
		size,
		strconv.FormatInt(e.CompressedSize, 10),
		strconv.Itoa(e.Compression),
		strconv.FormatInt(e.LocalHeaderOffset, 10),
	})
}

func (c *CSVListWriter) WriteFooter(_ int) error {
	c.w.Flush()
	return c.w.Error()
}

func (c *CSVListWriter) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
