package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/rs/zerolog"

	"github.com/maxvaer/picknfetch/internal/config"
	"github.com/maxvaer/picknfetch/internal/identity"
	"github.com/maxvaer/picknfetch/internal/logger"
)

const (
	inspectPath  = "/api/inspect"
	downloadPath = "/api/download"

	// maxErrorBody bounds how much of a failed response is read for its
	// error message.
	maxErrorBody = 64 << 10
)

// Client talks to the remote inspection/extraction service.
type Client struct {
	client      *http.Client
	inspectURL  string
	downloadURL string
	logger      zerolog.Logger
}

// NewClient creates a Client from the provided options.
func NewClient(opts *config.Options) (*Client, error) {
	base, err := url.Parse(opts.ServiceURL)
	if err != nil {
		return nil, fmt.Errorf("invalid service URL %q: %w", opts.ServiceURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid service URL %q: scheme and host are required", opts.ServiceURL)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout: opts.Timeout,
		}).DialContext,
		TLSHandshakeTimeout:   opts.Timeout,
		ResponseHeaderTimeout: opts.Timeout,
		MaxIdleConnsPerHost:   1,
	}

	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", opts.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	// The timeout bounds connecting and waiting for headers only. Entry
	// bodies may stream for longer than that.
	return &Client{
		client:      &http.Client{Transport: transport},
		inspectURL:  base.String() + inspectPath,
		downloadURL: base.String() + downloadPath,
		logger:      logger.New("api"),
	}, nil
}

// Inspect asks the service for the archive's entry list. The list is
// returned in the order the service reported it and each Entry.Index is
// its position in that order.
func (c *Client) Inspect(ctx context.Context, id identity.Identity) ([]Entry, error) {
	if err := id.Validate(); err != nil {
		return nil, &InspectionError{Reason: err.Error(), Err: err}
	}

	payload := inspectRequest{
		URL:       id.SourceURL,
		Cookies:   id.Cookies,
		UserAgent: id.UserAgent(),
	}

	start := time.Now()
	resp, err := c.post(ctx, c.inspectURL, payload)
	if err != nil {
		c.logger.Warn().Err(err).Str("archive", id.SourceURL).Msg("inspect request failed")
		return nil, &InspectionError{Reason: transportReason(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := errorReason(resp)
		c.logger.Warn().Int("status", resp.StatusCode).Str("reason", reason).Msg("inspect rejected")
		return nil, &InspectionError{
			Reason:     reason,
			StatusCode: resp.StatusCode,
			Err:        goerr.New("inspect returned non-2xx status", goerr.V("status", resp.StatusCode)),
		}
	}

	var body inspectResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &InspectionError{
			Reason:     "malformed response: " + err.Error(),
			StatusCode: resp.StatusCode,
			Err:        goerr.Wrap(err, "failed to decode inspect response"),
		}
	}
	if body.Files == nil {
		return nil, &InspectionError{
			Reason:     "malformed response: missing files",
			StatusCode: resp.StatusCode,
			Err:        goerr.New("inspect response has no files field"),
		}
	}

	entries := make([]Entry, len(*body.Files))
	for i, f := range *body.Files {
		e, err := toEntry(i, f)
		if err != nil {
			return nil, &InspectionError{
				Reason:     "malformed response: " + err.Error(),
				StatusCode: resp.StatusCode,
				Err:        err,
			}
		}
		entries[i] = e
	}

	c.logger.Debug().
		Str("archive", id.SourceURL).
		Int("entries", len(entries)).
		Dur("elapsed", time.Since(start)).
		Msg("inspected archive")
	return entries, nil
}

func toEntry(i int, f fileJSON) (Entry, error) {
	if f.Filename == "" {
		return Entry{}, goerr.New(fmt.Sprintf("file %d has no filename", i))
	}
	if f.CompressedSize == nil || f.Compression == nil || f.LocalHeaderOffset == nil {
		return Entry{}, goerr.New(fmt.Sprintf("file %q is missing compressed_size, compression or local_header_offset", f.Filename))
	}
	if *f.CompressedSize < 0 || *f.LocalHeaderOffset < 0 || (f.Size != nil && *f.Size < 0) {
		return Entry{}, goerr.New(fmt.Sprintf("file %q has a negative size or offset", f.Filename))
	}
	return Entry{
		Index:             i,
		Filename:          f.Filename,
		Size:              f.Size,
		CompressedSize:    *f.CompressedSize,
		Compression:       *f.Compression,
		LocalHeaderOffset: *f.LocalHeaderOffset,
	}, nil
}

// Extract fetches the bytes of a single entry. The returned slice is the
// decompressed content ready to be saved as entry.Filename.
func (c *Client) Extract(ctx context.Context, id identity.Identity, entry Entry) ([]byte, error) {
	payload := downloadRequest{
		URL:         id.SourceURL,
		Filename:    entry.Filename,
		Offset:      entry.LocalHeaderOffset,
		CompSize:    entry.CompressedSize,
		Compression: entry.Compression,
		Cookies:     id.Cookies,
		UserAgent:   id.UserAgent(),
	}

	resp, err := c.post(ctx, c.downloadURL, payload)
	if err != nil {
		return nil, &ExtractionError{
			Filename: entry.Filename,
			Reason:   transportReason(err),
			Err:      goerr.Wrap(err, "failed to send download request", goerr.V("filename", entry.Filename)),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExtractionError{
			Filename:   entry.Filename,
			Reason:     errorReason(resp),
			StatusCode: resp.StatusCode,
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExtractionError{
			Filename:   entry.Filename,
			Reason:     "reading response body: " + err.Error(),
			StatusCode: resp.StatusCode,
			Err:        goerr.Wrap(err, "failed to read download body", goerr.V("filename", entry.Filename)),
		}
	}
	return data, nil
}

func (c *Client) post(ctx context.Context, target string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("url", target))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, application/octet-stream")

	return c.client.Do(req)
}

// errorReason extracts the service's {"error": "..."} message, falling
// back to the HTTP status when the body is empty or not JSON.
func errorReason(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var e errorResponse
	if err := json.Unmarshal(data, &e); err == nil && e.Error != "" {
		return e.Error
	}
	return fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

func transportReason(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err.Error()
	}
	return err.Error()
}
