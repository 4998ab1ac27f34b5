// Package testutil provides an in-process stand-in for the remote
// inspection/extraction service used by package tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// File is one archive member served by the fake service.
type File struct {
	Filename    string
	Size        *int64 // nil omits the field from the inspect response
	CompSize    int64
	Compression int
	Offset      int64
	Content     []byte

	// Failure injection for the download endpoint.
	Status int           // non-zero and non-2xx fails the download
	Error  string        // error message sent with Status
	RawErr string        // sent verbatim instead of a JSON error body
	Delay  time.Duration // applied before responding
}

// InspectCall records one request made to /api/inspect.
type InspectCall struct {
	URL       string `json:"url"`
	Cookies   string `json:"cookies"`
	UserAgent string `json:"userAgent"`
}

// DownloadCall records one request made to /api/download.
type DownloadCall struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Offset      int64  `json:"offset"`
	CompSize    int64  `json:"comp_size"`
	Compression int    `json:"compression"`
	Cookies     string `json:"cookies"`
	UserAgent   string `json:"userAgent"`
}

// Service is a fake inspection/extraction service.
type Service struct {
	Server *httptest.Server

	mu            sync.Mutex
	files         []File
	inspectStatus int
	inspectError  string
	inspectRaw    string
	inspects      []InspectCall
	downloads     []DownloadCall
}

// NewService starts a fake service serving files. It is closed when the
// test ends.
func NewService(t *testing.T, files ...File) *Service {
	t.Helper()
	s := &Service{files: files}

	r := chi.NewRouter()
	r.Post("/api/inspect", s.handleInspect)
	r.Post("/api/download", s.handleDownload)

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Server.Close)
	return s
}

// URL returns the service base URL.
func (s *Service) URL() string { return s.Server.URL }

// SetFiles replaces the archive listing.
func (s *Service) SetFiles(files ...File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = files
}

// FailInspect makes /api/inspect respond with status and a JSON error.
func (s *Service) FailInspect(status int, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inspectStatus = status
	s.inspectError = msg
}

// RawInspect makes /api/inspect respond 200 with body verbatim.
func (s *Service) RawInspect(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inspectRaw = body
}

// Inspects returns a copy of the recorded inspect calls.
func (s *Service) Inspects() []InspectCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]InspectCall(nil), s.inspects...)
}

// Downloads returns a copy of the recorded download calls.
func (s *Service) Downloads() []DownloadCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DownloadCall(nil), s.downloads...)
}

func (s *Service) handleInspect(w http.ResponseWriter, r *http.Request) {
	var call InspectCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	s.mu.Lock()
	s.inspects = append(s.inspects, call)
	status, msg, raw := s.inspectStatus, s.inspectError, s.inspectRaw
	files := append([]File(nil), s.files...)
	s.mu.Unlock()

	if status != 0 {
		writeError(w, status, msg)
		return
	}
	if raw != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(raw))
		return
	}

	type fileJSON struct {
		Filename          string `json:"filename"`
		Size              *int64 `json:"size,omitempty"`
		CompressedSize    int64  `json:"compressed_size"`
		Compression       int    `json:"compression"`
		LocalHeaderOffset int64  `json:"local_header_offset"`
	}
	out := struct {
		Files []fileJSON `json:"files"`
	}{Files: make([]fileJSON, 0, len(files))}
	for _, f := range files {
		out.Files = append(out.Files, fileJSON{
			Filename:          f.Filename,
			Size:              f.Size,
			CompressedSize:    f.CompSize,
			Compression:       f.Compression,
			LocalHeaderOffset: f.Offset,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Service) handleDownload(w http.ResponseWriter, r *http.Request) {
	var call DownloadCall
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	s.mu.Lock()
	s.downloads = append(s.downloads, call)
	var file *File
	for i := range s.files {
		if s.files[i].Filename == call.Filename {
			f := s.files[i]
			file = &f
			break
		}
	}
	s.mu.Unlock()

	if file == nil {
		writeError(w, http.StatusNotFound, "file not found in archive")
		return
	}
	if file.Delay > 0 {
		time.Sleep(file.Delay)
	}
	if file.RawErr != "" {
		w.WriteHeader(file.Status)
		_, _ = w.Write([]byte(file.RawErr))
		return
	}
	if file.Status != 0 && (file.Status < 200 || file.Status > 299) {
		writeError(w, file.Status, file.Error)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(file.Content)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Int64 returns a pointer to v, for File.Size.
func Int64(v int64) *int64 { return &v }
