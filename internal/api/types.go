package api

// Compression method codes as reported by the inspection service.
const (
	MethodStore   = 0
	MethodDeflate = 8
)

// Entry describes one member of the remote archive exactly as the
// inspection service reported it. Index is its position in the returned
// list and is the only handle used for selection.
type Entry struct {
	Index             int    `json:"index"`
	Filename          string `json:"filename"`
	Size              *int64 `json:"size,omitempty"`
	CompressedSize    int64  `json:"compressed_size"`
	Compression       int    `json:"compression"`
	LocalHeaderOffset int64  `json:"local_header_offset"`
}

// DisplaySize returns the uncompressed size when the service reported one,
// otherwise the compressed size.
func (e Entry) DisplaySize() int64 {
	if e.Size != nil {
		return *e.Size
	}
	return e.CompressedSize
}

// IsDir reports whether the entry names a directory.
func (e Entry) IsDir() bool {
	return len(e.Filename) > 0 && e.Filename[len(e.Filename)-1] == '/'
}

// MethodName returns a short label for the compression method.
func (e Entry) MethodName() string {
	switch e.Compression {
	case MethodStore:
		return "store"
	case MethodDeflate:
		return "deflate"
	case 9:
		return "deflate64"
	case 12:
		return "bzip2"
	case 14:
		return "lzma"
	case 93:
		return "zstd"
	case 95:
		return "xz"
	default:
		return "other"
	}
}

// inspectRequest is the body POSTed to the inspect endpoint.
type inspectRequest struct {
	URL       string `json:"url"`
	Cookies   string `json:"cookies"`
	UserAgent string `json:"userAgent"`
}

type fileJSON struct {
	Filename          string `json:"filename"`
	Size              *int64 `json:"size"`
	CompressedSize    *int64 `json:"compressed_size"`
	Compression       *int   `json:"compression"`
	LocalHeaderOffset *int64 `json:"local_header_offset"`
}

type inspectResponse struct {
	Files *[]fileJSON `json:"files"`
}

// downloadRequest is the body POSTed to the download endpoint. Offset,
// CompSize and Compression are copied verbatim from the Entry.
type downloadRequest struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	Offset      int64  `json:"offset"`
	CompSize    int64  `json:"comp_size"`
	Compression int    `json:"compression"`
	Cookies     string `json:"cookies"`
	UserAgent   string `json:"userAgent"`
}

type errorResponse struct {
	Error string `json:"error"`
}
