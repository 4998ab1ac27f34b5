package reqparse

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
)

// ParsedRequest holds the archive URL and identity headers extracted from a
// raw HTTP request file.
type ParsedRequest struct {
	Method    string
	URL       string // full archive URL: scheme + Host + request target
	Cookie    string
	UserAgent string
	Headers   map[string]string
}

// ParseFile reads a raw HTTP request (e.g. a Burp Suite export of the
// request that downloads the archive in a browser).
func ParseFile(path string) (*ParsedRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening request file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a raw HTTP request from r.
func Parse(r io.Reader) (*ParsedRequest, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB lines for large cookies

	// Request line: GET /path HTTP/1.1
	if !scanner.Scan() {
		return nil, fmt.Errorf("request file is empty")
	}
	requestLine := strings.TrimSpace(scanner.Text())
	parts := strings.SplitN(requestLine, " ", 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid request line: %q", requestLine)
	}
	method := parts[0]
	target := parts[1]

	headers := make(map[string]string)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			break
		}
		colonIdx := strings.Index(line, ":")
		if colonIdx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:colonIdx])
		value := strings.TrimSpace(line[colonIdx+1:])
		if prev, ok := headers[key]; ok && strings.EqualFold(key, "Cookie") {
			value = prev + "; " + value
		}
		headers[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}

	out := &ParsedRequest{
		Method:    method,
		Cookie:    header(headers, "Cookie"),
		UserAgent: header(headers, "User-Agent"),
		Headers:   headers,
	}

	// Absolute-form request target (proxies export these).
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("invalid URL in request line: %w", err)
		}
		out.URL = u.String()
		return out, nil
	}

	host := header(headers, "Host")
	if host == "" {
		return nil, fmt.Errorf("request file missing Host header")
	}

	// Burp exports carry no scheme; assume TLS unless port 80 is explicit.
	scheme := "https"
	if strings.HasSuffix(host, ":80") {
		scheme = "http"
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	out.URL = scheme + "://" + host + target
	return out, nil
}

func header(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
