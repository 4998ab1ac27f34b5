package namelist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads entry names from path, one per line. "-" reads stdin.
func Load(path string) ([]string, error) {
	if path == "-" {
		return Parse(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading names file %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse returns de-duplicated names in first-seen order. Blank lines and
// lines starting with "#" are skipped; surrounding whitespace is trimmed.
func Parse(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	seen := make(map[string]struct{})
	var result []string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; !ok {
			seen[line] = struct{}{}
			result = append(result, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading names: %w", err)
	}
	return result, nil
}
