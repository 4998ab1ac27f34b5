package hook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/maxvaer/picknfetch/internal/fetch"
	"github.com/maxvaer/picknfetch/internal/logger"
)

// payload is the JSON document sent to the hook command via stdin.
type payload struct {
	Archive     string `json:"archive"`
	Index       int    `json:"index"`
	Filename    string `json:"filename"`
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	Compression int    `json:"compression"`
}

// Runner executes a shell command for each delivered entry.
type Runner struct {
	cmd     string
	quiet   bool
	timeout time.Duration
	logger  zerolog.Logger
}

// NewRunner creates a hook runner. cmd is the shell command to execute.
func NewRunner(cmd string, quiet bool) *Runner {
	return &Runner{cmd: cmd, quiet: quiet, timeout: 30 * time.Second, logger: logger.New("hook")}
}

// Run executes the hook command for a delivered outcome with the entry as
// JSON on stdin. Failed outcomes are ignored. Hook errors are reported but
// never affect the batch.
func (r *Runner) Run(archive string, o fetch.Outcome) {
	if !o.Delivered() {
		return
	}

	data, err := json.Marshal(payload{
		Archive:     archive,
		Index:       o.Index,
		Filename:    o.Entry.Filename,
		Path:        o.Path,
		Size:        o.Bytes,
		Compression: o.Entry.Compression,
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("marshal hook payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	shell, args := shellCommand()
	cmd := exec.CommandContext(ctx, shell, append(args, r.expand(o))...)
	cmd.Stdin = bytes.NewReader(data)
	cmd.Stderr = os.Stderr

	output, err := cmd.Output()
	if err != nil {
		r.logger.Warn().Err(err).Str("file", o.Entry.Filename).Msg("hook failed")
		if !r.quiet {
			fmt.Fprintf(os.Stderr, "[hook] error: %v\n", err)
		}
		return
	}

	if len(output) > 0 && !r.quiet {
		fmt.Fprintf(os.Stderr, "[hook] %s", output)
	}
}

// expand replaces {file}, {path}, {size} and {index} placeholders.
func (r *Runner) expand(o fetch.Outcome) string {
	return strings.NewReplacer(
		"{file}", o.Entry.Filename,
		"{path}", o.Path,
		"{size}", strconv.FormatInt(o.Bytes, 10),
		"{index}", strconv.Itoa(o.Index),
	).Replace(r.cmd)
}

func shellCommand() (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C"}
	}
	return "sh", []string{"-c"}
}
