package lint

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Tool runs an external linter against the snippet written to a temporary
// .cpp file. Missing binaries and timeouts produce empty output, never an
// error, so a partially provisioned machine degrades quietly.
type Tool struct {
	name    string
	binary  string
	args    []string
	timeout time.Duration
	// filter trims raw tool output to the lines worth forwarding.
	filter func(stdout, stderr string) string
}

// NewCppcheck wraps cppcheck with the full check set enabled.
func NewCppcheck() *Tool {
	return &Tool{
		name:    "cppcheck",
		binary:  "cppcheck",
		args:    []string{"--enable=all", "--quiet", "--force"},
		timeout: 15 * time.Second,
		filter: func(stdout, stderr string) string {
			return strings.TrimSpace(stdout + stderr)
		},
	}
}

// NewCpplint wraps cpplint. Its diagnostics go to stderr; progress chatter
// is dropped and output is capped at 15 lines.
func NewCpplint() *Tool {
	return &Tool{
		name:    "cpplint",
		binary:  "cpplint",
		args:    []string{"--quiet"},
		timeout: 15 * time.Second,
		filter: func(_, stderr string) string {
			return filterLines(stderr, 15, func(line string) bool {
				return strings.TrimSpace(line) != "" &&
					!strings.Contains(line, "Done processing") &&
					!strings.Contains(line, "Total errors")
			})
		},
	}
}

// NewClangTidy wraps clang-tidy, keeping only warning and error lines,
// capped at 10.
func NewClangTidy() *Tool {
	return &Tool{
		name:    "clang-tidy",
		binary:  "clang-tidy",
		timeout: 30 * time.Second,
		filter: func(stdout, stderr string) string {
			return filterLines(stdout+stderr, 10, func(line string) bool {
				return strings.Contains(line, "warning:") || strings.Contains(line, "error:")
			})
		},
	}
}

// Name returns the tool name used in merged analysis banners.
func (t *Tool) Name() string { return t.name }

// Analyze writes code to a temp file and runs the linter over it.
func (t *Tool) Analyze(ctx context.Context, code string) (string, error) {
	dir, err := os.MkdirTemp("", "bughound-lint-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "snippet.cpp")
	if err := os.WriteFile(path, []byte(code), 0o644); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	args := append(append([]string{}, t.args...), path)
	if t.name == "clang-tidy" {
		args = append(args, "--", "-std=c++17")
	}

	cmd := exec.CommandContext(ctx, t.binary, args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", nil
		}
		// Linters exit non-zero when they find issues; keep the output.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", nil
		}
	}
	return t.filter(stdout.String(), stderr.String()), nil
}

func filterLines(text string, max int, keep func(string) bool) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if keep(line) {
			kept = append(kept, line)
			if len(kept) >= max {
				break
			}
		}
	}
	return strings.Join(kept, "\n")
}
