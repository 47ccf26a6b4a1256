// Package workspace gathers what the assistant knows about the working
// tree: tracked files and their top-level definitions, the host system,
// the tracked-file context set, and shell helpers for the outer loop.
package workspace

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// truncateHead and truncateTail bound shell output kept for the model.
const (
	truncateHead  = 10
	truncateTail  = 40
	truncateLimit = 50
)

// TruncatedMarker replaces elided lines in truncated output.
const TruncatedMarker = "[TRUNCATED]"

// InterruptedMarker is appended when a command is cut short.
const InterruptedMarker = "[INTERRUPTED]"

// Run executes a command silently and returns its trimmed stdout. The
// second result is false when the command fails for any reason; callers
// treat that as "no output" rather than an error.
func Run(command string) (string, bool) {
	cmd := exec.Command("bash", "-c", command)
	var stdout strings.Builder
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", false
	}
	return strings.TrimSpace(stdout.String()), true
}

// RunInteractive executes a command, echoing combined output line by line
// to echo as it is produced, and returns the captured lines with the exit
// code. Cancelling ctx terminates the command and appends the interrupted
// marker; the partial output is still returned.
func RunInteractive(ctx context.Context, command string, echo io.Writer) ([]string, int) {
	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return []string{err.Error()}, 1
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return []string{err.Error()}, 1
	}

	var lines []string
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		lines = append(lines, line)
		if echo != nil {
			fmt.Fprintln(echo, line)
		}
	}

	err = cmd.Wait()
	if ctx.Err() != nil {
		lines = append(lines, InterruptedMarker)
		if echo != nil {
			fmt.Fprintln(echo, InterruptedMarker)
		}
	}

	exitCode := 0
	if err != nil {
		exitCode = 1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
	}
	return lines, exitCode
}

// TruncateLines keeps the head and tail of long output, marking the gap.
// Output at or under the limit is returned unchanged.
func TruncateLines(lines []string) []string {
	if len(lines) <= truncateLimit {
		return lines
	}
	truncated := make([]string, 0, truncateHead+1+truncateTail)
	truncated = append(truncated, lines[:truncateHead]...)
	truncated = append(truncated, TruncatedMarker)
	truncated = append(truncated, lines[len(lines)-truncateTail:]...)
	return truncated
}
