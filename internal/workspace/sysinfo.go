package workspace

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// SystemInfo summarizes the host for the system prompt. It is derived once
// per process; the assistant never needs it fresher than that.
type SystemInfo struct {
	// OS is the operating system name.
	OS string
	// Arch is the machine architecture.
	Arch string
	// GoVersion is the runtime's Go version.
	GoVersion string
	// WorkingDir is the process working directory.
	WorkingDir string
	// Shell is the user's configured shell, if known.
	Shell string
	// Tools lists developer tools found on PATH.
	Tools []string
}

// probedTools are the commands we report when present on PATH.
var probedTools = []string{"git", "go", "make", "docker", "curl", "rg", "python3", "node"}

var (
	systemOnce sync.Once
	systemInfo *SystemInfo
)

// System returns the cached host summary. Repeated calls return the same
// value.
func System() *SystemInfo {
	systemOnce.Do(func() {
		info := &SystemInfo{
			OS:        runtime.GOOS,
			Arch:      runtime.GOARCH,
			GoVersion: runtime.Version(),
			Shell:     os.Getenv("SHELL"),
		}
		if cwd, err := os.Getwd(); err == nil {
			info.WorkingDir = cwd
		}
		for _, tool := range probedTools {
			if _, err := exec.LookPath(tool); err == nil {
				info.Tools = append(info.Tools, tool)
			}
		}
		systemInfo = info
	})
	return systemInfo
}

// Describe renders the summary as prompt-ready text.
func (s *SystemInfo) Describe() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "os: %s/%s\n", s.OS, s.Arch)
	fmt.Fprintf(&b, "go: %s\n", s.GoVersion)
	if s.WorkingDir != "" {
		fmt.Fprintf(&b, "cwd: %s\n", s.WorkingDir)
	}
	if s.Shell != "" {
		fmt.Fprintf(&b, "shell: %s\n", s.Shell)
	}
	if len(s.Tools) > 0 {
		fmt.Fprintf(&b, "tools: %s\n", strings.Join(s.Tools, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
