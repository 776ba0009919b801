// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"os"

	"github.com/ManuGH/hblink/internal/link"
)

// FileChecker checks if a file exists and is readable
type FileChecker struct {
	name string
	path string
}

// NewFileChecker creates a checker for file existence. A missing file is
// degraded, since the daemon runs on defaults without one.
func NewFileChecker(name, path string) *FileChecker {
	return &FileChecker{name: name, path: path}
}

func (c *FileChecker) Name() string {
	return c.name
}

func (c *FileChecker) Check(_ context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}

	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{Status: StatusDegraded, Error: "file not found", Message: c.path}
		}
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "expected file, got directory"}
	}
	return CheckResult{Status: StatusHealthy, Message: "file exists and readable"}
}

// RadioSource reports the last known radio reachability.
type RadioSource interface {
	RadioReachable() bool
}

// RadioChecker is degraded while the radio is unreachable.
type RadioChecker struct {
	src RadioSource
}

func NewRadioChecker(src RadioSource) *RadioChecker {
	return &RadioChecker{src: src}
}

func (c *RadioChecker) Name() string { return "radio" }

func (c *RadioChecker) Check(_ context.Context) CheckResult {
	if c.src.RadioReachable() {
		return CheckResult{Status: StatusHealthy, Message: "radio reachable"}
	}
	return CheckResult{Status: StatusDegraded, Message: "radio unreachable"}
}

// LinkChecker reports the presented link status.
type LinkChecker struct {
	current func() (link.Event, bool)
}

// NewLinkChecker creates a checker over a current-status accessor such as
// Sequencer.Current.
func NewLinkChecker(current func() (link.Event, bool)) *LinkChecker {
	return &LinkChecker{current: current}
}

func (c *LinkChecker) Name() string { return "link" }

func (c *LinkChecker) Check(_ context.Context) CheckResult {
	ev, ok := c.current()
	if !ok {
		return CheckResult{Status: StatusDegraded, Message: "no status yet"}
	}
	if ev.Status == link.Connected {
		return CheckResult{Status: StatusHealthy, Message: ev.Status.String()}
	}
	return CheckResult{Status: StatusDegraded, Message: ev.Status.String()}
}
