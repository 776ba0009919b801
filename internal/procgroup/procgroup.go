// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup runs external helper commands in their own process group
// so a timeout reaps the command together with anything it spawned.
package procgroup

import (
	"context"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/hblink/internal/metrics"
)

// Run starts cmd in a new process group and waits for it. If ctx ends first
// the group is terminated and ctx.Err() is returned.
func Run(ctx context.Context, cmd *exec.Cmd, grace time.Duration) error {
	Set(cmd)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd.Path, err)
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	select {
	case err := <-waitCh:
		return err
	case <-ctx.Done():
		_ = Terminate(cmd, waitCh, grace)
		return ctx.Err()
	}
}

// Terminate sends SIGTERM to the group of cmd, waits up to grace for waitCh
// and then sends SIGKILL. It always drains waitCh and returns its error.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	signalGroup(cmd, syscall.SIGTERM, "SIGTERM")

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-waitCh:
		return err
	case <-timer.C:
		signalGroup(cmd, syscall.SIGKILL, "SIGKILL")
		return <-waitCh
	}
}

func signalGroup(cmd *exec.Cmd, sig syscall.Signal, name string) {
	if err := Kill(cmd, sig); err != nil {
		metrics.IncPlayerSignal(name, "error")
		return
	}
	metrics.IncPlayerSignal(name, "sent")
}
