// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup runs helper commands (docker compose) in their own
// process group so cancelling them also stops their children.
package procgroup

import (
	"os/exec"
	"syscall"
	"time"
)

// Bind puts cmd in a new process group and makes context cancellation send
// SIGTERM to the whole group. If the leader is still alive after grace, the
// exec package kills it. cmd must have been created with CommandContext.
func Bind(cmd *exec.Cmd, grace time.Duration) {
	Set(cmd)
	cmd.Cancel = func() error {
		return Kill(cmd, syscall.SIGTERM)
	}
	cmd.WaitDelay = grace
}
