// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmdexec runs external programs with bounded timeouts and captures
// their output without ever returning an error for command-level failures.
// Detectors interpret exit codes; a timeout or missing binary manifests as a
// synthetic non-zero exit code with a diagnostic on stderr.
package cmdexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/NVIDIA/hwsnap/pkg/defaults"
)

// Synthetic exit codes for failures that never produced a process exit.
const (
	// ExitTimeout is reported when the command exceeded its timeout.
	ExitTimeout = -1
	// ExitNotFound mirrors the shell convention for a missing command.
	ExitNotFound = 127
)

// Result captures the complete outcome of a command invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// OK reports whether the command ran to completion with a zero exit code.
func (r Result) OK() bool {
	return r.ExitCode == 0
}

// Runner executes external commands. The zero value is usable and applies
// defaults.CommandTimeout when no timeout is given.
type Runner struct {
	// DefaultTimeout is applied when Run is called with a zero timeout.
	DefaultTimeout time.Duration
}

// Run executes name with args, bounded by timeout. It never returns an
// error: non-zero exits, missing binaries, and timeouts are all expressed
// through the Result. The passed context is still honored for cancellation.
func (r *Runner) Run(ctx context.Context, name string, args []string, timeout time.Duration) Result {
	if timeout <= 0 {
		timeout = r.DefaultTimeout
	}
	if timeout <= 0 {
		timeout = defaults.CommandTimeout
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	switch {
	case err == nil:
		res.ExitCode = 0

	case cctx.Err() == context.DeadlineExceeded:
		res.ExitCode = ExitTimeout
		res.Stderr = fmt.Sprintf("command %q timed out after %s", name, timeout)
		slog.Warn("command timed out", "command", name, "timeout", timeout)

	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			// Start failed entirely, typically a missing binary.
			res.ExitCode = ExitNotFound
			res.Stderr = err.Error()
		}
	}

	slog.Debug("command finished",
		"command", name,
		"exitCode", res.ExitCode,
		"durationMs", elapsed.Milliseconds(),
	)

	return res
}

// Exists reports whether name resolves on PATH without executing it. Used by
// detectors to short-circuit when their backing tool is absent.
func Exists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
