package anomaly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/okian/dyscreen/internal/domain/scoring"
)

// waitDelay bounds how long output pipes are drained after the process is killed.
const waitDelay = 500 * time.Millisecond

// Subprocess runs the model as a child process per call. Features are
// written to stdin as JSON and the verdict is read from stdout.
type Subprocess struct {
	command string
	args    []string
	env     []string
}

// SubprocessOption configures a Subprocess.
type SubprocessOption func(*Subprocess)

// WithArgs sets the arguments passed to the command.
func WithArgs(args ...string) SubprocessOption {
	return func(s *Subprocess) {
		s.args = append([]string(nil), args...)
	}
}

// WithEnv appends KEY=VALUE entries to the child environment.
func WithEnv(env ...string) SubprocessOption {
	return func(s *Subprocess) {
		s.env = append(s.env, env...)
	}
}

// NewSubprocess returns a scorer that executes command.
func NewSubprocess(command string, opts ...SubprocessOption) *Subprocess {
	s := &Subprocess{command: command}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score implements scoring.AnomalyScorer. The process is killed when ctx ends.
func (s *Subprocess) Score(ctx context.Context, f scoring.AnomalyFeatures) (scoring.AnomalyScore, error) {
	in, err := json.Marshal(f)
	if err != nil {
		return scoring.AnomalyScore{}, fmt.Errorf("%w: encode features: %v", scoring.ErrAnomalyUnavailable, err)
	}

	cmd := exec.CommandContext(ctx, s.command, s.args...)
	if len(s.env) > 0 {
		cmd.Env = append(cmd.Environ(), s.env...)
	}
	cmd.WaitDelay = waitDelay
	cmd.Stdin = bytes.NewReader(in)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return scoring.AnomalyScore{}, fmt.Errorf("%w: %v", scoring.ErrAnomalyUnavailable, ctx.Err())
		}
		return scoring.AnomalyScore{}, fmt.Errorf("%w: %s: %v: %s",
			scoring.ErrAnomalyUnavailable, s.command, err, strings.TrimSpace(stderr.String()))
	}
	return decode(bytes.TrimSpace(stdout.Bytes()))
}
