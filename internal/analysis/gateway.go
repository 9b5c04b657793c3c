// Package analysis invokes the external biosignal analysis process and
// parses its structured result.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Sentinel and typed errors. All are terminal for the request: the gateway
// never retries.
var (
	// ErrSpawn is returned when the analysis process cannot be started,
	// e.g. the interpreter or script is missing.
	ErrSpawn = errors.New("starting analysis process failed")

	// ErrTimeout is returned when the process exceeds its deadline and is
	// killed.
	ErrTimeout = errors.New("analysis process timed out")

	// ErrMissingInput is returned when any of the four channel paths is empty.
	ErrMissingInput = errors.New("all four input files are required: eeg1, eeg2, ecg, gsr")
)

// ProcessError reports a non-zero exit from the analysis process, carrying
// the captured standard-error text for operator debugging.
type ProcessError struct {
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("analysis process exited with code %d: %s", e.ExitCode, strings.TrimSpace(e.Stderr))
}

// ParseError reports process output that contained no parseable JSON object.
type ParseError struct {
	Output string
}

func (e *ParseError) Error() string {
	return "parsing analysis output failed"
}

// Input holds the four uploaded file paths by channel role.
type Input struct {
	EEG1 string
	EEG2 string
	ECG  string
	GSR  string
}

// Result is the structured output of one analysis run.
type Result struct {
	ThetaPower        float64 `json:"theta_power"`
	HRV               float64 `json:"hrv"`
	P300Latency       float64 `json:"p300_latency"`
	Engagement        float64 `json:"engagement"`
	Arousal           float64 `json:"arousal"`
	Valence           float64 `json:"valence"`
	OverallPreference float64 `json:"overall_preference"`
	Focus             float64 `json:"focus"`
	Relax             float64 `json:"relax"`
	Excite            float64 `json:"excite"`
	Preference        float64 `json:"preference"`
}

// Gateway runs the external analysis executable. One process is spawned per
// Run call; concurrent calls spawn independent processes.
type Gateway struct {
	interpreter string
	script      string
	timeout     time.Duration
}

// NewGateway creates a Gateway invoking `interpreter script <4 paths>`.
// A non-positive timeout defaults to 120s.
func NewGateway(interpreter, script string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Gateway{
		interpreter: interpreter,
		script:      script,
		timeout:     timeout,
	}
}

// Run executes the analysis process over the four input files and returns
// its parsed result. The process is bounded by the gateway timeout; on
// expiry it is killed and ErrTimeout returned.
func (g *Gateway) Run(ctx context.Context, input Input) (*Result, error) {
	if input.EEG1 == "" || input.EEG2 == "" || input.ECG == "" || input.GSR == "" {
		return nil, ErrMissingInput
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, g.interpreter, g.script, input.EEG1, input.EEG2, input.ECG, input.GSR)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	err := cmd.Wait()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, ErrTimeout
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ProcessError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		return nil, fmt.Errorf("waiting for analysis process: %w", err)
	}

	result, err := extractResult(stdout.String())
	if err != nil {
		return nil, err
	}
	return result, nil
}

// extractResult parses the process output. The process may interleave
// diagnostic prints with its result, so lines are scanned in reverse for the
// last one that is a complete JSON object; if no single line parses, the
// whole trimmed output is tried.
func extractResult(output string) (*Result, error) {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			continue
		}
		var result Result
		if err := json.Unmarshal([]byte(line), &result); err == nil {
			return &result, nil
		}
	}

	var result Result
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &result); err != nil {
		return nil, &ParseError{Output: output}
	}
	return &result, nil
}
